// Package notes provides the PostgreSQL-backed note repository.
package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/dbx"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/google/uuid"
)

// PostgresRepository implements note storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List returns all notes joined with their owner's username, oldest first.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.Note, error) {
	query := `
		SELECT n.id, n.user_id, u.username, n.title, n.text, n.completed, n.created_at, n.updated_at
		FROM notes n
		JOIN users u ON u.id = n.user_id
		ORDER BY n.created_at
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select notes: %w", err)
	}
	defer rows.Close()

	var result []*models.Note
	for rows.Next() {
		var item models.Note
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.Username, &item.Title, &item.Text,
			&item.Completed, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID returns a single note or common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Note, error) {
	if uuid.Validate(id) != nil {
		return nil, common.ErrorNotFound
	}

	query := `
		SELECT n.id, n.user_id, u.username, n.title, n.text, n.completed, n.created_at, n.updated_at
		FROM notes n
		JOIN users u ON u.id = n.user_id
		WHERE n.id = $1
	`
	var item models.Note
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.UserID, &item.Username, &item.Title, &item.Text,
		&item.Completed, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &item, nil
}

// Create inserts note with a fresh ID.
func (r *PostgresRepository) Create(ctx context.Context, note *models.Note) (*models.Note, error) {
	if uuid.Validate(note.UserID) != nil {
		return nil, common.ErrorNotFound
	}

	query := `
		INSERT INTO notes (id, user_id, title, text, completed)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	id := uuid.NewString()
	err := r.db.QueryRowContext(ctx, query, id, note.UserID, note.Title, note.Text, note.Completed).
		Scan(&note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}

	note.ID = id
	return note, nil
}

// Update overwrites owner, title, text and completion of an existing note.
func (r *PostgresRepository) Update(ctx context.Context, note *models.Note) error {
	if uuid.Validate(note.ID) != nil || uuid.Validate(note.UserID) != nil {
		return common.ErrorNotFound
	}

	query := `
		UPDATE notes
		SET user_id = $2, title = $3, text = $4, completed = $5, updated_at = now()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, note.ID, note.UserID, note.Title, note.Text, note.Completed)
	if err != nil {
		return mapWriteError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// Delete removes a note by ID and returns its title.
func (r *PostgresRepository) Delete(ctx context.Context, id string) (string, error) {
	if uuid.Validate(id) != nil {
		return "", common.ErrorNotFound
	}

	query := `
		DELETE FROM notes
		WHERE id = $1
		RETURNING title
	`
	var title string
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&title); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return title, nil
}

// ExistsForUser reports whether userID owns at least one note.
func (r *PostgresRepository) ExistsForUser(ctx context.Context, userID string) (bool, error) {
	if uuid.Validate(userID) != nil {
		return false, nil
	}

	query := `SELECT EXISTS (SELECT 1 FROM notes WHERE user_id = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func mapWriteError(err error) error {
	switch {
	case dbx.IsUniqueViolation(err):
		return common.ErrorAlreadyExist
	case dbx.IsForeignKeyViolation(err):
		return common.ErrorNotFound
	}
	return fmt.Errorf("db error: %w", err)
}
