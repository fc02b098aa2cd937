package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/dbx"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

// scanUser reads id, username, password_digest, roles, active.
func scanUser(row scanner) (*models.User, error) {
	user := &models.User{}
	m := pgtype.NewMap()
	err := row.Scan(&user.ID, &user.UserName, &user.PasswordDigest, m.SQLScanner(&user.Roles), &user.Active)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (id, username, password_digest, roles, active)
		 VALUES ($1, $2, $3, $4, $5)
		 `

	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, query,
		id, user.UserName, user.PasswordDigest, user.Roles, user.Active)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExist
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.ID = id
	return user, nil
}

func (r *PostgresRepository) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	query :=
		`SELECT id, username, password_digest, roles, active FROM users
		 WHERE username = $1
		 `

	user, err := scanUser(r.db.QueryRowContext(ctx, query, userName))

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if uuid.Validate(id) != nil {
		return nil, common.ErrorNotFound
	}

	query :=
		`SELECT id, username, password_digest, roles, active FROM users
		 WHERE id = $1
		 `

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.User, error) {
	query :=
		`SELECT id, username, password_digest, roles, active FROM users
		 ORDER BY created_at, username
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, user *models.User) error {
	if uuid.Validate(user.ID) != nil {
		return common.ErrorNotFound
	}

	query :=
		`UPDATE users SET username = $2, roles = $3, active = $4,
		 password_digest = COALESCE(NULLIF($5, ''), password_digest),
		 updated_at = now()
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		user.ID, user.UserName, user.Roles, user.Active, user.PasswordDigest)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExist
		}
		return fmt.Errorf("db error: %w", err)
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

func (r *PostgresRepository) Delete(ctx context.Context, id string) (string, error) {
	if uuid.Validate(id) != nil {
		return "", common.ErrorNotFound
	}

	query :=
		`DELETE FROM users WHERE id = $1
		 RETURNING username
		 `

	var userName string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&userName)

	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return "", common.ErrorNotFound
		case dbx.IsForeignKeyViolation(err):
			return "", common.ErrorInUse
		}
		return "", fmt.Errorf("db error: %w", err)
	}

	return userName, nil
}
