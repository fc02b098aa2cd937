package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/dbx"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
)

// PostgresRepository keeps revocations in revoked_refresh_tokens over
// dbx.DBTX (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

// Revoke inserts a revocation record; an existing one is left untouched.
func (r *PostgresRepository) Revoke(ctx context.Context, fingerprint string, expires time.Time) error {
	query := `
		INSERT INTO revoked_refresh_tokens (fingerprint, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (fingerprint) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, fingerprint, expires); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Find returns the revocation record for fingerprint.
// If not found, it returns common.ErrorNotFound.
func (r *PostgresRepository) Find(ctx context.Context, fingerprint string) (*models.RevokedToken, error) {
	query := `
		SELECT fingerprint, expires_at, created_at
		FROM revoked_refresh_tokens
		WHERE fingerprint = $1
	`
	token := &models.RevokedToken{}
	if err := r.db.QueryRowContext(ctx, query, fingerprint).Scan(&token.Fingerprint, &token.Expires, &token.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

// IsRevoked looks the fingerprint up and ignores records past their expiry.
func (r *PostgresRepository) IsRevoked(ctx context.Context, fingerprint string) (bool, error) {
	token, err := r.Find(ctx, fingerprint)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	return token.Expires.After(r.now()), nil
}

// DeleteExpired removes records that expired before now.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM revoked_refresh_tokens
		WHERE expires_at <= $1
	`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
