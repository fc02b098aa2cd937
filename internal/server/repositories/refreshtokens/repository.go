// Package refreshtokens declares the revocation list for refresh tokens and
// provides PostgreSQL and Redis implementations of it.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/server/models"
)

// Repository records refresh tokens revoked by logout. Tokens are identified
// by their SHA-256 fingerprint; the raw token is never stored.
type Repository interface {
	// Revoke stores fingerprint until expires. Revoking the same token twice
	// is not an error.
	Revoke(ctx context.Context, fingerprint string, expires time.Time) error

	// Find returns the revocation record or common.ErrorNotFound.
	Find(ctx context.Context, fingerprint string) (*models.RevokedToken, error)

	// IsRevoked reports whether an unexpired revocation exists.
	IsRevoked(ctx context.Context, fingerprint string) (bool, error)

	// DeleteExpired purges records whose token would have expired by now
	// and returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
