// Package users declares the account repository and its PostgreSQL
// implementation.
package users

import (
	"context"

	"github.com/dmitrijs2005/notekeeper/internal/server/models"
)

// Repository stores user accounts. Lookups by username are case-insensitive.
type Repository interface {
	// Create inserts user and assigns its ID. A taken username yields
	// common.ErrorAlreadyExist.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// GetUserByLogin returns common.ErrorNotFound when nobody has the name.
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	// Update overwrites name, roles and active flag. The digest is replaced
	// only when user.PasswordDigest is non-empty.
	Update(ctx context.Context, user *models.User) error
	// Delete removes the account and returns its last username.
	Delete(ctx context.Context, id string) (string, error)
}
