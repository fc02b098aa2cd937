package notes

import (
	"context"

	"github.com/dmitrijs2005/notekeeper/internal/server/models"
)

// Repository stores notes. Titles are unique, compared case-insensitively.
type Repository interface {
	// List returns every note with its owner's username filled in.
	List(ctx context.Context) ([]*models.Note, error)
	GetByID(ctx context.Context, id string) (*models.Note, error)
	// Create returns common.ErrorAlreadyExist for a taken title and
	// common.ErrorNotFound when the owner does not exist.
	Create(ctx context.Context, note *models.Note) (*models.Note, error)
	Update(ctx context.Context, note *models.Note) error
	// Delete removes the note and returns its title.
	Delete(ctx context.Context, id string) (string, error)
	// ExistsForUser reports whether any note is assigned to userID.
	ExistsForUser(ctx context.Context, userID string) (bool, error)
}
