package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/cryptox"
	"github.com/dmitrijs2005/notekeeper/internal/dbx"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/repomanager"
)

// CreateUserInput is the payload for UserService.Create.
type CreateUserInput struct {
	Username string
	Password string
	Roles    []string
}

// UpdateUserInput is the payload for UserService.Update. An empty Password
// keeps the current one.
type UpdateUserInput struct {
	ID       string
	Username string
	Roles    []string
	Active   bool
	Password string
}

// UserService administers accounts.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	bcryptCost  int
	logger      logging.Logger
}

// NewUserService constructs a UserService hashing new passwords at bcryptCost.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, bcryptCost int, logger logging.Logger) *UserService {
	return &UserService{db: db, repomanager: m, bcryptCost: bcryptCost, logger: logger}
}

// List returns all accounts. An empty store is reported as a validation
// error, matching the API's "No users found" response.
func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	users, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		s.logger.Error(ctx, "error listing users", "error", err)
		return nil, common.ErrorInternal
	}
	if len(users) == 0 {
		return nil, common.NewValidationError("No users found")
	}
	return users, nil
}

// Create registers a new active account.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	if in.Username == "" || in.Password == "" || len(in.Roles) == 0 {
		return nil, common.NewValidationError("All fields are required")
	}
	if err := checkRoles(in.Roles); err != nil {
		return nil, err
	}

	digest, err := s.hashPassword(ctx, in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{UserName: in.Username, PasswordDigest: digest, Roles: in.Roles, Active: true}
	user, err = s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExist) {
			return nil, common.NewConflictError("Duplicate username")
		}
		s.logger.Error(ctx, "error creating user", "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "user created", "id", user.ID, "username", user.UserName)
	return user, nil
}

// Update changes name, roles, active flag and optionally the password.
func (s *UserService) Update(ctx context.Context, in UpdateUserInput) (*models.User, error) {
	if in.ID == "" || in.Username == "" || len(in.Roles) == 0 {
		return nil, common.NewValidationError("All fields are required")
	}
	if err := checkRoles(in.Roles); err != nil {
		return nil, err
	}

	user := &models.User{ID: in.ID, UserName: in.Username, Roles: in.Roles, Active: in.Active}
	if in.Password != "" {
		digest, err := s.hashPassword(ctx, in.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordDigest = digest
	}

	err := s.repomanager.Users(s.db).Update(ctx, user)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrorNotFound):
		return nil, common.NewValidationError("User not found")
	case errors.Is(err, common.ErrorAlreadyExist):
		return nil, common.NewConflictError("Duplicate username")
	default:
		s.logger.Error(ctx, "error updating user", "error", err)
		return nil, common.ErrorInternal
	}

	user.PasswordDigest = ""
	return user, nil
}

// Delete removes an account that owns no notes and returns its last state.
// The notes check and the delete run in one transaction.
func (s *UserService) Delete(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, common.NewValidationError("User ID required")
	}

	var deleted *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		hasNotes, err := s.repomanager.Notes(tx).ExistsForUser(ctx, id)
		if err != nil {
			return fmt.Errorf("error checking notes: %w", err)
		}
		if hasNotes {
			return common.ErrorInUse
		}

		name, err := s.repomanager.Users(tx).Delete(ctx, id)
		if err != nil {
			return err
		}
		deleted = &models.User{ID: id, UserName: name}
		return nil
	})

	switch {
	case err == nil:
		s.logger.Info(ctx, "user deleted", "id", id, "username", deleted.UserName)
		return deleted, nil
	case errors.Is(err, common.ErrorInUse):
		return nil, common.NewValidationError("User has assigned notes")
	case errors.Is(err, common.ErrorNotFound):
		return nil, common.NewValidationError("User not found")
	}
	s.logger.Error(ctx, "error deleting user", "error", err)
	return nil, common.ErrorInternal
}

func (s *UserService) hashPassword(ctx context.Context, password string) (string, error) {
	digest, err := cryptox.HashPassword(password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, common.ErrPasswordTooLong) {
			return "", common.NewValidationError(fmt.Sprintf("Password must be at most %d bytes", cryptox.MaxPasswordBytes))
		}
		s.logger.Error(ctx, "error hashing password", "error", err)
		return "", common.ErrorInternal
	}
	return digest, nil
}

func checkRoles(roles []string) error {
	for _, r := range roles {
		if !common.IsKnownRole(r) {
			return common.NewValidationError(fmt.Sprintf("Unknown role %q", r))
		}
	}
	return nil
}
