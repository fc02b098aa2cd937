package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/cryptox"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/repomanager"
)

// CredentialVerifier checks a username/password pair against stored
// accounts.
type CredentialVerifier struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	dummy       string
}

// NewCredentialVerifier constructs a CredentialVerifier. bcryptCost must be
// the cost account digests are created with, so that a lookup miss costs as
// much as a wrong password.
func NewCredentialVerifier(db *sql.DB, m repomanager.RepositoryManager, bcryptCost int) (*CredentialVerifier, error) {
	dummy, err := cryptox.DummyDigest(bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("error building dummy digest: %w", err)
	}
	return &CredentialVerifier{db: db, repomanager: m, dummy: dummy}, nil
}

// Verify returns the account when password matches. Failures are
// common.ErrorNotFound (no such user), common.ErrAccountInactive or
// common.ErrWrongPassword; callers must not expose which one happened.
// Every path performs exactly one bcrypt comparison.
func (v *CredentialVerifier) Verify(ctx context.Context, username, password string) (*models.User, error) {
	user, err := v.repomanager.Users(v.db).GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			cryptox.DummyCompare(v.dummy, password)
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	if err := cryptox.ComparePassword(user.PasswordDigest, password); err != nil {
		if errors.Is(err, common.ErrWrongPassword) {
			return nil, common.ErrWrongPassword
		}
		return nil, fmt.Errorf("error comparing password: %w", err)
	}

	if !user.Active {
		return nil, common.ErrAccountInactive
	}
	return user, nil
}
