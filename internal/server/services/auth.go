// Package services contains server-side business logic: the authentication
// flow (login, refresh, logout) and user and note administration.
package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/cryptox"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/dmitrijs2005/notekeeper/internal/server/auth"
	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RevocationStore is the part of the refresh token revocation list the
// auth flow needs. A nil store disables revocation.
type RevocationStore interface {
	Revoke(ctx context.Context, fingerprint string, expires time.Time) error
	IsRevoked(ctx context.Context, fingerprint string) (bool, error)
}

// AuthService implements the session lifecycle:
//   - Login: verify credentials and mint an access/refresh pair
//   - Refresh: exchange a refresh token for a new access token
//   - Logout: optionally revoke the refresh token
//
// It keeps no state between requests.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	verifier    *CredentialVerifier
	codec       *auth.Codec
	revocations RevocationStore
	logger      logging.Logger
}

// NewAuthService constructs an AuthService. revocations may be nil.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, verifier *CredentialVerifier, codec *auth.Codec, revocations RevocationStore, logger logging.Logger) *AuthService {
	return &AuthService{
		db:          db,
		repomanager: m,
		verifier:    verifier,
		codec:       codec,
		revocations: revocations,
		logger:      logger,
	}
}

// Login verifies credentials and returns a new token pair. Unknown users,
// inactive users and wrong passwords all yield common.ErrorUnauthorized.
func (s *AuthService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	if username == "" || password == "" {
		return nil, common.NewValidationError("All fields are required")
	}

	user, err := s.verifier.Verify(ctx, username, password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorNotFound),
			errors.Is(err, common.ErrWrongPassword),
			errors.Is(err, common.ErrAccountInactive):
			s.logger.Warn(ctx, "login rejected", "username", username, "reason", err.Error())
			return nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "login failed", "username", username, "error", err)
		return nil, common.ErrorInternal
	}

	access, err := s.codec.IssueAccess(user.UserName, user.Roles)
	if err != nil {
		s.logger.Error(ctx, "error issuing access token", "error", err)
		return nil, common.ErrorInternal
	}
	refresh, err := s.codec.IssueRefresh(user.UserName)
	if err != nil {
		s.logger.Error(ctx, "error issuing refresh token", "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "login succeeded", "username", user.UserName)
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh validates refreshToken and returns a new access token built from
// the account's current roles. The refresh token itself is not rotated.
//
// Errors: common.ErrorUnauthorized when the token is absent or the account
// is gone or inactive; common.ErrorForbidden when the token fails
// verification or was revoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", common.ErrorUnauthorized
	}

	claims, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		s.logger.Warn(ctx, "refresh token rejected", "reason", err.Error())
		return "", common.ErrorForbidden
	}

	if s.revocations != nil {
		revoked, err := s.revocations.IsRevoked(ctx, cryptox.Fingerprint(refreshToken))
		if err != nil {
			s.logger.Error(ctx, "error checking revocation list", "error", err)
			return "", common.ErrorInternal
		}
		if revoked {
			s.logger.Warn(ctx, "refresh token rejected", "username", claims.Username, "reason", common.ErrTokenRevoked.Error())
			return "", common.ErrorForbidden
		}
	}

	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, claims.Username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "refresh for unknown user", "username", claims.Username)
			return "", common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "error looking up user", "error", err)
		return "", common.ErrorInternal
	}
	if !user.Active {
		s.logger.Warn(ctx, "refresh for inactive user", "username", user.UserName)
		return "", common.ErrorUnauthorized
	}

	access, err := s.codec.IssueAccess(user.UserName, user.Roles)
	if err != nil {
		s.logger.Error(ctx, "error issuing access token", "error", err)
		return "", common.ErrorInternal
	}
	return access, nil
}

// Logout revokes refreshToken when a revocation store is configured. Only a
// token that verifies under the refresh secret is recorded, and only until
// its own expiry, so forged cookies never reach the store. Failures are
// logged and never returned, so clearing the cookie always succeeds.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	if s.revocations == nil || refreshToken == "" {
		return
	}

	claims, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		s.logger.Debug(ctx, "logout with unusable refresh token", "reason", err.Error())
		return
	}

	if err := s.revocations.Revoke(ctx, cryptox.Fingerprint(refreshToken), claims.ExpiresAt.Time); err != nil {
		s.logger.Warn(ctx, "error revoking refresh token", "username", claims.Username, "error", err)
	}
}
