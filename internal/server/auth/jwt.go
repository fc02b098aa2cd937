// Package auth issues and verifies the HS256 JSON Web Tokens used by the
// notekeeper API: short-lived access tokens carrying the user's roles and
// long-lived refresh tokens carrying only the username.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types stored in the token_type claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// UserInfo is the identity embedded in access tokens.
type UserInfo struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// AccessClaims are the claims of an access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	UserInfo  UserInfo `json:"UserInfo"`
	TokenType string   `json:"token_type"`
}

// RefreshClaims are the claims of a refresh token. They never carry roles.
type RefreshClaims struct {
	jwt.RegisteredClaims
	Username  string `json:"username"`
	TokenType string `json:"token_type"`
}

// Codec issues and verifies tokens with the keys from Secrets.
type Codec struct {
	secrets *Secrets
	now     func() time.Time
}

// NewCodec returns a Codec bound to s.
func NewCodec(s *Secrets) *Codec {
	return &Codec{secrets: s, now: time.Now}
}

// WithClock returns a copy of c that reads the current time from now.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	return &Codec{secrets: c.secrets, now: now}
}

// Secrets returns the key material the codec was built with.
func (c *Codec) Secrets() *Secrets { return c.secrets }

// IssueAccess mints an access token for username with the given roles.
func (c *Codec) IssueAccess(username string, roles []string) (string, error) {
	now := c.now()
	claims := AccessClaims{
		RegisteredClaims: registered(username, now, c.secrets.accessTTL),
		UserInfo:         UserInfo{Username: username, Roles: roles},
		TokenType:        TokenTypeAccess,
	}
	return Sign(c.secrets.accessKey(), claims)
}

// IssueRefresh mints a refresh token for username.
func (c *Codec) IssueRefresh(username string) (string, error) {
	now := c.now()
	claims := RefreshClaims{
		RegisteredClaims: registered(username, now, c.secrets.refreshTTL),
		Username:         username,
		TokenType:        TokenTypeRefresh,
	}
	return Sign(c.secrets.refreshKey(), claims)
}

// VerifyAccess checks an access token and returns its claims.
func (c *Codec) VerifyAccess(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := Verify(c.secrets.accessKey(), token, claims, c.now); err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeAccess || claims.UserInfo.Username == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

// VerifyRefresh checks a refresh token and returns its claims.
func (c *Codec) VerifyRefresh(token string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := Verify(c.secrets.refreshKey(), token, claims, c.now); err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeRefresh || claims.Username == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

// registered fills the standard claims. The random ID keeps two tokens
// issued for the same user in the same second distinct, so revoking one
// session leaves the others alone.
func registered(subject string, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

// Sign serializes claims into a compact HS256 token.
func Sign(secret []byte, claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify parses token into claims, checking the HS256 signature and the
// expiry against now. Failures map to common.ErrTokenMalformed,
// common.ErrTokenExpired or common.ErrInvalidSignature.
func Verify(secret []byte, token string, claims jwt.Claims, now func() time.Time) error {
	if now == nil {
		now = time.Now
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	)

	t, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return mapError(err)
	}
	if !t.Valid {
		return common.ErrInvalidToken
	}
	return nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return common.ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenExpired):
		return common.ErrTokenExpired
	default:
		return common.ErrInvalidSignature
	}
}
