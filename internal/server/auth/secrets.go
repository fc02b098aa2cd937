package auth

import (
	"errors"
	"time"
)

// Secrets holds the two HMAC keys and token lifetimes. It is built once at
// startup and only read afterwards, so a single *Secrets is shared by every
// request.
type Secrets struct {
	access     []byte
	refresh    []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewSecrets validates and freezes the key material. Both secrets are
// required and must differ.
func NewSecrets(access, refresh string, accessTTL, refreshTTL time.Duration) (*Secrets, error) {
	switch {
	case access == "" || refresh == "":
		return nil, errors.New("access and refresh token secrets are required")
	case access == refresh:
		return nil, errors.New("access and refresh token secrets must differ")
	case accessTTL <= 0 || refreshTTL <= 0:
		return nil, errors.New("token lifetimes must be positive")
	}
	return &Secrets{
		access:     []byte(access),
		refresh:    []byte(refresh),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// AccessTTL is the lifetime of access tokens.
func (s *Secrets) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL is the lifetime of refresh tokens and of the refresh cookie.
func (s *Secrets) RefreshTTL() time.Duration { return s.refreshTTL }

// copies, so callers can't mutate the keys
func (s *Secrets) accessKey() []byte  { return append([]byte(nil), s.access...) }
func (s *Secrets) refreshKey() []byte { return append([]byte(nil), s.refresh...) }
