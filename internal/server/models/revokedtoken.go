package models

import "time"

// RevokedToken records a refresh token invalidated by logout. Only the
// SHA-256 fingerprint of the token is kept.
type RevokedToken struct {
	Fingerprint string
	Expires     time.Time
	CreatedAt   time.Time
}
