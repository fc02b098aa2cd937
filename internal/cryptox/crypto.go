// Package cryptox wraps the hashing primitives used by the server: bcrypt
// password digests and SHA-256 fingerprints of bearer tokens.
package cryptox

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 10

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

const dummyPassword = "notekeeper-dummy-password"

// HashPassword returns the bcrypt digest of password. A cost outside bcrypt's
// range falls back to DefaultCost. Passwords over MaxPasswordBytes yield
// common.ErrPasswordTooLong.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	if len(password) > MaxPasswordBytes {
		return "", common.ErrPasswordTooLong
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", common.ErrPasswordTooLong
		}
		return "", err
	}
	return string(digest), nil
}

// ComparePassword checks password against digest. A mismatch is reported as
// common.ErrWrongPassword; anything else (a corrupt digest) is returned
// as is.
//
// Example:
//
//	digest, _ := cryptox.HashPassword("hunter2", cryptox.DefaultCost)
//	err := cryptox.ComparePassword(digest, "hunter2") // nil
func ComparePassword(digest, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
	// no stored digest can match a password bcrypt refuses to hash
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) || errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return common.ErrWrongPassword
	}
	return err
}

// DummyDigest returns a digest of a fixed password at cost. Comparing
// against it when an account does not exist makes unknown users cost the
// same bcrypt round as wrong passwords, provided cost matches the one real
// digests are created with.
func DummyDigest(cost int) (string, error) {
	return HashPassword(dummyPassword, cost)
}

// DummyCompare burns one bcrypt comparison against digest and discards the
// result.
func DummyCompare(digest, password string) {
	_ = bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
}

// Fingerprint returns the hex SHA-256 of token. Revocation records store the
// fingerprint so the raw token never reaches storage.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
