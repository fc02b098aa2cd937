// Package common defines shared constants and sentinel errors used across
// the server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound     = errors.New("not found")
	ErrorAlreadyExist = errors.New("already exists")
	ErrorInUse        = errors.New("referenced by other records")

	// Service-level errors, mapped to HTTP statuses by the transport.
	ErrorInternal     = errors.New("internal error")
	ErrorValidation   = errors.New("validation error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorConflict     = errors.New("conflict")

	// Credential errors. Both collapse to ErrorUnauthorized at the service
	// boundary and only show up in logs.
	ErrWrongPassword   = errors.New("wrong password")
	ErrAccountInactive = errors.New("account inactive")
	ErrPasswordTooLong = errors.New("password too long")

	// Token errors.
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrTokenMalformed   = errors.New("malformed token")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenRevoked     = errors.New("token revoked")
)

// ValidationError carries a message that is safe to show to the client.
// It matches ErrorValidation with errors.Is.
type ValidationError struct {
	Msg string
}

// NewValidationError returns a *ValidationError with the given message.
func NewValidationError(msg string) error {
	return &ValidationError{Msg: msg}
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func (e *ValidationError) Unwrap() error {
	return ErrorValidation
}

// ConflictError is the 409 counterpart of ValidationError.
type ConflictError struct {
	Msg string
}

// NewConflictError returns a *ConflictError with the given message.
func NewConflictError(msg string) error {
	return &ConflictError{Msg: msg}
}

func (e *ConflictError) Error() string {
	return e.Msg
}

func (e *ConflictError) Unwrap() error {
	return ErrorConflict
}
