// Package common defines shared constants and sentinel errors used across
// client and server layers of gophwalk. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Identity errors surfaced to the user.
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Durable state could not be parsed. Handled internally via repair.
	ErrStorageCorrupt = errors.New("storage corrupt")

	// Session transition errors.
	ErrInvalidTransition = errors.New("transition not allowed in current session state")
	ErrSuperseded        = errors.New("superseded by a newer session transition")

	// Service-level errors.
	ErrorInternal = errors.New("internal error")

	// Token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token revoked")
)
