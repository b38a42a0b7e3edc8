// Package common defines shared constants and sentinel errors used across
// the portal components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound        = errors.New("not found")
	ErrDuplicateIdentity = errors.New("username or email already registered")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")
	ErrAuthFailed = errors.New("invalid username or password")

	// Session errors (invalid or malformed cookie token).
	ErrInvalidToken   = errors.New("invalid token")
	ErrSessionExpired = errors.New("session expired")
)
