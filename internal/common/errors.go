// Package common defines shared constants and sentinel errors used across
// client and server layers of MediaVault. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Access-control protocol errors.
	ErrorForbidden            = errors.New("forbidden")
	ErrorConflict             = errors.New("duplicate active request")
	ErrorInvalidState         = errors.New("invalid request state")
	ErrorSelfRequest          = errors.New("owner cannot request own item")
	ErrorNoPublicKeyPublished = errors.New("no public key published")
	ErrorMalformedKey         = errors.New("malformed public key")

	// Integrity-pipeline errors.
	ErrorContentUnavailable = errors.New("content unavailable")
	ErrorIntegrityMismatch  = errors.New("integrity mismatch")
	ErrorSignatureInvalid   = errors.New("signature invalid")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
