package api

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/mediavault/internal/common"
)

type errMapping struct {
	err    error
	code   string
	status int
}

// Order matters: the first errors.Is match wins.
var mappings = []errMapping{
	{common.ErrorNotFound, CodeNotFound, http.StatusNotFound},
	{common.ErrorUnauthorized, CodeUnauthorized, http.StatusUnauthorized},
	{common.ErrTokenExpired, CodeTokenExpired, http.StatusUnauthorized},
	{common.ErrInvalidToken, CodeUnauthorized, http.StatusUnauthorized},
	{common.ErrRefreshTokenExpired, CodeRefreshTokenExpired, http.StatusUnauthorized},
	{common.ErrorForbidden, CodeForbidden, http.StatusForbidden},
	{common.ErrorSelfRequest, CodeSelfRequest, http.StatusForbidden},
	{common.ErrorConflict, CodeConflict, http.StatusConflict},
	{common.ErrorInvalidState, CodeInvalidState, http.StatusConflict},
	{common.ErrorNoPublicKeyPublished, CodeNoPublicKey, http.StatusPreconditionFailed},
	{common.ErrorMalformedKey, CodeBadRequest, http.StatusBadRequest},
	{common.ErrorContentUnavailable, CodeContentUnavailable, http.StatusGone},
	{common.ErrorIntegrityMismatch, CodeIntegrityMismatch, http.StatusUnprocessableEntity},
	{common.ErrorSignatureInvalid, CodeSignatureInvalid, http.StatusUnprocessableEntity},
}

// StatusAndCode translates a service error into an HTTP status and a wire
// error code. Unrecognized errors are reported as internal.
func StatusAndCode(err error) (int, string) {
	for _, m := range mappings {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, CodeInternal
}

// ErrorFromCode is the client-side inverse of StatusAndCode.
func ErrorFromCode(code string) error {
	for _, m := range mappings {
		if m.code == code {
			return m.err
		}
	}
	return common.ErrorInternal
}
