package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/socauth/internal/auth/service"
	"github.com/aussiebroadwan/socauth/pkg/authsdk"
	"github.com/aussiebroadwan/socauth/pkg/slogx"
)

// writeServiceError maps a service error onto its API error. All credential
// failures share one response so callers cannot probe which usernames exist.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *authsdk.APIError

	switch {
	case errors.Is(err, service.ErrInvalidCredential):
		apiErr = authsdk.ErrInvalidCredentials
	case errors.Is(err, service.ErrSessionInvalid):
		apiErr = authsdk.ErrUnauthorized
	case errors.Is(err, service.ErrInvalidInput):
		apiErr = authsdk.ErrInvalidRequest.WithDescription(err.Error())
	case errors.Is(err, service.ErrNotFound):
		apiErr = authsdk.ErrNotFound
	case errors.Is(err, service.ErrConflict):
		apiErr = authsdk.ErrConflict
	case errors.Is(err, service.ErrStoreUnavailable):
		apiErr = authsdk.ErrUnavailable
	default:
		slogx.FromContext(r.Context()).Error("unhandled service error", "error", err)
		apiErr = authsdk.ErrServerError
	}

	apiErr.WriteError(w)
}
