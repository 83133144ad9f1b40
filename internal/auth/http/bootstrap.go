package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/socauth/internal/auth/domain"
	"github.com/aussiebroadwan/socauth/internal/auth/service"
	"github.com/aussiebroadwan/socauth/pkg/authsdk"
	"github.com/aussiebroadwan/socauth/pkg/httpx"
	"github.com/aussiebroadwan/socauth/pkg/slogx"
)

type BootstrapHandler struct {
	BootstrapService *service.BootstrapService
}

// ServeHTTP handles the bootstrap endpoint for initial system setup.
//
//	@Summary		Bootstrap the authentication system
//	@Description	Creates the first admin user. Only available when a bootstrap token is configured and only while no user exists.
//	@Tags			Bootstrap
//	@Accept			json
//	@Produce		json
//	@Param			X-Bootstrap-Token	header		string							true	"Bootstrap token for authorization"
//	@Param			request				body		authsdk.BootstrapRequest		true	"Admin account"
//	@Success		201					{object}	authsdk.BootstrapResponse		"Admin created with MFA enrollment material"
//	@Failure		400					{object}	authsdk.ValidationErrorResponse	"Invalid request body or validation failed"
//	@Failure		401					{object}	authsdk.ErrorResponse			"Missing or invalid bootstrap token"
//	@Failure		404					{object}	authsdk.ErrorResponse			"Bootstrap not enabled (no token configured)"
//	@Failure		409					{object}	authsdk.ErrorResponse			"System already bootstrapped"
//	@Router			/v1/bootstrap [post].
func (h *BootstrapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	l := slogx.FromContext(r.Context())

	// 1. Check if enabled
	if h.BootstrapService.Token == "" {
		authsdk.ErrNotFound.WithDescription("bootstrap endpoint is not enabled").WriteError(w)
		return
	}

	// 2. Require bootstrap token header
	token := r.Header.Get(authsdk.BootstrapTokenHeader)
	if token == "" {
		authsdk.ErrUnauthorized.WithDescription("bootstrap token is required in X-Bootstrap-Token header").WriteError(w)
		return
	}

	// 3. Parse request body and validate
	var req authsdk.BootstrapRequest
	if err := httpx.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		authsdk.ErrInvalidRequest.WithDescription("request body must be valid JSON").WriteError(w)
		return
	}
	if errs := req.Validate(); errs != nil {
		authsdk.WriteValidationError(w, errs)
		return
	}

	// 4. Perform bootstrap
	reg, err := h.BootstrapService.Bootstrap(r.Context(), token, domain.BootstrapData{
		AdminUsername: req.AdminUsername,
		AdminPassword: req.AdminPassword,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBootstrapDisabled):
			authsdk.ErrNotFound.WithDescription("bootstrap endpoint is not enabled").WriteError(w)
		case errors.Is(err, service.ErrBootstrapUnauthorized):
			authsdk.ErrUnauthorized.WithDescription("invalid bootstrap token").WriteError(w)
		case errors.Is(err, service.ErrBootstrapAlready):
			authsdk.ErrConflict.WithDescription("system has already been bootstrapped").WriteError(w)
		default:
			writeServiceError(w, r, err)
		}
		return
	}

	l.Info("bootstrap completed", "admin_username", reg.User.Username)

	// 5. Respond with the MFA enrollment material (only shown once)
	httpx.WriteJSON(w, http.StatusCreated, authsdk.BootstrapResponse(registerResponse(reg)))
}
