package http

import (
	"net/http"

	"github.com/aussiebroadwan/socauth/internal/auth/domain"
	"github.com/aussiebroadwan/socauth/internal/auth/service"
	"github.com/aussiebroadwan/socauth/pkg/authsdk"
	"github.com/aussiebroadwan/socauth/pkg/httpx"
	"github.com/aussiebroadwan/socauth/pkg/slogx"
)

type UsersHandler struct {
	AuthService *service.AuthService
}

// HandleRegister creates a user.
//
//	@Summary		Register a user
//	@Description	Creates a user with a fresh TOTP secret. The secret and its provisioning URI are returned once and never again. Requires the admin role.
//	@Tags			Users
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest			true	"New user"
//	@Success		201		{object}	authsdk.RegisterResponse		"User created"
//	@Failure		400		{object}	authsdk.ValidationErrorResponse	"Invalid fields"
//	@Failure		401		{object}	authsdk.ErrorResponse			"Session invalid or expired"
//	@Failure		403		{object}	authsdk.ErrorResponse			"Caller is not an admin"
//	@Failure		409		{object}	authsdk.ErrorResponse			"Username taken"
//	@Router			/v1/users [post].
func (h *UsersHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.RegisterRequest
	if err := httpx.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		authsdk.ErrInvalidRequest.WithDescription("request body must be valid JSON").WriteError(w)
		return
	}
	if errs := req.Validate(); errs != nil {
		authsdk.WriteValidationError(w, errs)
		return
	}

	reg, err := h.AuthService.Register(ctx, req.Username, req.Password, domain.Role(req.Role))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, registerResponse(reg))
}

// HandleAdminResetPassword overwrites a user's password.
//
//	@Summary		Reset a user's password
//	@Description	Sets a new password without re-authentication and revokes all of the user's sessions. Requires the admin role.
//	@Tags			Users
//	@Security		BearerAuth
//	@Accept			json
//	@Param			username	path	string								true	"Username"
//	@Param			request		body	authsdk.AdminResetPasswordRequest	true	"New password"
//	@Success		204			"Password reset"
//	@Failure		400			{object}	authsdk.ValidationErrorResponse	"Invalid fields"
//	@Failure		403			{object}	authsdk.ErrorResponse			"Caller is not an admin"
//	@Failure		404			{object}	authsdk.ErrorResponse			"Unknown user"
//	@Router			/v1/users/{username}/password [put].
func (h *UsersHandler) HandleAdminResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := r.PathValue("username")

	var req authsdk.AdminResetPasswordRequest
	if err := httpx.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		authsdk.ErrInvalidRequest.WithDescription("request body must be valid JSON").WriteError(w)
		return
	}
	if errs := req.Validate(); errs != nil {
		authsdk.WriteValidationError(w, errs)
		return
	}

	if err := h.AuthService.AdminResetPassword(ctx, username, req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}

	p, _ := httpx.PrincipalFromContext(ctx)
	slogx.FromContext(ctx).Info("admin password reset", "admin", p.Username, "target", username)
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeleteUser removes a user.
//
//	@Summary		Delete a user
//	@Description	Revokes the user's sessions and deletes the account. Requires the admin role. Admins cannot delete themselves.
//	@Tags			Users
//	@Security		BearerAuth
//	@Param			username	path	string	true	"Username"
//	@Success		204			"User deleted"
//	@Failure		400			{object}	authsdk.ErrorResponse	"Attempt to delete own account"
//	@Failure		403			{object}	authsdk.ErrorResponse	"Caller is not an admin"
//	@Failure		404			{object}	authsdk.ErrorResponse	"Unknown user"
//	@Router			/v1/users/{username} [delete].
func (h *UsersHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := r.PathValue("username")

	// Deleting the caller would lock the last admin out.
	if p, _ := httpx.PrincipalFromContext(ctx); p.Username != "" {
		if name, err := domain.NormalizeUsername(username); err == nil && name == p.Username {
			authsdk.ErrInvalidRequest.WithDescription("cannot delete your own account").WriteError(w)
			return
		}
	}

	if err := h.AuthService.DeleteUser(ctx, username); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func registerResponse(reg domain.Registration) authsdk.RegisterResponse {
	return authsdk.RegisterResponse{
		Username:        reg.User.Username,
		Role:            reg.User.Role.String(),
		CreatedAt:       reg.User.CreatedAt,
		MFASecret:       reg.MFASecret,
		ProvisioningURI: reg.ProvisioningURI,
	}
}
