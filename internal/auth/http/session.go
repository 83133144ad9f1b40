package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/socauth/internal/auth/domain"
	"github.com/aussiebroadwan/socauth/internal/auth/service"
	"github.com/aussiebroadwan/socauth/pkg/authsdk"
	"github.com/aussiebroadwan/socauth/pkg/httpx"
)

const maxBodyBytes = 16 << 10

// CookieConfig controls the session cookie set at login.
type CookieConfig struct {
	Name   string
	Secure bool
}

type SessionHandler struct {
	AuthService    *service.AuthService
	SessionManager *service.SessionManager
	Cookie         CookieConfig
}

// HandleLogin authenticates a user and issues a session.
//
//	@Summary		Log in
//	@Description	Checks the password and then the TOTP code. On success a session token is returned and also set as an HttpOnly cookie. All credential failures return the same 401 response.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest			true	"Credentials"
//	@Success		200		{object}	authsdk.LoginResponse			"Session issued"
//	@Failure		400		{object}	authsdk.ValidationErrorResponse	"Missing fields"
//	@Failure		401		{object}	authsdk.ErrorResponse			"Invalid username, password or code"
//	@Failure		429		{object}	authsdk.ErrorResponse			"Too many attempts"
//	@Failure		503		{object}	authsdk.ErrorResponse			"Credential store unavailable"
//	@Router			/v1/auth/login [post].
func (h *SessionHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// 1. Parse and validate
	var req authsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		authsdk.ErrInvalidRequest.WithDescription("request body must be valid JSON").WriteError(w)
		return
	}
	if errs := req.Validate(); errs != nil {
		authsdk.WriteValidationError(w, errs)
		return
	}

	// 2. Authenticate
	claim, err := h.AuthService.Login(ctx, req.Username, req.Password, req.TOTPCode)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// 3. Issue the session. A failure here means the user is not logged in.
	token, err := h.SessionManager.Create(ctx, claim, clientMeta(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.setCookie(w, token)
	httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
		Token:       token,
		TokenType:   "Bearer",
		IdleTimeout: int(h.idleTimeout().Seconds()),
		Username:    claim.Username,
		Role:        claim.Role.String(),
	})
}

// HandleLogout revokes the presented session.
//
//	@Summary		Log out
//	@Description	Revokes the presented session. Revoking an unknown or already revoked session also succeeds.
//	@Tags			Session
//	@Security		BearerAuth
//	@Success		204	"Session revoked"
//	@Failure		503	{object}	authsdk.ErrorResponse	"Credential store unavailable"
//	@Router			/v1/auth/logout [post].
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token := httpx.SessionToken(r, h.Cookie.Name)
	if err := h.SessionManager.Revoke(r.Context(), token); err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.clearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleSession returns the caller's session.
//
//	@Summary		Current session
//	@Description	Validates the presented session, slides its idle window and returns its details.
//	@Tags			Session
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.SessionResponse	"Session details"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Session invalid or expired"
//	@Router			/v1/auth/session [get].
func (h *SessionHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	info, err := h.SessionManager.Validate(r.Context(), httpx.SessionToken(r, h.Cookie.Name))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sessionResponse(info))
}

// HandleListSessions lists the caller's live sessions.
//
//	@Summary		List own sessions
//	@Tags			Session
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.SessionListResponse	"Live sessions, most recently active first"
//	@Failure		401	{object}	authsdk.ErrorResponse		"Session invalid or expired"
//	@Router			/v1/auth/sessions [get].
func (h *SessionHandler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	p, _ := httpx.PrincipalFromContext(r.Context())

	sessions, err := h.SessionManager.List(r.Context(), p.Username)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := authsdk.SessionListResponse{Sessions: make([]authsdk.SessionResponse, 0, len(sessions))}
	for _, s := range sessions {
		resp.Sessions = append(resp.Sessions, sessionResponse(s))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleLogoutAll revokes every session of the caller.
//
//	@Summary		Log out everywhere
//	@Tags			Session
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.LogoutAllResponse	"Number of sessions revoked"
//	@Failure		401	{object}	authsdk.ErrorResponse		"Session invalid or expired"
//	@Router			/v1/auth/sessions [delete].
func (h *SessionHandler) HandleLogoutAll(w http.ResponseWriter, r *http.Request) {
	p, _ := httpx.PrincipalFromContext(r.Context())

	n, err := h.SessionManager.RevokeAllForUser(r.Context(), p.Username)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.clearCookie(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.LogoutAllResponse{Revoked: n})
}

// HandleChangePassword changes the caller's own password.
//
//	@Summary		Change own password
//	@Description	Requires the current password and a TOTP code. Every session of the user, including this one, is revoked.
//	@Tags			Session
//	@Security		BearerAuth
//	@Accept			json
//	@Param			request	body	authsdk.ChangePasswordRequest	true	"Current and new password"
//	@Success		204		"Password changed"
//	@Failure		400		{object}	authsdk.ValidationErrorResponse	"Missing fields"
//	@Failure		401		{object}	authsdk.ErrorResponse			"Invalid password or code"
//	@Router			/v1/auth/password [post].
func (h *SessionHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, _ := httpx.PrincipalFromContext(ctx)

	var req authsdk.ChangePasswordRequest
	if err := httpx.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		authsdk.ErrInvalidRequest.WithDescription("request body must be valid JSON").WriteError(w)
		return
	}
	if errs := req.Validate(); errs != nil {
		authsdk.WriteValidationError(w, errs)
		return
	}

	err := h.AuthService.ResetPassword(ctx, p.Username, req.CurrentPassword, req.TOTPCode, req.NewPassword)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.clearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// ValidateSession adapts the SessionManager to httpx.SessionValidator.
func (h *SessionHandler) ValidateSession(ctx context.Context, token string) (httpx.Principal, error) {
	info, err := h.SessionManager.Validate(ctx, token)
	if errors.Is(err, service.ErrSessionInvalid) {
		return httpx.Principal{}, httpx.ErrNoSession
	}
	if err != nil {
		return httpx.Principal{}, err
	}
	return httpx.Principal{Username: info.Username, Role: info.Role.String()}, nil
}

func (h *SessionHandler) setCookie(w http.ResponseWriter, token string) {
	if h.Cookie.Name == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.Cookie.Name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *SessionHandler) clearCookie(w http.ResponseWriter) {
	if h.Cookie.Name == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.Cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *SessionHandler) idleTimeout() time.Duration {
	if h.SessionManager.IdleTimeout <= 0 {
		return service.DefaultIdleTimeout
	}
	return h.SessionManager.IdleTimeout
}

func clientMeta(r *http.Request) domain.ClientMeta {
	return domain.ClientMeta{
		UserAgent:  r.UserAgent(),
		RemoteAddr: httpx.ClientIP(r),
	}
}

func sessionResponse(s domain.SessionInfo) authsdk.SessionResponse {
	return authsdk.SessionResponse{
		Username:     s.Username,
		Role:         s.Role.String(),
		UserAgent:    s.UserAgent,
		RemoteAddr:   s.RemoteAddr,
		CreatedAt:    s.CreatedAt,
		LastActivity: s.LastActivity,
		ExpiresAt:    s.ExpiresAt,
	}
}
