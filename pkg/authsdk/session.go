package authsdk

import (
	"context"
	"net/http"
	"net/url"
	"sync"
)

// Session performs requests on behalf of a logged-in user. The server slides
// the idle timeout on every authenticated call. Sessions are safe for
// concurrent use.
type Session struct {
	client *SDKClient

	mu       sync.RWMutex
	token    string
	username string
	role     string
}

// Token returns the raw session token, or "" after Logout.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Username is known after Login or the first Info call.
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

func (s *Session) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

func (s *Session) do(ctx context.Context, method, path string, body, target any, expected int) error {
	token := s.Token()
	if token == "" {
		return ErrUnauthorized
	}
	return s.client.doJSON(ctx, method, path, token, nil, body, target, expected)
}

// Info validates the session and returns its details.
func (s *Session) Info(ctx context.Context) (*SessionResponse, error) {
	var resp SessionResponse
	if err := s.do(ctx, http.MethodGet, "/v1/auth/session", nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.username, s.role = resp.Username, resp.Role
	s.mu.Unlock()
	return &resp, nil
}

// ListSessions returns every live session of the current user.
func (s *Session) ListSessions(ctx context.Context) ([]SessionResponse, error) {
	var resp SessionListResponse
	if err := s.do(ctx, http.MethodGet, "/v1/auth/sessions", nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// Logout revokes the session. Calling it again is a no-op.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	token := s.token
	s.token = ""
	s.mu.Unlock()

	if token == "" {
		return nil
	}
	return s.client.doJSON(ctx, http.MethodPost, "/v1/auth/logout", token, nil, nil, nil, http.StatusNoContent)
}

// LogoutAll revokes every session of the current user, this one included.
func (s *Session) LogoutAll(ctx context.Context) (int64, error) {
	var resp LogoutAllResponse
	if err := s.do(ctx, http.MethodDelete, "/v1/auth/sessions", nil, &resp, http.StatusOK); err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return resp.Revoked, nil
}

// ChangePassword changes the current user's password. All of the user's
// sessions, this one included, are revoked on success.
func (s *Session) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	if err := s.do(ctx, http.MethodPost, "/v1/auth/password", req, nil, http.StatusNoContent); err != nil {
		return err
	}

	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return nil
}

// Register creates a user. Requires the admin role.
func (s *Session) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var resp RegisterResponse
	if err := s.do(ctx, http.MethodPost, "/v1/users", req, &resp, http.StatusCreated); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AdminResetPassword overwrites a user's password. Requires the admin role.
func (s *Session) AdminResetPassword(ctx context.Context, username, newPassword string) error {
	return s.do(ctx, http.MethodPut, "/v1/users/"+url.PathEscape(username)+"/password",
		AdminResetPasswordRequest{NewPassword: newPassword}, nil, http.StatusNoContent)
}

// DeleteUser removes a user and revokes their sessions. Requires the admin role.
func (s *Session) DeleteUser(ctx context.Context, username string) error {
	return s.do(ctx, http.MethodDelete, "/v1/users/"+url.PathEscape(username), nil, nil, http.StatusNoContent)
}
