package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the SOC dashboard authentication service.
// It provides access to unauthenticated operations and creates Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new auth service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Login authenticates with username, password and the current TOTP code and
// returns a Session bound to the issued token. Failures are reported as
// ErrInvalidCredentials without saying which factor was wrong.
func (c *SDKClient) Login(ctx context.Context, username, password, totpCode string) (*Session, error) {
	var resp LoginResponse
	err := c.doJSON(ctx, http.MethodPost, "/v1/auth/login", "", nil, LoginRequest{
		Username: username,
		Password: password,
		TOTPCode: totpCode,
	}, &resp, http.StatusOK)
	if err != nil {
		return nil, err
	}

	return &Session{
		client:   c,
		token:    resp.Token,
		username: resp.Username,
		role:     resp.Role,
	}, nil
}

// NewSession wraps an existing session token, e.g. one restored from a
// cookie. The token is not checked until the first call.
func (c *SDKClient) NewSession(token string) *Session {
	return &Session{client: c, token: token}
}
