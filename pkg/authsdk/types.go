package authsdk

import "time"

// ============================================================================
// Error Types
// ============================================================================

// ErrorResponse is the body of every non-validation error response.
type ErrorResponse struct {
	// Error is a stable machine-readable code (e.g. "invalid_credentials")
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description"`
}

// ValidationErrorResponse is returned when request fields fail validation.
type ValidationErrorResponse struct {
	// Code is always "validation_error"
	Code string `json:"code"`

	// Message is a human-readable error message
	Message string `json:"message"`

	// Details maps field names to the reason they were rejected
	Details map[string]string `json:"details,omitempty"`
}

// ============================================================================
// Session Types
// ============================================================================

// LoginRequest carries the three factors checked at login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	TOTPCode string `json:"totp_code"`
}

// LoginResponse is returned on successful login. The token is also set as an
// HttpOnly cookie.
type LoginResponse struct {
	// Token is the opaque session token; send it as "Authorization: Bearer <token>"
	Token string `json:"token"`

	// TokenType is always "Bearer"
	TokenType string `json:"token_type"`

	// IdleTimeout is how many seconds the session survives without activity
	IdleTimeout int `json:"idle_timeout"`

	Username string `json:"username"`
	Role     string `json:"role"`
}

// SessionResponse describes a live session.
type SessionResponse struct {
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	UserAgent    string    `json:"user_agent,omitempty"`
	RemoteAddr   string    `json:"remote_addr,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// SessionListResponse lists the caller's live sessions.
type SessionListResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}

// LogoutAllResponse reports how many sessions were revoked.
type LogoutAllResponse struct {
	Revoked int64 `json:"revoked"`
}

// ChangePasswordRequest changes the caller's own password. The current
// password and a TOTP code are required again.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	TOTPCode        string `json:"totp_code"`
	NewPassword     string `json:"new_password"`
}

// ============================================================================
// User Types
// ============================================================================

// RegisterRequest creates a user. Role defaults to "user".
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// RegisterResponse carries the new user's MFA enrollment material. The secret
// is shown exactly once.
type RegisterResponse struct {
	Username        string    `json:"username"`
	Role            string    `json:"role"`
	CreatedAt       time.Time `json:"created_at"`
	MFASecret       string    `json:"mfa_secret"`
	ProvisioningURI string    `json:"provisioning_uri"`
}

// AdminResetPasswordRequest sets a user's password without re-authentication.
type AdminResetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

// ============================================================================
// Bootstrap Types
// ============================================================================

// BootstrapRequest creates the first admin account on an empty service.
type BootstrapRequest struct {
	AdminUsername string `json:"admin_username"`
	AdminPassword string `json:"admin_password"`
}

// BootstrapResponse carries the admin's MFA enrollment material.
type BootstrapResponse RegisterResponse

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned by /livez and /readyz (readyz includes Checks).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the status of critical service dependencies.
type HealthChecks struct {
	// Database indicates the credential store connection status
	Database string `json:"database"`
}
