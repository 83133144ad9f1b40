package authsdk

import (
	"regexp"
	"strings"
)

const (
	requiredReason = "required"
	usernameReason = "must only contain a-z, A-Z, 0-9, '.', '_' or '-'"

	maxPasswordLength = 1024
)

var reUsername = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Validate checks the login fields are present. Credential correctness is
// only decided by the server.
func (r LoginRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if strings.TrimSpace(r.Username) == "" {
		errs["username"] = requiredReason
	}
	if r.Password == "" {
		errs["password"] = requiredReason
	}
	if strings.TrimSpace(r.TOTPCode) == "" {
		errs["totp_code"] = requiredReason
	}
	return nilIfEmpty(errs)
}

func (r RegisterRequest) Validate() map[string]string {
	errs := make(map[string]string)
	validateUsername(errs, "username", r.Username)
	validatePassword(errs, "password", r.Password)
	switch r.Role {
	case "", "admin", "user":
	default:
		errs["role"] = "must be admin or user"
	}
	return nilIfEmpty(errs)
}

func (r ChangePasswordRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if r.CurrentPassword == "" {
		errs["current_password"] = requiredReason
	}
	if strings.TrimSpace(r.TOTPCode) == "" {
		errs["totp_code"] = requiredReason
	}
	validatePassword(errs, "new_password", r.NewPassword)
	return nilIfEmpty(errs)
}

func (r AdminResetPasswordRequest) Validate() map[string]string {
	errs := make(map[string]string)
	validatePassword(errs, "new_password", r.NewPassword)
	return nilIfEmpty(errs)
}

func (r BootstrapRequest) Validate() map[string]string {
	errs := make(map[string]string)
	validateUsername(errs, "admin_username", r.AdminUsername)
	validatePassword(errs, "admin_password", r.AdminPassword)
	return nilIfEmpty(errs)
}

func validateUsername(errs map[string]string, field, username string) {
	username = strings.TrimSpace(username)
	switch {
	case username == "":
		errs[field] = requiredReason
	case len(username) < 3 || len(username) > 64:
		errs[field] = "must be 3-64 characters"
	case !reUsername.MatchString(username):
		errs[field] = usernameReason
	}
}

func validatePassword(errs map[string]string, field, pw string) {
	switch {
	case pw == "":
		errs[field] = requiredReason
	case len(pw) > maxPasswordLength:
		errs[field] = "too long (max 1024)"
	}
}

func nilIfEmpty(errs map[string]string) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	return errs
}
