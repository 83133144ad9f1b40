package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

const (
	UsernameMinLength = 3
	UsernameMaxLength = 64
)

var (
	ErrInvalidUsername = errors.New("username must be 3-64 characters of letters, digits, '.', '_' or '-'")

	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
)

type User struct {
	Username     string
	PasswordHash string // argon2id PHC string (or a legacy bcrypt hash)
	MFASecret    string // TOTP secret, base32
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Info returns the fields that may leave the auth boundary.
func (u User) Info() UserInfo {
	return UserInfo{
		Username:  u.Username,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

type UserInfo struct {
	Username  string
	Role      Role
	CreatedAt time.Time
}

// Registration is the result of creating a user. MFASecret and
// ProvisioningURI are handed out exactly once.
type Registration struct {
	User            UserInfo
	MFASecret       string
	ProvisioningURI string
}

// Claim is the identity established by a successful login.
type Claim struct {
	Username string
	Role     Role
}

// NormalizeUsername applies NFKC normalization, trims surrounding space and
// lowercases, then checks the result against the allowed character set.
// Usernames are case-insensitive: "Bob" and "bob" are the same account.
func NormalizeUsername(raw string) (string, error) {
	u := strings.TrimSpace(norm.NFKC.String(raw))
	if len(u) < UsernameMinLength || len(u) > UsernameMaxLength || !usernamePattern.MatchString(u) {
		return "", ErrInvalidUsername
	}
	return strings.ToLower(u), nil
}
