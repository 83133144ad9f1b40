// Package totpx wraps github.com/pquerna/otp with the fixed RFC 6238
// parameters used for dashboard MFA: SHA-1, six digits, 30 second steps and a
// one-step tolerance either side of the current time.
package totpx

import (
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// DefaultIssuer is shown by authenticator apps next to the account name.
	DefaultIssuer = "SOC Dashboard"
	// SecretSize is the shared secret length in bytes (160 bits).
	SecretSize = 20
)

var (
	ErrInvalidSecret = errors.New("totp: invalid secret")
	ErrEmptyAccount  = errors.New("totp: account label is required")
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// Engine generates secrets, provisioning URIs and verifies codes.
type Engine struct {
	Issuer    string
	Period    uint
	Skew      uint
	Digits    otp.Digits
	Algorithm otp.Algorithm
	Now       func() time.Time
}

// New returns an Engine with the dashboard defaults.
func New(issuer string) *Engine {
	if issuer == "" {
		issuer = DefaultIssuer
	}
	return &Engine{
		Issuer:    issuer,
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
		Now:       time.Now,
	}
}

// GenerateSecret returns a new random base32 secret of SecretSize bytes.
func (e *Engine) GenerateSecret() (string, error) {
	raw := make([]byte, SecretSize)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("totp: generate secret: %w", err)
	}
	return b32.EncodeToString(raw), nil
}

// ProvisioningURI returns the otpauth:// URI an authenticator app enrolls from.
func (e *Engine) ProvisioningURI(secret, account string) (string, error) {
	if account == "" {
		return "", ErrEmptyAccount
	}
	raw, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      e.Issuer,
		AccountName: account,
		Period:      e.Period,
		Digits:      e.Digits,
		Algorithm:   e.Algorithm,
		Secret:      raw,
	})
	if err != nil {
		return "", fmt.Errorf("totp: build key: %w", err)
	}
	return key.URL(), nil
}

// Verify reports whether code is valid for secret at the current time.
// Codes of the wrong length or with non-digit characters never match, nor
// does a malformed secret.
func (e *Engine) Verify(secret, code string) bool {
	return e.VerifyAt(secret, code, e.now())
}

// VerifyAt is Verify against an explicit instant.
func (e *Engine) VerifyAt(secret, code string, t time.Time) bool {
	code = strings.TrimSpace(code)
	if len(code) != e.Digits.Length() {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	if _, err := decodeSecret(secret); err != nil {
		return false
	}

	ok, err := totp.ValidateCustom(code, secret, t.UTC(), totp.ValidateOpts{
		Period:    e.Period,
		Skew:      e.Skew,
		Digits:    e.Digits,
		Algorithm: e.Algorithm,
	})
	return err == nil && ok
}

// CodeAt returns the code for secret at t.
func (e *Engine) CodeAt(secret string, t time.Time) (string, error) {
	if _, err := decodeSecret(secret); err != nil {
		return "", err
	}
	return totp.GenerateCodeCustom(secret, t.UTC(), totp.ValidateOpts{
		Period:    e.Period,
		Skew:      e.Skew,
		Digits:    e.Digits,
		Algorithm: e.Algorithm,
	})
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func decodeSecret(secret string) ([]byte, error) {
	s := strings.ToUpper(strings.TrimRight(strings.TrimSpace(secret), "="))
	if s == "" {
		return nil, ErrInvalidSecret
	}
	raw, err := b32.DecodeString(s)
	if err != nil || len(raw) == 0 {
		return nil, ErrInvalidSecret
	}
	return raw, nil
}
