package authsdk_test

import (
	"strings"
	"testing"

	"github.com/aussiebroadwan/socauth/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func TestRegisterRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     authsdk.RegisterRequest
		invalid []string
	}{
		{"valid", authsdk.RegisterRequest{Username: "alice.b", Password: "pw"}, nil},
		{"valid admin", authsdk.RegisterRequest{Username: "ops_1", Password: "pw", Role: "admin"}, nil},
		{"missing", authsdk.RegisterRequest{}, []string{"username", "password"}},
		{"short name", authsdk.RegisterRequest{Username: "ab", Password: "pw"}, []string{"username"}},
		{"bad chars", authsdk.RegisterRequest{Username: "bob smith", Password: "pw"}, []string{"username"}},
		{"long password", authsdk.RegisterRequest{Username: "bob", Password: strings.Repeat("x", 1025)}, []string{"password"}},
		{"bad role", authsdk.RegisterRequest{Username: "bob", Password: "pw", Role: "root"}, []string{"role"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.req.Validate()
			if tt.invalid == nil {
				require.Nil(t, errs)
				return
			}
			require.Len(t, errs, len(tt.invalid))
			for _, field := range tt.invalid {
				require.Contains(t, errs, field)
			}
		})
	}
}

func TestLoginRequestValidate(t *testing.T) {
	require.Nil(t, authsdk.LoginRequest{Username: "bob", Password: "pw", TOTPCode: "123456"}.Validate())

	// Format is not checked at login; any failure is reported as bad credentials.
	require.Nil(t, authsdk.LoginRequest{Username: "b", Password: "pw", TOTPCode: "x"}.Validate())

	errs := authsdk.LoginRequest{Username: "  ", TOTPCode: ""}.Validate()
	require.Len(t, errs, 3)
}

func TestChangePasswordRequestValidate(t *testing.T) {
	errs := authsdk.ChangePasswordRequest{TOTPCode: "123456"}.Validate()
	require.Contains(t, errs, "current_password")
	require.Contains(t, errs, "new_password")
	require.NotContains(t, errs, "totp_code")
}

func TestBootstrapRequestValidate(t *testing.T) {
	require.Nil(t, authsdk.BootstrapRequest{AdminUsername: "root", AdminPassword: "pw"}.Validate())

	errs := authsdk.BootstrapRequest{AdminUsername: "r"}.Validate()
	require.Contains(t, errs, "admin_username")
	require.Contains(t, errs, "admin_password")
}
