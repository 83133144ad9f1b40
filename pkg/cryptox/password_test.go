package cryptox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	pepperPath := filepath.Join(os.TempDir(), "socauth-test-pepper")
	_ = os.Remove(pepperPath)
	SetPepperPath(pepperPath)

	code := m.Run()
	_ = os.Remove(pepperPath)
	os.Exit(code)
}

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"long password", strings.Repeat("a", 100)},
		{"unicode password", "пароль🔒密码"},
		{"whitespace password", "   spaces   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			require.NoError(t, err)

			parts := strings.Split(hash, "$")
			require.Len(t, parts, 6)
			require.Equal(t, "argon2id", parts[1])
			require.Equal(t, "v=19", parts[2])
			require.Equal(t, "m=19456,t=2,p=1", parts[3])
			require.NotEmpty(t, parts[4])
			require.NotEmpty(t, parts[5])

			require.NoError(t, VerifyPassword(tt.password, hash))
			require.True(t, CheckPassword(tt.password, hash))
		})
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	hash1, err := HashPassword("samepassword")
	require.NoError(t, err)
	hash2, err := HashPassword("samepassword")
	require.NoError(t, err)

	require.NotEqual(t, hash1, hash2)
	require.True(t, CheckPassword("samepassword", hash1))
	require.True(t, CheckPassword("samepassword", hash2))
}

func TestVerifyPassword_WrongPassword(t *testing.T) {
	hash, err := HashPassword("correct-password")
	require.NoError(t, err)

	for _, wrong := range []string{
		"wrong-password",
		"Correct-Password",
		"correct-password ",
		"",
		"correct-passwor",
		strings.Repeat("x", 10000),
	} {
		t.Run(wrong, func(t *testing.T) {
			err := VerifyPassword(wrong, hash)
			require.ErrorIs(t, err, ErrPasswordMismatch)
			require.False(t, CheckPassword(wrong, hash))
		})
	}
}

func TestVerifyPassword_InvalidHashFailsClosed(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"empty hash", ""},
		{"plaintext", "hunter2"},
		{"wrong algorithm", "$argon2i$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"missing parts", "$argon2id$v=19$m=19456"},
		{"malformed parameters", "$argon2id$v=19$invalid$c2FsdA$aGFzaA"},
		{"zero memory", "$argon2id$v=19$m=0,t=2,p=1$c2FsdA$aGFzaA"},
		{"huge memory", "$argon2id$v=19$m=4294967295,t=2,p=1$c2FsdA$aGFzaA"},
		{"huge iterations", "$argon2id$v=19$m=19456,t=4294967295,p=1$c2FsdA$aGFzaA"},
		{"oversized hash", "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$" + strings.Repeat("A", 200)},
		{"invalid base64 salt", "$argon2id$v=19$m=19456,t=2,p=1$!!!invalid!!!$aGFzaA"},
		{"invalid base64 hash", "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$!!!invalid!!!"},
		{"wrong version", "$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"truncated bcrypt", "$2b$10$abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyPassword("test-password", tt.hash)
			require.Error(t, err)
			require.False(t, CheckPassword("test-password", tt.hash))
			require.True(t, NeedsRehash(tt.hash))
		})
	}
}

func TestVerifyPassword_LegacyBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("dashboard-pw"), bcrypt.MinCost)
	require.NoError(t, err)

	require.NoError(t, VerifyPassword("dashboard-pw", string(legacy)))
	require.ErrorIs(t, VerifyPassword("other", string(legacy)), ErrPasswordMismatch)
	require.True(t, NeedsRehash(string(legacy)))
}

func TestNeedsRehash(t *testing.T) {
	t.Cleanup(func() { SetParams(DefaultParams) })

	hash, err := HashPassword("pw")
	require.NoError(t, err)
	require.False(t, NeedsRehash(hash))

	SetParams(Params{Memory: 8 * 1024, Iterations: 1})
	require.Equal(t, Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1}, CurrentParams())
	require.True(t, NeedsRehash(hash))

	// Hashes made under old parameters still verify.
	require.True(t, CheckPassword("pw", hash))

	rehashed, err := HashPassword("pw")
	require.NoError(t, err)
	require.Contains(t, rehashed, "m=8192,t=1,p=1")
	require.False(t, NeedsRehash(rehashed))
}

func TestPepper_PersistedAndReloaded(t *testing.T) {
	hash, err := HashPassword("peppered")
	require.NoError(t, err)

	require.NoError(t, ReloadPepper())
	require.True(t, CheckPassword("peppered", hash))

	b, err := os.ReadFile(filepath.Join(os.TempDir(), "socauth-test-pepper"))
	require.NoError(t, err)
	require.NotEmpty(t, b)
}
