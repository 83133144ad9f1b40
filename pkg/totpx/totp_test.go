package totpx_test

import (
	"net/url"
	"testing"
	"time"

	"github.com/aussiebroadwan/socauth/pkg/totpx"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecret(t *testing.T) {
	e := totpx.New("")
	require.Equal(t, totpx.DefaultIssuer, e.Issuer)

	s1, err := e.GenerateSecret()
	require.NoError(t, err)
	require.Len(t, s1, 32, "160-bit secret is 32 base32 chars")
	require.Regexp(t, `^[A-Z2-7]+$`, s1)

	s2, err := e.GenerateSecret()
	require.NoError(t, err)
	require.NotEqual(t, s1, s2)
}

func TestProvisioningURI(t *testing.T) {
	e := totpx.New("SOC Dashboard")
	secret, err := e.GenerateSecret()
	require.NoError(t, err)

	uri, err := e.ProvisioningURI(secret, "bob")
	require.NoError(t, err)

	u, err := url.Parse(uri)
	require.NoError(t, err)
	require.Equal(t, "otpauth", u.Scheme)
	require.Equal(t, "totp", u.Host)
	require.Equal(t, secret, u.Query().Get("secret"))
	require.Equal(t, "SOC Dashboard", u.Query().Get("issuer"))
	require.Contains(t, u.Path, "bob")

	_, err = e.ProvisioningURI(secret, "")
	require.ErrorIs(t, err, totpx.ErrEmptyAccount)

	_, err = e.ProvisioningURI("not base32!", "bob")
	require.ErrorIs(t, err, totpx.ErrInvalidSecret)
}

func TestVerify_Window(t *testing.T) {
	e := totpx.New("")
	secret := "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"

	// Start of a 30s step so ±n steps land on exact step boundaries.
	base := time.Unix(1_700_000_010, 0)
	code, err := e.CodeAt(secret, base)
	require.NoError(t, err)

	tests := []struct {
		name   string
		offset time.Duration
		want   bool
	}{
		{"same step", 0, true},
		{"end of same step", 29 * time.Second, true},
		{"one step ahead", 30 * time.Second, true},
		{"one step behind", -30 * time.Second, true},
		{"two steps ahead", 60 * time.Second, false},
		{"two steps behind", -60 * time.Second, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, e.VerifyAt(secret, code, base.Add(tt.offset)))
		})
	}
}

func TestVerify_UsesClock(t *testing.T) {
	now := time.Unix(1_700_000_010, 0)
	e := totpx.New("")
	e.Now = func() time.Time { return now }

	secret, err := e.GenerateSecret()
	require.NoError(t, err)
	code, err := e.CodeAt(secret, now)
	require.NoError(t, err)

	require.True(t, e.Verify(secret, code))
	require.True(t, e.Verify(secret, " "+code+" "), "surrounding whitespace is ignored")

	now = now.Add(2 * time.Minute)
	require.False(t, e.Verify(secret, code))
}

func TestVerify_RejectsMalformed(t *testing.T) {
	e := totpx.New("")
	secret, err := e.GenerateSecret()
	require.NoError(t, err)

	for _, code := range []string{"", "12345", "1234567", "12a456", "abcdef", "12 456", "１２３４５６"} {
		t.Run(code, func(t *testing.T) {
			require.False(t, e.Verify(secret, code))
		})
	}

	code, err := e.CodeAt(secret, time.Now())
	require.NoError(t, err)
	require.False(t, e.Verify("", code))
	require.False(t, e.Verify("!!!!", code))
}
