package auth_test

import (
	"testing"

	"github.com/aussiebroadwan/socauth/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestBootstrapSuccess verifies the first admin can log in.
func TestBootstrapSuccess(t *testing.T) {
	baseURL := setupAuthContainer(t)
	client := authsdk.NewSDKClient(baseURL)

	secret := bootstrapService(t, client)
	session := performLogin(t, client, adminUsername, adminPassword, secret)
	require.Equal(t, "admin", session.Role())
}

// TestBootstrapIdempotency verifies bootstrap only works once.
func TestBootstrapIdempotency(t *testing.T) {
	baseURL := setupAuthContainer(t)
	client := authsdk.NewSDKClient(baseURL)

	bootstrapService(t, client)

	_, err := client.Bootstrap(t.Context(), bootstrapToken, authsdk.BootstrapRequest{
		AdminUsername: "second",
		AdminPassword: adminPassword,
	})
	require.ErrorIs(t, err, authsdk.ErrConflict)
}

// TestBootstrapDisabled verifies the endpoint is hidden without a token.
func TestBootstrapDisabled(t *testing.T) {
	baseURL := setupAuthContainerWith(t, map[string]string{"BOOTSTRAP_TOKEN": ""})
	client := authsdk.NewSDKClient(baseURL)

	_, err := client.Bootstrap(t.Context(), "anything", authsdk.BootstrapRequest{
		AdminUsername: adminUsername,
		AdminPassword: adminPassword,
	})
	require.ErrorIs(t, err, authsdk.ErrNotFound)
}
