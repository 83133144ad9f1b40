/*
Package authsdk is a Go client for the SOC dashboard authentication service.

# Overview

The service authenticates dashboard users with a password and a TOTP code and
issues opaque session tokens that expire after a period of inactivity. The SDK
is organised around two types:

  - SDKClient: unauthenticated operations (login, bootstrap, health)
  - Session: operations on behalf of a logged-in user

Log in and use the session:

	client := authsdk.NewSDKClient("https://auth.soc.example")

	session, err := client.Login(ctx, "alice", password, totpCode)
	if errors.Is(err, authsdk.ErrInvalidCredentials) {
		// wrong username, password or code; the server does not say which
	}

	info, err := session.Info(ctx)
	fmt.Println(info.Username, info.Role, info.ExpiresAt)

	err = session.Logout(ctx)

Every authenticated call slides the idle window forward. Once the session has
been idle for longer than the server's timeout, calls fail with
ErrUnauthorized and the user has to log in again.

# Administration

Sessions with the admin role can manage users:

	reg, err := admin.Register(ctx, authsdk.RegisterRequest{
		Username: "bob",
		Password: "correct horse battery staple",
	})
	// reg.ProvisioningURI is rendered as a QR code for bob's authenticator app.

	err = admin.AdminResetPassword(ctx, "bob", newPassword)
	err = admin.DeleteUser(ctx, "bob")

# Bootstrap

A fresh deployment has no users. If the operator configured a bootstrap token
the first admin can be created once:

	reg, err := client.Bootstrap(ctx, bootstrapToken, authsdk.BootstrapRequest{
		AdminUsername: "root",
		AdminPassword: password,
	})

# Errors

Failed calls return *APIError, comparable with errors.Is against the
predefined values (ErrInvalidCredentials, ErrUnauthorized, ErrForbidden,
ErrNotFound, ErrConflict, ErrRateLimited, ErrUnavailable), or
*ValidationError when request fields were rejected. The same types are used
by the server to write its responses.
*/
package authsdk
