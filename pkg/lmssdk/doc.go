/*
Package lmssdk is a Go client for the LMS account service.

The service keeps the session in two cookies (access_token and
refresh_token). The Client carries a cookie jar, so after Login every call
is authenticated until the access token expires, at which point Refresh
trades the refresh cookie for a new pair:

	client, err := lmssdk.NewClient("https://lms.example.com")

	// Registration is two steps: the service emails a 4-digit code and
	// returns an activation token that must be sent back with it.
	reg, err := client.Register(ctx, lmssdk.RegisterRequest{
		Name:     "Ada",
		Email:    "ada@example.com",
		Password: "hunter22",
	})
	err = client.Activate(ctx, reg.ActivationToken, codeFromEmail)

	session, err := client.Login(ctx, "ada@example.com", "hunter22")
	me, err := client.Me(ctx)

	if errors.Is(err, lmssdk.ErrUnauthenticated) {
		session, err = client.Refresh(ctx)
	}

	err = client.Logout(ctx)

# Errors

Every failed call returns an *APIError. Compare against the predefined
values with errors.Is; only the Kind is compared:

	if errors.Is(err, lmssdk.ErrSessionNotFound) {
		// the session was revoked, log in again
	}

The server writes the same values, so the kinds listed here are the complete
set a caller can observe.
*/
package lmssdk
