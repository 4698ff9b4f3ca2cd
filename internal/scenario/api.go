package scenario

import (
	"context"
	"fmt"
	"net/url"

	"github.com/v0xg/flowcheck/internal/cleanup"
	"github.com/v0xg/flowcheck/internal/fixtures"
)

func init() {
	register(Scenario{
		Name:        "api/verify-login-valid",
		Kind:        KindAPI,
		Description: "verifyLogin accepts a freshly created account",
		Run:         verifyLoginValid,
	})
	register(Scenario{
		Name:        "api/verify-login-unknown",
		Kind:        KindAPI,
		Description: "verifyLogin rejects unknown credentials with 404",
		Run: func(ctx context.Context, t *T) error {
			form := url.Values{}
			form.Set("email", "invalid@example.com")
			form.Set("password", "wrongpassword")
			return verifyLoginExpect(ctx, t, form, 404, "User not found!")
		},
	})
	register(Scenario{
		Name:        "api/verify-login-missing-password",
		Kind:        KindAPI,
		Description: "verifyLogin without a password is a bad request",
		Run: func(ctx context.Context, t *T) error {
			form := url.Values{}
			form.Set("email", "testuser@example.com")
			return verifyLoginExpect(ctx, t, form, 400, "Bad request")
		},
	})
	register(Scenario{
		Name:        "api/verify-login-missing-email",
		Kind:        KindAPI,
		Description: "verifyLogin without an email is a bad request",
		Run: func(ctx context.Context, t *T) error {
			form := url.Values{}
			form.Set("password", "password123")
			return verifyLoginExpect(ctx, t, form, 400, "Bad request")
		},
	})
}

func verifyLoginValid(ctx context.Context, t *T) error {
	acct := fixtures.NewAccount()

	// Deleting an account that was never created is harmless.
	defer cleanup.Run(ctx, "delete account "+acct.Email, t.Env.Config.Wait.Cleanup, func(ctx context.Context) error {
		resp, err := t.Env.API.DeleteAccount(ctx, acct.Email, acct.Password)
		if err != nil {
			return err
		}
		return expectResponse(resp, 200, "Account deleted!")
	})

	created, err := t.Env.API.CreateAccount(ctx, acct.RegistrationForm())
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	if err := expectResponse(created, 201, "User created!"); err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return verifyLoginExpect(ctx, t, acct.LoginForm(), 200, "User exists!")
}

func verifyLoginExpect(ctx context.Context, t *T, form url.Values, code int, message string) error {
	resp, err := t.Env.API.VerifyLogin(ctx, form)
	if err != nil {
		return err
	}
	return expectResponse(resp, code, message)
}
