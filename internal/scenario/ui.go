package scenario

import (
	"context"
	"fmt"

	"github.com/v0xg/flowcheck/internal/cleanup"
	"github.com/v0xg/flowcheck/internal/fixtures"
	"github.com/v0xg/flowcheck/internal/pages"
)

func init() {
	register(Scenario{
		Name:        "ui/login-valid",
		Kind:        KindUI,
		Description: "a registered user can log out and log back in",
		Run:         loginValid,
	})
	register(Scenario{
		Name:        "ui/login-invalid",
		Kind:        KindUI,
		Description: "invalid credentials show the login error",
		Run:         loginInvalid,
	})
}

func loginValid(ctx context.Context, t *T) error {
	ui := t.UI()
	login := pages.NewLoginPage(ui)
	acct := fixtures.NewAccount()

	// Registration can fail after the account exists, so cleanup is armed
	// first; it fails harmlessly when nobody is logged in.
	defer cleanup.Run(ctx, "delete user "+acct.Email, t.Env.Config.Wait.Cleanup, func(ctx context.Context) error {
		return pages.DeleteUser(ctx, ui)
	})

	if err := pages.RegisterUser(ctx, ui, acct); err != nil {
		return fmt.Errorf("register %s: %w", acct.Email, err)
	}
	if err := login.Logout(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if err := login.WaitForLoginForm(ctx); err != nil {
		return err
	}
	if err := login.Login(ctx, acct.Email, acct.Password); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	username, err := login.LoggedInUsername(ctx)
	if err != nil {
		return err
	}
	if err := expectNonEmpty("logged-in username", username); err != nil {
		return err
	}
	return login.WaitForLogoutLink(ctx)
}

func loginInvalid(ctx context.Context, t *T) error {
	login := pages.NewLoginPage(t.UI())
	if err := login.Open(ctx); err != nil {
		return err
	}
	if err := login.Login(ctx, "invalid@example.com", "wrongpassword"); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	msg, err := login.LoginError(ctx)
	if err != nil {
		return err
	}
	return expectContains("login error", msg, "Your email or password is incorrect!")
}
