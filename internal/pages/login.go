package pages

import (
	"context"
	"regexp"
	"strings"

	"github.com/v0xg/flowcheck/internal/executor"
	"github.com/v0xg/flowcheck/internal/locator"
)

// Login page locators. data-qa attributes are the stable hooks.
var (
	SignupLoginLink    = locator.ByCSS(`a[href="/login"]`).Describe("signup/login link")
	LoginEmailInput    = locator.ByCSS(`input[data-qa="login-email"]`).Describe("login email")
	LoginPasswordInput = locator.ByCSS(`input[data-qa="login-password"]`).Describe("login password")
	LoginButton        = locator.ByCSS(`button[data-qa="login-button"]`).Describe("login button")
	LoggedInUsername   = locator.HasText("a", "Logged in as").Descendant("b").Describe("logged-in username")
	LogoutLink         = locator.ByCSS(`a[href="/logout"]`).Describe("logout link")
	LoginHeading       = locator.HasText("h2", "Login to your account").Describe("login heading")
	LoginErrorMessage  = locator.ByCSS(`p[style*="color: red"]`).Describe("login error")
)

var loginURL = regexp.MustCompile(`login`)

// LoginPage drives the combined login/signup page.
type LoginPage struct {
	ui UI
}

// NewLoginPage returns the login page object for ui.
func NewLoginPage(ui UI) *LoginPage {
	return &LoginPage{ui: ui}
}

// Open loads the home page and follows the signup/login link.
func (p *LoginPage) Open(ctx context.Context) error {
	if err := p.ui.Open(ctx, "/"); err != nil {
		return err
	}
	return p.ui.Exec.Click(ctx, SignupLoginLink)
}

// Login fills the login form and submits it.
func (p *LoginPage) Login(ctx context.Context, email, password string) error {
	if err := p.ui.Exec.Fill(ctx, LoginEmailInput, email); err != nil {
		return err
	}
	if err := p.ui.Exec.Fill(ctx, LoginPasswordInput, password); err != nil {
		return err
	}
	return p.ui.Exec.Click(ctx, LoginButton)
}

// LoggedInUsername waits up to the long wait for the header username.
func (p *LoginPage) LoggedInUsername(ctx context.Context) (string, error) {
	text, err := p.ui.Exec.ReadText(ctx, LoggedInUsername, p.ui.long(executor.Visible), executor.RequireUnique)
	return strings.TrimSpace(text), err
}

// IsLoggedIn reports whether the header username is visible now.
func (p *LoginPage) IsLoggedIn(ctx context.Context) (bool, error) {
	return p.ui.Exec.Visible(ctx, LoggedInUsername, executor.RequireUnique)
}

// Logout clicks the logout link and waits for the login URL.
func (p *LoginPage) Logout(ctx context.Context) error {
	if err := p.ui.Exec.Click(ctx, LogoutLink); err != nil {
		return err
	}
	return p.ui.WaitForURL(ctx, loginURL, p.ui.long(executor.Visible).Timeout)
}

// WaitForLoginForm waits for the "Login to your account" heading.
func (p *LoginPage) WaitForLoginForm(ctx context.Context) error {
	return p.ui.Exec.WaitFor(ctx, LoginHeading, p.ui.Exec.Defaults().For(executor.Visible), executor.RequireUnique)
}

// WaitForLogoutLink waits for the logout link to show.
func (p *LoginPage) WaitForLogoutLink(ctx context.Context) error {
	return p.ui.Exec.WaitFor(ctx, LogoutLink, p.ui.Exec.Defaults().For(executor.Visible), executor.RequireUnique)
}

// LoginError returns the red error text shown after a rejected login.
func (p *LoginPage) LoginError(ctx context.Context) (string, error) {
	text, err := p.ui.Exec.ReadText(ctx, LoginErrorMessage, p.ui.Exec.Defaults().For(executor.Visible), executor.RequireUnique)
	return strings.TrimSpace(text), err
}
