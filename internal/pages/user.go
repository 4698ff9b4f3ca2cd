package pages

import (
	"context"
	"regexp"

	"github.com/v0xg/flowcheck/internal/executor"
	"github.com/v0xg/flowcheck/internal/fixtures"
	"github.com/v0xg/flowcheck/internal/locator"
)

// Signup and account locators.
var (
	SignupNameInput     = locator.ByCSS(`input[data-qa="signup-name"]`).Describe("signup name")
	SignupEmailInput    = locator.ByCSS(`input[data-qa="signup-email"]`).Describe("signup email")
	SignupButton        = locator.ByCSS(`button[data-qa="signup-button"]`).Describe("signup button")
	TitleMrRadio        = locator.ByCSS(`#id_gender1`).Describe("title Mr")
	PasswordInput       = locator.ByCSS(`#password`).Describe("account password")
	FirstNameInput      = locator.ByCSS(`#first_name`)
	LastNameInput       = locator.ByCSS(`#last_name`)
	CompanyInput        = locator.ByCSS(`#company`)
	Address1Input       = locator.ByCSS(`#address1`)
	CountrySelect       = locator.ByCSS(`#country`)
	StateInput          = locator.ByCSS(`#state`)
	CityInput           = locator.ByCSS(`#city`)
	ZipcodeInput        = locator.ByCSS(`#zipcode`)
	MobileInput         = locator.ByCSS(`#mobile_number`)
	CreateAccountButton = locator.ByCSS(`button[data-qa="create-account"]`).Describe("create account button")
	AccountCreated      = locator.HasText("h2", "Account Created!").Describe("account created banner")
	ContinueButton      = locator.ByCSS(`a[data-qa="continue-button"]`).Describe("continue button")
	DeleteAccountLink   = locator.ByCSS(`a[href="/delete_account"]`).Describe("delete account link")
	AccountDeleted      = locator.HasText("h2", "Account Deleted!").Describe("account deleted banner")
)

var signupURL = regexp.MustCompile(`signup`)

// RegisterUser creates acct through the signup flow and leaves the
// session logged in as it.
func RegisterUser(ctx context.Context, ui UI, acct fixtures.Account) error {
	exec := ui.Exec
	if err := ui.Open(ctx, "/login"); err != nil {
		return err
	}
	if err := exec.Fill(ctx, SignupNameInput, acct.Name); err != nil {
		return err
	}
	if err := exec.Fill(ctx, SignupEmailInput, acct.Email); err != nil {
		return err
	}
	if err := exec.Click(ctx, SignupButton); err != nil {
		return err
	}
	if err := ui.WaitForURL(ctx, signupURL, ui.long(executor.Visible).Timeout); err != nil {
		return err
	}

	if err := exec.Check(ctx, TitleMrRadio); err != nil {
		return err
	}
	err := fillAll(ctx, exec,
		field{PasswordInput, acct.Password},
		field{FirstNameInput, acct.FirstName},
		field{LastNameInput, acct.LastName},
		field{CompanyInput, acct.Company},
		field{Address1Input, acct.Address},
	)
	if err != nil {
		return err
	}
	if err := exec.Select(ctx, CountrySelect, acct.Country); err != nil {
		return err
	}
	err = fillAll(ctx, exec,
		field{StateInput, acct.State},
		field{CityInput, acct.City},
		field{ZipcodeInput, acct.Zipcode},
		field{MobileInput, acct.Mobile},
	)
	if err != nil {
		return err
	}

	if err := exec.Click(ctx, CreateAccountButton); err != nil {
		return err
	}
	if err := exec.WaitFor(ctx, AccountCreated, ui.long(executor.Visible), executor.RequireUnique); err != nil {
		return err
	}
	return exec.Click(ctx, ContinueButton)
}

// DeleteUser deletes the logged-in account. Callers run it under
// cleanup.Run so a failure never changes the scenario verdict.
func DeleteUser(ctx context.Context, ui UI) error {
	exec := ui.Exec
	if err := exec.Click(ctx, DeleteAccountLink); err != nil {
		return err
	}
	if err := exec.WaitFor(ctx, AccountDeleted, exec.Defaults().For(executor.Visible), executor.RequireUnique); err != nil {
		return err
	}
	return exec.Click(ctx, ContinueButton)
}

type field struct {
	loc   locator.Locator
	value string
}

func fillAll(ctx context.Context, exec *executor.Executor, fields ...field) error {
	for _, f := range fields {
		if err := exec.Fill(ctx, f.loc, f.value); err != nil {
			return err
		}
	}
	return nil
}
