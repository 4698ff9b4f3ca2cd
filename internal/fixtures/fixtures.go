// Package fixtures generates per-run test data. Nothing is persisted.
package fixtures

import (
	"fmt"
	"net/url"
	"sync/atomic"
	"time"
)

// EmailDomain is the domain of generated addresses.
const EmailDomain = "automation.test"

var lastToken atomic.Int64

// UniqueToken returns the current epoch millisecond, bumped past the last
// issued token so concurrent callers never share one.
func UniqueToken(now time.Time) int64 {
	candidate := now.UnixMilli()
	for {
		last := lastToken.Load()
		next := candidate
		if next <= last {
			next = last + 1
		}
		if lastToken.CompareAndSwap(last, next) {
			return next
		}
	}
}

// UniqueEmail returns testuser{token}@automation.test.
func UniqueEmail() string {
	return fmt.Sprintf("testuser%d@%s", UniqueToken(time.Now()), EmailDomain)
}

// Credentials is the static profile used for every generated account.
// The password has upper and lower case letters, a digit and a symbol.
type Credentials struct {
	Password  string
	Name      string
	FirstName string
	LastName  string
	Company   string
	Address   string
	Country   string
	State     string
	City      string
	Zipcode   string
	Mobile    string
}

// DefaultCredentials returns the standard test profile.
func DefaultCredentials() Credentials {
	return Credentials{
		Password:  "Test@1234",
		Name:      "Test User",
		FirstName: "Test",
		LastName:  "User",
		Company:   "Test Company",
		Address:   "123 Test St",
		Country:   "United States",
		State:     "California",
		City:      "Los Angeles",
		Zipcode:   "90001",
		Mobile:    "1234567890",
	}
}

// Account is a fresh account with a unique email.
type Account struct {
	Email string
	Credentials
}

// NewAccount creates an account with a unique email and default profile.
func NewAccount() Account {
	return Account{Email: UniqueEmail(), Credentials: DefaultCredentials()}
}

// RegistrationForm returns the createAccount form fields.
func (a Account) RegistrationForm() url.Values {
	form := url.Values{}
	form.Set("name", a.Name)
	form.Set("email", a.Email)
	form.Set("password", a.Password)
	form.Set("title", "Mr")
	form.Set("birth_date", "1")
	form.Set("birth_month", "1")
	form.Set("birth_year", "1990")
	form.Set("firstname", a.FirstName)
	form.Set("lastname", a.LastName)
	form.Set("company", a.Company)
	form.Set("address1", a.Address)
	form.Set("address2", "")
	form.Set("country", a.Country)
	form.Set("zipcode", a.Zipcode)
	form.Set("state", a.State)
	form.Set("city", a.City)
	form.Set("mobile_number", a.Mobile)
	return form
}

// LoginForm returns the verifyLogin form fields.
func (a Account) LoginForm() url.Values {
	form := url.Values{}
	form.Set("email", a.Email)
	form.Set("password", a.Password)
	return form
}
