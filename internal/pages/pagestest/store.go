// Package pagestest scripts drivertest sessions to behave like the store's
// web UI and the Wikipedia app, so page objects and scenarios can run
// without a browser or device.
package pagestest

import (
	"strings"
	"sync"

	"github.com/v0xg/flowcheck/internal/driver"
	"github.com/v0xg/flowcheck/internal/driver/drivertest"
	"github.com/v0xg/flowcheck/internal/locator"
	"github.com/v0xg/flowcheck/internal/pages"
)

// LoginFailedMessage is shown after a rejected login.
const LoginFailedMessage = "Your email or password is incorrect!"

// Store simulates the store's login, signup and account pages.
type Store struct {
	session *drivertest.Session
	base    string

	mu          sync.Mutex
	accounts    map[string]string
	names       map[string]string
	current     string
	pending     map[locator.Locator]*drivertest.Element
	shown       []locator.Locator
	deleteFails bool
}

// NewStore wires the fake onto session. URLs are built from baseURL.
func NewStore(session *drivertest.Session, baseURL string) *Store {
	s := &Store{
		session:  session,
		base:     strings.TrimRight(baseURL, "/"),
		accounts: make(map[string]string),
		names:    make(map[string]string),
	}
	session.OnNavigate(func(_ *drivertest.Session, url string) {
		switch strings.TrimPrefix(url, s.base) {
		case "/login":
			s.showLogin()
		default:
			s.showHome()
		}
	})
	return s
}

// AddAccount seeds a registered account.
func (s *Store) AddAccount(email, password, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[email] = password
	s.names[email] = name
}

// HasAccount reports whether email is registered.
func (s *Store) HasAccount(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.accounts[email]
	return ok
}

// LoggedIn returns the email of the logged-in account, if any.
func (s *Store) LoggedIn() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// BreakDelete makes account deletion never confirm.
func (s *Store) BreakDelete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteFails = true
}

// render replaces the visible page with els.
func (s *Store) render(path string, els map[locator.Locator]*drivertest.Element) {
	s.mu.Lock()
	previous := s.shown
	s.shown = s.shown[:0:0]
	for loc := range els {
		s.shown = append(s.shown, loc)
	}
	s.mu.Unlock()

	for _, loc := range previous {
		s.session.Remove(loc)
	}
	s.session.SetURL(s.base + path)
	for loc, el := range els {
		s.session.Set(loc, el)
	}
}

func (s *Store) header() map[locator.Locator]*drivertest.Element {
	s.mu.Lock()
	current, name := s.current, s.names[s.current]
	s.mu.Unlock()

	els := map[locator.Locator]*drivertest.Element{}
	if current == "" {
		els[pages.SignupLoginLink] = drivertest.NewElement("Signup / Login").
			OnAct(driver.Click, func(*drivertest.Session) { s.showLogin() })
		return els
	}
	els[pages.LoggedInUsername] = drivertest.NewElement(name)
	els[pages.LogoutLink] = drivertest.NewElement("Logout").
		OnAct(driver.Click, func(*drivertest.Session) { s.logout() })
	els[pages.DeleteAccountLink] = drivertest.NewElement("Delete Account").
		OnAct(driver.Click, func(*drivertest.Session) { s.deleteAccount() })
	return els
}

func (s *Store) showHome() {
	s.render("/", s.header())
}

func (s *Store) showLogin() {
	els := s.header()
	email := drivertest.NewElement("")
	password := drivertest.NewElement("")
	name := drivertest.NewElement("")
	signupEmail := drivertest.NewElement("")

	els[pages.LoginHeading] = drivertest.NewElement("Login to your account")
	els[pages.LoginEmailInput] = email
	els[pages.LoginPasswordInput] = password
	els[pages.LoginButton] = drivertest.NewElement("Login").
		OnAct(driver.Click, func(*drivertest.Session) { s.login(email.Value(), password.Value()) })
	els[pages.SignupNameInput] = name
	els[pages.SignupEmailInput] = signupEmail
	els[pages.SignupButton] = drivertest.NewElement("Signup").
		OnAct(driver.Click, func(*drivertest.Session) { s.showSignup(name.Value(), signupEmail.Value()) })
	s.render("/login", els)
}

func (s *Store) login(email, password string) {
	s.mu.Lock()
	stored, ok := s.accounts[email]
	loggedIn := ok && stored == password
	if loggedIn {
		s.current = email
	}
	s.mu.Unlock()

	if loggedIn {
		s.showHome()
		return
	}
	s.session.Set(pages.LoginErrorMessage, drivertest.NewElement(LoginFailedMessage))
	s.mu.Lock()
	s.shown = append(s.shown, pages.LoginErrorMessage)
	s.mu.Unlock()
}

func (s *Store) logout() {
	s.mu.Lock()
	s.current = ""
	s.mu.Unlock()
	s.showLogin()
}

func (s *Store) showSignup(name, email string) {
	fields := map[locator.Locator]*drivertest.Element{
		pages.TitleMrRadio:   drivertest.NewElement(""),
		pages.PasswordInput:  drivertest.NewElement(""),
		pages.FirstNameInput: drivertest.NewElement(""),
		pages.LastNameInput:  drivertest.NewElement(""),
		pages.CompanyInput:   drivertest.NewElement(""),
		pages.Address1Input:  drivertest.NewElement(""),
		pages.CountrySelect:  drivertest.NewElement(""),
		pages.StateInput:     drivertest.NewElement(""),
		pages.CityInput:      drivertest.NewElement(""),
		pages.ZipcodeInput:   drivertest.NewElement(""),
		pages.MobileInput:    drivertest.NewElement(""),
	}
	s.mu.Lock()
	s.pending = fields
	s.mu.Unlock()

	els := s.header()
	for loc, el := range fields {
		els[loc] = el
	}
	els[pages.CreateAccountButton] = drivertest.NewElement("Create Account").
		OnAct(driver.Click, func(*drivertest.Session) { s.createAccount(name, email) })
	s.render("/signup", els)
}

func (s *Store) createAccount(name, email string) {
	s.mu.Lock()
	password := s.pending[pages.PasswordInput].Value()
	s.accounts[email] = password
	s.names[email] = name
	s.mu.Unlock()

	els := s.header()
	els[pages.AccountCreated] = drivertest.NewElement("Account Created!")
	els[pages.ContinueButton] = drivertest.NewElement("Continue").
		OnAct(driver.Click, func(*drivertest.Session) {
			s.mu.Lock()
			s.current = email
			s.mu.Unlock()
			s.showHome()
		})
	s.render("/account_created", els)
}

func (s *Store) deleteAccount() {
	s.mu.Lock()
	if s.deleteFails {
		s.mu.Unlock()
		return
	}
	delete(s.accounts, s.current)
	s.current = ""
	s.mu.Unlock()

	els := s.header()
	els[pages.AccountDeleted] = drivertest.NewElement("Account Deleted!")
	els[pages.ContinueButton] = drivertest.NewElement("Continue").
		OnAct(driver.Click, func(*drivertest.Session) { s.showHome() })
	s.render("/delete_account", els)
}
