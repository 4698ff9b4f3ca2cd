// Package apitest is an in-memory stand-in for the store's account API,
// served over httptest. It reproduces the response codes and messages of
// the real service.
package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
)

const (
	MsgUserExists      = "User exists!"
	MsgUserNotFound    = "User not found!"
	MsgBadRequest      = "Bad request, email or password parameter is missing in POST request."
	MsgUserCreated     = "User created!"
	MsgEmailExists     = "Email already exists!"
	MsgAccountDeleted  = "Account deleted!"
	MsgAccountNotFound = "Account not found!"
	MsgMethodNotAllow  = "This request method is not supported."
)

// Server is a fake account API.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	accounts map[string]string
	calls    map[string]int
}

// NewServer starts the fake. Close it when done.
func NewServer() *Server {
	s := &Server{
		accounts: make(map[string]string),
		calls:    make(map[string]int),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/verifyLogin", s.verifyLogin)
	mux.HandleFunc("/api/createAccount", s.createAccount)
	mux.HandleFunc("/api/deleteAccount", s.deleteAccount)
	s.Server = httptest.NewServer(mux)
	return s
}

// AddAccount seeds an account.
func (s *Server) AddAccount(email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[email] = password
}

// HasAccount reports whether email is registered.
func (s *Server) HasAccount(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.accounts[email]
	return ok
}

// Calls returns how often path was hit.
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

func (s *Server) count(r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[r.URL.Path]++
}

func writeCode(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{"responseCode": code, "message": message})
}

// parseForm reads form fields from the body for any method. net/http only
// parses bodies of POST, PUT and PATCH, and deleteAccount uses DELETE.
func parseForm(r *http.Request) (form url.Values, ok bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return nil, false
	}
	form, err = url.ParseQuery(string(body))
	if err != nil {
		return nil, false
	}
	return form, true
}

func credentials(form url.Values) (email, password string, complete bool) {
	_, hasEmail := form["email"]
	_, hasPassword := form["password"]
	return form.Get("email"), form.Get("password"), hasEmail && hasPassword
}

func (s *Server) verifyLogin(w http.ResponseWriter, r *http.Request) {
	s.count(r)
	if r.Method != http.MethodPost {
		writeCode(w, http.StatusMethodNotAllowed, MsgMethodNotAllow)
		return
	}
	form, _ := parseForm(r)
	email, password, complete := credentials(form)
	if !complete {
		writeCode(w, http.StatusBadRequest, MsgBadRequest)
		return
	}
	s.mu.Lock()
	stored, ok := s.accounts[email]
	s.mu.Unlock()
	if !ok || stored != password {
		writeCode(w, http.StatusNotFound, MsgUserNotFound)
		return
	}
	writeCode(w, http.StatusOK, MsgUserExists)
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	s.count(r)
	if r.Method != http.MethodPost {
		writeCode(w, http.StatusMethodNotAllowed, MsgMethodNotAllow)
		return
	}
	form, _ := parseForm(r)
	email, password, complete := credentials(form)
	if !complete || form.Get("name") == "" {
		writeCode(w, http.StatusBadRequest, MsgBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[email]; exists {
		writeCode(w, http.StatusBadRequest, MsgEmailExists)
		return
	}
	s.accounts[email] = password
	writeCode(w, http.StatusCreated, MsgUserCreated)
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	s.count(r)
	if r.Method != http.MethodDelete {
		writeCode(w, http.StatusMethodNotAllowed, MsgMethodNotAllow)
		return
	}
	form, _ := parseForm(r)
	email, password, complete := credentials(form)
	if !complete {
		writeCode(w, http.StatusBadRequest, MsgBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if stored, ok := s.accounts[email]; !ok || stored != password {
		writeCode(w, http.StatusNotFound, MsgAccountNotFound)
		return
	}
	delete(s.accounts, email)
	writeCode(w, http.StatusOK, MsgAccountDeleted)
}
