// Package api is a client for the store's form-post account API. The
// service answers HTTP 200 for every handled request and reports the real
// outcome in the JSON body's responseCode.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/v0xg/flowcheck/internal/errs"
	"github.com/v0xg/flowcheck/internal/logging"
)

const maxBodyBytes = 1 << 20

// Response is the body every endpoint returns.
type Response struct {
	ResponseCode int    `json:"responseCode"`
	Message      string `json:"message"`
}

// ExternalServiceError reports an unexpected HTTP status or a malformed
// body. It is never retried.
type ExternalServiceError struct {
	Endpoint   string
	HTTPStatus int
	Body       string
	Err        error
}

func (e *ExternalServiceError) Error() string {
	msg := fmt.Sprintf("%s: unexpected response (HTTP %d)", e.Endpoint, e.HTTPStatus)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Body != "" {
		msg += ": body " + truncate(e.Body, 200)
	}
	return msg
}

func (e *ExternalServiceError) Unwrap() error   { return e.Err }
func (e *ExternalServiceError) Code() errs.Code { return errs.ExternalService }

// Client calls the account API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient creates a client with a request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// VerifyLogin posts the form to /api/verifyLogin. Fields are sent as
// given so missing-field cases can be exercised.
func (c *Client) VerifyLogin(ctx context.Context, form url.Values) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/api/verifyLogin", form)
}

// CreateAccount posts a registration form to /api/createAccount.
func (c *Client) CreateAccount(ctx context.Context, form url.Values) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/api/createAccount", form)
}

// DeleteAccount sends DELETE /api/deleteAccount with email and password.
func (c *Client) DeleteAccount(ctx context.Context, email, password string) (*Response, error) {
	form := url.Values{}
	form.Set("email", email)
	form.Set("password", password)
	return c.do(ctx, http.MethodDelete, "/api/deleteAccount", form)
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values) (*Response, error) {
	endpoint := method + " " + path
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	logging.Debug("API", "%s %s", endpoint, logging.FormatForm(form))

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &ExternalServiceError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &ExternalServiceError{Endpoint: endpoint, HTTPStatus: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ExternalServiceError{Endpoint: endpoint, HTTPStatus: resp.StatusCode, Body: string(body)}
	}

	// responseCode must be present; a zero value alone cannot tell.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &ExternalServiceError{Endpoint: endpoint, HTTPStatus: resp.StatusCode, Body: string(body), Err: fmt.Errorf("decode body: %w", err)}
	}
	if _, ok := raw["responseCode"]; !ok {
		return nil, &ExternalServiceError{Endpoint: endpoint, HTTPStatus: resp.StatusCode, Body: string(body), Err: fmt.Errorf("missing responseCode")}
	}
	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &ExternalServiceError{Endpoint: endpoint, HTTPStatus: resp.StatusCode, Body: string(body), Err: fmt.Errorf("decode body: %w", err)}
	}

	logging.Debug("API", "%s -> responseCode=%d message=%q", endpoint, out.ResponseCode, out.Message)
	return &out, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "... [truncated]"
}
