// Package api is the HTTP client for the pizza backend's active-pizza and
// auth endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/hammamikhairi/pizzatimer/internal/auth"
	"github.com/hammamikhairi/pizzatimer/internal/domain"
	"github.com/hammamikhairi/pizzatimer/internal/logger"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 30 * time.Second

const (
	activePizzaPath = "/api/active-pizza"
	loginPath       = "/api/auth/login"
	refreshPath     = "/api/auth/refresh"
)

// CredentialStore is where the client reads and rotates tokens.
type CredentialStore interface {
	Load() (auth.Credentials, error)
	Save(auth.Credentials) error
	Clear() error
}

// HTTPError is a non-2xx answer from the backend.
type HTTPError struct {
	StatusCode int
	Message    string
	kind       error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Unwrap exposes the domain error matching the status, if any.
func (e *HTTPError) Unwrap() error { return e.kind }

// Option configures the client.
type Option func(*Client)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(d)
	}
}

// WithHTTPClient swaps the transport. Used by tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = resty.NewWithClient(hc).
			SetBaseURL(c.baseURL).
			SetTimeout(DefaultTimeout).
			SetHeader("Accept", "application/json")
	}
}

// Client talks to the backend. Safe for concurrent use.
type Client struct {
	http    *resty.Client
	baseURL string
	creds   CredentialStore
	log     *logger.Logger

	refreshMu sync.Mutex
}

// New creates a client for the backend at baseURL.
func New(baseURL string, creds CredentialStore, log *logger.Logger, opts ...Option) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(DefaultTimeout).
			SetHeader("Accept", "application/json").
			SetHeader("User-Agent", "pizzatimer"),
		baseURL: baseURL,
		creds:   creds,
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges email and password for tokens and stores them.
func (c *Client) Login(ctx context.Context, email, password string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString()).
		SetBody(loginRequest{Email: email, Password: password}).
		Post(loginPath)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		return fmt.Errorf("login: %w", errorFrom(resp))
	}
	if err := classify(resp); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	var out jwtResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return fmt.Errorf("login: decoding response: %w", err)
	}
	if out.AccessToken == "" {
		return errors.New("login: response carried no access token")
	}

	c.log.Info("logged in as %s", email)
	return c.creds.Save(auth.Credentials{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		Email:        email,
	})
}

// Logout forgets the stored tokens.
func (c *Client) Logout() error {
	return c.creds.Clear()
}

// do sends a request with the stored bearer token. A 401 triggers one
// refresh and one replay; a second 401 logs the user out.
func (c *Client) do(ctx context.Context, method, path string, build func(*resty.Request)) (*resty.Response, error) {
	resp, token, err := c.send(ctx, method, path, build)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() == http.StatusUnauthorized {
		c.log.Debug("%s %s: 401, refreshing token", method, path)
		if err := c.refresh(ctx, token); err != nil {
			return nil, err
		}
		resp, _, err = c.send(ctx, method, path, build)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() == http.StatusUnauthorized {
			c.clearCredentials()
			return nil, fmt.Errorf("%s %s: %w", method, path, domain.ErrUnauthenticated)
		}
	}

	if err := classify(resp); err != nil {
		c.log.Debug("%s %s: %v", method, path, err)
		return nil, err
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, method, path string, build func(*resty.Request)) (*resty.Response, string, error) {
	creds, err := c.creds.Load()
	if err != nil {
		return nil, "", err
	}

	reqID := uuid.NewString()
	req := c.http.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", reqID)
	if creds.AccessToken != "" {
		req.SetAuthToken(creds.AccessToken)
	}
	if build != nil {
		build(req)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, "", fmt.Errorf("%s %s: %w", method, path, err)
	}
	c.log.Debug("%s %s -> %d (%s, request=%s)", method, path, resp.StatusCode(), time.Since(start).Round(time.Millisecond), reqID)
	return resp, creds.AccessToken, nil
}

// refresh rotates the tokens once. staleToken is the access token that was
// rejected; if another request already replaced it, nothing is sent.
func (c *Client) refresh(ctx context.Context, staleToken string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	creds, err := c.creds.Load()
	if err != nil {
		return err
	}
	if creds.AccessToken != "" && creds.AccessToken != staleToken {
		return nil
	}
	if creds.RefreshToken == "" {
		c.clearCredentials()
		return domain.ErrUnauthenticated
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString()).
		SetBody(refreshRequest{RefreshToken: creds.RefreshToken}).
		Post(refreshPath)
	if err != nil {
		return fmt.Errorf("refreshing token: %w", err)
	}
	if resp.IsError() {
		c.log.Warn("token refresh rejected (HTTP %d), logging out", resp.StatusCode())
		c.clearCredentials()
		return fmt.Errorf("refreshing token: %w", domain.ErrUnauthenticated)
	}

	var out jwtResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil || out.AccessToken == "" {
		c.clearCredentials()
		return fmt.Errorf("refreshing token: unreadable response: %w", domain.ErrUnauthenticated)
	}

	next := auth.Credentials{AccessToken: out.AccessToken, RefreshToken: out.RefreshToken, Email: creds.Email}
	if next.RefreshToken == "" {
		next.RefreshToken = creds.RefreshToken
	}
	if err := c.creds.Save(next); err != nil {
		return err
	}
	c.log.Debug("token refreshed")
	return nil
}

func (c *Client) clearCredentials() {
	if err := c.creds.Clear(); err != nil {
		c.log.Warn("clearing credentials: %v", err)
	}
}

// classify turns a non-2xx response into an *HTTPError.
func classify(resp *resty.Response) error {
	code := resp.StatusCode()
	if code >= 200 && code < 300 {
		return nil
	}
	return errorFrom(resp)
}

func errorFrom(resp *resty.Response) *HTTPError {
	code := resp.StatusCode()
	e := &HTTPError{StatusCode: code, Message: http.StatusText(code)}

	var body errorBody
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		switch {
		case body.Message != "":
			e.Message = body.Message
		case body.Error != "":
			e.Message = body.Error
		}
	}

	switch code {
	case http.StatusNotFound:
		e.kind = domain.ErrNotFound
	case http.StatusBadRequest, http.StatusConflict:
		e.kind = domain.ErrInvalidTransition
	case http.StatusUnauthorized:
		e.kind = domain.ErrUnauthenticated
	}
	return e
}
