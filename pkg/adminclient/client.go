// Package adminclient is the Go client for the admin API. It holds the
// session gate, the persisted local store, a request cache and the live
// sync subscription that keeps the cache fresh.
package adminclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// AuthEvent is delivered to auth-state listeners.
type AuthEvent string

const (
	EventSignedIn  AuthEvent = "SIGNED_IN"
	EventSignedOut AuthEvent = "SIGNED_OUT"
)

// FieldError mirrors one entry of a 400 validation body.
type FieldError struct {
	Type     string      `json:"type"`
	Value    interface{} `json:"value,omitempty"`
	Msg      string      `json:"msg"`
	Path     string      `json:"path"`
	Location string      `json:"location"`
}

// APIError is any non-2xx response.
type APIError struct {
	Status  int
	Message string
	Fields  []FieldError

	// TOTPRequired is set when a login needs an authenticator code.
	TOTPRequired bool
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		msgs := make([]string, len(e.Fields))
		for i, f := range e.Fields {
			msgs[i] = f.Path + ": " + f.Msg
		}
		return fmt.Sprintf("%d: %s", e.Status, strings.Join(msgs, "; "))
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// NeedsTOTP reports whether err asks for a second factor.
func NeedsTOTP(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.TOTPRequired
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  *logrus.Logger

	mu        sync.RWMutex
	token     string
	listeners map[int]func(AuthEvent, *SessionResponse)
	nextID    int
	cache     *QueryCache
}

// New returns a client for the API at baseURL. httpClient and logger may be nil.
func New(baseURL string, httpClient *http.Client, logger *logrus.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      httpClient,
		logger:    logger,
		listeners: make(map[int]func(AuthEvent, *SessionResponse)),
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// OnAuthStateChange registers fn for sign-in and sign-out events and
// returns a function that removes it.
func (c *Client) OnAuthStateChange(fn func(AuthEvent, *SessionResponse)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Client) emit(event AuthEvent, session *SessionResponse) {
	c.mu.RLock()
	fns := make([]func(AuthEvent, *SessionResponse), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.RUnlock()

	for _, fn := range fns {
		fn(event, session)
	}
}

// SignIn exchanges credentials for a bearer token. The server refuses
// identities without admin membership, so a successful sign-in is always
// an admin.
func (c *Client) SignIn(ctx context.Context, email, password, totpCode string) (*AuthResponse, error) {
	var resp AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", LoginRequest{
		Email:    email,
		Password: password,
		TOTPCode: totpCode,
	}, &resp)
	if err != nil {
		return nil, err
	}
	c.SetToken(resp.Token)

	session := &SessionResponse{ExpiresAt: resp.ExpiresAt}
	if resp.Admin != nil {
		session.User = &AuthUser{ID: resp.Admin.UserID, Email: resp.Admin.Email}
	}
	c.emit(EventSignedIn, session)
	return &resp, nil
}

// SignOut revokes the session server side. The local token and every
// cached query are dropped even if the server call fails.
func (c *Client) SignOut(ctx context.Context) error {
	var err error
	if c.Token() != "" {
		err = c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	}
	c.SetToken("")
	if qc := c.queryCache(); qc != nil {
		qc.Clear()
	}
	c.emit(EventSignedOut, nil)
	return err
}

// SignUp creates an auth user. With serviceRoleKey the server also creates
// the admin membership row.
func (c *Client) SignUp(ctx context.Context, req *SignupRequest, serviceRoleKey string) (*SignupResponse, error) {
	var resp SignupResponse
	headers := map[string]string{}
	if serviceRoleKey != "" {
		headers["X-Service-Role-Key"] = serviceRoleKey
	}
	if err := c.doWithHeaders(ctx, http.MethodPost, "/auth/signup", req, &resp, headers); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSession returns the live session, or nil when there is none.
func (c *Client) GetSession(ctx context.Context) (*SessionResponse, error) {
	if c.Token() == "" {
		return nil, nil
	}
	var resp SessionResponse
	err := c.do(ctx, http.MethodGet, "/auth/session", nil, &resp)
	if IsStatus(err, http.StatusUnauthorized) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetAdmin performs the admin-membership lookup for the session identity.
// It returns nil without error when the identity is not an admin.
func (c *Client) GetAdmin(ctx context.Context) (*AdminUser, error) {
	var admin AdminUser
	err := c.do(ctx, http.MethodGet, "/auth/admin", nil, &admin)
	if IsStatus(err, http.StatusNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	return c.doWithHeaders(ctx, method, path, body, out, nil)
}

func (c *Client) doWithHeaders(ctx context.Context, method, path string, body, out interface{}, headers map[string]string) error {
	data, _, err := c.raw(ctx, method, path, body, headers)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// raw performs the request and returns the body of a 2xx response.
func (c *Client) raw(ctx context.Context, method, path string, body interface{}, headers map[string]string) ([]byte, http.Header, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, decodeError(resp.StatusCode, data)
	}
	return data, resp.Header, nil
}

func decodeError(status int, data []byte) error {
	var body struct {
		Error        string       `json:"error"`
		Errors       []FieldError `json:"errors"`
		TOTPRequired bool         `json:"totp_required"`
	}
	apiErr := &APIError{Status: status}
	if json.Unmarshal(data, &body) == nil {
		apiErr.Message, apiErr.Fields = body.Error, body.Errors
		apiErr.TOTPRequired = body.TOTPRequired
	}
	if apiErr.Message == "" && len(apiErr.Fields) == 0 {
		apiErr.Message = strings.TrimSpace(string(data))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(status)
		}
	}
	return apiErr
}

func query(values map[string]string) string {
	q := url.Values{}
	for k, v := range values {
		if v != "" {
			q.Set(k, v)
		}
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}
