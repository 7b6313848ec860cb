package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const refreshCookieName = "refreshToken"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

// Client talks to the timeclock API. Requests that fail with 401 go through
// the RefreshCoordinator and are replayed once with the renewed token.
type Client struct {
	baseURL     string
	http        *http.Client
	creds       CredentialStore
	coordinator *RefreshCoordinator
}

type Option func(*clientOptions)

type clientOptions struct {
	httpClient     *http.Client
	creds          CredentialStore
	refreshTimeout time.Duration
}

func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = hc }
}

func WithCredentials(creds CredentialStore) Option {
	return func(o *clientOptions) { o.creds = creds }
}

// WithRefreshTimeout bounds a single rotation call.
func WithRefreshTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.refreshTimeout = d }
}

func New(baseURL string, opts ...Option) *Client {
	o := clientOptions{
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		creds:          NewMemoryCredentials(),
		refreshTimeout: defaultRefreshTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    o.httpClient,
		creds:   o.creds,
	}
	c.coordinator = NewRefreshCoordinator(o.creds, c.rotate, o.refreshTimeout)
	return c
}

func (c *Client) Credentials() CredentialStore {
	return c.creds
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (Account, error) {
	var resp struct {
		Token string  `json:"token"`
		User  Account `json:"user"`
	}
	if _, err := c.send(ctx, http.MethodPost, "/api/auth/register", req, "", &resp); err != nil {
		return Account{}, err
	}
	return resp.User, nil
}

// Login stores the new session in the credential store. The refresh token is
// taken from the body when the server exposes it, otherwise from the cookie.
func (c *Client) Login(ctx context.Context, email string, password string) (Account, error) {
	var resp struct {
		AccessToken  string  `json:"accessToken"`
		RefreshToken string  `json:"refreshToken"`
		User         Account `json:"user"`
	}
	httpResp, err := c.send(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "", &resp)
	if err != nil {
		return Account{}, err
	}

	refresh := resp.RefreshToken
	if refresh == "" {
		refresh = cookieValue(httpResp, refreshCookieName)
	}
	c.creds.Set(resp.AccessToken, refresh)
	return resp.User, nil
}

// Logout revokes the session server side and always clears local credentials.
func (c *Client) Logout(ctx context.Context) error {
	refresh := c.creds.RefreshToken()
	defer c.creds.Clear()

	_, err := c.send(ctx, http.MethodPost, "/api/auth/logout", map[string]string{"refreshToken": refresh}, "", nil)
	return err
}

func (c *Client) Me(ctx context.Context) (Account, error) {
	var out Account
	err := c.Do(ctx, http.MethodGet, "/api/auth/me", nil, &out)
	return out, err
}

func (c *Client) Managers(ctx context.Context) ([]Manager, error) {
	var out []Manager
	_, err := c.send(ctx, http.MethodGet, "/api/employees/managers", nil, "", &out)
	return out, err
}

func (c *Client) ClockIn(ctx context.Context, note string) (Record, error) {
	var out Record
	err := c.Do(ctx, http.MethodPost, "/api/employees/clock-in", map[string]string{"notes": note}, &out)
	return out, err
}

func (c *Client) ClockOut(ctx context.Context, note string) (Record, error) {
	var out Record
	err := c.Do(ctx, http.MethodPost, "/api/employees/clock-out", map[string]string{"notes": note}, &out)
	return out, err
}

func (c *Client) Status(ctx context.Context) (ClockStatus, error) {
	var out ClockStatus
	err := c.Do(ctx, http.MethodGet, "/api/employees/status", nil, &out)
	return out, err
}

func (c *Client) Records(ctx context.Context) ([]Record, error) {
	var out []Record
	err := c.Do(ctx, http.MethodGet, "/api/employees/records", nil, &out)
	return out, err
}

func (c *Client) TeamRecords(ctx context.Context) ([]TeamRecord, error) {
	var out []TeamRecord
	err := c.Do(ctx, http.MethodGet, "/api/employees/team-records", nil, &out)
	return out, err
}

func (c *Client) Approve(ctx context.Context, recordID int64) (Record, error) {
	var out Record
	path := "/api/employees/records/" + strconv.FormatInt(recordID, 10) + "/approve"
	err := c.Do(ctx, http.MethodPut, path, nil, &out)
	return out, err
}

func (c *Client) Reject(ctx context.Context, recordID int64, note string) (Record, error) {
	var out Record
	path := "/api/employees/records/" + strconv.FormatInt(recordID, 10) + "/reject"
	err := c.Do(ctx, http.MethodPut, path, map[string]string{"notes": note}, &out)
	return out, err
}

// Do sends an authenticated request and decodes the envelope's data into out.
// On 401 it asks the coordinator for a renewed token and replays the request
// once; a second 401 surfaces as ErrSessionExpired.
func (c *Client) Do(ctx context.Context, method string, path string, body any, out any) error {
	token := c.creds.AccessToken()
	if token == "" {
		return ErrSessionExpired
	}

	_, err := c.send(ctx, method, path, body, token, out)
	if !isUnauthorized(err) {
		return err
	}

	renewed, err := c.coordinator.OnAuthFailure(ctx, token)
	if err != nil {
		return err
	}

	_, err = c.send(ctx, method, path, body, renewed, out)
	if isUnauthorized(err) {
		return fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}
	return err
}

func (c *Client) rotate(ctx context.Context, refreshToken string) (Tokens, error) {
	var resp struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	httpResp, err := c.send(ctx, http.MethodPost, "/api/auth/refreshToken", map[string]string{"refreshToken": refreshToken}, "", &resp)
	if err != nil {
		return Tokens{}, err
	}

	refresh := resp.RefreshToken
	if refresh == "" {
		refresh = cookieValue(httpResp, refreshCookieName)
	}
	return Tokens{AccessToken: resp.AccessToken, RefreshToken: refresh}, nil
}

// send performs one round trip. The body is marshalled per call so a replay
// carries identical bytes.
func (c *Client) send(ctx context.Context, method string, path string, body any, token string, out any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&env); err != nil {
		if resp.StatusCode >= 300 {
			return resp, &APIError{Status: resp.StatusCode, Code: http.StatusText(resp.StatusCode), Message: "unreadable error body"}
		}
		return resp, fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode >= 300 || !env.Success {
		apiErr := env.Error
		if apiErr == nil {
			apiErr = &APIError{Code: http.StatusText(resp.StatusCode)}
		}
		apiErr.Status = resp.StatusCode
		return resp, apiErr
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return resp, fmt.Errorf("decode data: %w", err)
		}
	}
	return resp, nil
}

func isUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

func cookieValue(resp *http.Response, name string) string {
	if resp == nil {
		return ""
	}
	for _, cookie := range resp.Cookies() {
		if cookie.Name == name {
			return cookie.Value
		}
	}
	return ""
}
