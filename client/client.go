// Package client is a Go client for the todoer HTTP API. It keeps
// outbound calls authenticated despite short-lived access tokens:
// a 401 triggers a token refresh, concurrent refreshes coalesce into a
// single network call, and refresh failure clears credentials and
// invokes the configured auth-failure handler (fail closed).
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// defaultTimeout is the transport-level timeout on outbound calls.
const defaultTimeout = 30 * time.Second

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client is a concurrency-safe API client instance. There is no
// package-level state; credentials live on the instance.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	onAuthFailure func()

	mu           sync.Mutex
	accessToken  string
	refreshToken string

	// refreshGroup collapses concurrent refresh attempts into exactly
	// one network call; every waiter receives the same result.
	refreshGroup singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (e.g. a test
// transport).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAuthFailureHandler sets a callback invoked once per failed refresh
// after credentials are cleared. Typically forces re-login.
func WithAuthFailureHandler(fn func()) Option {
	return func(c *Client) { c.onAuthFailure = fn }
}

// New builds a Client for the given base URL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetTokens stores the credential pair used for subsequent calls.
func (c *Client) SetTokens(access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = access
	c.refreshToken = refresh
}

// AccessToken returns the currently stored access token.
func (c *Client) AccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

func (c *Client) currentTokens() (access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

func (c *Client) clearTokens() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = ""
	c.refreshToken = ""
}

// Do executes one API call. On a 401 it refreshes the access token and
// retries the request exactly once; a second 401 is surfaced to the
// caller. Failures other than 401 are never retried here.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
	}

	access, _ := c.currentTokens()
	resp, err := c.send(ctx, method, path, payload, access)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)

		newAccess, err := c.refreshAccessToken(ctx)
		if err != nil {
			return err
		}

		resp, err = c.send(ctx, method, path, payload, newAccess)
		if err != nil {
			return err
		}
	}

	return decode(resp, out)
}

// send issues a single HTTP request tagged with the given access token.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, access string) (*http.Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// refreshAccessToken exchanges the stored refresh token for a new access
// token. Concurrent callers share one in-flight network call; all of
// them receive the same new token or the same error. On failure the
// stored credentials are cleared and the auth-failure handler fires
// exactly once before the error fans out to every waiter.
func (c *Client) refreshAccessToken(ctx context.Context) (string, error) {
	v, err, _ := c.refreshGroup.Do("refresh", func() (interface{}, error) {
		token, err := c.doRefresh(ctx)
		if err != nil {
			c.clearTokens()
			if c.onAuthFailure != nil {
				c.onAuthFailure()
			}
			return nil, err
		}
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// doRefresh performs the actual refresh network call and stores the new
// access token.
func (c *Client) doRefresh(ctx context.Context) (string, error) {
	_, refresh := c.currentTokens()
	if refresh == "" {
		return "", &APIError{Status: http.StatusUnauthorized, Message: "no refresh token"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/auth/access-token", nil)
	if err != nil {
		return "", fmt.Errorf("building refresh request: %w", err)
	}
	req.Header.Set("x-refresh-token", refresh)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("refreshing access token: %w", err)
	}

	var body struct {
		AccessToken string `json:"accessToken"`
	}
	if err := decode(resp, &body); err != nil {
		return "", err
	}

	c.mu.Lock()
	c.accessToken = body.AccessToken
	c.mu.Unlock()

	return body.AccessToken, nil
}

// decode reads the response body into out, converting non-2xx statuses
// into an APIError.
func decode(resp *http.Response, out interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(resp.Body)
		message := http.StatusText(resp.StatusCode)
		if json.Unmarshal(data, &errBody) == nil && errBody.Error != "" {
			message = errBody.Error
		}
		return &APIError{Status: resp.StatusCode, Message: message}
	}

	if out == nil {
		drain(resp)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// drain discards and closes the response body so the connection can be
// reused.
func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
