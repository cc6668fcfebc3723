package teamiq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// Refresher is the narrow capability the pipeline needs to recover from a
// 401: produce a fresh access token. The session controller implements it;
// the pipeline never depends on the controller itself.
type Refresher interface {
	Refresh(ctx context.Context) (string, error)
}

// Client is the authenticated request pipeline. Every call attaches the
// stored bearer token, and a 401 answer is retried exactly once after a
// refresh. Concurrent 401s coalesce onto a single in-flight refresh; all
// waiters observe the same outcome.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	store         TokenStore
	refresher     Refresher
	onAuthExpired func()
	refreshGroup  singleflight.Group
}

func NewClient(baseURL string, store TokenStore) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		store:      store,
	}
}

// SetHTTPClient replaces the underlying transport, for custom TLS setups
// and tests.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// SetRefresher injects the refresh capability invoked on a 401.
func (c *Client) SetRefresher(r Refresher) {
	c.refresher = r
}

// OnAuthExpired registers the hard-logout signal, fired when a 401 survives
// the refresh-and-retry cycle. The UI routes back to the login screen from
// here.
func (c *Client) OnAuthExpired(fn func()) {
	c.onAuthExpired = fn
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body any, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body any, out any) error {
	return c.Do(ctx, http.MethodPatch, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body any, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

// Do runs one request through the full pipeline, including the single
// refresh-and-retry on a 401.
func (c *Client) Do(ctx context.Context, method string, path string, body any, out any) error {
	return c.do(ctx, method, path, body, out, true)
}

// do is the pipeline core. The auth endpoints call it with refreshable set
// to false so a rejected login or refresh can never recurse into the
// refresh path.
func (c *Client) do(ctx context.Context, method string, path string, body any, out any, refreshable bool) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	status, data, err := c.send(ctx, method, path, payload, c.store.Get())
	if err != nil {
		return err
	}
	if status < http.StatusMultipleChoices {
		return decodeInto(data, out)
	}

	apiErr := parseAPIError(status, data)
	if status != http.StatusUnauthorized || !refreshable {
		return apiErr
	}

	// First 401 for this request: refresh once, resubmit once.
	token, refreshErr := c.refresh(ctx)
	if refreshErr != nil {
		c.expireSession()
		return fmt.Errorf("%w: %w", ErrSessionExpired, apiErr)
	}

	status, data, err = c.send(ctx, method, path, payload, token)
	if err != nil {
		return err
	}
	if status < http.StatusMultipleChoices {
		return decodeInto(data, out)
	}

	retryErr := parseAPIError(status, data)
	if status == http.StatusUnauthorized {
		// Already retried once; a second 401 is terminal.
		c.expireSession()
		return fmt.Errorf("%w: %w", ErrSessionExpired, retryErr)
	}
	return retryErr
}

// refresh coalesces concurrent refresh attempts into one network call.
func (c *Client) refresh(ctx context.Context) (string, error) {
	if c.refresher == nil {
		return "", errors.New("no refresher configured")
	}
	v, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		return c.refresher.Refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) expireSession() {
	c.store.Clear()
	if c.onAuthExpired != nil {
		c.onAuthExpired()
	}
}

// send performs a single HTTP exchange with the given bearer token and
// returns the status and raw body. Failures before a response arrives come
// back as *TransportError.
func (c *Client) send(ctx context.Context, method string, path string, payload []byte, token string) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &TransportError{Err: err}
	}
	return resp.StatusCode, data, nil
}

// envelope mirrors the server's standard response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
}

func decodeInto(data []byte, out any) error {
	if out == nil {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err == nil && env.Data != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode response data: %w", err)
		}
		return nil
	}

	// Not an envelope; take the body as the payload itself.
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseAPIError(status int, data []byte) *APIError {
	apiErr := &APIError{Status: status}

	var env envelope
	if err := json.Unmarshal(data, &env); err == nil && env.Error != nil {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
		apiErr.Details = env.Error.Details
		return apiErr
	}

	if msg := strings.TrimSpace(string(data)); msg != "" {
		apiErr.Message = msg
	} else {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
