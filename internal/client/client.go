// Package client submits task text to a voicetask server, running the
// validator and the submission throttle locally first.
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

	"github.com/fyrsmithlabs/voicetask/internal/config"
	api "github.com/fyrsmithlabs/voicetask/internal/http"
	"github.com/fyrsmithlabs/voicetask/internal/sanitize"
	"github.com/fyrsmithlabs/voicetask/internal/service"
	"github.com/fyrsmithlabs/voicetask/internal/task"
	"github.com/fyrsmithlabs/voicetask/internal/throttle"
)

const processInputPath = "/api/v1/nlp/process-input"

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 1 << 20

var (
	// ErrUnauthorized is returned when the server rejects the credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrProcessingFailed is the single user-facing error for transport
	// failures and server-side 5xx responses.
	ErrProcessingFailed = errors.New("processing failed")
)

// Client calls processInput on a voicetask server.
type Client struct {
	baseURL    string
	token      config.Secret
	httpClient *http.Client
	rules      sanitize.InputRules
	gate       *throttle.Gate
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRules sets the local validator bounds.
func WithRules(r sanitize.InputRules) Option {
	return func(c *Client) { c.rules = r }
}

// WithWindow sets the minimum interval between submissions.
func WithWindow(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.gate = throttle.NewGate(d)
		}
	}
}

// WithClock sets the clock used by the throttle.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a client for the server at baseURL.
func New(baseURL string, token config.Secret, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		rules: sanitize.DefaultInputRules(),
		gate:  throttle.NewGate(throttle.DefaultWindow),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Validate runs the local validator without submitting.
func (c *Client) Validate(text string) sanitize.ValidationResult {
	return c.rules.Validate(text)
}

// CanSubmit reports the throttle decision for a submission right now.
func (c *Client) CanSubmit() throttle.Decision {
	return c.gate.Peek(c.now())
}

// Submit validates text locally, applies the throttle and calls
// processInput.
//
// Errors:
//   - *service.ValidationError when local or server validation fails
//   - *service.ThrottleError when called within the window
//   - ErrUnauthorized for 401 responses
//   - ErrProcessingFailed for transport failures and other responses
func (c *Client) Submit(ctx context.Context, text string, source task.Source) (*service.Response, error) {
	v := c.rules.Validate(text)
	if !v.Valid {
		return nil, &service.ValidationError{Errors: v.Errors, Warnings: v.Warnings}
	}

	d, release := c.gate.Acquire(c.now())
	if !d.Allowed {
		return nil, &service.ThrottleError{RetryAfter: d.RetryAfter}
	}

	resp, err := c.processInput(ctx, api.ProcessInputRequest{InputText: text, Source: string(source)})
	if err != nil {
		release()
		return nil, err
	}
	return resp, nil
}

func (c *Client) processInput(ctx context.Context, body api.ProcessInputRequest) (*service.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+processInputPath, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token.IsSet() {
		httpReq.Header.Set("Authorization", "Bearer "+c.token.Value())
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProcessingFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", ErrProcessingFailed, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var out service.Response
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("%w: failed to parse response: %w", ErrProcessingFailed, err)
		}
		return &out, nil
	case http.StatusBadRequest:
		errResp := decodeError(data)
		if len(errResp.Errors) == 0 && errResp.Error != "" {
			errResp.Errors = []string{errResp.Error}
		}
		return nil, &service.ValidationError{Errors: errResp.Errors, Warnings: errResp.Warnings}
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, &service.ThrottleError{RetryAfter: retryAfter(resp.Header, decodeError(data))}
	default:
		return nil, fmt.Errorf("%w: server returned %d", ErrProcessingFailed, resp.StatusCode)
	}
}

// Health fetches GET /health.
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("health request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	var out api.HealthResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to parse health response: %w", err)
	}
	return &out, nil
}

func decodeError(data []byte) api.ErrorResponse {
	var errResp api.ErrorResponse
	_ = json.Unmarshal(data, &errResp)
	return errResp
}

func retryAfter(h http.Header, errResp api.ErrorResponse) time.Duration {
	if errResp.RetryAfterSeconds > 0 {
		return time.Duration(errResp.RetryAfterSeconds) * time.Second
	}
	if secs, err := strconv.Atoi(h.Get("Retry-After")); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return time.Second
}
