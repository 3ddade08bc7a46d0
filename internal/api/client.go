// Package api is the HTTP client for the curation bot backend. Every call
// returns a normalized Result instead of an error: up to three attempts with
// a fixed pause between them, every kind of failure treated the same.
package api

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

	"cur8/internal/logging"

	"github.com/google/uuid"
)

const (
	DefaultAttempts = 3
	DefaultDelay    = 1000 * time.Millisecond
	DefaultTimeout  = 30 * time.Second
)

// ErrRequestFailed wraps every failed Result converted with Err.
var ErrRequestFailed = errors.New("request failed")

// Result is the normalized outcome of a request.
type Result struct {
	OK       bool
	Data     json.RawMessage
	Error    string
	Status   int
	Attempts int
}

// Decode unmarshals the response body into v.
func (r Result) Decode(v any) error {
	if !r.OK {
		return r.Err()
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Err returns nil for a successful result, otherwise an error wrapping
// ErrRequestFailed.
func (r Result) Err() error {
	if r.OK {
		return nil
	}
	return fmt.Errorf("%w after %d attempt(s): %s", ErrRequestFailed, r.Attempts, r.Error)
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	Attempts   int
	Delay      time.Duration
	HTTPClient *http.Client
}

// DefaultConfig returns the standard retry policy for baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:  baseURL,
		Timeout:  DefaultTimeout,
		Attempts: DefaultAttempts,
		Delay:    DefaultDelay,
	}
}

// Client talks to the bot backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	attempts   int
	delay      time.Duration
	newID      func() string
}

// New creates a client. Unset Attempts and Timeout fall back to the defaults;
// a zero Delay retries without pausing.
func New(cfg Config) *Client {
	if cfg.Attempts < 1 {
		cfg.Attempts = DefaultAttempts
	}
	if cfg.Delay < 0 {
		cfg.Delay = DefaultDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: hc,
		attempts:   cfg.Attempts,
		delay:      cfg.Delay,
		newID:      uuid.NewString,
	}
}

// BaseURL returns the backend root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

var allowedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
}

// Do sends a JSON request and retries on any failure. It never panics and
// never returns an error: the outcome is always a Result. Cancelling ctx
// ends the current attempt and skips the remaining ones.
func (c *Client) Do(ctx context.Context, method, path string, body any) Result {
	if !allowedMethods[method] {
		return Result{Error: fmt.Sprintf("unsupported method %q", method)}
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return Result{Error: fmt.Sprintf("failed to marshal request: %v", err)}
		}
	}

	reqID := c.newID()
	log := logging.WithRequestID(logging.CategoryAPI, reqID)
	url := c.baseURL + path

	var lastErr error
	var lastStatus int
	attempt := 0
	for attempt < c.attempts {
		if attempt > 0 {
			if !sleepCtx(ctx, c.delay) {
				lastErr = fmt.Errorf("cancelled: %w", ctx.Err())
				break
			}
		}
		attempt++

		data, status, err := c.once(ctx, method, url, reqID, payload)
		lastStatus = status
		if err == nil {
			log.Debug("%s %s ok (attempt %d/%d)", method, path, attempt, c.attempts)
			return Result{OK: true, Data: data, Status: status, Attempts: attempt}
		}
		lastErr = err
		log.Warn("%s %s attempt %d/%d failed: %v", method, path, attempt, c.attempts, err)
		if ctx.Err() != nil {
			break
		}
	}

	return Result{Error: lastErr.Error(), Status: lastStatus, Attempts: attempt}
}

// once performs a single attempt.
func (c *Client) once(ctx context.Context, method, url, reqID string, payload []byte) (json.RawMessage, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, fmt.Errorf("HTTP %d: %s", resp.StatusCode, serverMessage(raw))
	}

	if !json.Valid(raw) {
		return nil, resp.StatusCode, fmt.Errorf("malformed JSON response (%d bytes)", len(raw))
	}
	return json.RawMessage(raw), resp.StatusCode, nil
}

// serverMessage extracts {"error": ...} or {"message": ...} from a failed
// response, falling back to the trimmed body.
func serverMessage(raw []byte) string {
	var m struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &m) == nil {
		if m.Error != "" {
			return m.Error
		}
		if m.Message != "" {
			return m.Message
		}
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	if s == "" {
		return "empty body"
	}
	return s
}

// sleepCtx waits for d or until ctx is done. It reports whether the full
// delay elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
