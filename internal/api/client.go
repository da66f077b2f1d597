// internal/api/client.go
//
// Client is the RemoteStateClient: one authenticated HTTP round trip per
// logical operation. It never retries and never consults the cache; retry
// and fallback policy belong to internal/reconcile.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Client issues requests against the Learning Path Generator backend.
type Client struct {
	base string
	http *http.Client
	log  *zap.Logger

	tokenFn        func() string
	unauthorizedFn func()
}

// Option customizes Client construction, mainly for tests.
type Option func(*Client)

// WithHTTPClient swaps the underlying transport.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// New returns a client for the given base URL ("http://host:port/api").
func New(baseURL string, timeout time.Duration, log *zap.Logger, opts ...Option) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
		log:  log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetTokenFunc installs the bearer-token source. The function is consulted
// on every request so login/logout take effect without rewiring.
func (c *Client) SetTokenFunc(fn func() string) { c.tokenFn = fn }

// SetUnauthorizedHook installs the session-teardown hook fired on a 401
// outside the auth endpoints.
func (c *Client) SetUnauthorizedHook(fn func()) { c.unauthorizedFn = fn }

// serverError is the error body shape the backend uses; field names vary.
type serverError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (s serverError) text() string {
	if s.Message != "" {
		return s.Message
	}
	return s.Error
}

// do performs one round trip: marshal body, attach bearer token and request
// id, classify the outcome, decode into out. Exactly one log line is written
// per request/response pair.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	raw, err := c.doRaw(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Kind: KindTransport, Message: fmt.Sprintf("decode %s %s: %v", method, path, err)}
	}
	return nil
}

// doRaw is do without the response decode, for binary payloads (CSV export).
func (c *Client) doRaw(ctx context.Context, method, path string, body any) ([]byte, error) {
	reqID := uuid.NewString()

	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Kind: KindValidation, Message: fmt.Sprintf("encode request: %v", err)}
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reqBody)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if c.tokenFn != nil {
		if token := c.tokenFn(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("request failed",
			zap.String("request_id", reqID),
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, &Error{Kind: KindTransport, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(resp.Body)

	apiErr := c.classify(path, resp.StatusCode, raw)
	c.logRoundTrip(reqID, method, path, resp.StatusCode, time.Since(start), apiErr)
	if apiErr != nil {
		return nil, apiErr
	}
	if readErr != nil {
		return nil, &Error{Kind: KindTransport, Message: fmt.Sprintf("read response: %v", readErr)}
	}
	return raw, nil
}

func (c *Client) logRoundTrip(reqID, method, path string, status int, elapsed time.Duration, apiErr *Error) {
	fields := []zap.Field{
		zap.String("request_id", reqID),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.Duration("elapsed", elapsed),
	}
	if apiErr != nil {
		fields = append(fields, zap.String("error_kind", apiErr.Kind.String()))
		c.log.Warn("request completed", fields...)
		return
	}
	c.log.Info("request completed", fields...)
}

// classify maps an HTTP status to the error taxonomy, or nil for success.
// A 401 outside the /auth/ family fires the session-teardown hook; a 401 on
// login is just bad credentials and the session (if any) stays up.
func (c *Client) classify(path string, status int, body []byte) *Error {
	if status >= 200 && status < 300 {
		return nil
	}

	var se serverError
	_ = json.Unmarshal(body, &se)
	msg := se.text()
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch {
	case status == http.StatusUnauthorized:
		if !strings.HasPrefix(path, "/auth/") && c.unauthorizedFn != nil {
			c.unauthorizedFn()
		}
		return &Error{Kind: KindUnauthorized, Status: status, Message: msg}
	case status == http.StatusForbidden:
		return &Error{Kind: KindForbidden, Status: status, Message: msg}
	case status == http.StatusNotFound:
		return &Error{Kind: KindNotFound, Status: status, Message: msg}
	case status == http.StatusBadRequest:
		return &Error{Kind: KindValidation, Status: status, Message: msg}
	default:
		return &Error{Kind: KindTransport, Status: status, Message: msg}
	}
}
