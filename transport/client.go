// Package transport implements the outbound core for the gateway API:
// authenticated request construction, dispatch with bounded retries and
// exponential backoff, deterministic error classification, and SSE
// streaming. Higher-level packages compose typed operations on top of it.
package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/routerkit/auth"
	"github.com/kbukum/routerkit/logger"
	"github.com/kbukum/routerkit/resilience"
	"github.com/kbukum/routerkit/version"
)

const (
	headerAuthorization = "Authorization"
	headerRequestID     = "X-Request-Id"
	headerReferer       = "HTTP-Referer"
	headerTitle         = "X-Title"
)

// Request describes one gateway call. Body may be nil, a []byte,
// a json.RawMessage, a string, an io.Reader, or any JSON-marshalable
// value; it is encoded once and replayed unchanged on every attempt.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Headers map[string]string
	Body    any
}

// Response is a completed non-streaming exchange with a success status.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	RequestID  string
}

// Client dispatches requests to the gateway. It is safe for concurrent
// use. Construct with New; the zero value is not usable.
type Client struct {
	config     Config
	httpClient *http.Client
	log        *logger.Logger
	tel        *telemetry
}

// Option customizes a Client beyond its Config.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client. The caller owns
// its timeout; RequestTimeout is not applied on top.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger routes transport diagnostics to the given logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log.WithComponent("transport")
		}
	}
}

// New validates the configuration and returns a ready client. Invalid
// settings fail here with a configuration error, before any request.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = version.UserAgent()
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	c := &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		log: log.WithComponent("transport"),
		tel: newTelemetry(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Configuration returns a copy of the client configuration.
func (c *Client) Configuration() Config {
	return c.config
}

// Close releases idle connections. The client must not be used after.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// Do executes a request and returns the raw success response. Failures
// are always classified: the returned error is a *Error whose Kind
// drives handling. Retryable failures are re-attempted with exponential
// backoff up to the configured budget; the final error of an exhausted
// budget is the last attempt's error, unchanged.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	ctx, span := c.tel.start(ctx, "transport.Do", req.Method, req.Path)
	defer span.End()

	// The credential is resolved once per call, before any network I/O,
	// so an unavailable credential fails immediately and is never retried.
	authName, authValue, authErr := c.authHeader(ctx)
	if authErr != nil {
		c.tel.end(ctx, span, req, 0, 0, authErr, start)
		return nil, authErr
	}

	body, contentType, encErr := encodeBody(req.Body)
	if encErr != nil {
		c.tel.end(ctx, span, req, 0, 0, encErr, start)
		return nil, encErr
	}

	requestID := uuid.NewString()
	attempts := 0

	resp, err := resilience.Do(ctx, resilience.Config{
		Enabled:    c.config.EnableRetry,
		MaxRetries: c.config.MaxRetryAttempts,
		BaseDelay:  c.config.RetryDelay,
		RetryIf:    IsRetryable,
		OnRetry: func(attempt int, delay time.Duration, lastErr error) {
			c.log.Warn("retrying request", logger.Fields(
				logger.FieldMethod, req.Method,
				logger.FieldPath, req.Path,
				logger.FieldRequestID, requestID,
				logger.FieldAttempt, attempt,
				logger.FieldDelay, delay.Milliseconds(),
				logger.FieldError, lastErr.Error(),
			))
		},
	}, func(ctx context.Context) (*Response, error) {
		attempts++
		return c.attempt(ctx, req, body, contentType, authName, authValue, requestID)
	})
	if err != nil {
		// The retry loop surfaces context errors from waits as-is.
		var terr *Error
		if !errors.As(err, &terr) {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				terr = NewTimeoutError(c.config.Timeout, err)
			} else {
				terr = NewNetworkError(err)
			}
		}
		if terr.RequestID == "" {
			terr.RequestID = requestID
		}
		c.tel.end(ctx, span, req, terr.StatusCode, attempts, terr, start)
		return nil, terr
	}

	c.log.Debug("request complete", logger.Fields(
		logger.FieldMethod, req.Method,
		logger.FieldPath, req.Path,
		logger.FieldRequestID, resp.RequestID,
		logger.FieldStatus, resp.StatusCode,
		logger.FieldAttempt, attempts,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	c.tel.end(ctx, span, req, resp.StatusCode, attempts, nil, start)
	return resp, nil
}

// Do executes a request via c and decodes the JSON success body into T.
// A body that does not decode into T yields a serialization error
// carrying the raw payload; it is not retried.
func Do[T any](ctx context.Context, c *Client, req Request) (T, error) {
	var out T
	resp, err := c.Do(ctx, req)
	if err != nil {
		return out, err
	}
	if len(resp.Body) == 0 {
		return out, nil
	}
	if derr := decodeJSON(resp.Body, &out); derr != nil {
		derr.RequestID = resp.RequestID
		return out, derr
	}
	return out, nil
}

// attempt performs a single HTTP exchange. Each attempt builds a fresh
// *http.Request so the body reader and headers are never reused across
// tries.
func (c *Client) attempt(ctx context.Context, req Request, body []byte, contentType, authName, authValue, requestID string) (*Response, error) {
	httpReq, err := c.buildRequest(ctx, req, body, contentType, authName, authValue, requestID)
	if err != nil {
		return nil, err
	}

	httpResp, doErr := c.httpClient.Do(httpReq)
	if doErr != nil {
		return nil, c.mapAttemptError(ctx, doErr)
	}
	defer httpResp.Body.Close()

	data, readErr := io.ReadAll(httpResp.Body)
	if readErr != nil {
		return nil, c.mapAttemptError(ctx, readErr)
	}

	rid := httpResp.Header.Get(headerRequestID)
	if rid == "" {
		rid = requestID
	}

	if terr := Classify(httpResp.StatusCode, data, httpResp.Header); terr != nil {
		terr.RequestID = rid
		return nil, terr
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    flattenHeader(httpResp.Header),
		Body:       data,
		RequestID:  rid,
	}, nil
}

// buildRequest assembles the outgoing *http.Request: URL join, default
// headers, configured headers, per-request headers, then the credential,
// in that order so nothing can clobber the credential.
func (c *Client) buildRequest(ctx context.Context, req Request, body []byte, contentType, authName, authValue, requestID string) (*http.Request, *Error) {
	u := strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, reader)
	if err != nil {
		return nil, NewConfigurationError("method", err.Error())
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.config.UserAgent)
	httpReq.Header.Set(headerRequestID, requestID)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if c.config.Referer != "" {
		httpReq.Header.Set(headerReferer, c.config.Referer)
	}
	if c.config.Title != "" {
		httpReq.Header.Set(headerTitle, c.config.Title)
	}
	for k, v := range c.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if authName != "" {
		httpReq.Header.Set(authName, authValue)
	}
	return httpReq, nil
}

// authHeader resolves the configured credential into a header name and
// value. A nil provider means unauthenticated requests.
func (c *Client) authHeader(ctx context.Context) (string, string, *Error) {
	p := c.config.Auth
	if p == nil {
		return "", "", nil
	}
	value, err := p.Value(ctx)
	if err != nil {
		return "", "", newAuthError(err)
	}
	name := headerAuthorization
	if hp, ok := p.(auth.HeaderProvider); ok && hp.HeaderName() != "" {
		name = hp.HeaderName()
	}
	if scheme := p.Scheme(); scheme != "" {
		value = scheme + " " + value
	}
	return name, value, nil
}

// mapAttemptError classifies a transport-level failure from one attempt.
func (c *Client) mapAttemptError(ctx context.Context, err error) *Error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return NewTimeoutError(c.config.Timeout, ctxErr)
	}
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return NewTimeoutError(c.config.RequestTimeout, err)
	}
	return NewNetworkError(err)
}

func flattenHeader(h http.Header) map[string]string {
	m := make(map[string]string, len(h))
	for k := range h {
		m[k] = h.Get(k)
	}
	return m
}
