// Package client implements the resilient access layer for the remote
// identity-verification API: bearer-token handling, retry policy, and
// response classification.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/biometriqa/harness/internal/config"
	"github.com/biometriqa/harness/internal/domain"
)

const (
	defaultMaxRetries = 3
	defaultRetryDelay = time.Second
	defaultTimeout    = 30 * time.Second
)

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client. The per-request timeout is taken
// from it as-is.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithMaxRetries sets the attempt ceiling for 5xx and transport failures.
// The count covers total attempts, so 1 disables retrying; values below 1
// are clamped to 1.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n < 1 {
			n = 1
		}
		c.maxRetries = n
	}
}

// WithRetryDelay sets the fixed delay between retry attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.retryDelay = d
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTokenCache replaces the token cache, mainly for tests.
func WithTokenCache(tokens *TokenCache) Option {
	return func(c *Client) {
		c.tokens = tokens
	}
}

// RequestSpec describes one logical API call. Immutable value created per
// call.
type RequestSpec struct {
	Method      string
	Path        string
	Query       url.Values
	Body        any
	Headers     map[string]string
	WantsAPIKey bool

	// NoAuth skips the Authorization header, used for unauthenticated
	// probes like the health check.
	NoAuth bool

	// NoRetry disables the retry loop for this call.
	NoRetry bool
}

// Outcome is the collapsed result of one logical call after internal retries.
type Outcome struct {
	StatusCode int
	// JSON holds the decoded body when it parsed as a JSON object.
	JSON map[string]any
	// Raw holds the body verbatim when it was not a JSON object. The
	// analysis layer degrades gracefully rather than failing hard.
	Raw      string
	Elapsed  time.Duration
	Attempts int
}

// OK reports whether the status code is 2xx.
func (o *Outcome) OK() bool {
	return o.StatusCode >= 200 && o.StatusCode < 300
}

// Lookup traverses nested JSON objects by key, returning false when any hop
// is absent or not an object.
func (o *Outcome) Lookup(keys ...string) (any, bool) {
	var current any = o.JSON
	for _, key := range keys {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// StringAt returns the JSON field at the nested key path as a string, or ""
// when absent or not a string.
func (o *Outcome) StringAt(keys ...string) string {
	v, ok := o.Lookup(keys...)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Client executes authenticated requests against the identity API with a
// fixed-delay retry policy. One Client is constructed at startup and passed
// to all callers; there is no process-wide singleton.
type Client struct {
	cred       config.APIConfig
	httpClient *http.Client
	tokens     *TokenCache
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

// New creates a client for the given credentials.
func New(cred config.APIConfig, opts ...Option) *Client {
	c := &Client{
		cred: cred,
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tokens == nil {
		c.tokens = NewTokenCache(cred, c.httpClient, c.logger)
	}
	return c
}

// FromConfig creates a client wired from the full harness configuration.
func FromConfig(cfg *config.Config, logger *slog.Logger) *Client {
	httpClient := &http.Client{
		Timeout:   cfg.HTTP.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	return New(cfg.API,
		WithHTTPClient(httpClient),
		WithMaxRetries(cfg.HTTP.MaxRetries),
		WithRetryDelay(cfg.HTTP.RetryDelay),
		WithLogger(logger),
	)
}

// Tokens exposes the token cache so callers can invalidate it explicitly.
func (c *Client) Tokens() *TokenCache {
	return c.tokens
}

// Do executes the request described by spec.
//
// Responses below 500 are returned immediately as inspectable outcomes, 4xx
// included. 5xx responses and transport failures are retried up to the
// configured ceiling with a fixed delay; a persistent 5xx is still returned
// as an outcome for inspection, while a persistent transport failure is
// raised.
func (c *Client) Do(ctx context.Context, spec RequestSpec) (*Outcome, error) {
	endpoint, err := c.buildURL(spec)
	if err != nil {
		return nil, err
	}

	var body []byte
	if spec.Body != nil {
		body, err = json.Marshal(spec.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	attempts := c.maxRetries
	if spec.NoRetry {
		attempts = 1
	}

	start := time.Now()
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := c.send(ctx, spec, endpoint, body)
		if err != nil {
			lastErr = err
			if attempt < attempts {
				c.logger.Warn("request failed, retrying",
					slog.String("method", spec.Method),
					slog.String("path", spec.Path),
					slog.String("error", err.Error()),
					slog.Int("attempt", attempt),
					slog.Int("max_retries", attempts),
				)
				if err := c.wait(ctx); err != nil {
					return nil, err
				}
				continue
			}
			c.logger.Error("request failed after retries",
				slog.String("method", spec.Method),
				slog.String("path", spec.Path),
				slog.String("error", err.Error()),
			)
			return nil, domain.ErrTransport(
				fmt.Sprintf("%s %s failed after %d attempts", spec.Method, spec.Path, attempt), err)
		}

		outcome, err := c.collect(resp, attempt, start)
		if err != nil {
			return nil, err
		}

		if outcome.StatusCode == http.StatusUnauthorized && !spec.NoAuth {
			// Token no longer accepted; the next call re-exchanges.
			c.tokens.Invalidate()
		}

		if outcome.StatusCode < 500 {
			return outcome, nil
		}

		if attempt < attempts {
			c.logger.Warn("server error, retrying",
				slog.String("method", spec.Method),
				slog.String("path", spec.Path),
				slog.Int("status", outcome.StatusCode),
				slog.Int("attempt", attempt),
				slog.Int("max_retries", attempts),
			)
			if err := c.wait(ctx); err != nil {
				return nil, err
			}
			continue
		}

		// Exhausted retries on 5xx: return the last response so the
		// caller can still inspect and report it.
		c.logger.Error("server error after retries",
			slog.String("method", spec.Method),
			slog.String("path", spec.Path),
			slog.Int("status", outcome.StatusCode),
		)
		return outcome, nil
	}

	return nil, domain.ErrTransport(
		fmt.Sprintf("%s %s failed unexpectedly", spec.Method, spec.Path), lastErr)
}

// Get executes a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Outcome, error) {
	return c.Do(ctx, RequestSpec{
		Method:      http.MethodGet,
		Path:        path,
		Query:       query,
		WantsAPIKey: true,
	})
}

// Post executes a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Outcome, error) {
	return c.Do(ctx, RequestSpec{
		Method:      http.MethodPost,
		Path:        path,
		Body:        body,
		WantsAPIKey: true,
	})
}

// Health probes the API health endpoint without auth or retries.
func (c *Client) Health(ctx context.Context) bool {
	outcome, err := c.Do(ctx, RequestSpec{
		Method:  http.MethodGet,
		Path:    "/health",
		NoAuth:  true,
		NoRetry: true,
	})
	if err != nil {
		c.logger.Error("health check failed", slog.String("error", err.Error()))
		return false
	}
	return outcome.OK()
}

func (c *Client) send(ctx context.Context, spec RequestSpec, endpoint string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, spec.Method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if spec.WantsAPIKey && c.cred.APIKey != "" {
		req.Header.Set("apikey", c.cred.APIKey)
	}
	for key, value := range spec.Headers {
		req.Header.Set(key, value)
	}

	if !spec.NoAuth && c.cred.HasOAuth() {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.httpClient.Do(req)
}

// collect reads the response into an Outcome. A body that is not a JSON
// object is surfaced as raw text rather than an error.
func (c *Client) collect(resp *http.Response, attempt int, start time.Time) (*Outcome, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.ErrTransport("read response body", err)
	}

	outcome := &Outcome{
		StatusCode: resp.StatusCode,
		Elapsed:    time.Since(start),
		Attempts:   attempt,
	}

	if len(body) > 0 {
		var decoded map[string]any
		if err := json.Unmarshal(body, &decoded); err == nil {
			outcome.JSON = decoded
		} else {
			outcome.Raw = string(body)
		}
	}

	return outcome, nil
}

func (c *Client) wait(ctx context.Context) error {
	timer := time.NewTimer(c.retryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return domain.ErrTransport("request cancelled", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (c *Client) buildURL(spec RequestSpec) (string, error) {
	if c.cred.BaseURL == "" {
		return "", domain.ErrConfiguration("base URL not configured")
	}
	endpoint := strings.TrimSuffix(c.cred.BaseURL, "/") + "/" + strings.TrimPrefix(spec.Path, "/")
	if len(spec.Query) > 0 {
		endpoint += "?" + spec.Query.Encode()
	}
	return endpoint, nil
}
