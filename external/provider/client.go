// Package provider is the shared HTTP client behind every upstream data
// provider: auth injection, status mapping and JSON decoding. It does not
// cache or retry; callers own their retry policy.
package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/riskibarqy/fixture-sync/internal/platform/logging"
	"github.com/riskibarqy/fixture-sync/internal/platform/resilience"
)

const (
	DefaultUserAgent = "fixture-sync/1.0 (+https://github.com/riskibarqy/fixture-sync)"
	maxBodyBytes     = 6 << 20
)

// ErrUnavailable is returned while the circuit breaker rejects calls.
var ErrUnavailable = crerr.New("provider temporarily unavailable")

type Config struct {
	Name           string
	HTTPClient     *http.Client
	BaseURL        string
	Auth           Auth
	UserAgent      string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	name       string
	httpClient *http.Client
	baseURL    string
	auth       Auth
	userAgent  string
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker // nil when the circuit is off
	flight     resilience.Group[[]byte]
}

// New builds a client. Missing credentials fail here rather than on the
// first request.
func New(cfg Config) (*Client, error) {
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = "provider"
	}
	if cfg.Auth == nil || !cfg.Auth.complete() {
		return nil, crerr.Wrapf(ErrAuth, "%s", name)
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%s: base url is required", name)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &Client{
		name:       name,
		httpClient: httpClient,
		baseURL:    baseURL,
		auth:       cfg.Auth,
		userAgent:  userAgent,
		logger:     logger.With("provider", name),
		breaker:    cfg.CircuitBreaker.Breaker(),
	}, nil
}

func (c *Client) Name() string {
	return c.name
}

// Fetch GETs path with query, decodes the JSON body into target and returns
// the raw bytes. Non-2xx responses return *HTTPError; transient failures are
// marked with resilience.ErrTransient.
func (c *Client) Fetch(ctx context.Context, path string, query url.Values, target any) ([]byte, error) {
	fullURL := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	raw, err, _ := c.flight.Do(fullURL, func() ([]byte, error) {
		if c.breaker == nil {
			return c.execute(ctx, fullURL)
		}
		var body []byte
		execErr := c.breaker.Execute(func() error {
			var reqErr error
			body, reqErr = c.execute(ctx, fullURL)
			return reqErr
		}, resilience.IsTransient)
		if crerr.Is(execErr, resilience.ErrCircuitOpen) {
			c.logger.WarnContext(ctx, "provider circuit breaker rejected request", "state", c.breaker.State())
			return nil, crerr.Wrapf(ErrUnavailable, "%s", c.name)
		}
		return body, execErr
	})
	if err != nil {
		return nil, err
	}

	if target != nil {
		if err := sonic.Unmarshal(raw, target); err != nil {
			return nil, fmt.Errorf("%s: decode payload: %w", c.name, err)
		}
	}
	return raw, nil
}

func (c *Client) execute(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", c.name, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	c.auth.Apply(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, resilience.MarkTransient(fmt.Errorf("%s: send request: %s", c.name, c.sanitize(err.Error())))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resilience.MarkTransient(fmt.Errorf("%s: read response body: %w", c.name, err))
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return raw, nil
	}

	httpErr := &HTTPError{
		Provider:   c.name,
		StatusCode: resp.StatusCode,
		Body:       c.sanitize(abbreviateBody(raw)),
		URL:        c.redactURL(req.URL.String()),
	}
	c.logger.WarnContext(ctx, "provider request failed", "status", resp.StatusCode, "url", httpErr.URL)
	if isRetryableStatus(resp.StatusCode) {
		return nil, resilience.MarkTransient(httpErr)
	}
	return nil, httpErr
}

func (c *Client) sanitize(value string) string {
	value = strings.TrimSpace(value)
	for _, secret := range c.auth.Secrets() {
		if secret != "" {
			value = strings.ReplaceAll(value, secret, "REDACTED")
		}
	}
	return value
}

func (c *Client) redactURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return c.sanitize(rawURL)
	}
	query := parsed.Query()
	changed := false
	for _, param := range c.auth.QueryParams() {
		if query.Has(param) {
			query.Set(param, "REDACTED")
			changed = true
		}
	}
	if changed {
		parsed.RawQuery = query.Encode()
	}
	return c.sanitize(parsed.String())
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
