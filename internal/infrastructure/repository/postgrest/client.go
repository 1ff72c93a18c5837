// Package postgrest is the canonical store reached through the hosted
// Postgres REST interface (PostgREST dialect).
package postgrest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/riskibarqy/fixture-sync/internal/platform/logging"
	"github.com/riskibarqy/fixture-sync/internal/platform/resilience"
	"github.com/riskibarqy/fixture-sync/internal/platform/storage"
)

const maxBodyBytes = 1 << 20

type Config struct {
	HTTPClient *http.Client
	BaseURL    string
	ServiceKey string
	Timeout    time.Duration
	Logger     *logging.Logger
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	serviceKey string
	logger     *logging.Logger
}

func NewClient(cfg Config) (*Client, error) {
	baseURL, err := validateHTTPBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, crerr.Wrap(err, "invalid STORE_REST_URL")
	}
	serviceKey := strings.TrimSpace(cfg.ServiceKey)
	if serviceKey == "" {
		return nil, crerr.New("store service key is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		serviceKey: serviceKey,
		logger:     logger.With("component", "postgrest"),
	}, nil
}

type request struct {
	method string
	table  string
	query  url.Values
	prefer []string
	header map[string]string
	body   any
}

type response struct {
	status int
	header http.Header
	body   []byte
}

// do sends req and returns the body of a 2xx response. Failures come back as
// classified *storage.Error; 5xx, 429 and network errors are also marked
// transient.
func (c *Client) do(ctx context.Context, req request) (response, error) {
	fullURL := c.baseURL + "/" + req.table
	if encoded := req.query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	var payload []byte
	if req.body != nil {
		raw, err := sonic.Marshal(req.body)
		if err != nil {
			return response{}, crerr.Wrapf(err, "marshal %s payload", req.table)
		}
		payload = raw
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("store.table", req.table),
			attribute.String("store.method", req.method),
			attribute.Int("store.request_bytes", len(payload)),
		)
	}
	c.logger.DebugContext(ctx, "store request", "curl_preview", buildCurlPreview(req.method, fullURL, req, truncateForLog(string(payload), 2048)))

	var body io.Reader
	if payload != nil {
		body = strings.NewReader(string(payload))
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, fullURL, body)
	if err != nil {
		return response{}, crerr.Wrapf(err, "create %s request", req.table)
	}
	httpReq.Header.Set("apikey", c.serviceKey)
	httpReq.Header.Set("Authorization", "Bearer "+c.serviceKey)
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if len(req.prefer) > 0 {
		httpReq.Header.Set("Prefer", strings.Join(req.prefer, ","))
	}
	for k, v := range req.header {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return response{}, ctx.Err()
		}
		return response{}, resilience.MarkTransient(fmt.Errorf("store %s %s: %w", req.method, req.table, err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return response{}, resilience.MarkTransient(fmt.Errorf("store %s %s: read body: %w", req.method, req.table, err))
	}
	if resp.StatusCode/100 == 2 {
		return response{status: resp.StatusCode, header: resp.Header, body: raw}, nil
	}

	storeErr := parseError(req.table, resp.StatusCode, raw)
	classified := storage.Classify(storeErr)
	if isRetryableStatus(resp.StatusCode) {
		return response{}, resilience.MarkTransient(classified)
	}
	return response{}, classified
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func parseError(table string, status int, raw []byte) *storage.Error {
	out := &storage.Error{Table: table, Status: status}
	var body errorBody
	if err := sonic.Unmarshal(raw, &body); err == nil {
		out.Code = strings.TrimSpace(body.Code)
		out.Message = strings.TrimSpace(body.Message)
		if details := strings.TrimSpace(body.Details); details != "" {
			out.Message += " (" + details + ")"
		}
		return out
	}
	out.Message = truncateForLog(strings.TrimSpace(string(raw)), 240)
	return out
}

// parseContentRangeTotal reads N from "0-0/N" or "*/N".
func parseContentRangeTotal(value string) (int, error) {
	idx := strings.LastIndexByte(value, '/')
	if idx < 0 || idx == len(value)-1 {
		return 0, fmt.Errorf("content-range %q has no total", value)
	}
	total := value[idx+1:]
	if total == "*" {
		return 0, fmt.Errorf("content-range %q has unknown total", value)
	}
	n, err := strconv.Atoi(total)
	if err != nil {
		return 0, fmt.Errorf("content-range %q: %w", value, err)
	}
	return n, nil
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}

func validateHTTPBaseURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}

	return strings.TrimRight(candidate, "/"), nil
}

func buildCurlPreview(method, fullURL string, req request, body string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	appendPart := func(part string) {
		if buf.Len() > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(part)
	}
	appendFlagHeader := func(value string) {
		appendPart("-H")
		appendPart(shellQuote(value))
	}

	appendPart("curl")
	appendPart("-X")
	appendPart(method)
	appendPart(shellQuote(fullURL))
	appendFlagHeader("apikey: ***")
	appendFlagHeader("Authorization: Bearer ***")
	if len(req.prefer) > 0 {
		appendFlagHeader("Prefer: " + strings.Join(req.prefer, ","))
	}
	for k, v := range req.header {
		appendFlagHeader(k + ": " + v)
	}
	if body != "" {
		appendFlagHeader("Content-Type: application/json")
		appendPart("-d")
		appendPart(shellQuote(body))
	}

	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}

func truncateForLog(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
}
