// Package cloudflare dispatches generated tool calls as HTTP requests
// against the Cloudflare v4 API.
package cloudflare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/threepointone/cloudflare-api-mcp/internal/catalog"
	apierrors "github.com/threepointone/cloudflare-api-mcp/internal/errors"
	"github.com/threepointone/cloudflare-api-mcp/metrics"
	"github.com/threepointone/cloudflare-api-mcp/tracing"
)

// Client resolves tool names against the API description and forwards
// invocations to the Cloudflare API. It holds no mutable state: concurrent
// calls are independent.
type Client struct {
	cfg        *Config
	doc        *catalog.Document
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(client *Client) {
		client.logger = l
	}
}

// NewClient creates a Cloudflare API client over the given description.
func NewClient(cfg *Config, doc *catalog.Document, opts ...ClientOption) *Client {
	c := &Client{
		cfg:        cfg,
		doc:        doc,
		httpClient: newHTTPClient(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result is a successful dispatch: the parsed JSON response, unchanged, plus
// the raw body it was parsed from.
type Result struct {
	Value any
	Body  []byte
}

// Call executes one tool invocation: decode arguments, resolve the
// operation, validate required path parameters, and perform a single
// synchronous HTTP request. No retries, no backoff; a validation failure
// issues no request at all.
func (c *Client) Call(ctx context.Context, name string, raw json.RawMessage) (*Result, error) {
	args, err := decodeArgs(name, raw)
	if err != nil {
		return nil, err
	}

	op, ok := c.doc.Resolve(name)
	if !ok {
		return nil, &apierrors.UnknownOperationError{Name: name}
	}

	if err := validateRequired(name, op.Parameters, args.Path); err != nil {
		return nil, err
	}

	return c.dispatch(ctx, name, op, args)
}

// dispatch performs the HTTP round-trip for a resolved operation.
func (c *Client) dispatch(ctx context.Context, name string, op *catalog.Resolved, args *CallArgs) (*Result, error) {
	reqURL := BuildURL(c.cfg.BaseURL, op, args.Path)

	var bodyReader io.Reader
	if args.HasBody() {
		bodyReader = bytes.NewReader(args.Body)
	}

	req, err := http.NewRequestWithContext(ctx, op.Method, reqURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	ctx, span := tracing.StartSpan(ctx, "cloudflare.api.request")
	defer span.End()
	span.SetAttributes(
		attribute.String("http.request.method", op.Method),
		attribute.String("url.full", reqURL),
	)
	req = req.WithContext(ctx)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(op.Method, 0, time.Since(start).Seconds())
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := readAndClose(resp)
	duration := time.Since(start)
	metrics.RecordUpstreamRequest(op.Method, resp.StatusCode, duration.Seconds())
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("API request completed",
		"method", op.Method,
		"url", reqURL,
		"status", resp.StatusCode,
		"duration_ms", duration.Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		upstreamErr := &apierrors.UpstreamError{StatusCode: resp.StatusCode, Status: resp.Status}
		tracing.RecordError(span, upstreamErr)
		return nil, upstreamErr
	}

	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &Result{Value: value, Body: body}, nil
}

// BuildURL concatenates the base URL with the operation's path template and
// substitutes each declared path parameter by literal {name} replacement.
// Values are not URL-encoded, and parameters absent from pathArgs leave
// their placeholder in the result.
func BuildURL(base string, op *catalog.Resolved, pathArgs map[string]string) string {
	u := base + op.PathTemplate
	for _, p := range op.Parameters {
		if p.In != "path" {
			continue
		}
		if v, ok := pathArgs[p.Name]; ok {
			u = strings.ReplaceAll(u, "{"+p.Name+"}", v)
		}
	}
	return u
}

// readAndClose reads the response body and closes it.
func readAndClose(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return body, err
}

// newHTTPClient creates the HTTP client used for dispatch. No client-level
// timeout is set: a single attempt runs until the transport gives up or the
// upstream answers.
func newHTTPClient() *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     120 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
	}
	return &http.Client{Transport: transport}
}
