// Package apiclient is the storefront's client for the Brandcart marketplace
// API. Every call forwards the caller's access token and correlation id,
// passes through a circuit breaker and reports non-2xx answers as
// *StatusError.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/brandcart/storefront/pkg/httpclient"
	"github.com/brandcart/storefront/pkg/logger"
)

const (
	accessTokenCookie = "access_token"
	correlationHeader = "X-Correlation-ID"
	tracerName        = "github.com/brandcart/storefront/internal/apiclient"
)

// Config configures the API client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the marketplace API.
type Client struct {
	baseURL string
	http    httpclient.Doer
	logger  *slog.Logger
	tracer  trace.Tracer
}

// New builds a client on a pooled transport with retries disabled and a
// circuit breaker named "marketplace-api".
func New(cfg Config, logger *slog.Logger) *Client {
	opts := httpclient.Defaults()
	if cfg.Timeout > 0 {
		opts.Timeout = cfg.Timeout
	}
	breaker := httpclient.NewBreaker(httpclient.New(opts), httpclient.BreakerDefaults("marketplace-api"), logger)
	return NewWithDoer(cfg.BaseURL, breaker, logger)
}

// NewWithDoer builds a client on an arbitrary transport.
func NewWithDoer(baseURL string, doer httpclient.Doer, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    doer,
		logger:  logger,
		tracer:  otel.Tracer(tracerName),
	}
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Get fetches path and decodes the JSON answer into dst. A nil dst discards
// the body.
func (c *Client) Get(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("build GET %s: %w", path, err)
	}
	return c.do(ctx, req, path, dst)
}

// Post sends body as JSON and decodes the answer into dst.
func (c *Client) Post(ctx context.Context, path string, body, dst any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode POST %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build POST %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(ctx, req, path, dst)
}

// PostMultipart uploads the content of r as a single file part named field.
// The part's content type is derived from the file name extension.
func (c *Client) PostMultipart(ctx context.Context, path, field, filename string, r io.Reader, dst any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	ctype := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filepath.Base(filename)))
	h.Set("Content-Type", ctype)

	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("copy multipart body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("build POST %s: %w", path, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(ctx, req, path, dst)
}

func (c *Client) do(ctx context.Context, req *http.Request, path string, dst any) error {
	ctx, span := c.tracer.Start(ctx, req.Method+" "+routeOf(path),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.full", req.URL.String()),
		),
	)
	defer span.End()

	req = req.WithContext(ctx)
	req.Header.Set("Accept", "application/json")
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(correlationHeader, id)
	}
	if token := credentialsFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
		req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: token})
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%s %s: %w", req.Method, path, err)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := httpclient.ReadErrorDetail(resp)
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
		c.logger.DebugContext(ctx, "marketplace api answered non-2xx",
			slog.String("method", req.Method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.Duration("duration", time.Since(start)),
		)
		return &StatusError{Status: resp.StatusCode, Detail: detail}
	}
	defer func() { _ = resp.Body.Close() }()

	if dst == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid json")
		return &DecodeError{Path: path, Err: err}
	}
	return nil
}

// routeOf strips the query string so span names stay low-cardinality.
func routeOf(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}

type credentialsKey struct{}

// WithCredentials attaches the caller's access token to ctx. Requests made
// with the returned context carry it as a bearer token and as the
// access_token cookie.
func WithCredentials(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, credentialsKey{}, token)
}

func credentialsFrom(ctx context.Context) string {
	v, _ := ctx.Value(credentialsKey{}).(string)
	return v
}
