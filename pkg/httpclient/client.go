// Package httpclient holds the outbound HTTP plumbing for calls to the
// marketplace API: a pooled client with optional retries for reads, a
// circuit breaker around it, and decoding of upstream error bodies.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Doer executes HTTP requests. *Client and *Breaker satisfy it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Options tunes a Client.
type Options struct {
	Timeout         time.Duration
	UserAgent       string
	MaxConnsPerHost int

	// Retries is how many extra attempts a GET or HEAD gets after a transport
	// error or a retryable 5xx. Writes are always sent once.
	Retries    int
	Backoff    time.Duration
	MaxBackoff time.Duration
}

// Defaults returns the options used for the marketplace API.
func Defaults() Options {
	return Options{
		Timeout:         15 * time.Second,
		UserAgent:       "brandcart-storefront",
		MaxConnsPerHost: 100,
		Backoff:         200 * time.Millisecond,
		MaxBackoff:      2 * time.Second,
	}
}

// Client is an http.Client on a pooled transport.
type Client struct {
	hc   *http.Client
	opts Options
}

// New creates a Client.
func New(opts Options) *Client {
	dialer := &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}
	return &Client{
		hc: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           dialer.DialContext,
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          opts.MaxConnsPerHost,
				MaxIdleConnsPerHost:   opts.MaxConnsPerHost,
				MaxConnsPerHost:       opts.MaxConnsPerHost,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   5 * time.Second,
				ExpectContinueTimeout: time.Second,
			},
		},
		opts: opts,
	}
}

// Do sends req bound to ctx.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	if c.opts.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}

	attempts := 1
	if req.Method == http.MethodGet || req.Method == http.MethodHead {
		attempts += c.opts.Retries
	}

	for n := 1; ; n++ {
		resp, err := c.hc.Do(req)
		last := n == attempts
		switch {
		case err != nil && (last || !transient(err)):
			return nil, fmt.Errorf("%s %s (attempt %d): %w", req.Method, req.URL.Path, n, err)
		case err == nil && (last || !retryableStatus(resp.StatusCode)):
			return resp, nil
		case err == nil:
			_ = resp.Body.Close()
		}

		select {
		case <-time.After(c.backoff(n)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// backoff returns the wait before attempt n+1.
func (c *Client) backoff(n int) time.Duration {
	wait := c.opts.Backoff << (n - 1)
	if c.opts.MaxBackoff > 0 && (wait > c.opts.MaxBackoff || wait < c.opts.Backoff) {
		return c.opts.MaxBackoff
	}
	return wait
}

func retryableStatus(status int) bool {
	return status >= 500 && status != http.StatusNotImplemented
}

func transient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
