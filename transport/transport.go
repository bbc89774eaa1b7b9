// Package transport performs the network call behind one streaming session:
// bounded retries with a fixed delay, Retry-After handling on 429, client
// side rate limiting, and classification of HTTP-level failures before any
// byte reaches the decoder.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	lexstream "github.com/casevault/lexstream"
)

// Doer executes HTTP requests. *http.Client satisfies it; tests substitute
// their own.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Stream is a byte stream ready for incremental reading. The caller owns
// Body and must close it.
type Stream struct {
	// Body is the response body. The decoder reads it incrementally.
	Body io.ReadCloser

	// Streaming is true when the response content type indicates a
	// streamed payload. When false the whole body should be fed through
	// the same parse path as a single chunk.
	Streaming bool

	// StatusCode is the HTTP status of the accepted response.
	StatusCode int
}

// Known substrings of 403-class bodies that re-classify a refusal into an
// access-denied category the UI can act on.
var accessDeniedMarkers = []struct {
	marker   string
	category lexstream.AccessCategory
}{
	{"trial has expired", lexstream.AccessTrialExpired},
	{"trial AI call limit", lexstream.AccessTrialCallLimit},
	{"active subscription required", lexstream.AccessSubscriptionRequired},
}

// Options configures a Client.
type Options struct {
	// BaseURL is prepended to endpoint paths.
	BaseURL string

	// HTTPClient overrides the underlying client (nil means a default
	// client with no overall timeout, since streams are long-lived).
	HTTPClient Doer

	// MaxRetries bounds retry attempts on transient failures.
	MaxRetries int

	// RetryDelay is the fixed delay between attempts, also used for 429
	// responses without a usable Retry-After header.
	RetryDelay time.Duration

	// RequestsPerMinute caps outgoing call rate. Zero falls back to the
	// registry default; a negative value disables limiting.
	RequestsPerMinute int

	// Headers are applied to every request (authentication and friends).
	Headers map[string]string

	// Logger receives retry and classification warnings.
	Logger *log.Logger
}

// Client opens classified byte streams against the assistant's AI backends.
type Client struct {
	base       string
	http       Doer
	maxRetries int
	retryDelay time.Duration
	limiter    *rate.Limiter
	headers    map[string]string
	logger     *log.Logger
}

// NewClient builds a transport client. Zero option fields fall back to the
// registry's transport defaults.
func NewClient(opts Options) *Client {
	defaults := lexstream.GetProfileRegistry().TransportDefaults()
	if opts.MaxRetries == 0 {
		opts.MaxRetries = defaults.MaxRetries
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = defaults.RetryDelay()
	}
	if opts.RequestsPerMinute == 0 {
		opts.RequestsPerMinute = defaults.RequestsPerMinute
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	var limiter *rate.Limiter
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60.0), opts.RequestsPerMinute)
	}

	return &Client{
		base:       strings.TrimRight(opts.BaseURL, "/"),
		http:       opts.HTTPClient,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		limiter:    limiter,
		headers:    opts.Headers,
		logger:     opts.Logger,
	}
}

// Open POSTs payload to endpoint and returns a byte stream, or a classified
// failure before any streaming begins. Transient network errors and 429
// responses are retried up to the configured bound; terminal HTTP failures
// are classified into access-denied or transport errors.
func (c *Client) Open(ctx context.Context, endpoint string, payload []byte, headers map[string]string) (*Stream, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("retrying request", "endpoint", endpoint, "attempt", attempt)
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, cancellation(err)
			}
		}

		req, err := c.buildRequest(ctx, endpoint, payload, headers)
		if err != nil {
			return nil, &lexstream.TransportError{Message: err.Error(), Err: err}
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, cancellation(ctx.Err())
			}
			lastErr = err
			if !c.sleep(ctx, c.retryDelay) {
				return nil, cancellation(ctx.Err())
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			delay := retryAfter(resp.Header, c.retryDelay)
			drainAndClose(resp.Body)
			c.logger.Warn("rate limited by backend", "endpoint", endpoint, "retry_after", delay)
			lastErr = &lexstream.TransportError{StatusCode: resp.StatusCode, Message: "rate limited"}
			if !c.sleep(ctx, delay) {
				return nil, cancellation(ctx.Err())
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			defer resp.Body.Close()
			return nil, classifyFailure(resp)
		}

		return &Stream{
			Body:       resp.Body,
			Streaming:  isStreamingContentType(resp.Header.Get("Content-Type")),
			StatusCode: resp.StatusCode,
		}, nil
	}

	if lastErr == nil {
		lastErr = errors.New("request failed")
	}
	return nil, &lexstream.TransportError{Message: fmt.Sprintf("giving up after %d attempts: %v", c.maxRetries+1, lastErr), Err: lastErr}
}

func (c *Client) buildRequest(ctx context.Context, endpoint string, payload []byte, headers map[string]string) (*http.Request, error) {
	url := c.base + "/" + strings.TrimLeft(endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// sleep waits for d or until ctx is cancelled. It reports whether the wait
// completed.
func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// classifyFailure turns a terminal non-2xx response into the error taxonomy:
// access-denied with a category for known 403-class refusals, a generic
// transport error with a best-effort message otherwise.
func classifyFailure(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	message := extractMessage(body)

	if resp.StatusCode == http.StatusForbidden {
		for _, m := range accessDeniedMarkers {
			if strings.Contains(message, m.marker) || strings.Contains(string(body), m.marker) {
				return &lexstream.AccessDeniedError{Category: m.category, Message: message}
			}
		}
	}
	return &lexstream.TransportError{StatusCode: resp.StatusCode, Message: message}
}

// extractMessage pulls a human-readable message out of a JSON or plain-text
// error body.
func extractMessage(body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "no response body"
	}
	if gjson.ValidBytes(body) {
		for _, path := range []string{"error.message", "message", "error", "detail"} {
			if v := gjson.GetBytes(body, path); v.Type == gjson.String && v.String() != "" {
				return v.String()
			}
		}
	}
	return text
}

// retryAfter honors a Retry-After header in either delta-seconds or
// HTTP-date form, falling back to the fixed delay.
func retryAfter(h http.Header, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(h.Get("Retry-After"))
	if value == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return fallback
}

// isStreamingContentType reports whether the content type indicates a
// streamed payload. Anything else degrades to single-chunk parsing.
func isStreamingContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "text/event-stream") || strings.Contains(ct, "application/octet-stream")
}

// cancellation wraps a context error into the cancelled terminal state,
// keeping deadline expiry as a transport failure.
func cancellation(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &lexstream.TransportError{Message: "request deadline exceeded", Err: err}
	}
	return fmt.Errorf("%w: %v", lexstream.ErrCancelled, err)
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4*1024))
	_ = body.Close()
}
