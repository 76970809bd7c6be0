package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourusername/backtest-console/internal/config"
)

// RequestIDHeader carries the per-request correlation id
const RequestIDHeader = "X-Request-ID"

// HTTPClientConfig holds configuration for the paced HTTP client
type HTTPClientConfig struct {
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 means unlimited
	UserAgent string
}

// DefaultHTTPClientConfig returns recommended defaults
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:   15 * time.Second,
		UserAgent: "backtest-console",
	}
}

// HTTPClientConfigFrom builds the client configuration from the api section
func HTTPClientConfigFrom(cfg *config.APIConfig) HTTPClientConfig {
	out := DefaultHTTPClientConfig()
	if cfg.TimeoutSeconds > 0 {
		out.Timeout = cfg.Timeout()
	}
	out.RateLimit = cfg.RequestsPerSecond
	if cfg.UserAgent != "" {
		out.UserAgent = cfg.UserAgent
	}
	return out
}

// RateLimitedHTTPClient wraps retryablehttp.Client with client-side pacing.
// Requests are never retried: a failed call surfaces to the caller once.
type RateLimitedHTTPClient struct {
	client    *retryablehttp.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewRateLimitedHTTPClient creates a new paced HTTP client
func NewRateLimitedHTTPClient(cfg HTTPClientConfig, logger *logrus.Logger) *RateLimitedHTTPClient {
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.RetryMax = 0
	retryClient.CheckRetry = noRetryPolicy()
	retryClient.Logger = newLeveledLogger(logger)

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &RateLimitedHTTPClient{
		client:    retryClient,
		limiter:   rate.NewLimiter(limit, 1),
		userAgent: cfg.UserAgent,
	}
}

// Do waits for the pacer and executes the request once
func (c *RateLimitedHTTPClient) Do(ctx context.Context, method, url string, body io.Reader) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	var rawBody interface{}
	if body != nil {
		rawBody = body
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, rawBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.client.Do(req)
}

// Close closes any resources held by the client
func (c *RateLimitedHTTPClient) Close() error {
	c.client.HTTPClient.CloseIdleConnections()
	return nil
}

// noRetryPolicy hands every response back to the caller unchanged
func noRetryPolicy() retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, err
	}
}

// leveledLogger adapts logrus to retryablehttp.LeveledLogger
type leveledLogger struct {
	entry *logrus.Entry
}

func newLeveledLogger(logger *logrus.Logger) retryablehttp.LeveledLogger {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &leveledLogger{entry: logger.WithField("component", "http")}
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(fields(keysAndValues)).Error(msg)
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(fields(keysAndValues)).Warn(msg)
}

func fields(keysAndValues []interface{}) logrus.Fields {
	out := make(logrus.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		out[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return out
}
