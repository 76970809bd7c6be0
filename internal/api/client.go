package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/schema"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/backtest-console/internal/config"
	"github.com/yourusername/backtest-console/internal/metrics"
	"github.com/yourusername/backtest-console/internal/models"
)

// Endpoint labels used in logs and metrics
const (
	EndpointListBacktests  = "list_backtests"
	EndpointGetBacktest    = "get_backtest"
	EndpointCreateBacktest = "create_backtest"
	EndpointRiskStatus     = "risk_status"
	EndpointSmartUniverse  = "smart_universe"
	EndpointHealth         = "health"
)

const maxErrorBody = 512

// Client talks to the backtest service REST API
type Client struct {
	http    *RateLimitedHTTPClient
	baseURL string
	encoder *schema.Encoder
	logger  *logrus.Entry
}

// NewClient creates a backtest service client from the application config
func NewClient(cfg *config.Config, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Client{
		http:    NewRateLimitedHTTPClient(HTTPClientConfigFrom(&cfg.API), logger),
		baseURL: cfg.GetAPIBaseURL(),
		encoder: schema.NewEncoder(),
		logger:  logger.WithField("component", "api"),
	}
}

// BaseURL returns the service base URL without a trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close releases idle connections
func (c *Client) Close() error {
	return c.http.Close()
}

// ListBacktests returns the run history in server order
func (c *Client) ListBacktests(ctx context.Context) ([]models.BacktestRun, error) {
	data, err := c.do(ctx, EndpointListBacktests, http.MethodGet, "/backtests", nil)
	if err != nil {
		return nil, err
	}
	return decodeCollection[models.BacktestRun](c, EndpointListBacktests, data), nil
}

// GetBacktest returns the full-detail record of run id
func (c *Client) GetBacktest(ctx context.Context, id int64) (models.BacktestRun, error) {
	data, err := c.do(ctx, EndpointGetBacktest, http.MethodGet, fmt.Sprintf("/backtests/%d", id), nil)
	if err != nil {
		return models.BacktestRun{}, err
	}
	return decodeRecord[models.BacktestRun](EndpointGetBacktest, data)
}

// CreateBacktest submits a run and returns the created record
func (c *Client) CreateBacktest(ctx context.Context, req models.BacktestRequest) (models.BacktestRun, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return models.BacktestRun{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	data, err := c.do(ctx, EndpointCreateBacktest, http.MethodPost, "/backtests", bytes.NewReader(payload))
	if err != nil {
		return models.BacktestRun{}, err
	}
	return decodeRecord[models.BacktestRun](EndpointCreateBacktest, data)
}

// GetRiskStatus returns the current risk engine snapshot
func (c *Client) GetRiskStatus(ctx context.Context) (models.RiskStatus, error) {
	data, err := c.do(ctx, EndpointRiskStatus, http.MethodGet, "/risk/status", nil)
	if err != nil {
		return models.RiskStatus{}, err
	}
	return decodeRecord[models.RiskStatus](EndpointRiskStatus, data)
}

// ListSmartUniverse returns the traders matching filter in server order
func (c *Client) ListSmartUniverse(ctx context.Context, filter models.UniverseFilter) ([]models.SmartTrader, error) {
	query := url.Values{}
	if err := c.encoder.Encode(filter, query); err != nil {
		return nil, fmt.Errorf("failed to encode filter: %w", err)
	}

	data, err := c.do(ctx, EndpointSmartUniverse, http.MethodGet, "/smart-universe?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return decodeCollection[models.SmartTrader](c, EndpointSmartUniverse, data), nil
}

// HealthCheck checks backtest service health
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.do(ctx, EndpointHealth, http.MethodGet, "/health", nil)
	return err
}

// do executes one request and returns the body of a 2xx response
func (c *Client) do(ctx context.Context, endpoint, method, path string, body io.Reader) ([]byte, error) {
	start := time.Now()

	resp, err := c.http.Do(ctx, method, c.baseURL+path, body)
	if err != nil {
		metrics.RecordAPIRequest(endpoint, "network", time.Since(start).Seconds())
		c.logger.WithError(err).WithField("endpoint", endpoint).Warn("Backtest service unreachable")
		return nil, fmt.Errorf("%w: %v", ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordAPIRequest(endpoint, "network", time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrNetworkFailure, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordAPIRequest(endpoint, "http_error", time.Since(start).Seconds())
		statusErr := &StatusError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       truncate(strings.TrimSpace(string(data)), maxErrorBody),
		}
		c.logger.WithFields(logrus.Fields{
			"endpoint":    endpoint,
			"status_code": resp.StatusCode,
		}).Warn("Backtest service returned an error status")
		return nil, statusErr
	}

	metrics.RecordAPIRequest(endpoint, "success", time.Since(start).Seconds())
	c.logger.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"duration": time.Since(start),
	}).Debug("Backtest service request completed")
	return data, nil
}

// decodeRecord decodes a single-record body
func decodeRecord[T any](endpoint string, data []byte) (T, error) {
	var out *T
	if err := json.Unmarshal(data, &out); err != nil {
		var zero T
		metrics.RecordMalformedResponse(endpoint)
		return zero, fmt.Errorf("%w: %s: %v", ErrMalformedResponse, endpoint, err)
	}
	if out == nil {
		var zero T
		metrics.RecordMalformedResponse(endpoint)
		return zero, fmt.Errorf("%w: %s: empty body", ErrMalformedResponse, endpoint)
	}
	return *out, nil
}

// envelope is the paginated collection shape of the backtest service
type envelope struct {
	Total *int            `json:"total"`
	Items json.RawMessage `json:"items"`
}

// decodeCollection accepts a bare array or a {total, items} envelope.
// Empty or malformed bodies are normalized to an empty collection.
func decodeCollection[T any](c *Client, endpoint string, data []byte) []T {
	trimmed := bytes.TrimSpace(data)

	var items []T
	err := json.Unmarshal(trimmed, &items)
	if err != nil {
		var env envelope
		if envErr := json.Unmarshal(trimmed, &env); envErr == nil && len(env.Items) > 0 {
			err = json.Unmarshal(env.Items, &items)
		}
	}

	if err != nil || len(trimmed) == 0 {
		metrics.RecordMalformedResponse(endpoint)
		entry := c.logger.WithField("endpoint", endpoint)
		if err != nil {
			entry = entry.WithError(err)
		}
		entry.Warn("Malformed collection response, treating as empty")
		return []T{}
	}
	if items == nil {
		return []T{}
	}
	return items
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// IsNetworkFailure reports whether err is a transport or status failure
func IsNetworkFailure(err error) bool {
	return errors.Is(err, ErrNetworkFailure)
}
