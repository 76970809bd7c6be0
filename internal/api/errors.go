// Package api provides the HTTP client for the remote backtest service.
package api

import (
	"errors"
	"fmt"
)

var (
	// ErrNetworkFailure indicates a transport error, timeout or non-2xx response
	ErrNetworkFailure = errors.New("backtest service request failed")

	// ErrMalformedResponse indicates a single-record response could not be decoded
	ErrMalformedResponse = errors.New("malformed response from backtest service")
)

// StatusError is returned for non-2xx responses. It unwraps to ErrNetworkFailure.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrNetworkFailure
}
