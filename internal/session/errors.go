package session

import "errors"

var (
	// ErrHistoryFetch indicates the run history could not be loaded
	ErrHistoryFetch = errors.New("failed to load backtest history")

	// ErrCreateFailed indicates the service rejected or never received a submission
	ErrCreateFailed = errors.New("failed to create backtest")

	// ErrSubmitInProgress indicates a submission is already running
	ErrSubmitInProgress = errors.New("a backtest submission is already in progress")
)

// ErrorKind is the user-visible failure recorded in the session
type ErrorKind string

const (
	// NoError means the last operation succeeded
	NoError ErrorKind = ""
	// HistoryFetchFailed means the last history load failed
	HistoryFetchFailed ErrorKind = "history_fetch_failed"
	// CreateFailed means the last submission failed
	CreateFailed ErrorKind = "create_failed"
)

// Message returns a short human-readable description
func (k ErrorKind) Message() string {
	switch k {
	case HistoryFetchFailed:
		return "could not load backtest history"
	case CreateFailed:
		return "could not create backtest"
	default:
		return ""
	}
}
