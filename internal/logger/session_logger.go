// Package logger provides backtest session logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// SessionLogger provides dedicated logging for backtest session operations.
type SessionLogger struct {
	*logrus.Entry
}

// NewSessionLogger creates a new session logger.
func NewSessionLogger(baseLogger *logrus.Logger) *SessionLogger {
	return &SessionLogger{
		Entry: baseLogger.WithField("component", "session"),
	}
}

// LogHistoryLoaded logs a successful run list replacement.
func (sl *SessionLogger) LogHistoryLoaded(runs, preservedDetails int) {
	sl.WithFields(logrus.Fields{
		"runs":              runs,
		"preserved_details": preservedDetails,
	}).Info("Backtest history loaded")
}

// LogHistoryFailed logs a failed run list fetch.
func (sl *SessionLogger) LogHistoryFailed(err error) {
	sl.WithError(err).Warn("Failed to load backtest history")
}

// LogRunSelected logs the selection of a run for the detail view.
func (sl *SessionLogger) LogRunSelected(runID int64, detailLoaded bool) {
	sl.WithFields(logrus.Fields{
		"run_id":        runID,
		"detail_loaded": detailLoaded,
	}).Debug("Backtest run selected")
}

// LogDetailFallback logs a swallowed detail fetch failure.
func (sl *SessionLogger) LogDetailFallback(operation string, runID int64, err error) {
	sl.WithFields(logrus.Fields{
		"operation": operation,
		"run_id":    runID,
	}).WithError(err).Debug("Detail fetch failed, keeping shallow record")
}

// LogSubmitted logs a created backtest run.
func (sl *SessionLogger) LogSubmitted(runID int64, presetID string, detailLoaded bool, totalReturnPct float64) {
	sl.WithFields(logrus.Fields{
		"run_id":           runID,
		"preset_id":        presetID,
		"detail_loaded":    detailLoaded,
		"total_return_pct": totalReturnPct,
	}).Info("Backtest run created")
}

// LogSubmitFailed logs a failed backtest creation.
func (sl *SessionLogger) LogSubmitFailed(presetID string, err error) {
	sl.WithField("preset_id", presetID).WithError(err).Warn("Failed to create backtest run")
}
