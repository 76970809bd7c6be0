// Package logger provides smart universe logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// UniverseLogger provides dedicated logging for smart universe browsing.
type UniverseLogger struct {
	*logrus.Entry
}

// NewUniverseLogger creates a new universe logger.
func NewUniverseLogger(baseLogger *logrus.Logger) *UniverseLogger {
	return &UniverseLogger{
		Entry: baseLogger.WithField("component", "universe"),
	}
}

// LogRefreshed logs a wholesale replacement of the trader collection.
func (ul *UniverseLogger) LogRefreshed(minScore, minTradesPerDay float64, traders int) {
	ul.WithFields(logrus.Fields{
		"min_score":          minScore,
		"min_trades_per_day": minTradesPerDay,
		"traders":            traders,
	}).Info("Smart universe refreshed")
}

// LogRefreshFailed logs a failed universe query.
func (ul *UniverseLogger) LogRefreshFailed(minScore, minTradesPerDay float64, err error) {
	ul.WithFields(logrus.Fields{
		"min_score":          minScore,
		"min_trades_per_day": minTradesPerDay,
	}).WithError(err).Warn("Failed to refresh smart universe")
}

// LogSorted logs a client-side sort change.
func (ul *UniverseLogger) LogSorted(key string, descending bool) {
	ul.WithFields(logrus.Fields{
		"sort_key":   key,
		"descending": descending,
	}).Debug("Smart universe sorted")
}
