// Package universe loads the smart trader universe and orders it client-side.
package universe

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/backtest-console/internal/logger"
	"github.com/yourusername/backtest-console/internal/metrics"
	"github.com/yourusername/backtest-console/internal/models"
)

// ErrUnknownSortKey indicates a sort key that names no trader field
var ErrUnknownSortKey = errors.New("unknown sort key")

// Service is the subset of the backtest service the engine needs
type Service interface {
	ListSmartUniverse(ctx context.Context, filter models.UniverseFilter) ([]models.SmartTrader, error)
}

// SortState is the active client-side ordering
type SortState struct {
	Key        SortKey
	Descending bool
}

// Engine holds the loaded universe, its ordering and the selected trader
type Engine struct {
	service Service
	logger  *logger.UniverseLogger

	mu       sync.Mutex
	filter   models.UniverseFilter
	traders  []models.SmartTrader
	sort     SortState
	selected *int64
	lastErr  string
}

// NewEngine creates an engine with filter as the initial server-side filter
func NewEngine(service Service, filter models.UniverseFilter, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{
		service: service,
		logger:  logger.NewUniverseLogger(log),
		filter:  filter,
		traders: []models.SmartTrader{},
	}
}

// Refresh reloads the universe with filter. On failure the loaded traders
// and their filter are kept and a short message is recorded.
func (e *Engine) Refresh(ctx context.Context, filter models.UniverseFilter) error {
	traders, err := e.service.ListSmartUniverse(ctx, filter)
	if err != nil {
		e.mu.Lock()
		e.lastErr = "failed to load smart universe"
		e.mu.Unlock()
		e.logger.LogRefreshFailed(filter.MinScore, filter.MinTradesPerDay, err)
		return err
	}

	e.mu.Lock()
	e.filter = filter
	e.traders = append([]models.SmartTrader{}, traders...)
	e.sort = SortState{}
	e.lastErr = ""
	if e.selected != nil && !containsTrader(e.traders, *e.selected) {
		e.selected = nil
	}
	e.mu.Unlock()

	metrics.UpdateUniverseTraders(len(traders))
	e.logger.LogRefreshed(filter.MinScore, filter.MinTradesPerDay, len(traders))
	return nil
}

// Traders returns the current view: server order, or sorted when a key is active
func (e *Engine) Traders() []models.SmartTrader {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sort.Key == SortNone {
		return append([]models.SmartTrader{}, e.traders...)
	}
	return SortTraders(e.traders, e.sort.Key, e.sort.Descending)
}

// Sort orders by key. Repeating the active key flips the direction; a new
// key starts descending.
func (e *Engine) Sort(key SortKey) SortState {
	e.mu.Lock()
	if e.sort.Key == key {
		e.sort.Descending = !e.sort.Descending
	} else {
		e.sort = SortState{Key: key, Descending: true}
	}
	state := e.sort
	e.mu.Unlock()

	e.logger.LogSorted(string(state.Key), state.Descending)
	return state
}

// SortState returns the active ordering
func (e *Engine) SortState() SortState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sort
}

// Select marks trader id as selected; it reports false when id is not loaded
func (e *Engine) Select(id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !containsTrader(e.traders, id) {
		return false
	}
	e.selected = &id
	return true
}

// Selected returns the selected trader from the loaded data
func (e *Engine) Selected() (models.SmartTrader, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.selected == nil {
		return models.SmartTrader{}, false
	}
	for _, t := range e.traders {
		if t.TraderID == *e.selected {
			return t, true
		}
	}
	return models.SmartTrader{}, false
}

// Filter returns the filter the loaded traders were fetched with
func (e *Engine) Filter() models.UniverseFilter {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filter
}

// LastError returns the message of the last failed refresh, if any
func (e *Engine) LastError() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

func containsTrader(traders []models.SmartTrader, id int64) bool {
	for _, t := range traders {
		if t.TraderID == id {
			return true
		}
	}
	return false
}
