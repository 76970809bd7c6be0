// Package session keeps the client-side view of backtest runs in sync with
// the backtest service.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/asaskevich/EventBus"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/backtest-console/internal/logger"
	"github.com/yourusername/backtest-console/internal/metrics"
	"github.com/yourusername/backtest-console/internal/models"
	"github.com/yourusername/backtest-console/internal/preset"
	"github.com/yourusername/backtest-console/internal/summary"
)

// TopicChanged is the event bus topic published after every state change
const TopicChanged = "session:changed"

// Service is the subset of the backtest service the controller needs
type Service interface {
	ListBacktests(ctx context.Context) ([]models.BacktestRun, error)
	GetBacktest(ctx context.Context, id int64) (models.BacktestRun, error)
	CreateBacktest(ctx context.Context, req models.BacktestRequest) (models.BacktestRun, error)
}

// Snapshot is a read-only copy of the session state
type Snapshot struct {
	Runs         []models.BacktestRun
	ActiveRun    *models.BacktestRun
	IsSubmitting bool
	LastError    ErrorKind
}

// Controller owns the run history, the active run and the submission flag.
// Mutations are serialized; no lock is held across a service call.
type Controller struct {
	service Service
	presets *preset.Registry
	logger  *logger.SessionLogger
	bus     EventBus.Bus

	mu         sync.Mutex
	runs       []models.BacktestRun
	active     *models.BacktestRun
	submitting bool
	lastError  ErrorKind
}

// New creates a controller with an empty history
func New(service Service, presets *preset.Registry, log *logrus.Logger) *Controller {
	if presets == nil {
		presets = preset.Default()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Controller{
		service: service,
		presets: presets,
		logger:  logger.NewSessionLogger(log),
		bus:     EventBus.New(),
		runs:    []models.BacktestRun{},
	}
}

// Subscribe registers fn to receive a snapshot after every state change.
// fn runs synchronously on the goroutine that made the change while the bus
// is locked, so it may read Snapshot but must not call Subscribe or any
// mutating Controller method. Snapshots are taken before delivery, so
// concurrent changes may be delivered out of order.
func (c *Controller) Subscribe(fn func(Snapshot)) error {
	return c.bus.Subscribe(TopicChanged, fn)
}

// LoadHistory replaces the run history with the service's list.
// Overlay labels and already fetched detail fields of runs known locally
// are kept. On failure the history is left untouched.
func (c *Controller) LoadHistory(ctx context.Context) error {
	listed, err := c.service.ListBacktests(ctx)
	if err != nil {
		c.mu.Lock()
		c.lastError = HistoryFetchFailed
		c.mu.Unlock()

		c.logger.LogHistoryFailed(err)
		c.publish()
		return fmt.Errorf("%w: %v", ErrHistoryFetch, err)
	}

	c.mu.Lock()
	local := make(map[int64]models.BacktestRun, len(c.runs))
	for _, run := range c.runs {
		local[run.ID] = run
	}

	runs := make([]models.BacktestRun, len(listed))
	preserved := 0
	for i, run := range listed {
		if prev, ok := local[run.ID]; ok {
			run = Merge(run, OverlayOf(prev))
			var kept bool
			if run, kept = keepDetail(run, prev); kept {
				preserved++
			}
		}
		runs[i] = run
	}
	c.runs = runs
	c.lastError = NoError
	metrics.UpdateSessionRuns(len(runs))
	c.mu.Unlock()

	c.logger.LogHistoryLoaded(len(runs), preserved)
	c.publish()
	return nil
}

// SelectRun makes run active at once, then replaces it with the service's
// full-detail record. A failed detail fetch leaves run active. The returned
// record is the one left active by this call.
func (c *Controller) SelectRun(ctx context.Context, run models.BacktestRun) models.BacktestRun {
	c.mu.Lock()
	selected := run
	c.active = &selected
	c.mu.Unlock()
	c.publish()

	detail, err := c.service.GetBacktest(ctx, run.ID)
	if err != nil {
		c.logger.LogDetailFallback("select", run.ID, err)
		metrics.RecordDetailFallback("select")
		c.logger.LogRunSelected(run.ID, false)
		return run
	}

	merged := Merge(detail, OverlayOf(run))

	c.mu.Lock()
	active := merged
	c.active = &active
	for i := range c.runs {
		if c.runs[i].ID == merged.ID {
			c.runs[i] = merged
			break
		}
	}
	c.mu.Unlock()

	c.logger.LogRunSelected(run.ID, true)
	c.publish()
	return merged
}

// Submit creates a run from req, labels it with presetID and makes it the
// newest and active run. Only one submission may run at a time: a call made
// while another is in flight returns ErrSubmitInProgress at once, without
// contacting the service, and IsSubmitting stays true for the running one.
func (c *Controller) Submit(ctx context.Context, req models.BacktestRequest, presetID string) error {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return ErrSubmitInProgress
	}
	c.submitting = true
	c.lastError = NoError
	c.mu.Unlock()
	c.publish()

	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
		c.publish()
	}()

	created, err := c.service.CreateBacktest(ctx, req)
	if err != nil {
		c.mu.Lock()
		c.lastError = CreateFailed
		c.mu.Unlock()

		c.logger.LogSubmitFailed(presetID, err)
		metrics.RecordSubmission("failed")
		return fmt.Errorf("%w: %v", ErrCreateFailed, err)
	}

	overlay := Overlay{StrategyName: c.presets.DisplayName(presetID)}
	if presetID != "" {
		overlay.PresetID = models.StrPtr(presetID)
	}

	detail, detailErr := c.service.GetBacktest(ctx, created.ID)
	if detailErr != nil {
		c.logger.LogDetailFallback("submit", created.ID, detailErr)
		metrics.RecordDetailFallback("submit")
	}
	record := Merge(chooseRecord(created, detail, detailErr), overlay)

	c.mu.Lock()
	runs := make([]models.BacktestRun, 0, len(c.runs)+1)
	runs = append(runs, record)
	for _, run := range c.runs {
		if run.ID != record.ID {
			runs = append(runs, run)
		}
	}
	c.runs = runs
	active := record
	c.active = &active
	metrics.UpdateSessionRuns(len(runs))
	c.mu.Unlock()

	if detailErr != nil {
		metrics.RecordSubmission("created_without_detail")
	} else {
		metrics.RecordSubmission("created")
	}
	c.logger.LogSubmitted(record.ID, presetID, detailErr == nil, record.TotalReturnPct)
	return nil
}

// Snapshot returns a copy of the current state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Runs returns a copy of the run history, newest first
func (c *Controller) Runs() []models.BacktestRun {
	return c.Snapshot().Runs
}

// FindRun returns the run with id from the local history
func (c *Controller) FindRun(id int64) (models.BacktestRun, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, run := range c.runs {
		if run.ID == id {
			return run, true
		}
	}
	return models.BacktestRun{}, false
}

// Summary aggregates the current history by preset
func (c *Controller) Summary() []summary.Stats {
	return summary.Aggregate(c.Runs(), c.presets)
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		Runs:         append([]models.BacktestRun{}, c.runs...),
		IsSubmitting: c.submitting,
		LastError:    c.lastError,
	}
	if c.active != nil {
		active := *c.active
		snap.ActiveRun = &active
	}
	return snap
}

func (c *Controller) publish() {
	c.bus.Publish(TopicChanged, c.Snapshot())
}
