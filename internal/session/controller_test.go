package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/backtest-console/internal/models"
	"github.com/yourusername/backtest-console/internal/preset"
)

var errBoom = errors.New("boom")

// fakeService is a scriptable Service
type fakeService struct {
	mu sync.Mutex

	list      []models.BacktestRun
	listErr   error
	details   map[int64]models.BacktestRun
	detailErr error
	created   models.BacktestRun
	createErr error

	createGate  chan struct{}
	detailGate  chan struct{}
	detailGates map[int64]chan struct{}

	createCalls []models.BacktestRequest
	detailCalls []int64
}

func newFakeService() *fakeService {
	return &fakeService{
		details:     make(map[int64]models.BacktestRun),
		detailGates: make(map[int64]chan struct{}),
	}
}

// holdDetail blocks GetBacktest for id until the returned channel is closed
func (f *fakeService) holdDetail(id int64) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	f.detailGates[id] = gate
	return gate
}

func (f *fakeService) detailRequested(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, called := range f.detailCalls {
		if called == id {
			return true
		}
	}
	return false
}

func (f *fakeService) ListBacktests(ctx context.Context) ([]models.BacktestRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.BacktestRun{}, f.list...), nil
}

func (f *fakeService) GetBacktest(ctx context.Context, id int64) (models.BacktestRun, error) {
	f.mu.Lock()
	gate := f.detailGate
	if g, ok := f.detailGates[id]; ok {
		gate = g
	}
	f.detailCalls = append(f.detailCalls, id)
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.detailErr != nil {
		return models.BacktestRun{}, f.detailErr
	}
	run, ok := f.details[id]
	if !ok {
		return models.BacktestRun{}, errBoom
	}
	return run, nil
}

func (f *fakeService) CreateBacktest(ctx context.Context, req models.BacktestRequest) (models.BacktestRun, error) {
	f.mu.Lock()
	gate := f.createGate
	f.createCalls = append(f.createCalls, req)
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return models.BacktestRun{}, f.createErr
	}
	return f.created, nil
}

func newTestController(svc Service) *Controller {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(svc, preset.Default(), log)
}

func testRequest() models.BacktestRequest {
	return models.BacktestRequest{StartDate: "2024-01-01", EndDate: "2024-02-01", Params: models.DefaultBacktestParams()}
}

func TestMergeKeepsServerFieldsAndFillsOverlay(t *testing.T) {
	server := models.BacktestRun{ID: 1, FinalEquity: 999}
	local := Overlay{StrategyName: models.StrPtr("中性策略"), PresetID: models.StrPtr("balanced")}

	merged := Merge(server, local)
	assert.Equal(t, int64(1), merged.ID)
	assert.Equal(t, 999.0, merged.FinalEquity)
	require.NotNil(t, merged.StrategyName)
	assert.Equal(t, "中性策略", *merged.StrategyName)
	require.NotNil(t, merged.PresetID)
	assert.Equal(t, "balanced", *merged.PresetID)
}

func TestMergeServerOverlayWins(t *testing.T) {
	server := models.BacktestRun{ID: 1, PresetID: models.StrPtr("aggressive")}
	merged := Merge(server, Overlay{PresetID: models.StrPtr("balanced")})

	assert.Equal(t, "aggressive", *merged.PresetID)
	assert.Nil(t, merged.StrategyName)
}

func TestChooseRecord(t *testing.T) {
	created := models.BacktestRun{ID: 7}
	detail := models.BacktestRun{ID: 7, FinalEquity: 10500}

	assert.Equal(t, detail, chooseRecord(created, detail, nil))
	assert.Equal(t, created, chooseRecord(created, models.BacktestRun{}, errBoom))
}

func TestLoadHistoryReplacesRuns(t *testing.T) {
	svc := newFakeService()
	svc.list = []models.BacktestRun{{ID: 3}, {ID: 2}, {ID: 1}}
	c := newTestController(svc)

	require.NoError(t, c.LoadHistory(context.Background()))
	snap := c.Snapshot()
	require.Len(t, snap.Runs, 3)
	assert.Equal(t, int64(3), snap.Runs[0].ID)
	assert.Equal(t, NoError, snap.LastError)

	svc.list = []models.BacktestRun{{ID: 4}}
	require.NoError(t, c.LoadHistory(context.Background()))
	snap = c.Snapshot()
	require.Len(t, snap.Runs, 1)
	assert.Equal(t, int64(4), snap.Runs[0].ID)
}

func TestLoadHistoryFailureKeepsRuns(t *testing.T) {
	svc := newFakeService()
	svc.list = []models.BacktestRun{{ID: 1}}
	c := newTestController(svc)
	require.NoError(t, c.LoadHistory(context.Background()))

	svc.listErr = errBoom
	err := c.LoadHistory(context.Background())
	assert.ErrorIs(t, err, ErrHistoryFetch)

	snap := c.Snapshot()
	assert.Equal(t, HistoryFetchFailed, snap.LastError)
	require.Len(t, snap.Runs, 1)
	assert.Equal(t, int64(1), snap.Runs[0].ID)

	svc.listErr = nil
	require.NoError(t, c.LoadHistory(context.Background()))
	assert.Equal(t, NoError, c.Snapshot().LastError)
}

func TestLoadHistoryKeepsOverlayAndDetail(t *testing.T) {
	svc := newFakeService()
	svc.created = models.BacktestRun{ID: 7}
	svc.details[7] = models.BacktestRun{
		ID:          7,
		EquityCurve: []models.EquityPoint{{Step: 0, Equity: 10000}},
	}
	c := newTestController(svc)
	require.NoError(t, c.Submit(context.Background(), testRequest(), "balanced"))

	svc.list = []models.BacktestRun{{ID: 7, FinalEquity: 10100}}
	require.NoError(t, c.LoadHistory(context.Background()))

	run, ok := c.FindRun(7)
	require.True(t, ok)
	assert.Equal(t, 10100.0, run.FinalEquity)
	assert.Equal(t, "balanced", *run.PresetID)
	assert.Equal(t, "中性策略", *run.StrategyName)
	assert.Len(t, run.EquityCurve, 1)
}

func TestSelectRunMergesDetail(t *testing.T) {
	svc := newFakeService()
	svc.list = []models.BacktestRun{{ID: 1}, {ID: 2}}
	svc.details[1] = models.BacktestRun{ID: 1, FinalEquity: 999}
	c := newTestController(svc)
	require.NoError(t, c.LoadHistory(context.Background()))

	selected := models.BacktestRun{ID: 1, StrategyName: models.StrPtr("中性策略"), PresetID: models.StrPtr("balanced")}
	got := c.SelectRun(context.Background(), selected)

	assert.Equal(t, 999.0, got.FinalEquity)
	assert.Equal(t, "中性策略", *got.StrategyName)
	assert.Equal(t, "balanced", *got.PresetID)

	snap := c.Snapshot()
	require.NotNil(t, snap.ActiveRun)
	assert.Equal(t, got, *snap.ActiveRun)
	assert.Equal(t, got, snap.Runs[0])
	assert.Equal(t, int64(2), snap.Runs[1].ID)
}

func TestSelectRunSetsActiveBeforeDetail(t *testing.T) {
	svc := newFakeService()
	svc.details[5] = models.BacktestRun{ID: 5, FinalEquity: 42}
	svc.detailGate = make(chan struct{})
	c := newTestController(svc)

	done := make(chan models.BacktestRun)
	go func() {
		done <- c.SelectRun(context.Background(), models.BacktestRun{ID: 5})
	}()

	require.Eventually(t, func() bool {
		snap := c.Snapshot()
		return snap.ActiveRun != nil && snap.ActiveRun.ID == 5
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0.0, c.Snapshot().ActiveRun.FinalEquity)

	close(svc.detailGate)
	got := <-done
	assert.Equal(t, 42.0, got.FinalEquity)
	assert.Equal(t, 42.0, c.Snapshot().ActiveRun.FinalEquity)
}

func TestSelectRunDetailFailureKeepsShallowRecord(t *testing.T) {
	svc := newFakeService()
	svc.detailErr = errBoom
	c := newTestController(svc)

	shallow := models.BacktestRun{ID: 9, FinalEquity: 1}
	got := c.SelectRun(context.Background(), shallow)

	assert.Equal(t, shallow, got)
	snap := c.Snapshot()
	require.NotNil(t, snap.ActiveRun)
	assert.Equal(t, shallow, *snap.ActiveRun)
	assert.Equal(t, NoError, snap.LastError)
}

func TestSelectRunNotInHistory(t *testing.T) {
	svc := newFakeService()
	svc.list = []models.BacktestRun{{ID: 1}}
	svc.details[2] = models.BacktestRun{ID: 2, FinalEquity: 5}
	c := newTestController(svc)
	require.NoError(t, c.LoadHistory(context.Background()))

	c.SelectRun(context.Background(), models.BacktestRun{ID: 2})
	snap := c.Snapshot()
	require.Len(t, snap.Runs, 1)
	assert.Equal(t, int64(1), snap.Runs[0].ID)
	assert.Equal(t, int64(2), snap.ActiveRun.ID)
}

func TestSubmitWithDetail(t *testing.T) {
	svc := newFakeService()
	svc.list = []models.BacktestRun{{ID: 1}}
	svc.created = models.BacktestRun{ID: 7}
	svc.details[7] = models.BacktestRun{ID: 7, FinalEquity: 10500, TotalReturnPct: 0.05}
	c := newTestController(svc)
	require.NoError(t, c.LoadHistory(context.Background()))

	req := testRequest()
	require.NoError(t, c.Submit(context.Background(), req, "aggressive"))

	snap := c.Snapshot()
	require.Len(t, snap.Runs, 2)
	head := snap.Runs[0]
	assert.Equal(t, int64(7), head.ID)
	assert.Equal(t, 10500.0, head.FinalEquity)
	assert.Equal(t, "aggressive", *head.PresetID)
	assert.Equal(t, "激进策略", *head.StrategyName)
	assert.Equal(t, head, *snap.ActiveRun)
	assert.False(t, snap.IsSubmitting)
	assert.Equal(t, []models.BacktestRequest{req}, svc.createCalls)
}

func TestSubmitDetailFailureUsesCreatedRecord(t *testing.T) {
	svc := newFakeService()
	svc.created = models.BacktestRun{ID: 7}
	svc.detailErr = errBoom
	c := newTestController(svc)

	require.NoError(t, c.Submit(context.Background(), testRequest(), "balanced"))

	snap := c.Snapshot()
	require.Len(t, snap.Runs, 1)
	assert.Equal(t, int64(7), snap.Runs[0].ID)
	assert.Equal(t, "balanced", *snap.Runs[0].PresetID)
	assert.Equal(t, "中性策略", *snap.Runs[0].StrategyName)
	assert.Equal(t, int64(7), snap.ActiveRun.ID)
	assert.Equal(t, NoError, snap.LastError)
}

func TestSubmitCustomPresetHasNoStrategyName(t *testing.T) {
	svc := newFakeService()
	svc.created = models.BacktestRun{ID: 3}
	svc.details[3] = models.BacktestRun{ID: 3}
	c := newTestController(svc)

	require.NoError(t, c.Submit(context.Background(), testRequest(), preset.CustomID))

	head := c.Snapshot().Runs[0]
	assert.Nil(t, head.StrategyName)
	assert.Equal(t, preset.CustomID, *head.PresetID)
}

func TestSubmitCreateFailure(t *testing.T) {
	svc := newFakeService()
	svc.list = []models.BacktestRun{{ID: 1}}
	svc.createErr = errBoom
	c := newTestController(svc)
	require.NoError(t, c.LoadHistory(context.Background()))

	err := c.Submit(context.Background(), testRequest(), "balanced")
	assert.ErrorIs(t, err, ErrCreateFailed)

	snap := c.Snapshot()
	assert.Equal(t, CreateFailed, snap.LastError)
	assert.False(t, snap.IsSubmitting)
	assert.Len(t, snap.Runs, 1)
	assert.Nil(t, snap.ActiveRun)
	assert.Empty(t, svc.detailCalls)
}

func TestSubmitClearsPreviousError(t *testing.T) {
	svc := newFakeService()
	svc.createErr = errBoom
	c := newTestController(svc)
	require.Error(t, c.Submit(context.Background(), testRequest(), "balanced"))

	svc.createErr = nil
	svc.created = models.BacktestRun{ID: 1}
	svc.details[1] = models.BacktestRun{ID: 1}
	require.NoError(t, c.Submit(context.Background(), testRequest(), "balanced"))
	assert.Equal(t, NoError, c.Snapshot().LastError)
}

func TestSubmitInFlightFlag(t *testing.T) {
	svc := newFakeService()
	svc.created = models.BacktestRun{ID: 1}
	svc.details[1] = models.BacktestRun{ID: 1}
	svc.createGate = make(chan struct{})
	c := newTestController(svc)

	assert.False(t, c.Snapshot().IsSubmitting)

	done := make(chan error)
	go func() {
		done <- c.Submit(context.Background(), testRequest(), "balanced")
	}()

	require.Eventually(t, func() bool { return c.Snapshot().IsSubmitting }, time.Second, 5*time.Millisecond)

	err := c.Submit(context.Background(), testRequest(), "balanced")
	assert.ErrorIs(t, err, ErrSubmitInProgress)
	assert.True(t, c.Snapshot().IsSubmitting)

	close(svc.createGate)
	require.NoError(t, <-done)
	assert.False(t, c.Snapshot().IsSubmitting)
	assert.Len(t, svc.createCalls, 1)
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	svc := newFakeService()
	svc.list = []models.BacktestRun{{ID: 1}, {ID: 2}}
	c := newTestController(svc)

	var mu sync.Mutex
	var seen []Snapshot
	require.NoError(t, c.Subscribe(func(s Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s)
	}))

	require.NoError(t, c.LoadHistory(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	assert.Len(t, seen[len(seen)-1].Runs, 2)
}

func TestSnapshotIsACopy(t *testing.T) {
	svc := newFakeService()
	svc.list = []models.BacktestRun{{ID: 1}}
	c := newTestController(svc)
	require.NoError(t, c.LoadHistory(context.Background()))

	snap := c.Snapshot()
	snap.Runs[0].FinalEquity = 123

	assert.Equal(t, 0.0, c.Snapshot().Runs[0].FinalEquity)
}

func TestSummaryDelegates(t *testing.T) {
	svc := newFakeService()
	svc.list = []models.BacktestRun{
		{ID: 1, PresetID: models.StrPtr("balanced"), TotalReturnPct: 0.1},
		{ID: 2, TotalReturnPct: 0.3},
	}
	c := newTestController(svc)
	require.NoError(t, c.LoadHistory(context.Background()))

	stats := c.Summary()
	require.Len(t, stats, 2)
	assert.Equal(t, "balanced", stats[0].Key)
	assert.Equal(t, preset.CustomID, stats[1].Key)
}

func TestSelectRunLastCompletedWins(t *testing.T) {
	svc := newFakeService()
	svc.list = []models.BacktestRun{{ID: 1}, {ID: 2}}
	svc.details[1] = models.BacktestRun{ID: 1, FinalEquity: 111, EquityCurve: []models.EquityPoint{{Step: 0, Equity: 111}}}
	svc.details[2] = models.BacktestRun{ID: 2, FinalEquity: 222}
	c := newTestController(svc)
	require.NoError(t, c.LoadHistory(context.Background()))

	gate := svc.holdDetail(1)
	done := make(chan models.BacktestRun)
	go func() {
		done <- c.SelectRun(context.Background(), models.BacktestRun{ID: 1})
	}()
	require.Eventually(t, func() bool { return svc.detailRequested(1) }, time.Second, 5*time.Millisecond)

	second := c.SelectRun(context.Background(), models.BacktestRun{ID: 2})
	assert.Equal(t, 222.0, second.FinalEquity)
	assert.Equal(t, int64(2), c.Snapshot().ActiveRun.ID)

	close(gate)
	first := <-done
	assert.Equal(t, 111.0, first.FinalEquity)

	snap := c.Snapshot()
	require.NotNil(t, snap.ActiveRun)
	assert.Equal(t, int64(1), snap.ActiveRun.ID)
	assert.Equal(t, 111.0, snap.ActiveRun.FinalEquity)

	run1, ok := c.FindRun(1)
	require.True(t, ok)
	assert.Equal(t, 111.0, run1.FinalEquity)
	assert.True(t, run1.HasDetail())

	run2, ok := c.FindRun(2)
	require.True(t, ok)
	assert.Equal(t, 222.0, run2.FinalEquity)
}

func TestSelectRunCompletingAfterSubmitWins(t *testing.T) {
	svc := newFakeService()
	svc.list = []models.BacktestRun{{ID: 1}}
	svc.details[1] = models.BacktestRun{ID: 1, FinalEquity: 111}
	svc.created = models.BacktestRun{ID: 7}
	svc.details[7] = models.BacktestRun{ID: 7, FinalEquity: 777}
	c := newTestController(svc)
	require.NoError(t, c.LoadHistory(context.Background()))

	gate := svc.holdDetail(1)
	done := make(chan models.BacktestRun)
	go func() {
		done <- c.SelectRun(context.Background(), models.BacktestRun{ID: 1})
	}()
	require.Eventually(t, func() bool { return svc.detailRequested(1) }, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Submit(context.Background(), testRequest(), "balanced"))
	assert.Equal(t, int64(7), c.Snapshot().ActiveRun.ID)

	close(gate)
	<-done

	snap := c.Snapshot()
	require.NotNil(t, snap.ActiveRun)
	assert.Equal(t, int64(1), snap.ActiveRun.ID)
	require.Len(t, snap.Runs, 2)
	assert.Equal(t, int64(7), snap.Runs[0].ID)
	assert.Equal(t, 777.0, snap.Runs[0].FinalEquity)
	assert.Equal(t, int64(1), snap.Runs[1].ID)
	assert.Equal(t, 111.0, snap.Runs[1].FinalEquity)
}

func TestSubscriberMayReadSnapshot(t *testing.T) {
	svc := newFakeService()
	svc.list = []models.BacktestRun{{ID: 1}}
	c := newTestController(svc)

	var mu sync.Mutex
	var counts []int
	require.NoError(t, c.Subscribe(func(Snapshot) {
		n := len(c.Snapshot().Runs)
		mu.Lock()
		defer mu.Unlock()
		counts = append(counts, n)
	}))

	require.NoError(t, c.LoadHistory(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, counts)
	assert.Equal(t, 1, counts[len(counts)-1])
}
