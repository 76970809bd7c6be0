package session

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/backtest-console/internal/api"
	"github.com/yourusername/backtest-console/internal/apitest"
	"github.com/yourusername/backtest-console/internal/config"
	"github.com/yourusername/backtest-console/internal/models"
)

func newAPIController(t *testing.T, srv *apitest.Server) *Controller {
	t.Helper()
	client := api.NewClient(&config.Config{
		API: config.APIConfig{BaseURL: srv.URL, TimeoutSeconds: 5},
	}, nil)
	t.Cleanup(func() { _ = client.Close() })
	return newTestController(client)
}

func TestSessionAgainstBackend(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	srv.AddRun(models.BacktestRun{ID: 1, TotalReturnPct: 0.02, EquityCurve: []models.EquityPoint{{Step: 0, Equity: 10000}}})

	c := newAPIController(t, srv)
	ctx := context.Background()

	require.NoError(t, c.LoadHistory(ctx))
	runs := c.Runs()
	require.Len(t, runs, 1)
	assert.False(t, runs[0].HasDetail())

	selected := c.SelectRun(ctx, runs[0])
	assert.True(t, selected.HasDetail())

	require.NoError(t, c.Submit(ctx, testRequest(), "conservative"))
	snap := c.Snapshot()
	require.Len(t, snap.Runs, 2)
	assert.Equal(t, int64(2), snap.Runs[0].ID)
	assert.True(t, snap.Runs[0].HasDetail())
	assert.Equal(t, "保守策略", *snap.Runs[0].StrategyName)

	created := srv.Created()
	require.Len(t, created, 1)
	assert.Equal(t, testRequest(), created[0])
}

func TestSessionDetailOutageFallsBack(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	srv.SetCreateReply(models.BacktestRun{ID: 7})
	srv.Fail(apitest.RouteGetBacktest, http.StatusBadGateway)

	c := newAPIController(t, srv)
	require.NoError(t, c.Submit(context.Background(), testRequest(), "balanced"))

	snap := c.Snapshot()
	require.NotNil(t, snap.ActiveRun)
	assert.Equal(t, int64(7), snap.ActiveRun.ID)
	assert.False(t, snap.ActiveRun.HasDetail())
	assert.Equal(t, "balanced", *snap.ActiveRun.PresetID)
}

func TestSessionHistoryOutage(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	srv.Fail(apitest.RouteListBacktests, http.StatusInternalServerError)

	c := newAPIController(t, srv)
	err := c.LoadHistory(context.Background())
	assert.ErrorIs(t, err, ErrHistoryFetch)
	assert.Equal(t, HistoryFetchFailed, c.Snapshot().LastError)
	assert.Empty(t, c.Runs())
}
