package health

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	err error
}

func (f fakeBackend) HealthCheck(ctx context.Context) error {
	return f.err
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthAndLive(t *testing.T) {
	s := NewServer(Config{ServiceName: "backtest-console", Version: "test"})

	for _, path := range []string{"/health", "/live"} {
		rec := get(t, s.Handler(), path)
		require.Equal(t, http.StatusOK, rec.Code)

		var body HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "ok", body.Status)
		assert.Equal(t, "backtest-console", body.Service)
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name     string
		ready    bool
		backend  error
		expected int
	}{
		{"ready and reachable", true, nil, http.StatusOK},
		{"not marked ready", false, nil, http.StatusServiceUnavailable},
		{"backend down", true, errors.New("refused"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(Config{ServiceName: "svc", Backend: fakeBackend{err: tt.backend}})
			s.SetReady(tt.ready)

			rec := get(t, s.Handler(), "/ready")
			assert.Equal(t, tt.expected, rec.Code)

			var body ReadyResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body.Checks, "backtest_service")
		})
	}
}

func TestMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("metric 1\n"))
	})
	s := NewServer(Config{MetricsPath: "/metrics", MetricsHandler: metrics})

	rec := get(t, s.Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "metric 1\n", rec.Body.String())
}

func TestStartAndShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewServer(Config{ServiceName: "svc", Port: 0})
	require.NoError(t, s.Start(ctx))
	require.NotEmpty(t, s.Addr())

	_, port, err := net.SplitHostPort(s.Addr())
	require.NoError(t, err)

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://127.0.0.1:" + port + "/live")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.NoError(t, s.Shutdown())
}
