// Package apitest provides an in-process fake of the backtest service for tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"

	"github.com/gorilla/mux"

	"github.com/yourusername/backtest-console/internal/models"
)

// Route names accepted by Fail and SetRawBody
const (
	RouteListBacktests  = "list_backtests"
	RouteGetBacktest    = "get_backtest"
	RouteCreateBacktest = "create_backtest"
	RouteRiskStatus     = "risk_status"
	RouteSmartUniverse  = "smart_universe"
	RouteHealth         = "health"
)

// Server is a fake backtest service backed by httptest
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	runs        []models.BacktestRun
	details     map[int64]models.BacktestRun
	traders     []models.SmartTrader
	risk        models.RiskStatus
	nextID      int64
	failures    map[string]int
	rawBodies   map[string]string
	gates       map[string]chan struct{}
	created     []models.BacktestRequest
	queries     []url.Values
	requestIDs  []string
	bareArrays  bool
	createReply *models.BacktestRun
}

// NewServer starts a fake backend; callers must Close it
func NewServer() *Server {
	s := &Server{
		details:   make(map[int64]models.BacktestRun),
		nextID:    1,
		failures:  make(map[string]int),
		rawBodies: make(map[string]string),
		gates:     make(map[string]chan struct{}),
	}

	r := mux.NewRouter()
	r.HandleFunc("/backtests", s.wrap(RouteListBacktests, s.handleList)).Methods(http.MethodGet)
	r.HandleFunc("/backtests", s.wrap(RouteCreateBacktest, s.handleCreate)).Methods(http.MethodPost)
	r.HandleFunc("/backtests/{id:[0-9]+}", s.wrap(RouteGetBacktest, s.handleGet)).Methods(http.MethodGet)
	r.HandleFunc("/risk/status", s.wrap(RouteRiskStatus, s.handleRisk)).Methods(http.MethodGet)
	r.HandleFunc("/smart-universe", s.wrap(RouteSmartUniverse, s.handleUniverse)).Methods(http.MethodGet)
	r.HandleFunc("/health", s.wrap(RouteHealth, s.handleHealth)).Methods(http.MethodGet)

	s.Server = httptest.NewServer(r)
	return s
}

// AddRun stores a run; the list endpoint returns its shallow form
func (s *Server) AddRun(run models.BacktestRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append([]models.BacktestRun{shallow(run)}, s.runs...)
	s.details[run.ID] = run
	if run.ID >= s.nextID {
		s.nextID = run.ID + 1
	}
}

// SetTraders replaces the smart universe
func (s *Server) SetTraders(traders []models.SmartTrader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.traders = append([]models.SmartTrader(nil), traders...)
}

// SetRiskStatus replaces the risk snapshot
func (s *Server) SetRiskStatus(status models.RiskStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.risk = status
}

// SetCreateReply makes POST /backtests answer with run instead of a generated record
func (s *Server) SetCreateReply(run models.BacktestRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createReply = &run
}

// UseBareArrays makes collection endpoints answer without the envelope
func (s *Server) UseBareArrays(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bareArrays = enabled
}

// Fail makes route answer with status until cleared with status 0
func (s *Server) Fail(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, route)
		return
	}
	s.failures[route] = status
}

// SetRawBody makes route answer 200 with body verbatim
func (s *Server) SetRawBody(route, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rawBodies[route] = body
}

// Hold blocks route until the returned release function is called
func (s *Server) Hold(route string) (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gates[route] = gate
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.gates, route)
			s.mu.Unlock()
			close(gate)
		})
	}
}

// Created returns the decoded create payloads in arrival order
func (s *Server) Created() []models.BacktestRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.BacktestRequest(nil), s.created...)
}

// Queries returns the smart universe query strings in arrival order
func (s *Server) Queries() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]url.Values(nil), s.queries...)
}

// RequestIDs returns the X-Request-ID header of every request
func (s *Server) RequestIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requestIDs...)
}

func (s *Server) wrap(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requestIDs = append(s.requestIDs, r.Header.Get("X-Request-ID"))
		gate := s.gates[route]
		status := s.failures[route]
		raw, hasRaw := s.rawBodies[route]
		s.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		if status != 0 {
			writeJSON(w, status, map[string]string{"detail": http.StatusText(status)})
			return
		}
		if hasRaw {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(raw))
			return
		}
		next(w, r)
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	runs := append([]models.BacktestRun{}, s.runs...)
	bare := s.bareArrays
	s.mu.Unlock()

	if bare {
		writeJSON(w, http.StatusOK, runs)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"total": len(runs), "items": runs})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	s.mu.Lock()
	run, ok := s.details[id]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": fmt.Sprintf("backtest %d not found", id)})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req models.BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	s.created = append(s.created, req)
	var run models.BacktestRun
	if s.createReply != nil {
		run = *s.createReply
	} else {
		run = models.BacktestRun{
			ID:            s.nextID,
			StartDate:     req.StartDate,
			EndDate:       req.EndDate,
			InitialEquity: req.Params.Execution.InitialEquity,
			FinalEquity:   req.Params.Execution.InitialEquity,
			EquityCurve:   []models.EquityPoint{{Step: 0, Equity: req.Params.Execution.InitialEquity}},
		}
		snapshot, _ := json.Marshal(req.Params)
		run.ParamsSnapshot = snapshot
	}
	if run.ID >= s.nextID {
		s.nextID = run.ID + 1
	}
	s.runs = append([]models.BacktestRun{shallow(run)}, s.runs...)
	s.details[run.ID] = run
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, shallow(run))
}

func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	status := s.risk
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleUniverse(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.queries = append(s.queries, r.URL.Query())
	traders := append([]models.SmartTrader{}, s.traders...)
	bare := s.bareArrays
	s.mu.Unlock()

	if bare {
		writeJSON(w, http.StatusOK, traders)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"total": len(traders), "items": traders})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func shallow(run models.BacktestRun) models.BacktestRun {
	run.EquityCurve = nil
	run.ParamsSnapshot = nil
	run.TradesSummary = nil
	return run
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
