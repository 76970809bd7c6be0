// Package risk fetches a one-shot snapshot of the risk engine state.
package risk

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/backtest-console/internal/metrics"
	"github.com/yourusername/backtest-console/internal/models"
)

// Phase is the lifecycle of one fetch
type Phase string

const (
	Loading Phase = "loading"
	Error   Phase = "error"
	Loaded  Phase = "loaded"
)

// State is the poller's view; Status is set only in the Loaded phase
type State struct {
	Phase   Phase
	Message string
	Status  *models.RiskStatus
}

// Service is the subset of the backtest service the poller needs
type Service interface {
	GetRiskStatus(ctx context.Context) (models.RiskStatus, error)
}

// Poller performs a single risk status fetch per Start
type Poller struct {
	service Service
	logger  *logrus.Entry

	mu    sync.Mutex
	state State
}

// NewPoller creates a poller in the Loading phase
func NewPoller(service Service, logger *logrus.Logger) *Poller {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Poller{
		service: service,
		logger:  logger.WithField("component", "risk"),
		state:   State{Phase: Loading},
	}
}

// Start fetches the status once and returns the terminal state
func (p *Poller) Start(ctx context.Context) State {
	p.set(State{Phase: Loading})

	status, err := p.service.GetRiskStatus(ctx)
	if err != nil {
		p.logger.WithError(err).Warn("Failed to load risk status")
		return p.set(State{Phase: Error, Message: "failed to load risk status"})
	}

	metrics.UpdateRiskTriggered(status.RiskTriggered)
	p.logger.WithFields(logrus.Fields{
		"current_equity":   status.CurrentEquity,
		"max_drawdown_pct": status.MaxDrawdownPct,
		"risk_triggered":   status.RiskTriggered,
	}).Debug("Risk status loaded")
	return p.set(State{Phase: Loaded, Status: &status})
}

// State returns the current state
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Poller) set(s State) State {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = s
	return s
}
