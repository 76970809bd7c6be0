package models

import "time"

// RiskConfig is the risk limit configuration of the trading account
type RiskConfig struct {
	ID                       int64    `json:"id,omitempty"`
	MaxDrawdownPct           float64  `json:"max_drawdown_pct"`
	MaxLeveragePerSymbol     *float64 `json:"max_leverage_per_symbol,omitempty"`
	MaxPositionSizePerSymbol *float64 `json:"max_position_size_per_symbol,omitempty"`
}

// RiskEvent is the last recorded risk event
type RiskEvent struct {
	ID        int64                  `json:"id"`
	CreatedAt time.Time              `json:"created_at"`
	EventType string                 `json:"event_type"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// RiskStatus is a read-only snapshot of the risk engine state
type RiskStatus struct {
	Config         RiskConfig `json:"config"`
	CurrentEquity  float64    `json:"current_equity"`
	MaxDrawdownAbs float64    `json:"max_drawdown_abs"`
	MaxDrawdownPct float64    `json:"max_drawdown_pct"`
	RiskTriggered  bool       `json:"risk_triggered"`
	LastEvent      *RiskEvent `json:"last_event,omitempty"`
}
