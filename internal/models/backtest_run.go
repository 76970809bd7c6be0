package models

import (
	"encoding/json"
	"time"
)

// EquityPoint is one sample of a run's equity curve
type EquityPoint struct {
	Step   int     `json:"step"`
	Equity float64 `json:"equity"`
}

// TradeSummary is a simplified simulated trade attached to a run detail
type TradeSummary struct {
	Symbol      string  `json:"symbol"`
	Side        string  `json:"side"`
	R           float64 `json:"r"`
	RealizedPnL float64 `json:"realized_pnl"`
}

// BacktestRun is a backtest record as returned by the backtest service.
//
// The list endpoint returns a shallow form without EquityCurve,
// ParamsSnapshot and TradesSummary. StrategyName and PresetID are
// client-attached labels the service may omit or return stale.
type BacktestRun struct {
	ID          int64      `json:"id"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	StartDate   string     `json:"start_date"`
	EndDate     string     `json:"end_date"`
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`

	InitialEquity  float64 `json:"initial_equity"`
	FinalEquity    float64 `json:"final_equity"`
	TotalReturnPct float64 `json:"total_return_pct"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	TotalTrades    int     `json:"total_trades"`
	WinRate        float64 `json:"win_rate"`

	EquityCurve    []EquityPoint   `json:"equity_curve,omitempty"`
	ParamsSnapshot json.RawMessage `json:"params_snapshot,omitempty"`
	TradesSummary  []TradeSummary  `json:"trades_summary,omitempty"`

	StrategyName *string `json:"strategy_name,omitempty"`
	PresetID     *string `json:"preset_id,omitempty"`
}

// HasDetail reports whether the record carries any detail-only field
func (r *BacktestRun) HasDetail() bool {
	return r.EquityCurve != nil || len(r.ParamsSnapshot) > 0 || r.TradesSummary != nil
}

// PresetKey returns the preset id or the empty string when unset
func (r *BacktestRun) PresetKey() string {
	if r.PresetID == nil {
		return ""
	}
	return *r.PresetID
}

// StrPtr returns a pointer to s
func StrPtr(s string) *string {
	return &s
}
