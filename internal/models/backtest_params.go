package models

// StrategyParams holds the signal detection knobs of a backtest
type StrategyParams struct {
	TimeWindowSeconds  int     `json:"time_window_seconds" yaml:"time_window_seconds"`
	PriceRangeWidthPct float64 `json:"price_range_width_pct" yaml:"price_range_width_pct"`
	MinSmartTraders    int     `json:"min_smart_traders" yaml:"min_smart_traders"`
}

// ExecutionParams holds the simulated execution settings of a backtest
type ExecutionParams struct {
	NotionalPerSignal float64 `json:"notional_per_signal" yaml:"notional_per_signal"`
	InitialEquity     float64 `json:"initial_equity" yaml:"initial_equity"`
	FeeRateBps        float64 `json:"fee_rate_bps" yaml:"fee_rate_bps"`
}

// BacktestParams is the parameter bundle sent with a backtest request.
// It is a plain value: copying it copies every leaf.
type BacktestParams struct {
	WindowDays      int             `json:"window_days" yaml:"window_days"`
	MinScore        float64         `json:"min_score" yaml:"min_score"`
	MinTradesPerDay float64         `json:"min_trades_per_day" yaml:"min_trades_per_day"`
	Strategy        StrategyParams  `json:"strategy" yaml:"strategy"`
	Execution       ExecutionParams `json:"execution" yaml:"execution"`
}

// BacktestRequest is the payload of POST /backtests.
// Dates use the YYYY-MM-DD layout.
type BacktestRequest struct {
	StartDate string         `json:"start_date"`
	EndDate   string         `json:"end_date"`
	Params    BacktestParams `json:"params"`
}

// DateLayout is the wire layout of request and run dates
const DateLayout = "2006-01-02"

// DefaultBacktestParams returns the parameters the backtest service assumes
// when a knob is left out of a request.
func DefaultBacktestParams() BacktestParams {
	return BacktestParams{
		WindowDays:      30,
		MinScore:        0,
		MinTradesPerDay: 0,
		Strategy: StrategyParams{
			TimeWindowSeconds:  300,
			PriceRangeWidthPct: 0.01,
			MinSmartTraders:    1,
		},
		Execution: ExecutionParams{
			NotionalPerSignal: 1000,
			InitialEquity:     10000,
			FeeRateBps:        5,
		},
	}
}
