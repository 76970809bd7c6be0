package models

// SmartTrader is one address-level performance profile of the smart universe
type SmartTrader struct {
	TraderID          int64   `json:"trader_id"`
	Address           string  `json:"address"`
	WindowDays        int     `json:"window_days"`
	Score             float64 `json:"score"`
	WinRateWindow     float64 `json:"win_rate_window"`
	PnLWindow         float64 `json:"pnl_window"`
	VolatilityWindow  float64 `json:"volatility_window"`
	MaxDrawdownWindow float64 `json:"max_drawdown_window"`
	PayoffRatio       float64 `json:"payoff_ratio"`
	Expectancy        float64 `json:"expectancy"`
	TradesPerDay      float64 `json:"trades_per_day"`
}

// UniverseFilter holds the server-side filters of GET /smart-universe
type UniverseFilter struct {
	MinScore        float64 `schema:"min_score"`
	MinTradesPerDay float64 `schema:"min_trades_per_day"`
	MinPayoffRatio  float64 `schema:"min_payoff_ratio,omitempty"`
	WindowDays      int     `schema:"window_days,omitempty"`
}
