package universe

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yourusername/backtest-console/internal/models"
)

// SortKey names a numeric SmartTrader field
type SortKey string

// Sortable fields
const (
	SortNone         SortKey = ""
	SortScore        SortKey = "score"
	SortWinRate      SortKey = "win_rate_window"
	SortPnL          SortKey = "pnl_window"
	SortVolatility   SortKey = "volatility_window"
	SortMaxDrawdown  SortKey = "max_drawdown_window"
	SortPayoffRatio  SortKey = "payoff_ratio"
	SortExpectancy   SortKey = "expectancy"
	SortTradesPerDay SortKey = "trades_per_day"
	SortWindowDays   SortKey = "window_days"
	SortTraderID     SortKey = "trader_id"
)

var extractors = map[SortKey]func(*models.SmartTrader) float64{
	SortScore:        func(t *models.SmartTrader) float64 { return t.Score },
	SortWinRate:      func(t *models.SmartTrader) float64 { return t.WinRateWindow },
	SortPnL:          func(t *models.SmartTrader) float64 { return t.PnLWindow },
	SortVolatility:   func(t *models.SmartTrader) float64 { return t.VolatilityWindow },
	SortMaxDrawdown:  func(t *models.SmartTrader) float64 { return t.MaxDrawdownWindow },
	SortPayoffRatio:  func(t *models.SmartTrader) float64 { return t.PayoffRatio },
	SortExpectancy:   func(t *models.SmartTrader) float64 { return t.Expectancy },
	SortTradesPerDay: func(t *models.SmartTrader) float64 { return t.TradesPerDay },
	SortWindowDays:   func(t *models.SmartTrader) float64 { return float64(t.WindowDays) },
	SortTraderID:     func(t *models.SmartTrader) float64 { return float64(t.TraderID) },
}

// SortKeys returns every sortable key in display order
func SortKeys() []SortKey {
	return []SortKey{
		SortScore, SortWinRate, SortPnL, SortVolatility, SortMaxDrawdown,
		SortPayoffRatio, SortExpectancy, SortTradesPerDay, SortWindowDays, SortTraderID,
	}
}

// ParseSortKey validates a user-supplied key
func ParseSortKey(raw string) (SortKey, error) {
	key := SortKey(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := extractors[key]; !ok {
		return SortNone, fmt.Errorf("%w: %q", ErrUnknownSortKey, raw)
	}
	return key, nil
}

// Value returns the numeric value of key for t; unknown keys read as 0
func (k SortKey) Value(t *models.SmartTrader) float64 {
	extract, ok := extractors[k]
	if !ok {
		return 0
	}
	return extract(t)
}

// SortTraders returns a stably sorted copy of traders
func SortTraders(traders []models.SmartTrader, key SortKey, descending bool) []models.SmartTrader {
	out := append([]models.SmartTrader{}, traders...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := key.Value(&out[i]), key.Value(&out[j])
		if descending {
			return a > b
		}
		return a < b
	})
	return out
}
