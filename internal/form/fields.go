// Package form implements the editable backtest parameter form.
package form

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/yourusername/backtest-console/internal/models"
)

// Field paths of the request schema
const (
	FieldStartDate          = "start_date"
	FieldEndDate            = "end_date"
	FieldWindowDays         = "params.window_days"
	FieldMinScore           = "params.min_score"
	FieldMinTradesPerDay    = "params.min_trades_per_day"
	FieldTimeWindowSeconds  = "params.strategy.time_window_seconds"
	FieldPriceRangeWidthPct = "params.strategy.price_range_width_pct"
	FieldMinSmartTraders    = "params.strategy.min_smart_traders"
	FieldNotionalPerSignal  = "params.execution.notional_per_signal"
	FieldInitialEquity      = "params.execution.initial_equity"
	FieldFeeRateBps         = "params.execution.fee_rate_bps"
)

type setter func(req *models.BacktestRequest, raw interface{})

var fieldOrder = []string{
	FieldStartDate,
	FieldEndDate,
	FieldWindowDays,
	FieldMinScore,
	FieldMinTradesPerDay,
	FieldTimeWindowSeconds,
	FieldPriceRangeWidthPct,
	FieldMinSmartTraders,
	FieldNotionalPerSignal,
	FieldInitialEquity,
	FieldFeeRateBps,
}

var setters = map[string]setter{
	FieldStartDate:          func(r *models.BacktestRequest, v interface{}) { r.StartDate = toDate(v) },
	FieldEndDate:            func(r *models.BacktestRequest, v interface{}) { r.EndDate = toDate(v) },
	FieldWindowDays:         func(r *models.BacktestRequest, v interface{}) { r.Params.WindowDays = toInt(v) },
	FieldMinScore:           func(r *models.BacktestRequest, v interface{}) { r.Params.MinScore = toFloat(v) },
	FieldMinTradesPerDay:    func(r *models.BacktestRequest, v interface{}) { r.Params.MinTradesPerDay = toFloat(v) },
	FieldTimeWindowSeconds:  func(r *models.BacktestRequest, v interface{}) { r.Params.Strategy.TimeWindowSeconds = toInt(v) },
	FieldPriceRangeWidthPct: func(r *models.BacktestRequest, v interface{}) { r.Params.Strategy.PriceRangeWidthPct = toFloat(v) },
	FieldMinSmartTraders:    func(r *models.BacktestRequest, v interface{}) { r.Params.Strategy.MinSmartTraders = toInt(v) },
	FieldNotionalPerSignal:  func(r *models.BacktestRequest, v interface{}) { r.Params.Execution.NotionalPerSignal = toFloat(v) },
	FieldInitialEquity:      func(r *models.BacktestRequest, v interface{}) { r.Params.Execution.InitialEquity = toFloat(v) },
	FieldFeeRateBps:         func(r *models.BacktestRequest, v interface{}) { r.Params.Execution.FeeRateBps = toFloat(v) },
}

// FieldPaths returns every editable field path in form order
func FieldPaths() []string {
	out := make([]string, len(fieldOrder))
	copy(out, fieldOrder)
	return out
}

// IsKnownField reports whether path belongs to the request schema
func IsKnownField(path string) bool {
	_, ok := setters[path]
	return ok
}

// UpdateField returns a copy of req with the leaf at path replaced by raw,
// coerced to the leaf's type. Unknown paths panic.
func UpdateField(req models.BacktestRequest, path string, raw interface{}) models.BacktestRequest {
	set, ok := setters[path]
	if !ok {
		panic(fmt.Sprintf("%v: %q", models.ErrUnknownField, path))
	}
	set(&req, raw)
	return req
}

// FieldValue returns the current value at path, for display
func FieldValue(req models.BacktestRequest, path string) interface{} {
	switch path {
	case FieldStartDate:
		return req.StartDate
	case FieldEndDate:
		return req.EndDate
	case FieldWindowDays:
		return req.Params.WindowDays
	case FieldMinScore:
		return req.Params.MinScore
	case FieldMinTradesPerDay:
		return req.Params.MinTradesPerDay
	case FieldTimeWindowSeconds:
		return req.Params.Strategy.TimeWindowSeconds
	case FieldPriceRangeWidthPct:
		return req.Params.Strategy.PriceRangeWidthPct
	case FieldMinSmartTraders:
		return req.Params.Strategy.MinSmartTraders
	case FieldNotionalPerSignal:
		return req.Params.Execution.NotionalPerSignal
	case FieldInitialEquity:
		return req.Params.Execution.InitialEquity
	case FieldFeeRateBps:
		return req.Params.Execution.FeeRateBps
	}
	panic(fmt.Sprintf("%v: %q", models.ErrUnknownField, path))
}

// toFloat coerces raw input; anything unparseable becomes 0
func toFloat(raw interface{}) float64 {
	if s, ok := raw.(string); ok {
		raw = strings.TrimSpace(s)
	}
	return cast.ToFloat64(raw)
}

// toInt truncates toward zero
func toInt(raw interface{}) int {
	return int(toFloat(raw))
}

func toDate(raw interface{}) string {
	if t, ok := raw.(time.Time); ok {
		return t.Format(models.DateLayout)
	}
	return strings.TrimSpace(cast.ToString(raw))
}
