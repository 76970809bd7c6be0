package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"github.com/yourusername/backtest-console/internal/form"
	"github.com/yourusername/backtest-console/internal/models"
	"github.com/yourusername/backtest-console/internal/preset"
	"github.com/yourusername/backtest-console/internal/risk"
	"github.com/yourusername/backtest-console/internal/summary"
	"github.com/yourusername/backtest-console/internal/universe"
)

var hundred = decimal.NewFromInt(100)

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func percent(v float64) string {
	return decimal.NewFromFloat(v).Mul(hundred).StringFixed(2) + "%"
}

func number(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	return table
}

// runLabel is the strategy label shown for a run
func runLabel(run models.BacktestRun, presets *preset.Registry) string {
	if run.StrategyName != nil && *run.StrategyName != "" {
		return *run.StrategyName
	}
	key := run.PresetKey()
	if name := presets.DisplayName(key); name != nil {
		return *name
	}
	if key == "" || key == preset.CustomID {
		return preset.CustomLabel
	}
	return key
}

func renderRuns(w io.Writer, runs []models.BacktestRun, active *models.BacktestRun, presets *preset.Registry) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No backtest runs.")
		return
	}

	table := newTable(w, "", "ID", "Range", "Strategy", "Final Equity", "Return", "Max DD", "Trades", "Win Rate")
	for _, run := range runs {
		marker := ""
		if active != nil && active.ID == run.ID {
			marker = "*"
		}
		table.Append([]string{
			marker,
			strconv.FormatInt(run.ID, 10),
			run.StartDate + " → " + run.EndDate,
			runLabel(run, presets),
			money(run.FinalEquity),
			percent(run.TotalReturnPct),
			percent(run.MaxDrawdownPct),
			strconv.Itoa(run.TotalTrades),
			percent(run.WinRate),
		})
	}
	table.Render()
}

func renderRun(w io.Writer, run models.BacktestRun, presets *preset.Registry) {
	table := newTable(w, "Field", "Value")
	table.AppendBulk([][]string{
		{"ID", strconv.FormatInt(run.ID, 10)},
		{"Name", orDash(run.Name)},
		{"Strategy", runLabel(run, presets)},
		{"Preset", orDash(run.PresetID)},
		{"Range", run.StartDate + " → " + run.EndDate},
		{"Initial Equity", money(run.InitialEquity)},
		{"Final Equity", money(run.FinalEquity)},
		{"Total Return", percent(run.TotalReturnPct)},
		{"Max Drawdown", percent(run.MaxDrawdownPct)},
		{"Total Trades", strconv.Itoa(run.TotalTrades)},
		{"Win Rate", percent(run.WinRate)},
	})
	if run.CreatedAt != nil {
		table.Append([]string{"Created", run.CreatedAt.Format("2006-01-02 15:04:05")})
	}
	table.Render()

	if !run.HasDetail() {
		fmt.Fprintln(w, "Detail not loaded.")
		return
	}

	if len(run.EquityCurve) > 0 {
		c := summary.AnalyzeCurve(run.EquityCurve)
		fmt.Fprintf(w, "Equity curve: %d points, %s → %s (low %s, high %s, max drawdown %s, volatility %s)\n",
			c.Points, money(c.Start), money(c.End), money(c.Low), money(c.High), percent(c.MaxDrawdown), number(c.Volatility, 4))
	}

	if len(run.ParamsSnapshot) > 0 {
		fmt.Fprintf(w, "Params: %s\n", string(run.ParamsSnapshot))
	}

	if len(run.TradesSummary) > 0 {
		trades := newTable(w, "Symbol", "Side", "R", "Realized PnL")
		for _, t := range run.TradesSummary {
			trades.Append([]string{t.Symbol, t.Side, number(t.R, 2), money(t.RealizedPnL)})
		}
		trades.Render()
	}
}

func renderSummary(w io.Writer, stats []summary.Stats) {
	if len(stats) == 0 {
		fmt.Fprintln(w, "No runs to summarize.")
		return
	}

	table := newTable(w, "Preset", "Strategy", "Runs", "Avg Return", "Avg Max DD")
	for _, s := range stats {
		table.Append([]string{s.Key, s.Name, strconv.Itoa(s.Count), percent(s.AvgReturn), percent(s.AvgMaxDD)})
	}
	table.Render()
}

func renderPresets(w io.Writer, presets []preset.Preset, selected string) {
	table := newTable(w, "", "ID", "Name", "Window", "Min Score", "Min Trades/Day", "Time Window", "Range Width", "Min Traders", "Notional", "Equity", "Fee (bps)")
	for _, p := range presets {
		marker := ""
		if p.ID == selected {
			marker = "*"
		}
		params := p.Params
		table.Append([]string{
			marker,
			p.ID,
			p.Name,
			strconv.Itoa(params.WindowDays),
			number(params.MinScore, 2),
			number(params.MinTradesPerDay, 2),
			strconv.Itoa(params.Strategy.TimeWindowSeconds) + "s",
			percent(params.Strategy.PriceRangeWidthPct),
			strconv.Itoa(params.Strategy.MinSmartTraders),
			money(params.Execution.NotionalPerSignal),
			money(params.Execution.InitialEquity),
			number(params.Execution.FeeRateBps, 1),
		})
	}
	marker := ""
	if selected == preset.CustomID {
		marker = "*"
	}
	table.Append([]string{marker, preset.CustomID, preset.CustomLabel, "", "", "", "", "", "", "", "", ""})
	table.Render()
}

func renderForm(w io.Writer, f *form.Form, presets *preset.Registry) {
	label := preset.CustomLabel
	if name := presets.DisplayName(f.PresetID()); name != nil {
		label = *name
	}
	fmt.Fprintf(w, "Preset: %s (%s)\n", f.PresetID(), label)

	req := f.Request()
	table := newTable(w, "Field", "Value")
	for _, path := range form.FieldPaths() {
		table.Append([]string{path, fmt.Sprint(form.FieldValue(req, path))})
	}
	table.Render()

	if f.DateOrderWarning() {
		fmt.Fprintln(w, "Warning: start_date is after end_date.")
	}
}

func renderTraders(w io.Writer, traders []models.SmartTrader, state universe.SortState) {
	if len(traders) == 0 {
		fmt.Fprintln(w, "No traders match the filter.")
		return
	}
	if state.Key != universe.SortNone {
		direction := "asc"
		if state.Descending {
			direction = "desc"
		}
		fmt.Fprintf(w, "Sorted by %s (%s)\n", state.Key, direction)
	}

	table := newTable(w, "Trader", "Address", "Window", "Score", "Win Rate", "PnL", "Volatility", "Max DD", "Payoff", "Expectancy", "Trades/Day")
	for _, t := range traders {
		table.Append([]string{
			strconv.FormatInt(t.TraderID, 10),
			t.Address,
			strconv.Itoa(t.WindowDays),
			number(t.Score, 4),
			percent(t.WinRateWindow),
			money(t.PnLWindow),
			number(t.VolatilityWindow, 4),
			percent(t.MaxDrawdownWindow),
			number(t.PayoffRatio, 2),
			number(t.Expectancy, 4),
			number(t.TradesPerDay, 2),
		})
	}
	table.Render()
}

func renderTrader(w io.Writer, t models.SmartTrader) {
	table := newTable(w, "Field", "Value")
	table.AppendBulk([][]string{
		{"Trader", strconv.FormatInt(t.TraderID, 10)},
		{"Address", t.Address},
		{"Window Days", strconv.Itoa(t.WindowDays)},
		{"Score", number(t.Score, 4)},
		{"Win Rate", percent(t.WinRateWindow)},
		{"PnL", money(t.PnLWindow)},
		{"Volatility", number(t.VolatilityWindow, 4)},
		{"Max Drawdown", percent(t.MaxDrawdownWindow)},
		{"Payoff Ratio", number(t.PayoffRatio, 2)},
		{"Expectancy", number(t.Expectancy, 4)},
		{"Trades/Day", number(t.TradesPerDay, 2)},
	})
	table.Render()
}

func renderRisk(w io.Writer, state risk.State) {
	switch state.Phase {
	case risk.Loading:
		fmt.Fprintln(w, "Risk status: loading...")
		return
	case risk.Error:
		fmt.Fprintf(w, "Risk status: %s\n", state.Message)
		return
	}

	s := state.Status
	triggered := "no"
	if s.RiskTriggered {
		triggered = "YES"
	}
	table := newTable(w, "Field", "Value")
	table.AppendBulk([][]string{
		{"Current Equity", money(s.CurrentEquity)},
		{"Max Drawdown", percent(s.MaxDrawdownPct) + " (" + money(s.MaxDrawdownAbs) + ")"},
		{"Drawdown Limit", percent(s.Config.MaxDrawdownPct)},
		{"Risk Triggered", triggered},
	})
	if s.Config.MaxLeveragePerSymbol != nil {
		table.Append([]string{"Max Leverage/Symbol", number(*s.Config.MaxLeveragePerSymbol, 2)})
	}
	if s.Config.MaxPositionSizePerSymbol != nil {
		table.Append([]string{"Max Position/Symbol", money(*s.Config.MaxPositionSizePerSymbol)})
	}
	if s.LastEvent != nil {
		table.Append([]string{"Last Event", s.LastEvent.EventType + " @ " + s.LastEvent.CreatedAt.Format("2006-01-02 15:04:05")})
	}
	table.Render()
}
