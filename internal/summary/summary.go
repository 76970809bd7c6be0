// Package summary groups backtest runs by preset and averages their results.
package summary

import (
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/yourusername/backtest-console/internal/models"
	"github.com/yourusername/backtest-console/internal/preset"
)

// Stats is the aggregate of one preset group
type Stats struct {
	Key       string
	Name      string
	Count     int
	AvgReturn float64
	AvgMaxDD  float64
}

type group struct {
	name     string
	returns  []float64
	drawdown []float64
}

// Aggregate groups runs by preset id. Runs without a preset id fall under
// preset.CustomID. Groups follow catalogue order, then other keys sorted,
// with the custom group last.
func Aggregate(runs []models.BacktestRun, presets *preset.Registry) []Stats {
	groups := make(map[string]*group)
	for i := range runs {
		run := &runs[i]
		key := run.PresetKey()
		if key == "" {
			key = preset.CustomID
		}

		g, ok := groups[key]
		if !ok {
			g = &group{}
			groups[key] = g
		}
		if g.name == "" && run.StrategyName != nil {
			g.name = *run.StrategyName
		}
		g.returns = append(g.returns, run.TotalReturnPct)
		g.drawdown = append(g.drawdown, run.MaxDrawdownPct)
	}

	out := make([]Stats, 0, len(groups))
	for _, key := range orderedKeys(groups, presets) {
		g := groups[key]
		out = append(out, Stats{
			Key:       key,
			Name:      groupName(key, g.name, presets),
			Count:     len(g.returns),
			AvgReturn: mean(g.returns),
			AvgMaxDD:  mean(g.drawdown),
		})
	}
	return out
}

// ByKey indexes stats by group key
func ByKey(all []Stats) map[string]Stats {
	out := make(map[string]Stats, len(all))
	for _, s := range all {
		out[s.Key] = s
	}
	return out
}

func groupName(key, strategyName string, presets *preset.Registry) string {
	if strategyName != "" {
		return strategyName
	}
	if presets != nil {
		if name := presets.DisplayName(key); name != nil {
			return *name
		}
	}
	if key == preset.CustomID {
		return preset.CustomLabel
	}
	return key
}

func orderedKeys(groups map[string]*group, presets *preset.Registry) []string {
	keys := make([]string, 0, len(groups))
	seen := make(map[string]bool, len(groups))

	if presets != nil {
		for _, id := range presets.IDs() {
			if _, ok := groups[id]; ok {
				keys = append(keys, id)
				seen[id] = true
			}
		}
	}

	var rest []string
	for key := range groups {
		if !seen[key] && key != preset.CustomID {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	keys = append(keys, rest...)

	if _, ok := groups[preset.CustomID]; ok {
		keys = append(keys, preset.CustomID)
	}
	return keys
}

// mean returns 0 for an empty sample
func mean(values []float64) float64 {
	m, err := stats.Mean(values)
	if err != nil {
		return 0
	}
	return m
}
