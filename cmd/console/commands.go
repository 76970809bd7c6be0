package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yourusername/backtest-console/internal/form"
	"github.com/yourusername/backtest-console/internal/models"
	"github.com/yourusername/backtest-console/internal/risk"
	"github.com/yourusername/backtest-console/internal/session"
	"github.com/yourusername/backtest-console/internal/summary"
	"github.com/yourusername/backtest-console/internal/universe"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the built-in parameter presets",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		renderPresets(console.out, console.presets.List(), console.cfg.Console.DefaultPreset)
	},
}

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Show the current risk engine status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state := risk.NewPoller(console.client, console.logger).Start(cmd.Context())
		renderRisk(console.out, state)
		if state.Phase == risk.Error {
			return fmt.Errorf("risk status unavailable")
		}
		return nil
	},
}

func newRunsCmd() *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "List, inspect and submit backtest runs",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the backtest history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl := session.New(console.client, console.presets, console.logger)
			if err := ctrl.LoadHistory(cmd.Context()); err != nil {
				return err
			}
			renderRuns(console.out, ctrl.Runs(), nil, console.presets)
			return nil
		},
	}

	var curveCSV bool
	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show the full detail of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run id %q", args[0])
			}
			run, err := console.client.GetBacktest(cmd.Context(), id)
			if err != nil {
				return err
			}
			if curveCSV {
				fmt.Fprint(console.out, summary.CurveCSV(run.EquityCurve))
				return nil
			}
			renderRun(console.out, run, console.presets)
			return nil
		},
	}
	showCmd.Flags().BoolVar(&curveCSV, "curve-csv", false, "Print the equity curve as CSV instead of the detail view")

	var (
		presetID string
		start    string
		end      string
		sets     []string
	)
	submitCmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a backtest built from a preset and field overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := console.newForm()
			if presetID != "" {
				if err := f.SelectPreset(presetID); err != nil {
					return err
				}
			}
			if start != "" {
				f.Set(form.FieldStartDate, start)
			}
			if end != "" {
				f.Set(form.FieldEndDate, end)
			}
			if err := applySets(f, sets); err != nil {
				return err
			}
			if f.DateOrderWarning() {
				console.logger.Warn("start_date is after end_date, submitting anyway")
			}

			ctrl := session.New(console.client, console.presets, console.logger)
			req, id := f.Submission()
			if err := ctrl.Submit(cmd.Context(), req, id); err != nil {
				return err
			}
			if active := ctrl.Snapshot().ActiveRun; active != nil {
				renderRun(console.out, *active, console.presets)
			}
			return nil
		},
	}
	submitCmd.Flags().StringVarP(&presetID, "preset", "p", "", "Preset id (defaults to console.default_preset)")
	submitCmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD)")
	submitCmd.Flags().StringVar(&end, "end", "", "End date (YYYY-MM-DD)")
	submitCmd.Flags().StringArrayVar(&sets, "set", nil, "Field override as path=value, repeatable")

	runsCmd.AddCommand(listCmd, showCmd, submitCmd)
	return runsCmd
}

func newUniverseCmd() *cobra.Command {
	var (
		minScore        float64
		minTradesPerDay float64
		minPayoffRatio  float64
		windowDays      int
		sortKey         string
		ascending       bool
	)
	cmd := &cobra.Command{
		Use:   "universe",
		Short: "List the smart trader universe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := console.universeFilter()
			if cmd.Flags().Changed("min-score") {
				filter.MinScore = minScore
			}
			if cmd.Flags().Changed("min-trades-per-day") {
				filter.MinTradesPerDay = minTradesPerDay
			}
			if cmd.Flags().Changed("min-payoff-ratio") {
				filter.MinPayoffRatio = minPayoffRatio
			}
			if cmd.Flags().Changed("window-days") {
				filter.WindowDays = windowDays
			}

			engine := universe.NewEngine(console.client, filter, console.logger)
			if err := engine.Refresh(cmd.Context(), filter); err != nil {
				return err
			}
			if sortKey != "" {
				key, err := universe.ParseSortKey(sortKey)
				if err != nil {
					return err
				}
				engine.Sort(key)
				if ascending {
					engine.Sort(key)
				}
			}
			renderTraders(console.out, engine.Traders(), engine.SortState())
			return nil
		},
	}
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "Minimum trader score")
	cmd.Flags().Float64Var(&minTradesPerDay, "min-trades-per-day", 0, "Minimum trades per day")
	cmd.Flags().Float64Var(&minPayoffRatio, "min-payoff-ratio", 0, "Minimum payoff ratio (0 disables the filter)")
	cmd.Flags().IntVar(&windowDays, "window-days", 0, "Scoring window in days (0 lets the service decide)")
	cmd.Flags().StringVar(&sortKey, "sort", "", "Sort key: "+joinSortKeys())
	cmd.Flags().BoolVar(&ascending, "asc", false, "Sort ascending instead of descending")
	return cmd
}

// universeFilter returns the configured default filter
func (a *app) universeFilter() models.UniverseFilter {
	return models.UniverseFilter{
		MinScore:        a.cfg.Universe.MinScore,
		MinTradesPerDay: a.cfg.Universe.MinTradesPerDay,
		MinPayoffRatio:  a.cfg.Universe.MinPayoffRatio,
		WindowDays:      a.cfg.Universe.WindowDays,
	}
}

// applySets applies path=value overrides to f
func applySets(f *form.Form, sets []string) error {
	for _, set := range sets {
		path, value, ok := strings.Cut(set, "=")
		path = strings.TrimSpace(path)
		if !ok {
			return fmt.Errorf("invalid override %q, expected path=value", set)
		}
		if !form.IsKnownField(path) {
			return fmt.Errorf("unknown field %q (known: %s)", path, strings.Join(form.FieldPaths(), ", "))
		}
		f.Set(path, value)
	}
	return nil
}

func joinSortKeys() string {
	keys := universe.SortKeys()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return strings.Join(out, ", ")
}
