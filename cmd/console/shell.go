package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/yourusername/backtest-console/internal/form"
	"github.com/yourusername/backtest-console/internal/health"
	"github.com/yourusername/backtest-console/internal/metrics"
	"github.com/yourusername/backtest-console/internal/models"
	"github.com/yourusername/backtest-console/internal/risk"
	"github.com/yourusername/backtest-console/internal/session"
	"github.com/yourusername/backtest-console/internal/summary"
	"github.com/yourusername/backtest-console/internal/universe"
)

const shellHelp = `Commands:
  history                      reload the backtest history
  runs                         show the loaded history
  select <id>                  make a run active and load its detail
  preset [id]                  list presets or select one
  set <path> <value>           edit one form field
  form                         show the form
  submit                       submit the form as a new backtest
  summary [preset]             per-preset averages of the history
  universe [min_score] [min_trades_per_day] [min_payoff_ratio]
                               reload the smart trader universe
  sort <key>                   sort traders (repeat to flip direction)
  trader <id>                  show one loaded trader
  risk [refresh]               show or reload the risk status
  help                         show this help
  quit                         leave the shell
`

func newShellCmd() *cobra.Command {
	var serveMetrics bool
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive console session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if serveMetrics || console.cfg.Metrics.Enabled {
				srv := health.NewServer(health.Config{
					ServiceName:    console.cfg.App.Name,
					Version:        Version,
					Port:           console.cfg.Metrics.Port,
					MetricsPath:    console.cfg.Metrics.Path,
					MetricsHandler: metrics.Handler(),
					Backend:        console.client,
					Logger:         console.logger,
				})
				if err := srv.Start(ctx); err != nil {
					return err
				}
				defer srv.Shutdown()
				srv.SetReady(true)
			}

			sh := newShell(console, os.Stdin, console.out)
			sh.start(ctx)
			return sh.run(ctx)
		},
	}
	cmd.Flags().BoolVar(&serveMetrics, "serve-metrics", false, "Serve health and metrics endpoints while the shell runs")
	return cmd
}

// shell is one interactive session; it owns a controller, an engine and a poller
type shell struct {
	app    *app
	in     io.Reader
	out    io.Writer
	form   *form.Form
	ctrl   *session.Controller
	engine *universe.Engine
	poller *risk.Poller
}

func newShell(a *app, in io.Reader, out io.Writer) *shell {
	sh := &shell{
		app:    a,
		in:     in,
		out:    out,
		form:   a.newForm(),
		ctrl:   session.New(a.client, a.presets, a.logger),
		engine: universe.NewEngine(a.client, a.universeFilter(), a.logger),
		poller: risk.NewPoller(a.client, a.logger),
	}

	submitting := false
	_ = sh.ctrl.Subscribe(func(s session.Snapshot) {
		if s.IsSubmitting && !submitting {
			fmt.Fprintln(sh.out, "Submitting backtest...")
		}
		submitting = s.IsSubmitting
	})
	return sh
}

// start performs the initial loads of a session
func (s *shell) start(ctx context.Context) {
	if s.app.cfg.Console.LoadHistory {
		if err := s.ctrl.LoadHistory(ctx); err != nil {
			fmt.Fprintln(s.out, "Could not load backtest history.")
		}
	}
	go s.poller.Start(ctx)
}

func (s *shell) run(ctx context.Context) error {
	fmt.Fprintln(s.out, "Backtest console. Type 'help' for commands.")

	scanner := bufio.NewScanner(s.in)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		if !s.exec(ctx, scanner.Text()) {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// exec runs one command line and reports whether the shell should continue
func (s *shell) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit", "q":
		return false
	case "help", "?":
		fmt.Fprint(s.out, shellHelp)
	case "history":
		s.history(ctx)
	case "runs":
		snap := s.ctrl.Snapshot()
		renderRuns(s.out, snap.Runs, snap.ActiveRun, s.app.presets)
	case "select":
		s.selectRun(ctx, args)
	case "preset":
		s.preset(args)
	case "set":
		s.set(args)
	case "form":
		renderForm(s.out, s.form, s.app.presets)
	case "submit":
		s.submit(ctx)
	case "summary":
		s.summary(args)
	case "universe":
		s.universe(ctx, args)
	case "sort":
		s.sort(args)
	case "trader":
		s.trader(args)
	case "risk":
		if len(args) > 0 && args[0] == "refresh" {
			s.poller.Start(ctx)
		}
		renderRisk(s.out, s.poller.State())
	default:
		fmt.Fprintf(s.out, "Unknown command %q. Type 'help' for commands.\n", cmd)
	}
	return true
}

func (s *shell) history(ctx context.Context) {
	if err := s.ctrl.LoadHistory(ctx); err != nil {
		fmt.Fprintf(s.out, "Error: %s\n", s.ctrl.Snapshot().LastError.Message())
		return
	}
	snap := s.ctrl.Snapshot()
	renderRuns(s.out, snap.Runs, snap.ActiveRun, s.app.presets)
}

func (s *shell) selectRun(ctx context.Context, args []string) {
	id, ok := parseID(s.out, args)
	if !ok {
		return
	}
	run, found := s.ctrl.FindRun(id)
	if !found {
		run = models.BacktestRun{ID: id}
	}
	renderRun(s.out, s.ctrl.SelectRun(ctx, run), s.app.presets)
}

func (s *shell) summary(args []string) {
	all := s.ctrl.Summary()
	if len(args) == 0 {
		renderSummary(s.out, all)
		return
	}
	group, ok := summary.ByKey(all)[args[0]]
	if !ok {
		fmt.Fprintf(s.out, "No runs for preset %q.\n", args[0])
		return
	}
	renderSummary(s.out, []summary.Stats{group})
}

func (s *shell) preset(args []string) {
	if len(args) == 0 {
		renderPresets(s.out, s.app.presets.List(), s.form.PresetID())
		return
	}
	if err := s.form.SelectPreset(args[0]); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	renderForm(s.out, s.form, s.app.presets)
}

func (s *shell) set(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.out, "Usage: set <path> <value>")
		return
	}
	path := args[0]
	if !form.IsKnownField(path) {
		fmt.Fprintf(s.out, "Unknown field %q. Known fields: %s\n", path, strings.Join(form.FieldPaths(), ", "))
		return
	}
	s.form.Set(path, strings.Join(args[1:], " "))
	fmt.Fprintf(s.out, "%s = %v\n", path, form.FieldValue(s.form.Request(), path))
	if s.form.DateOrderWarning() {
		fmt.Fprintln(s.out, "Warning: start_date is after end_date.")
	}
}

func (s *shell) submit(ctx context.Context) {
	req, presetID := s.form.Submission()
	if s.form.DateOrderWarning() {
		s.app.logger.Warn("start_date is after end_date, submitting anyway")
	}

	err := s.ctrl.Submit(ctx, req, presetID)
	switch {
	case errors.Is(err, session.ErrSubmitInProgress):
		fmt.Fprintln(s.out, "A submission is already in progress.")
		return
	case err != nil:
		fmt.Fprintf(s.out, "Error: %s\n", s.ctrl.Snapshot().LastError.Message())
		return
	}

	if active := s.ctrl.Snapshot().ActiveRun; active != nil {
		renderRun(s.out, *active, s.app.presets)
	}
}

func (s *shell) universe(ctx context.Context, args []string) {
	filter := s.engine.Filter()
	if len(args) > 0 {
		filter.MinScore = cast.ToFloat64(args[0])
	}
	if len(args) > 1 {
		filter.MinTradesPerDay = cast.ToFloat64(args[1])
	}
	if len(args) > 2 {
		filter.MinPayoffRatio = cast.ToFloat64(args[2])
	}

	if err := s.engine.Refresh(ctx, filter); err != nil {
		fmt.Fprintf(s.out, "Error: %s\n", s.engine.LastError())
		return
	}
	renderTraders(s.out, s.engine.Traders(), s.engine.SortState())
}

func (s *shell) sort(args []string) {
	if len(args) == 0 {
		fmt.Fprintf(s.out, "Usage: sort <key> (%s)\n", joinSortKeys())
		return
	}
	key, err := universe.ParseSortKey(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	s.engine.Sort(key)
	renderTraders(s.out, s.engine.Traders(), s.engine.SortState())
}

func (s *shell) trader(args []string) {
	id, ok := parseID(s.out, args)
	if !ok {
		return
	}
	if !s.engine.Select(id) {
		fmt.Fprintf(s.out, "Trader %d is not loaded.\n", id)
		return
	}
	trader, _ := s.engine.Selected()
	renderTrader(s.out, trader)
}

func parseID(out io.Writer, args []string) (int64, bool) {
	if len(args) == 0 {
		fmt.Fprintln(out, "Usage: <command> <id>")
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Fprintf(out, "Invalid id %q\n", args[0])
		return 0, false
	}
	return id, true
}
