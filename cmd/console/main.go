// Package main provides the backtest console command line client.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/backtest-console/internal/api"
	"github.com/yourusername/backtest-console/internal/config"
	"github.com/yourusername/backtest-console/internal/form"
	"github.com/yourusername/backtest-console/internal/logger"
	"github.com/yourusername/backtest-console/internal/metrics"
	"github.com/yourusername/backtest-console/internal/preset"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile string
	envFile    string
	logLevel   string
)

// app holds the dependencies shared by every command
type app struct {
	cfg     *config.Config
	logger  *logrus.Logger
	client  *api.Client
	presets *preset.Registry
	out     io.Writer
}

var console = &app{out: os.Stdout}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to configuration file (optional)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file (ignored when missing)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")

	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(riskCmd)
	rootCmd.AddCommand(newRunsCmd())
	rootCmd.AddCommand(newUniverseCmd())
	rootCmd.AddCommand(newShellCmd())
	rootCmd.AddCommand(versionCmd)
}

var rootCmd = &cobra.Command{
	Use:           "console",
	Short:         "Backtest console client",
	Long:          `Submit backtests, browse run history and inspect the smart trader universe of a backtest service.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd == versionCmd {
			return nil
		}
		if err := console.setup(); err != nil {
			return fmt.Errorf("failed to initialize: %w", err)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(console.out, "console %s (%s)\n", Version, GitCommit)
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func (a *app) setup() error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}

	cfg, err := config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.App.LogLevel = logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	a.presets = preset.Default()
	a.client = api.NewClient(cfg, a.logger)
	metrics.InitRegistry()

	a.logger.WithFields(logrus.Fields{
		"base_url":    cfg.GetAPIBaseURL(),
		"environment": cfg.App.Environment,
	}).Debug("Console initialized")
	return nil
}

// newForm builds a form from the configured preset and date range
func (a *app) newForm() *form.Form {
	end := time.Now()
	start := end.AddDate(0, 0, -a.cfg.Console.DefaultRangeDays)
	return form.New(a.presets, a.cfg.Console.DefaultPreset, start, end)
}
