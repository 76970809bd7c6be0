// Package config provides configuration management for the backtest console.
package config

import (
	"strings"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app" validate:"required"`
	API      APIConfig      `mapstructure:"api" validate:"required"`
	Console  ConsoleConfig  `mapstructure:"console" validate:"required"`
	Universe UniverseConfig `mapstructure:"universe" validate:"required"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// APIConfig represents the remote backtest service connection
type APIConfig struct {
	BaseURL           string  `mapstructure:"base_url" validate:"required,url"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gte=0"`
	UserAgent         string  `mapstructure:"user_agent"`
}

// ConsoleConfig represents the defaults of the backtest form
type ConsoleConfig struct {
	DefaultPreset    string `mapstructure:"default_preset" validate:"required,presetid"`
	DefaultRangeDays int    `mapstructure:"default_range_days" validate:"required,gt=0"`
	LoadHistory      bool   `mapstructure:"load_history"`
}

// UniverseConfig represents the default smart universe filters
type UniverseConfig struct {
	WindowDays      int     `mapstructure:"window_days" validate:"gte=0"`
	MinScore        float64 `mapstructure:"min_score"`
	MinTradesPerDay float64 `mapstructure:"min_trades_per_day" validate:"gte=0"`
	MinPayoffRatio  float64 `mapstructure:"min_payoff_ratio" validate:"gte=0"`
}

// MetricsConfig represents metrics and health endpoint configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Path    string `mapstructure:"path"`
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Timeout returns the per-request timeout of the backtest service client
func (c *APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GetAPIBaseURL returns the base URL without a trailing slash
func (c *Config) GetAPIBaseURL() string {
	return strings.TrimRight(c.API.BaseURL, "/")
}
