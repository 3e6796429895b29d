// Package common provides shared utilities for navfolio
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for navfolio
type Config struct {
	Environment string          `toml:"environment"`
	Valuation   ValuationConfig `toml:"valuation"`
	Clients     ClientsConfig   `toml:"clients"`
	Prices      PricesConfig    `toml:"prices"`
	Report      ReportConfig    `toml:"report"`
	Logging     LoggingConfig   `toml:"logging"`
}

// ValuationConfig holds valuation run settings
type ValuationConfig struct {
	AsOf string `toml:"as_of"` // valuation date (YYYY-MM-DD); empty means now
}

// GetAsOf parses the valuation date. The zero time means "now".
func (c *ValuationConfig) GetAsOf() (time.Time, error) {
	if strings.TrimSpace(c.AsOf) == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", strings.TrimSpace(c.AsOf))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid valuation as_of %q: %w", c.AsOf, err)
	}
	return t, nil
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	EODHD EODHDConfig `toml:"eodhd"`
}

// EODHDConfig holds EODHD API configuration
type EODHDConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	Exchange  string `toml:"exchange"` // symbol suffix appended to bare instrument ids, e.g. "EUFUND"
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *EODHDConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// PricesConfig controls the price lookup fan-out
type PricesConfig struct {
	Workers   int                `toml:"workers"`
	Timeout   string             `toml:"timeout"`   // per-instrument lookup timeout
	Overrides map[string]float64 `toml:"overrides"` // instrument -> fixed price, consulted before any API
}

// GetTimeout parses and returns the per-lookup timeout
func (c *PricesConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// GetWorkers returns the worker pool size, defaulting to 4.
func (c *PricesConfig) GetWorkers() int {
	if c.Workers <= 0 {
		return 4
	}
	return c.Workers
}

// Report formats
const (
	ReportFormatMarkdown = "markdown"
	ReportFormatPlain    = "plain"
	ReportFormatJSON     = "json"
)

// ReportConfig holds report rendering configuration
type ReportConfig struct {
	Format    string `toml:"format"`     // markdown, plain, json
	WordWrap  int    `toml:"word_wrap"`  // terminal width for rendered markdown
	ChartPath string `toml:"chart_path"` // optional PNG output
	Style     string `toml:"style"`      // glamour style (dark, light, notty); empty detects from the terminal
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Format     string   `toml:"format"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Clients: ClientsConfig{
			EODHD: EODHDConfig{
				BaseURL:   "https://eodhd.com/api",
				Exchange:  "EUFUND",
				RateLimit: 10,
				Timeout:   "30s",
			},
		},
		Prices: PricesConfig{
			Workers: 4,
			Timeout: "10s",
		},
		Report: ReportConfig{
			Format:   ReportFormatMarkdown,
			WordWrap: 100,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			Outputs:    []string{"console"},
			FilePath:   "./logs/navfolio.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	config.Normalize()

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("NAVFOLIO_ENV"); env != "" {
		config.Environment = env
	}

	if level := os.Getenv("NAVFOLIO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	for _, name := range []string{"EODHD_API_KEY", "NAVFOLIO_EODHD_API_KEY"} {
		if key := os.Getenv(name); key != "" {
			config.Clients.EODHD.APIKey = key
			break
		}
	}

	if workers := os.Getenv("NAVFOLIO_PRICE_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			config.Prices.Workers = w
		}
	}

	if timeout := os.Getenv("NAVFOLIO_PRICE_TIMEOUT"); timeout != "" {
		config.Prices.Timeout = timeout
	}

	if format := os.Getenv("NAVFOLIO_REPORT_FORMAT"); format != "" {
		config.Report.Format = format
	}

	if style := os.Getenv("NAVFOLIO_REPORT_STYLE"); style != "" {
		config.Report.Style = style
	}
}

// Normalize validates enumerated settings after files, env and flags were applied.
func (c *Config) Normalize() {
	validateReportFormat(c)
}

// validateReportFormat normalises the report format, defaulting to markdown.
func validateReportFormat(config *Config) {
	f := strings.ToLower(strings.TrimSpace(config.Report.Format))
	switch f {
	case ReportFormatMarkdown, ReportFormatPlain, ReportFormatJSON:
	default:
		f = ReportFormatMarkdown
	}
	config.Report.Format = f
}
