// Package app wires configuration, clients and services into one runnable unit
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/navfolio/internal/clients/eodhd"
	"github.com/bobmcallan/navfolio/internal/common"
	"github.com/bobmcallan/navfolio/internal/interfaces"
	"github.com/bobmcallan/navfolio/internal/models"
	"github.com/bobmcallan/navfolio/internal/services/portfolio"
	"github.com/bobmcallan/navfolio/internal/services/quote"
	"github.com/bobmcallan/navfolio/internal/services/report"
	"github.com/bobmcallan/navfolio/internal/storage/statement"
)

// App holds the initialized clients and services for valuation runs.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	EODHDClient      interfaces.EODHDClient // nil without an API key
	PriceProvider    interfaces.PriceProvider
	QuoteService     interfaces.QuoteService
	PortfolioService interfaces.PortfolioService
	StartupTime      time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// resolveConfigPath checks the provided path, NAVFOLIO_CONFIG, the binary
// directory, then the development fallback.
func resolveConfigPath(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if env := os.Getenv("NAVFOLIO_CONFIG"); env != "" {
		return env
	}
	configPath = filepath.Join(getBinaryDir(), "navfolio.toml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return "config/navfolio.toml"
	}
	return configPath
}

// NewApp loads configuration and initializes all services. configPath may
// be empty, in which case the default resolution logic is used. overrides
// run after the config file and environment, so command-line flags win.
func NewApp(configPath string, overrides ...func(*common.Config)) (*App, error) {
	startupStart := time.Now()

	config, err := common.LoadConfig(resolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	for _, override := range overrides {
		override(config)
	}
	config.Normalize()

	asOf, err := config.Valuation.GetAsOf()
	if err != nil {
		return nil, err
	}

	// Resolve relative log file path to binary directory
	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(getBinaryDir(), config.Logging.FilePath)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	// Price providers: static overrides first, then EODHD when a key is configured
	static := quote.NewStaticProvider(config.Prices.Overrides)
	providers := []interfaces.PriceProvider{static}
	logger.Debug().Int("overrides", static.Len()).Msg("Price overrides loaded")

	var eodhdClient *eodhd.Client
	if config.Clients.EODHD.APIKey != "" {
		opts := []eodhd.ClientOption{
			eodhd.WithLogger(logger),
			eodhd.WithRateLimit(config.Clients.EODHD.RateLimit),
			eodhd.WithTimeout(config.Clients.EODHD.GetTimeout()),
			eodhd.WithExchange(config.Clients.EODHD.Exchange),
		}
		if config.Clients.EODHD.BaseURL != "" {
			opts = append(opts, eodhd.WithBaseURL(config.Clients.EODHD.BaseURL))
		}
		eodhdClient = eodhd.NewClient(config.Clients.EODHD.APIKey, opts...)
		providers = append(providers, eodhdClient)
	} else {
		logger.Warn().Msg("EODHD API key not configured - only price overrides will be used")
	}

	quoteService := quote.NewService(logger,
		quote.WithWorkers(config.Prices.GetWorkers()),
		quote.WithTimeout(config.Prices.GetTimeout()),
	)
	portfolioService := portfolio.NewService(quoteService, logger, portfolio.WithAsOf(asOf))

	a := &App{
		Config:           config,
		Logger:           logger,
		PriceProvider:    quote.NewChainProvider(providers...),
		QuoteService:     quoteService,
		PortfolioService: portfolioService,
		StartupTime:      startupStart,
	}
	if eodhdClient != nil {
		a.EODHDClient = eodhdClient
	}

	logger.Debug().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// Evaluate values the statement at path.
func (a *App) Evaluate(ctx context.Context, path string) (*models.Valuation, error) {
	source, err := statement.Open(path, a.Logger)
	if err != nil {
		return nil, err
	}
	return a.PortfolioService.Evaluate(ctx, source, a.PriceProvider)
}

// Run values the statement at path and writes the report to w.
func (a *App) Run(ctx context.Context, path string, w io.Writer) error {
	v, err := a.Evaluate(ctx, path)
	if err != nil {
		return err
	}

	reporter := report.NewService(w, a.Config.Report, a.Logger, report.WithStyle(a.Config.Report.Style))
	return reporter.Report(ctx, v)
}
