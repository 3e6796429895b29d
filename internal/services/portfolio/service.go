// Package portfolio provides lot accounting, valuation and return services
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/navfolio/internal/common"
	"github.com/bobmcallan/navfolio/internal/interfaces"
	"github.com/bobmcallan/navfolio/internal/models"
)

// ErrNoSource is returned when Evaluate is called without a transaction source.
var ErrNoSource = errors.New("no transaction source")

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithAsOf fixes the valuation date instead of using the wall clock.
func WithAsOf(asOf time.Time) ServiceOption {
	return func(s *Service) {
		if !asOf.IsZero() {
			s.now = func() time.Time { return asOf }
		}
	}
}

// Service implements PortfolioService
type Service struct {
	quotes interfaces.QuoteService
	logger *common.Logger
	now    func() time.Time // injectable clock for testing
}

// NewService creates a new portfolio service
func NewService(quotes interfaces.QuoteService, logger *common.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	s := &Service{
		quotes: quotes,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate runs one valuation: load, price, value, derive cash flows and
// solve the annualised return. Only a failure to load the source is fatal;
// everything after that degrades into warnings on the returned valuation.
func (s *Service) Evaluate(ctx context.Context, source interfaces.TransactionSource, provider interfaces.PriceProvider) (*models.Valuation, error) {
	if source == nil {
		return nil, ErrNoSource
	}

	runID := uuid.New().String()
	s.logger.Info().Str("run_id", runID).Msg("Loading transactions")

	set, err := source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	instruments := set.Instruments()
	prices := models.PriceMap{}
	if s.quotes != nil && provider != nil && len(instruments) > 0 {
		prices = s.quotes.FetchPrices(ctx, provider, instruments)
	}

	s.logger.Info().
		Str("run_id", runID).
		Int("transactions", len(set.Transactions)).
		Int("instruments", len(instruments)).
		Int("priced", len(prices)).
		Msg("Prices resolved")

	lookup := PricesFrom(prices)
	engine := NewEngine(s.logger, WithClock(s.now))
	v := engine.Value(set.Transactions, lookup)
	v.RunID = runID
	if len(set.Skipped) > 0 {
		v.Warnings = append(append([]models.Warning{}, set.Skipped...), v.Warnings...)
	}

	v.CashFlows = BuildCashFlows(set.Transactions, v, lookup)

	rate, err := SolveXIRR(v.CashFlows)
	if err != nil {
		v.ReturnStatus = models.ReturnStatusUnavailable
		v.AddWarning(models.Warning{
			Kind:    models.WarningNonConvergentReturn,
			Message: err.Error(),
		})
		s.logger.Warn().Str("run_id", runID).Err(err).Int("cash_flows", len(v.CashFlows)).Msg("Annualised return unavailable")
	} else {
		v.AnnualizedReturn = &rate
		v.ReturnStatus = models.ReturnStatusOK
	}

	s.logger.Info().
		Str("run_id", runID).
		Int("holdings", len(v.Holdings)).
		Str("total_value", v.TotalValue.StringFixed(2)).
		Str("total_gain", v.TotalGain.StringFixed(2)).
		Str("return_status", string(v.ReturnStatus)).
		Int("warnings", len(v.Warnings)).
		Msg("Valuation complete")

	return v, nil
}
