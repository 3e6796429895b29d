// Package quote resolves current instrument prices for one valuation run
package quote

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/bobmcallan/navfolio/internal/common"
	"github.com/bobmcallan/navfolio/internal/interfaces"
	"github.com/bobmcallan/navfolio/internal/models"
)

const (
	DefaultWorkers = 4
	DefaultTimeout = 10 * time.Second
)

// Option configures a Service
type Option func(*Service)

// WithWorkers bounds the number of concurrent lookups
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithTimeout bounds each individual lookup
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// Service implements QuoteService with a bounded worker pool. It keeps no
// cache: every call returns a fresh map scoped to the caller's run.
type Service struct {
	workers int
	timeout time.Duration
	logger  *common.Logger
}

// NewService creates a new quote service
func NewService(logger *common.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	s := &Service{
		workers: DefaultWorkers,
		timeout: DefaultTimeout,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchPrices looks every distinct instrument up once. Failed, empty or
// non-positive lookups are logged and left out of the result, so callers
// treat a missing entry as an unknown price.
func (s *Service) FetchPrices(ctx context.Context, provider interfaces.PriceProvider, instruments []string) models.PriceMap {
	prices := make(models.PriceMap)
	if provider == nil {
		return prices
	}

	ids := distinct(instruments)
	if len(ids) == 0 {
		return prices
	}

	workers := s.workers
	if workers > len(ids) {
		workers = len(ids)
	}

	jobs := make(chan string)
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				q, err := s.lookup(ctx, provider, id)
				if err != nil {
					s.logger.Warn().Err(err).Str("instrument", id).Msg("Price lookup failed")
					continue
				}
				if q == nil || !q.Price.IsPositive() {
					s.logger.Warn().Str("instrument", id).Msg("Price lookup returned no usable price")
					continue
				}
				if q.Instrument == "" {
					q.Instrument = id
				}
				mu.Lock()
				prices[id] = *q
				mu.Unlock()
			}
		}()
	}

feed:
	for _, id := range ids {
		select {
		case jobs <- id:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	s.logger.Info().
		Int("requested", len(ids)).
		Int("priced", len(prices)).
		Int("workers", workers).
		Msg("Price lookups complete")

	return prices
}

// lookup runs one provider call under the per-lookup timeout. A panicking
// provider is reported as a failed lookup.
func (s *Service) lookup(ctx context.Context, provider interfaces.PriceProvider, id string) (q *models.PriceQuote, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("instrument", id).
				Str("panic", fmt.Sprintf("%v", r)).
				Str("stack", string(debug.Stack())).
				Msg("Recovered from panic in price provider")
			q, err = nil, fmt.Errorf("price provider panicked: %v", r)
		}
	}()

	return provider.GetPrice(ctx, id)
}

func distinct(instruments []string) []string {
	seen := make(map[string]bool, len(instruments))
	var out []string
	for _, id := range instruments {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Ensure Service implements QuoteService
var _ interfaces.QuoteService = (*Service)(nil)
