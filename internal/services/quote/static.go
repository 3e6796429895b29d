package quote

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/navfolio/internal/models"
)

// ErrPriceUnavailable is returned when a provider has no price for an instrument.
var ErrPriceUnavailable = errors.New("price unavailable")

// StaticProvider serves fixed prices, typically the [prices.overrides]
// table of the config file. Lookups are case-insensitive.
type StaticProvider struct {
	prices map[string]decimal.Decimal
}

// NewStaticProvider builds a provider from instrument -> price pairs.
// Non-positive prices are ignored.
func NewStaticProvider(overrides map[string]float64) *StaticProvider {
	p := &StaticProvider{prices: make(map[string]decimal.Decimal, len(overrides))}
	for id, price := range overrides {
		if price <= 0 {
			continue
		}
		p.prices[normalise(id)] = decimal.NewFromFloat(price)
	}
	return p
}

// Len returns the number of configured prices.
func (p *StaticProvider) Len() int {
	return len(p.prices)
}

// GetPrice returns the configured price.
func (p *StaticProvider) GetPrice(_ context.Context, instrument string) (*models.PriceQuote, error) {
	price, ok := p.prices[normalise(instrument)]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no override", ErrPriceUnavailable, instrument)
	}
	return &models.PriceQuote{
		Instrument: instrument,
		Price:      price,
		Source:     "static",
	}, nil
}

func normalise(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
