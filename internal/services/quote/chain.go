package quote

import (
	"context"
	"errors"
	"fmt"

	"github.com/bobmcallan/navfolio/internal/interfaces"
	"github.com/bobmcallan/navfolio/internal/models"
)

// ChainProvider asks each provider in order and returns the first usable
// price. Static overrides go first so they win over the network.
type ChainProvider struct {
	providers []interfaces.PriceProvider
}

// NewChainProvider drops nil providers.
func NewChainProvider(providers ...interfaces.PriceProvider) *ChainProvider {
	c := &ChainProvider{}
	for _, p := range providers {
		if p != nil {
			c.providers = append(c.providers, p)
		}
	}
	return c
}

// GetPrice returns the first positive price, or every provider's error joined.
func (c *ChainProvider) GetPrice(ctx context.Context, instrument string) (*models.PriceQuote, error) {
	if len(c.providers) == 0 {
		return nil, fmt.Errorf("%w: no price providers configured", ErrPriceUnavailable)
	}

	var errs []error
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		q, err := p.GetPrice(ctx, instrument)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if q != nil && q.Price.IsPositive() {
			return q, nil
		}
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrPriceUnavailable, instrument)
	}
	return nil, errors.Join(errs...)
}

var (
	_ interfaces.PriceProvider = (*ChainProvider)(nil)
	_ interfaces.PriceProvider = (*StaticProvider)(nil)
)
