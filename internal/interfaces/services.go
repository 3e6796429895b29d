// Package interfaces defines service contracts for navfolio
package interfaces

import (
	"context"

	"github.com/bobmcallan/navfolio/internal/models"
)

// PortfolioService values a transaction history
type PortfolioService interface {
	// Evaluate loads the source, prices its instruments and returns the
	// valuation with its annualised return and warnings
	Evaluate(ctx context.Context, source TransactionSource, provider PriceProvider) (*models.Valuation, error)
}

// QuoteService resolves current prices for a set of instruments
type QuoteService interface {
	// FetchPrices looks up every instrument concurrently. Instruments whose
	// lookup fails are absent from the returned map.
	FetchPrices(ctx context.Context, provider PriceProvider, instruments []string) models.PriceMap
}

// PriceProvider supplies the current price of one instrument
type PriceProvider interface {
	GetPrice(ctx context.Context, instrument string) (*models.PriceQuote, error)
}

// TransactionSource yields the full transaction history of one statement
type TransactionSource interface {
	Load(ctx context.Context) (*models.TransactionSet, error)
}

// Reporter renders a valuation
type Reporter interface {
	Report(ctx context.Context, v *models.Valuation) error
}
