package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RealTimeQuote holds a live OHLCV snapshot from a real-time price source
type RealTimeQuote struct {
	Code      string    `json:"code"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"` // current/last price
	Volume    int64     `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}

// EODBar represents a single day's price data
type EODBar struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adjusted_close"`
	Volume   int64     `json:"volume"`
}

// EODResponse represents the EODHD API response
type EODResponse struct {
	Data []EODBar `json:"data"`
}

// PriceQuote is the current per-unit price (NAV) of one instrument.
type PriceQuote struct {
	Instrument string          `json:"instrument"`
	Price      decimal.Decimal `json:"price"`
	Date       time.Time       `json:"date"`
	Source     string          `json:"source"` // "eodhd", "static"
}

// PriceMap holds the price lookups of a single run, keyed by instrument.
// A missing entry means the price is unknown.
type PriceMap map[string]PriceQuote

// Lookup returns the price of an instrument and whether it is known.
func (m PriceMap) Lookup(instrument string) (decimal.Decimal, bool) {
	if m == nil {
		return decimal.Zero, false
	}
	q, ok := m[instrument]
	if !ok {
		return decimal.Zero, false
	}
	return q.Price, true
}
