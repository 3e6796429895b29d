package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReturnStatus reports whether the annualised return could be computed
type ReturnStatus string

const (
	ReturnStatusOK          ReturnStatus = "ok"
	ReturnStatusUnavailable ReturnStatus = "unavailable"
)

// HoldingValuation is the terminal state of one holding after all of its
// transactions were applied and its current price attached.
type HoldingValuation struct {
	Key            HoldingKey      `json:"key"`
	NetUnits       decimal.Decimal `json:"net_units"`
	CurrentPrice   decimal.Decimal `json:"current_price"`
	Priced         bool            `json:"priced"`
	CurrentValue   decimal.Decimal `json:"current_value"`
	CostBasis      decimal.Decimal `json:"cost_basis"` // sum of units x unit price over open lots
	RealizedGain   decimal.Decimal `json:"realized_gain"`
	UnrealizedGain decimal.Decimal `json:"unrealized_gain"`
	OpenLots       int             `json:"open_lots"`
	Transactions   int             `json:"transactions"`
	Closed         bool            `json:"closed"`   // no units left
	Unpriced       bool            `json:"unpriced"` // units left but no current price
}

// TotalGain is realized plus unrealized gain.
func (h HoldingValuation) TotalGain() decimal.Decimal {
	return h.RealizedGain.Add(h.UnrealizedGain)
}

// Valuation is the result of one run over a transaction set.
type Valuation struct {
	RunID               string             `json:"run_id,omitempty"`
	AsOf                time.Time          `json:"as_of"`
	Holdings            []HoldingValuation `json:"holdings"`
	TotalValue          decimal.Decimal    `json:"total_value"`
	TotalCostBasis      decimal.Decimal    `json:"total_cost_basis"` // priced open holdings only
	TotalRealizedGain   decimal.Decimal    `json:"total_realized_gain"`
	TotalUnrealizedGain decimal.Decimal    `json:"total_unrealized_gain"`
	TotalGain           decimal.Decimal    `json:"total_gain"`
	AnnualizedReturn    *float64           `json:"annualized_return"` // nil when unavailable, 0.12 = 12%
	ReturnStatus        ReturnStatus       `json:"return_status"`
	CashFlows           []CashFlowEvent    `json:"cash_flows,omitempty"`
	Warnings            []Warning          `json:"warnings,omitempty"`
}

// Holding returns the valuation of one holding.
func (v *Valuation) Holding(key HoldingKey) (*HoldingValuation, bool) {
	for i := range v.Holdings {
		if v.Holdings[i].Key == key {
			return &v.Holdings[i], true
		}
	}
	return nil, false
}

// AddWarning appends a warning to the run output.
func (v *Valuation) AddWarning(w Warning) {
	v.Warnings = append(v.Warnings, w)
}

// WarningsOf returns the warnings of one kind.
func (v *Valuation) WarningsOf(kind WarningKind) []Warning {
	var out []Warning
	for _, w := range v.Warnings {
		if w.Kind == kind {
			out = append(out, w)
		}
	}
	return out
}

// UnpricedHoldings lists the open holdings that had no current price.
func (v *Valuation) UnpricedHoldings() []HoldingKey {
	var out []HoldingKey
	for _, h := range v.Holdings {
		if h.Unpriced {
			out = append(out, h.Key)
		}
	}
	return out
}
