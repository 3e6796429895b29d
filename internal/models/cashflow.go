package models

import "time"

// CashFlowKind identifies what produced a cash flow event.
type CashFlowKind string

const (
	CashFlowPurchase   CashFlowKind = "purchase"
	CashFlowRedemption CashFlowKind = "redemption"
	CashFlowTerminal   CashFlowKind = "terminal"
)

// CashFlowEvent is one dated amount in the return calculation.
// Negative = money out of the investor's pocket (purchases),
// positive = money back (redemption proceeds, terminal market value).
type CashFlowEvent struct {
	Amount     float64      `json:"amount"`
	OccurredAt time.Time    `json:"occurred_at"`
	Holding    HoldingKey   `json:"holding"`
	Kind       CashFlowKind `json:"kind"`
}

// IsInflow returns true if the event returns money to the investor.
func (e CashFlowEvent) IsInflow() bool {
	return e.Amount > 0
}
