package portfolio

import (
	"sort"

	"github.com/bobmcallan/navfolio/internal/models"
)

// BuildCashFlows derives the dated cash-flow series for the return solver:
//   - purchase: -units x unit price at the transaction date
//   - redemption: +units x the price realized at sale time (proceedsPrice)
//   - open priced holding: +current value at the valuation date
//
// Open holdings without a current price are left out entirely, purchases
// included, because their outflows would have no matching terminal value.
// Events are neither merged nor netted; they are returned in date order
// only for readability.
func BuildCashFlows(txns []models.Transaction, v *models.Valuation, prices PriceLookup) []models.CashFlowEvent {
	if prices == nil {
		prices = PricesFrom(nil)
	}

	var flows []models.CashFlowEvent
	for _, t := range chronological(txns) {
		if t.Validate() != nil {
			continue
		}
		if h, ok := v.Holding(t.Holding); ok && h.Unpriced {
			continue
		}

		if t.IsPurchase() {
			flows = append(flows, models.CashFlowEvent{
				Amount:     -t.Units.Mul(t.UnitPrice).InexactFloat64(),
				OccurredAt: t.TransactedAt,
				Holding:    t.Holding,
				Kind:       models.CashFlowPurchase,
			})
			continue
		}

		current, priced := prices(t.Holding)
		price, ok := proceedsPrice(t, current, priced)
		if !ok {
			// Already reported by the engine as an unsettled redemption.
			continue
		}
		flows = append(flows, models.CashFlowEvent{
			Amount:     t.Quantity().Mul(price).InexactFloat64(),
			OccurredAt: t.TransactedAt,
			Holding:    t.Holding,
			Kind:       models.CashFlowRedemption,
		})
	}

	for _, h := range v.Holdings {
		if h.Closed || !h.Priced || !h.CurrentValue.IsPositive() {
			continue
		}
		flows = append(flows, models.CashFlowEvent{
			Amount:     h.CurrentValue.InexactFloat64(),
			OccurredAt: v.AsOf,
			Holding:    h.Key,
			Kind:       models.CashFlowTerminal,
		})
	}

	sort.SliceStable(flows, func(i, j int) bool {
		return flows[i].OccurredAt.Before(flows[j].OccurredAt)
	})

	return flows
}
