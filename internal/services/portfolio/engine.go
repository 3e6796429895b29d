package portfolio

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/navfolio/internal/common"
	"github.com/bobmcallan/navfolio/internal/models"
)

// PriceLookup returns the current price of a holding, or false when unknown.
type PriceLookup func(key models.HoldingKey) (decimal.Decimal, bool)

// PricesFrom adapts a run-scoped price map to a PriceLookup keyed by instrument.
func PricesFrom(prices models.PriceMap) PriceLookup {
	return func(key models.HoldingKey) (decimal.Decimal, bool) {
		return prices.Lookup(key.Instrument)
	}
}

// holdingState is the mutable per-holding state of one valuation pass.
type holdingState struct {
	key          models.HoldingKey
	ledger       *LotLedger
	price        decimal.Decimal
	priced       bool
	transactions int
}

// settlementPrice is the price a redemption's lots are consumed at: the
// holding's current price when known, otherwise the transaction's own unit
// price. Gains are marked against today's price, not the sale-day NAV.
func settlementPrice(t models.Transaction, current decimal.Decimal, priced bool) (decimal.Decimal, bool) {
	if priced {
		return current, true
	}
	if t.UnitPrice.IsPositive() {
		return t.UnitPrice, true
	}
	return decimal.Zero, false
}

// proceedsPrice is the price the redemption's cash actually came back at:
// the transaction's own unit price when it carries one, otherwise the
// current price.
func proceedsPrice(t models.Transaction, current decimal.Decimal, priced bool) (decimal.Decimal, bool) {
	if t.UnitPrice.IsPositive() {
		return t.UnitPrice, true
	}
	if priced {
		return current, true
	}
	return decimal.Zero, false
}

// chronological returns a copy of txns stable-sorted by transaction date.
// Same-day transactions keep their source order.
func chronological(txns []models.Transaction) []models.Transaction {
	out := make([]models.Transaction, len(txns))
	copy(out, txns)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TransactedAt.Before(out[j].TransactedAt)
	})
	return out
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithClock sets the clock used for the valuation date.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine drives a transaction stream into one LotLedger per holding and
// values the result against current prices. It holds no state between calls.
type Engine struct {
	logger *common.Logger
	now    func() time.Time
}

// NewEngine creates a valuation engine
func NewEngine(logger *common.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	e := &Engine{logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Value applies every transaction to its holding's ledger and computes the
// per-holding and portfolio totals. Malformed transactions, over-sells,
// unsettled redemptions and unpriced holdings become warnings; none of them
// stops the run. The input slice is not modified.
func (e *Engine) Value(txns []models.Transaction, prices PriceLookup) *models.Valuation {
	if prices == nil {
		prices = PricesFrom(nil)
	}

	v := &models.Valuation{
		AsOf:                e.now(),
		TotalValue:          decimal.Zero,
		TotalCostBasis:      decimal.Zero,
		TotalRealizedGain:   decimal.Zero,
		TotalUnrealizedGain: decimal.Zero,
		TotalGain:           decimal.Zero,
	}

	states := make(map[models.HoldingKey]*holdingState)
	stateFor := func(key models.HoldingKey) *holdingState {
		st, ok := states[key]
		if !ok {
			price, priced := prices(key)
			st = &holdingState{key: key, ledger: NewLotLedger(), price: price, priced: priced}
			states[key] = st
		}
		return st
	}

	for _, t := range chronological(txns) {
		if err := t.Validate(); err != nil {
			e.logger.Warn().Err(err).Str("source", t.Source).Msg("Skipping malformed transaction")
			v.AddWarning(models.Warning{
				Kind:    models.WarningMalformedTransaction,
				Holding: t.Holding.String(),
				Source:  t.Source,
				Message: err.Error(),
			})
			continue
		}

		st := stateFor(t.Holding)
		st.transactions++

		if t.IsPurchase() {
			if err := st.ledger.AppendPurchase(t.Units, t.UnitPrice, t.TransactedAt); err != nil {
				v.AddWarning(models.Warning{
					Kind:    models.WarningMalformedTransaction,
					Holding: t.Holding.String(),
					Source:  t.Source,
					Message: err.Error(),
				})
			}
			continue
		}

		e.applyRedemption(v, st, t)
	}

	keys := make([]models.HoldingKey, 0, len(states))
	for k := range states {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	for _, k := range keys {
		hv := e.valueHolding(states[k])
		if hv.Unpriced {
			e.logger.Warn().Str("holding", k.String()).Str("units", hv.NetUnits.String()).Msg("No current price for open holding")
			v.AddWarning(models.Warning{
				Kind:    models.WarningUnpricedHolding,
				Holding: k.String(),
				Message: "no current price; excluded from total value and annualised return, realized gain still counted",
			})
		}

		v.TotalRealizedGain = v.TotalRealizedGain.Add(hv.RealizedGain)
		v.TotalGain = v.TotalGain.Add(hv.RealizedGain)
		if !hv.Closed && hv.Priced {
			v.TotalValue = v.TotalValue.Add(hv.CurrentValue)
			v.TotalCostBasis = v.TotalCostBasis.Add(hv.CostBasis)
			v.TotalUnrealizedGain = v.TotalUnrealizedGain.Add(hv.UnrealizedGain)
			v.TotalGain = v.TotalGain.Add(hv.UnrealizedGain)
		}

		v.Holdings = append(v.Holdings, hv)
	}

	e.logger.Debug().
		Int("transactions", len(txns)).
		Int("holdings", len(v.Holdings)).
		Str("total_value", v.TotalValue.StringFixed(2)).
		Str("total_gain", v.TotalGain.StringFixed(2)).
		Msg("Valuation computed")

	return v
}

func (e *Engine) applyRedemption(v *models.Valuation, st *holdingState, t models.Transaction) {
	qty := t.Quantity()

	var (
		c   Consumption
		err error
	)
	if price, ok := settlementPrice(t, st.price, st.priced); ok {
		c, err = st.ledger.Consume(qty, price)
	} else {
		c, err = st.ledger.Release(qty)
		v.AddWarning(models.Warning{
			Kind:    models.WarningUnsettledRedemption,
			Holding: st.key.String(),
			Source:  t.Source,
			Message: "redemption of " + qty.String() + " units has no settlement price; no gain realized",
		})
	}
	if err != nil {
		v.AddWarning(models.Warning{
			Kind:    models.WarningMalformedTransaction,
			Holding: st.key.String(),
			Source:  t.Source,
			Message: err.Error(),
		})
		return
	}

	if c.OverSold() {
		e.logger.Warn().
			Str("holding", st.key.String()).
			Str("requested", c.Requested.String()).
			Str("matched", c.Matched.String()).
			Str("shortfall", c.Shortfall.String()).
			Str("date", t.TransactedAt.Format("2006-01-02")).
			Msg("Redemption exceeds open units; ledger drained")
		v.AddWarning(models.Warning{
			Kind:    models.WarningDataIntegrity,
			Holding: st.key.String(),
			Source:  t.Source,
			Message: "redeemed " + c.Requested.String() + " units but only " + c.Matched.String() +
				" were open on " + t.TransactedAt.Format("2006-01-02") + "; cost basis may be incomplete",
		})
	}
}

func (e *Engine) valueHolding(st *holdingState) models.HoldingValuation {
	l := st.ledger
	hv := models.HoldingValuation{
		Key:            st.key,
		NetUnits:       l.NetUnits(),
		CurrentPrice:   st.price,
		Priced:         st.priced,
		CurrentValue:   decimal.Zero,
		CostBasis:      l.CostBasis(),
		RealizedGain:   l.RealizedGain(),
		UnrealizedGain: decimal.Zero,
		OpenLots:       len(l.lots),
		Transactions:   st.transactions,
		Closed:         !l.NetUnits().IsPositive(),
	}

	switch {
	case hv.Closed:
	case st.priced:
		hv.CurrentValue = l.UnrealizedValue(st.price, true)
		hv.UnrealizedGain = l.UnrealizedGain(st.price, true)
	default:
		hv.Unpriced = true
	}
	return hv
}
