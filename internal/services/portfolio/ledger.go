package portfolio

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidLot is returned when a purchase has non-positive units or a negative price.
	ErrInvalidLot = errors.New("invalid lot")
	// ErrInvalidQuantity is returned when a redemption quantity is not positive.
	ErrInvalidQuantity = errors.New("invalid redemption quantity")
)

// Lot is a quantity of units acquired at one price on one date.
// Only Units changes after creation, when a redemption consumes part of it.
type Lot struct {
	Units      decimal.Decimal
	UnitPrice  decimal.Decimal
	AcquiredAt time.Time
}

// Cost is units x unit price.
func (l Lot) Cost() decimal.Decimal {
	return l.Units.Mul(l.UnitPrice)
}

// Consumption describes the outcome of one redemption against a ledger.
type Consumption struct {
	Requested     decimal.Decimal // units asked for
	Matched       decimal.Decimal // units actually matched against open lots
	Shortfall     decimal.Decimal // Requested - Matched; positive on over-sell
	RealizedGain  decimal.Decimal
	CostOfMatched decimal.Decimal // acquisition cost of the matched units
	LotsClosed    int
}

// OverSold reports whether the redemption exceeded the open units.
func (c Consumption) OverSold() bool {
	return c.Shortfall.IsPositive()
}

// LotLedger is the FIFO queue of open purchase lots for one holding.
//
// Invariants: NetUnits equals the sum of open lot units, and no open lot has
// units <= 0. The ledger never reorders lots; callers must append purchases
// and apply redemptions in chronological order.
type LotLedger struct {
	lots     []Lot
	realized decimal.Decimal
	netUnits decimal.Decimal
}

// NewLotLedger returns an empty ledger.
func NewLotLedger() *LotLedger {
	return &LotLedger{}
}

// AppendPurchase pushes a new lot at the back of the queue.
func (l *LotLedger) AppendPurchase(units, unitPrice decimal.Decimal, acquiredAt time.Time) error {
	if !units.IsPositive() {
		return fmt.Errorf("%w: units must be positive, got %s", ErrInvalidLot, units)
	}
	if unitPrice.IsNegative() {
		return fmt.Errorf("%w: unit price must not be negative, got %s", ErrInvalidLot, unitPrice)
	}

	l.lots = append(l.lots, Lot{Units: units, UnitPrice: unitPrice, AcquiredAt: acquiredAt})
	l.netUnits = l.netUnits.Add(units)
	return nil
}

// Consume removes units from the oldest lots first and realizes
// matched x (settlementPrice - lot price) per lot touched.
//
// Selling more than is open is not an error: every lot is drained, NetUnits
// ends at zero and the excess is reported as Consumption.Shortfall.
func (l *LotLedger) Consume(units, settlementPrice decimal.Decimal) (Consumption, error) {
	return l.take(units, func(lot Lot, matched decimal.Decimal) decimal.Decimal {
		return matched.Mul(settlementPrice.Sub(lot.UnitPrice))
	})
}

// Release removes units FIFO without realizing any gain. It is used for
// redemptions whose settlement price is unknown.
func (l *LotLedger) Release(units decimal.Decimal) (Consumption, error) {
	return l.take(units, nil)
}

func (l *LotLedger) take(units decimal.Decimal, gainFn func(Lot, decimal.Decimal) decimal.Decimal) (Consumption, error) {
	if !units.IsPositive() {
		return Consumption{}, fmt.Errorf("%w: must be positive, got %s", ErrInvalidQuantity, units)
	}

	c := Consumption{Requested: units}
	remaining := units
	closed := 0

	for closed < len(l.lots) && remaining.IsPositive() {
		lot := &l.lots[closed]
		matched := decimal.Min(lot.Units, remaining)

		if gainFn != nil {
			c.RealizedGain = c.RealizedGain.Add(gainFn(*lot, matched))
		}
		c.CostOfMatched = c.CostOfMatched.Add(matched.Mul(lot.UnitPrice))
		c.Matched = c.Matched.Add(matched)
		remaining = remaining.Sub(matched)

		lot.Units = lot.Units.Sub(matched)
		if lot.Units.IsPositive() {
			// Partially consumed: stays at the front.
			break
		}
		closed++
	}

	if closed == len(l.lots) {
		l.lots = nil
	} else {
		l.lots = l.lots[closed:]
	}

	c.LotsClosed = closed
	c.Shortfall = remaining
	l.realized = l.realized.Add(c.RealizedGain)
	l.netUnits = l.netUnits.Sub(c.Matched)
	return c, nil
}

// NetUnits returns the units still held.
func (l *LotLedger) NetUnits() decimal.Decimal {
	return l.netUnits
}

// RealizedGain returns the gain accumulated by all redemptions so far.
func (l *LotLedger) RealizedGain() decimal.Decimal {
	return l.realized
}

// CostBasis returns the acquisition cost of the open lots.
func (l *LotLedger) CostBasis() decimal.Decimal {
	total := decimal.Zero
	for _, lot := range l.lots {
		total = total.Add(lot.Cost())
	}
	return total
}

// OpenLots returns a copy of the open lots, oldest first.
func (l *LotLedger) OpenLots() []Lot {
	out := make([]Lot, len(l.lots))
	copy(out, l.lots)
	return out
}

// UnrealizedValue is NetUnits x price when the price is known and units
// are held, otherwise zero.
func (l *LotLedger) UnrealizedValue(price decimal.Decimal, known bool) decimal.Decimal {
	if !known || !l.netUnits.IsPositive() {
		return decimal.Zero
	}
	return l.netUnits.Mul(price)
}

// UnrealizedGain is UnrealizedValue minus CostBasis.
func (l *LotLedger) UnrealizedGain(price decimal.Decimal, known bool) decimal.Decimal {
	return l.UnrealizedValue(price, known).Sub(l.CostBasis())
}
