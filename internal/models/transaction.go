// Package models defines data structures for navfolio
package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrMalformedTransaction is wrapped by every transaction validation failure.
var ErrMalformedTransaction = errors.New("malformed transaction")

// HoldingKey identifies one position. SubAccount (a folio number) keeps the
// same instrument held in different accounts from netting against each other.
type HoldingKey struct {
	Instrument string `json:"instrument"`
	SubAccount string `json:"sub_account,omitempty"`
}

// String renders "ISIN" or "ISIN/folio".
func (k HoldingKey) String() string {
	if k.SubAccount == "" {
		return k.Instrument
	}
	return k.Instrument + "/" + k.SubAccount
}

// Less orders keys by instrument, then sub-account.
func (k HoldingKey) Less(o HoldingKey) bool {
	if k.Instrument != o.Instrument {
		return k.Instrument < o.Instrument
	}
	return k.SubAccount < o.SubAccount
}

// TransactionKind classifies a transaction as a purchase or a redemption
type TransactionKind string

const (
	TransactionPurchase   TransactionKind = "purchase"
	TransactionRedemption TransactionKind = "redemption"
)

// KindForUnits classifies by the sign of the unit quantity: positive units
// are a purchase, negative units a redemption.
func KindForUnits(units decimal.Decimal) TransactionKind {
	if units.IsNegative() {
		return TransactionRedemption
	}
	return TransactionPurchase
}

// Transaction is one buy or sell of units in a holding.
// Units are signed: positive for purchases, negative for redemptions.
// UnitPrice may be zero for redemptions when the source does not carry it.
type Transaction struct {
	Holding      HoldingKey      `json:"holding"`
	Units        decimal.Decimal `json:"units"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TransactedAt time.Time       `json:"transacted_at"`
	Kind         TransactionKind `json:"kind"`
	Description  string          `json:"description,omitempty"`
	Source       string          `json:"source,omitempty"` // record locator, e.g. "cas.json#data[0].dtSummary[3]"
}

// NewTransaction builds a validated transaction, deriving Kind from the sign of units.
func NewTransaction(key HoldingKey, units, unitPrice decimal.Decimal, at time.Time, description string) (Transaction, error) {
	t := Transaction{
		Holding:      HoldingKey{Instrument: strings.TrimSpace(key.Instrument), SubAccount: strings.TrimSpace(key.SubAccount)},
		Units:        units,
		UnitPrice:    unitPrice,
		TransactedAt: at,
		Kind:         KindForUnits(units),
		Description:  description,
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// Validate checks the required fields. Kind, when set, must agree with the sign of Units.
func (t Transaction) Validate() error {
	switch {
	case strings.TrimSpace(t.Holding.Instrument) == "":
		return fmt.Errorf("%w: missing instrument identifier", ErrMalformedTransaction)
	case t.Units.IsZero():
		return fmt.Errorf("%w: zero units for %s", ErrMalformedTransaction, t.Holding)
	case t.UnitPrice.IsNegative():
		return fmt.Errorf("%w: negative unit price %s for %s", ErrMalformedTransaction, t.UnitPrice, t.Holding)
	case t.TransactedAt.IsZero():
		return fmt.Errorf("%w: missing transaction date for %s", ErrMalformedTransaction, t.Holding)
	case t.Kind != "" && t.Kind != KindForUnits(t.Units):
		return fmt.Errorf("%w: kind %q contradicts units %s for %s", ErrMalformedTransaction, t.Kind, t.Units, t.Holding)
	}
	return nil
}

// IsPurchase reports whether the transaction adds units.
func (t Transaction) IsPurchase() bool {
	return t.Units.IsPositive()
}

// Quantity returns the absolute number of units moved.
func (t Transaction) Quantity() decimal.Decimal {
	return t.Units.Abs()
}

// TransactionSet is the output of a transaction source: the parsed
// transactions plus a warning for every record that had to be skipped.
type TransactionSet struct {
	Transactions []Transaction `json:"transactions"`
	Skipped      []Warning     `json:"skipped,omitempty"`
}

// Instruments returns the distinct instrument identifiers, sorted.
func (s *TransactionSet) Instruments() []string {
	if s == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, t := range s.Transactions {
		id := t.Holding.Instrument
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
