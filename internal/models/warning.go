package models

import "fmt"

// WarningKind classifies a recoverable problem found during a run
type WarningKind string

const (
	// WarningDataIntegrity: a redemption exceeded the open lot units.
	WarningDataIntegrity WarningKind = "data_integrity"
	// WarningUnpricedHolding: an open holding has no current price.
	WarningUnpricedHolding WarningKind = "unpriced_holding"
	// WarningNonConvergentReturn: no annualised return could be solved.
	WarningNonConvergentReturn WarningKind = "non_convergent_return"
	// WarningMalformedTransaction: a record was skipped.
	WarningMalformedTransaction WarningKind = "malformed_transaction"
	// WarningUnsettledRedemption: a redemption had neither its own price nor a current price.
	WarningUnsettledRedemption WarningKind = "unsettled_redemption"
)

// Warning is a recoverable condition surfaced in the run output.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Holding string      `json:"holding,omitempty"`
	Source  string      `json:"source,omitempty"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	switch {
	case w.Holding != "" && w.Source != "":
		return fmt.Sprintf("[%s] %s (%s): %s", w.Kind, w.Holding, w.Source, w.Message)
	case w.Holding != "":
		return fmt.Sprintf("[%s] %s: %s", w.Kind, w.Holding, w.Message)
	case w.Source != "":
		return fmt.Sprintf("[%s] %s: %s", w.Kind, w.Source, w.Message)
	default:
		return fmt.Sprintf("[%s] %s", w.Kind, w.Message)
	}
}
