package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestWarning_String(t *testing.T) {
	tests := []struct {
		w    Warning
		want string
	}{
		{
			Warning{Kind: WarningDataIntegrity, Holding: "A/1", Source: "cas.json#data[0].dtSummary[2]", Message: "over-sold"},
			"[data_integrity] A/1 (cas.json#data[0].dtSummary[2]): over-sold",
		},
		{Warning{Kind: WarningUnpricedHolding, Holding: "A", Message: "no price"}, "[unpriced_holding] A: no price"},
		{Warning{Kind: WarningMalformedTransaction, Source: "cas.pdf#line[4]", Message: "bad date"}, "[malformed_transaction] cas.pdf#line[4]: bad date"},
		{Warning{Kind: WarningNonConvergentReturn, Message: "no sign change"}, "[non_convergent_return] no sign change"},
	}
	for _, tt := range tests {
		if got := tt.w.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestPriceMap_Lookup(t *testing.T) {
	m := PriceMap{"A": {Instrument: "A", Price: decimal.NewFromInt(160), Source: "static"}}

	price, ok := m.Lookup("A")
	if !ok || !price.Equal(decimal.NewFromInt(160)) {
		t.Errorf("Lookup(A) = %s, %v; want 160, true", price, ok)
	}
	if _, ok := m.Lookup("B"); ok {
		t.Error("Lookup(B) should be unknown")
	}

	var nilMap PriceMap
	if _, ok := nilMap.Lookup("A"); ok {
		t.Error("nil map Lookup should be unknown")
	}
}

func TestValuation_Helpers(t *testing.T) {
	a := HoldingKey{Instrument: "A"}
	b := HoldingKey{Instrument: "B", SubAccount: "9"}
	v := &Valuation{
		Holdings: []HoldingValuation{
			{Key: a, RealizedGain: decimal.NewFromInt(560), UnrealizedGain: decimal.NewFromInt(120)},
			{Key: b, Unpriced: true},
		},
	}
	v.AddWarning(Warning{Kind: WarningUnpricedHolding, Holding: b.String(), Message: "no price"})
	v.AddWarning(Warning{Kind: WarningDataIntegrity, Holding: a.String(), Message: "over-sold"})

	h, ok := v.Holding(a)
	if !ok {
		t.Fatal("Holding(A) not found")
	}
	if !h.TotalGain().Equal(decimal.NewFromInt(680)) {
		t.Errorf("TotalGain() = %s, want 680", h.TotalGain())
	}
	if _, ok := v.Holding(HoldingKey{Instrument: "C"}); ok {
		t.Error("Holding(C) should not be found")
	}

	if got := v.WarningsOf(WarningDataIntegrity); len(got) != 1 || got[0].Holding != "A" {
		t.Errorf("WarningsOf(data_integrity) = %v", got)
	}
	if got := v.WarningsOf(WarningMalformedTransaction); got != nil {
		t.Errorf("WarningsOf(malformed_transaction) = %v, want nil", got)
	}

	unpriced := v.UnpricedHoldings()
	if len(unpriced) != 1 || unpriced[0] != b {
		t.Errorf("UnpricedHoldings() = %v, want [%v]", unpriced, b)
	}
}
