package report

import (
	"fmt"
	"strings"

	"github.com/bobmcallan/navfolio/internal/common"
	"github.com/bobmcallan/navfolio/internal/models"
)

const unavailable = "unavailable"

// formatValuation renders the valuation as markdown: summary, holdings
// table, warnings.
func formatValuation(v *models.Valuation) string {
	var sb strings.Builder

	sb.WriteString("# Portfolio Valuation\n\n")
	sb.WriteString(fmt.Sprintf("**As of:** %s\n", v.AsOf.Format("2006-01-02")))
	if v.RunID != "" {
		sb.WriteString(fmt.Sprintf("**Run:** %s\n", v.RunID))
	}
	sb.WriteString("\n")

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| | |\n")
	sb.WriteString("|---|---:|\n")
	sb.WriteString(fmt.Sprintf("| Total Value | %s |\n", common.FormatMoney(v.TotalValue)))
	sb.WriteString(fmt.Sprintf("| Cost Basis | %s |\n", common.FormatMoney(v.TotalCostBasis)))
	sb.WriteString(fmt.Sprintf("| Realized Gain | %s |\n", common.FormatSignedMoney(v.TotalRealizedGain)))
	sb.WriteString(fmt.Sprintf("| Unrealized Gain | %s |\n", common.FormatSignedMoney(v.TotalUnrealizedGain)))
	sb.WriteString(fmt.Sprintf("| Total Gain | %s |\n", common.FormatSignedMoney(v.TotalGain)))
	sb.WriteString(fmt.Sprintf("| Annualized Return (XIRR) | %s |\n", formatReturn(v)))
	if unpriced := v.UnpricedHoldings(); len(unpriced) > 0 {
		names := make([]string, len(unpriced))
		for i, k := range unpriced {
			names[i] = k.String()
		}
		sb.WriteString(fmt.Sprintf("| Unpriced Holdings | %s |\n", strings.Join(names, ", ")))
	}
	sb.WriteString("\n")

	sb.WriteString("## Holdings\n\n")
	if len(v.Holdings) == 0 {
		sb.WriteString("No holdings.\n\n")
	} else {
		sb.WriteString("| Instrument | Folio | Units | Price | Value | Cost | Realized | Unrealized | Total Gain | Status |\n")
		sb.WriteString("|------------|-------|------:|------:|------:|-----:|---------:|-----------:|-----------:|--------|\n")
		for _, h := range v.Holdings {
			price, value, unrealized := "-", "-", "-"
			if h.Priced {
				price = common.FormatMoney(h.CurrentPrice)
			}
			if !h.Closed && h.Priced {
				value = common.FormatMoney(h.CurrentValue)
				unrealized = common.FormatSignedMoney(h.UnrealizedGain)
			}
			folio := h.Key.SubAccount
			if folio == "" {
				folio = "-"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
				h.Key.Instrument, folio,
				common.FormatUnits(h.NetUnits),
				price, value,
				common.FormatMoney(h.CostBasis),
				common.FormatSignedMoney(h.RealizedGain),
				unrealized,
				common.FormatSignedMoney(h.TotalGain()),
				holdingStatus(h),
			))
		}
		sb.WriteString("\n")
	}

	if len(v.Warnings) > 0 {
		sb.WriteString(fmt.Sprintf("## Warnings (%d)\n\n", len(v.Warnings)))
		for _, g := range warningGroups {
			warnings := v.WarningsOf(g.kind)
			if len(warnings) == 0 {
				continue
			}
			sb.WriteString(fmt.Sprintf("### %s (%d)\n\n", g.title, len(warnings)))
			for _, w := range warnings {
				sb.WriteString(fmt.Sprintf("- %s\n", escapeMarkdown(w.String())))
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// warningGroups orders the warnings section, most severe first.
var warningGroups = []struct {
	kind  models.WarningKind
	title string
}{
	{models.WarningDataIntegrity, "Data integrity"},
	{models.WarningMalformedTransaction, "Skipped records"},
	{models.WarningUnsettledRedemption, "Unsettled redemptions"},
	{models.WarningUnpricedHolding, "Unpriced holdings"},
	{models.WarningNonConvergentReturn, "Annualized return"},
}

func formatReturn(v *models.Valuation) string {
	if v.AnnualizedReturn == nil || v.ReturnStatus != models.ReturnStatusOK {
		return unavailable
	}
	return common.FormatSignedPct(*v.AnnualizedReturn)
}

func holdingStatus(h models.HoldingValuation) string {
	switch {
	case h.Closed:
		return "closed"
	case h.Unpriced:
		return "unpriced"
	default:
		return "open"
	}
}

// escapeMarkdown keeps warning text from being read as markdown.
func escapeMarkdown(s string) string {
	r := strings.NewReplacer("*", `\*`, "_", `\_`, "|", `\|`, "[", `\[`, "]", `\]`)
	return r.Replace(s)
}
