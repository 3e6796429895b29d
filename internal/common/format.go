package common

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoney formats an amount with thousands separators and 2 decimals.
func FormatMoney(d decimal.Decimal) string {
	return groupThousands(d.StringFixed(2))
}

// FormatSignedMoney is FormatMoney with an explicit "+" for positive amounts.
func FormatSignedMoney(d decimal.Decimal) string {
	if d.IsPositive() {
		return "+" + FormatMoney(d)
	}
	return FormatMoney(d)
}

// FormatUnits formats a unit quantity with 3 decimals, as fund statements do.
func FormatUnits(d decimal.Decimal) string {
	return groupThousands(d.StringFixed(3))
}

// FormatPct formats a fraction (0.1234) as a percentage ("12.34%").
func FormatPct(fraction float64) string {
	return fmt.Sprintf("%.2f%%", fraction*100)
}

// FormatSignedPct is FormatPct with an explicit "+" for positive values.
func FormatSignedPct(fraction float64) string {
	if fraction > 0 {
		return "+" + FormatPct(fraction)
	}
	return FormatPct(fraction)
}

// groupThousands inserts "," separators into the integer part of a decimal string.
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	if len(intPart) <= 3 {
		return sign + intPart + frac
	}

	var sb strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		sb.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(intPart[i : i+3])
	}
	return sign + sb.String() + frac
}
