package common

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"12.5", "12.50"},
		{"999.999", "1,000.00"},
		{"1234.5", "1,234.50"},
		{"1234567.891", "1,234,567.89"},
		{"-98765.4", "-98,765.40"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatMoney(decimal.RequireFromString(tt.in)), "FormatMoney(%s)", tt.in)
	}
}

func TestFormatSignedMoney(t *testing.T) {
	assert.Equal(t, "+560.00", FormatSignedMoney(decimal.NewFromInt(560)))
	assert.Equal(t, "-1,000.00", FormatSignedMoney(decimal.NewFromInt(-1000)))
	assert.Equal(t, "0.00", FormatSignedMoney(decimal.Zero))
}

func TestFormatUnits(t *testing.T) {
	assert.Equal(t, "3.000", FormatUnits(decimal.NewFromInt(3)))
	assert.Equal(t, "12,345.679", FormatUnits(decimal.RequireFromString("12345.6789")))
}

func TestFormatPct(t *testing.T) {
	assert.Equal(t, "20.00%", FormatPct(0.2))
	assert.Equal(t, "+12.35%", FormatSignedPct(0.12345))
	assert.Equal(t, "-5.00%", FormatSignedPct(-0.05))
}
