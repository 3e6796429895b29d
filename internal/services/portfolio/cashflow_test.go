package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/navfolio/internal/models"
)

func TestBuildCashFlows_PurchaseRedemptionTerminal(t *testing.T) {
	asOf := day(2024, 1, 1)
	txns := []models.Transaction{
		txn(fundA, "5", "120", day(2023, 2, 10)),
		txn(fundA, "10", "100", day(2023, 1, 10)),
		txn(fundA, "-12", "150", day(2023, 6, 1)),
	}
	prices := PricesFrom(priceMap(map[string]string{"INF109K01Z48": "160"}))
	v := testEngine(asOf).Value(txns, prices)

	flows := BuildCashFlows(txns, v, prices)

	require.Len(t, flows, 4)
	assert.Equal(t, models.CashFlowPurchase, flows[0].Kind)
	assert.Equal(t, day(2023, 1, 10), flows[0].OccurredAt)
	assert.InDelta(t, -1000, flows[0].Amount, 1e-9)
	assert.InDelta(t, -600, flows[1].Amount, 1e-9)

	assert.Equal(t, models.CashFlowRedemption, flows[2].Kind)
	assert.InDelta(t, 1800, flows[2].Amount, 1e-9)
	assert.True(t, flows[2].IsInflow())

	assert.Equal(t, models.CashFlowTerminal, flows[3].Kind)
	assert.Equal(t, asOf, flows[3].OccurredAt)
	assert.InDelta(t, 480, flows[3].Amount, 1e-9)
}

func TestBuildCashFlows_RedemptionUsesSalePrice(t *testing.T) {
	txns := []models.Transaction{
		txn(fundA, "10", "100", day(2023, 1, 10)),
		txn(fundA, "-4", "150", day(2023, 5, 1)),
		txn(fundA, "-2", "0", day(2023, 6, 1)),
	}
	prices := PricesFrom(priceMap(map[string]string{"INF109K01Z48": "200"}))
	v := testEngine(day(2024, 1, 1)).Value(txns, prices)

	flows := BuildCashFlows(txns, v, prices)

	require.Len(t, flows, 4)
	assert.InDelta(t, 600, flows[1].Amount, 1e-9, "proceeds at the sale-day price")
	assert.InDelta(t, 400, flows[2].Amount, 1e-9, "no sale price, current price used")
	assert.InDelta(t, 800, flows[3].Amount, 1e-9)
}

func TestBuildCashFlows_OverSellUsesTransactionUnits(t *testing.T) {
	txns := []models.Transaction{
		txn(fundA, "10", "100", day(2023, 1, 10)),
		txn(fundA, "-15", "110", day(2023, 6, 1)),
	}
	v := testEngine(day(2024, 1, 1)).Value(txns, nil)

	flows := BuildCashFlows(txns, v, nil)

	require.Len(t, flows, 2)
	assert.InDelta(t, 1650, flows[1].Amount, 1e-9)
}

func TestBuildCashFlows_ExcludesUnpricedHoldings(t *testing.T) {
	txns := []models.Transaction{
		txn(fundA, "10", "100", day(2023, 1, 10)),
		txn(fundA, "-2", "120", day(2023, 3, 10)),
		txn(fundB, "20", "10", day(2023, 1, 10)),
	}
	prices := PricesFrom(priceMap(map[string]string{"INF200K01RJ1": "12"}))
	v := testEngine(day(2024, 1, 1)).Value(txns, prices)

	flows := BuildCashFlows(txns, v, prices)

	require.Len(t, flows, 2)
	for _, f := range flows {
		assert.Equal(t, fundB, f.Holding)
	}
}

func TestBuildCashFlows_UnsettledRedemptionSkipped(t *testing.T) {
	txns := []models.Transaction{
		txn(fundA, "10", "100", day(2023, 1, 10)),
		txn(fundA, "-10", "0", day(2023, 3, 10)),
	}
	v := testEngine(day(2024, 1, 1)).Value(txns, nil)

	flows := BuildCashFlows(txns, v, nil)

	require.Len(t, flows, 1)
	assert.Equal(t, models.CashFlowPurchase, flows[0].Kind)
}

func TestBuildCashFlows_SkipsMalformed(t *testing.T) {
	txns := []models.Transaction{
		txn(fundA, "10", "100", day(2023, 1, 10)),
		txn(models.HoldingKey{}, "3", "100", day(2023, 1, 11)),
	}
	prices := PricesFrom(priceMap(map[string]string{"INF109K01Z48": "100"}))
	v := testEngine(day(2024, 1, 1)).Value(txns, prices)

	flows := BuildCashFlows(txns, v, prices)

	require.Len(t, flows, 2)
	assert.Equal(t, models.CashFlowTerminal, flows[1].Kind)
}

func TestBuildCashFlows_FeedsSolver(t *testing.T) {
	txns := []models.Transaction{
		txn(fundA, "10", "100", day(2023, 1, 1)),
	}
	prices := PricesFrom(priceMap(map[string]string{"INF109K01Z48": "120"}))
	v := testEngine(day(2024, 1, 1)).Value(txns, prices)

	rate, err := SolveXIRR(BuildCashFlows(txns, v, prices))
	require.NoError(t, err)
	assert.InDelta(t, 0.20, rate, 1e-6)
}
