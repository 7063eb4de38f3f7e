package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func datePtr(t time.Time) *time.Time {
	return &t
}

func intPtr(i int) *int {
	return &i
}

func TestRecalculateBatchesFIFOOrder(t *testing.T) {
	today := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	batches := []Batch{
		{BatchNumber: "B1", ExpiryDate: datePtr(today.AddDate(0, 0, 10)), Quantity: 5},
		{BatchNumber: "B2", ExpiryDate: datePtr(today.AddDate(0, 0, 2)), Quantity: 5},
		{BatchNumber: "B3", Quantity: 5},
		{BatchNumber: "B4", ExpiryDate: datePtr(today.AddDate(0, 0, 5)), Quantity: 5},
	}

	out := RecalculateBatches(batches, today)

	require.Len(t, out, 4)
	assert.Equal(t, "B2", out[0].BatchNumber)
	assert.Equal(t, "B4", out[1].BatchNumber)
	assert.Equal(t, "B1", out[2].BatchNumber)
	assert.Equal(t, "B3", out[3].BatchNumber, "batches without expiry date sort last")
}

func TestRecalculateBatchesDerivedFields(t *testing.T) {
	today := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	out := RecalculateBatches([]Batch{
		{BatchNumber: "FRESH", ExpiryDate: datePtr(today.AddDate(0, 0, 30)), Quantity: 10, SoldQuantity: 3},
		{BatchNumber: "NEAR", ExpiryDate: datePtr(today.AddDate(0, 0, 3)), Quantity: 8, SoldQuantity: 1},
		{BatchNumber: "DEAD", ExpiryDate: datePtr(today.AddDate(0, 0, -2)), Quantity: 4, SoldQuantity: 0},
	}, today)

	byNumber := map[string]Batch{}
	for _, b := range out {
		byNumber[b.BatchNumber] = b
	}

	fresh := byNumber["FRESH"]
	assert.Equal(t, 7, fresh.RemainingQuantity)
	assert.Equal(t, 30, fresh.DaysToExpiry)
	assert.False(t, fresh.IsExpired)
	assert.False(t, fresh.IsNearExpiry)
	assert.Equal(t, 0, fresh.NearExpiryDiscount)

	near := byNumber["NEAR"]
	assert.Equal(t, 3, near.DaysToExpiry)
	assert.True(t, near.IsNearExpiry)
	assert.Equal(t, 20, near.NearExpiryDiscount)

	dead := byNumber["DEAD"]
	assert.True(t, dead.IsExpired)
	assert.False(t, dead.IsNearExpiry)
	assert.Equal(t, 50, dead.NearExpiryDiscount)
}

func TestRecalculateBatchesClampsSoldQuantity(t *testing.T) {
	today := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	out := RecalculateBatches([]Batch{
		{BatchNumber: "OVERSOLD", Quantity: 5, SoldQuantity: 9},
		{BatchNumber: "NEGATIVE", Quantity: 5, SoldQuantity: -2},
	}, today)

	assert.Equal(t, 5, out[0].SoldQuantity)
	assert.Equal(t, 0, out[0].RemainingQuantity)
	assert.Equal(t, 0, out[1].SoldQuantity)
	assert.Equal(t, 5, out[1].RemainingQuantity)
}

func TestReconcileBatchesMerge(t *testing.T) {
	today := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	expiry := today.AddDate(0, 0, 20)

	existing := []Batch{
		{BatchNumber: "LOT-1", ExpiryDate: datePtr(expiry), Quantity: 10, SoldQuantity: 4},
	}

	// Incoming record updates quantity only; sold quantity must survive the merge
	out := ReconcileBatches(existing, []BatchInput{
		{BatchNumber: "LOT-1", Quantity: intPtr(15)},
		{BatchNumber: "LOT-2", ExpiryDate: datePtr(today.AddDate(0, 0, 5)), Quantity: intPtr(6)},
	}, false, today)

	require.Len(t, out, 2)

	// LOT-2 expires sooner, so it sorts first
	assert.Equal(t, "LOT-2", out[0].BatchNumber)
	assert.Equal(t, 6, out[0].RemainingQuantity)

	lot1 := out[1]
	assert.Equal(t, "LOT-1", lot1.BatchNumber)
	assert.Equal(t, 15, lot1.Quantity)
	assert.Equal(t, 4, lot1.SoldQuantity, "unspecified sold quantity retains prior value")
	assert.Equal(t, 11, lot1.RemainingQuantity)
	require.NotNil(t, lot1.ExpiryDate)
	assert.True(t, lot1.ExpiryDate.Equal(expiry), "unspecified expiry date retains prior value")
}

func TestReconcileBatchesReplaceAll(t *testing.T) {
	today := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	existing := []Batch{
		{BatchNumber: "OLD-1", Quantity: 10, SoldQuantity: 2},
		{BatchNumber: "OLD-2", Quantity: 3},
	}

	out := ReconcileBatches(existing, []BatchInput{
		{BatchNumber: "NEW-1", Quantity: intPtr(7)},
	}, true, today)

	require.Len(t, out, 1)
	assert.Equal(t, "NEW-1", out[0].BatchNumber)
	assert.Equal(t, 0, out[0].SoldQuantity, "replace mode does not carry over prior state")
}

func TestReconcileBatchesDoesNotMutateInput(t *testing.T) {
	today := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	existing := []Batch{
		{BatchNumber: "LOT-1", Quantity: 10, SoldQuantity: 4},
	}

	ReconcileBatches(existing, []BatchInput{
		{BatchNumber: "LOT-1", Quantity: intPtr(99)},
	}, false, today)

	assert.Equal(t, 10, existing[0].Quantity)
}

func TestBatchStockTotal(t *testing.T) {
	today := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	out := RecalculateBatches([]Batch{
		{BatchNumber: "A", Quantity: 10, SoldQuantity: 3},
		{BatchNumber: "B", Quantity: 5, SoldQuantity: 5},
	}, today)

	assert.Equal(t, 7, BatchStockTotal(out))
}
