package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRecalculatePricing(t *testing.T) {
	today := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	item := Recalculate(InventoryItem{
		CostPrice:          dec("80"),
		SellingPrice:       dec("100"),
		DiscountPercentage: dec("10"),
		CurrentStock:       5,
	}, today)

	assert.True(t, item.FinalPrice.Equal(dec("90")), "final price, got %s", item.FinalPrice)
	assert.True(t, item.Margin.Equal(dec("20")), "margin, got %s", item.Margin)
	assert.True(t, item.MarginPercentage.Equal(dec("25")), "margin pct, got %s", item.MarginPercentage)
	assert.False(t, item.HasNegativeMargin)
}

func TestRecalculateClampsDiscount(t *testing.T) {
	today := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	item := Recalculate(InventoryItem{
		SellingPrice:       dec("50"),
		DiscountPercentage: dec("150"),
	}, today)
	assert.True(t, item.DiscountPercentage.Equal(dec("100")))
	assert.True(t, item.FinalPrice.Equal(decimal.Zero), "fully discounted, got %s", item.FinalPrice)

	item = Recalculate(InventoryItem{
		SellingPrice:       dec("50"),
		DiscountPercentage: dec("-5"),
	}, today)
	assert.True(t, item.DiscountPercentage.Equal(decimal.Zero))
	assert.True(t, item.FinalPrice.Equal(dec("50")))
}

func TestRecalculateNegativeMargin(t *testing.T) {
	today := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	item := Recalculate(InventoryItem{
		CostPrice:    dec("120"),
		SellingPrice: dec("100"),
	}, today)

	assert.True(t, item.HasNegativeMargin)
	assert.True(t, item.Margin.Equal(dec("-20")))
}

func TestRecalculateZeroCostMarginPercentage(t *testing.T) {
	today := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	item := Recalculate(InventoryItem{
		CostPrice:    decimal.Zero,
		SellingPrice: dec("100"),
	}, today)

	assert.True(t, item.MarginPercentage.Equal(decimal.Zero), "no margin percentage without a cost basis")
}

func TestRecalculateBatchDrivenStock(t *testing.T) {
	today := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	expiry := today.AddDate(0, 0, 60)

	item := Recalculate(InventoryItem{
		HasExpiry:    true,
		CurrentStock: 999, // overridden by the batch total
		Batches: BatchList{
			{BatchNumber: "A", ExpiryDate: &expiry, Quantity: 10, SoldQuantity: 3},
			{BatchNumber: "B", ExpiryDate: &expiry, Quantity: 5, SoldQuantity: 5},
		},
	}, today)

	assert.Equal(t, 7, item.CurrentStock)
	assert.Equal(t, 7, item.AvailableStock)
}

func TestRecalculateDirectStockWithoutBatches(t *testing.T) {
	today := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	item := Recalculate(InventoryItem{
		HasExpiry:    true,
		CurrentStock: 42,
	}, today)

	assert.Equal(t, 42, item.CurrentStock, "expiry tracking without batches keeps direct stock")
}

func TestRecalculateAvailableStock(t *testing.T) {
	today := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	item := Recalculate(InventoryItem{CurrentStock: 10, ReservedStock: 4}, today)
	assert.Equal(t, 6, item.AvailableStock)

	// Reserved above current clamps to current; available never goes negative
	item = Recalculate(InventoryItem{CurrentStock: 3, ReservedStock: 8}, today)
	assert.Equal(t, 0, item.AvailableStock)
	assert.Equal(t, 3, item.ReservedStock)
}

func TestRecalculateAvailabilityStatus(t *testing.T) {
	today := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		item       InventoryItem
		wantStatus AvailabilityStatus
		wantAvail  bool
		wantOOS    bool
	}{
		{
			"in stock",
			InventoryItem{CurrentStock: 50, MinStockLevel: 10},
			StatusAvailable, true, false,
		},
		{
			"at min stock level",
			InventoryItem{CurrentStock: 10, MinStockLevel: 10},
			StatusLowStock, true, false,
		},
		{
			"out of stock",
			InventoryItem{CurrentStock: 0, MinStockLevel: 10},
			StatusOutOfStock, false, true,
		},
		{
			"discontinued stays discontinued",
			InventoryItem{CurrentStock: 50, AvailabilityStatus: StatusDiscontinued},
			StatusDiscontinued, false, false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Recalculate(tt.item, today)
			assert.Equal(t, tt.wantStatus, got.AvailabilityStatus)
			assert.Equal(t, tt.wantAvail, got.IsAvailable)
			assert.Equal(t, tt.wantOOS, got.IsOutOfStock)
		})
	}
}

func TestRecalculateHideWhenOutOfStock(t *testing.T) {
	today := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	item := Recalculate(InventoryItem{
		CurrentStock:       0,
		IsActive:           true,
		HideWhenOutOfStock: true,
	}, today)
	assert.False(t, item.IsActive)

	item = Recalculate(InventoryItem{
		CurrentStock:       0,
		IsActive:           true,
		HideWhenOutOfStock: false,
	}, today)
	assert.True(t, item.IsActive)
}

func TestRecalculateBusinessClamps(t *testing.T) {
	today := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	item := Recalculate(InventoryItem{
		MinStockLevel:    20,
		MaxStockLevel:    10,
		MinOrderQuantity: 12,
		MaxOrderQuantity: 6,
	}, today)
	assert.Equal(t, 10, item.MinStockLevel)
	assert.Equal(t, 6, item.MinOrderQuantity)

	// Max of zero means "not set": the min is left alone
	item = Recalculate(InventoryItem{
		MinStockLevel: 20,
		MaxStockLevel: 0,
	}, today)
	assert.Equal(t, 20, item.MinStockLevel)
}

func TestRecalculateNegativeInputsClamped(t *testing.T) {
	today := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	item := Recalculate(InventoryItem{
		CurrentStock:  -5,
		ReservedStock: -3,
	}, today)

	assert.Equal(t, 0, item.CurrentStock)
	assert.Equal(t, 0, item.ReservedStock)
	assert.Equal(t, 0, item.AvailableStock)
	assert.Equal(t, StatusOutOfStock, item.AvailabilityStatus)
}

func TestRecalculateIdempotent(t *testing.T) {
	today := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	near := today.AddDate(0, 0, 3)

	item := InventoryItem{
		CostPrice:          dec("7.25"),
		SellingPrice:       dec("12.99"),
		DiscountPercentage: dec("15"),
		HasExpiry:          true,
		ReservedStock:      2,
		MinStockLevel:      25,
		MaxStockLevel:      20,
		IsActive:           true,
		HideWhenOutOfStock: true,
		Batches: BatchList{
			{BatchNumber: "X", ExpiryDate: &near, Quantity: 9, SoldQuantity: 4},
		},
	}

	once := Recalculate(item, today)
	twice := Recalculate(once, today)

	assert.Equal(t, once, twice)
}

func TestRecalculateDoesNotMutateInput(t *testing.T) {
	today := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	expiry := today.AddDate(0, 0, 30)

	item := InventoryItem{
		SellingPrice: dec("10"),
		HasExpiry:    true,
		Batches: BatchList{
			{BatchNumber: "A", ExpiryDate: &expiry, Quantity: 5},
		},
	}

	Recalculate(item, today)

	assert.Equal(t, 0, item.Batches[0].RemainingQuantity)
	assert.Equal(t, 0, item.CurrentStock)
}

func TestEffectivePrice(t *testing.T) {
	today := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	near := today.AddDate(0, 0, 2)   // 30% tier
	nearer := today.AddDate(0, 0, 1) // 40% tier
	fresh := today.AddDate(0, 0, 30)

	base := InventoryItem{
		SellingPrice:           dec("100"),
		AutoDiscountNearExpiry: true,
		HasExpiry:              true,
		Batches: BatchList{
			{BatchNumber: "FRESH", ExpiryDate: &fresh, Quantity: 10},
			{BatchNumber: "NEAR", ExpiryDate: &near, Quantity: 5},
			{BatchNumber: "NEARER", ExpiryDate: &nearer, Quantity: 3},
		},
	}

	item := Recalculate(base, today)
	got := EffectivePrice(item, today)
	assert.True(t, got.Equal(dec("60")), "highest tier wins, got %s", got)

	// Sold-out near-expiry batches do not discount
	soldOut := base
	soldOut.Batches = BatchList{
		{BatchNumber: "NEAR", ExpiryDate: &near, Quantity: 5, SoldQuantity: 5},
		{BatchNumber: "FRESH", ExpiryDate: &fresh, Quantity: 10},
	}
	item = Recalculate(soldOut, today)
	got = EffectivePrice(item, today)
	assert.True(t, got.Equal(dec("100")), "got %s", got)

	// Auto-discounting off sells at the final price
	off := base
	off.AutoDiscountNearExpiry = false
	item = Recalculate(off, today)
	got = EffectivePrice(item, today)
	assert.True(t, got.Equal(dec("100")), "got %s", got)
}

func TestEffectivePriceStacksOnFinalPrice(t *testing.T) {
	today := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	near := today.AddDate(0, 0, 7) // 8% tier

	item := Recalculate(InventoryItem{
		SellingPrice:           dec("200"),
		DiscountPercentage:     dec("10"),
		AutoDiscountNearExpiry: true,
		HasExpiry:              true,
		Batches: BatchList{
			{BatchNumber: "NEAR", ExpiryDate: &near, Quantity: 4},
		},
	}, today)

	// 200 * 0.9 = 180, then 8% off = 165.60
	got := EffectivePrice(item, today)
	assert.True(t, got.Equal(dec("165.60")), "got %s", got)
}
