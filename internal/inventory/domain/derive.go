package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Recalculate recomputes every derived field from the item's mutable inputs
// and returns the canonical item state. It is pure: the input is not modified.
//
// The passes run in a fixed order - pricing, batches, inventory, availability,
// business-rule clamps - because later passes read values earlier passes
// produce. The pipeline is idempotent: running it twice on the same input
// yields the same output. Every write path must run it before persisting;
// derived fields are never trusted as inputs.
func Recalculate(item InventoryItem, today time.Time) InventoryItem {
	item = recalculatePricing(item)
	item = recalculateBatchState(item, today)
	item = recalculateInventory(item)
	item = recalculateAvailability(item)
	item = applyBusinessClamps(item)
	return item
}

func recalculatePricing(item InventoryItem) InventoryItem {
	if item.DiscountPercentage.IsNegative() {
		item.DiscountPercentage = decimal.Zero
	}
	if item.DiscountPercentage.GreaterThan(hundred) {
		item.DiscountPercentage = hundred
	}

	item.FinalPrice = item.SellingPrice.
		Mul(hundred.Sub(item.DiscountPercentage)).
		Div(hundred).
		Round(2)
	if item.FinalPrice.IsNegative() {
		item.FinalPrice = decimal.Zero
	}

	item.Margin = item.SellingPrice.Sub(item.CostPrice)
	item.HasNegativeMargin = item.Margin.IsNegative()

	if item.CostPrice.IsPositive() {
		item.MarginPercentage = item.Margin.Div(item.CostPrice).Mul(hundred).Round(2)
	} else {
		item.MarginPercentage = decimal.Zero
	}

	return item
}

func recalculateBatchState(item InventoryItem, today time.Time) InventoryItem {
	item.Batches = RecalculateBatches(item.Batches, today)

	// Batches are the source of truth for stock: a directly-supplied
	// current stock is overridden by the batch total.
	if item.HasExpiry && len(item.Batches) > 0 {
		item.CurrentStock = BatchStockTotal(item.Batches)
	}

	return item
}

func recalculateInventory(item InventoryItem) InventoryItem {
	if item.CurrentStock < 0 {
		item.CurrentStock = 0
	}
	if item.ReservedStock < 0 {
		item.ReservedStock = 0
	}

	item.AvailableStock = item.CurrentStock - item.ReservedStock
	if item.AvailableStock < 0 {
		item.AvailableStock = 0
	}

	return item
}

func recalculateAvailability(item InventoryItem) InventoryItem {
	item.IsOutOfStock = item.CurrentStock <= 0

	// A manually discontinued item stays discontinued; the automatic pass
	// never assigns this state.
	if item.AvailabilityStatus == StatusDiscontinued {
		item.IsAvailable = false
	} else {
		switch {
		case item.CurrentStock <= 0:
			item.AvailabilityStatus = StatusOutOfStock
			item.IsAvailable = false
		case item.CurrentStock <= item.MinStockLevel:
			item.AvailabilityStatus = StatusLowStock
			item.IsAvailable = true
		default:
			item.AvailabilityStatus = StatusAvailable
			item.IsAvailable = true
		}
	}

	if item.HideWhenOutOfStock && item.IsOutOfStock {
		item.IsActive = false
	}

	return item
}

// applyBusinessClamps forces lower bounds down when they exceed their upper
// bounds. An upper bound of zero means "not set" and is not enforced.
func applyBusinessClamps(item InventoryItem) InventoryItem {
	if item.MaxStockLevel > 0 && item.MinStockLevel > item.MaxStockLevel {
		item.MinStockLevel = item.MaxStockLevel
	}
	if item.MaxOrderQuantity > 0 && item.MinOrderQuantity > item.MaxOrderQuantity {
		item.MinOrderQuantity = item.MaxOrderQuantity
	}
	if item.ReservedStock > item.CurrentStock {
		item.ReservedStock = item.CurrentStock
	}
	return item
}

// EffectivePrice returns the customer-facing price for an item: the final
// price with the highest near-expiry discount among sellable near-expiry
// batches applied on top. It is computed on read and never persisted.
// Items without auto-discounting sell at the final price regardless of batch
// state.
func EffectivePrice(item InventoryItem, today time.Time) decimal.Decimal {
	price := item.FinalPrice

	if !item.AutoDiscountNearExpiry {
		return price
	}

	batches := RecalculateBatches(item.Batches, today)
	best := 0
	for _, b := range batches {
		if b.IsNearExpiry && b.RemainingQuantity > 0 && b.NearExpiryDiscount > best {
			best = b.NearExpiryDiscount
		}
	}
	if best == 0 {
		return price
	}

	discounted := price.Mul(hundred.Sub(decimal.NewFromInt(int64(best)))).Div(hundred).Round(2)
	if discounted.IsNegative() {
		return decimal.Zero
	}
	return discounted
}
