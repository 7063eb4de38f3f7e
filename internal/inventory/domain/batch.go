package domain

import (
	"sort"
	"time"
)

// Batch is one expiry-dated lot of stock within an item
type Batch struct {
	BatchNumber     string     `json:"batch_number"`
	ManufactureDate *time.Time `json:"manufacture_date,omitempty"`
	ExpiryDate      *time.Time `json:"expiry_date,omitempty"`
	Quantity        int        `json:"quantity"`
	SoldQuantity    int        `json:"sold_quantity"`

	// Derived per-batch fields, recomputed by RecalculateBatches
	RemainingQuantity  int  `json:"remaining_quantity"`
	DaysToExpiry       int  `json:"days_to_expiry"`
	IsExpired          bool `json:"is_expired"`
	IsNearExpiry       bool `json:"is_near_expiry"`
	NearExpiryDiscount int  `json:"near_expiry_discount"`
}

// BatchInput is an incoming batch record. Nil fields are "unspecified": on a
// merge they retain the existing batch's values.
type BatchInput struct {
	BatchNumber     string     `json:"batch_number" validate:"required"`
	ManufactureDate *time.Time `json:"manufacture_date,omitempty"`
	ExpiryDate      *time.Time `json:"expiry_date,omitempty"`
	Quantity        *int       `json:"quantity,omitempty"`
	SoldQuantity    *int       `json:"sold_quantity,omitempty"`
}

// ReconcileBatches merges incoming batch records into an existing batch list
// and returns the recalculated, FIFO-sorted result.
//
// With replaceAll the incoming records fully replace the existing list.
// Otherwise each incoming record is matched to an existing batch by batch
// number: specified fields overwrite, unspecified fields (including sold
// quantity) retain their prior values. Unmatched records append as new batches.
func ReconcileBatches(existing []Batch, incoming []BatchInput, replaceAll bool, today time.Time) []Batch {
	var merged []Batch

	if replaceAll {
		merged = make([]Batch, 0, len(incoming))
		for _, in := range incoming {
			merged = append(merged, applyBatchInput(Batch{BatchNumber: in.BatchNumber}, in))
		}
		return RecalculateBatches(merged, today)
	}

	merged = make([]Batch, len(existing))
	copy(merged, existing)

	for _, in := range incoming {
		found := false
		for i := range merged {
			if merged[i].BatchNumber == in.BatchNumber {
				merged[i] = applyBatchInput(merged[i], in)
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, applyBatchInput(Batch{BatchNumber: in.BatchNumber}, in))
		}
	}

	return RecalculateBatches(merged, today)
}

func applyBatchInput(b Batch, in BatchInput) Batch {
	if in.ManufactureDate != nil {
		b.ManufactureDate = in.ManufactureDate
	}
	if in.ExpiryDate != nil {
		b.ExpiryDate = in.ExpiryDate
	}
	if in.Quantity != nil {
		b.Quantity = *in.Quantity
	}
	if in.SoldQuantity != nil {
		b.SoldQuantity = *in.SoldQuantity
	}
	return b
}

// RecalculateBatches recomputes every batch's derived fields against the given
// reference date and returns a new slice in FIFO order: ascending expiry date,
// batches without an expiry date last, stable among themselves.
func RecalculateBatches(batches []Batch, today time.Time) []Batch {
	out := make([]Batch, len(batches))
	copy(out, batches)

	for i := range out {
		b := &out[i]

		if b.Quantity < 0 {
			b.Quantity = 0
		}
		if b.SoldQuantity < 0 {
			b.SoldQuantity = 0
		}
		if b.SoldQuantity > b.Quantity {
			b.SoldQuantity = b.Quantity
		}
		b.RemainingQuantity = b.Quantity - b.SoldQuantity

		if b.ExpiryDate != nil {
			days := DaysToExpiry(today, *b.ExpiryDate)
			b.DaysToExpiry = days
			b.IsExpired = IsExpired(days)
			b.IsNearExpiry = IsNearExpiry(days)
			b.NearExpiryDiscount = NearExpiryDiscount(days)
		} else {
			b.DaysToExpiry = 0
			b.IsExpired = false
			b.IsNearExpiry = false
			b.NearExpiryDiscount = 0
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].ExpiryDate, out[j].ExpiryDate
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.Before(*b)
	})

	return out
}

// BatchStockTotal sums the remaining quantity across all batches. When expiry
// tracking is on and batches exist, this total is the source of truth for the
// item's current stock.
func BatchStockTotal(batches []Batch) int {
	total := 0
	for _, b := range batches {
		total += b.RemainingQuantity
	}
	return total
}
