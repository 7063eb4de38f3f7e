package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendora/vendora-backend/internal/inventory/domain"
	"github.com/vendora/vendora-backend/internal/inventory/service"
)

// expiryItem builds an expiry-tracked item whose stored batch state was
// computed as of computedAt.
func expiryItem(id, vendorID string, computedAt time.Time, batches ...domain.Batch) *domain.InventoryItem {
	item := domain.InventoryItem{
		ID:          id,
		VendorID:    vendorID,
		ProductID:   "prod-" + id,
		ProductName: "Item " + id,
		HasExpiry:   true,
		IsActive:    true,
		Version:     1,
		Batches:     batches,
	}
	item = domain.Recalculate(item, computedAt)
	return &item
}

func TestSweep_PersistsOnlyChangedItems(t *testing.T) {
	now := time.Now().UTC()
	yesterday := now.AddDate(0, 0, -1)

	crossing := now.AddDate(0, 0, 7) // 8 days out yesterday, near-expiry today
	far := now.AddDate(0, 0, 60)

	// Item A's batch crossed into the near-expiry window overnight; item B's
	// classification is unchanged
	itemA := expiryItem("a", "vendor-1", yesterday, domain.Batch{BatchNumber: "A1", ExpiryDate: &crossing, Quantity: 5})
	itemB := expiryItem("b", "vendor-1", yesterday, domain.Batch{BatchNumber: "B1", ExpiryDate: &far, Quantity: 5})

	store := newFakeItemStore(itemA, itemB)
	sweep := service.NewExpirySweepService(store, nil, testLogger(), 2)

	summary, err := sweep.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.ItemsScanned)
	assert.Equal(t, 1, summary.ItemsUpdated)
	assert.Equal(t, 2, summary.BatchesProcessed)
	assert.Equal(t, 1, summary.NearExpiryCount)
	assert.Equal(t, 0, summary.ExpiredCount)
	assert.False(t, summary.Partial)

	gotA, err := store.GetByID(context.Background(), "vendor-1", "a")
	require.NoError(t, err)
	require.Len(t, gotA.Batches, 1)
	assert.True(t, gotA.Batches[0].IsNearExpiry)
	assert.Equal(t, 8, gotA.Batches[0].NearExpiryDiscount)
	assert.Equal(t, int64(2), gotA.Version, "changed item was persisted")

	gotB, err := store.GetByID(context.Background(), "vendor-1", "b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), gotB.Version, "unchanged item was not persisted")
}

func TestSweep_SecondRunWritesNothing(t *testing.T) {
	now := time.Now().UTC()
	yesterday := now.AddDate(0, 0, -1)
	crossing := now.AddDate(0, 0, 3)

	item := expiryItem("a", "vendor-1", yesterday, domain.Batch{BatchNumber: "A1", ExpiryDate: &crossing, Quantity: 5})
	store := newFakeItemStore(item)
	sweep := service.NewExpirySweepService(store, nil, testLogger(), 1)

	first, err := sweep.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.ItemsUpdated)

	second, err := sweep.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.ItemsUpdated, "no classification change on the second run")
}

func TestSweep_CountsExpiredBatches(t *testing.T) {
	now := time.Now().UTC()
	lastWeek := now.AddDate(0, 0, -8)
	expired := now.AddDate(0, 0, -1)

	item := expiryItem("a", "vendor-1", lastWeek, domain.Batch{BatchNumber: "A1", ExpiryDate: &expired, Quantity: 5})
	store := newFakeItemStore(item)
	sweep := service.NewExpirySweepService(store, nil, testLogger(), 1)

	summary, err := sweep.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ExpiredCount)
	assert.Equal(t, 1, summary.ItemsUpdated)

	got, err := store.GetByID(context.Background(), "vendor-1", "a")
	require.NoError(t, err)
	assert.True(t, got.Batches[0].IsExpired)
	assert.Equal(t, 50, got.Batches[0].NearExpiryDiscount)
}

func TestSweep_ContinuesPastItemFailure(t *testing.T) {
	now := time.Now().UTC()
	yesterday := now.AddDate(0, 0, -1)
	crossing := now.AddDate(0, 0, 2)

	itemA := expiryItem("a", "vendor-1", yesterday, domain.Batch{BatchNumber: "A1", ExpiryDate: &crossing, Quantity: 5})
	itemB := expiryItem("b", "vendor-1", yesterday, domain.Batch{BatchNumber: "B1", ExpiryDate: &crossing, Quantity: 5})

	store := newFakeItemStore(itemA, itemB)
	store.updateErr["a"] = assert.AnError
	sweep := service.NewExpirySweepService(store, nil, testLogger(), 1)

	summary, err := sweep.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ItemFailures)
	assert.Equal(t, 1, summary.ItemsUpdated, "other items still persisted")
}

func TestSweep_CancelledContextReportsPartial(t *testing.T) {
	now := time.Now().UTC()
	yesterday := now.AddDate(0, 0, -1)
	crossing := now.AddDate(0, 0, 2)

	item := expiryItem("a", "vendor-1", yesterday, domain.Batch{BatchNumber: "A1", ExpiryDate: &crossing, Quantity: 5})
	store := newFakeItemStore(item)
	sweep := service.NewExpirySweepService(store, nil, testLogger(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := sweep.Run(ctx)
	require.NoError(t, err)
	assert.True(t, summary.Partial)
	assert.Equal(t, 0, summary.ItemsUpdated)
}
