package service

import (
	"context"
	"sync"
	"time"

	"github.com/vendora/vendora-backend/internal/inventory/domain"
	"github.com/vendora/vendora-backend/internal/inventory/events"
	"github.com/vendora/vendora-backend/pkg/logger"
)

// SweepSummary reports the outcome of one expiry sweep run
type SweepSummary struct {
	ItemsScanned     int  `json:"items_scanned"`
	ItemsUpdated     int  `json:"items_updated"`
	ItemFailures     int  `json:"item_failures"`
	BatchesProcessed int  `json:"batches_processed"`
	NearExpiryCount  int  `json:"near_expiry_count"`
	ExpiredCount     int  `json:"expired_count"`
	Partial          bool `json:"partial"`
}

// ExpirySweepService re-evaluates batch expiry state across the whole item
// population. Day arithmetic moves items between expiry tiers as dates roll
// over; the sweep persists only items whose classification actually changed,
// so a run on an unchanged population writes nothing.
type ExpirySweepService struct {
	items     ItemStore
	publisher *events.InventoryEventPublisher
	logger    *logger.Logger
	workers   int
}

// NewExpirySweepService creates a new expiry sweep service
func NewExpirySweepService(items ItemStore, publisher *events.InventoryEventPublisher, log *logger.Logger, workers int) *ExpirySweepService {
	if workers < 1 {
		workers = 1
	}
	return &ExpirySweepService{
		items:     items,
		publisher: publisher,
		logger:    log,
		workers:   workers,
	}
}

// Run sweeps every active expiry-tracked item. Items are processed
// concurrently by a bounded worker pool; a failure on one item is logged and
// counted without stopping the run. On cancellation, already-persisted items
// stay persisted and the summary reports partial completion.
func (s *ExpirySweepService) Run(ctx context.Context) (*SweepSummary, error) {
	start := time.Now()
	now := start.UTC()

	items, err := s.items.ListExpiryTracked(ctx)
	if err != nil {
		return nil, err
	}

	summary := &SweepSummary{ItemsScanned: len(items)}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.workers)

	for _, item := range items {
		if ctx.Err() != nil {
			mu.Lock()
			summary.Partial = true
			mu.Unlock()
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(item *domain.InventoryItem) {
			defer wg.Done()
			defer func() { <-sem }()

			updated, batches, nearExpiry, expired, err := s.sweepItem(ctx, item, now)

			mu.Lock()
			defer mu.Unlock()
			summary.BatchesProcessed += batches
			summary.NearExpiryCount += nearExpiry
			summary.ExpiredCount += expired
			if err != nil {
				summary.ItemFailures++
				return
			}
			if updated {
				summary.ItemsUpdated++
			}
		}(item)
	}

	wg.Wait()

	if ctx.Err() != nil {
		summary.Partial = true
	}

	s.publisher.PublishSweepCompleted(ctx,
		summary.ItemsScanned, summary.ItemsUpdated, summary.BatchesProcessed,
		summary.NearExpiryCount, summary.ExpiredCount, summary.Partial)

	s.logger.Info().
		Int("items_scanned", summary.ItemsScanned).
		Int("items_updated", summary.ItemsUpdated).
		Int("item_failures", summary.ItemFailures).
		Int("batches_processed", summary.BatchesProcessed).
		Int("near_expiry", summary.NearExpiryCount).
		Int("expired", summary.ExpiredCount).
		Bool("partial", summary.Partial).
		Dur("duration", time.Since(start)).
		Msg("expiry sweep completed")

	return summary, nil
}

// sweepItem recomputes one item's batch state and persists it only when a
// batch's expiry classification or remaining stock changed since the last run.
func (s *ExpirySweepService) sweepItem(ctx context.Context, item *domain.InventoryItem, now time.Time) (updated bool, batches, nearExpiry, expired int, err error) {
	recalced := domain.RecalculateBatches(item.Batches, now)
	batches = len(recalced)

	for _, b := range recalced {
		if b.IsNearExpiry {
			nearExpiry++
		}
		if b.IsExpired {
			expired++
		}
	}

	if !batchStateChanged(item.Batches, recalced) {
		return false, batches, nearExpiry, expired, nil
	}

	*item = domain.Recalculate(*item, now)
	if err := s.items.Update(ctx, item); err != nil {
		s.logger.Error().Err(err).Str("item_id", item.ID).Msg("sweep: failed to persist item")
		return false, batches, nearExpiry, expired, err
	}

	s.publisher.PublishItemUpdated(ctx, item, "sweep")
	return true, batches, nearExpiry, expired, nil
}

// batchStateChanged compares stored batch state against the freshly computed
// one. Day counters tick down every run; only classification or stock changes
// warrant a write.
func batchStateChanged(stored, fresh []domain.Batch) bool {
	if len(stored) != len(fresh) {
		return true
	}

	byNumber := make(map[string]domain.Batch, len(stored))
	for _, b := range stored {
		byNumber[b.BatchNumber] = b
	}

	for _, f := range fresh {
		old, ok := byNumber[f.BatchNumber]
		if !ok {
			return true
		}
		if old.IsExpired != f.IsExpired ||
			old.IsNearExpiry != f.IsNearExpiry ||
			old.NearExpiryDiscount != f.NearExpiryDiscount ||
			old.RemainingQuantity != f.RemainingQuantity {
			return true
		}
	}

	return false
}
