package events

import (
	"context"

	"github.com/vendora/vendora-backend/internal/inventory/domain"
	"github.com/vendora/vendora-backend/pkg/logger"
	"github.com/vendora/vendora-backend/pkg/messaging"
)

// InventoryEventPublisher publishes inventory-related events. Publishing is
// best-effort: failures are logged and never fail the originating operation.
type InventoryEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewInventoryEventPublisher creates a new inventory event publisher
func NewInventoryEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*InventoryEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeInventoryEvents, "vendor-portal", log)
	if err != nil {
		return nil, err
	}

	return &InventoryEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishItemUpdated publishes the item's post-recalculation state. The source
// tells consumers which write path produced the change (api, bulk, sweep).
func (p *InventoryEventPublisher) PublishItemUpdated(ctx context.Context, item *domain.InventoryItem, source string) {
	if p == nil {
		return
	}

	data := messaging.ItemUpdatedEvent{
		ItemID:             item.ID,
		VendorID:           item.VendorID,
		ProductID:          item.ProductID,
		CurrentStock:       item.CurrentStock,
		AvailableStock:     item.AvailableStock,
		AvailabilityStatus: string(item.AvailabilityStatus),
		Source:             source,
	}

	if err := p.publisher.Publish(ctx, messaging.EventItemUpdated, data); err != nil {
		p.logger.Error().Err(err).Str("item_id", item.ID).Msg("failed to publish item updated event")
	}
}

// PublishItemDeactivated publishes an item deactivation event
func (p *InventoryEventPublisher) PublishItemDeactivated(ctx context.Context, item *domain.InventoryItem) {
	if p == nil {
		return
	}

	data := messaging.ItemDeactivatedEvent{
		ItemID:   item.ID,
		VendorID: item.VendorID,
	}

	if err := p.publisher.Publish(ctx, messaging.EventItemDeactivated, data); err != nil {
		p.logger.Error().Err(err).Str("item_id", item.ID).Msg("failed to publish item deactivated event")
	}
}

// PublishBulkCompleted publishes a summary after a bulk reconciliation run
func (p *InventoryEventPublisher) PublishBulkCompleted(ctx context.Context, vendorID string, totalRows, processed, skipped, failed int, modified int64, partial bool) {
	if p == nil {
		return
	}

	data := messaging.BulkCompletedEvent{
		VendorID:  vendorID,
		TotalRows: totalRows,
		Processed: processed,
		Skipped:   skipped,
		Failed:    failed,
		Modified:  modified,
		Partial:   partial,
	}

	if err := p.publisher.Publish(ctx, messaging.EventBulkCompleted, data); err != nil {
		p.logger.Error().Err(err).Str("vendor_id", vendorID).Msg("failed to publish bulk completed event")
	}
}

// PublishSweepCompleted publishes a summary after an expiry sweep run
func (p *InventoryEventPublisher) PublishSweepCompleted(ctx context.Context, scanned, updated, batches, nearExpiry, expired int, partial bool) {
	if p == nil {
		return
	}

	data := messaging.SweepCompletedEvent{
		ItemsScanned:     scanned,
		ItemsUpdated:     updated,
		BatchesProcessed: batches,
		NearExpiryCount:  nearExpiry,
		ExpiredCount:     expired,
		Partial:          partial,
	}

	if err := p.publisher.Publish(ctx, messaging.EventSweepCompleted, data); err != nil {
		p.logger.Error().Err(err).Msg("failed to publish sweep completed event")
	}
}
