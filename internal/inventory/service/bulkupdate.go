package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vendora/vendora-backend/internal/inventory/domain"
	"github.com/vendora/vendora-backend/internal/inventory/events"
	"github.com/vendora/vendora-backend/pkg/logger"
)

// Skip reasons reported per row
const (
	SkipMissingProductName = "missing product name"
	SkipNoMatchingItem     = "no matching item"
	SkipNoValidFields      = "no valid fields"
)

// RollbackRecord captures an item's pre-patch values for exactly the fields a
// bulk row touched. Exported as a bulk-update file, it restores those fields
// when re-uploaded.
type RollbackRecord struct {
	ItemID        string           `json:"item_id"`
	ProductName   string           `json:"product_name"`
	CurrentStock  *int             `json:"current_stock,omitempty"`
	SellingPrice  *decimal.Decimal `json:"selling_price,omitempty"`
	CostPrice     *decimal.Decimal `json:"cost_price,omitempty"`
	MinStockLevel *int             `json:"min_stock_level,omitempty"`
	MaxStockLevel *int             `json:"max_stock_level,omitempty"`
}

// SkippedRow is a row rejected by validation, with a machine-readable reason
type SkippedRow struct {
	RowNumber   int    `json:"row_number"`
	ProductName string `json:"product_name,omitempty"`
	Reason      string `json:"reason"`
}

// FailedRow is a row that hit an unexpected processing failure
type FailedRow struct {
	RowNumber   int    `json:"row_number"`
	ProductName string `json:"product_name,omitempty"`
	Error       string `json:"error"`
}

// BulkSummary reports the outcome of one bulk-update run. Partial failures are
// always surfaced here, never hidden.
type BulkSummary struct {
	TotalRows      int              `json:"total_rows"`
	Processed      int              `json:"processed"`
	Skipped        int              `json:"skipped"`
	Failed         int              `json:"failed"`
	Modified       int64            `json:"modified"`
	RecalcFailures int              `json:"recalc_failures"`
	Partial        bool             `json:"partial"`
	SkippedRows    []SkippedRow     `json:"skipped_rows"`
	FailedRows     []FailedRow      `json:"failed_rows"`
	Rollback       []RollbackRecord `json:"rollback"`
}

// BulkUpdateService applies uploaded bulk-update rows to a vendor's inventory.
//
// The run has two phases. Phase one matches rows to items by normalized
// product name, builds sparse patches carrying both the raw values and the
// derived fields recomputed from them, and applies all patches in one batch
// write. Phase two re-fetches every patched item and runs the full
// recalculation against fresh state, reconciling anything a concurrent write
// may have changed between read and patch. A phase-two failure on one item is
// logged and counted but never rolls back the already-applied writes.
type BulkUpdateService struct {
	items     ItemStore
	publisher *events.InventoryEventPublisher
	logger    *logger.Logger
}

// NewBulkUpdateService creates a new bulk update service
func NewBulkUpdateService(items ItemStore, publisher *events.InventoryEventPublisher, log *logger.Logger) *BulkUpdateService {
	return &BulkUpdateService{
		items:     items,
		publisher: publisher,
		logger:    log,
	}
}

// Run processes rows in input order against the vendor's items. Row-level
// problems skip or fail the row and continue; a batch-write failure aborts the
// run with nothing applied. On cancellation the summary reports partial
// completion and already-persisted writes stay persisted.
func (s *BulkUpdateService) Run(ctx context.Context, vendorID string, rows []BulkRow) (*BulkSummary, error) {
	vendorItems, err := s.items.ListActiveByVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*domain.InventoryItem, len(vendorItems))
	for _, item := range vendorItems {
		key := normalizeName(item.ProductName)
		if _, exists := byName[key]; !exists {
			byName[key] = item
		}
	}

	summary := &BulkSummary{
		TotalRows:   len(rows),
		SkippedRows: []SkippedRow{},
		FailedRows:  []FailedRow{},
		Rollback:    []RollbackRecord{},
	}

	now := time.Now().UTC()
	var patches []domain.ItemPatch
	patchedIDs := make([]string, 0, len(rows))

	for _, row := range rows {
		if ctx.Err() != nil {
			summary.Partial = true
			break
		}

		skip, failure := s.processRow(row, byName, now, summary, &patches, &patchedIDs)
		switch {
		case failure != nil:
			summary.Failed++
			summary.FailedRows = append(summary.FailedRows, *failure)
		case skip != nil:
			summary.Skipped++
			summary.SkippedRows = append(summary.SkippedRows, *skip)
		default:
			summary.Processed++
		}
	}

	if len(patches) > 0 && !summary.Partial {
		modified, err := s.items.BulkPatch(ctx, vendorID, patches)
		if err != nil {
			// Nothing was applied: the batch write is transactional
			return nil, err
		}
		summary.Modified = modified

		s.recalculatePatched(ctx, vendorID, patchedIDs, summary)
	}

	s.publisher.PublishBulkCompleted(ctx, vendorID,
		summary.TotalRows, summary.Processed, summary.Skipped, summary.Failed,
		summary.Modified, summary.Partial)

	s.logger.Info().
		Str("vendor_id", vendorID).
		Int("total_rows", summary.TotalRows).
		Int("processed", summary.Processed).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Int64("modified", summary.Modified).
		Int("recalc_failures", summary.RecalcFailures).
		Bool("partial", summary.Partial).
		Msg("bulk update completed")

	return summary, nil
}

// processRow validates one row and, if it yields a non-empty patch, appends
// the patch and its rollback record. A panic while processing is converted
// into a row failure so one poisoned row cannot take down the run.
func (s *BulkUpdateService) processRow(
	row BulkRow,
	byName map[string]*domain.InventoryItem,
	now time.Time,
	summary *BulkSummary,
	patches *[]domain.ItemPatch,
	patchedIDs *[]string,
) (skip *SkippedRow, failure *FailedRow) {
	defer func() {
		if r := recover(); r != nil {
			failure = &FailedRow{
				RowNumber:   row.RowNumber,
				ProductName: row.ProductName,
				Error:       fmt.Sprint(r),
			}
		}
	}()

	if strings.TrimSpace(row.ProductName) == "" {
		return &SkippedRow{RowNumber: row.RowNumber, Reason: SkipMissingProductName}, nil
	}

	item, ok := byName[normalizeName(row.ProductName)]
	if !ok {
		return &SkippedRow{RowNumber: row.RowNumber, ProductName: row.ProductName, Reason: SkipNoMatchingItem}, nil
	}

	patch, rollback := buildPatch(item, row, now)
	if patch.IsEmpty() {
		return &SkippedRow{RowNumber: row.RowNumber, ProductName: row.ProductName, Reason: SkipNoValidFields}, nil
	}

	summary.Rollback = append(summary.Rollback, rollback)
	*patches = append(*patches, patch)
	*patchedIDs = append(*patchedIDs, item.ID)
	return nil, nil
}

// recalculatePatched is the forced recalculation phase: the batch write put
// raw values in place together with derived fields computed from a snapshot,
// so each item is re-derived from fresh state and persisted individually.
func (s *BulkUpdateService) recalculatePatched(ctx context.Context, vendorID string, ids []string, summary *BulkSummary) {
	now := time.Now().UTC()

	for _, id := range ids {
		if ctx.Err() != nil {
			summary.Partial = true
			return
		}

		item, err := s.items.GetByID(ctx, vendorID, id)
		if err != nil {
			s.logger.Error().Err(err).Str("item_id", id).Msg("bulk recalculation: fetch failed")
			summary.RecalcFailures++
			continue
		}

		*item = domain.Recalculate(*item, now)
		if err := s.items.Update(ctx, item); err != nil {
			s.logger.Error().Err(err).Str("item_id", id).Msg("bulk recalculation: update failed")
			summary.RecalcFailures++
			continue
		}

		s.publisher.PublishItemUpdated(ctx, item, "bulk")
	}
}

// buildPatch assembles the sparse patch from the row's in-bounds fields and
// the rollback record holding the item's current values for those fields.
// Derived fields are computed by running the full pipeline on a patched copy,
// so the batch write never leaves stale derived state visible.
func buildPatch(item *domain.InventoryItem, row BulkRow, now time.Time) (domain.ItemPatch, RollbackRecord) {
	patch := domain.ItemPatch{ItemID: item.ID}
	rollback := RollbackRecord{ItemID: item.ID, ProductName: item.ProductName}

	preview := *item

	if row.CurrentStock != nil && *row.CurrentStock >= 0 {
		prior := item.CurrentStock
		rollback.CurrentStock = &prior
		patch.CurrentStock = row.CurrentStock
		preview.CurrentStock = *row.CurrentStock
	}
	if row.SellingPrice != nil && !row.SellingPrice.IsNegative() {
		prior := item.SellingPrice
		rollback.SellingPrice = &prior
		patch.SellingPrice = row.SellingPrice
		preview.SellingPrice = *row.SellingPrice
	}
	if row.CostPrice != nil && !row.CostPrice.IsNegative() {
		prior := item.CostPrice
		rollback.CostPrice = &prior
		patch.CostPrice = row.CostPrice
		preview.CostPrice = *row.CostPrice
	}
	if row.MinStockLevel != nil && *row.MinStockLevel >= 0 {
		prior := item.MinStockLevel
		rollback.MinStockLevel = &prior
		patch.MinStockLevel = row.MinStockLevel
		preview.MinStockLevel = *row.MinStockLevel
	}
	if row.MaxStockLevel != nil && *row.MaxStockLevel >= 1 {
		prior := item.MaxStockLevel
		rollback.MaxStockLevel = &prior
		patch.MaxStockLevel = row.MaxStockLevel
		preview.MaxStockLevel = *row.MaxStockLevel
	}

	if patch.IsEmpty() {
		return patch, rollback
	}

	preview = domain.Recalculate(preview, now)
	patch.FinalPrice = &preview.FinalPrice
	patch.Margin = &preview.Margin
	patch.MarginPercentage = &preview.MarginPercentage
	patch.HasNegativeMargin = &preview.HasNegativeMargin
	patch.AvailableStock = &preview.AvailableStock
	patch.IsAvailable = &preview.IsAvailable
	patch.IsOutOfStock = &preview.IsOutOfStock
	patch.AvailabilityStatus = &preview.AvailabilityStatus
	patch.IsActive = &preview.IsActive

	return patch, rollback
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
