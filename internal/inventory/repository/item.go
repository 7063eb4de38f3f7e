package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/vendora/vendora-backend/internal/inventory/domain"
	"github.com/vendora/vendora-backend/pkg/database"
	"github.com/vendora/vendora-backend/pkg/errors"
)

const itemColumns = `
	id, vendor_id, product_id, product_name,
	cost_price, selling_price, discount_percentage,
	final_price, margin, margin_percentage, has_negative_margin,
	current_stock, min_stock_level, max_stock_level, reserved_stock, available_stock,
	has_expiry, batches,
	is_available, is_out_of_stock, availability_status,
	hide_when_out_of_stock, auto_discount_near_expiry,
	min_order_quantity, max_order_quantity, is_active,
	version, created_at, updated_at`

// ItemRepository handles vendor inventory item persistence
type ItemRepository struct {
	db *database.DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *database.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Create inserts a new inventory item
func (r *ItemRepository) Create(ctx context.Context, item *domain.InventoryItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.Version = 1

	query := `
		INSERT INTO vendor_items (
			id, vendor_id, product_id, product_name,
			cost_price, selling_price, discount_percentage,
			final_price, margin, margin_percentage, has_negative_margin,
			current_stock, min_stock_level, max_stock_level, reserved_stock, available_stock,
			has_expiry, batches,
			is_available, is_out_of_stock, availability_status,
			hide_when_out_of_stock, auto_discount_near_expiry,
			min_order_quantity, max_order_quantity, is_active, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		item.ID, item.VendorID, item.ProductID, item.ProductName,
		item.CostPrice, item.SellingPrice, item.DiscountPercentage,
		item.FinalPrice, item.Margin, item.MarginPercentage, item.HasNegativeMargin,
		item.CurrentStock, item.MinStockLevel, item.MaxStockLevel, item.ReservedStock, item.AvailableStock,
		item.HasExpiry, item.Batches,
		item.IsAvailable, item.IsOutOfStock, item.AvailabilityStatus,
		item.HideWhenOutOfStock, item.AutoDiscountNearExpiry,
		item.MinOrderQuantity, item.MaxOrderQuantity, item.IsActive, item.Version,
	).Scan(&item.CreatedAt, &item.UpdatedAt)

	if pqErr, ok := err.(*pq.Error); ok {
		return database.MapPQError(pqErr)
	}
	return err
}

// GetByID gets an item by ID, scoped to the vendor
func (r *ItemRepository) GetByID(ctx context.Context, vendorID, id string) (*domain.InventoryItem, error) {
	var item domain.InventoryItem

	query := `SELECT ` + itemColumns + `
		FROM vendor_items
		WHERE id = $1 AND vendor_id = $2 AND deleted_at IS NULL`

	err := r.db.GetContext(ctx, &item, query, id, vendorID)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("item")
	}
	if err != nil {
		return nil, err
	}

	return &item, nil
}

// GetByVendorAndProduct gets the vendor's listing for a product
func (r *ItemRepository) GetByVendorAndProduct(ctx context.Context, vendorID, productID string) (*domain.InventoryItem, error) {
	var item domain.InventoryItem

	query := `SELECT ` + itemColumns + `
		FROM vendor_items
		WHERE vendor_id = $1 AND product_id = $2 AND deleted_at IS NULL`

	err := r.db.GetContext(ctx, &item, query, vendorID, productID)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("item")
	}
	if err != nil {
		return nil, err
	}

	return &item, nil
}

// ListByVendor lists the vendor's items with pagination. Inactive items are
// included: the vendor portal shows the full listing, the storefront filters.
func (r *ItemRepository) ListByVendor(ctx context.Context, vendorID string, page, perPage int) ([]*domain.InventoryItem, int64, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM vendor_items WHERE vendor_id = $1 AND deleted_at IS NULL`
	if err := r.db.GetContext(ctx, &total, countQuery, vendorID); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	query := `SELECT ` + itemColumns + `
		FROM vendor_items
		WHERE vendor_id = $1 AND deleted_at IS NULL
		ORDER BY product_name
		LIMIT $2 OFFSET $3`

	var items []*domain.InventoryItem
	if err := r.db.SelectContext(ctx, &items, query, vendorID, perPage, offset); err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// ListActiveByVendor lists all of the vendor's active items without pagination,
// used by the bulk engine to build its product-name lookup.
func (r *ItemRepository) ListActiveByVendor(ctx context.Context, vendorID string) ([]*domain.InventoryItem, error) {
	query := `SELECT ` + itemColumns + `
		FROM vendor_items
		WHERE vendor_id = $1 AND is_active = true AND deleted_at IS NULL
		ORDER BY product_name`

	var items []*domain.InventoryItem
	if err := r.db.SelectContext(ctx, &items, query, vendorID); err != nil {
		return nil, err
	}
	return items, nil
}

// ListExpiryTracked lists every active item, across vendors, that carries
// expiry-tracked batches. The sweep job re-evaluates these daily.
func (r *ItemRepository) ListExpiryTracked(ctx context.Context) ([]*domain.InventoryItem, error) {
	query := `SELECT ` + itemColumns + `
		FROM vendor_items
		WHERE has_expiry = true
		  AND is_active = true
		  AND deleted_at IS NULL
		  AND jsonb_array_length(batches) > 0
		ORDER BY vendor_id, product_name`

	var items []*domain.InventoryItem
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, err
	}
	return items, nil
}

// Update persists the full item state with an optimistic concurrency check.
// The caller passes the version it read; a mismatch means someone else wrote
// in between and yields a version conflict.
func (r *ItemRepository) Update(ctx context.Context, item *domain.InventoryItem) error {
	query := `
		UPDATE vendor_items SET
			product_name = $3,
			cost_price = $4, selling_price = $5, discount_percentage = $6,
			final_price = $7, margin = $8, margin_percentage = $9, has_negative_margin = $10,
			current_stock = $11, min_stock_level = $12, max_stock_level = $13,
			reserved_stock = $14, available_stock = $15,
			has_expiry = $16, batches = $17,
			is_available = $18, is_out_of_stock = $19, availability_status = $20,
			hide_when_out_of_stock = $21, auto_discount_near_expiry = $22,
			min_order_quantity = $23, max_order_quantity = $24, is_active = $25,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $1 AND version = $2 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		item.ID, item.Version, item.ProductName,
		item.CostPrice, item.SellingPrice, item.DiscountPercentage,
		item.FinalPrice, item.Margin, item.MarginPercentage, item.HasNegativeMargin,
		item.CurrentStock, item.MinStockLevel, item.MaxStockLevel,
		item.ReservedStock, item.AvailableStock,
		item.HasExpiry, item.Batches,
		item.IsAvailable, item.IsOutOfStock, item.AvailabilityStatus,
		item.HideWhenOutOfStock, item.AutoDiscountNearExpiry,
		item.MinOrderQuantity, item.MaxOrderQuantity, item.IsActive,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return database.MapPQError(pqErr)
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.VersionConflict("item")
	}

	item.Version++
	return nil
}

// SoftDelete marks an item deleted without removing the row
func (r *ItemRepository) SoftDelete(ctx context.Context, vendorID, id string) error {
	query := `UPDATE vendor_items SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND vendor_id = $2 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, vendorID)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("item")
	}

	return nil
}

// BulkPatch applies sparse patches in a single transaction and returns the
// number of rows modified. Only the fields a patch carries are written; the
// version is bumped on every touched row. Any failure rolls back the whole
// batch.
func (r *ItemRepository) BulkPatch(ctx context.Context, vendorID string, patches []domain.ItemPatch) (int64, error) {
	if len(patches) == 0 {
		return 0, nil
	}

	var modified int64
	err := r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		for _, patch := range patches {
			query, args := buildPatchQuery(vendorID, patch)
			if query == "" {
				continue
			}

			result, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				if pqErr, ok := err.(*pq.Error); ok {
					return database.MapPQError(pqErr)
				}
				return err
			}

			affected, _ := result.RowsAffected()
			modified += affected
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return modified, nil
}

// buildPatchQuery renders one sparse UPDATE from the patch's non-nil fields
func buildPatchQuery(vendorID string, patch domain.ItemPatch) (string, []interface{}) {
	sets := []string{"version = version + 1", "updated_at = NOW()"}
	args := []interface{}{patch.ItemID, vendorID}
	n := len(args)

	add := func(column string, value interface{}) {
		n++
		sets = append(sets, fmt.Sprintf("%s = $%d", column, n))
		args = append(args, value)
	}

	if patch.CurrentStock != nil {
		add("current_stock", *patch.CurrentStock)
	}
	if patch.SellingPrice != nil {
		add("selling_price", *patch.SellingPrice)
	}
	if patch.CostPrice != nil {
		add("cost_price", *patch.CostPrice)
	}
	if patch.MinStockLevel != nil {
		add("min_stock_level", *patch.MinStockLevel)
	}
	if patch.MaxStockLevel != nil {
		add("max_stock_level", *patch.MaxStockLevel)
	}

	if len(args) == 2 {
		return "", nil
	}

	if patch.FinalPrice != nil {
		add("final_price", *patch.FinalPrice)
	}
	if patch.Margin != nil {
		add("margin", *patch.Margin)
	}
	if patch.MarginPercentage != nil {
		add("margin_percentage", *patch.MarginPercentage)
	}
	if patch.HasNegativeMargin != nil {
		add("has_negative_margin", *patch.HasNegativeMargin)
	}
	if patch.AvailableStock != nil {
		add("available_stock", *patch.AvailableStock)
	}
	if patch.IsAvailable != nil {
		add("is_available", *patch.IsAvailable)
	}
	if patch.IsOutOfStock != nil {
		add("is_out_of_stock", *patch.IsOutOfStock)
	}
	if patch.AvailabilityStatus != nil {
		add("availability_status", *patch.AvailabilityStatus)
	}
	if patch.IsActive != nil {
		add("is_active", *patch.IsActive)
	}

	query := fmt.Sprintf(
		"UPDATE vendor_items SET %s WHERE id = $1 AND vendor_id = $2 AND deleted_at IS NULL",
		strings.Join(sets, ", "),
	)
	return query, args
}
