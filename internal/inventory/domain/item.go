package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AvailabilityStatus classifies an item's purchasability
type AvailabilityStatus string

const (
	StatusAvailable    AvailabilityStatus = "available"
	StatusLowStock     AvailabilityStatus = "low_stock"
	StatusOutOfStock   AvailabilityStatus = "out_of_stock"
	StatusDiscontinued AvailabilityStatus = "discontinued"
)

// InventoryItem is one vendor's listing of one catalog product.
// Fields marked derived are recomputed by Recalculate on every write path
// and are never trusted as inputs.
type InventoryItem struct {
	ID          string `db:"id" json:"id"`
	VendorID    string `db:"vendor_id" json:"vendor_id"`
	ProductID   string `db:"product_id" json:"product_id"`
	ProductName string `db:"product_name" json:"product_name"`

	// Pricing
	CostPrice          decimal.Decimal `db:"cost_price" json:"cost_price"`
	SellingPrice       decimal.Decimal `db:"selling_price" json:"selling_price"`
	DiscountPercentage decimal.Decimal `db:"discount_percentage" json:"discount_percentage"`
	FinalPrice         decimal.Decimal `db:"final_price" json:"final_price"`           // derived
	Margin             decimal.Decimal `db:"margin" json:"margin"`                     // derived
	MarginPercentage   decimal.Decimal `db:"margin_percentage" json:"margin_percentage"` // derived
	HasNegativeMargin  bool            `db:"has_negative_margin" json:"has_negative_margin"` // derived

	// Inventory
	CurrentStock   int `db:"current_stock" json:"current_stock"`
	MinStockLevel  int `db:"min_stock_level" json:"min_stock_level"`
	MaxStockLevel  int `db:"max_stock_level" json:"max_stock_level"`
	ReservedStock  int `db:"reserved_stock" json:"reserved_stock"`
	AvailableStock int `db:"available_stock" json:"available_stock"` // derived

	// Expiry tracking
	HasExpiry bool      `db:"has_expiry" json:"has_expiry"`
	Batches   BatchList `db:"batches" json:"batches"`

	// Availability (all derived except a manual discontinued override)
	IsAvailable        bool               `db:"is_available" json:"is_available"`
	IsOutOfStock       bool               `db:"is_out_of_stock" json:"is_out_of_stock"`
	AvailabilityStatus AvailabilityStatus `db:"availability_status" json:"availability_status"`

	// Settings
	HideWhenOutOfStock     bool `db:"hide_when_out_of_stock" json:"hide_when_out_of_stock"`
	AutoDiscountNearExpiry bool `db:"auto_discount_near_expiry" json:"auto_discount_near_expiry"`
	MinOrderQuantity       int  `db:"min_order_quantity" json:"min_order_quantity"`
	MaxOrderQuantity       int  `db:"max_order_quantity" json:"max_order_quantity"`
	IsActive               bool `db:"is_active" json:"is_active"`

	// Version is bumped on every successful write; updates use compare-and-swap
	// on this field to prevent lost updates between concurrent writers.
	Version int64 `db:"version" json:"version"`

	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
}

// BatchList stores an item's batches as a JSONB document column.
// The item row is the unit of mutation, so batches travel with it.
type BatchList []Batch

// Value implements driver.Valuer for JSONB storage
func (b BatchList) Value() (driver.Value, error) {
	if b == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(b)
}

// Scan implements sql.Scanner for JSONB storage
func (b *BatchList) Scan(src interface{}) error {
	if src == nil {
		*b = BatchList{}
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into BatchList", src)
	}

	return json.Unmarshal(data, b)
}

// ItemPatch is a sparse update against one item. Nil fields are not written.
// The raw fields come from a bulk row; the derived fields are filled in by the
// bulk engine from an in-process recalculation so the batch write never leaves
// stale derived values visible.
type ItemPatch struct {
	ItemID string

	// Raw fields from the caller
	CurrentStock  *int
	SellingPrice  *decimal.Decimal
	CostPrice     *decimal.Decimal
	MinStockLevel *int
	MaxStockLevel *int

	// Derived refresh written alongside the raw values
	FinalPrice         *decimal.Decimal
	Margin             *decimal.Decimal
	MarginPercentage   *decimal.Decimal
	HasNegativeMargin  *bool
	AvailableStock     *int
	IsAvailable        *bool
	IsOutOfStock       *bool
	AvailabilityStatus *AvailabilityStatus
	IsActive           *bool
}

// IsEmpty reports whether the patch carries no caller-supplied fields
func (p *ItemPatch) IsEmpty() bool {
	return p.CurrentStock == nil &&
		p.SellingPrice == nil &&
		p.CostPrice == nil &&
		p.MinStockLevel == nil &&
		p.MaxStockLevel == nil
}
