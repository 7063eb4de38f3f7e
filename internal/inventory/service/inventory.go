package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vendora/vendora-backend/internal/inventory/domain"
	"github.com/vendora/vendora-backend/internal/inventory/events"
	"github.com/vendora/vendora-backend/internal/inventory/repository"
	"github.com/vendora/vendora-backend/pkg/errors"
	"github.com/vendora/vendora-backend/pkg/logger"
)

// ItemStore is the persistence surface the services need. Implemented by
// repository.ItemRepository; faked in tests.
type ItemStore interface {
	Create(ctx context.Context, item *domain.InventoryItem) error
	GetByID(ctx context.Context, vendorID, id string) (*domain.InventoryItem, error)
	GetByVendorAndProduct(ctx context.Context, vendorID, productID string) (*domain.InventoryItem, error)
	ListByVendor(ctx context.Context, vendorID string, page, perPage int) ([]*domain.InventoryItem, int64, error)
	ListActiveByVendor(ctx context.Context, vendorID string) ([]*domain.InventoryItem, error)
	ListExpiryTracked(ctx context.Context) ([]*domain.InventoryItem, error)
	Update(ctx context.Context, item *domain.InventoryItem) error
	SoftDelete(ctx context.Context, vendorID, id string) error
	BulkPatch(ctx context.Context, vendorID string, patches []domain.ItemPatch) (int64, error)
}

// InventoryService handles vendor inventory business logic. Every write path
// runs the full recalculation before persisting, so derived fields on disk are
// always consistent with the raw inputs.
type InventoryService struct {
	items       ItemStore
	productRepo *repository.ProductRepository
	publisher   *events.InventoryEventPublisher
	logger      *logger.Logger
}

// NewInventoryService creates a new inventory service
func NewInventoryService(
	items ItemStore,
	productRepo *repository.ProductRepository,
	publisher *events.InventoryEventPublisher,
	log *logger.Logger,
) *InventoryService {
	return &InventoryService{
		items:       items,
		productRepo: productRepo,
		publisher:   publisher,
		logger:      log,
	}
}

// CreateItemInput is the payload for listing a catalog product
type CreateItemInput struct {
	ProductID              string          `json:"product_id" validate:"required"`
	CostPrice              decimal.Decimal `json:"cost_price"`
	SellingPrice           decimal.Decimal `json:"selling_price"`
	DiscountPercentage     decimal.Decimal `json:"discount_percentage"`
	CurrentStock           int             `json:"current_stock" validate:"gte=0"`
	MinStockLevel          int             `json:"min_stock_level" validate:"gte=0"`
	MaxStockLevel          int             `json:"max_stock_level" validate:"gte=0"`
	HasExpiry              bool            `json:"has_expiry"`
	HideWhenOutOfStock     bool            `json:"hide_when_out_of_stock"`
	AutoDiscountNearExpiry bool            `json:"auto_discount_near_expiry"`
	MinOrderQuantity       int             `json:"min_order_quantity" validate:"gte=0"`
	MaxOrderQuantity       int             `json:"max_order_quantity" validate:"gte=0"`
}

// UpdateItemInput is a partial update; nil fields are left unchanged
type UpdateItemInput struct {
	CostPrice              *decimal.Decimal `json:"cost_price,omitempty"`
	SellingPrice           *decimal.Decimal `json:"selling_price,omitempty"`
	DiscountPercentage     *decimal.Decimal `json:"discount_percentage,omitempty"`
	CurrentStock           *int             `json:"current_stock,omitempty" validate:"omitempty,gte=0"`
	MinStockLevel          *int             `json:"min_stock_level,omitempty" validate:"omitempty,gte=0"`
	MaxStockLevel          *int             `json:"max_stock_level,omitempty" validate:"omitempty,gte=0"`
	ReservedStock          *int             `json:"reserved_stock,omitempty" validate:"omitempty,gte=0"`
	HasExpiry              *bool            `json:"has_expiry,omitempty"`
	HideWhenOutOfStock     *bool            `json:"hide_when_out_of_stock,omitempty"`
	AutoDiscountNearExpiry *bool            `json:"auto_discount_near_expiry,omitempty"`
	MinOrderQuantity       *int             `json:"min_order_quantity,omitempty" validate:"omitempty,gte=0"`
	MaxOrderQuantity       *int             `json:"max_order_quantity,omitempty" validate:"omitempty,gte=0"`
	IsActive               *bool            `json:"is_active,omitempty"`
}

// BatchSubmission carries incoming batch records for one item
type BatchSubmission struct {
	Batches    []domain.BatchInput `json:"batches" validate:"required,dive"`
	ReplaceAll bool                `json:"replace_all"`
}

// CreateItem lists a catalog product for the vendor
func (s *InventoryService) CreateItem(ctx context.Context, vendorID string, input CreateItemInput) (*domain.InventoryItem, error) {
	product, err := s.productRepo.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if product.IsDiscontinued {
		return nil, errors.Conflict("product is discontinued and cannot be listed")
	}

	item := domain.InventoryItem{
		VendorID:               vendorID,
		ProductID:              product.ID,
		ProductName:            product.Name,
		CostPrice:              input.CostPrice,
		SellingPrice:           input.SellingPrice,
		DiscountPercentage:     input.DiscountPercentage,
		CurrentStock:           input.CurrentStock,
		MinStockLevel:          input.MinStockLevel,
		MaxStockLevel:          input.MaxStockLevel,
		HasExpiry:              input.HasExpiry,
		HideWhenOutOfStock:     input.HideWhenOutOfStock,
		AutoDiscountNearExpiry: input.AutoDiscountNearExpiry,
		MinOrderQuantity:       input.MinOrderQuantity,
		MaxOrderQuantity:       input.MaxOrderQuantity,
		IsActive:               true,
	}

	item = domain.Recalculate(item, time.Now().UTC())

	if err := s.items.Create(ctx, &item); err != nil {
		return nil, err
	}

	s.publisher.PublishItemUpdated(ctx, &item, "manual")
	return &item, nil
}

// GetItem gets one of the vendor's items
func (s *InventoryService) GetItem(ctx context.Context, vendorID, id string) (*domain.InventoryItem, error) {
	return s.items.GetByID(ctx, vendorID, id)
}

// ListItems lists the vendor's items with pagination
func (s *InventoryService) ListItems(ctx context.Context, vendorID string, page, perPage int) ([]*domain.InventoryItem, int64, error) {
	return s.items.ListByVendor(ctx, vendorID, page, perPage)
}

// UpdateItem applies a partial update, recomputes derived state and persists
// with an optimistic concurrency check.
func (s *InventoryService) UpdateItem(ctx context.Context, vendorID, id string, input UpdateItemInput) (*domain.InventoryItem, error) {
	item, err := s.items.GetByID(ctx, vendorID, id)
	if err != nil {
		return nil, err
	}

	applyItemInput(item, input)
	*item = domain.Recalculate(*item, time.Now().UTC())

	if err := s.items.Update(ctx, item); err != nil {
		return nil, err
	}

	s.publisher.PublishItemUpdated(ctx, item, "manual")
	return item, nil
}

// SubmitBatches reconciles incoming batch records into the item's batch list.
// In merge mode records match existing batches by batch number; in replace
// mode the incoming records become the full list.
func (s *InventoryService) SubmitBatches(ctx context.Context, vendorID, id string, submission BatchSubmission) (*domain.InventoryItem, error) {
	item, err := s.items.GetByID(ctx, vendorID, id)
	if err != nil {
		return nil, err
	}

	if !item.HasExpiry {
		return nil, errors.BadRequest("item does not track expiry batches")
	}

	now := time.Now().UTC()
	item.Batches = domain.ReconcileBatches(item.Batches, submission.Batches, submission.ReplaceAll, now)
	*item = domain.Recalculate(*item, now)

	if err := s.items.Update(ctx, item); err != nil {
		return nil, err
	}

	s.publisher.PublishItemUpdated(ctx, item, "manual")
	return item, nil
}

// DeactivateItem soft-removes a listing. The row is kept for history but no
// longer appears in any listing or sweep.
func (s *InventoryService) DeactivateItem(ctx context.Context, vendorID, id string) error {
	item, err := s.items.GetByID(ctx, vendorID, id)
	if err != nil {
		return err
	}

	if err := s.items.SoftDelete(ctx, vendorID, id); err != nil {
		return err
	}

	s.publisher.PublishItemDeactivated(ctx, item)
	return nil
}

// GetEffectivePrice computes the customer-facing price for an item as of now
func (s *InventoryService) GetEffectivePrice(ctx context.Context, vendorID, id string) (decimal.Decimal, error) {
	item, err := s.items.GetByID(ctx, vendorID, id)
	if err != nil {
		return decimal.Zero, err
	}
	return domain.EffectivePrice(*item, time.Now().UTC()), nil
}

// ListProducts lists browsable catalog products
func (s *InventoryService) ListProducts(ctx context.Context, page, perPage int, category string) ([]*domain.Product, int64, error) {
	return s.productRepo.List(ctx, page, perPage, category)
}

// GetProduct gets one catalog product
func (s *InventoryService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.productRepo.GetByID(ctx, id)
}

func applyItemInput(item *domain.InventoryItem, input UpdateItemInput) {
	if input.CostPrice != nil {
		item.CostPrice = *input.CostPrice
	}
	if input.SellingPrice != nil {
		item.SellingPrice = *input.SellingPrice
	}
	if input.DiscountPercentage != nil {
		item.DiscountPercentage = *input.DiscountPercentage
	}
	if input.CurrentStock != nil {
		item.CurrentStock = *input.CurrentStock
	}
	if input.MinStockLevel != nil {
		item.MinStockLevel = *input.MinStockLevel
	}
	if input.MaxStockLevel != nil {
		item.MaxStockLevel = *input.MaxStockLevel
	}
	if input.ReservedStock != nil {
		item.ReservedStock = *input.ReservedStock
	}
	if input.HasExpiry != nil {
		item.HasExpiry = *input.HasExpiry
	}
	if input.HideWhenOutOfStock != nil {
		item.HideWhenOutOfStock = *input.HideWhenOutOfStock
	}
	if input.AutoDiscountNearExpiry != nil {
		item.AutoDiscountNearExpiry = *input.AutoDiscountNearExpiry
	}
	if input.MinOrderQuantity != nil {
		item.MinOrderQuantity = *input.MinOrderQuantity
	}
	if input.MaxOrderQuantity != nil {
		item.MaxOrderQuantity = *input.MaxOrderQuantity
	}
	if input.IsActive != nil {
		item.IsActive = *input.IsActive
	}
}
