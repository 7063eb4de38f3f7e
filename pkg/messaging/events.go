package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Catalog events (consumed from the catalog service)
	EventProductCreated      = "catalog.product.created"
	EventProductUpdated      = "catalog.product.updated"
	EventProductDiscontinued = "catalog.product.discontinued"

	// Inventory events (published by the vendor portal)
	EventItemUpdated     = "inventory.item.updated"
	EventItemDeactivated = "inventory.item.deactivated"
	EventBulkCompleted   = "inventory.bulk.completed"
	EventSweepCompleted  = "inventory.sweep.completed"
)

// Exchange names
const (
	ExchangeCatalogEvents   = "catalog.events"
	ExchangeInventoryEvents = "inventory.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// Catalog events

// ProductCreatedEvent is published by the catalog service when a product is added
type ProductCreatedEvent struct {
	ProductID   string  `json:"product_id"`
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Description *string `json:"description,omitempty"`
	Unit        string  `json:"unit"`
}

// ProductUpdatedEvent is published by the catalog service when a product changes
type ProductUpdatedEvent struct {
	ProductID string         `json:"product_id"`
	Fields    map[string]any `json:"fields"` // Changed fields
}

// ProductDiscontinuedEvent is published when a product is removed from the catalog
type ProductDiscontinuedEvent struct {
	ProductID string `json:"product_id"`
}

// Inventory events

// ItemUpdatedEvent is published after an inventory item's derived state is recomputed
type ItemUpdatedEvent struct {
	ItemID             string `json:"item_id"`
	VendorID           string `json:"vendor_id"`
	ProductID          string `json:"product_id"`
	CurrentStock       int    `json:"current_stock"`
	AvailableStock     int    `json:"available_stock"`
	AvailabilityStatus string `json:"availability_status"`
	Source             string `json:"source"` // manual | bulk | sweep
}

// ItemDeactivatedEvent is published when a vendor soft-removes a listing
type ItemDeactivatedEvent struct {
	ItemID   string `json:"item_id"`
	VendorID string `json:"vendor_id"`
}

// BulkCompletedEvent is published after a bulk update run finishes
type BulkCompletedEvent struct {
	VendorID  string `json:"vendor_id"`
	TotalRows int    `json:"total_rows"`
	Processed int    `json:"processed"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
	Modified  int64  `json:"modified"`
	Partial   bool   `json:"partial"`
}

// SweepCompletedEvent is published after a daily expiry sweep finishes
type SweepCompletedEvent struct {
	ItemsScanned     int  `json:"items_scanned"`
	ItemsUpdated     int  `json:"items_updated"`
	BatchesProcessed int  `json:"batches_processed"`
	NearExpiryCount  int  `json:"near_expiry_count"`
	ExpiredCount     int  `json:"expired_count"`
	Partial          bool `json:"partial"`
}
