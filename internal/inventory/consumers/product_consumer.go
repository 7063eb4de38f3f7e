package consumers

import (
	"context"

	"github.com/vendora/vendora-backend/internal/inventory/domain"
	"github.com/vendora/vendora-backend/internal/inventory/repository"
	"github.com/vendora/vendora-backend/pkg/logger"
	"github.com/vendora/vendora-backend/pkg/messaging"
)

// ProductEventConsumer keeps the local catalog read model in sync with the
// catalog service's events.
type ProductEventConsumer struct {
	consumer    *messaging.Consumer
	productRepo *repository.ProductRepository
	logger      *logger.Logger
}

// NewProductEventConsumer creates a new product event consumer
func NewProductEventConsumer(rmq *messaging.RabbitMQ, productRepo *repository.ProductRepository, log *logger.Logger) (*ProductEventConsumer, error) {
	consumer, err := messaging.NewConsumer(rmq, "vendor-portal.catalog-events", log)
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(messaging.ExchangeCatalogEvents, "catalog.#"); err != nil {
		return nil, err
	}

	c := &ProductEventConsumer{
		consumer:    consumer,
		productRepo: productRepo,
		logger:      log,
	}

	consumer.RegisterHandler(messaging.EventProductCreated, c.handleProductCreated)
	consumer.RegisterHandler(messaging.EventProductUpdated, c.handleProductUpdated)
	consumer.RegisterHandler(messaging.EventProductDiscontinued, c.handleProductDiscontinued)

	return c, nil
}

// Start starts consuming messages
func (c *ProductEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

func (c *ProductEventConsumer) handleProductCreated(ctx context.Context, event *messaging.Event) error {
	var data messaging.ProductCreatedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	c.logger.Info().
		Str("product_id", data.ProductID).
		Str("name", data.Name).
		Msg("received product created event")

	return c.productRepo.Upsert(ctx, &domain.Product{
		ID:       data.ProductID,
		Name:     data.Name,
		Category: data.Category,
		Unit:     data.Unit,
	})
}

func (c *ProductEventConsumer) handleProductUpdated(ctx context.Context, event *messaging.Event) error {
	var data messaging.ProductUpdatedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	c.logger.Info().
		Str("product_id", data.ProductID).
		Msg("received product updated event")

	existing, err := c.productRepo.GetByID(ctx, data.ProductID)
	if err != nil {
		// Not in the read model yet; the next created event will add it
		c.logger.Warn().Str("product_id", data.ProductID).Msg("product update for unknown product, skipping")
		return nil
	}

	if name, ok := data.Fields["name"].(string); ok {
		existing.Name = name
	}
	if category, ok := data.Fields["category"].(string); ok {
		existing.Category = category
	}
	if unit, ok := data.Fields["unit"].(string); ok {
		existing.Unit = unit
	}

	return c.productRepo.Upsert(ctx, existing)
}

func (c *ProductEventConsumer) handleProductDiscontinued(ctx context.Context, event *messaging.Event) error {
	var data messaging.ProductDiscontinuedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	c.logger.Info().
		Str("product_id", data.ProductID).
		Msg("received product discontinued event")

	return c.productRepo.MarkDiscontinued(ctx, data.ProductID)
}
