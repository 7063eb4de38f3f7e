package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/vendora/vendora-backend/internal/inventory/domain"
	"github.com/vendora/vendora-backend/pkg/database"
	"github.com/vendora/vendora-backend/pkg/errors"
)

// ProductRepository maintains the local read model of the shared product
// catalog, kept in sync by the catalog event consumer.
type ProductRepository struct {
	db *database.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *database.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Upsert inserts or refreshes a catalog product
func (r *ProductRepository) Upsert(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO catalog_products (id, name, category, unit, is_discontinued)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			unit = EXCLUDED.unit,
			is_discontinued = EXCLUDED.is_discontinued,
			updated_at = NOW()
	`

	_, err := r.db.ExecContext(ctx, query,
		product.ID, product.Name, product.Category, product.Unit, product.IsDiscontinued,
	)
	if pqErr, ok := err.(*pq.Error); ok {
		return database.MapPQError(pqErr)
	}
	return err
}

// MarkDiscontinued flags a product as discontinued in the local read model
func (r *ProductRepository) MarkDiscontinued(ctx context.Context, id string) error {
	query := `UPDATE catalog_products SET is_discontinued = true, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("product")
	}

	return nil
}

// GetByID gets a catalog product by ID
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product

	query := `
		SELECT id, name, category, unit, is_discontinued, created_at, updated_at
		FROM catalog_products WHERE id = $1
	`

	err := r.db.GetContext(ctx, &product, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("product")
	}
	if err != nil {
		return nil, err
	}

	return &product, nil
}

// List lists catalog products with pagination, newest first, optionally
// filtered by category. Discontinued products are excluded.
func (r *ProductRepository) List(ctx context.Context, page, perPage int, category string) ([]*domain.Product, int64, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM catalog_products WHERE is_discontinued = false`
	countArgs := []interface{}{}

	if category != "" {
		countQuery += ` AND category = $1`
		countArgs = append(countArgs, category)
	}

	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	query := `
		SELECT id, name, category, unit, is_discontinued, created_at, updated_at
		FROM catalog_products WHERE is_discontinued = false
	`
	args := []interface{}{}

	if category != "" {
		query += ` AND category = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, category, perPage, offset)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		args = append(args, perPage, offset)
	}

	var products []*domain.Product
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, 0, err
	}

	return products, total, nil
}
