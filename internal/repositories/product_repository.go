package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"market-admin/internal/models"
)

type ProductRepository struct {
	DB *pgxpool.Pool
}

func NewProductRepository(db *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{DB: db}
}

const productColumns = `id::text, name, description, price, category, stock_quantity, status,
	images, specifications, created_by::text, seller_id::text, is_approved, version, created_at, updated_at`

func scanProduct(row interface{ Scan(...interface{}) error }) (*models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.StockQuantity, &p.Status,
		&p.Images, &p.Specifications, &p.CreatedBy, &p.SellerID, &p.IsApproved, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Specifications == nil {
		p.Specifications = map[string]interface{}{}
	}
	return &p, nil
}

func (r *ProductRepository) queryProducts(ctx context.Context, query string, args ...interface{}) ([]*models.Product, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []*models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// List returns products newest first. Deleted products are hidden unless
// the filter asks for status "deleted" explicitly.
func (r *ProductRepository) List(ctx context.Context, f models.ProductFilter) ([]*models.Product, error) {
	var c conditions
	if f.Status != "" {
		c.add("status = ?", f.Status)
	} else {
		c.add("status <> 'deleted'")
	}
	if f.Category != "" {
		c.add("category = ?", f.Category)
	}
	if f.Search != "" {
		// ILIKE keeps search case-insensitive; covered against a live
		// database by the integration-tagged TestProductSearchIgnoresCase.
		pattern := likePattern(f.Search)
		c.add("(name ILIKE ? OR description ILIKE ? OR category ILIKE ?)", pattern, pattern, pattern)
	}

	query := `SELECT ` + productColumns + ` FROM products` + c.where() + ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		query += " LIMIT " + c.arg(f.Limit)
	}
	if f.Offset > 0 {
		query += " OFFSET " + c.arg(f.Offset)
	}
	return r.queryProducts(ctx, query, c.args...)
}

// Get returns a product regardless of status.
func (r *ProductRepository) Get(ctx context.Context, id string) (*models.Product, error) {
	return scanProduct(r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
}

func (r *ProductRepository) Create(ctx context.Context, in *models.ProductInput) (*models.Product, error) {
	images := in.Images
	if images == nil {
		images = []string{}
	}
	specs := in.Specifications
	if specs == nil {
		specs = map[string]interface{}{}
	}
	return scanProduct(r.DB.QueryRow(ctx,
		`INSERT INTO products(name, description, price, category, stock_quantity, status,
                              images, specifications, created_by, seller_id, created_at, updated_at)
         VALUES($1, $2, $3, $4, $5, 'active', $6, $7, $8, $9, NOW(), NOW())
         RETURNING `+productColumns,
		in.Name, in.Description, in.Price, in.Category, in.StockQuantity,
		images, specs, in.CreatedBy, in.SellerID,
	))
}

// Update applies a partial update and bumps the version. When
// ExpectedVersion is set and stale, ErrVersionConflict is returned.
func (r *ProductRepository) Update(ctx context.Context, id string, p *models.ProductPatch) (*models.Product, error) {
	var s setList
	if p.Name != nil {
		s.set("name", *p.Name)
	}
	if p.Description != nil {
		s.set("description", *p.Description)
	}
	if p.Price != nil {
		s.set("price", *p.Price)
	}
	if p.Category != nil {
		s.set("category", *p.Category)
	}
	if p.StockQuantity != nil {
		s.set("stock_quantity", *p.StockQuantity)
	}
	if p.Status != nil {
		s.set("status", *p.Status)
	}
	if p.Images != nil {
		s.set("images", *p.Images)
	}
	if p.Specifications != nil {
		s.set("specifications", p.Specifications)
	}
	if p.IsApproved != nil {
		s.set("is_approved", *p.IsApproved)
	}
	return r.applyUpdate(ctx, id, &s, p.ExpectedVersion)
}

// SoftDelete flips status to deleted; the row stays retrievable by id.
func (r *ProductRepository) SoftDelete(ctx context.Context, id string, expectedVersion *int) (*models.Product, error) {
	var s setList
	s.set("status", models.ProductDeleted)
	return r.applyUpdate(ctx, id, &s, expectedVersion)
}

func (r *ProductRepository) applyUpdate(ctx context.Context, id string, s *setList, expectedVersion *int) (*models.Product, error) {
	if s.empty() {
		return r.Get(ctx, id)
	}
	query := fmt.Sprintf(`UPDATE products SET %s, version = version + 1, updated_at = NOW() WHERE id = %s`,
		s.String(), s.arg(id))
	if expectedVersion != nil {
		query += " AND version = " + s.arg(*expectedVersion)
	}
	query += " RETURNING " + productColumns

	p, err := scanProduct(r.DB.QueryRow(ctx, query, s.args...))
	if errors.Is(err, ErrNotFound) && expectedVersion != nil {
		if _, getErr := r.Get(ctx, id); getErr == nil {
			return nil, ErrVersionConflict
		}
	}
	return p, err
}

// AppendImage adds a stored image URL to the product gallery.
func (r *ProductRepository) AppendImage(ctx context.Context, id, url string) (*models.Product, error) {
	return scanProduct(r.DB.QueryRow(ctx,
		`UPDATE products SET images = array_append(images, $2), version = version + 1, updated_at = NOW()
         WHERE id = $1 RETURNING `+productColumns, id, url))
}

func (r *ProductRepository) RemoveImage(ctx context.Context, id, url string) (*models.Product, error) {
	return scanProduct(r.DB.QueryRow(ctx,
		`UPDATE products SET images = array_remove(images, $2), version = version + 1, updated_at = NOW()
         WHERE id = $1 RETURNING `+productColumns, id, url))
}

// LowStock lists live products with stock at or below threshold, scarcest first.
func (r *ProductRepository) LowStock(ctx context.Context, threshold int) ([]*models.Product, error) {
	return r.queryProducts(ctx,
		`SELECT `+productColumns+` FROM products
         WHERE status <> 'deleted' AND stock_quantity <= $1
         ORDER BY stock_quantity ASC, name ASC`, threshold)
}
