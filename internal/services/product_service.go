package services

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"market-admin/internal/cache"
	"market-admin/internal/models"
)

const productListTTL = 60 * time.Second

type ProductStore interface {
	List(ctx context.Context, f models.ProductFilter) ([]*models.Product, error)
	Get(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, in *models.ProductInput) (*models.Product, error)
	Update(ctx context.Context, id string, p *models.ProductPatch) (*models.Product, error)
	SoftDelete(ctx context.Context, id string, expectedVersion *int) (*models.Product, error)
	AppendImage(ctx context.Context, id, url string) (*models.Product, error)
	RemoveImage(ctx context.Context, id, url string) (*models.Product, error)
	LowStock(ctx context.Context, threshold int) ([]*models.Product, error)
}

type ProductService struct {
	Repo     ProductStore
	Activity *ActivityRecorder
	logger   *logrus.Logger
}

func NewProductService(repo ProductStore, activity *ActivityRecorder, logger *logrus.Logger) *ProductService {
	return &ProductService{Repo: repo, Activity: activity, logger: logger}
}

// List returns products matching f, served from the query cache when warm.
func (s *ProductService) List(ctx context.Context, f models.ProductFilter) ([]*models.Product, error) {
	key := cache.Key(cache.ProductsPrefix, map[string]string{
		"category": f.Category,
		"status":   f.Status,
		"search":   f.Search,
		"limit":    strconv.Itoa(f.Limit),
		"offset":   strconv.Itoa(f.Offset),
	})
	if data, ok := cache.GetCached(ctx, key); ok {
		var products []*models.Product
		if err := json.Unmarshal(data, &products); err == nil {
			return products, nil
		}
	}

	products, err := s.Repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(products); err == nil {
		cache.SetCached(ctx, key, data, productListTTL)
	}
	return products, nil
}

// Search matches query case-insensitively against name, description and category.
func (s *ProductService) Search(ctx context.Context, query string, limit int) ([]*models.Product, error) {
	return s.List(ctx, models.ProductFilter{Search: query, Limit: limit})
}

func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	return s.Repo.Get(ctx, id)
}

func (s *ProductService) LowStock(ctx context.Context, threshold int) ([]*models.Product, error) {
	if threshold <= 0 {
		threshold = 10
	}
	return s.Repo.LowStock(ctx, threshold)
}

func (s *ProductService) Create(ctx context.Context, actor Actor, in *models.ProductInput) (*models.Product, error) {
	if in.CreatedBy == nil && actor.UserID != "" {
		uid := actor.UserID
		in.CreatedBy = &uid
	}

	p, err := s.Repo.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	cache.InvalidateTable(ctx, "products")
	s.Activity.Record(ctx, actor, models.ActionCreate, "products", p.ID, map[string]interface{}{
		"name":     p.Name,
		"price":    p.Price.String(),
		"category": p.Category,
	})
	return p, nil
}

func (s *ProductService) Update(ctx context.Context, actor Actor, id string, patch *models.ProductPatch) (*models.Product, error) {
	p, err := s.Repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return p, nil
	}

	cache.InvalidateTable(ctx, "products")
	s.Activity.Record(ctx, actor, models.ActionUpdate, "products", p.ID, map[string]interface{}{
		"fields":  patchFields(patch),
		"version": p.Version,
	})
	return p, nil
}

// Delete soft-deletes a product by flipping its status.
func (s *ProductService) Delete(ctx context.Context, actor Actor, id string, expectedVersion *int) (*models.Product, error) {
	p, err := s.Repo.SoftDelete(ctx, id, expectedVersion)
	if err != nil {
		return nil, err
	}

	cache.InvalidateTable(ctx, "products")
	s.Activity.Record(ctx, actor, models.ActionDelete, "products", p.ID, map[string]interface{}{
		"name": p.Name,
		"soft": true,
	})
	return p, nil
}

func (s *ProductService) AddImage(ctx context.Context, actor Actor, id, url string) (*models.Product, error) {
	p, err := s.Repo.AppendImage(ctx, id, url)
	if err != nil {
		return nil, err
	}
	cache.InvalidateTable(ctx, "products")
	s.Activity.Record(ctx, actor, models.ActionUpdate, "products", p.ID, map[string]interface{}{
		"fields":      []string{"images"},
		"added_image": url,
	})
	return p, nil
}

func (s *ProductService) RemoveImage(ctx context.Context, actor Actor, id, url string) (*models.Product, error) {
	p, err := s.Repo.RemoveImage(ctx, id, url)
	if err != nil {
		return nil, err
	}
	cache.InvalidateTable(ctx, "products")
	s.Activity.Record(ctx, actor, models.ActionUpdate, "products", p.ID, map[string]interface{}{
		"fields":        []string{"images"},
		"removed_image": url,
	})
	return p, nil
}

func patchFields(p *models.ProductPatch) []string {
	var fields []string
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(p.Name != nil, "name")
	add(p.Description != nil, "description")
	add(p.Price != nil, "price")
	add(p.Category != nil, "category")
	add(p.StockQuantity != nil, "stock_quantity")
	add(p.Status != nil, "status")
	add(p.Images != nil, "images")
	add(p.Specifications != nil, "specifications")
	add(p.IsApproved != nil, "is_approved")
	return fields
}
