package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ProductActive     = "active"
	ProductDraft      = "draft"
	ProductOutOfStock = "out_of_stock"
	ProductDeleted    = "deleted"
)

type Product struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	Description    string                 `json:"description"`
	Price          decimal.Decimal        `json:"price"`
	Category       string                 `json:"category"`
	StockQuantity  int                    `json:"stock_quantity"`
	Status         string                 `json:"status"`
	Images         []string               `json:"images"`
	Specifications map[string]interface{} `json:"specifications"`
	CreatedBy      *string                `json:"created_by,omitempty"`
	SellerID       *string                `json:"seller_id,omitempty"`
	IsApproved     bool                   `json:"is_approved"`
	Version        int                    `json:"version"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// ProductFilter narrows a product listing. An empty Status hides deleted
// products; Search matches name, description and category.
type ProductFilter struct {
	Category string
	Status   string
	Search   string
	Limit    int
	Offset   int
}

// ProductInput is a validated create payload.
type ProductInput struct {
	Name           string
	Description    string
	Price          decimal.Decimal
	Category       string
	StockQuantity  int
	Images         []string
	Specifications map[string]interface{}
	SellerID       *string
	CreatedBy      *string
}

// ProductPatch is a validated partial update. Nil fields are left alone.
// ExpectedVersion, when set, must match the stored version.
type ProductPatch struct {
	Name            *string
	Description     *string
	Price           *decimal.Decimal
	Category        *string
	StockQuantity   *int
	Status          *string
	Images          *[]string
	Specifications  map[string]interface{}
	IsApproved      *bool
	ExpectedVersion *int
}

func (p *ProductPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil && p.Category == nil &&
		p.StockQuantity == nil && p.Status == nil && p.Images == nil && p.Specifications == nil &&
		p.IsApproved == nil
}

func ValidProductStatus(s string) bool {
	switch s {
	case ProductActive, ProductDraft, ProductOutOfStock, ProductDeleted:
		return true
	}
	return false
}
