package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

const (
	PaymentPending           = "pending"
	PaymentPaid              = "paid"
	PaymentRefunded          = "refunded"
	PaymentFailed            = "failed"
	PaymentPartiallyRefunded = "partially_refunded"
)

var OrderStatuses = []string{OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled}

var orderTransitions = map[string][]string{
	OrderPending:    {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderShipped, OrderCancelled},
	OrderShipped:    {OrderDelivered},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func ValidOrderStatus(s string) bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

type Order struct {
	ID               string                 `json:"id"`
	OrderNumber      string                 `json:"order_number"`
	CustomerID       *string                `json:"customer_id,omitempty"`
	CustomerName     string                 `json:"customer_name"`
	CustomerEmail    string                 `json:"customer_email"`
	CustomerPhone    string                 `json:"customer_phone"`
	Subtotal         decimal.Decimal        `json:"subtotal"`
	ShippingFee      decimal.Decimal        `json:"shipping_fee"`
	TotalAmount      decimal.Decimal        `json:"total_amount"`
	RefundedAmount   decimal.Decimal        `json:"refunded_amount"`
	Currency         string                 `json:"currency"`
	Status           string                 `json:"status"`
	PaymentStatus    string                 `json:"payment_status"`
	PaymentMethod    string                 `json:"payment_method"`
	PaymentReference string                 `json:"payment_reference,omitempty"`
	ShippingAddress  map[string]interface{} `json:"shipping_address"`
	PickupLocation   string                 `json:"pickup_location,omitempty"`
	TrackingNumber   string                 `json:"tracking_number,omitempty"`
	TrackingURL      string                 `json:"tracking_url,omitempty"`
	Notes            string                 `json:"notes,omitempty"`
	Version          int                    `json:"version"`
	Items            []OrderItem            `json:"items,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

type OrderItem struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"order_id"`
	ProductID   *string         `json:"product_id,omitempty"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// OrderFilter narrows an order listing. Page is 1-based.
type OrderFilter struct {
	Status    string
	Search    string
	StartDate *time.Time
	EndDate   *time.Time
	SortBy    string
	SortDesc  bool
	Page      int
	Limit     int
}

type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

type OrderList struct {
	Data       []*Order   `json:"data"`
	Pagination Pagination `json:"pagination"`
}

type ShippingUpdate struct {
	TrackingNumber string `json:"tracking_number"`
	TrackingURL    string `json:"tracking_url"`
}

type RefundRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

type MonthlyRevenue struct {
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

type ProductSales struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

type OrderStats struct {
	TotalOrders     int                        `json:"total_orders"`
	TotalRevenue    decimal.Decimal            `json:"total_revenue"`
	CountByStatus   map[string]int             `json:"count_by_status"`
	RevenueByStatus map[string]decimal.Decimal `json:"revenue_by_status"`
	RevenueByMonth  []MonthlyRevenue           `json:"revenue_by_month"`
	TopProducts     []ProductSales             `json:"top_products"`
}
