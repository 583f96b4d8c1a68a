package models

import "github.com/shopspring/decimal"

// DashboardStats is computed server side in one round of aggregate queries.
type DashboardStats struct {
	TotalProducts      int             `json:"total_products"`
	TotalOrders        int             `json:"total_orders"`
	TotalUsers         int             `json:"total_users"`
	PendingSubmissions int             `json:"pending_submissions"`
	TotalRevenue       decimal.Decimal `json:"total_revenue"`
	LowStockProducts   int             `json:"low_stock_products"`
	OrdersByStatus     map[string]int  `json:"orders_by_status"`
}
