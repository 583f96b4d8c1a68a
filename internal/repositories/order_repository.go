package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"market-admin/internal/models"
)

type OrderRepository struct {
	DB *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{DB: db}
}

const orderColumns = `id::text, order_number, customer_id::text, customer_name, customer_email, customer_phone,
	subtotal, shipping_fee, total_amount, refunded_amount, currency, status, payment_status,
	payment_method, payment_reference, shipping_address, pickup_location, tracking_number,
	tracking_url, notes, version, created_at, updated_at`

var orderSortColumns = map[string]string{
	"created_at":   "created_at",
	"updated_at":   "updated_at",
	"total_amount": "total_amount",
	"order_number": "order_number",
	"status":       "status",
}

func scanOrder(row interface{ Scan(...interface{}) error }) (*models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&o.Subtotal, &o.ShippingFee, &o.TotalAmount, &o.RefundedAmount, &o.Currency, &o.Status, &o.PaymentStatus,
		&o.PaymentMethod, &o.PaymentReference, &o.ShippingAddress, &o.PickupLocation, &o.TrackingNumber,
		&o.TrackingURL, &o.Notes, &o.Version, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	if o.ShippingAddress == nil {
		o.ShippingAddress = map[string]interface{}{}
	}
	return &o, nil
}

func (r *OrderRepository) queryOrders(ctx context.Context, query string, args ...interface{}) ([]*models.Order, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []*models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// orderConditions builds the filter clauses; alias qualifies columns when
// orders is joined.
func orderConditions(f models.OrderFilter, alias string) *conditions {
	c := &conditions{}
	if f.Status != "" {
		c.add(alias+"status = ?", f.Status)
	}
	if f.Search != "" {
		pattern := likePattern(f.Search)
		c.add("("+alias+"order_number ILIKE ? OR "+alias+"customer_name ILIKE ? OR "+alias+"customer_email ILIKE ?)",
			pattern, pattern, pattern)
	}
	if f.StartDate != nil {
		c.add(alias+"created_at >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		c.add(alias+"created_at < ?", *f.EndDate)
	}
	return c
}

func orderBy(f models.OrderFilter) string {
	col, ok := orderSortColumns[f.SortBy]
	if !ok {
		return " ORDER BY created_at DESC"
	}
	if f.SortDesc {
		return " ORDER BY " + col + " DESC"
	}
	return " ORDER BY " + col + " ASC"
}

// List returns one page of orders plus the total matching count.
func (r *OrderRepository) List(ctx context.Context, f models.OrderFilter) ([]*models.Order, int, error) {
	c := orderConditions(f, "")

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + orderColumns + ` FROM orders` + c.where() + orderBy(f)
	if f.Limit > 0 {
		query += " LIMIT " + c.arg(f.Limit)
		if f.Page > 1 {
			query += " OFFSET " + c.arg((f.Page-1)*f.Limit)
		}
	}

	orders, err := r.queryOrders(ctx, query, c.args...)
	return orders, total, err
}

// ListAll returns every order matching f, for export.
func (r *OrderRepository) ListAll(ctx context.Context, f models.OrderFilter) ([]*models.Order, error) {
	c := orderConditions(f, "")
	return r.queryOrders(ctx, `SELECT `+orderColumns+` FROM orders`+c.where()+orderBy(f), c.args...)
}

// Get returns an order with its line items.
func (r *OrderRepository) Get(ctx context.Context, id string) (*models.Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if err != nil {
		return nil, err
	}
	if o.Items, err = r.items(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OrderRepository) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number=$1`, number))
	if err != nil {
		return nil, err
	}
	if o.Items, err = r.items(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OrderRepository) items(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id::text, order_id::text, product_id::text, product_name, quantity, unit_price, total_price
         FROM order_items WHERE order_id=$1 ORDER BY product_name`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity,
			&it.UnitPrice, &it.TotalPrice); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *OrderRepository) Recent(ctx context.Context, limit int) ([]*models.Order, error) {
	return r.queryOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC LIMIT $1`, limit)
}

// CountsByStatus returns a count for every known status, zero included.
func (r *OrderRepository) CountsByStatus(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(models.OrderStatuses))
	for _, s := range models.OrderStatuses {
		counts[s] = 0
	}

	rows, err := r.DB.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// UpdateFields writes the given columns and bumps the version, honouring
// an optional expected version.
func (r *OrderRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}, expectedVersion *int) (*models.Order, error) {
	var s setList
	for _, col := range []string{"status", "payment_status", "tracking_number", "tracking_url",
		"notes", "refunded_amount", "shipping_address", "pickup_location"} {
		if v, ok := fields[col]; ok {
			s.set(col, v)
		}
	}
	if s.empty() {
		return r.Get(ctx, id)
	}

	query := fmt.Sprintf(`UPDATE orders SET %s, version = version + 1, updated_at = NOW() WHERE id = %s`,
		s.String(), s.arg(id))
	if expectedVersion != nil {
		query += " AND version = " + s.arg(*expectedVersion)
	}
	query += " RETURNING " + orderColumns

	o, err := scanOrder(r.DB.QueryRow(ctx, query, s.args...))
	if err != nil {
		if errors.Is(err, ErrNotFound) && expectedVersion != nil {
			if _, getErr := r.Get(ctx, id); getErr == nil {
				return nil, ErrVersionConflict
			}
		}
		return nil, err
	}
	if o.Items, err = r.items(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

// Stats aggregates orders created in [start, end). Nil bounds are open.
func (r *OrderRepository) Stats(ctx context.Context, start, end *time.Time) (*models.OrderStats, error) {
	c := orderConditions(models.OrderFilter{StartDate: start, EndDate: end}, "")
	stats := &models.OrderStats{
		CountByStatus:   map[string]int{},
		RevenueByStatus: map[string]decimal.Decimal{},
		RevenueByMonth:  []models.MonthlyRevenue{},
		TopProducts:     []models.ProductSales{},
	}
	for _, s := range models.OrderStatuses {
		stats.CountByStatus[s] = 0
		stats.RevenueByStatus[s] = decimal.Zero
	}

	batch := &pgx.Batch{}
	batch.Queue(`SELECT status, COUNT(*), COALESCE(SUM(total_amount), 0) FROM orders`+c.where()+` GROUP BY status`, c.args...)
	batch.Queue(`SELECT to_char(date_trunc('month', created_at), 'YYYY-MM') AS month,
	                    COALESCE(SUM(total_amount) FILTER (WHERE status <> 'cancelled'), 0), COUNT(*)
	             FROM orders`+c.where()+` GROUP BY month ORDER BY month`, c.args...)

	itemCond := orderConditions(models.OrderFilter{StartDate: start, EndDate: end}, "o.")
	itemCond.add("o.status <> 'cancelled'")
	batch.Queue(`SELECT COALESCE(oi.product_id::text, ''), oi.product_name, SUM(oi.quantity), SUM(oi.total_price)
	             FROM order_items oi JOIN orders o ON o.id = oi.order_id`+itemCond.where()+`
	             GROUP BY oi.product_id, oi.product_name ORDER BY SUM(oi.total_price) DESC LIMIT 10`, itemCond.args...)

	results := r.DB.SendBatch(ctx, batch)
	defer results.Close()

	rows, err := results.Query()
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var status string
		var n int
		var revenue decimal.Decimal
		if err := rows.Scan(&status, &n, &revenue); err != nil {
			rows.Close()
			return nil, err
		}
		stats.CountByStatus[status] = n
		stats.RevenueByStatus[status] = revenue
		stats.TotalOrders += n
		if status != models.OrderCancelled {
			stats.TotalRevenue = stats.TotalRevenue.Add(revenue)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = results.Query()
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var m models.MonthlyRevenue
		if err := rows.Scan(&m.Month, &m.Revenue, &m.Orders); err != nil {
			rows.Close()
			return nil, err
		}
		stats.RevenueByMonth = append(stats.RevenueByMonth, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = results.Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p models.ProductSales
		if err := rows.Scan(&p.ProductID, &p.ProductName, &p.Quantity, &p.Revenue); err != nil {
			return nil, err
		}
		stats.TopProducts = append(stats.TopProducts, p)
	}
	return stats, rows.Err()
}
