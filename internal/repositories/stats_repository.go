package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// StatsRepository runs the single-value aggregates behind the dashboard.
type StatsRepository struct {
	DB *pgxpool.Pool
}

func NewStatsRepository(db *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{DB: db}
}

func (r *StatsRepository) count(ctx context.Context, query string, args ...interface{}) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, query, args...).Scan(&n)
	return n, err
}

func (r *StatsRepository) CountProducts(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM products WHERE status <> 'deleted'`)
}

func (r *StatsRepository) CountOrders(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM orders`)
}

func (r *StatsRepository) CountAdmins(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM admin_users`)
}

func (r *StatsRepository) CountPendingSubmissions(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM item_submissions WHERE status = 'pending'`)
}

func (r *StatsRepository) CountLowStock(ctx context.Context, threshold int) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM products WHERE status <> 'deleted' AND stock_quantity <= $1`, threshold)
}

// Revenue sums delivered orders net of refunds.
func (r *StatsRepository) Revenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.DB.QueryRow(ctx,
		`SELECT COALESCE(SUM(total_amount - refunded_amount), 0) FROM orders WHERE status = 'delivered'`,
	).Scan(&total)
	return total, err
}
