package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"market-admin/internal/cache"
	"market-admin/internal/models"
)

const (
	dashboardTTL      = 30 * time.Second
	lowStockThreshold = 10
)

type StatsStore interface {
	CountProducts(ctx context.Context) (int, error)
	CountOrders(ctx context.Context) (int, error)
	CountAdmins(ctx context.Context) (int, error)
	CountPendingSubmissions(ctx context.Context) (int, error)
	CountLowStock(ctx context.Context, threshold int) (int, error)
	Revenue(ctx context.Context) (decimal.Decimal, error)
}

// AnalyticsService computes the dashboard figures with aggregate queries
// instead of loading whole tables.
type AnalyticsService struct {
	Stats    StatsStore
	Orders   OrderStore
	Products ProductStore
	logger   *logrus.Logger
}

func NewAnalyticsService(stats StatsStore, orders OrderStore, products ProductStore, logger *logrus.Logger) *AnalyticsService {
	return &AnalyticsService{Stats: stats, Orders: orders, Products: products, logger: logger}
}

func (s *AnalyticsService) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	key := cache.StatsPrefix + "dashboard"
	if data, ok := cache.GetCached(ctx, key); ok {
		var stats models.DashboardStats
		if err := json.Unmarshal(data, &stats); err == nil {
			return &stats, nil
		}
	}

	var stats models.DashboardStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalProducts, err = s.Stats.CountProducts(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalOrders, err = s.Stats.CountOrders(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalUsers, err = s.Stats.CountAdmins(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.PendingSubmissions, err = s.Stats.CountPendingSubmissions(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.LowStockProducts, err = s.Stats.CountLowStock(gctx, lowStockThreshold)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalRevenue, err = s.Stats.Revenue(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.OrdersByStatus, err = s.Orders.CountsByStatus(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if data, err := json.Marshal(&stats); err == nil {
		cache.SetCached(ctx, key, data, dashboardTTL)
	}
	return &stats, nil
}

func (s *AnalyticsService) RecentOrders(ctx context.Context, limit int) ([]*models.Order, error) {
	if limit <= 0 || limit > 50 {
		limit = 5
	}
	return s.Orders.Recent(ctx, limit)
}

func (s *AnalyticsService) LowStock(ctx context.Context, threshold int) ([]*models.Product, error) {
	if threshold <= 0 {
		threshold = lowStockThreshold
	}
	return s.Products.LowStock(ctx, threshold)
}
