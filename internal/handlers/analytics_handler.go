package handlers

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"market-admin/internal/models"
	"market-admin/pkg/utils"
)

type AnalyticsService interface {
	Dashboard(ctx context.Context) (*models.DashboardStats, error)
	RecentOrders(ctx context.Context, limit int) ([]*models.Order, error)
	LowStock(ctx context.Context, threshold int) ([]*models.Product, error)
}

type AnalyticsHandler struct {
	Service AnalyticsService
	logger  *logrus.Logger
}

func NewAnalyticsHandler(service AnalyticsService, logger *logrus.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{Service: service, logger: logger}
}

func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Dashboard(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "Statistics not found", "Failed to fetch dashboard statistics")
		return
	}
	utils.JSON(w, http.StatusOK, stats)
}

func (h *AnalyticsHandler) RecentOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Service.RecentOrders(r.Context(), queryInt(r, "limit", 5))
	if err != nil {
		writeError(w, h.logger, err, orderNotFound, "Failed to fetch recent orders")
		return
	}
	utils.JSON(w, http.StatusOK, nonNilOrders(orders))
}

func (h *AnalyticsHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.Service.LowStock(r.Context(), queryInt(r, "threshold", 10))
	if err != nil {
		writeError(w, h.logger, err, productNotFound, "Failed to fetch low stock products")
		return
	}
	utils.JSON(w, http.StatusOK, nonNilProducts(products))
}
