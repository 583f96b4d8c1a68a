package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"market-admin/internal/middleware"
	"market-admin/internal/models"
	"market-admin/internal/services"
	"market-admin/internal/validation"
	"market-admin/pkg/utils"
)

type OrderService interface {
	List(ctx context.Context, f models.OrderFilter) (*models.OrderList, error)
	Get(ctx context.Context, id string) (*models.Order, error)
	GetByNumber(ctx context.Context, number string) (*models.Order, error)
	Recent(ctx context.Context, limit int) ([]*models.Order, error)
	ByStatus(ctx context.Context, status string, limit int) ([]*models.Order, error)
	Counts(ctx context.Context) (map[string]int, error)
	Stats(ctx context.Context, start, end *time.Time) (*models.OrderStats, error)
	UpdateStatus(ctx context.Context, actor services.Actor, id, status, note string, expectedVersion *int) (*models.Order, error)
	UpdateShipping(ctx context.Context, actor services.Actor, id string, in models.ShippingUpdate) (*models.Order, error)
	AddNote(ctx context.Context, actor services.Actor, id, note string) (*models.Order, error)
	Cancel(ctx context.Context, actor services.Actor, id, reason string) (*models.Order, error)
	Refund(ctx context.Context, actor services.Actor, id string, req models.RefundRequest) (*models.Order, error)
	Timeline(ctx context.Context, id string) ([]*models.ActivityLog, error)
	Invoice(ctx context.Context, id string) (*models.Order, []byte, error)
	Export(ctx context.Context, f models.OrderFilter) ([]byte, error)
}

type OrderHandler struct {
	Service OrderService
	logger  *logrus.Logger
}

func NewOrderHandler(service OrderService, logger *logrus.Logger) *OrderHandler {
	return &OrderHandler{Service: service, logger: logger}
}

const orderNotFound = "Order not found"

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	f, ok := orderFilter(w, r)
	if !ok {
		return
	}
	list, err := h.Service.List(r.Context(), f)
	if err != nil {
		writeError(w, h.logger, err, orderNotFound, "Failed to fetch orders")
		return
	}
	utils.JSON(w, http.StatusOK, list)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.Service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err, orderNotFound, "Failed to fetch order")
		return
	}
	setETag(w, o.Version)
	utils.JSON(w, http.StatusOK, o)
}

func (h *OrderHandler) GetByNumber(w http.ResponseWriter, r *http.Request) {
	o, err := h.Service.GetByNumber(r.Context(), mux.Vars(r)["number"])
	if err != nil {
		writeError(w, h.logger, err, orderNotFound, "Failed to fetch order")
		return
	}
	setETag(w, o.Version)
	utils.JSON(w, http.StatusOK, o)
}

func (h *OrderHandler) Recent(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Service.Recent(r.Context(), queryInt(r, "limit", 5))
	if err != nil {
		writeError(w, h.logger, err, orderNotFound, "Failed to fetch orders")
		return
	}
	utils.JSON(w, http.StatusOK, nonNilOrders(orders))
}

func (h *OrderHandler) ByStatus(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Service.ByStatus(r.Context(), mux.Vars(r)["status"], queryInt(r, "limit", 0))
	if err != nil {
		writeError(w, h.logger, err, orderNotFound, "Failed to fetch orders")
		return
	}
	utils.JSON(w, http.StatusOK, nonNilOrders(orders))
}

func (h *OrderHandler) Counts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Service.Counts(r.Context())
	if err != nil {
		writeError(w, h.logger, err, orderNotFound, "Failed to fetch order counts")
		return
	}
	utils.JSON(w, http.StatusOK, counts)
}

func (h *OrderHandler) Stats(w http.ResponseWriter, r *http.Request) {
	start, end, ok := dateRange(w, r)
	if !ok {
		return
	}
	stats, err := h.Service.Stats(r.Context(), start, end)
	if err != nil {
		writeError(w, h.logger, err, orderNotFound, "Failed to fetch order statistics")
		return
	}
	utils.JSON(w, http.StatusOK, stats)
}

type statusRequest struct {
	Status  string `json:"status"`
	Note    string `json:"note"`
	Version *int   `json:"version"`
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := validation.DecodeStrict(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if !models.ValidOrderStatus(req.Status) {
		badRequest(w, "Invalid order status")
		return
	}
	version, ok := expectedVersion(r, req.Version)
	if !ok {
		badRequest(w, "Invalid If-Match header")
		return
	}
	o, err := h.Service.UpdateStatus(r.Context(), middleware.Actor(r), mux.Vars(r)["id"], req.Status, req.Note, version)
	if err != nil {
		writeError(w, h.logger, err, orderNotFound, "Failed to update order status")
		return
	}
	setETag(w, o.Version)
	utils.JSON(w, http.StatusOK, o)
}

func (h *OrderHandler) UpdateShipping(w http.ResponseWriter, r *http.Request) {
	var req models.ShippingUpdate
	if err := validation.DecodeStrict(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if strings.TrimSpace(req.TrackingNumber) == "" {
		badRequest(w, "Tracking number is required")
		return
	}
	o, err := h.Service.UpdateShipping(r.Context(), middleware.Actor(r), mux.Vars(r)["id"], req)
	if err != nil {
		writeError(w, h.logger, err, orderNotFound, "Failed to update shipping")
		return
	}
	utils.JSON(w, http.StatusOK, o)
}

type noteRequest struct {
	Note string `json:"note"`
}

func (h *OrderHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := validation.DecodeStrict(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if strings.TrimSpace(req.Note) == "" {
		badRequest(w, "Note is required")
		return
	}
	o, err := h.Service.AddNote(r.Context(), middleware.Actor(r), mux.Vars(r)["id"], req.Note)
	if err != nil {
		writeError(w, h.logger, err, orderNotFound, "Failed to add note")
		return
	}
	utils.JSON(w, http.StatusOK, o)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := validation.DecodeStrict(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	o, err := h.Service.Cancel(r.Context(), middleware.Actor(r), mux.Vars(r)["id"], req.Reason)
	if err != nil {
		writeError(w, h.logger, err, orderNotFound, "Failed to cancel order")
		return
	}
	utils.JSON(w, http.StatusOK, o)
}

type refundRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

func (h *OrderHandler) Refund(w http.ResponseWriter, r *http.Request) {
	var req refundRequest
	if err := validation.DecodeStrict(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	o, err := h.Service.Refund(r.Context(), middleware.Actor(r), mux.Vars(r)["id"], models.RefundRequest{
		Amount: req.Amount,
		Reason: req.Reason,
	})
	if err != nil {
		writeError(w, h.logger, err, orderNotFound, "Failed to refund order")
		return
	}
	utils.JSON(w, http.StatusOK, o)
}

func (h *OrderHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Service.Timeline(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err, orderNotFound, "Failed to fetch order timeline")
		return
	}
	if entries == nil {
		entries = []*models.ActivityLog{}
	}
	utils.JSON(w, http.StatusOK, entries)
}

func (h *OrderHandler) Invoice(w http.ResponseWriter, r *http.Request) {
	o, pdf, err := h.Service.Invoice(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err, orderNotFound, "Failed to generate invoice")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="invoice-`+o.OrderNumber+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

func (h *OrderHandler) Export(w http.ResponseWriter, r *http.Request) {
	f, ok := orderFilter(w, r)
	if !ok {
		return
	}
	data, err := h.Service.Export(r.Context(), f)
	if err != nil {
		writeError(w, h.logger, err, orderNotFound, "Failed to export orders")
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="orders-`+time.Now().Format("2006-01-02")+`.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func orderFilter(w http.ResponseWriter, r *http.Request) (models.OrderFilter, bool) {
	q := r.URL.Query()
	f := models.OrderFilter{
		Status:   q.Get("status"),
		Search:   q.Get("search"),
		SortBy:   q.Get("sort_by"),
		SortDesc: q.Get("sort_order") != "asc",
		Page:     queryInt(r, "page", 1),
		Limit:    queryInt(r, "limit", 20),
	}
	if f.Status != "" && !models.ValidOrderStatus(f.Status) {
		badRequest(w, "Invalid status filter")
		return f, false
	}
	start, end, ok := dateRange(w, r)
	if !ok {
		return f, false
	}
	f.StartDate, f.EndDate = start, end
	return f, true
}

// dateRange parses start_date/end_date as YYYY-MM-DD. The end date is
// inclusive, so it is moved to the start of the following day.
func dateRange(w http.ResponseWriter, r *http.Request) (*time.Time, *time.Time, bool) {
	var start, end *time.Time
	if v := r.URL.Query().Get("start_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			badRequest(w, "start_date must be YYYY-MM-DD")
			return nil, nil, false
		}
		start = &t
	}
	if v := r.URL.Query().Get("end_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			badRequest(w, "end_date must be YYYY-MM-DD")
			return nil, nil, false
		}
		t = t.AddDate(0, 0, 1)
		end = &t
	}
	return start, end, true
}

func nonNilOrders(o []*models.Order) []*models.Order {
	if o == nil {
		return []*models.Order{}
	}
	return o
}
