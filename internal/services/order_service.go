package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"market-admin/internal/cache"
	"market-admin/internal/models"
	"market-admin/internal/notify"
)

const orderListTTL = 30 * time.Second

type OrderStore interface {
	List(ctx context.Context, f models.OrderFilter) ([]*models.Order, int, error)
	ListAll(ctx context.Context, f models.OrderFilter) ([]*models.Order, error)
	Get(ctx context.Context, id string) (*models.Order, error)
	GetByNumber(ctx context.Context, number string) (*models.Order, error)
	Recent(ctx context.Context, limit int) ([]*models.Order, error)
	CountsByStatus(ctx context.Context) (map[string]int, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}, expectedVersion *int) (*models.Order, error)
	Stats(ctx context.Context, start, end *time.Time) (*models.OrderStats, error)
}

type OrderService struct {
	Repo     OrderStore
	Activity *ActivityRecorder
	Refunder Refunder
	Notifier notify.Notifier
	logger   *logrus.Logger
	now      func() time.Time
}

// NewOrderService wires the order workflow. refunder may be nil when
// online payments are not configured; notifier may be nil to skip
// customer messages.
func NewOrderService(repo OrderStore, activity *ActivityRecorder, refunder Refunder, notifier notify.Notifier, logger *logrus.Logger) *OrderService {
	return &OrderService{Repo: repo, Activity: activity, Refunder: refunder, Notifier: notifier, logger: logger, now: time.Now}
}

func (s *OrderService) List(ctx context.Context, f models.OrderFilter) (*models.OrderList, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Page <= 0 {
		f.Page = 1
	}

	params := map[string]string{
		"status": f.Status, "search": f.Search, "sort": f.SortBy,
		"desc": strconv.FormatBool(f.SortDesc), "page": strconv.Itoa(f.Page), "limit": strconv.Itoa(f.Limit),
	}
	if f.StartDate != nil {
		params["start"] = f.StartDate.Format(time.RFC3339)
	}
	if f.EndDate != nil {
		params["end"] = f.EndDate.Format(time.RFC3339)
	}
	key := cache.Key(cache.OrdersPrefix, params)
	if data, ok := cache.GetCached(ctx, key); ok {
		var list models.OrderList
		if err := json.Unmarshal(data, &list); err == nil {
			return &list, nil
		}
	}

	orders, total, err := s.Repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	list := &models.OrderList{
		Data: orders,
		Pagination: models.Pagination{
			Total:      total,
			Page:       f.Page,
			Limit:      f.Limit,
			TotalPages: (total + f.Limit - 1) / f.Limit,
		},
	}
	if data, err := json.Marshal(list); err == nil {
		cache.SetCached(ctx, key, data, orderListTTL)
	}
	return list, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (*models.Order, error) {
	return s.Repo.Get(ctx, id)
}

func (s *OrderService) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	return s.Repo.GetByNumber(ctx, number)
}

func (s *OrderService) Recent(ctx context.Context, limit int) ([]*models.Order, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.Repo.Recent(ctx, limit)
}

// ByStatus lists the newest orders in one status.
func (s *OrderService) ByStatus(ctx context.Context, status string, limit int) ([]*models.Order, error) {
	if !models.ValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	list, err := s.List(ctx, models.OrderFilter{Status: status, Limit: limit, Page: 1})
	if err != nil {
		return nil, err
	}
	return list.Data, nil
}

func (s *OrderService) Counts(ctx context.Context) (map[string]int, error) {
	return s.Repo.CountsByStatus(ctx)
}

func (s *OrderService) Stats(ctx context.Context, start, end *time.Time) (*models.OrderStats, error) {
	return s.Repo.Stats(ctx, start, end)
}

// UpdateStatus moves an order along its lifecycle. An optional note is
// appended to the order notes.
func (s *OrderService) UpdateStatus(ctx context.Context, actor Actor, id, status, note string, expectedVersion *int) (*models.Order, error) {
	current, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(current.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, status)
	}

	fields := map[string]interface{}{"status": status}
	if strings.TrimSpace(note) != "" {
		fields["notes"] = s.appendNote(current.Notes, note)
	}

	o, err := s.Repo.UpdateFields(ctx, id, fields, expectedVersion)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, actor, models.ActionUpdate, o, map[string]interface{}{
		"from_status": current.Status,
		"to_status":   status,
	})
	s.notifyCustomer(ctx, o)
	return o, nil
}

// notifyCustomer texts the customer about a status change. Delivery
// failures are logged and never fail the update.
func (s *OrderService) notifyCustomer(ctx context.Context, o *models.Order) {
	if s.Notifier == nil || o.CustomerPhone == "" {
		return
	}
	msg := notify.OrderStatus(o.OrderNumber, o.Status, o.TrackingNumber)
	if err := s.Notifier.Send(ctx, o.CustomerPhone, msg); err != nil {
		s.logger.WithError(err).WithField("order_id", o.ID).Warn("Failed to notify customer")
	}
}

func (s *OrderService) UpdateShipping(ctx context.Context, actor Actor, id string, in models.ShippingUpdate) (*models.Order, error) {
	o, err := s.Repo.UpdateFields(ctx, id, map[string]interface{}{
		"tracking_number": strings.TrimSpace(in.TrackingNumber),
		"tracking_url":    strings.TrimSpace(in.TrackingURL),
	}, nil)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, actor, models.ActionUpdate, o, map[string]interface{}{
		"tracking_number": o.TrackingNumber,
	})
	return o, nil
}

func (s *OrderService) AddNote(ctx context.Context, actor Actor, id, note string) (*models.Order, error) {
	current, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	o, err := s.Repo.UpdateFields(ctx, id, map[string]interface{}{
		"notes": s.appendNote(current.Notes, note),
	}, nil)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, actor, models.ActionUpdate, o, map[string]interface{}{"note": note})
	return o, nil
}

func (s *OrderService) Cancel(ctx context.Context, actor Actor, id, reason string) (*models.Order, error) {
	note := "Order cancelled"
	if strings.TrimSpace(reason) != "" {
		note += ": " + strings.TrimSpace(reason)
	}
	return s.UpdateStatus(ctx, actor, id, models.OrderCancelled, note, nil)
}

// Refund records a full or partial refund. Orders paid online are refunded
// through the payment provider first; a provider failure leaves the order
// untouched.
func (s *OrderService) Refund(ctx context.Context, actor Actor, id string, req models.RefundRequest) (*models.Order, error) {
	current, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.PaymentStatus != models.PaymentPaid && current.PaymentStatus != models.PaymentPartiallyRefunded {
		return nil, fmt.Errorf("%w: payment is %s", ErrInvalidRefund, current.PaymentStatus)
	}
	remaining := current.TotalAmount.Sub(current.RefundedAmount)
	if !req.Amount.IsPositive() || req.Amount.GreaterThan(remaining) {
		return nil, fmt.Errorf("%w: refundable balance is %s", ErrInvalidRefund, remaining.StringFixed(2))
	}

	var providerRefundID string
	if current.PaymentReference != "" {
		if s.Refunder == nil {
			return nil, ErrPaymentsDisabled
		}
		providerRefundID, err = s.Refunder.Refund(ctx, current.PaymentReference, req.Amount, map[string]string{
			"order_number": current.OrderNumber,
			"reason":       req.Reason,
		})
		if err != nil {
			s.logger.WithError(err).WithField("order_id", id).Error("Payment provider refund failed")
			return nil, err
		}
	}

	refunded := current.RefundedAmount.Add(req.Amount)
	paymentStatus := models.PaymentPartiallyRefunded
	if refunded.Equal(current.TotalAmount) {
		paymentStatus = models.PaymentRefunded
	}
	note := fmt.Sprintf("Refunded %s %s", req.Amount.StringFixed(2), current.Currency)
	if req.Reason != "" {
		note += ": " + req.Reason
	}

	o, err := s.Repo.UpdateFields(ctx, id, map[string]interface{}{
		"refunded_amount": refunded,
		"payment_status":  paymentStatus,
		"notes":           s.appendNote(current.Notes, note),
	}, nil)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, actor, models.ActionUpdate, o, map[string]interface{}{
		"refund_amount":      req.Amount.StringFixed(2),
		"payment_status":     paymentStatus,
		"provider_refund_id": providerRefundID,
	})
	return o, nil
}

// Timeline returns the audit trail of one order, newest first.
func (s *OrderService) Timeline(ctx context.Context, id string) ([]*models.ActivityLog, error) {
	if _, err := s.Repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.Activity.List(ctx, models.ActivityFilter{TableName: "orders", RecordID: id, Limit: 200})
}

func (s *OrderService) Invoice(ctx context.Context, id string) (*models.Order, []byte, error) {
	o, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	pdf, err := RenderInvoicePDF(o)
	return o, pdf, err
}

func (s *OrderService) Export(ctx context.Context, f models.OrderFilter) ([]byte, error) {
	orders, err := s.Repo.ListAll(ctx, f)
	if err != nil {
		return nil, err
	}
	return RenderOrdersCSV(orders)
}

func (s *OrderService) appendNote(existing, note string) string {
	line := fmt.Sprintf("[%s] %s", s.now().UTC().Format("2006-01-02 15:04"), strings.TrimSpace(note))
	if strings.TrimSpace(existing) == "" {
		return line
	}
	return existing + "\n" + line
}

func (s *OrderService) changed(ctx context.Context, actor Actor, action string, o *models.Order, details map[string]interface{}) {
	cache.InvalidateTable(ctx, "orders")
	details["order_number"] = o.OrderNumber
	s.Activity.Record(ctx, actor, action, "orders", o.ID, details)
}
