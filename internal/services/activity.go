package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"market-admin/internal/metrics"
	"market-admin/internal/models"
)

// Actor identifies the admin performing a mutation.
type Actor struct {
	AdminID string
	UserID  string
	IP      string
}

type ActivityStore interface {
	Create(ctx context.Context, l *models.ActivityLog) error
	List(ctx context.Context, f models.ActivityFilter) ([]*models.ActivityLog, error)
}

// ActivityRecorder appends audit rows. A failed write is logged and never
// surfaces to the caller: the mutation it describes has already happened.
type ActivityRecorder struct {
	store  ActivityStore
	logger *logrus.Logger
}

func NewActivityRecorder(store ActivityStore, logger *logrus.Logger) *ActivityRecorder {
	return &ActivityRecorder{store: store, logger: logger}
}

func (r *ActivityRecorder) Record(ctx context.Context, actor Actor, action, table, recordID string, details map[string]interface{}) {
	entry := &models.ActivityLog{
		Action:    action,
		TableName: table,
		RecordID:  recordID,
		Details:   details,
		IPAddress: actor.IP,
	}
	if actor.AdminID != "" {
		id := actor.AdminID
		entry.AdminID = &id
	}

	// The request context may already be cancelled once the response is written.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := r.store.Create(writeCtx, entry); err != nil {
		metrics.ActivityLogFailures.Inc()
		r.logger.WithError(err).WithFields(logrus.Fields{
			"action":    action,
			"table":     table,
			"record_id": recordID,
		}).Error("Failed to write admin activity log")
	}
}

func (r *ActivityRecorder) List(ctx context.Context, f models.ActivityFilter) ([]*models.ActivityLog, error) {
	return r.store.List(ctx, f)
}
