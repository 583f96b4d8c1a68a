package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"market-admin/internal/models"
)

type ActivityLogRepository struct {
	DB *pgxpool.Pool
}

func NewActivityLogRepository(db *pgxpool.Pool) *ActivityLogRepository {
	return &ActivityLogRepository{DB: db}
}

// Create records an admin action
func (r *ActivityLogRepository) Create(ctx context.Context, l *models.ActivityLog) error {
	details := l.Details
	if details == nil {
		details = map[string]interface{}{}
	}
	return r.DB.QueryRow(ctx,
		`INSERT INTO admin_activity_log (admin_id, action, table_name, record_id, details, ip_address, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, NOW())
         RETURNING id::text, created_at`,
		l.AdminID, l.Action, l.TableName, l.RecordID, details, l.IPAddress,
	).Scan(&l.ID, &l.CreatedAt)
}

// List returns log rows newest first.
func (r *ActivityLogRepository) List(ctx context.Context, f models.ActivityFilter) ([]*models.ActivityLog, error) {
	var c conditions
	if f.TableName != "" {
		c.add("table_name = ?", f.TableName)
	}
	if f.RecordID != "" {
		c.add("record_id = ?", f.RecordID)
	}
	if f.AdminID != "" {
		c.add("admin_id = ?", f.AdminID)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id::text, admin_id::text, action, table_name, record_id, details, ip_address, created_at
	          FROM admin_activity_log` + c.where() + ` ORDER BY created_at DESC LIMIT ` + c.arg(limit)

	rows, err := r.DB.Query(ctx, query, c.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []*models.ActivityLog{}
	for rows.Next() {
		var l models.ActivityLog
		if err := rows.Scan(&l.ID, &l.AdminID, &l.Action, &l.TableName, &l.RecordID,
			&l.Details, &l.IPAddress, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}
