package health

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"market-admin/internal/cache"
	"market-admin/internal/monitoring"
	"market-admin/internal/realtime"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthChecker struct {
	db       Pinger
	pool     *pgxpool.Pool
	realtime func() realtime.Status
}

type HealthStatus struct {
	Status   string         `json:"status"`
	Database DatabaseHealth `json:"database"`
}

type DatabaseHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
}

// DetailedStatus adds dependency and host figures for the operator view.
type DetailedStatus struct {
	HealthStatus
	Redis    string                    `json:"redis"`
	Realtime *realtime.Status          `json:"realtime,omitempty"`
	Pool     *monitoring.DatabaseStats `json:"pool,omitempty"`
	Host     monitoring.HostStats      `json:"host"`
	Time     time.Time                 `json:"timestamp"`
}

// NewHealthChecker builds a checker over db. pool and realtimeStatus are
// optional extras for the detailed report.
func NewHealthChecker(db Pinger, pool *pgxpool.Pool, realtimeStatus func() realtime.Status) *HealthChecker {
	return &HealthChecker{db: db, pool: pool, realtime: realtimeStatus}
}

func (h *HealthChecker) CheckBasic(ctx context.Context) HealthStatus {
	dbHealth := h.checkDatabase(ctx)

	status := "healthy"
	if dbHealth.Status != "healthy" {
		status = "unhealthy"
	}
	return HealthStatus{Status: status, Database: dbHealth}
}

func (h *HealthChecker) CheckDetailed(ctx context.Context) DetailedStatus {
	d := DetailedStatus{
		HealthStatus: h.CheckBasic(ctx),
		Redis:        "disabled",
		Host:         monitoring.CollectHost(ctx),
		Time:         time.Now().UTC(),
	}
	if cache.Enabled() {
		d.Redis = "unhealthy"
		if cache.IsHealthy() {
			d.Redis = "healthy"
		}
	}
	if h.realtime != nil {
		st := h.realtime()
		d.Realtime = &st
	}
	if h.pool != nil {
		ps := monitoring.CollectDatabase(ctx, h.pool)
		d.Pool = &ps
	}
	return d
}

func (h *HealthChecker) checkDatabase(ctx context.Context) DatabaseHealth {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return DatabaseHealth{Status: "unhealthy", ResponseTime: responseTime}
	}
	return DatabaseHealth{Status: "healthy", ResponseTime: responseTime}
}
