package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostStats describes the machine the API runs on.
type HostStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsed    string  `json:"memory_used"`
	MemoryTotal   string  `json:"memory_total"`
	DiskPercent   float64 `json:"disk_percent"`
	DiskUsed      string  `json:"disk_used"`
	DiskTotal     string  `json:"disk_total"`
}

// CollectHost samples CPU over a short window. Fields whose sample fails are
// left at zero.
func CollectHost(ctx context.Context) HostStats {
	var s HostStats
	if percents, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false); err == nil && len(percents) > 0 {
		s.CPUPercent = percents[0]
	}
	if m, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		s.MemoryPercent = m.UsedPercent
		s.MemoryUsed = formatBytes(m.Used)
		s.MemoryTotal = formatBytes(m.Total)
	}
	if d, err := disk.UsageWithContext(ctx, "/"); err == nil {
		s.DiskPercent = d.UsedPercent
		s.DiskUsed = formatBytes(d.Used)
		s.DiskTotal = formatBytes(d.Total)
	}
	return s
}

type DatabaseStats struct {
	ActiveConnections int    `json:"active_connections"`
	Size              string `json:"size"`
	Uptime            string `json:"uptime"`
	PoolTotal         int32  `json:"pool_total"`
	PoolIdle          int32  `json:"pool_idle"`
}

func CollectDatabase(ctx context.Context, db *pgxpool.Pool) DatabaseStats {
	var s DatabaseStats
	var sizeBytes int64
	var uptimeSec int
	db.QueryRow(ctx, "SELECT count(*) FROM pg_stat_activity").Scan(&s.ActiveConnections)
	db.QueryRow(ctx, "SELECT pg_database_size(current_database())").Scan(&sizeBytes)
	db.QueryRow(ctx, "SELECT EXTRACT(EPOCH FROM (NOW() - pg_postmaster_start_time()))::int").Scan(&uptimeSec)

	s.Size = formatBytes(uint64(sizeBytes))
	s.Uptime = formatUptime(uptimeSec)
	st := db.Stat()
	s.PoolTotal = st.TotalConns()
	s.PoolIdle = st.IdleConns()
	return s
}

func formatBytes(bytes uint64) string {
	gb := float64(bytes) / (1024 * 1024 * 1024)
	if gb < 1 {
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	}
	return fmt.Sprintf("%.1f GB", gb)
}

func formatUptime(seconds int) string {
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
