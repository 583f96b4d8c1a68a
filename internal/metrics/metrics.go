package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "market_admin_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "market_admin_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	RealtimeEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "market_admin_realtime_events_total",
		Help: "Database change notifications received, by table and operation.",
	}, []string{"table", "type"})

	RealtimeClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "market_admin_realtime_clients",
		Help: "Connected realtime websocket subscribers.",
	})

	ActivityLogFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "market_admin_activity_log_failures_total",
		Help: "Admin activity rows that could not be written.",
	})
)
