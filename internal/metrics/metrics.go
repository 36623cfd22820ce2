// Package metrics declares the relay's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// Relay metrics
	StreamsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_streams_total",
			Help: "Total relay streams by outcome",
		},
		[]string{"outcome"}, // completed, aborted, failed
	)

	FramesEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_frames_emitted_total",
			Help: "Total wire frames written",
		},
		[]string{"tag"},
	)

	BackendLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_backend_request_duration_seconds",
			Help:    "Chat backend call latency",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"operation", "status"},
	)

	SessionsMinted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_sessions_minted_total",
			Help: "Total sessions minted",
		},
		[]string{"kind"}, // login, register
	)

	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_rate_limit_hits_total",
			Help: "Total chat requests rejected by the per-user limiter",
		},
	)

	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_ws_connections",
			Help: "Open WebSocket relay connections",
		},
	)
)
