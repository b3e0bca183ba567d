// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WSConnections is the number of open websocket connections.
	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "campusmatch_ws_connections",
		Help: "Number of open websocket connections",
	})

	// WSEvents counts inbound socket frames by event name.
	WSEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusmatch_ws_events_total",
		Help: "Inbound websocket frames by event",
	}, []string{"event"})

	// FramesDropped counts outbound frames dropped because a client queue was full.
	FramesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campusmatch_ws_frames_dropped_total",
		Help: "Outbound frames dropped on full client queues",
	})

	// MessagesRelayed counts chat messages persisted and broadcast, by transport.
	MessagesRelayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusmatch_messages_relayed_total",
		Help: "Chat messages persisted and broadcast",
	}, []string{"transport"})

	// MatchesServed counts classified matches returned to clients.
	MatchesServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusmatch_matches_served_total",
		Help: "Matches returned, by classification",
	}, []string{"kind"})

	// ReportsFiled counts accepted reports by target.
	ReportsFiled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusmatch_reports_filed_total",
		Help: "Accepted reports by target",
	}, []string{"target"})

	// ConfessionsAutoDeleted counts confessions removed by the report threshold.
	ConfessionsAutoDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campusmatch_confessions_auto_deleted_total",
		Help: "Confessions deleted after reaching the report threshold",
	})

	// HTTPRequests records request latency by route and status.
	HTTPRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "campusmatch_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
