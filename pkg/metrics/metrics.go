package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Session metrics (spec component C3)
	SessionsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "qmtproxy_sessions_total",
			Help: "Total number of trading sessions by mode and state",
		},
		[]string{"mode", "state"},
	)

	SessionConnectDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "qmtproxy_session_connect_duration_seconds",
			Help:    "Time taken to complete the connect sequence for a trading session",
			Buckets: prometheus.DefBuckets,
		},
	)

	// API metrics (spec component C9, both transports)
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qmtproxy_api_requests_total",
			Help: "Total number of API requests by transport, method and status",
		},
		[]string{"transport", "method", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qmtproxy_api_request_duration_seconds",
			Help:    "API request duration in seconds by transport and method",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"transport", "method"},
	)

	// Mode guard metrics (spec component C2)
	ModeDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qmtproxy_mode_decisions_total",
			Help: "Total number of mode-guard decisions by mode, operation kind and outcome",
		},
		[]string{"mode", "op_kind", "outcome"},
	)

	// Trading metrics (spec component C4)
	OrdersSubmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qmtproxy_orders_submitted_total",
			Help: "Total number of orders submitted by side and outcome",
		},
		[]string{"side", "outcome"},
	)

	OrderStatusTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qmtproxy_order_status_transitions_total",
			Help: "Total number of order status transitions observed from vendor status codes",
		},
		[]string{"status"},
	)

	AsyncSequenceCurrent = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "qmtproxy_async_sequence_current",
			Help: "Current value of the process-wide async order sequence counter, as last set by each account",
		},
		[]string{"account_id"},
	)

	// Market data metrics (spec component C5)
	DataQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qmtproxy_data_query_duration_seconds",
			Help:    "Time taken to serve a market-data query by kind (point, range)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	DataDownloadTimeoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qmtproxy_data_download_timeouts_total",
			Help: "Total number of range queries that exhausted their download timeout budget",
		},
	)

	// Subscription metrics (spec component C6)
	SubscriptionsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "qmtproxy_subscriptions_active",
			Help: "Number of active quote subscriptions by kind",
		},
		[]string{"kind"},
	)

	SubscriptionQueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "qmtproxy_subscription_queue_depth",
			Help: "Current depth of a subscriber's outbound tick queue",
		},
		[]string{"stream_id"},
	)

	SubscriptionTicksDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qmtproxy_subscription_ticks_dropped_total",
			Help: "Total number of ticks dropped from a subscriber queue because it was full (drop-oldest)",
		},
		[]string{"subscription_id"},
	)

	// Trading callback dispatcher metrics (spec component C7)
	CallbacksDispatchedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qmtproxy_callbacks_dispatched_total",
			Help: "Total number of trading callbacks dispatched by kind",
		},
		[]string{"kind"},
	)

	CallbackFanoutDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qmtproxy_callback_fanout_dropped_total",
			Help: "Total number of callback records dropped from a client's fan-out queue because it was full",
		},
		[]string{"client_id"},
	)

	// WebSocket stream metrics (spec component C8)
	StreamConnectionsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "qmtproxy_stream_connections_active",
			Help: "Number of active WebSocket stream connections by stream kind",
		},
		[]string{"stream"},
	)

	StreamHeartbeatTimeoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qmtproxy_stream_heartbeat_timeouts_total",
			Help: "Total number of WebSocket stream connections evicted for missing heartbeats",
		},
		[]string{"stream"},
	)
)

func init() {
	prometheus.MustRegister(SessionsTotal)
	prometheus.MustRegister(SessionConnectDuration)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
	prometheus.MustRegister(ModeDecisionsTotal)
	prometheus.MustRegister(OrdersSubmittedTotal)
	prometheus.MustRegister(OrderStatusTransitionsTotal)
	prometheus.MustRegister(AsyncSequenceCurrent)
	prometheus.MustRegister(DataQueryDuration)
	prometheus.MustRegister(DataDownloadTimeoutsTotal)
	prometheus.MustRegister(SubscriptionsActive)
	prometheus.MustRegister(SubscriptionQueueDepth)
	prometheus.MustRegister(SubscriptionTicksDroppedTotal)
	prometheus.MustRegister(CallbacksDispatchedTotal)
	prometheus.MustRegister(CallbackFanoutDroppedTotal)
	prometheus.MustRegister(StreamConnectionsActive)
	prometheus.MustRegister(StreamHeartbeatTimeoutsTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
