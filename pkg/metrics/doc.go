/*
Package metrics defines and registers every Prometheus metric the
gateway exposes, grouped by spec component (C2–C9), plus the
/health, /health/ready, /health/live and /metrics HTTP handlers.

# Usage

Updating a counter or gauge:

	import "github.com/psychoney/quant-qmt-proxy/pkg/metrics"

	metrics.OrdersSubmittedTotal.WithLabelValues(string(side), "allow").Inc()
	metrics.SubscriptionsActive.WithLabelValues(string(kind)).Dec()

Recording a duration with the Timer helper:

	timer := metrics.NewTimer()
	rows, err := fetch()
	timer.ObserveDurationVec(metrics.DataQueryDuration, "range")

Serving the registry and component health:

	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /health", metrics.HealthHandler())
	mux.HandleFunc("GET /health/ready", metrics.ReadyHandler())
	mux.HandleFunc("GET /health/live", metrics.LivenessHandler())

RegisterComponent records one subsystem's health (api, rpcapi,
vendorcore, ...); ReadyHandler reports 503 while either of the
critical components, vendorcore and api, is unregistered or unhealthy.
Other components do not affect readiness.
*/
package metrics
