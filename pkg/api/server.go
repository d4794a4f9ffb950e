package api

import (
	"context"
	"net/http"
	"time"

	"github.com/psychoney/quant-qmt-proxy/pkg/auth"
	"github.com/psychoney/quant-qmt-proxy/pkg/callback"
	"github.com/psychoney/quant-qmt-proxy/pkg/marketdata"
	"github.com/psychoney/quant-qmt-proxy/pkg/metrics"
	"github.com/psychoney/quant-qmt-proxy/pkg/stream"
	"github.com/psychoney/quant-qmt-proxy/pkg/subscription"
	"github.com/psychoney/quant-qmt-proxy/pkg/trading"
)

// Deps bundles every service the HTTP surface calls into.
type Deps struct {
	Trading      *trading.Service
	MarketData   *marketdata.Service
	Subscription *subscription.Manager
	Callbacks    *callback.Dispatcher
	Allow        *auth.Allowlist
	StreamCfg    stream.TradingConfig
}

// Server hosts the HTTP surface: base path /api/v1 plus health,
// metrics and the two WebSocket push routes, all on one mux (spec.md
// §6).
type Server struct {
	mux *http.ServeMux
	srv *http.Server
}

func NewServer(d Deps) *Server {
	mux := http.NewServeMux()
	s := &Server{mux: mux}

	authMw := requireAuth(d.Allow)
	dh := &dataHandlers{svc: d.MarketData, mgr: d.Subscription}
	th := &tradingHandlers{svc: d.Trading}

	const base = "/api/v1"

	mux.HandleFunc("POST "+base+"/data/market", authMw(dh.market))
	mux.HandleFunc("POST "+base+"/data/financial", authMw(dh.financial))
	mux.HandleFunc("GET "+base+"/data/sectors", authMw(dh.sectorList))
	mux.HandleFunc("POST "+base+"/data/sector", authMw(dh.sectorMembers))
	mux.HandleFunc("POST "+base+"/data/sector/create", authMw(dh.sectorCreate))
	mux.HandleFunc("POST "+base+"/data/sector/add-stocks", authMw(dh.sectorAddStocks))
	mux.HandleFunc("POST "+base+"/data/sector/remove-stocks", authMw(dh.sectorRemoveStocks))
	mux.HandleFunc("POST "+base+"/data/sector/remove", authMw(dh.sectorRemove))
	mux.HandleFunc("POST "+base+"/data/sector/reset", authMw(dh.sectorReset))
	mux.HandleFunc("POST "+base+"/data/index-weight", authMw(dh.indexWeight))
	mux.HandleFunc("GET "+base+"/data/trading-calendar/{year}", authMw(dh.tradingCalendar))
	mux.HandleFunc("GET "+base+"/data/instrument/{code}", authMw(dh.instrumentInfo))

	for _, period := range []string{"tick", "full-tick", "full-kline", "divid-factors", "level2-quote", "level2-order", "level2-transaction"} {
		mux.HandleFunc("POST "+base+"/data/"+period, authMw(tickSeries(d.MarketData, period)))
		mux.HandleFunc("POST "+base+"/data/download/"+period, authMw(downloadTrigger(d.MarketData, period)))
	}

	mux.HandleFunc("POST "+base+"/data/subscription", authMw(dh.subscribe))
	mux.HandleFunc("DELETE "+base+"/data/subscription/{id}", authMw(dh.unsubscribe))
	mux.HandleFunc("GET "+base+"/data/subscription/{id}", authMw(dh.subscriptionInfo))
	mux.HandleFunc("GET "+base+"/data/subscriptions", authMw(dh.subscriptionList))

	mux.HandleFunc("POST "+base+"/trading/connect", authMw(th.connect))
	mux.HandleFunc("POST "+base+"/trading/disconnect/{session}", authMw(th.disconnect))
	mux.HandleFunc("GET "+base+"/trading/status/{session}", authMw(th.status))
	mux.HandleFunc("GET "+base+"/trading/account/{session}", authMw(th.account))
	mux.HandleFunc("GET "+base+"/trading/positions/{session}", authMw(th.positions))
	mux.HandleFunc("GET "+base+"/trading/orders/{session}", authMw(th.orders))
	mux.HandleFunc("GET "+base+"/trading/trades/{session}", authMw(th.trades))
	mux.HandleFunc("GET "+base+"/trading/asset/{session}", authMw(th.asset))
	mux.HandleFunc("GET "+base+"/trading/risk/{session}", authMw(th.risk))
	mux.HandleFunc("GET "+base+"/trading/strategies/{session}", authMw(th.strategies))
	mux.HandleFunc("POST "+base+"/trading/order/{session}", authMw(th.submitOrder))
	mux.HandleFunc("POST "+base+"/trading/cancel/{session}", authMw(th.cancelOrder))
	mux.HandleFunc("POST "+base+"/trading/order-async/{session}", authMw(th.submitOrderAsync))
	mux.HandleFunc("POST "+base+"/trading/cancel-async/{session}", authMw(th.cancelOrderAsync))

	quote := stream.QuoteHandler(d.Subscription)
	mux.HandleFunc("GET /ws/quote/{subscription_id}", func(w http.ResponseWriter, r *http.Request) {
		quote(w, r, r.PathValue("subscription_id"))
	})
	tradingStream := stream.TradingHandler(d.Callbacks, d.StreamCfg)
	mux.HandleFunc("GET /ws/trading", func(w http.ResponseWriter, r *http.Request) {
		tradingStream(w, r, r.URL.Query().Get("account_id"))
	})

	mux.HandleFunc("GET /health", metrics.HealthHandler())
	mux.HandleFunc("GET /health/ready", metrics.ReadyHandler())
	mux.HandleFunc("GET /health/live", metrics.LivenessHandler())
	mux.Handle("GET /metrics", metrics.Handler())

	return s
}

// Start runs the HTTP server, blocking until it stops.
func (s *Server) Start(addr string) error {
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // streaming routes hold the connection open indefinitely
		IdleTimeout:  120 * time.Second,
	}
	metrics.RegisterComponent("api", true, "")
	return s.srv.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server: it stops accepting new
// connections and waits for active ones to finish until ctx is done.
// It does not touch the executor's worker jobs.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
