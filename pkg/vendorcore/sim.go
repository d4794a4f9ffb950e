package vendorcore

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/psychoney/quant-qmt-proxy/pkg/domain"
)

// Sim is a complete synthetic vendor core. It never makes a real
// network call; every method returns deterministic-ish, plausible data
// modelled on the mock fallbacks in original_source's
// services/trading_service.py and services/data_service.py. It is used
// directly in SIM mode and by every package's unit tests.
type Sim struct {
	mu        sync.Mutex
	orderSeq  int
	instances map[string]*simHandle
	sectors   map[string][]string
}

func NewSim() *Sim {
	return &Sim{
		orderSeq:  1000,
		instances: make(map[string]*simHandle),
		sectors: map[string][]string{
			"Banking":    {"000001.SZ", "600036.SH"},
			"Technology": {},
		},
	}
}

func (s *Sim) NewClientHandle(_ context.Context, _ string, accountID string) (ClientHandle, error) {
	h := &simHandle{
		parent:    s,
		accountID: accountID,
		orders:    make(map[string]*domain.OrderResponse),
	}
	s.mu.Lock()
	s.instances[accountID] = h
	s.mu.Unlock()
	return h, nil
}

func (s *Sim) nextOrderID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orderSeq++
	return fmt.Sprintf("sim_order_%d", s.orderSeq)
}

type simHandle struct {
	parent    *Sim
	accountID string
	sink      TradingEventSink

	mu     sync.Mutex
	orders map[string]*domain.OrderResponse
}

func (h *simHandle) RegisterCallbackReceiver(sink TradingEventSink) error {
	h.sink = sink
	return nil
}

func (h *simHandle) StartIOThread() error { return nil }

func (h *simHandle) Connect(_ context.Context) error {
	if h.sink != nil {
		h.sink.Emit(domain.CallbackRecord{Kind: domain.CallbackConnected, AccountID: h.accountID, Time: now()})
	}
	return nil
}

func (h *simHandle) SubscribeAccount(_ context.Context, _ string) error { return nil }

func (h *simHandle) QueryAsset(_ context.Context, _ string) (domain.AssetInfo, error) {
	return domain.AssetInfo{
		TotalAsset:      1_800_000.0,
		MarketValue:     800_000.0,
		Cash:            950_000.0,
		FrozenCash:      50_000.0,
		AvailableCash:   900_000.0,
		ProfitLoss:      50_000.0,
		ProfitLossRatio: 0.028,
	}, nil
}

func (h *simHandle) QueryPositions(_ context.Context, _ string) ([]domain.PositionInfo, error) {
	return []domain.PositionInfo{
		{
			StockCode: "000001.SZ", StockName: "PingAn Bank",
			Volume: 10000, AvailableVolume: 10000,
			CostPrice: 12.50, MarketPrice: 13.20, MarketValue: 132000.0,
			ProfitLoss: 7000.0, ProfitLossRatio: 0.056,
		},
		{
			StockCode: "000002.SZ", StockName: "Vanke A",
			Volume: 5000, AvailableVolume: 5000,
			CostPrice: 18.80, MarketPrice: 19.50, MarketValue: 97500.0,
			ProfitLoss: 3500.0, ProfitLossRatio: 0.037,
		},
	}, nil
}

func (h *simHandle) QueryTrades(_ context.Context, _ string) ([]domain.TradeInfo, error) {
	return []domain.TradeInfo{
		{
			TradeID: "trade_001", OrderID: "order_1001", StockCode: "000001.SZ",
			Side: domain.Buy, Volume: 1000, Price: 13.20, Amount: 13200.0,
			TradeTime: now(), Commission: 13.20,
		},
	}, nil
}

func (h *simHandle) QueryOrders(_ context.Context, _ string) ([]domain.OrderResponse, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]domain.OrderResponse, 0, len(h.orders))
	for _, o := range h.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (h *simHandle) SubmitOrder(_ context.Context, _ string, req domain.OrderRequest) (string, error) {
	orderID := h.parent.nextOrderID()
	resp := &domain.OrderResponse{
		OrderID: orderID, StockCode: req.StockCode, Side: req.Side,
		OrderType: req.OrderType, Volume: req.Volume, Price: req.Price,
		Status: domain.OrderSubmitted, SubmittedTime: now(),
	}
	h.mu.Lock()
	h.orders[orderID] = resp
	h.mu.Unlock()
	return orderID, nil
}

func (h *simHandle) CancelOrder(_ context.Context, _ string, orderID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if o, ok := h.orders[orderID]; ok {
		o.Status = domain.OrderCancelled
	}
	return nil
}

func (h *simHandle) SubmitOrderAsync(_ context.Context, accountID string, seq int64, req domain.AsyncOrderRequest) error {
	go func() {
		time.Sleep(20 * time.Millisecond)
		if h.sink != nil {
			s := seq
			h.sink.Emit(domain.CallbackRecord{
				Kind: domain.CallbackAsyncOrderAck, AccountID: accountID, Time: now(),
				AsyncSeq: &s,
				Payload: map[string]any{
					"stock_code": req.StockCode, "side": req.Side, "volume": req.Volume,
				},
			})
		}
	}()
	return nil
}

func (h *simHandle) CancelOrderAsync(_ context.Context, accountID string, seq int64, req domain.AsyncCancelRequest) error {
	go func() {
		time.Sleep(20 * time.Millisecond)
		if h.sink != nil {
			s := seq
			h.sink.Emit(domain.CallbackRecord{
				Kind: domain.CallbackAsyncCancelAck, AccountID: accountID, Time: now(),
				AsyncSeq: &s,
				Payload:  map[string]any{"order_id": req.OrderID},
			})
		}
	}()
	return nil
}

func (h *simHandle) Stop() error {
	if h.sink != nil {
		h.sink.Emit(domain.CallbackRecord{Kind: domain.CallbackDisconnected, AccountID: h.accountID, Time: now()})
	}
	return nil
}

// ---- Market data ----

func (s *Sim) QueryInstrumentInfo(_ context.Context, code string) (domain.InstrumentInfo, error) {
	return domain.InstrumentInfo{Code: code, Name: "SIM-" + code, ExchangeCode: exchangeOf(code), InstrumentID: code}, nil
}

func (s *Sim) QueryInstrumentType(_ context.Context, _ string) (string, error) {
	return "STOCK", nil
}

func (s *Sim) QueryTradingCalendar(_ context.Context, year string) ([]string, error) {
	return []string{year + "-01-02", year + "-01-03", year + "-01-06"}, nil
}

func (s *Sim) QuerySectorList(_ context.Context) ([]domain.SectorInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.SectorInfo, 0, len(s.sectors))
	for name := range s.sectors {
		out = append(out, domain.SectorInfo{Name: name})
	}
	return out, nil
}

func (s *Sim) QuerySectorMembers(_ context.Context, sector string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members, ok := s.sectors[sector]
	if !ok {
		return []string{}, nil
	}
	out := make([]string, len(members))
	copy(out, members)
	return out, nil
}

func (s *Sim) SectorCreate(_ context.Context, sector string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sectors[sector]; !ok {
		s.sectors[sector] = []string{}
	}
	return nil
}

func (s *Sim) SectorAddStocks(_ context.Context, sector string, codes []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := make(map[string]struct{}, len(s.sectors[sector]))
	for _, c := range s.sectors[sector] {
		existing[c] = struct{}{}
	}
	for _, c := range codes {
		if _, dup := existing[c]; !dup {
			s.sectors[sector] = append(s.sectors[sector], c)
			existing[c] = struct{}{}
		}
	}
	return nil
}

func (s *Sim) SectorRemoveStocks(_ context.Context, sector string, codes []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	remove := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		remove[c] = struct{}{}
	}
	kept := s.sectors[sector][:0]
	for _, c := range s.sectors[sector] {
		if _, drop := remove[c]; !drop {
			kept = append(kept, c)
		}
	}
	s.sectors[sector] = kept
	return nil
}

func (s *Sim) SectorRemove(_ context.Context, sector string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sectors, sector)
	return nil
}

func (s *Sim) SectorReset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sectors = map[string][]string{
		"Banking":    {"000001.SZ", "600036.SH"},
		"Technology": {},
	}
	return nil
}

func (s *Sim) QueryIndexWeight(_ context.Context, code string) ([]domain.IndexWeight, error) {
	return []domain.IndexWeight{{Code: "000001.SZ", Weight: 0.12}, {Code: "600036.SH", Weight: 0.08}}, nil
}

func (s *Sim) DownloadHistory(_ context.Context, _ []string, _, _, _ string) error {
	return nil
}

func (s *Sim) QueryHistory(_ context.Context, codes []string, period, start, end string, fields []string, _ domain.AdjustMode) ([]domain.SymbolRows, error) {
	out := make([]domain.SymbolRows, 0, len(codes))
	for _, code := range codes {
		rows := make([]domain.Row, 0, 3)
		base := time.Now().Add(-3 * 24 * time.Hour)
		for i := 0; i < 3; i++ {
			f := map[string]float64{
				"open": 10 + rand.Float64(), "high": 10.5 + rand.Float64(),
				"low": 9.5 + rand.Float64(), "close": 10 + rand.Float64(),
				"volume": float64(100000 + i*1000),
			}
			if len(fields) > 0 {
				filtered := make(map[string]float64, len(fields))
				for _, k := range fields {
					if v, ok := f[k]; ok {
						filtered[k] = v
					}
				}
				f = filtered
			}
			rows = append(rows, domain.Row{Symbol: code, Timestamp: base.Add(time.Duration(i) * 24 * time.Hour), Fields: f})
		}
		out = append(out, domain.SymbolRows{Symbol: code, Rows: rows})
	}
	_ = period
	_ = start
	_ = end
	return out, nil
}

func (s *Sim) QueryFinancial(_ context.Context, codes []string, tables []string, _, _ string) ([]domain.SymbolTableRows, error) {
	out := make([]domain.SymbolTableRows, 0, len(codes))
	for _, code := range codes {
		t := make(map[string][]domain.Row, len(tables))
		for _, table := range tables {
			t[table] = []domain.Row{{
				Symbol: code, Timestamp: time.Now(),
				Fields: map[string]float64{"value": rand.Float64() * 1e8},
			}}
		}
		out = append(out, domain.SymbolTableRows{Symbol: code, Tables: t})
	}
	return out, nil
}

// ---- Quote feed ----

func (s *Sim) SubscribePerSymbol(ctx context.Context, codes []string, _ string, _ domain.AdjustMode, onTick func(domain.Tick)) (func() error, error) {
	return s.runTickLoop(ctx, codes, onTick), nil
}

func (s *Sim) SubscribeWholeMarket(ctx context.Context, onTick func(domain.Tick)) (func() error, error) {
	return s.runTickLoop(ctx, []string{"000001.SZ", "600000.SH", "300750.SZ"}, onTick), nil
}

func (s *Sim) runTickLoop(ctx context.Context, codes []string, onTick func(domain.Tick)) func() error {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				for _, code := range codes {
					onTick(domain.Tick{
						Symbol: code,
						Time:   now(),
						Fields: map[string]float64{
							"last":   10 + rand.Float64(),
							"volume": float64(rand.Intn(10000)),
						},
					})
				}
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	var once sync.Once
	return func() error {
		once.Do(func() { close(stop) })
		return nil
	}
}

func exchangeOf(code string) string {
	if len(code) > 3 {
		return code[len(code)-2:]
	}
	return ""
}
