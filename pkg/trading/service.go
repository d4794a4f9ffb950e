// Package trading implements the trading service (spec component C4):
// thin wrappers over vendor calls for account/position/order/trade
// queries and order submission/cancellation, built on the session
// registry (C3), the mode guard (C2) and the blocking-call executor
// (C1).
package trading

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/psychoney/quant-qmt-proxy/pkg/apperr"
	"github.com/psychoney/quant-qmt-proxy/pkg/domain"
	"github.com/psychoney/quant-qmt-proxy/pkg/executor"
	"github.com/psychoney/quant-qmt-proxy/pkg/metrics"
	"github.com/psychoney/quant-qmt-proxy/pkg/mode"
	"github.com/psychoney/quant-qmt-proxy/pkg/session"
)

// Service implements spec.md §4.4's public operations.
type Service struct {
	registry *session.Registry
	guard    *mode.Guard
	pool     *executor.Pool

	seq atomic.Int64

	simOrdersMu sync.Mutex
	simOrders   map[string]*domain.OrderResponse
}

func New(registry *session.Registry, guard *mode.Guard, pool *executor.Pool) *Service {
	return &Service{
		registry:  registry,
		guard:     guard,
		pool:      pool,
		simOrders: make(map[string]*domain.OrderResponse),
	}
}

var symbolPattern = regexp.MustCompile(`^\d+\.[A-Za-z]{1,4}$`)

// ValidateSymbol applies spec.md §4.4's format check: an exchange
// suffix present, numeric body.
func ValidateSymbol(code string) error {
	if !symbolPattern.MatchString(code) {
		return apperr.New(apperr.InvalidArgument, "invalid symbol format: "+code)
	}
	return nil
}

// MapVendorStatus maps a raw vendor status code to the gateway's
// normalised OrderStatus (spec.md §4.4). Unknown codes collapse to PENDING.
func MapVendorStatus(code int) domain.OrderStatus {
	switch code {
	case 48:
		return domain.OrderPending
	case 49, 50, 51:
		return domain.OrderSubmitted
	case 52, 53, 55:
		return domain.OrderPartialFilled
	case 54:
		return domain.OrderCancelled
	case 56:
		return domain.OrderFilled
	case 57:
		return domain.OrderRejected
	default:
		return domain.OrderPending
	}
}

func (s *Service) recordModeDecision(kind mode.OpKind, decision mode.Decision) {
	var outcome string
	switch decision.Outcome {
	case mode.Allow:
		outcome = "allow"
	case mode.Simulate:
		outcome = "simulate"
	default:
		outcome = "refuse"
	}
	opKind := "read"
	if kind == mode.Mutate {
		opKind = "mutate"
	}
	metrics.ModeDecisionsTotal.WithLabelValues(string(s.guard.Mode()), opKind, outcome).Inc()
}

// Connect starts a new trading session (delegates to the session registry).
func (s *Service) Connect(ctx context.Context, req domain.ConnectRequest) (domain.ConnectResponse, error) {
	timer := metrics.NewTimer()
	sess, acct, err := s.registry.Connect(ctx, req)
	timer.ObserveDuration(metrics.SessionConnectDuration)
	if err != nil {
		return domain.ConnectResponse{Success: false, Message: err.Error()}, err
	}
	return domain.ConnectResponse{Success: true, Message: "connected", SessionID: sess.ID, AccountInfo: &acct}, nil
}

// Disconnect tears a session down. Idempotent.
func (s *Service) Disconnect(sessionID string) (bool, error) {
	return s.registry.Disconnect(sessionID)
}

// IsConnected reports whether sessionID is currently registered.
func (s *Service) IsConnected(sessionID string) bool {
	_, err := s.registry.Get(sessionID)
	return err == nil
}

func (s *Service) GetAccount(ctx context.Context, sessionID string) (domain.AccountInfo, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return domain.AccountInfo{}, err
	}
	s.recordModeDecision(mode.Read, s.guard.Check(mode.Read))

	asset, err := executor.Execute(ctx, s.pool, "query_asset", func(ctx context.Context) (domain.AssetInfo, error) {
		return sess.Handle.QueryAsset(ctx, sess.AccountID)
	})
	if err != nil {
		return domain.AccountInfo{}, err
	}
	sess.SetLastAsset(asset)
	return domain.AccountInfo{
		AccountID:        sess.AccountID,
		AccountType:      domain.AccountSecurity,
		Status:           "CONNECTED",
		Balance:          asset.Cash,
		AvailableBalance: asset.AvailableCash,
		FrozenBalance:    asset.FrozenCash,
		MarketValue:      asset.MarketValue,
		TotalAsset:       asset.TotalAsset,
	}, nil
}

func (s *Service) GetAsset(ctx context.Context, sessionID string) (domain.AssetInfo, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return domain.AssetInfo{}, err
	}
	s.recordModeDecision(mode.Read, s.guard.Check(mode.Read))
	asset, err := executor.Execute(ctx, s.pool, "query_asset", func(ctx context.Context) (domain.AssetInfo, error) {
		return sess.Handle.QueryAsset(ctx, sess.AccountID)
	})
	if err == nil {
		sess.SetLastAsset(asset)
	}
	return asset, err
}

func (s *Service) GetPositions(ctx context.Context, sessionID string) ([]domain.PositionInfo, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	s.recordModeDecision(mode.Read, s.guard.Check(mode.Read))
	return executor.Execute(ctx, s.pool, "query_positions", func(ctx context.Context) ([]domain.PositionInfo, error) {
		return sess.Handle.QueryPositions(ctx, sess.AccountID)
	})
}

func (s *Service) GetOrders(ctx context.Context, sessionID string) ([]domain.OrderResponse, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	s.recordModeDecision(mode.Read, s.guard.Check(mode.Read))
	return executor.Execute(ctx, s.pool, "query_orders", func(ctx context.Context) ([]domain.OrderResponse, error) {
		return sess.Handle.QueryOrders(ctx, sess.AccountID)
	})
}

func (s *Service) GetTrades(ctx context.Context, sessionID string) ([]domain.TradeInfo, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	s.recordModeDecision(mode.Read, s.guard.Check(mode.Read))
	return executor.Execute(ctx, s.pool, "query_trades", func(ctx context.Context) ([]domain.TradeInfo, error) {
		return sess.Handle.QueryTrades(ctx, sess.AccountID)
	})
}

// GetRisk derives position_ratio and cash_ratio from the last-known
// asset snapshot; the remaining fields are constants pending a real
// risk model (spec.md §4.4).
func (s *Service) GetRisk(ctx context.Context, sessionID string) (domain.RiskInfo, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return domain.RiskInfo{}, err
	}
	s.recordModeDecision(mode.Read, s.guard.Check(mode.Read))
	asset, err := executor.Execute(ctx, s.pool, "query_asset", func(ctx context.Context) (domain.AssetInfo, error) {
		return sess.Handle.QueryAsset(ctx, sess.AccountID)
	})
	if err != nil {
		return domain.RiskInfo{}, err
	}
	total := asset.TotalAsset
	if total < 1 {
		total = 1
	}
	return domain.RiskInfo{
		PositionRatio: asset.MarketValue / total,
		CashRatio:     asset.Cash / total,
		MaxDrawdown:   0,
		VaR95:         0,
		VaR99:         0,
	}, nil
}

// GetStrategies is a read-only placeholder — the vendor core this
// gateway fronts has no strategy-runner concept, so it always returns
// an empty list for a valid session.
func (s *Service) GetStrategies(ctx context.Context, sessionID string) ([]domain.StrategyInfo, error) {
	if _, err := s.registry.Get(sessionID); err != nil {
		return nil, err
	}
	s.recordModeDecision(mode.Read, s.guard.Check(mode.Read))
	return []domain.StrategyInfo{}, nil
}

func (s *Service) nextOrderID() string {
	n := s.seq.Add(1)
	return fmt.Sprintf("sim_gw_order_%d", n)
}

// SubmitOrder submits an order, or fabricates a simulated acknowledgement
// when the mode guard refuses the mutation (spec.md §4.4).
func (s *Service) SubmitOrder(ctx context.Context, sessionID string, req domain.OrderRequest) (domain.OrderResponse, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return domain.OrderResponse{}, err
	}
	if err := ValidateSymbol(req.StockCode); err != nil {
		return domain.OrderResponse{}, err
	}

	decision := s.guard.Check(mode.Mutate)
	s.recordModeDecision(mode.Mutate, decision)

	if decision.Outcome != mode.Allow {
		orderID := s.nextOrderID()
		resp := &domain.OrderResponse{
			OrderID: orderID, StockCode: req.StockCode, Side: req.Side,
			OrderType: req.OrderType, Volume: req.Volume, Price: req.Price,
			Status: domain.OrderSubmitted, SubmittedTime: time.Now(), Simulated: true,
		}
		s.simOrdersMu.Lock()
		s.simOrders[orderID] = resp
		s.simOrdersMu.Unlock()
		metrics.OrdersSubmittedTotal.WithLabelValues(string(req.Side), "simulate").Inc()
		return *resp, nil
	}

	orderID, err := executor.Execute(ctx, s.pool, "submit_order", func(ctx context.Context) (string, error) {
		return sess.Handle.SubmitOrder(ctx, sess.AccountID, req)
	})
	if err != nil {
		metrics.OrdersSubmittedTotal.WithLabelValues(string(req.Side), "error").Inc()
		return domain.OrderResponse{}, err
	}
	metrics.OrdersSubmittedTotal.WithLabelValues(string(req.Side), "allow").Inc()
	metrics.OrderStatusTransitionsTotal.WithLabelValues(string(domain.OrderSubmitted)).Inc()
	return domain.OrderResponse{
		OrderID: orderID, StockCode: req.StockCode, Side: req.Side,
		OrderType: req.OrderType, Volume: req.Volume, Price: req.Price,
		Status: domain.OrderSubmitted, SubmittedTime: time.Now(),
	}, nil
}

// CancelOrder cancels an order, or — when the mode guard refuses the
// mutation — transitions any locally tracked simulated order to
// CANCELLED (spec.md §4.4).
func (s *Service) CancelOrder(ctx context.Context, sessionID string, req domain.CancelOrderRequest) (domain.OrderResponse, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return domain.OrderResponse{}, err
	}

	decision := s.guard.Check(mode.Mutate)
	s.recordModeDecision(mode.Mutate, decision)

	if decision.Outcome != mode.Allow {
		s.simOrdersMu.Lock()
		resp, tracked := s.simOrders[req.OrderID]
		if tracked {
			resp.Status = domain.OrderCancelled
		}
		s.simOrdersMu.Unlock()
		if !tracked {
			resp = &domain.OrderResponse{OrderID: req.OrderID, Status: domain.OrderCancelled}
		}
		out := *resp
		out.Simulated = true
		metrics.OrderStatusTransitionsTotal.WithLabelValues(string(domain.OrderCancelled)).Inc()
		return out, nil
	}

	_, err = executor.Execute(ctx, s.pool, "cancel_order", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, sess.Handle.CancelOrder(ctx, sess.AccountID, req.OrderID)
	})
	if err != nil {
		return domain.OrderResponse{}, err
	}
	metrics.OrderStatusTransitionsTotal.WithLabelValues(string(domain.OrderCancelled)).Inc()
	return domain.OrderResponse{OrderID: req.OrderID, Status: domain.OrderCancelled}, nil
}

// SubmitOrderAsync allocates the next process-wide async sequence
// value synchronously and submits the order non-blockingly; the
// eventual ack arrives via the callback dispatcher carrying this
// sequence (spec.md §4.4, §8 invariant 5).
func (s *Service) SubmitOrderAsync(ctx context.Context, sessionID string, req domain.AsyncOrderRequest) (domain.AsyncOrderResponse, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return domain.AsyncOrderResponse{}, err
	}
	if err := ValidateSymbol(req.StockCode); err != nil {
		return domain.AsyncOrderResponse{}, err
	}

	decision := s.guard.Check(mode.Mutate)
	s.recordModeDecision(mode.Mutate, decision)
	seq := s.seq.Add(1)
	metrics.AsyncSequenceCurrent.WithLabelValues(sess.AccountID).Set(float64(seq))

	if decision.Outcome != mode.Allow {
		return domain.AsyncOrderResponse{
			Success: true, Message: "simulated (mode-refused)", Seq: seq,
			StockCode: req.StockCode, Side: req.Side, Volume: req.Volume, Price: req.Price,
			Simulated: true,
		}, nil
	}

	if err := sess.Handle.SubmitOrderAsync(ctx, sess.AccountID, seq, req); err != nil {
		return domain.AsyncOrderResponse{}, err
	}
	return domain.AsyncOrderResponse{
		Success: true, Message: "submitted", Seq: seq,
		StockCode: req.StockCode, Side: req.Side, Volume: req.Volume, Price: req.Price,
	}, nil
}

// CancelOrderAsync mirrors SubmitOrderAsync for cancellation.
func (s *Service) CancelOrderAsync(ctx context.Context, sessionID string, req domain.AsyncCancelRequest) (domain.AsyncCancelResponse, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return domain.AsyncCancelResponse{}, err
	}
	if req.OrderID == "" && req.OrderSysID == "" {
		return domain.AsyncCancelResponse{}, apperr.New(apperr.InvalidArgument, "one of order_id or order_sysid is required")
	}

	decision := s.guard.Check(mode.Mutate)
	s.recordModeDecision(mode.Mutate, decision)
	seq := s.seq.Add(1)
	metrics.AsyncSequenceCurrent.WithLabelValues(sess.AccountID).Set(float64(seq))

	if decision.Outcome != mode.Allow {
		return domain.AsyncCancelResponse{
			Success: true, Message: "simulated (mode-refused)", Seq: seq,
			OrderID: req.OrderID, Simulated: true,
		}, nil
	}

	if err := sess.Handle.CancelOrderAsync(ctx, sess.AccountID, seq, req); err != nil {
		return domain.AsyncCancelResponse{}, err
	}
	return domain.AsyncCancelResponse{Success: true, Message: "submitted", Seq: seq, OrderID: req.OrderID}, nil
}
