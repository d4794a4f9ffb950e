// Package rpcapi implements the gateway's gRPC surface (spec component
// C9): the same C4–C7 service layer pkg/api exposes over JSON, wired
// once more as binary RPC. Grounded on the teacher's pkg/api/server.go
// gRPC bootstrap (minus mTLS, which spec.md §6 does not call for) and
// its pkg/api/interceptor.go unary-interceptor shape.
package rpcapi

import (
	"context"
	"net"

	"google.golang.org/grpc"

	pb "github.com/psychoney/quant-qmt-proxy/api/proto"
	"github.com/psychoney/quant-qmt-proxy/pkg/auth"
	"github.com/psychoney/quant-qmt-proxy/pkg/callback"
	"github.com/psychoney/quant-qmt-proxy/pkg/domain"
	"github.com/psychoney/quant-qmt-proxy/pkg/log"
	"github.com/psychoney/quant-qmt-proxy/pkg/marketdata"
	"github.com/psychoney/quant-qmt-proxy/pkg/metrics"
	"github.com/psychoney/quant-qmt-proxy/pkg/trading"
)

// Deps bundles every service the gRPC surface calls into, mirroring pkg/api.Deps.
type Deps struct {
	Trading    *trading.Service
	MarketData *marketdata.Service
	Callbacks  *callback.Dispatcher
	Allow      *auth.Allowlist
}

// Server implements pb.QmtProxyAPIServer over a plain (non-mTLS) gRPC
// listener; auth is a bearer-key interceptor, not transport-level
// client certificates.
type Server struct {
	pb.UnimplementedQmtProxyAPIServer
	d    Deps
	grpc *grpc.Server
}

func NewServer(d Deps) *Server {
	s := &Server{d: d}
	s.grpc = grpc.NewServer(
		grpc.UnaryInterceptor(authInterceptor(d.Allow)),
		grpc.StreamInterceptor(authStreamInterceptor(d.Allow)),
	)
	pb.RegisterQmtProxyAPIServer(s.grpc, s)
	return s
}

// Start listens on addr and serves until Stop is called or the
// listener fails.
func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	metrics.RegisterComponent("rpcapi", true, "")
	log.Logger.Info().Str("addr", addr).Msg("rpcapi: listening")
	return s.grpc.Serve(lis)
}

// Stop gracefully drains in-flight RPCs before returning.
func (s *Server) Stop() {
	s.grpc.GracefulStop()
}

func (s *Server) Connect(ctx context.Context, req *pb.ConnectRequest) (*pb.ConnectResponse, error) {
	resp, err := s.d.Trading.Connect(ctx, domain.ConnectRequest{
		AccountID: req.AccountId,
		Password:  req.Password,
		ClientID:  intPtr(req.ClientId),
	})
	out := &pb.ConnectResponse{Success: resp.Success, Message: resp.Message, SessionId: resp.SessionID}
	if resp.AccountInfo != nil {
		out.AccountInfo = toProtoAccount(*resp.AccountInfo)
	}
	if err != nil {
		return out, grpcStatus(err)
	}
	return out, nil
}

func intPtr(v *int32) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}

func (s *Server) Disconnect(ctx context.Context, req *pb.DisconnectRequest) (*pb.DisconnectResponse, error) {
	ok, err := s.d.Trading.Disconnect(req.SessionId)
	if err != nil {
		return nil, grpcStatus(err)
	}
	return &pb.DisconnectResponse{Success: ok}, nil
}

func (s *Server) GetAccount(ctx context.Context, req *pb.SessionRequest) (*pb.AccountInfo, error) {
	info, err := s.d.Trading.GetAccount(ctx, req.SessionId)
	if err != nil {
		return nil, grpcStatus(err)
	}
	return toProtoAccount(info), nil
}

func (s *Server) GetAsset(ctx context.Context, req *pb.SessionRequest) (*pb.AssetInfo, error) {
	info, err := s.d.Trading.GetAsset(ctx, req.SessionId)
	if err != nil {
		return nil, grpcStatus(err)
	}
	return toProtoAsset(info), nil
}

func (s *Server) GetPositions(ctx context.Context, req *pb.SessionRequest) (*pb.PositionList, error) {
	info, err := s.d.Trading.GetPositions(ctx, req.SessionId)
	if err != nil {
		return nil, grpcStatus(err)
	}
	return toProtoPositions(info), nil
}

func (s *Server) GetOrders(ctx context.Context, req *pb.SessionRequest) (*pb.OrderList, error) {
	info, err := s.d.Trading.GetOrders(ctx, req.SessionId)
	if err != nil {
		return nil, grpcStatus(err)
	}
	return toProtoOrders(info), nil
}

func (s *Server) GetTrades(ctx context.Context, req *pb.SessionRequest) (*pb.TradeList, error) {
	info, err := s.d.Trading.GetTrades(ctx, req.SessionId)
	if err != nil {
		return nil, grpcStatus(err)
	}
	return toProtoTrades(info), nil
}

func (s *Server) GetRisk(ctx context.Context, req *pb.SessionRequest) (*pb.RiskInfo, error) {
	info, err := s.d.Trading.GetRisk(ctx, req.SessionId)
	if err != nil {
		return nil, grpcStatus(err)
	}
	return toProtoRisk(info), nil
}

func (s *Server) GetStrategies(ctx context.Context, req *pb.SessionRequest) (*pb.StrategyList, error) {
	info, err := s.d.Trading.GetStrategies(ctx, req.SessionId)
	if err != nil {
		return nil, grpcStatus(err)
	}
	return toProtoStrategies(info), nil
}

func (s *Server) SubmitOrder(ctx context.Context, req *pb.SubmitOrderRequest) (*pb.OrderResponse, error) {
	resp, err := s.d.Trading.SubmitOrder(ctx, req.SessionId, domain.OrderRequest{
		StockCode:    req.StockCode,
		Side:         domain.OrderSide(req.Side),
		OrderType:    domain.OrderType(req.OrderType),
		Volume:       req.Volume,
		Price:        req.Price,
		StrategyName: req.StrategyName,
	})
	if err != nil {
		return nil, grpcStatus(err)
	}
	return toProtoOrder(resp), nil
}

func (s *Server) CancelOrder(ctx context.Context, req *pb.CancelOrderRequest) (*pb.OrderResponse, error) {
	resp, err := s.d.Trading.CancelOrder(ctx, req.SessionId, domain.CancelOrderRequest{OrderID: req.OrderId})
	if err != nil {
		return nil, grpcStatus(err)
	}
	return toProtoOrder(resp), nil
}

func (s *Server) SubmitOrderAsync(ctx context.Context, req *pb.SubmitOrderAsyncRequest) (*pb.AsyncOrderResponse, error) {
	resp, err := s.d.Trading.SubmitOrderAsync(ctx, req.SessionId, domain.AsyncOrderRequest{
		StockCode:    req.StockCode,
		Side:         domain.OrderSide(req.Side),
		OrderType:    domain.OrderType(req.OrderType),
		Volume:       req.Volume,
		Price:        req.Price,
		StrategyName: req.StrategyName,
	})
	if err != nil {
		return nil, grpcStatus(err)
	}
	return toProtoAsyncOrder(resp), nil
}

func (s *Server) CancelOrderAsync(ctx context.Context, req *pb.CancelOrderAsyncRequest) (*pb.AsyncCancelResponse, error) {
	resp, err := s.d.Trading.CancelOrderAsync(ctx, req.SessionId, domain.AsyncCancelRequest{
		OrderID:    req.OrderId,
		OrderSysID: req.OrderSysid,
	})
	if err != nil {
		return nil, grpcStatus(err)
	}
	return toProtoAsyncCancel(resp), nil
}

func (s *Server) QueryMarketCandles(ctx context.Context, req *pb.CandleQuery) (*pb.SymbolRowsList, error) {
	rows, err := s.d.MarketData.QueryMarketCandles(ctx, fromProtoCandleQuery(req))
	if err != nil {
		return nil, grpcStatus(err)
	}
	return toProtoSymbolRows(rows), nil
}

func (s *Server) QueryFinancial(ctx context.Context, req *pb.FinancialQuery) (*pb.SymbolTableRowsList, error) {
	rows, err := s.d.MarketData.QueryFinancial(ctx, fromProtoFinancialQuery(req))
	if err != nil {
		return nil, grpcStatus(err)
	}
	return toProtoSymbolTableRows(rows), nil
}

func (s *Server) QuerySectorList(ctx context.Context, _ *pb.Empty) (*pb.SectorList, error) {
	sectors, err := s.d.MarketData.QuerySectorList(ctx)
	if err != nil {
		return nil, grpcStatus(err)
	}
	return toProtoSectors(sectors), nil
}

func (s *Server) QuerySectorMembers(ctx context.Context, req *pb.SectorRequest) (*pb.StringList, error) {
	members, err := s.d.MarketData.QuerySectorMembers(ctx, req.Sector)
	if err != nil {
		return nil, grpcStatus(err)
	}
	return &pb.StringList{Values: members}, nil
}

// StreamTradingCallbacks replays buffered history then streams live
// records, the RPC twin of pkg/stream's trading WebSocket handler.
func (s *Server) StreamTradingCallbacks(req *pb.CallbackStreamRequest, stream pb.QmtProxyAPI_StreamTradingCallbacksServer) error {
	sub, history := s.d.Callbacks.Subscribe(req.AccountFilter, 256)
	defer s.d.Callbacks.Unsubscribe(sub)

	for _, rec := range history {
		if err := stream.Send(toProtoCallback(rec)); err != nil {
			return err
		}
	}

	ctx := stream.Context()
	for {
		rec, ok := sub.Next(ctx)
		if !ok {
			return ctx.Err()
		}
		if err := stream.Send(toProtoCallback(rec)); err != nil {
			return err
		}
	}
}
