package trading

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psychoney/quant-qmt-proxy/pkg/callback"
	"github.com/psychoney/quant-qmt-proxy/pkg/domain"
	"github.com/psychoney/quant-qmt-proxy/pkg/executor"
	"github.com/psychoney/quant-qmt-proxy/pkg/mode"
	"github.com/psychoney/quant-qmt-proxy/pkg/session"
	"github.com/psychoney/quant-qmt-proxy/pkg/vendorcore"
)

func newTestService(t *testing.T, m mode.Mode) (*Service, *session.Registry) {
	t.Helper()
	pool := executor.New(4)
	t.Cleanup(pool.Close)
	dispatcher := callback.New(100)
	registry := session.New(vendorcore.NewSim(), pool, "/tmp/qmt-userdata", dispatcher)
	guard := mode.NewGuard(m)
	return New(registry, guard, pool), registry
}

func connectTestSession(t *testing.T, svc *Service) string {
	t.Helper()
	resp, err := svc.Connect(context.Background(), domain.ConnectRequest{AccountID: "acct-1"})
	require.NoError(t, err)
	require.True(t, resp.Success)
	return resp.SessionID
}

func TestMapVendorStatus(t *testing.T) {
	cases := map[int]domain.OrderStatus{
		48: domain.OrderPending,
		49: domain.OrderSubmitted, 50: domain.OrderSubmitted, 51: domain.OrderSubmitted,
		52: domain.OrderPartialFilled, 53: domain.OrderPartialFilled, 55: domain.OrderPartialFilled,
		54: domain.OrderCancelled,
		56: domain.OrderFilled,
		57: domain.OrderRejected,
		999: domain.OrderPending,
	}
	for code, want := range cases {
		assert.Equal(t, want, MapVendorStatus(code), "code=%d", code)
	}
}

func TestValidateSymbol(t *testing.T) {
	assert.NoError(t, ValidateSymbol("000001.SZ"))
	assert.NoError(t, ValidateSymbol("600000.SH"))
	assert.Error(t, ValidateSymbol("not-a-symbol"))
	assert.Error(t, ValidateSymbol(""))
}

func TestService_ConnectDisconnectRoundTrip(t *testing.T) {
	svc, registry := newTestService(t, mode.LiveRW)
	before := registry.Len()

	sid := connectTestSession(t, svc)
	assert.Equal(t, before+1, registry.Len())

	ok, err := svc.Disconnect(sid)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, before, registry.Len())
}

func TestService_SubmitOrder_LiveRW_Allowed(t *testing.T) {
	svc, _ := newTestService(t, mode.LiveRW)
	sid := connectTestSession(t, svc)

	resp, err := svc.SubmitOrder(context.Background(), sid, domain.OrderRequest{
		StockCode: "000001.SZ", Side: domain.Buy, OrderType: domain.Limit, Volume: 100,
	})
	require.NoError(t, err)
	assert.False(t, resp.Simulated)
	assert.Equal(t, domain.OrderSubmitted, resp.Status)
}

func TestService_SubmitOrder_LiveRO_SimulatedAndVendorNotInvoked(t *testing.T) {
	svc, _ := newTestService(t, mode.LiveRO)
	sid := connectTestSession(t, svc)

	resp, err := svc.SubmitOrder(context.Background(), sid, domain.OrderRequest{
		StockCode: "000001.SZ", Side: domain.Buy, OrderType: domain.Limit, Volume: 100,
	})
	require.NoError(t, err)
	assert.True(t, resp.Simulated)
	assert.Equal(t, domain.OrderSubmitted, resp.Status)

	// The vendor core records every order it is handed; a simulated
	// submission must leave that record empty.
	orders, err := svc.GetOrders(context.Background(), sid)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestService_CancelOrder_LiveRO_TransitionsLocallyTrackedOrder(t *testing.T) {
	svc, _ := newTestService(t, mode.LiveRO)
	sid := connectTestSession(t, svc)

	submitted, err := svc.SubmitOrder(context.Background(), sid, domain.OrderRequest{
		StockCode: "000001.SZ", Side: domain.Buy, OrderType: domain.Limit, Volume: 100,
	})
	require.NoError(t, err)

	cancelled, err := svc.CancelOrder(context.Background(), sid, domain.CancelOrderRequest{OrderID: submitted.OrderID})
	require.NoError(t, err)
	assert.True(t, cancelled.Simulated)
	assert.Equal(t, domain.OrderCancelled, cancelled.Status)
}

func TestService_SubmitOrder_InvalidSymbolRejected(t *testing.T) {
	svc, _ := newTestService(t, mode.LiveRW)
	sid := connectTestSession(t, svc)

	_, err := svc.SubmitOrder(context.Background(), sid, domain.OrderRequest{
		StockCode: "garbage", Side: domain.Buy, OrderType: domain.Limit, Volume: 100,
	})
	assert.Error(t, err)
}

func TestService_AsyncSequence_StrictlyIncreasing(t *testing.T) {
	svc, _ := newTestService(t, mode.LiveRW)
	sid := connectTestSession(t, svc)

	var last int64
	for i := 0; i < 10; i++ {
		resp, err := svc.SubmitOrderAsync(context.Background(), sid, domain.AsyncOrderRequest{
			StockCode: "000001.SZ", Side: domain.Buy, OrderType: domain.Limit, Volume: 100,
		})
		require.NoError(t, err)
		assert.Greater(t, resp.Seq, last)
		last = resp.Seq
	}
}

func TestService_GetRisk_DerivesRatiosFromAsset(t *testing.T) {
	svc, _ := newTestService(t, mode.LiveRW)
	sid := connectTestSession(t, svc)

	risk, err := svc.GetRisk(context.Background(), sid)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, risk.PositionRatio, 0.0)
	assert.GreaterOrEqual(t, risk.CashRatio, 0.0)
}

func TestService_SessionNotFound(t *testing.T) {
	svc, _ := newTestService(t, mode.LiveRW)
	_, err := svc.GetAsset(context.Background(), "nonexistent")
	assert.Error(t, err)
}
