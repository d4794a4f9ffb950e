// Package vendorcore is the gateway's seam onto "the vendor core": the
// proprietary, synchronous, single-threaded broker/market-data SDK that
// spec.md §1 places out of scope. Everything above this package
// (pkg/session, pkg/trading, pkg/marketdata, pkg/subscription) talks to
// the vendor exclusively through the Core interface, never to a
// concrete SDK binding — this is the "dynamic attribute-driven
// conversion becomes a structural mapping table" / "global singleton
// becomes an explicit dependency record" re-architecture spec.md §9
// calls for, applied to the one piece of the original system (xtquant)
// that cannot be ported at all.
//
// Two implementations exist: Sim, a complete synthetic backend used in
// SIM mode and in tests, and Live, the thin binding point where a real
// vendor SDK would be wired in (left unimplemented per spec.md §1 — the
// vendor core's own wire protocol is explicitly out of scope).
package vendorcore

import (
	"context"
	"time"

	"github.com/psychoney/quant-qmt-proxy/pkg/domain"
)

// ClientHandle is the per-session vendor client handle spec.md §3's
// Trading session record owns exclusively. Its methods correspond
// one-to-one to the xttrader calls the original Python source makes
// (query_stock_asset, order_stock, order_stock_async, ...).
type ClientHandle interface {
	// RegisterCallbackReceiver installs the sink that receives every
	// asynchronous vendor-thread event for this handle's account
	// (spec.md §4.3 step 3). Must be called before StartIOThread.
	RegisterCallbackReceiver(sink TradingEventSink) error

	// StartIOThread starts the vendor SDK's background I/O thread
	// (spec.md §4.3 step 4).
	StartIOThread() error

	// Connect performs the blocking vendor connect call (spec.md §4.3
	// step 5). A non-nil error here is always apperr UpstreamUnavailable.
	Connect(ctx context.Context) error

	// SubscribeAccount subscribes the account for trading callbacks
	// (spec.md §4.3 step 6).
	SubscribeAccount(ctx context.Context, accountID string) error

	QueryAsset(ctx context.Context, accountID string) (domain.AssetInfo, error)
	QueryPositions(ctx context.Context, accountID string) ([]domain.PositionInfo, error)
	QueryOrders(ctx context.Context, accountID string) ([]domain.OrderResponse, error)
	QueryTrades(ctx context.Context, accountID string) ([]domain.TradeInfo, error)

	// SubmitOrder is the blocking order_stock call. Returns the
	// vendor-assigned order id.
	SubmitOrder(ctx context.Context, accountID string, req domain.OrderRequest) (vendorOrderID string, err error)
	// CancelOrder is the blocking cancel_order_stock call.
	CancelOrder(ctx context.Context, accountID string, orderID string) error

	// SubmitOrderAsync is the non-blocking order_stock_async call. seq
	// has already been allocated by the caller (pkg/trading) and is
	// echoed back in the eventual async_order_ack callback.
	SubmitOrderAsync(ctx context.Context, accountID string, seq int64, req domain.AsyncOrderRequest) error
	CancelOrderAsync(ctx context.Context, accountID string, seq int64, req domain.AsyncCancelRequest) error

	// Stop tears the handle down (spec.md §4.3 disconnect, reverse order).
	Stop() error
}

// TradingEventSink receives vendor-thread callbacks. Implementations
// (pkg/callback.Dispatcher) must not block — the vendor thread that
// calls Emit is never under gateway control (spec.md §4.7, §5).
type TradingEventSink interface {
	Emit(rec domain.CallbackRecord)
}

// TickSink receives vendor-thread market-data ticks for one subscription.
type TickSink interface {
	Emit(tick domain.Tick)
}

// MarketData is the market-data and reference-data half of the vendor
// core (spec.md §4.5).
type MarketData interface {
	QueryInstrumentInfo(ctx context.Context, code string) (domain.InstrumentInfo, error)
	QueryInstrumentType(ctx context.Context, code string) (string, error)
	QueryTradingCalendar(ctx context.Context, year string) ([]string, error)
	QuerySectorList(ctx context.Context) ([]domain.SectorInfo, error)
	QuerySectorMembers(ctx context.Context, sector string) ([]string, error)
	QueryIndexWeight(ctx context.Context, code string) ([]domain.IndexWeight, error)

	// Sector mutation primitives backing the "/data/sector/*" write
	// endpoints (spec.md §6). create_sector_folder has no vendor
	// equivalent other than inserting an empty member list.
	SectorCreate(ctx context.Context, sector string) error
	SectorAddStocks(ctx context.Context, sector string, codes []string) error
	SectorRemoveStocks(ctx context.Context, sector string, codes []string) error
	SectorRemove(ctx context.Context, sector string) error
	SectorReset(ctx context.Context) error

	// DownloadHistory is the vendor's download primitive (spec.md
	// §4.5 range queries). Bounded by the download timeout budget.
	DownloadHistory(ctx context.Context, codes []string, period, start, end string) error

	// QueryHistory is the vendor's retrieval primitive, returning the
	// tabular payload as per-symbol rows. Implementations return rows
	// already in that shape, and pkg/marketdata passes them through
	// unchanged; pkg/marketdata.Transpose is not applied to them.
	QueryHistory(ctx context.Context, codes []string, period, start, end string, fields []string, adjust domain.AdjustMode) ([]domain.SymbolRows, error)

	QueryFinancial(ctx context.Context, codes []string, tables []string, start, end string) ([]domain.SymbolTableRows, error)
}

// QuoteFeed is the vendor core's subscription registration surface
// (spec.md §4.6). Each Subscribe* call registers exactly one vendor-
// side subscription and returns an unsubscribe func; onTick fires on a
// vendor thread.
type QuoteFeed interface {
	SubscribePerSymbol(ctx context.Context, codes []string, period string, adjust domain.AdjustMode, onTick func(domain.Tick)) (unsubscribe func() error, err error)
	SubscribeWholeMarket(ctx context.Context, onTick func(domain.Tick)) (unsubscribe func() error, err error)
}

// Core aggregates the full vendor-core surface the gateway depends on.
type Core interface {
	// NewClientHandle allocates a fresh per-session vendor client bound
	// to qmtUserDataPath (spec.md §4.3 step 2).
	NewClientHandle(ctx context.Context, qmtUserDataPath, accountID string) (ClientHandle, error)

	MarketData
	QuoteFeed
}

// now is the single time source used across vendorcore so tests can
// reason about ordering without depending on wall-clock granularity.
var now = time.Now
