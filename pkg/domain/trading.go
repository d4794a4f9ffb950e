// Package domain holds the transport-independent data types shared by
// the trading service (C4), the data service (C5), the subscription
// manager (C6) and the callback dispatcher (C7). These are the plain
// records spec.md §3 and §4.4 describe; HTTP/gRPC/WS DTOs are thin
// wrappers over them built in pkg/api, pkg/rpcapi and pkg/stream.
package domain

import "time"

type AccountType string

const (
	AccountSecurity AccountType = "SECURITY"
	AccountCredit   AccountType = "CREDIT"
	AccountFutures  AccountType = "FUTURES"
)

type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

type OrderType string

const (
	Market OrderType = "MARKET"
	Limit  OrderType = "LIMIT"
)

// OrderStatus is the gateway-normalised order status. The mapping from
// vendor status codes is in pkg/trading (spec.md §4.4).
type OrderStatus string

const (
	OrderPending        OrderStatus = "PENDING"
	OrderSubmitted      OrderStatus = "SUBMITTED"
	OrderPartialFilled  OrderStatus = "PARTIAL_FILLED"
	OrderFilled         OrderStatus = "FILLED"
	OrderCancelled      OrderStatus = "CANCELLED"
	OrderRejected       OrderStatus = "REJECTED"
)

// AccountInfo describes a connected account.
type AccountInfo struct {
	AccountID        string      `json:"account_id"`
	AccountType      AccountType `json:"account_type"`
	AccountName      string      `json:"account_name"`
	Status           string      `json:"status"`
	Balance          float64     `json:"balance"`
	AvailableBalance float64     `json:"available_balance"`
	FrozenBalance    float64     `json:"frozen_balance"`
	MarketValue      float64     `json:"market_value"`
	TotalAsset       float64     `json:"total_asset"`
}

// AssetInfo is the result of an asset query (spec.md §4.4).
type AssetInfo struct {
	TotalAsset      float64 `json:"total_asset"`
	MarketValue     float64 `json:"market_value"`
	Cash            float64 `json:"cash"`
	FrozenCash      float64 `json:"frozen_cash"`
	AvailableCash   float64 `json:"available_cash"`
	ProfitLoss      float64 `json:"profit_loss"`
	ProfitLossRatio float64 `json:"profit_loss_ratio"`
}

// PositionInfo is one held position.
type PositionInfo struct {
	StockCode       string  `json:"stock_code"`
	StockName       string  `json:"stock_name"`
	Volume          int64   `json:"volume"`
	AvailableVolume int64   `json:"available_volume"`
	FrozenVolume    int64   `json:"frozen_volume"`
	CostPrice       float64 `json:"cost_price"`
	MarketPrice     float64 `json:"market_price"`
	MarketValue     float64 `json:"market_value"`
	ProfitLoss      float64 `json:"profit_loss"`
	ProfitLossRatio float64 `json:"profit_loss_ratio"`
}

// TradeInfo is one executed trade (a fill).
type TradeInfo struct {
	TradeID    string    `json:"trade_id"`
	OrderID    string    `json:"order_id"`
	StockCode  string    `json:"stock_code"`
	Side       OrderSide `json:"side"`
	Volume     int64     `json:"volume"`
	Price      float64   `json:"price"`
	Amount     float64   `json:"amount"`
	TradeTime  time.Time `json:"trade_time"`
	Commission float64   `json:"commission"`
}

// RiskInfo is the derived risk snapshot (spec.md §4.4: position_ratio
// and cash_ratio are computed, the rest are constants pending a real model).
type RiskInfo struct {
	PositionRatio float64 `json:"position_ratio"`
	CashRatio     float64 `json:"cash_ratio"`
	MaxDrawdown   float64 `json:"max_drawdown"`
	VaR95         float64 `json:"var_95"`
	VaR99         float64 `json:"var_99"`
}

// StrategyInfo describes a running or stopped strategy.
type StrategyInfo struct {
	StrategyName   string            `json:"strategy_name"`
	StrategyType   string            `json:"strategy_type"`
	Status         string            `json:"status"`
	CreatedTime    time.Time         `json:"created_time"`
	LastUpdateTime time.Time         `json:"last_update_time"`
	Parameters     map[string]string `json:"parameters"`
}

// OrderRequest is a submit_order request.
type OrderRequest struct {
	StockCode    string    `json:"stock_code"`
	Side         OrderSide `json:"side"`
	OrderType    OrderType `json:"order_type"`
	Volume       int64     `json:"volume"`
	Price        *float64  `json:"price,omitempty"`
	StrategyName string    `json:"strategy_name,omitempty"`
}

// OrderResponse is the result of submit_order / a row of get_orders.
type OrderResponse struct {
	OrderID       string      `json:"order_id"`
	StockCode     string      `json:"stock_code"`
	Side          OrderSide   `json:"side"`
	OrderType     OrderType   `json:"order_type"`
	Volume        int64       `json:"volume"`
	Price         *float64    `json:"price,omitempty"`
	Status        OrderStatus `json:"status"`
	SubmittedTime time.Time   `json:"submitted_time"`
	FilledVolume  int64       `json:"filled_volume"`
	FilledAmount  float64     `json:"filled_amount"`
	AveragePrice  *float64    `json:"average_price,omitempty"`

	// Simulated is true when this response was fabricated by the mode
	// guard rather than returned by the vendor core (spec.md §4.4,
	// §8 invariant 4).
	Simulated bool `json:"simulated"`
}

// CancelOrderRequest is a cancel_order request.
type CancelOrderRequest struct {
	OrderID string `json:"order_id"`
}

// AsyncOrderRequest is a submit_order_async request.
type AsyncOrderRequest struct {
	StockCode    string    `json:"stock_code"`
	Side         OrderSide `json:"side"`
	OrderType    OrderType `json:"order_type"`
	Volume       int64     `json:"volume"`
	Price        *float64  `json:"price,omitempty"`
	StrategyName string    `json:"strategy_name,omitempty"`
}

// AsyncOrderResponse carries the synchronously-returned sequence
// number; the eventual ack arrives via the callback dispatcher.
type AsyncOrderResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Seq       int64     `json:"seq"`
	StockCode string    `json:"stock_code"`
	Side      OrderSide `json:"side"`
	Volume    int64     `json:"volume"`
	Price     *float64  `json:"price,omitempty"`
	Simulated bool      `json:"simulated"`
}

// AsyncCancelRequest is a cancel_order_async request. At least one of
// OrderID/OrderSysID must be set (spec.md / original source).
type AsyncCancelRequest struct {
	OrderID    string `json:"order_id,omitempty"`
	OrderSysID string `json:"order_sysid,omitempty"`
}

type AsyncCancelResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Seq       int64  `json:"seq"`
	OrderID   string `json:"order_id,omitempty"`
	Simulated bool   `json:"simulated"`
}

// ConnectRequest is the connect operation's request.
type ConnectRequest struct {
	AccountID string  `json:"account_id"`
	Password  *string `json:"password,omitempty"`
	ClientID  *int    `json:"client_id,omitempty"`
}

// ConnectResponse is the connect operation's response.
type ConnectResponse struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	SessionID   string       `json:"session_id,omitempty"`
	AccountInfo *AccountInfo `json:"account_info,omitempty"`
}
