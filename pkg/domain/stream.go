package domain

import "time"

// SubscriptionKind is the quote subscription's fan-out shape (spec.md §3).
type SubscriptionKind string

const (
	PerSymbol   SubscriptionKind = "PER_SYMBOL"
	WholeMarket SubscriptionKind = "WHOLE_MARKET"
)

// Tick is one market-data update delivered to a subscription's
// attached client streams.
type Tick struct {
	Symbol    string             `json:"symbol"`
	Time      time.Time          `json:"time"`
	Fields    map[string]float64 `json:"fields"`
}

// SubscribeRequest creates a quote subscription (spec.md §6 "/data/subscription").
type SubscribeRequest struct {
	Codes  []string         `json:"codes"`
	Period string           `json:"period"`
	Start  string           `json:"start,omitempty"`
	Adjust AdjustMode       `json:"adjust,omitempty"`
	Kind   SubscriptionKind `json:"kind"`
}

// SubscriptionInfo describes a live subscription (spec.md §3 attributes).
type SubscriptionInfo struct {
	ID           string           `json:"subscription_id"`
	Kind         SubscriptionKind `json:"kind"`
	Codes        []string         `json:"codes"`
	Period       string           `json:"period"`
	Adjust       AdjustMode       `json:"adjust,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	LastActivity time.Time        `json:"last_activity"`
	StreamCount  int              `json:"stream_count"`
	QueueDepth   int              `json:"queue_depth"`
}

// CallbackKind enumerates the trading-callback record kinds (spec.md §3).
type CallbackKind string

const (
	CallbackConnected      CallbackKind = "connected"
	CallbackDisconnected   CallbackKind = "disconnected"
	CallbackAccountStatus  CallbackKind = "account_status"
	CallbackAsset          CallbackKind = "asset"
	CallbackOrder          CallbackKind = "order"
	CallbackTrade          CallbackKind = "trade"
	CallbackPosition       CallbackKind = "position"
	CallbackOrderError     CallbackKind = "order_error"
	CallbackCancelError    CallbackKind = "cancel_error"
	CallbackAsyncOrderAck  CallbackKind = "async_order_ack"
	CallbackAsyncCancelAck CallbackKind = "async_cancel_ack"
)

// CallbackRecord is one immutable trading-callback event (spec.md §3).
type CallbackRecord struct {
	Seq       uint64       `json:"seq"`
	Kind      CallbackKind `json:"kind"`
	AccountID string       `json:"account_id,omitempty"`
	Time      time.Time    `json:"time"`
	AsyncSeq  *int64       `json:"async_seq,omitempty"`
	Payload   any          `json:"payload,omitempty"`
}
