// Package stream implements the stream endpoint adapters (spec
// component C8): the WebSocket bridges between the subscription
// manager (C6) / trading-callback dispatcher (C7) and push transports.
//
// Grounded on the example pack's gorilla/websocket exemplars for the
// upgrade + read-pump/write-pump shape (ping/pong, deadline resets);
// none of those are server-side handlers (they all dial out to an
// exchange), so the upgrader side follows gorilla/websocket's own
// documented idiom.
package stream

// Envelope is the push-surface message shape (spec.md §6). Quote and
// trading streams share it; Type discriminates the payload.
type Envelope struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

const (
	TypeConnected = "connected"
	TypeQuote     = "quote"
	TypeHistory   = "history"
	TypeCallback  = "callback"
	TypePong      = "pong"
	TypeError     = "error"
	TypeHeartbeat = "heartbeat"
)

// CallbackPayload wraps a dispatcher record for the trading stream's
// "callback" envelope (spec.md §6: callback.data.callback_type).
type CallbackPayload struct {
	CallbackType string `json:"callback_type"`
	AccountID    string `json:"account_id,omitempty"`
	AsyncSeq     *int64 `json:"async_seq,omitempty"`
	Payload      any    `json:"payload,omitempty"`
}

// clientMessage is the only inbound message shape the adapters
// understand (spec.md §4.8: "only ping is understood").
type clientMessage struct {
	Type string `json:"type"`
}
