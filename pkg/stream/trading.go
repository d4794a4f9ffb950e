package stream

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/psychoney/quant-qmt-proxy/pkg/callback"
	"github.com/psychoney/quant-qmt-proxy/pkg/domain"
	"github.com/psychoney/quant-qmt-proxy/pkg/log"
	"github.com/psychoney/quant-qmt-proxy/pkg/metrics"
)

// TradingConfig carries the heartbeat tunables for TradingHandler,
// separate from the quote stream's fixed ping/pong constants. The
// process fills it from the subscription config's heartbeat values;
// TradingHandler reads only HeartbeatInterval (the period of its
// synthetic heartbeat envelope) and QueueCap, not HeartbeatTimeout.
type TradingConfig struct {
	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration
	QueueCap          int
}

// TradingHandler bridges the callback dispatcher (C7) to a WebSocket
// client (spec.md §4.8 "Trading-event stream"). accountFilter is empty
// for a global subscriber or an account ID to scope delivery.
func TradingHandler(d *callback.Dispatcher, cfg TradingConfig) func(w http.ResponseWriter, r *http.Request, accountFilter string) {
	return func(w http.ResponseWriter, r *http.Request, accountFilter string) {
		sub, history := d.Subscribe(accountFilter, cfg.QueueCap)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			d.Unsubscribe(sub)
			return
		}
		metrics.StreamConnectionsActive.WithLabelValues("trading").Inc()
		defer metrics.StreamConnectionsActive.WithLabelValues("trading").Dec()

		logger := log.WithAccountID(accountFilter)
		defer func() {
			d.Unsubscribe(sub)
			_ = conn.Close()
		}()

		ctx := r.Context()
		done := make(chan struct{})
		go tradingReadPump(conn, done)

		_ = writeJSON(conn, Envelope{Type: TypeConnected, Data: map[string]string{"subscriber_id": sub.ID}})
		for _, rec := range history {
			_ = writeJSON(conn, Envelope{Type: TypeHistory, Data: toCallbackPayload(rec)})
		}

		recCh := make(chan any, 1)
		go func() {
			for {
				rec, ok := sub.Next(ctx)
				if !ok {
					close(recCh)
					return
				}
				select {
				case recCh <- rec:
				case <-ctx.Done():
					return
				case <-done:
					return
				}
			}
		}()

		heartbeat := cfg.HeartbeatInterval
		if heartbeat <= 0 {
			heartbeat = 30 * time.Second
		}
		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := writeJSON(conn, Envelope{Type: TypeHeartbeat}); err != nil {
					return
				}
			case rec, ok := <-recCh:
				if !ok {
					return
				}
				payload := toCallbackPayload(rec.(domain.CallbackRecord))
				if err := writeJSON(conn, Envelope{Type: TypeCallback, Data: payload}); err != nil {
					logger.Debug().Err(err).Msg("trading stream: write failed, detaching")
					return
				}
			}
		}
	}
}

func toCallbackPayload(rec domain.CallbackRecord) CallbackPayload {
	return CallbackPayload{
		CallbackType: wireCallbackType(rec.Kind),
		AccountID:    rec.AccountID,
		AsyncSeq:     rec.AsyncSeq,
		Payload:      rec.Payload,
	}
}

// wireCallbackType maps a stored record kind to the push-wire name.
// The async ack kinds are stored with an "_ack" suffix (spec.md §3's
// record-kind enumeration) but the trading-stream wire contract names
// them without it (spec.md §6 / scenario 4's callback_type values).
func wireCallbackType(kind domain.CallbackKind) string {
	switch kind {
	case domain.CallbackAsyncOrderAck:
		return "async_order"
	case domain.CallbackAsyncCancelAck:
		return "async_cancel"
	default:
		return string(kind)
	}
}

func tradingReadPump(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if strings.EqualFold(msg.Type, "ping") {
			_ = writeJSON(conn, Envelope{Type: TypePong})
		}
	}
}
