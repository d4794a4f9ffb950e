package stream

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/psychoney/quant-qmt-proxy/pkg/log"
	"github.com/psychoney/quant-qmt-proxy/pkg/metrics"
	"github.com/psychoney/quant-qmt-proxy/pkg/subscription"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 90 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The gateway's clients are algorithmic-trading backends, not
	// browsers; there is no same-origin boundary to enforce here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// QuoteHandler bridges one subscription's tick queue to a WebSocket
// client (spec.md §4.8 "Quote stream"). subscriptionID is extracted by
// the caller from the request path.
func QuoteHandler(mgr *subscription.Manager) func(w http.ResponseWriter, r *http.Request, subscriptionID string) {
	return func(w http.ResponseWriter, r *http.Request, subscriptionID string) {
		st, err := mgr.Attach(subscriptionID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			mgr.Detach(st)
			return
		}
		metrics.StreamConnectionsActive.WithLabelValues("quote").Inc()
		defer metrics.StreamConnectionsActive.WithLabelValues("quote").Dec()

		logger := log.WithSubscriptionID(subscriptionID)
		defer func() {
			mgr.Detach(st)
			_ = conn.Close()
		}()

		ctx := r.Context()
		done := make(chan struct{})
		go quoteReadPump(conn, st, done)

		_ = writeJSON(conn, Envelope{Type: TypeConnected, Data: map[string]string{"subscription_id": subscriptionID}})

		tickCh := make(chan any, 1)
		go func() {
			for {
				tick, ok := st.Next(ctx)
				if !ok {
					close(tickCh)
					return
				}
				select {
				case tickCh <- tick:
				case <-ctx.Done():
					return
				case <-done:
					return
				}
			}
		}()

		heartbeatTimeout := mgr.HeartbeatTimeout()

		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if heartbeatTimeout > 0 && st.Stale(heartbeatTimeout) {
					logger.Debug().Msg("quote stream: heartbeat budget exceeded, evicting")
					return
				}
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case tick, ok := <-tickCh:
				if !ok {
					return
				}
				if err := writeJSON(conn, Envelope{Type: TypeQuote, Data: tick}); err != nil {
					logger.Debug().Err(err).Msg("quote stream: write failed, detaching")
					return
				}
			}
		}
	}
}

func quoteReadPump(conn *websocket.Conn, st *subscription.Stream, done chan struct{}) {
	defer close(done)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		st.Touch()
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if strings.EqualFold(msg.Type, "ping") {
			st.Touch()
			_ = writeJSON(conn, Envelope{Type: TypePong})
		}
	}
}

func writeJSON(conn *websocket.Conn, env Envelope) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(env)
}
