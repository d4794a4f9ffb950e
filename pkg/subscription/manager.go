// Package subscription implements the quote-subscription multiplexer
// (spec component C6): one vendor-side registration per subscription,
// fanned out to any number of attached client streams, each with its
// own bounded drop-oldest queue so a slow client never slows down a
// fast one or the vendor tick producer.
//
// Grounded on the same event-broker shape as pkg/callback, but with a
// subscription-keyed registry (spec.md §3's "mapping from subscription
// identifier to subscription record") instead of a single global
// subscriber set, and a heartbeat timestamp per stream (spec.md §4.6):
// the manager records it (Touch) and reports staleness (Stale); the
// periodic check that closes a stale client lives in pkg/stream.
package subscription

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/psychoney/quant-qmt-proxy/pkg/apperr"
	"github.com/psychoney/quant-qmt-proxy/pkg/domain"
	"github.com/psychoney/quant-qmt-proxy/pkg/log"
	"github.com/psychoney/quant-qmt-proxy/pkg/metrics"
	"github.com/psychoney/quant-qmt-proxy/pkg/queue"
	"github.com/psychoney/quant-qmt-proxy/pkg/vendorcore"
)

// Config holds the subscription manager's tunables (spec.md §4.6, §6.1).
type Config struct {
	MaxQueue           int
	MaxStreamsPerSub   int
	HeartbeatInterval  time.Duration
	HeartbeatTimeout   time.Duration
	WholeMarketEnabled bool
}

// Manager owns the subscription registry.
type Manager struct {
	cfg  Config
	feed vendorcore.QuoteFeed

	mu   sync.Mutex
	subs map[string]*subscription
}

func New(cfg Config, feed vendorcore.QuoteFeed) *Manager {
	return &Manager{cfg: cfg, feed: feed, subs: make(map[string]*subscription)}
}

// HeartbeatTimeout returns the configured client heartbeat budget, for
// stream adapters to check attached Streams against via Stale.
func (m *Manager) HeartbeatTimeout() time.Duration {
	return m.cfg.HeartbeatTimeout
}

type subscription struct {
	info        domain.SubscriptionInfo
	unsubscribe func() error

	mu      sync.Mutex
	streams map[*Stream]struct{}
}

// Stream is one attached client consumer of a subscription's ticks.
type Stream struct {
	ID  string
	sub *subscription
	q   *queue.DropOldest[domain.Tick]

	mu            sync.Mutex
	lastHeartbeat time.Time
}

// Subscribe registers a new vendor-side subscription per req.Kind.
func (m *Manager) Subscribe(ctx context.Context, req domain.SubscribeRequest) (domain.SubscriptionInfo, error) {
	if req.Kind == domain.WholeMarket && !m.cfg.WholeMarketEnabled {
		return domain.SubscriptionInfo{}, apperr.New(apperr.ModeRefused, "whole-market subscriptions are disabled by configuration")
	}

	id := "sub_" + uuid.NewString()
	sub := &subscription{
		info: domain.SubscriptionInfo{
			ID: id, Kind: req.Kind, Codes: req.Codes, Period: req.Period,
			Adjust: req.Adjust, CreatedAt: time.Now(), LastActivity: time.Now(),
		},
		streams: make(map[*Stream]struct{}),
	}

	onTick := func(t domain.Tick) {
		sub.mu.Lock()
		sub.info.LastActivity = time.Now()
		streams := make([]*Stream, 0, len(sub.streams))
		for s := range sub.streams {
			streams = append(streams, s)
		}
		sub.mu.Unlock()
		for _, s := range streams {
			before := s.q.Dropped()
			s.q.Push(t)
			if s.q.Dropped() > before {
				metrics.SubscriptionTicksDroppedTotal.WithLabelValues(id).Inc()
			}
			metrics.SubscriptionQueueDepth.WithLabelValues(s.ID).Set(float64(s.q.Len()))
		}
	}

	var unsub func() error
	var err error
	if req.Kind == domain.WholeMarket {
		unsub, err = m.feed.SubscribeWholeMarket(ctx, onTick)
	} else {
		unsub, err = m.feed.SubscribePerSymbol(ctx, req.Codes, req.Period, req.Adjust, onTick)
	}
	if err != nil {
		return domain.SubscriptionInfo{}, err
	}
	sub.unsubscribe = unsub

	m.mu.Lock()
	m.subs[id] = sub
	m.mu.Unlock()

	metrics.SubscriptionsActive.WithLabelValues(string(req.Kind)).Inc()
	return sub.info, nil
}

// Unsubscribe tears a subscription down: unregisters at the vendor and
// signals every attached stream to terminate.
func (m *Manager) Unsubscribe(id string) error {
	m.mu.Lock()
	sub, ok := m.subs[id]
	if ok {
		delete(m.subs, id)
	}
	m.mu.Unlock()
	if !ok {
		return apperr.New(apperr.SessionNotFound, "subscription not found: "+id)
	}

	if err := sub.unsubscribe(); err != nil {
		log.Logger.Warn().Str("subscription_id", id).Err(err).Msg("subscription: vendor unsubscribe failed")
	}

	sub.mu.Lock()
	for s := range sub.streams {
		s.q.Close()
	}
	sub.mu.Unlock()

	metrics.SubscriptionsActive.WithLabelValues(string(sub.info.Kind)).Dec()
	return nil
}

// Info returns a snapshot of one subscription's state.
func (m *Manager) Info(id string) (domain.SubscriptionInfo, error) {
	m.mu.Lock()
	sub, ok := m.subs[id]
	m.mu.Unlock()
	if !ok {
		return domain.SubscriptionInfo{}, apperr.New(apperr.SessionNotFound, "subscription not found: "+id)
	}
	sub.mu.Lock()
	defer sub.mu.Unlock()
	info := sub.info
	info.StreamCount = len(sub.streams)
	return info, nil
}

// List returns a snapshot of every live subscription.
func (m *Manager) List() []domain.SubscriptionInfo {
	m.mu.Lock()
	subs := make([]*subscription, 0, len(m.subs))
	for _, s := range m.subs {
		subs = append(subs, s)
	}
	m.mu.Unlock()

	out := make([]domain.SubscriptionInfo, 0, len(subs))
	for _, s := range subs {
		s.mu.Lock()
		info := s.info
		info.StreamCount = len(s.streams)
		out = append(out, info)
		s.mu.Unlock()
	}
	return out
}

// Attach creates a new client stream on subscription id. Fails with
// invalid-argument if the subscription is already at MaxStreamsPerSub.
func (m *Manager) Attach(id string) (*Stream, error) {
	m.mu.Lock()
	sub, ok := m.subs[id]
	m.mu.Unlock()
	if !ok {
		return nil, apperr.New(apperr.SessionNotFound, "subscription not found: "+id)
	}

	sub.mu.Lock()
	defer sub.mu.Unlock()
	if len(sub.streams) >= m.cfg.MaxStreamsPerSub {
		return nil, apperr.New(apperr.InvalidArgument, "subscription has reached its maximum attached stream count")
	}

	s := &Stream{
		ID:            "strm_" + uuid.NewString(),
		sub:           sub,
		q:             queue.NewDropOldest[domain.Tick](m.cfg.MaxQueue),
		lastHeartbeat: time.Now(),
	}
	sub.streams[s] = struct{}{}
	return s, nil
}

// Detach removes a stream from its subscription. Safe to call more
// than once.
func (m *Manager) Detach(s *Stream) {
	s.sub.mu.Lock()
	delete(s.sub.streams, s)
	s.sub.mu.Unlock()
	s.q.Close()
}

// Next blocks until a tick is available for this stream, ctx ends, or
// the stream is detached/closed.
func (s *Stream) Next(ctx context.Context) (domain.Tick, bool) {
	return s.q.Pop(ctx)
}

// Touch records that a heartbeat (ping) was received from the client.
func (s *Stream) Touch() {
	s.mu.Lock()
	s.lastHeartbeat = time.Now()
	s.mu.Unlock()
}

// Stale reports whether this stream has missed its heartbeat budget.
func (s *Stream) Stale(timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastHeartbeat) > timeout
}
