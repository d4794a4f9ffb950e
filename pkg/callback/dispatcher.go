// Package callback implements the trading-callback dispatcher (spec
// component C7): it receives asynchronous events from the vendor core
// on vendor threads and fans them out, ordered per account, to any
// number of streaming subscribers with ring-buffered recent history.
//
// The fan-out shape is grounded on the example pack's event broker
// (a set of subscriber channels guarded by one lock, broadcast under
// RLock); the crucial difference from that broker is that a slow
// subscriber never blocks the vendor thread or the other subscribers:
// delivery uses the drop-oldest bounded queue from pkg/queue instead
// of a best-effort buffered channel, so a full subscriber queue evicts
// its oldest unread record to make room for the newest one.
package callback

import (
	"container/ring"
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/psychoney/quant-qmt-proxy/pkg/domain"
	"github.com/psychoney/quant-qmt-proxy/pkg/log"
	"github.com/psychoney/quant-qmt-proxy/pkg/metrics"
	"github.com/psychoney/quant-qmt-proxy/pkg/queue"
)

const replayLimit = 10

// Dispatcher owns the callback history ring buffer and the live
// subscriber set. It implements vendorcore.TradingEventSink.
type Dispatcher struct {
	mu          sync.Mutex
	nextSeq     uint64
	history     *ring.Ring
	historyLen  int
	historyCap  int
	subscribers map[*Subscriber]struct{}
}

// New builds a Dispatcher retaining historyCap most-recent records.
func New(historyCap int) *Dispatcher {
	if historyCap <= 0 {
		historyCap = 1
	}
	return &Dispatcher{
		history:     ring.New(historyCap),
		historyCap:  historyCap,
		subscribers: make(map[*Subscriber]struct{}),
	}
}

// Subscriber receives callback records matching AccountFilter (empty
// means global: every account).
type Subscriber struct {
	ID            string
	AccountFilter string
	q             *queue.DropOldest[domain.CallbackRecord]
}

// Next blocks until the next callback record is available for this
// subscriber, or ctx ends.
func (s *Subscriber) Next(ctx context.Context) (domain.CallbackRecord, bool) {
	return s.q.Pop(ctx)
}

// QueueDepth reports the subscriber's current unread record count.
func (s *Subscriber) QueueDepth() int { return s.q.Len() }

// Emit is called by vendorcore on a vendor-owned goroutine (spec.md
// §4.7's "vendor thread"). The dispatcher lock is the thread-boundary
// handoff primitive: it serialises every Emit call so that callbacks
// for the same account are appended to subscriber queues in the exact
// order they were received, matching spec.md §8 invariant 6.
func (d *Dispatcher) Emit(rec domain.CallbackRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextSeq++
	rec.Seq = d.nextSeq

	d.history.Value = rec
	d.history = d.history.Next()
	if d.historyLen < d.historyCap {
		d.historyLen++
	}

	metrics.CallbacksDispatchedTotal.WithLabelValues(string(rec.Kind)).Inc()

	for sub := range d.subscribers {
		if sub.AccountFilter != "" && sub.AccountFilter != rec.AccountID {
			continue
		}
		droppedBefore := sub.q.Dropped()
		sub.q.Push(rec)
		if sub.q.Dropped() > droppedBefore {
			log.Logger.Debug().Str("subscriber_id", sub.ID).Msg("callback dispatcher: dropped oldest record for slow subscriber")
			metrics.CallbackFanoutDroppedTotal.WithLabelValues(sub.ID).Inc()
		}
	}
}

// Subscribe registers a new subscriber and returns it along with up to
// replayLimit of the most recent matching history records, oldest
// first, so a reconnecting client sees recent state (spec.md §4.7).
func (d *Dispatcher) Subscribe(accountFilter string, queueCap int) (*Subscriber, []domain.CallbackRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()

	sub := &Subscriber{
		ID:            "cbsub_" + uuid.NewString(),
		AccountFilter: accountFilter,
		q:             queue.NewDropOldest[domain.CallbackRecord](queueCap),
	}
	d.subscribers[sub] = struct{}{}

	matches := make([]domain.CallbackRecord, 0, d.historyLen)
	d.history.Do(func(v any) {
		if v == nil {
			return
		}
		rec := v.(domain.CallbackRecord)
		if accountFilter == "" || accountFilter == rec.AccountID {
			matches = append(matches, rec)
		}
	})
	// ring.Do walks oldest-to-newest starting from the current
	// position, which is already the slot after the most recently
	// written entry, so matches is already oldest-first.
	if len(matches) > replayLimit {
		matches = matches[len(matches)-replayLimit:]
	}
	return sub, matches
}

// Unsubscribe removes a subscriber and releases its queue.
func (d *Dispatcher) Unsubscribe(sub *Subscriber) {
	d.mu.Lock()
	delete(d.subscribers, sub)
	d.mu.Unlock()
	sub.q.Close()
}

// SubscriberCount reports the number of live subscribers, used by
// tests and readiness diagnostics.
func (d *Dispatcher) SubscriberCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subscribers)
}
