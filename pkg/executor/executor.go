// Package executor implements the blocking-call executor (spec
// component C1): a fixed-size worker pool that runs vendor-core calls
// off the request-serving goroutine, with a per-call deadline and
// cancellation that only ever affects the *caller's* wait, never the
// in-flight vendor call itself (the vendor SDK is not cancel-safe).
//
// The pool pattern is grounded on the example pack's job-queue worker
// pool (priority queues collapse to a single FIFO job channel here,
// since every job is the same kind of work: one vendor call).
package executor

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/psychoney/quant-qmt-proxy/pkg/apperr"
	"github.com/psychoney/quant-qmt-proxy/pkg/log"
)

// Pool is a fixed-size worker pool for blocking vendor calls.
type Pool struct {
	jobs chan job
	wg   sync.WaitGroup

	closeOnce sync.Once
	closed    chan struct{}
}

type job struct {
	method string
	run    func()
}

// New starts a Pool with n workers. n must be positive; the caller
// (pkg/config) is responsible for defaulting it.
func New(n int) *Pool {
	if n <= 0 {
		n = 1
	}
	p := &Pool{
		jobs:   make(chan job),
		closed: make(chan struct{}),
	}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go p.runWorker()
	}
	return p
}

func (p *Pool) runWorker() {
	defer p.wg.Done()
	for {
		select {
		case j, ok := <-p.jobs:
			if !ok {
				return
			}
			j.run()
		case <-p.closed:
			return
		}
	}
}

// Execute submits fn to a free worker and waits for either fn to
// return, or ctx to be done. On timeout/cancellation, Execute returns
// an apperr.Timeout error immediately; fn keeps running on its worker
// and its eventual result (held in a buffered channel) is discarded —
// that worker is unavailable to the pool until fn returns, by design:
// spec.md §4.1 requires that a saturated pool wait rather than fail
// fast, since the vendor SDK cannot be retried idempotently.
func Execute[T any](ctx context.Context, p *Pool, method string, fn func(ctx context.Context) (T, error)) (T, error) {
	done := make(chan result[T], 1)

	j := job{
		method: method,
		run: func() {
			v, err := fn(ctx)
			done <- result[T]{v, err}
		},
	}

	select {
	case p.jobs <- j:
	case <-p.closed:
		var zero T
		return zero, apperr.New(apperr.Internal, "executor: pool closed")
	case <-ctx.Done():
		log.Logger.Warn().Str("method", method).Msg("executor: call timed out waiting for a free worker")
		timeoutsTotal.WithLabelValues(method).Inc()
		var zero T
		return zero, apperr.New(apperr.Timeout, "deadline exceeded for "+method)
	}

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		log.Logger.Warn().Str("method", method).Msg("executor: call timed out, worker result discarded")
		timeoutsTotal.WithLabelValues(method).Inc()
		var zero T
		return zero, apperr.New(apperr.Timeout, "deadline exceeded for "+method)
	}
}

type result[T any] struct {
	v   T
	err error
}

// Close stops accepting new work. In-flight jobs are left to finish on
// their own; Close does not wait for them (spec.md §5 shutdown:
// "drains outstanding worker jobs with a bounded wait" is the caller's
// responsibility; Wait itself takes no deadline and blocks until every
// worker has exited).
func (p *Pool) Close() {
	p.closeOnce.Do(func() { close(p.closed) })
}

// Wait blocks until every worker has exited (only happens after Close).
func (p *Pool) Wait() {
	p.wg.Wait()
}

var timeoutsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "qmtproxy_executor_timeouts_total",
		Help: "Total number of blocking-call executor timeouts by method.",
	},
	[]string{"method"},
)

func init() {
	prometheus.MustRegister(timeoutsTotal)
}
