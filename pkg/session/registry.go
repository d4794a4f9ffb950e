// Package session implements the trading session registry (spec
// component C3): the per-connected-account state the trading service
// (pkg/trading) owns exclusively, created by connect's seven-step
// sequence and torn down idempotently by disconnect.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/psychoney/quant-qmt-proxy/pkg/apperr"
	"github.com/psychoney/quant-qmt-proxy/pkg/domain"
	"github.com/psychoney/quant-qmt-proxy/pkg/executor"
	"github.com/psychoney/quant-qmt-proxy/pkg/vendorcore"
)

// Session is one connected account's state (spec.md §3).
type Session struct {
	ID        string
	AccountID string
	Handle    vendorcore.ClientHandle
	Connected time.Time

	mu          sync.RWMutex
	lastAsset   domain.AssetInfo
	lastUpdated time.Time
}

// LastAsset returns the asset snapshot stashed at connect time or the
// most recent get_asset call (pkg/trading updates it).
func (s *Session) LastAsset() domain.AssetInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAsset
}

// SetLastAsset stashes the most recent asset snapshot.
func (s *Session) SetLastAsset(a domain.AssetInfo) {
	s.mu.Lock()
	s.lastAsset = a
	s.lastUpdated = time.Now()
	s.mu.Unlock()
}

// Registry maps session identifiers to Session records.
type Registry struct {
	core             vendorcore.Core
	pool             *executor.Pool
	qmtUserDataPath  string
	sink             vendorcore.TradingEventSink

	mu       sync.RWMutex
	sessions map[string]*Session
}

func New(core vendorcore.Core, pool *executor.Pool, qmtUserDataPath string, sink vendorcore.TradingEventSink) *Registry {
	return &Registry{
		core:            core,
		pool:            pool,
		qmtUserDataPath: qmtUserDataPath,
		sink:            sink,
		sessions:        make(map[string]*Session),
	}
}

// Connect performs spec.md §4.3's seven-step connect sequence. Any
// failure unwinds everything allocated so far.
func (r *Registry) Connect(ctx context.Context, req domain.ConnectRequest) (*Session, domain.AccountInfo, error) {
	// Step 1: allocate a session identifier from account + time.
	sessionID := fmt.Sprintf("sess_%s_%d_%s", req.AccountID, time.Now().UnixNano(), uuid.NewString()[:8])

	// Step 2: instantiate a vendor client handle bound to the QMT path.
	handle, err := executor.Execute(ctx, r.pool, "new_client_handle", func(ctx context.Context) (vendorcore.ClientHandle, error) {
		return r.core.NewClientHandle(ctx, r.qmtUserDataPath, req.AccountID)
	})
	if err != nil {
		return nil, domain.AccountInfo{}, err
	}

	// Step 3: register the callback dispatcher as the vendor callback receiver.
	if err := handle.RegisterCallbackReceiver(r.sink); err != nil {
		_ = handle.Stop()
		return nil, domain.AccountInfo{}, apperr.New(apperr.UpstreamUnavailable, "failed to register callback receiver: "+err.Error())
	}

	// Step 4: start the vendor's I/O thread.
	if err := handle.StartIOThread(); err != nil {
		_ = handle.Stop()
		return nil, domain.AccountInfo{}, apperr.New(apperr.UpstreamUnavailable, "failed to start vendor I/O thread: "+err.Error())
	}

	// Step 5: blocking connect.
	_, err = executor.Execute(ctx, r.pool, "connect", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, handle.Connect(ctx)
	})
	if err != nil {
		_ = handle.Stop()
		return nil, domain.AccountInfo{}, apperr.New(apperr.UpstreamUnavailable, "vendor connect failed: "+err.Error())
	}

	// Step 6: subscribe the account for trading callbacks.
	_, err = executor.Execute(ctx, r.pool, "subscribe_account", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, handle.SubscribeAccount(ctx, req.AccountID)
	})
	if err != nil {
		_ = handle.Stop()
		return nil, domain.AccountInfo{}, apperr.New(apperr.UpstreamUnavailable, "account subscribe failed: "+err.Error())
	}

	// Step 7: initial asset query to confirm authentication.
	asset, err := executor.Execute(ctx, r.pool, "query_asset", func(ctx context.Context) (domain.AssetInfo, error) {
		return handle.QueryAsset(ctx, req.AccountID)
	})
	if err != nil {
		_ = handle.Stop()
		return nil, domain.AccountInfo{}, err
	}

	sess := &Session{
		ID:        sessionID,
		AccountID: req.AccountID,
		Handle:    handle,
		Connected: time.Now(),
	}
	sess.SetLastAsset(asset)

	r.mu.Lock()
	r.sessions[sessionID] = sess
	r.mu.Unlock()

	acct := domain.AccountInfo{
		AccountID:        req.AccountID,
		AccountType:      domain.AccountSecurity,
		Status:           "CONNECTED",
		Balance:          asset.Cash,
		AvailableBalance: asset.AvailableCash,
		FrozenBalance:    asset.FrozenCash,
		MarketValue:      asset.MarketValue,
		TotalAsset:       asset.TotalAsset,
	}
	return sess, acct, nil
}

// Disconnect tears a session down in reverse order. Idempotent: a
// second disconnect for the same id returns ok=false, err=nil.
func (r *Registry) Disconnect(id string) (ok bool, err error) {
	r.mu.Lock()
	sess, found := r.sessions[id]
	if found {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if !found {
		return false, nil
	}
	if stopErr := sess.Handle.Stop(); stopErr != nil {
		return true, apperr.New(apperr.Internal, "vendor handle teardown failed: "+stopErr.Error())
	}
	return true, nil
}

// Get looks up a session by id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	sess, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, apperr.New(apperr.SessionNotFound, "session not found: "+id)
	}
	return sess, nil
}

// Len reports the number of live sessions (used by tests asserting
// the registry returns to its pre-connect size on disconnect).
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
