// Package auth implements the gateway's bearer-key allow-list. Keys are
// loaded from config at startup (spec.md §7: a fixed set of pre-shared
// keys, no issuance or expiry) and checked on every HTTP and gRPC call.
//
// The map+mutex shape is grounded on the example pack's cluster join
// token manager, simplified from a mutable issue/revoke/expire registry
// down to a config-loaded set: there is no per-key issue, revoke or
// expiry, and Reload can only replace the whole set at once.
package auth

import (
	"sync"

	"github.com/psychoney/quant-qmt-proxy/pkg/apperr"
)

// Allowlist holds the set of bearer keys permitted to call the gateway.
type Allowlist struct {
	mu   sync.RWMutex
	keys map[string]struct{}
}

// New builds an Allowlist from a fixed set of keys. An empty set
// disables authentication entirely (spec.md §6: "empty allow-list
// disables authentication") — every key, including no key at all, is
// accepted.
func New(keys []string) *Allowlist {
	a := &Allowlist{keys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		if k != "" {
			a.keys[k] = struct{}{}
		}
	}
	return a
}

// Check validates a bearer key, returning an Unauthenticated apperr on
// failure. An Allowlist built from zero keys always passes.
func (a *Allowlist) Check(key string) error {
	a.mu.RLock()
	n := len(a.keys)
	_, ok := a.keys[key]
	a.mu.RUnlock()
	if n == 0 {
		return nil
	}
	if key == "" {
		return apperr.New(apperr.Unauthenticated, "missing bearer credential")
	}
	if !ok {
		return apperr.New(apperr.Unauthenticated, "unrecognized bearer credential")
	}
	return nil
}

// Reload atomically replaces the key set. Nothing in the gateway calls
// it at runtime; the process does not reload its config.
func (a *Allowlist) Reload(keys []string) {
	next := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k != "" {
			next[k] = struct{}{}
		}
	}
	a.mu.Lock()
	a.keys = next
	a.mu.Unlock()
}
