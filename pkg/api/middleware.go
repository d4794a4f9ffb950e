package api

import (
	"net/http"
	"strings"

	"github.com/psychoney/quant-qmt-proxy/pkg/auth"
)

// withAuth enforces the "Authorization: Bearer <key>" allow-list check
// (spec.md §6) in front of h. An empty allow-list (auth.New(nil))
// disables authentication: Allowlist.Check never rejects in that case.
func withAuth(allow *auth.Allowlist, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if err := allow.Check(key); err != nil {
			writeError(w, err)
			return
		}
		h(w, r)
	}
}

func requireAuth(allow *auth.Allowlist) func(http.HandlerFunc) http.HandlerFunc {
	return func(h http.HandlerFunc) http.HandlerFunc {
		return withAuth(allow, h)
	}
}
