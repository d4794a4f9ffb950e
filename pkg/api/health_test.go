package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psychoney/quant-qmt-proxy/pkg/metrics"
)

// These exercise the health/ready/live/metrics routes NewServer wires
// directly onto pkg/metrics's handlers (server.go), not a dedicated
// health server type.

func TestServer_Health(t *testing.T) {
	s := newTestServer(t, nil)
	rec := doJSON(t, s.mux, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp metrics.HealthStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp.Status)
}

func TestServer_Live(t *testing.T) {
	s := newTestServer(t, nil)
	rec := doJSON(t, s.mux, http.MethodGet, "/health/live", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "alive", body["status"])
}

func TestServer_Ready(t *testing.T) {
	s := newTestServer(t, nil)
	rec := doJSON(t, s.mux, http.MethodGet, "/health/ready", "", nil)

	// newTestServer never calls Start, so "api" is never registered and
	// readiness must report not_ready until it is.
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp metrics.HealthStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "not_ready", resp.Status)

	metrics.RegisterComponent("vendorcore", true, "")
	metrics.RegisterComponent("api", true, "")
	rec = doJSON(t, s.mux, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_Metrics(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
