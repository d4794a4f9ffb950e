package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psychoney/quant-qmt-proxy/pkg/apperr"
	"github.com/psychoney/quant-qmt-proxy/pkg/callback"
	"github.com/psychoney/quant-qmt-proxy/pkg/domain"
	"github.com/psychoney/quant-qmt-proxy/pkg/executor"
	"github.com/psychoney/quant-qmt-proxy/pkg/vendorcore"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	pool := executor.New(4)
	t.Cleanup(pool.Close)
	dispatcher := callback.New(100)
	return New(vendorcore.NewSim(), pool, "/tmp/qmt-userdata", dispatcher)
}

func TestRegistry_ConnectDisconnectRoundTrip(t *testing.T) {
	r := newTestRegistry(t)
	before := r.Len()

	sess, acct, err := r.Connect(context.Background(), domain.ConnectRequest{AccountID: "test-account"})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "test-account", acct.AccountID)
	assert.Equal(t, before+1, r.Len())

	ok, err := r.Disconnect(sess.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, before, r.Len())
}

func TestRegistry_DisconnectIsIdempotent(t *testing.T) {
	r := newTestRegistry(t)
	sess, _, err := r.Connect(context.Background(), domain.ConnectRequest{AccountID: "test-account"})
	require.NoError(t, err)

	ok, err := r.Disconnect(sess.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Disconnect(sess.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistry_GetUnknownSessionFails(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Get("nonexistent")
	require.Error(t, err)
	assert.Equal(t, apperr.SessionNotFound, apperr.KindOf(err))
}
