package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/psychoney/quant-qmt-proxy/pkg/apperr"
)

func TestAllowlist_Check(t *testing.T) {
	a := New([]string{"key-a", "key-b"})

	assert.NoError(t, a.Check("key-a"))
	assert.NoError(t, a.Check("key-b"))

	err := a.Check("key-c")
	assert.Error(t, err)
	assert.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))

	err = a.Check("")
	assert.Error(t, err)
	assert.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))
}

func TestAllowlist_EmptyDisablesAuthentication(t *testing.T) {
	a := New(nil)
	assert.NoError(t, a.Check("anything"))
	assert.NoError(t, a.Check(""))
}

func TestAllowlist_Reload(t *testing.T) {
	a := New([]string{"old"})
	assert.NoError(t, a.Check("old"))

	a.Reload([]string{"new"})
	assert.Error(t, a.Check("old"))
	assert.NoError(t, a.Check("new"))
}
