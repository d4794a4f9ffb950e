package mode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuard_Check(t *testing.T) {
	tests := []struct {
		name       string
		mode       Mode
		kind       OpKind
		wantOut    Outcome
		wantForced bool
	}{
		{"sim read", Sim, Read, Simulate, true},
		{"sim mutate", Sim, Mutate, Simulate, true},
		{"live_ro read", LiveRO, Read, Allow, false},
		{"live_ro mutate", LiveRO, Mutate, Simulate, true},
		{"live_rw read", LiveRW, Read, Allow, false},
		{"live_rw mutate", LiveRW, Mutate, Allow, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGuard(tt.mode)
			d := g.Check(tt.kind)
			assert.Equal(t, tt.wantOut, d.Outcome)
			assert.Equal(t, tt.wantForced, d.ModeForced)
		})
	}
}

func TestParse(t *testing.T) {
	for _, raw := range []string{"sim", "live_ro", "live_rw"} {
		m, err := Parse(raw)
		assert.NoError(t, err)
		assert.Equal(t, Mode(raw), m)
	}

	_, err := Parse("bogus")
	assert.Error(t, err)
}
