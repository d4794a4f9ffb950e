package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/psychoney/quant-qmt-proxy/pkg/apperr"
)

func TestExecute_Success(t *testing.T) {
	p := New(2)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	got, err := Execute(ctx, p, "echo", func(context.Context) (int, error) {
		return 42, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestExecute_TimeoutDiscardsResult(t *testing.T) {
	p := New(1)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	started := make(chan struct{})
	_, err := Execute(ctx, p, "hang", func(context.Context) (int, error) {
		close(started)
		time.Sleep(200 * time.Millisecond)
		return 1, nil
	})

	<-started
	assert.Error(t, err)
	assert.Equal(t, apperr.Timeout, apperr.KindOf(err))
}

func TestExecute_PoolSaturationWaitsRatherThanFailsFast(t *testing.T) {
	p := New(1)
	defer p.Close()

	block := make(chan struct{})
	go func() {
		ctx := context.Background()
		_, _ = Execute(ctx, p, "hold", func(context.Context) (int, error) {
			<-block
			return 0, nil
		})
	}()
	time.Sleep(10 * time.Millisecond) // let the first job claim the only worker

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := Execute(ctx, p, "second", func(context.Context) (int, error) {
		return 0, nil
	})
	// The pool is saturated, so the second call must time out waiting
	// for a worker rather than be rejected outright.
	assert.Error(t, err)
	assert.Equal(t, apperr.Timeout, apperr.KindOf(err))
	close(block)
}
