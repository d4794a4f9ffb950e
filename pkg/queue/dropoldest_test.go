package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDropOldest_PushPop(t *testing.T) {
	q := NewDropOldest[int](3)
	q.Push(1)
	q.Push(2)

	ctx := context.Background()
	v, ok := q.Pop(ctx)
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = q.Pop(ctx)
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestDropOldest_EvictsOldestWhenFull(t *testing.T) {
	q := NewDropOldest[int](2)
	q.Push(1)
	q.Push(2)
	q.Push(3) // evicts 1

	assert.Equal(t, 2, q.Len())
	assert.Equal(t, uint64(1), q.Dropped())

	ctx := context.Background()
	v, _ := q.Pop(ctx)
	assert.Equal(t, 2, v)
	v, _ = q.Pop(ctx)
	assert.Equal(t, 3, v)
}

func TestDropOldest_NeverExceedsCapUnderFlood(t *testing.T) {
	q := NewDropOldest[int](5)
	for i := 0; i < 2000; i++ {
		q.Push(i)
	}
	assert.LessOrEqual(t, q.Len(), 5)
	assert.GreaterOrEqual(t, q.Dropped(), uint64(1995))
}

func TestDropOldest_PopBlocksThenUnblocksOnPush(t *testing.T) {
	q := NewDropOldest[int](2)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan int, 1)
	go func() {
		v, ok := q.Pop(ctx)
		if ok {
			done <- v
		}
	}()

	time.Sleep(10 * time.Millisecond)
	q.Push(42)

	select {
	case v := <-done:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("Pop never unblocked")
	}
}

func TestDropOldest_CloseUnblocksPop(t *testing.T) {
	q := NewDropOldest[int](2)
	ctx := context.Background()

	done := make(chan bool, 1)
	go func() {
		_, ok := q.Pop(ctx)
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Pop never unblocked on Close")
	}
}

func TestDropOldest_PushAfterCloseIsNoop(t *testing.T) {
	q := NewDropOldest[int](2)
	q.Close()
	q.Push(1)
	assert.Equal(t, 0, q.Len())
}
