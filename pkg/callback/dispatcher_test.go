package callback

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psychoney/quant-qmt-proxy/pkg/domain"
)

func TestDispatcher_OrderingPerAccount(t *testing.T) {
	d := New(100)
	sub, _ := d.Subscribe("A", 10)

	d.Emit(domain.CallbackRecord{Kind: domain.CallbackOrder, AccountID: "A"})
	d.Emit(domain.CallbackRecord{Kind: domain.CallbackTrade, AccountID: "A"})
	d.Emit(domain.CallbackRecord{Kind: domain.CallbackOrder, AccountID: "A"})
	d.Emit(domain.CallbackRecord{Kind: domain.CallbackTrade, AccountID: "A"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	wantKinds := []domain.CallbackKind{domain.CallbackOrder, domain.CallbackTrade, domain.CallbackOrder, domain.CallbackTrade}
	for _, want := range wantKinds {
		rec, ok := sub.Next(ctx)
		require.True(t, ok)
		assert.Equal(t, want, rec.Kind)
	}
}

func TestDispatcher_AccountFilterExcludesOthers(t *testing.T) {
	d := New(100)
	sub, _ := d.Subscribe("A", 10)

	d.Emit(domain.CallbackRecord{Kind: domain.CallbackOrder, AccountID: "B"})
	d.Emit(domain.CallbackRecord{Kind: domain.CallbackTrade, AccountID: "A"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	rec, ok := sub.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, "A", rec.AccountID)
}

func TestDispatcher_GlobalSubscriberSeesEveryAccount(t *testing.T) {
	d := New(100)
	sub, _ := d.Subscribe("", 10)

	d.Emit(domain.CallbackRecord{Kind: domain.CallbackOrder, AccountID: "A"})
	d.Emit(domain.CallbackRecord{Kind: domain.CallbackOrder, AccountID: "B"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, ok := sub.Next(ctx)
	require.True(t, ok)
	_, ok = sub.Next(ctx)
	require.True(t, ok)
}

func TestDispatcher_ReplayBoundedToTen(t *testing.T) {
	d := New(100)
	for i := 0; i < 25; i++ {
		d.Emit(domain.CallbackRecord{Kind: domain.CallbackAsset, AccountID: "A"})
	}
	_, replayed := d.Subscribe("A", 10)
	assert.LessOrEqual(t, len(replayed), 10)
	assert.LessOrEqual(t, len(replayed), 100)
}

func TestDispatcher_HistoryCapBounds(t *testing.T) {
	d := New(5)
	for i := 0; i < 50; i++ {
		d.Emit(domain.CallbackRecord{Kind: domain.CallbackAsset, AccountID: "A"})
	}
	assert.Equal(t, 5, d.historyLen)
}

func TestDispatcher_UnsubscribeRemovesSubscriber(t *testing.T) {
	d := New(10)
	sub, _ := d.Subscribe("A", 10)
	assert.Equal(t, 1, d.SubscriberCount())
	d.Unsubscribe(sub)
	assert.Equal(t, 0, d.SubscriberCount())
}
