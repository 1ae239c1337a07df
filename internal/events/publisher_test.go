package events

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namegate/pkg/domain"
	"namegate/pkg/requestcontext"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestPublisher_AppendsToStoreInEmissionOrder(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store, discardLogger())
	defer pub.Close()

	ctx := context.Background()
	controller := domain.AccountID(uuid.New())

	require.NoError(t, pub.Emit(ctx, Event{Type: TypeDomainRegistered, Name: "org", Controller: controller}))
	require.NoError(t, pub.Emit(ctx, Event{Type: TypeRewardDistributed, Name: "org", Controller: controller, Amount: 5}))
	require.NoError(t, pub.Emit(ctx, Event{Type: TypeFeeChanged, Amount: 200}))

	all, err := pub.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, e := range all {
		assert.Equal(t, uint64(i+1), e.Sequence)
		assert.NotEqual(t, uuid.Nil, e.ID)
		assert.False(t, e.At.IsZero())
	}
}

func TestPublisher_FilteredReads(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store, discardLogger())
	defer pub.Close()

	ctx := context.Background()
	alice := domain.AccountID(uuid.New())
	bob := domain.AccountID(uuid.New())

	require.NoError(t, pub.Emit(ctx, Event{Type: TypeDomainRegistered, Name: "org", Controller: alice}))
	require.NoError(t, pub.Emit(ctx, Event{Type: TypeDomainRegistered, Name: "test.org", Controller: bob}))
	require.NoError(t, pub.Emit(ctx, Event{Type: TypeRewardDistributed, Name: "org", Controller: alice, Amount: 5}))

	byType, err := pub.List(ctx, Filter{Type: TypeDomainRegistered})
	require.NoError(t, err)
	require.Len(t, byType, 2)

	byController, err := pub.List(ctx, Filter{Controller: alice})
	require.NoError(t, err)
	require.Len(t, byController, 2)

	byName, err := pub.List(ctx, Filter{Name: "org", Type: TypeRewardDistributed})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, uint64(5), byName[0].Amount)
}

func TestPublisher_UsesRequestTime(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store, discardLogger())
	defer pub.Close()

	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), fixed)

	require.NoError(t, pub.Emit(ctx, Event{Type: TypeFeeChanged, Amount: 10}))

	all, err := pub.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, fixed, all[0].At)
}

type captureFanout struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureFanout) Publish(_ context.Context, event Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *captureFanout) Close() {}

func (c *captureFanout) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestPublisher_FanoutDrainsOnClose(t *testing.T) {
	store := NewInMemoryStore()
	fanout := &captureFanout{}
	pub := NewPublisher(store, discardLogger(), WithFanout(fanout), WithBuffer(100))

	ctx := context.Background()
	for range 10 {
		require.NoError(t, pub.Emit(ctx, Event{Type: TypeDomainRegistered, Name: "org"}))
	}

	pub.Close()

	assert.Equal(t, 10, fanout.count(), "all buffered events should be delivered on close")
}
