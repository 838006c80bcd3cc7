package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisherAndWorker(t *testing.T) {
	inbox := make(chan Event, 8)
	store := NewMemoryStore(8)
	worker := NewWorker(store, inbox)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	pub := NewPublisher(inbox)
	err := pub.Emit(ctx, Event{AttemptID: uuid.New(), Operation: "login", Outcome: "matched"})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		events, err := store.ListRecent(ctx, 10)
		return err == nil && len(events) == 1
	}, time.Second, 10*time.Millisecond)

	events, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, events[0].ID, "publisher assigns an event ID")
	assert.False(t, events[0].Timestamp.IsZero())

	cancel()
	<-done
}

func TestPublisher_FullInboxDrops(t *testing.T) {
	inbox := make(chan Event, 1)
	pub := NewPublisher(inbox)

	require.NoError(t, pub.Emit(context.Background(), Event{Outcome: "matched"}))
	// No worker draining; the second emit must not block.
	require.NoError(t, pub.Emit(context.Background(), Event{Outcome: "not_matched"}))
	assert.Len(t, inbox, 1)
}

func TestMemoryStore_Bounded(t *testing.T) {
	store := NewMemoryStore(2)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, Event{Reason: string(rune('a' + i))}))
	}
	events, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "d", events[0].Reason)
	assert.Equal(t, "e", events[1].Reason)
}
