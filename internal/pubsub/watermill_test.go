package pubsub

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageMapping(t *testing.T) {
	in := Message{
		Topic:    "chat.message.posted",
		UserID:   "ana",
		Payload:  []byte(`{"id":"1"}`),
		Metadata: map[string]string{"trace": "abc"},
	}

	out := mapToPubSubMessage(mapToWatermillMessage(in))
	assert.Equal(t, in, out)
}

func TestWatermillBridge_PublishSubscribe(t *testing.T) {
	bus := NewWatermillBridge(slog.Default(), 16)
	t.Cleanup(func() { _ = bus.Close() })
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	var (
		mu       sync.Mutex
		received []ParticipantEvent
	)
	require.NoError(t, Subscribe(ctx, bus, ParticipantJoined, func(_ context.Context, ev ParticipantEvent) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, ev)
		return nil
	}))

	require.NoError(t, Publish(ctx, bus, ParticipantJoined, "ana", ParticipantEvent{Name: "ana", At: 1}))
	require.NoError(t, Publish(ctx, bus, ParticipantLeft, "bob", ParticipantEvent{Name: "bob", At: 2}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, "ana", received[0].Name)
	mu.Unlock()
}

func TestWatermillBridge_HandlerErrorDoesNotStopDelivery(t *testing.T) {
	bus := NewWatermillBridge(slog.Default(), 16)
	t.Cleanup(func() { _ = bus.Close() })
	ctx := context.Background()

	var mu sync.Mutex
	calls := 0
	require.NoError(t, bus.Subscribe(ctx, "t", func(context.Context, Message) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return errors.New("nope")
	}))

	for range 3 {
		require.NoError(t, bus.Publish(ctx, Message{Topic: "t"}))
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 3
	}, time.Second, 10*time.Millisecond)
}
