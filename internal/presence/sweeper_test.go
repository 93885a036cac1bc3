package presence

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/nfrund/batepapo/internal/clock"
	"github.com/nfrund/batepapo/internal/database/memory"
	"github.com/nfrund/batepapo/internal/domain"
	"github.com/nfrund/batepapo/internal/domain/mocks"
	"github.com/nfrund/batepapo/internal/pubsub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// mockPublisher implements pubsub.Publisher for testing
type mockPublisher struct {
	messages []pubsub.Message
	mu       sync.Mutex
	err      error
}

func (m *mockPublisher) Publish(ctx context.Context, msg pubsub.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return m.err
}

func (m *mockPublisher) Close() error {
	return nil
}

func (m *mockPublisher) getMessages() []pubsub.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]pubsub.Message, len(m.messages))
	copy(result, m.messages)
	return result
}

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	clock        *clock.Fake
	participants *memory.ParticipantStore
	messages     *memory.MessageStore
	publisher    *mockPublisher
	sweeper      *Sweeper
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		clock:        clock.NewFake(t0),
		participants: memory.NewParticipantStore(),
		messages:     memory.NewMessageStore(),
		publisher:    &mockPublisher{},
	}
	f.sweeper = NewSweeper(f.participants, f.messages, f.publisher,
		WithClock(f.clock),
		WithInterval(15*time.Second),
		WithIdleTimeout(10*time.Second),
	)
	t.Cleanup(f.sweeper.Shutdown)
	return f
}

func (f *fixture) departures(t *testing.T) []domain.Message {
	t.Helper()
	all, err := f.messages.VisibleTo(context.Background(), "observer")
	require.NoError(t, err)
	var out []domain.Message
	for _, m := range all {
		if m.Type == domain.TypeStatus && m.Text == domain.LeaveText {
			out = append(out, m)
		}
	}
	return out
}

func TestSweeper_HeartbeatsKeepParticipantAlive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.participants.Join(ctx, "ana", t0)
	require.NoError(t, err)

	for elapsed := 5 * time.Second; elapsed <= 30*time.Second; elapsed += 5 * time.Second {
		now := f.clock.Advance(5 * time.Second)
		require.NoError(t, f.participants.Heartbeat(ctx, "ana", now))
		if elapsed%(15*time.Second) == 0 {
			evicted, err := f.sweeper.RunOnce(ctx)
			require.NoError(t, err)
			assert.Empty(t, evicted, "ana heartbeated within the timeout at %s", elapsed)
		}
	}

	_, err = f.participants.Get(ctx, "ana")
	assert.NoError(t, err)
	assert.Empty(t, f.departures(t))
}

func TestSweeper_EvictsSilentParticipant(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.participants.Join(ctx, "bob", t0)
	require.NoError(t, err)

	f.clock.Advance(16 * time.Second)
	evicted, err := f.sweeper.RunOnce(ctx)
	require.NoError(t, err)
	require.Len(t, evicted, 1)
	assert.Equal(t, "bob", evicted[0].Name)

	departures := f.departures(t)
	require.Len(t, departures, 1)
	assert.Equal(t, "bob", departures[0].From)
	assert.Equal(t, domain.Broadcast, departures[0].To)
	assert.Equal(t, "09:00:16", departures[0].Time)

	msgs := f.publisher.getMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, pubsub.ParticipantLeft.Name(), msgs[0].Topic)
	var ev pubsub.ParticipantEvent
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &ev))
	assert.Equal(t, "bob", ev.Name)

	// later sweeps do not announce bob again
	f.clock.Advance(15 * time.Second)
	evicted, err = f.sweeper.RunOnce(ctx)
	require.NoError(t, err)
	assert.Empty(t, evicted)
	assert.Len(t, f.departures(t), 1)
}

func TestSweeper_BoundaryIsInclusive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, _ = f.participants.Join(ctx, "bob", t0)

	f.clock.Advance(10*time.Second - time.Millisecond)
	evicted, err := f.sweeper.RunOnce(ctx)
	require.NoError(t, err)
	assert.Empty(t, evicted)

	f.clock.Advance(time.Millisecond)
	evicted, err = f.sweeper.RunOnce(ctx)
	require.NoError(t, err)
	assert.Len(t, evicted, 1)
}

func TestSweeper_PerParticipantFailuresAreSkipped(t *testing.T) {
	ctrl := gomock.NewController(t)
	participants := mocks.NewMockParticipantRepository(ctrl)
	messages := mocks.NewMockMessageRepository(ctrl)
	publisher := &mockPublisher{err: errors.New("bus closed")}
	clk := clock.NewFake(t0)

	s := NewSweeper(participants, messages, publisher, WithClock(clk), WithLogger(slog.Default()))

	participants.EXPECT().
		EvictExpired(gomock.Any(), t0, DefaultIdleTimeout).
		Return([]domain.Participant{{Name: "bob"}, {Name: "carla"}}, nil)

	gomock.InOrder(
		messages.EXPECT().
			Append(gomock.Any(), domain.NewStatusMessage("bob", domain.LeaveText, t0)).
			Return(domain.Message{}, domain.NewBackingStoreError("append", errors.New("disk full"))),
		messages.EXPECT().
			Append(gomock.Any(), domain.NewStatusMessage("carla", domain.LeaveText, t0)).
			Return(domain.Message{ID: "2"}, nil),
	)

	evicted, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, evicted, 2)
	assert.Len(t, publisher.getMessages(), 2, "a failed notice still publishes the event")
}

func TestSweeper_EvictionFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	participants := mocks.NewMockParticipantRepository(ctrl)
	messages := mocks.NewMockMessageRepository(ctrl)

	storeErr := domain.NewBackingStoreError("evict", errors.New("timeout"))
	participants.EXPECT().EvictExpired(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, storeErr)

	s := NewSweeper(participants, messages, nil)
	_, err := s.RunOnce(context.Background())
	assert.ErrorIs(t, err, storeErr)
}

func TestSweeper_StartAndShutdown(t *testing.T) {
	ctx := context.Background()
	participants := memory.NewParticipantStore()
	messages := memory.NewMessageStore()
	clk := clock.NewFake(t0)

	_, err := participants.Join(ctx, "bob", t0)
	require.NoError(t, err)
	clk.Advance(time.Minute)

	s := NewSweeper(participants, messages, nil, WithClock(clk), WithInterval(10*time.Millisecond))
	s.Start()
	s.Start()

	assert.Eventually(t, func() bool {
		_, err := participants.Get(ctx, "bob")
		return errors.Is(err, domain.ErrNotFound)
	}, time.Second, 5*time.Millisecond)

	s.Shutdown()
	s.Shutdown()
	assert.Equal(t, 1, messages.Len())
}

func TestSweeper_Defaults(t *testing.T) {
	s := NewSweeper(nil, nil, nil, WithInterval(0), WithIdleTimeout(-time.Second))
	assert.Equal(t, DefaultInterval, s.Interval())
	assert.Equal(t, DefaultIdleTimeout, s.IdleTimeout())
	s.Shutdown()
}
