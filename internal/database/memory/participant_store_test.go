package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nfrund/batepapo/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func TestParticipantStore_JoinUnique(t *testing.T) {
	ctx := context.Background()
	s := NewParticipantStore()

	p, err := s.Join(ctx, "ana", t0)
	require.NoError(t, err)
	assert.Equal(t, "ana", p.Name)
	assert.Equal(t, t0, p.LastHeartbeat)

	_, err = s.Join(ctx, "ana", t0.Add(time.Second))
	assert.ErrorIs(t, err, domain.ErrConflict)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestParticipantStore_ConcurrentJoinSingleWinner(t *testing.T) {
	ctx := context.Background()
	s := NewParticipantStore()

	const n = 50
	var wg sync.WaitGroup
	results := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Join(ctx, "ana", t0)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrConflict)
	}
	assert.Equal(t, 1, wins)
}

func TestParticipantStore_Heartbeat(t *testing.T) {
	ctx := context.Background()
	s := NewParticipantStore()

	assert.ErrorIs(t, s.Heartbeat(ctx, "ghost", t0), domain.ErrNotFound)

	_, err := s.Join(ctx, "ana", t0)
	require.NoError(t, err)
	require.NoError(t, s.Heartbeat(ctx, "ana", t0.Add(5*time.Second)))

	p, err := s.Get(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, t0.Add(5*time.Second), p.LastHeartbeat)
	assert.Equal(t, t0, p.JoinedAt)
}

func TestParticipantStore_EvictExpired(t *testing.T) {
	ctx := context.Background()
	s := NewParticipantStore()
	timeout := 10 * time.Second

	_, _ = s.Join(ctx, "ana", t0)
	_, _ = s.Join(ctx, "bob", t0)
	require.NoError(t, s.Heartbeat(ctx, "ana", t0.Add(8*time.Second)))

	// exactly at the boundary counts as expired
	evicted, err := s.EvictExpired(ctx, t0.Add(10*time.Second), timeout)
	require.NoError(t, err)
	require.Len(t, evicted, 1)
	assert.Equal(t, "bob", evicted[0].Name)

	_, err = s.Get(ctx, "bob")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.Heartbeat(ctx, "bob", t0.Add(11*time.Second)), domain.ErrNotFound)

	evicted, err = s.EvictExpired(ctx, t0.Add(10*time.Second), timeout)
	require.NoError(t, err)
	assert.Empty(t, evicted, "a second sweep must not report bob again")
}

func TestParticipantStore_HeartbeatEvictRace(t *testing.T) {
	ctx := context.Background()
	timeout := 10 * time.Second

	for range 200 {
		s := NewParticipantStore()
		_, _ = s.Join(ctx, "ana", t0)
		now := t0.Add(timeout)

		var (
			wg      sync.WaitGroup
			hbErr   error
			evicted []domain.Participant
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			hbErr = s.Heartbeat(ctx, "ana", now)
		}()
		go func() {
			defer wg.Done()
			evicted, _ = s.EvictExpired(ctx, now, timeout)
		}()
		wg.Wait()

		_, getErr := s.Get(ctx, "ana")
		if len(evicted) == 1 {
			// eviction won: the heartbeat must have failed and not recreated ana
			assert.ErrorIs(t, hbErr, domain.ErrNotFound)
			assert.ErrorIs(t, getErr, domain.ErrNotFound)
		} else {
			assert.NoError(t, hbErr)
			assert.NoError(t, getErr)
		}
	}
}

func TestParticipantStore_ListOrder(t *testing.T) {
	ctx := context.Background()
	s := NewParticipantStore()
	_, _ = s.Join(ctx, "carla", t0.Add(2*time.Second))
	_, _ = s.Join(ctx, "ana", t0)
	_, _ = s.Join(ctx, "bob", t0.Add(time.Second))

	list, err := s.List(ctx)
	require.NoError(t, err)
	names := make([]string, len(list))
	for i, p := range list {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"ana", "bob", "carla"}, names)
}
