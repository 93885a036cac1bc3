// Package memory implements the participant registry and message log in
// process memory. It is the default backend and the reference behaviour the
// persistent backends are tested against.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nfrund/batepapo/internal/domain"
)

var _ domain.ParticipantRepository = (*ParticipantStore)(nil)

// ParticipantStore keeps live participants keyed by name.
type ParticipantStore struct {
	mu           sync.Mutex
	participants map[string]domain.Participant
}

// NewParticipantStore creates an empty registry.
func NewParticipantStore() *ParticipantStore {
	return &ParticipantStore{participants: make(map[string]domain.Participant)}
}

// Join implements domain.ParticipantRepository.
func (s *ParticipantStore) Join(ctx context.Context, name string, now time.Time) (*domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.participants[name]; exists {
		return nil, fmt.Errorf("join %q: %w", name, domain.ErrConflict)
	}
	p := domain.Participant{Name: name, LastHeartbeat: now, JoinedAt: now}
	s.participants[name] = p
	return &p, nil
}

// Get implements domain.ParticipantRepository.
func (s *ParticipantStore) Get(ctx context.Context, name string) (*domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[name]
	if !ok {
		return nil, fmt.Errorf("participant %q: %w", name, domain.ErrNotFound)
	}
	return &p, nil
}

// Heartbeat implements domain.ParticipantRepository.
func (s *ParticipantStore) Heartbeat(ctx context.Context, name string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[name]
	if !ok {
		return fmt.Errorf("heartbeat %q: %w", name, domain.ErrNotFound)
	}
	p.LastHeartbeat = now
	s.participants[name] = p
	return nil
}

// List implements domain.ParticipantRepository. Participants are ordered by
// join time, then name.
func (s *ParticipantStore) List(ctx context.Context) ([]domain.Participant, error) {
	s.mu.Lock()
	out := make([]domain.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		out = append(out, p)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// EvictExpired implements domain.ParticipantRepository. The filter and the
// delete run under the same lock, so a heartbeat either lands before the
// decision (and the participant survives) or after the removal (and fails
// with ErrNotFound).
func (s *ParticipantStore) EvictExpired(ctx context.Context, now time.Time, timeout time.Duration) ([]domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted []domain.Participant
	for name, p := range s.participants {
		if p.Expired(now, timeout) {
			delete(s.participants, name)
			evicted = append(evicted, p)
		}
	}
	sort.Slice(evicted, func(i, j int) bool { return evicted[i].Name < evicted[j].Name })
	return evicted, nil
}

// Ping implements domain.ParticipantRepository.
func (s *ParticipantStore) Ping(ctx context.Context) error {
	return ctx.Err()
}
