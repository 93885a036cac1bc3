package badgerdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/nfrund/batepapo/internal/domain"
)

var _ domain.ParticipantRepository = (*ParticipantStore)(nil)

type diskParticipant struct {
	Name          string `json:"name"`
	LastHeartbeat int64  `json:"last_heartbeat"` // unix nanoseconds
	JoinedAt      int64  `json:"joined_at"`
}

func (d diskParticipant) toDomain() domain.Participant {
	return domain.Participant{
		Name:          d.Name,
		LastHeartbeat: time.Unix(0, d.LastHeartbeat).UTC(),
		JoinedAt:      time.Unix(0, d.JoinedAt).UTC(),
	}
}

// ParticipantStore is a Badger-backed participant registry.
type ParticipantStore struct {
	db  *badger.DB
	log *slog.Logger
}

// NewParticipantStore wraps an open Badger database.
func NewParticipantStore(db *badger.DB, log *slog.Logger) *ParticipantStore {
	return &ParticipantStore{db: db, log: log}
}

func participantKey(name string) []byte {
	return []byte(participantPrefix + name)
}

// Join implements domain.ParticipantRepository.
func (s *ParticipantStore) Join(ctx context.Context, name string, now time.Time) (*domain.Participant, error) {
	dp := diskParticipant{Name: name, LastHeartbeat: now.UnixNano(), JoinedAt: now.UnixNano()}
	data, err := json.Marshal(dp)
	if err != nil {
		return nil, domain.NewBackingStoreError("join", err)
	}

	err = update(s.db, func(txn *badger.Txn) error {
		_, err := txn.Get(participantKey(name))
		if err == nil {
			return fmt.Errorf("join %q: %w", name, domain.ErrConflict)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(participantKey(name), data)
	})
	if err != nil {
		return nil, domain.NewBackingStoreError("join", err)
	}
	p := dp.toDomain()
	return &p, nil
}

// Get implements domain.ParticipantRepository.
func (s *ParticipantStore) Get(ctx context.Context, name string) (*domain.Participant, error) {
	var dp diskParticipant
	err := s.db.View(func(txn *badger.Txn) error {
		return readParticipant(txn, name, &dp)
	})
	if err != nil {
		return nil, domain.NewBackingStoreError("get participant", err)
	}
	p := dp.toDomain()
	return &p, nil
}

// Heartbeat implements domain.ParticipantRepository. A heartbeat racing an
// eviction of the same key either commits first or is replayed and then
// finds the key gone.
func (s *ParticipantStore) Heartbeat(ctx context.Context, name string, now time.Time) error {
	err := update(s.db, func(txn *badger.Txn) error {
		var dp diskParticipant
		if err := readParticipant(txn, name, &dp); err != nil {
			return err
		}
		dp.LastHeartbeat = now.UnixNano()
		data, err := json.Marshal(dp)
		if err != nil {
			return err
		}
		return txn.Set(participantKey(name), data)
	})
	return domain.NewBackingStoreError("heartbeat", err)
}

// List implements domain.ParticipantRepository.
func (s *ParticipantStore) List(ctx context.Context) ([]domain.Participant, error) {
	out := []domain.Participant{}
	err := s.db.View(func(txn *badger.Txn) error {
		return scanParticipants(txn, func(dp diskParticipant) {
			out = append(out, dp.toDomain())
		})
	})
	if err != nil {
		return nil, domain.NewBackingStoreError("list participants", err)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

// EvictExpired implements domain.ParticipantRepository. Candidates are
// collected in a read-only scan, then each is removed in its own transaction
// that re-reads the heartbeat it observed. A concurrent heartbeat makes that
// transaction fail with badger.ErrConflict; the participant is kept and the
// next sweep looks at it again.
func (s *ParticipantStore) EvictExpired(ctx context.Context, now time.Time, timeout time.Duration) ([]domain.Participant, error) {
	var candidates []diskParticipant
	err := s.db.View(func(txn *badger.Txn) error {
		return scanParticipants(txn, func(dp diskParticipant) {
			if dp.toDomain().Expired(now, timeout) {
				candidates = append(candidates, dp)
			}
		})
	})
	if err != nil {
		return nil, domain.NewBackingStoreError("scan participants", err)
	}

	var evicted []domain.Participant
	for _, observed := range candidates {
		removed, err := s.deleteIfUnchanged(observed)
		switch {
		case errors.Is(err, badger.ErrConflict):
			s.log.WarnContext(ctx, "Eviction lost a race with a concurrent write",
				"event", "evict_conflict", "name", observed.Name)
		case err != nil:
			s.log.ErrorContext(ctx, "Failed to evict participant",
				"event", "evict_failure", "name", observed.Name, "error", err)
		case removed:
			evicted = append(evicted, observed.toDomain())
		}
	}
	return evicted, nil
}

func (s *ParticipantStore) deleteIfUnchanged(observed diskParticipant) (bool, error) {
	removed := false
	err := s.db.Update(func(txn *badger.Txn) error {
		var current diskParticipant
		err := readParticipant(txn, observed.Name, &current)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if current.LastHeartbeat != observed.LastHeartbeat {
			return nil
		}
		removed = true
		return txn.Delete(participantKey(observed.Name))
	})
	return removed && err == nil, err
}

// Ping implements domain.ParticipantRepository.
func (s *ParticipantStore) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return domain.NewBackingStoreError("ping", errors.New("badger database is closed"))
	}
	return nil
}

func readParticipant(txn *badger.Txn, name string, dp *diskParticipant) error {
	item, err := txn.Get(participantKey(name))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("participant %q: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dp)
	})
}

func scanParticipants(txn *badger.Txn, fn func(diskParticipant)) error {
	prefix := []byte(participantPrefix)
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var dp diskParticipant
		err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &dp)
		})
		if err != nil {
			return err
		}
		fn(dp)
	}
	return nil
}
