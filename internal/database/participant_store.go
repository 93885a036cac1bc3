package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nfrund/batepapo/internal/domain"
	"github.com/samber/lo"
	"github.com/surrealdb/surrealdb.go"
)

var _ domain.ParticipantRepository = (*ParticipantStore)(nil)

// ParticipantStore is the SurrealDB participant registry. Every mutating
// operation is a single statement, which SurrealDB runs in its own
// transaction.
type ParticipantStore struct {
	conn DBConnection
}

// NewParticipantStore creates a new ParticipantStore.
func NewParticipantStore(conn DBConnection) *ParticipantStore {
	return &ParticipantStore{conn: conn}
}

// Join creates participant:<name>. The record id is the name, so a second
// join fails on the duplicate id.
func (s *ParticipantStore) Join(ctx context.Context, name string, now time.Time) (*domain.Participant, error) {
	ctx, cancel := withTimeout(ctx, s.conn.GetDBExecuteTimeout(), executeTimeoutKey)
	defer cancel()

	query := "CREATE type::thing($tb, $name) CONTENT { name: $name, last_status: $now, joined_at: $now }"
	params := map[string]any{"tb": participantTable, "name": name, "now": now.UnixMilli()}

	var rec *participantRecord
	err := s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		var err error
		rec, err = QueryOne[participantRecord](ctx, db, query, params)
		return err
	})
	if errors.Is(err, ErrAlreadyExists) {
		return nil, fmt.Errorf("join %q: %w", name, domain.ErrConflict)
	}
	if err != nil {
		return nil, toDomain("join", err)
	}
	if rec == nil {
		return nil, toDomain("join", fmt.Errorf("create returned no record for %q", name))
	}
	p := rec.toDomain()
	return &p, nil
}

// Get implements domain.ParticipantRepository.
func (s *ParticipantStore) Get(ctx context.Context, name string) (*domain.Participant, error) {
	ctx, cancel := withTimeout(ctx, s.conn.GetDBQueryTimeout(), queryTimeoutKey)
	defer cancel()

	query := "SELECT * FROM type::thing($tb, $name)"
	params := map[string]any{"tb": participantTable, "name": name}

	var rec *participantRecord
	err := s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		var err error
		rec, err = QueryOne[participantRecord](ctx, db, query, params)
		return err
	})
	if err != nil {
		return nil, toDomain("get participant", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("participant %q: %w", name, domain.ErrNotFound)
	}
	p := rec.toDomain()
	return &p, nil
}

// Heartbeat refreshes last_status. The WHERE form never creates a record,
// so a heartbeat that arrives after eviction matches nothing.
func (s *ParticipantStore) Heartbeat(ctx context.Context, name string, now time.Time) error {
	ctx, cancel := withTimeout(ctx, s.conn.GetDBExecuteTimeout(), executeTimeoutKey)
	defer cancel()

	query := "UPDATE participant SET last_status = $now WHERE name = $name RETURN AFTER"
	params := map[string]any{"name": name, "now": now.UnixMilli()}

	var rows []participantRecord
	err := s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		var err error
		rows, err = Query[participantRecord](ctx, db, query, params)
		return err
	})
	if err != nil {
		return toDomain("heartbeat", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("heartbeat %q: %w", name, domain.ErrNotFound)
	}
	return nil
}

// List implements domain.ParticipantRepository.
func (s *ParticipantStore) List(ctx context.Context) ([]domain.Participant, error) {
	ctx, cancel := withTimeout(ctx, s.conn.GetDBQueryTimeout(), queryTimeoutKey)
	defer cancel()

	query := "SELECT * FROM participant ORDER BY joined_at, name"

	var rows []participantRecord
	err := s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		var err error
		rows, err = Query[participantRecord](ctx, db, query, nil)
		return err
	})
	if err != nil {
		return nil, toDomain("list participants", err)
	}
	return lo.Map(rows, func(r participantRecord, _ int) domain.Participant {
		return r.toDomain()
	}), nil
}

// EvictExpired deletes every participant whose heartbeat is at or before
// now-timeout in one statement and returns the removed rows. A heartbeat
// committed first moves the row out of the predicate; one committed after
// finds nothing to update.
func (s *ParticipantStore) EvictExpired(ctx context.Context, now time.Time, timeout time.Duration) ([]domain.Participant, error) {
	ctx, cancel := withTimeout(ctx, s.conn.GetDBExecuteTimeout(), executeTimeoutKey)
	defer cancel()

	query := "DELETE participant WHERE last_status <= $cutoff RETURN BEFORE"
	params := map[string]any{"cutoff": now.Add(-timeout).UnixMilli()}

	var rows []participantRecord
	err := s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		var err error
		rows, err = Query[participantRecord](ctx, db, query, params)
		return err
	})
	if err != nil {
		return nil, toDomain("evict participants", err)
	}
	return lo.Map(rows, func(r participantRecord, _ int) domain.Participant {
		return r.toDomain()
	}), nil
}

// Ping implements domain.ParticipantRepository.
func (s *ParticipantStore) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, s.conn.GetDBQueryTimeout(), queryTimeoutKey)
	defer cancel()
	return toDomain("ping", s.conn.Ping(ctx))
}
