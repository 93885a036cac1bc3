//go:generate go run go.uber.org/mock/mockgen -source=repository.go -destination=mocks/mock_repository.go -package=mocks
package domain

import (
	"context"
	"time"
)

// ParticipantRepository is the participant registry. Every mutating method is
// atomic per name; no caller may read a participant and then write it back.
type ParticipantRepository interface {
	// Join admits name with lastHeartbeat = now. It fails with ErrConflict if
	// a live participant already has that name.
	Join(ctx context.Context, name string, now time.Time) (*Participant, error)

	// Get returns the live participant with that name or ErrNotFound.
	Get(ctx context.Context, name string) (*Participant, error)

	// Heartbeat refreshes lastHeartbeat. It fails with ErrNotFound when no
	// live participant has that name and never recreates an evicted one.
	Heartbeat(ctx context.Context, name string, now time.Time) error

	// List returns a snapshot of the live participants.
	List(ctx context.Context) ([]Participant, error)

	// EvictExpired removes every participant idle for at least timeout and
	// returns exactly the removed set.
	EvictExpired(ctx context.Context, now time.Time, timeout time.Duration) ([]Participant, error)

	// Ping checks the backing store.
	Ping(ctx context.Context) error
}

// MessageRepository is the message log.
type MessageRepository interface {
	// Append assigns a new id to msg, stores it and returns the stored copy.
	Append(ctx context.Context, msg Message) (Message, error)

	// VisibleTo returns, in storage order, every message Visible to user.
	VisibleTo(ctx context.Context, user string) ([]Message, error)

	// UpdateOwned replaces To, Text and Type of message id if editor owns it.
	// Unknown ids fail with ErrNotFound before ownership is checked.
	UpdateOwned(ctx context.Context, id, editor string, update MessageUpdate) (Message, error)

	// DeleteOwned removes message id if requester owns it, with the same
	// error precedence as UpdateOwned.
	DeleteOwned(ctx context.Context, id, requester string) error
}
