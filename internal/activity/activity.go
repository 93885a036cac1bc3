// Package activity keeps running counters of room activity by listening on
// the event bus.
package activity

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nfrund/batepapo/internal/clock"
	"github.com/nfrund/batepapo/internal/pubsub"
)

// Stats is a point-in-time copy of the counters.
type Stats struct {
	Joined    int64     `json:"joined"`
	Left      int64     `json:"left"`
	Posted    int64     `json:"posted"`
	Edited    int64     `json:"edited"`
	Deleted   int64     `json:"deleted"`
	StartedAt time.Time `json:"startedAt"`
}

// Tracker counts activity events.
type Tracker struct {
	joined, left, posted, edited, deleted atomic.Int64

	startedAt time.Time
	log       *slog.Logger
}

// NewTracker creates a Tracker. Counting starts with Start.
func NewTracker(clk clock.Clock, log *slog.Logger) *Tracker {
	return &Tracker{startedAt: clk.Now(), log: log}
}

// Start subscribes to every activity topic. Subscriptions end when ctx is
// canceled or the bus closes.
func (t *Tracker) Start(ctx context.Context, sub pubsub.Subscriber) error {
	participant := func(c *atomic.Int64) func(context.Context, pubsub.ParticipantEvent) error {
		return func(context.Context, pubsub.ParticipantEvent) error {
			c.Add(1)
			return nil
		}
	}
	message := func(c *atomic.Int64) func(context.Context, pubsub.MessageEvent) error {
		return func(context.Context, pubsub.MessageEvent) error {
			c.Add(1)
			return nil
		}
	}

	subs := []struct {
		topic string
		run   func() error
	}{
		{pubsub.ParticipantJoined.Name(), func() error {
			return pubsub.Subscribe(ctx, sub, pubsub.ParticipantJoined, participant(&t.joined))
		}},
		{pubsub.ParticipantLeft.Name(), func() error {
			return pubsub.Subscribe(ctx, sub, pubsub.ParticipantLeft, participant(&t.left))
		}},
		{pubsub.MessagePosted.Name(), func() error {
			return pubsub.Subscribe(ctx, sub, pubsub.MessagePosted, message(&t.posted))
		}},
		{pubsub.MessageEdited.Name(), func() error {
			return pubsub.Subscribe(ctx, sub, pubsub.MessageEdited, message(&t.edited))
		}},
		{pubsub.MessageDeleted.Name(), func() error {
			return pubsub.Subscribe(ctx, sub, pubsub.MessageDeleted, message(&t.deleted))
		}},
	}
	for _, s := range subs {
		if err := s.run(); err != nil {
			return fmt.Errorf("subscribe %s: %w", s.topic, err)
		}
	}
	t.log.Debug("Activity tracker subscribed", "event", "activity_started", "topics", len(subs))
	return nil
}

// Snapshot returns the current counters.
func (t *Tracker) Snapshot() Stats {
	return Stats{
		Joined:    t.joined.Load(),
		Left:      t.left.Load(),
		Posted:    t.posted.Load(),
		Edited:    t.edited.Load(),
		Deleted:   t.deleted.Load(),
		StartedAt: t.startedAt,
	}
}
