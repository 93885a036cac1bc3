// Package presence evicts participants that stop sending heartbeats and
// announces their departure in the room.
package presence

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nfrund/batepapo/internal/clock"
	"github.com/nfrund/batepapo/internal/domain"
	"github.com/nfrund/batepapo/internal/pubsub"
)

const (
	// DefaultInterval is how often the sweeper runs.
	DefaultInterval = 15 * time.Second
	// DefaultIdleTimeout is how long a participant may go without a
	// heartbeat before it is evicted.
	DefaultIdleTimeout = 10 * time.Second
)

// Sweeper periodically removes expired participants. For every removal it
// appends one departure status message and publishes a participant-left
// event. Failures for one participant never stop the rest of the sweep.
type Sweeper struct {
	participants domain.ParticipantRepository
	messages     domain.MessageRepository
	publisher    pubsub.Publisher
	clock        clock.Clock
	logger       *slog.Logger

	interval    time.Duration
	idleTimeout time.Duration

	mu      sync.Mutex
	started bool
	stopped bool
	stop    chan struct{}
	done    chan struct{}
}

// Option is a function that configures a Sweeper.
type Option func(*Sweeper)

// WithInterval sets how often the sweeper runs.
func WithInterval(d time.Duration) Option {
	return func(s *Sweeper) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithIdleTimeout sets the heartbeat timeout.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Sweeper) {
		if d > 0 {
			s.idleTimeout = d
		}
	}
}

// WithClock replaces the wall clock, for tests.
func WithClock(c clock.Clock) Option {
	return func(s *Sweeper) {
		s.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sweeper) {
		s.logger = l
	}
}

// NewSweeper creates a sweeper. publisher may be nil.
func NewSweeper(participants domain.ParticipantRepository, messages domain.MessageRepository, publisher pubsub.Publisher, opts ...Option) *Sweeper {
	s := &Sweeper{
		participants: participants,
		messages:     messages,
		publisher:    publisher,
		clock:        clock.Real{},
		logger:       slog.Default().With("service", "presence"),
		interval:     DefaultInterval,
		idleTimeout:  DefaultIdleTimeout,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Interval returns the configured sweep period.
func (s *Sweeper) Interval() time.Duration { return s.interval }

// IdleTimeout returns the configured heartbeat timeout.
func (s *Sweeper) IdleTimeout() time.Duration { return s.idleTimeout }

// Start launches the sweep loop. Calling it again, or after Shutdown, has
// no effect.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true
	s.logger.Info("Starting liveness sweeper", "event", "sweeper_started",
		"interval", s.interval, "idle_timeout", s.idleTimeout)
	go s.loop()
}

func (s *Sweeper) loop() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// each sweep is bounded by one period so a hung store cannot stack runs
			ctx, cancel := context.WithTimeout(context.Background(), s.interval)
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.Error("Sweep failed", "event", "sweep_failure", "error", err)
			}
			cancel()
		case <-s.stop:
			return
		}
	}
}

// Shutdown stops the loop and waits for an in-flight sweep to finish. It is
// safe to call more than once, and before Start.
func (s *Sweeper) Shutdown() {
	s.mu.Lock()
	started := s.started
	if !s.stopped {
		s.stopped = true
		close(s.stop)
	}
	s.mu.Unlock()

	if started {
		<-s.done
	}
}

// RunOnce performs a single sweep and returns the participants it evicted.
// An error is returned only when the eviction itself failed; departure
// notices are best effort.
func (s *Sweeper) RunOnce(ctx context.Context) ([]domain.Participant, error) {
	now := s.clock.Now()
	evicted, err := s.participants.EvictExpired(ctx, now, s.idleTimeout)
	if err != nil {
		return nil, err
	}

	for _, p := range evicted {
		logger := s.logger.With("name", p.Name)
		logger.Info("Participant timed out", "event", "participant_evicted",
			"idle", now.Sub(p.LastHeartbeat))

		if _, err := s.messages.Append(ctx, domain.NewStatusMessage(p.Name, domain.LeaveText, now)); err != nil {
			logger.Error("Failed to record departure", "event", "departure_notice_failure", "error", err)
		}
		if s.publisher != nil {
			ev := pubsub.ParticipantEvent{Name: p.Name, At: now.UnixMilli()}
			if err := pubsub.Publish(ctx, s.publisher, pubsub.ParticipantLeft, p.Name, ev); err != nil {
				logger.Warn("Failed to publish departure", "event", "departure_publish_failure", "error", err)
			}
		}
	}
	return evicted, nil
}
