// Package chat sequences the registry and message log for each client
// request: validation, liveness checks, timestamps and activity events.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nfrund/batepapo/internal/clock"
	"github.com/nfrund/batepapo/internal/domain"
	"github.com/nfrund/batepapo/internal/pubsub"
	"github.com/nfrund/batepapo/internal/sanitize"
)

// MessageInput is a client supplied message body, used for both posting and
// editing.
type MessageInput struct {
	To   string
	Text string
	Type string
}

// Service is the request-facing core of the room.
type Service struct {
	participants domain.ParticipantRepository
	messages     domain.MessageRepository
	publisher    pubsub.Publisher
	clock        clock.Clock
	logger       *slog.Logger
}

// NewService creates a Service. publisher may be nil.
func NewService(participants domain.ParticipantRepository, messages domain.MessageRepository, publisher pubsub.Publisher, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		participants: participants,
		messages:     messages,
		publisher:    publisher,
		clock:        clk,
		logger:       logger,
	}
}

// Join registers name and announces the arrival. A failure to record the
// announcement is logged; the participant stays registered.
func (s *Service) Join(ctx context.Context, rawName string) (*domain.Participant, error) {
	name := sanitize.Name(rawName)
	if err := validateName(name); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	p, err := s.participants.Join(ctx, name, now)
	if err != nil {
		return nil, err
	}

	if _, err := s.messages.Append(ctx, domain.NewStatusMessage(name, domain.JoinText, now)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to record arrival", "event", "arrival_notice_failure",
			"name", name, "error", err)
	}
	publish(ctx, s, pubsub.ParticipantJoined, name, pubsub.ParticipantEvent{Name: name, At: now.UnixMilli()})
	return p, nil
}

// ListParticipants returns the live participants.
func (s *Service) ListParticipants(ctx context.Context) ([]domain.Participant, error) {
	return s.participants.List(ctx)
}

// PostMessage appends a message from sender. The sender must currently be
// live in the room.
func (s *Service) PostMessage(ctx context.Context, sender string, in MessageInput) (domain.Message, error) {
	update, details := normalizeInput(in)
	if sender == "" {
		details = append(details, `"User" header is required`)
	}
	if len(details) > 0 {
		return domain.Message{}, domain.NewValidationError(details...)
	}

	if _, err := s.participants.Get(ctx, sender); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Message{}, domain.NewValidationError(fmt.Sprintf("%q is not in the room", sender))
		}
		return domain.Message{}, err
	}

	msg, err := s.messages.Append(ctx, domain.Message{
		From: sender,
		To:   update.To,
		Text: update.Text,
		Type: update.Type,
		Time: domain.FormatTime(s.clock.Now()),
	})
	if err != nil {
		return domain.Message{}, err
	}

	publish(ctx, s, pubsub.MessagePosted, sender, messageEvent(msg))
	return msg, nil
}

// ListMessages returns the messages visible to user, oldest first. A
// positive limit keeps only the most recent limit messages.
func (s *Service) ListMessages(ctx context.Context, user string, limit int) ([]domain.Message, error) {
	if limit < 0 {
		return nil, domain.NewValidationError("limit must be a positive integer")
	}
	msgs, err := s.messages.VisibleTo(ctx, user)
	if err != nil {
		return nil, err
	}
	return domain.Tail(msgs, limit), nil
}

// Heartbeat refreshes the liveness of user.
func (s *Service) Heartbeat(ctx context.Context, user string) error {
	if user == "" {
		return domain.NewValidationError(`"User" header is required`)
	}
	return s.participants.Heartbeat(ctx, user, s.clock.Now())
}

// EditMessage replaces the recipient, text and type of a message owned by
// editor. Ownership is plain name equality between editor and the stored
// sender; editing does not require the editor to be live.
func (s *Service) EditMessage(ctx context.Context, id, editor string, in MessageInput) (domain.Message, error) {
	update, details := normalizeInput(in)
	if editor == "" {
		details = append(details, `"User" header is required`)
	}
	if len(details) > 0 {
		return domain.Message{}, domain.NewValidationError(details...)
	}

	msg, err := s.messages.UpdateOwned(ctx, id, editor, update)
	if err != nil {
		return domain.Message{}, err
	}
	publish(ctx, s, pubsub.MessageEdited, editor, messageEvent(msg))
	return msg, nil
}

// DeleteMessage removes a message owned by requester.
func (s *Service) DeleteMessage(ctx context.Context, id, requester string) error {
	if err := s.messages.DeleteOwned(ctx, id, requester); err != nil {
		return err
	}
	publish(ctx, s, pubsub.MessageDeleted, requester, pubsub.MessageEvent{ID: id, From: requester})
	return nil
}

// Ping checks the backing store.
func (s *Service) Ping(ctx context.Context) error {
	return s.participants.Ping(ctx)
}

func validateName(name string) error {
	if name == "" {
		return domain.NewValidationError(`"name" is not allowed to be empty`)
	}
	if strings.EqualFold(name, domain.Broadcast) {
		return domain.NewValidationError(fmt.Sprintf(`"name" must not be %q`, domain.Broadcast))
	}
	return nil
}

// normalizeInput sanitizes in and returns every problem found, not just the
// first.
func normalizeInput(in MessageInput) (domain.MessageUpdate, []string) {
	update := domain.MessageUpdate{
		To:   sanitize.Name(in.To),
		Text: sanitize.Text(in.Text),
		Type: domain.MessageType(strings.TrimSpace(in.Type)),
	}

	var details []string
	if update.To == "" {
		details = append(details, `"to" is not allowed to be empty`)
	}
	if update.Text == "" {
		details = append(details, `"text" is not allowed to be empty`)
	}
	if !update.Type.UserSendable() {
		details = append(details, fmt.Sprintf(`"type" must be one of [%s, %s]`, domain.TypeMessage, domain.TypePrivate))
	}
	return update, details
}

func messageEvent(m domain.Message) pubsub.MessageEvent {
	return pubsub.MessageEvent{ID: m.ID, From: m.From, To: m.To, Type: string(m.Type)}
}

func publish[T any](ctx context.Context, s *Service, event pubsub.Event[T], userID string, payload T) {
	if s.publisher == nil {
		return
	}
	if err := pubsub.Publish(ctx, s.publisher, event, userID, payload); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish activity event", "event", "activity_publish_failure",
			"topic", event.Name(), "error", err)
	}
}
