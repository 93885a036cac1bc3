package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/nfrund/batepapo/internal/domain"
	"github.com/samber/lo"
	"github.com/surrealdb/surrealdb.go"
)

var _ domain.MessageRepository = (*MessageStore)(nil)

// MessageStore is the SurrealDB message log.
type MessageStore struct {
	conn DBConnection
}

// NewMessageStore creates a new MessageStore.
func NewMessageStore(conn DBConnection) *MessageStore {
	return &MessageStore{conn: conn}
}

// Append stores msg under a fresh UUIDv7 record id.
func (s *MessageStore) Append(ctx context.Context, msg domain.Message) (domain.Message, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return domain.Message{}, toDomain("append", err)
	}

	ctx, cancel := withTimeout(ctx, s.conn.GetDBExecuteTimeout(), executeTimeoutKey)
	defer cancel()

	query := "CREATE type::thing($tb, $id) CONTENT $content"
	params := map[string]any{
		"tb": messageTable,
		"id": id.String(),
		"content": messageRecord{
			Sender:    msg.From,
			Recipient: msg.To,
			Text:      msg.Text,
			MsgType:   string(msg.Type),
			Time:      msg.Time,
		},
	}

	var rec *messageRecord
	err = s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		var err error
		rec, err = QueryOne[messageRecord](ctx, db, query, params)
		return err
	})
	if err != nil {
		return domain.Message{}, toDomain("append", err)
	}
	if rec == nil {
		return domain.Message{}, toDomain("append", fmt.Errorf("create returned no record"))
	}
	return rec.toDomain(), nil
}

// VisibleTo implements domain.MessageRepository. The predicate mirrors
// domain.Visible.
func (s *MessageStore) VisibleTo(ctx context.Context, user string) ([]domain.Message, error) {
	ctx, cancel := withTimeout(ctx, s.conn.GetDBQueryTimeout(), queryTimeoutKey)
	defer cancel()

	query := `SELECT * FROM message
		WHERE msg_type = $public OR sender = $all OR recipient = $user OR recipient = $all OR sender = $user
		ORDER BY id`
	params := map[string]any{
		"public": string(domain.TypeMessage),
		"all":    domain.Broadcast,
		"user":   user,
	}

	var rows []messageRecord
	err := s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		var err error
		rows, err = Query[messageRecord](ctx, db, query, params)
		return err
	})
	if err != nil {
		return nil, toDomain("list messages", err)
	}
	return lo.Map(rows, func(r messageRecord, _ int) domain.Message {
		return r.toDomain()
	}), nil
}

// UpdateOwned applies upd only when sender matches editor. When nothing
// matched, a follow-up read tells a missing message from a foreign one;
// sender never changes, so the answer cannot go stale between the two.
func (s *MessageStore) UpdateOwned(ctx context.Context, id, editor string, upd domain.MessageUpdate) (domain.Message, error) {
	ctx, cancel := withTimeout(ctx, s.conn.GetDBExecuteTimeout(), executeTimeoutKey)
	defer cancel()

	query := `UPDATE type::thing($tb, $id)
		SET recipient = $to, text = $text, msg_type = $type
		WHERE sender = $editor RETURN AFTER`
	params := map[string]any{
		"tb":     messageTable,
		"id":     id,
		"editor": editor,
		"to":     upd.To,
		"text":   upd.Text,
		"type":   string(upd.Type),
	}

	var rec *messageRecord
	err := s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		var err error
		rec, err = QueryOne[messageRecord](ctx, db, query, params)
		return err
	})
	if err != nil {
		return domain.Message{}, toDomain("update message", err)
	}
	if rec != nil {
		return rec.toDomain(), nil
	}
	return domain.Message{}, s.explainMiss(ctx, id)
}

// DeleteOwned implements domain.MessageRepository.
func (s *MessageStore) DeleteOwned(ctx context.Context, id, requester string) error {
	ctx, cancel := withTimeout(ctx, s.conn.GetDBExecuteTimeout(), executeTimeoutKey)
	defer cancel()

	query := "DELETE type::thing($tb, $id) WHERE sender = $requester RETURN BEFORE"
	params := map[string]any{"tb": messageTable, "id": id, "requester": requester}

	var rec *messageRecord
	err := s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		var err error
		rec, err = QueryOne[messageRecord](ctx, db, query, params)
		return err
	})
	if err != nil {
		return toDomain("delete message", err)
	}
	if rec != nil {
		return nil
	}
	return s.explainMiss(ctx, id)
}

func (s *MessageStore) explainMiss(ctx context.Context, id string) error {
	query := "SELECT * FROM type::thing($tb, $id)"
	params := map[string]any{"tb": messageTable, "id": id}

	var rec *messageRecord
	err := s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		var err error
		rec, err = QueryOne[messageRecord](ctx, db, query, params)
		return err
	})
	if err != nil {
		return toDomain("lookup message", err)
	}
	if rec == nil {
		return fmt.Errorf("message %q: %w", id, domain.ErrNotFound)
	}
	return fmt.Errorf("message %q: %w", id, domain.ErrUnauthorized)
}
