package badgerdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/nfrund/batepapo/internal/domain"
)

var _ domain.MessageRepository = (*MessageStore)(nil)

type diskMessage struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	Type string `json:"type"`
	Time string `json:"time"`
}

func fromDomain(m domain.Message) diskMessage {
	return diskMessage{ID: m.ID, From: m.From, To: m.To, Text: m.Text, Type: string(m.Type), Time: m.Time}
}

func (d diskMessage) toDomain() domain.Message {
	return domain.Message{ID: d.ID, From: d.From, To: d.To, Text: d.Text, Type: domain.MessageType(d.Type), Time: d.Time}
}

// MessageStore is a Badger-backed message log.
type MessageStore struct {
	db *badger.DB
}

// NewMessageStore wraps an open Badger database.
func NewMessageStore(db *badger.DB) *MessageStore {
	return &MessageStore{db: db}
}

func messageKey(id string) []byte {
	return []byte(messagePrefix + id)
}

// Append implements domain.MessageRepository.
func (s *MessageStore) Append(ctx context.Context, msg domain.Message) (domain.Message, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return domain.Message{}, domain.NewBackingStoreError("append", err)
	}
	msg.ID = id.String()

	data, err := json.Marshal(fromDomain(msg))
	if err != nil {
		return domain.Message{}, domain.NewBackingStoreError("append", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(msg.ID), data)
	})
	if err != nil {
		return domain.Message{}, domain.NewBackingStoreError("append", err)
	}
	return msg, nil
}

// VisibleTo implements domain.MessageRepository.
func (s *MessageStore) VisibleTo(ctx context.Context, user string) ([]domain.Message, error) {
	out := []domain.Message{}
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(messagePrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var dm diskMessage
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &dm)
			}); err != nil {
				return err
			}
			if m := dm.toDomain(); domain.Visible(m, user) {
				out = append(out, m)
			}
		}
		return nil
	})
	if err != nil {
		return nil, domain.NewBackingStoreError("list messages", err)
	}
	return out, nil
}

// UpdateOwned implements domain.MessageRepository.
func (s *MessageStore) UpdateOwned(ctx context.Context, id, editor string, upd domain.MessageUpdate) (domain.Message, error) {
	var updated diskMessage
	err := update(s.db, func(txn *badger.Txn) error {
		dm, err := readOwned(txn, id, editor)
		if err != nil {
			return err
		}
		dm.To, dm.Text, dm.Type = upd.To, upd.Text, string(upd.Type)
		data, err := json.Marshal(dm)
		if err != nil {
			return err
		}
		updated = dm
		return txn.Set(messageKey(id), data)
	})
	if err != nil {
		return domain.Message{}, domain.NewBackingStoreError("update message", err)
	}
	return updated.toDomain(), nil
}

// DeleteOwned implements domain.MessageRepository.
func (s *MessageStore) DeleteOwned(ctx context.Context, id, requester string) error {
	err := update(s.db, func(txn *badger.Txn) error {
		if _, err := readOwned(txn, id, requester); err != nil {
			return err
		}
		return txn.Delete(messageKey(id))
	})
	return domain.NewBackingStoreError("delete message", err)
}

func readOwned(txn *badger.Txn, id, requester string) (diskMessage, error) {
	var dm diskMessage
	item, err := txn.Get(messageKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return dm, fmt.Errorf("message %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return dm, err
	}
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &dm)
	}); err != nil {
		return dm, err
	}
	if dm.From != requester {
		return dm, fmt.Errorf("message %q: %w", id, domain.ErrUnauthorized)
	}
	return dm, nil
}
