package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/nfrund/batepapo/internal/domain"
	"github.com/samber/lo"
)

var _ domain.MessageRepository = (*MessageStore)(nil)

// MessageStore is an append-ordered message log.
type MessageStore struct {
	mu       sync.RWMutex
	messages []domain.Message
	index    map[string]int // id -> position in messages
}

// NewMessageStore creates an empty message log.
func NewMessageStore() *MessageStore {
	return &MessageStore{index: make(map[string]int)}
}

// Append implements domain.MessageRepository.
func (s *MessageStore) Append(ctx context.Context, msg domain.Message) (domain.Message, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return domain.Message{}, domain.NewBackingStoreError("append", err)
	}
	msg.ID = id.String()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.index[msg.ID] = len(s.messages)
	s.messages = append(s.messages, msg)
	return msg, nil
}

// VisibleTo implements domain.MessageRepository.
func (s *MessageStore) VisibleTo(ctx context.Context, user string) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.FilterVisible(s.messages, user), nil
}

// UpdateOwned implements domain.MessageRepository.
func (s *MessageStore) UpdateOwned(ctx context.Context, id, editor string, update domain.MessageUpdate) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, err := s.owned(id, editor)
	if err != nil {
		return domain.Message{}, err
	}
	m := &s.messages[pos]
	m.To = update.To
	m.Text = update.Text
	m.Type = update.Type
	return *m, nil
}

// DeleteOwned implements domain.MessageRepository.
func (s *MessageStore) DeleteOwned(ctx context.Context, id, requester string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, err := s.owned(id, requester)
	if err != nil {
		return err
	}
	s.messages = append(s.messages[:pos], s.messages[pos+1:]...)
	s.reindex()
	return nil
}

// owned resolves id and checks ownership. Callers hold s.mu.
func (s *MessageStore) owned(id, requester string) (int, error) {
	pos, ok := s.index[id]
	if !ok {
		return 0, fmt.Errorf("message %q: %w", id, domain.ErrNotFound)
	}
	if s.messages[pos].From != requester {
		return 0, fmt.Errorf("message %q: %w", id, domain.ErrUnauthorized)
	}
	return pos, nil
}

func (s *MessageStore) reindex() {
	s.index = lo.SliceToMap(lo.Range(len(s.messages)), func(i int) (string, int) {
		return s.messages[i].ID, i
	})
}

// Len returns the number of stored messages.
func (s *MessageStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}
