package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError(`"to" is required`, `"text" is required`)

	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), `"to" is required`)
	assert.Contains(t, err.Error(), `"text" is required`)

	wrapped := fmt.Errorf("post message: %w", err)
	assert.ErrorIs(t, wrapped, ErrValidation)
}

func TestNewBackingStoreError(t *testing.T) {
	assert.NoError(t, NewBackingStoreError("join", nil))

	// Domain errors pass through untouched.
	assert.Same(t, ErrConflict, NewBackingStoreError("join", ErrConflict))
	notFound := fmt.Errorf("heartbeat: %w", ErrNotFound)
	assert.Equal(t, notFound, NewBackingStoreError("heartbeat", notFound))

	io := errors.New("connection refused")
	err := NewBackingStoreError("list", io)
	assert.True(t, IsBackingStore(err))
	assert.ErrorIs(t, err, io)
	assert.Contains(t, err.Error(), "list")

	// Already wrapped errors are not wrapped twice.
	assert.Same(t, err, NewBackingStoreError("again", err))
}

func TestParticipant_Expired(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p := Participant{Name: "ana", LastHeartbeat: now}

	assert.False(t, p.Expired(now.Add(9*time.Second), 10*time.Second))
	assert.True(t, p.Expired(now.Add(10*time.Second), 10*time.Second), "threshold is inclusive")
	assert.True(t, p.Expired(now.Add(16*time.Second), 10*time.Second))
}

func TestNewStatusMessage(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 5, 7, 999, time.UTC)

	m := NewStatusMessage("bob", LeaveText, now)

	assert.Equal(t, Message{From: "bob", To: Broadcast, Text: "sai da sala...", Type: TypeStatus, Time: "09:05:07"}, m)
}

func TestMessageType_UserSendable(t *testing.T) {
	assert.True(t, TypeMessage.UserSendable())
	assert.True(t, TypePrivate.UserSendable())
	assert.False(t, TypeStatus.UserSendable())
	assert.False(t, MessageType("shout").UserSendable())
}
