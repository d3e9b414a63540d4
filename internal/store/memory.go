package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/linqiu/polychat/backend/internal/model/chat"
)

// MemoryStore keeps messages per user in process memory. It backs local
// development and tests; nothing survives a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	messages map[string][]chat.Message
}

// NewMemoryStore bootstraps an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{messages: make(map[string][]chat.Message)}
}

// Append adds a message to the owner's timeline.
func (s *MemoryStore) Append(_ context.Context, msg chat.Message) (chat.Message, error) {
	msg.ID = uuid.NewString()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	s.messages[msg.UserID] = append(s.messages[msg.UserID], msg)
	s.mu.Unlock()

	return msg, nil
}

// History returns the user's oldest messages, capped at limit.
func (s *MemoryStore) History(_ context.Context, userID string, limit int) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := s.messages[userID]
	if limit < len(messages) {
		messages = messages[:limit]
	}

	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}

// Recent returns the user's newest n messages in insertion order.
func (s *MemoryStore) Recent(_ context.Context, userID string, n int) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := s.messages[userID]
	if n < len(messages) {
		messages = messages[len(messages)-n:]
	}

	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}

// Delete removes the message if the caller owns it; otherwise a no-op.
func (s *MemoryStore) Delete(_ context.Context, userID, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := s.messages[userID]
	for i, msg := range messages {
		if msg.ID == messageID {
			s.messages[userID] = append(messages[:i:i], messages[i+1:]...)
			return nil
		}
	}
	return nil
}

// Ping always succeeds for the in-memory backend.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op for the in-memory backend.
func (s *MemoryStore) Close() error { return nil }
