package chat

import (
	"context"
	"log"
	"strings"

	"github.com/linqiu/polychat/backend/internal/model/chat"
	"github.com/linqiu/polychat/backend/internal/store"
)

const (
	// DefaultHistoryLimit caps history reads when the caller supplies no limit.
	DefaultHistoryLimit = 100
	// DefaultContextWindow is how many recent messages feed a generation call.
	DefaultContextWindow = 20
)

// Generator produces text for a model tag and an ordered context window.
type Generator interface {
	Generate(ctx context.Context, modelTag string, turns []chat.Turn) (string, error)
}

// Service is the authenticated request pipeline: it owns the three
// conversation operations and composes the store and the generator.
// All store access inside one call is scoped to the user id resolved
// from that call's credential.
type Service struct {
	store     store.MessageStore
	generator Generator
	window    int
}

// NewService wires the dispatcher. A non-positive window falls back to
// DefaultContextWindow.
func NewService(messageStore store.MessageStore, generator Generator, window int) *Service {
	if window <= 0 {
		window = DefaultContextWindow
	}
	return &Service{store: messageStore, generator: generator, window: window}
}

// History returns up to limit of the caller's messages, oldest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]chat.Message, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	messages, err := s.store.History(ctx, userID, limit)
	if err != nil {
		return nil, storeUnavailable("failed to read history", err)
	}
	return messages, nil
}

// Send runs the critical path: persist the user turn, assemble context,
// invoke the model, persist the assistant turn, return the generated text.
//
// Failure exits, in order: InvalidArgument before anything is written;
// StoreUnavailable on the first write with nothing persisted;
// GenerationFailed with the user turn retained; StoreUnavailable on the
// second write with the user turn retained and the generated text carried
// in the error message. Nothing is retried here.
func (s *Service) Send(ctx context.Context, userID, modelTag, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", invalidArgument("prompt must not be empty")
	}
	if strings.TrimSpace(modelTag) == "" {
		return "", invalidArgument("model tag must not be empty")
	}

	userMsg, err := s.store.Append(ctx, chat.Message{
		UserID:   userID,
		ModelTag: modelTag,
		Role:     chat.RoleUser,
		Content:  prompt,
	})
	if err != nil {
		// The model is never invoked on an unpersisted prompt.
		return "", storeUnavailable("failed to persist prompt", err)
	}
	log.Printf("[send] user=%s model=%s message=%s persisted", userID, modelTag, userMsg.ID)

	// Read back the window rather than reuse local state so the context
	// reflects whatever the store holds now, including the row just written.
	recent, err := s.store.Recent(ctx, userID, s.window)
	if err != nil {
		return "", storeUnavailable("failed to read context window", err)
	}

	turns := BuildTurns(recent, prompt, s.window)

	content, err := s.generator.Generate(ctx, modelTag, turns)
	if err != nil {
		// The user turn stays; resending is a caller decision.
		return "", generationFailed(err)
	}

	if _, err := s.store.Append(ctx, chat.Message{
		UserID:   userID,
		ModelTag: modelTag,
		Role:     chat.RoleAssistant,
		Content:  content,
	}); err != nil {
		// Surface the generated text so it is not silently lost.
		return "", storeUnavailable("failed to persist reply (generated text: "+content+")", err)
	}
	log.Printf("[send] user=%s model=%s reply persisted, length=%d", userID, modelTag, len(content))

	return content, nil
}

// Delete removes the caller's message. An id that does not exist or is
// owned by someone else deletes nothing and still succeeds, so existence
// never leaks across users.
func (s *Service) Delete(ctx context.Context, userID, messageID string) error {
	if err := s.store.Delete(ctx, userID, messageID); err != nil {
		return storeUnavailable("failed to delete message", err)
	}
	return nil
}
