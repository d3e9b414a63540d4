package client

import (
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/linqiu/polychat/backend/internal/model/chat"
)

// OptimisticIDPrefix marks client-local message ids. Ids with this prefix
// never exist server-side and are never offered for deletion.
const OptimisticIDPrefix = "temp-user-"

var (
	ErrEmptyInput   = errors.New("input is empty")
	ErrSendInFlight = errors.New("a send is already in flight")
)

// Theme is the visual theme selection carried in the UI state.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Timeline is the client's view of the conversation: the last confirmed
// server history plus at most one pending optimistic message, together
// with the typing flag and theme. It is a pure state machine with no
// network awareness; Session drives it.
type Timeline struct {
	mu        sync.Mutex
	confirmed []chat.Message
	pending   *chat.Message
	typing    bool
	lastErr   error
	theme     Theme
}

// NewTimeline returns an empty timeline in the light theme.
func NewTimeline() *Timeline {
	return &Timeline{theme: ThemeLight}
}

// Messages returns the display order: confirmed history followed by the
// pending optimistic message, if any.
func (t *Timeline) Messages() []chat.Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]chat.Message, len(t.confirmed), len(t.confirmed)+1)
	copy(out, t.confirmed)
	if t.pending != nil {
		out = append(out, *t.pending)
	}
	return out
}

// Typing reports whether a send is in flight.
func (t *Timeline) Typing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.typing
}

// Err returns the error of the last failed send, cleared by the next
// successful stage or resolve.
func (t *Timeline) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}

// Theme returns the current theme.
func (t *Timeline) Theme() Theme {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.theme
}

// SetTheme switches the visual theme.
func (t *Timeline) SetTheme(theme Theme) {
	t.mu.Lock()
	t.theme = theme
	t.mu.Unlock()
}

// Stage validates the input and records the optimistic message for an
// outgoing send. It rejects empty or whitespace-only input and refuses a
// second send while one is pending.
func (t *Timeline) Stage(modelTag, prompt string) (chat.Message, error) {
	if strings.TrimSpace(prompt) == "" {
		return chat.Message{}, ErrEmptyInput
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.typing {
		return chat.Message{}, ErrSendInFlight
	}

	now := time.Now().UTC()
	msg := chat.Message{
		ID:        OptimisticIDPrefix + strconv.FormatInt(now.UnixMilli(), 10),
		UserID:    "current-user",
		ModelTag:  modelTag,
		Role:      chat.RoleUser,
		Content:   prompt,
		CreatedAt: now,
	}

	t.pending = &msg
	t.typing = true
	t.lastErr = nil
	return msg, nil
}

// Resolve completes an in-flight send: the optimistic message is replaced,
// never merged, by the authoritative history.
func (t *Timeline) Resolve(history []chat.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.confirmed = append([]chat.Message(nil), history...)
	t.pending = nil
	t.typing = false
	t.lastErr = nil
}

// Fail discards the optimistic message and surfaces a retryable error.
// The input text is not restored; retyping is deliberate.
func (t *Timeline) Fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pending = nil
	t.typing = false
	t.lastErr = err
}

// SetConfirmed replaces the confirmed history without touching an
// in-flight send, for background refreshes.
func (t *Timeline) SetConfirmed(history []chat.Message) {
	t.mu.Lock()
	t.confirmed = append([]chat.Message(nil), history...)
	t.mu.Unlock()
}

// CanDelete reports whether the message may be offered for deletion:
// only persisted user messages qualify, never the optimistic placeholder
// and never assistant replies.
func (t *Timeline) CanDelete(msg chat.Message) bool {
	return msg.Role == chat.RoleUser && !strings.HasPrefix(msg.ID, OptimisticIDPrefix)
}

// Reset clears all state, for mount and logout.
func (t *Timeline) Reset() {
	t.mu.Lock()
	t.confirmed = nil
	t.pending = nil
	t.typing = false
	t.lastErr = nil
	t.theme = ThemeLight
	t.mu.Unlock()
}
