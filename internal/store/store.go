package store

import (
	"context"

	"github.com/linqiu/polychat/backend/internal/model/chat"
)

// MessageStore is the persistence gateway for conversation rows. Every
// operation is scoped by the owning user id; cross-user access is not
// expressible through this interface.
type MessageStore interface {
	// Append persists a new message, assigning its id and timestamp, and
	// returns the stored row.
	Append(ctx context.Context, msg chat.Message) (chat.Message, error)
	// History returns up to limit of the user's oldest messages in
	// ascending created_at order.
	History(ctx context.Context, userID string, limit int) ([]chat.Message, error)
	// Recent returns up to n of the user's newest messages, still in
	// ascending created_at order.
	Recent(ctx context.Context, userID string, n int) ([]chat.Message, error)
	// Delete removes the message with the given id if the user owns it.
	// A missing or foreign id is a no-op, not an error.
	Delete(ctx context.Context, userID, messageID string) error
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases the backend.
	Close() error
}
