package store_test

import (
	"context"
	"path/filepath"
	"testing"

	model "github.com/linqiu/polychat/backend/internal/model/chat"
	"github.com/linqiu/polychat/backend/internal/store"
)

func newSQLiteStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore err: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func appendMsg(t *testing.T, s store.MessageStore, userID string, role model.Role, content string) model.Message {
	t.Helper()
	msg, err := s.Append(context.Background(), model.Message{
		UserID:   userID,
		ModelTag: "gemini-2.0-flash",
		Role:     role,
		Content:  content,
	})
	if err != nil {
		t.Fatalf("Append err: %v", err)
	}
	return msg
}

func TestSQLiteHistoryOrderAndLimit(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	for _, content := range []string{"a", "b", "c", "d"} {
		appendMsg(t, s, "user-1", model.RoleUser, content)
	}

	history, err := s.History(ctx, "user-1", 3)
	if err != nil {
		t.Fatalf("History err: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(history))
	}
	// Oldest first, even when rows share a created_at value.
	if history[0].Content != "a" || history[1].Content != "b" || history[2].Content != "c" {
		t.Fatalf("unexpected order: %+v", history)
	}
}

func TestSQLiteRecentReturnsNewestAscending(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	for _, content := range []string{"a", "b", "c", "d"} {
		appendMsg(t, s, "user-1", model.RoleUser, content)
	}

	recent, err := s.Recent(ctx, "user-1", 2)
	if err != nil {
		t.Fatalf("Recent err: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(recent))
	}
	if recent[0].Content != "c" || recent[1].Content != "d" {
		t.Fatalf("unexpected window: %+v", recent)
	}
}

func TestSQLiteScopesReadsByUser(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	appendMsg(t, s, "user-1", model.RoleUser, "mine")
	appendMsg(t, s, "user-2", model.RoleUser, "theirs")

	history, err := s.History(ctx, "user-1", 100)
	if err != nil {
		t.Fatalf("History err: %v", err)
	}
	if len(history) != 1 || history[0].Content != "mine" {
		t.Fatalf("leaked rows across users: %+v", history)
	}
}

func TestSQLiteDeleteRequiresOwnership(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	msg := appendMsg(t, s, "user-1", model.RoleUser, "mine")

	if err := s.Delete(ctx, "user-2", msg.ID); err != nil {
		t.Fatalf("Delete err: %v", err)
	}
	history, _ := s.History(ctx, "user-1", 100)
	if len(history) != 1 {
		t.Fatal("foreign delete removed a row")
	}

	if err := s.Delete(ctx, "user-1", msg.ID); err != nil {
		t.Fatalf("Delete err: %v", err)
	}
	history, _ = s.History(ctx, "user-1", 100)
	if len(history) != 0 {
		t.Fatal("owner delete left the row behind")
	}
}

func TestSQLiteDeleteMissingIDIsNoOp(t *testing.T) {
	s := newSQLiteStore(t)

	if err := s.Delete(context.Background(), "user-1", "does-not-exist"); err != nil {
		t.Fatalf("Delete err: %v", err)
	}
}
