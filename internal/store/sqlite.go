package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/linqiu/polychat/backend/internal/model/chat"
)

// SQLiteStore persists messages in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath and ensures the
// schema exists. The parent directory is created as needed.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/polychat.db"
	}

	if dir := filepath.Dir(dbPath); dir != "" && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// initSchema creates the messages table if it does not exist. seq gives a
// stable total order even when two rows share a created_at value.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT NOT NULL UNIQUE,
		user_id    TEXT NOT NULL,
		model_tag  TEXT NOT NULL,
		role       TEXT NOT NULL,
		content    TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_messages_user_created ON messages(user_id, created_at);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Append inserts a new row, assigning id and timestamp.
func (s *SQLiteStore) Append(ctx context.Context, msg chat.Message) (chat.Message, error) {
	msg.ID = uuid.NewString()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, user_id, model_tag, role, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.UserID, msg.ModelTag, string(msg.Role), msg.Content, msg.CreatedAt,
	)
	if err != nil {
		return chat.Message{}, fmt.Errorf("failed to insert message: %w", err)
	}
	return msg, nil
}

// History returns the user's oldest messages, ascending, capped at limit.
func (s *SQLiteStore) History(ctx context.Context, userID string, limit int) ([]chat.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, model_tag, role, content, created_at
		 FROM messages WHERE user_id = ?
		 ORDER BY created_at ASC, seq ASC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// Recent returns the user's newest n messages in ascending order.
func (s *SQLiteStore) Recent(ctx context.Context, userID string, n int) ([]chat.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, model_tag, role, content, created_at FROM (
			SELECT seq, id, user_id, model_tag, role, content, created_at
			FROM messages WHERE user_id = ?
			ORDER BY created_at DESC, seq DESC LIMIT ?
		 ) ORDER BY created_at ASC, seq ASC`,
		userID, n,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// Delete removes the row only when the caller owns it.
func (s *SQLiteStore) Delete(ctx context.Context, userID, messageID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM messages WHERE id = ? AND user_id = ?`,
		messageID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// Ping reports database reachability.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanMessages(rows *sql.Rows) ([]chat.Message, error) {
	messages := make([]chat.Message, 0, 16)
	for rows.Next() {
		var msg chat.Message
		var role string
		if err := rows.Scan(&msg.ID, &msg.UserID, &msg.ModelTag, &role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Role = chat.Role(role)
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return messages, nil
}
