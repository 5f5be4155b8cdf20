package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/comigor/gptchat/internal/chat"
	"github.com/comigor/gptchat/internal/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    UNIQUE (session_id, position)
);`

// SQLiteStore keeps every transcript in one SQLite database. Keys are
// session ids.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed creates) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(10000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("sqlite open failed: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema creation failed: %w", err)
	}
	logger.L.Info("sqlite history DB initialized", "path", path)
	return &SQLiteStore{db: db}, nil
}

// NewKey returns "<unix seconds>-<8 hex>".
func (s *SQLiteStore) NewKey(now time.Time) string {
	return sessionName(now)
}

// Load returns the messages of a session in order. An unknown session yields
// chat.ErrNotFound; a known session may be empty.
func (s *SQLiteStore) Load(ctx context.Context, key string) ([]chat.Message, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?;`, key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session %s", chat.ErrNotFound, key)
	} else if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT role, content FROM messages WHERE session_id = ? ORDER BY position ASC;`, key)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	out := []chat.Message{}
	for rows.Next() {
		var rawRole, content string
		if err := rows.Scan(&rawRole, &content); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		role, err := chat.ParseRole(rawRole)
		if err != nil {
			return nil, fmt.Errorf("session %s: %w", key, err)
		}
		out = append(out, chat.NewMessage(role, content))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return out, nil
}

// Save replaces the messages of a session inside a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, key string, msgs []chat.Message) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				logger.L.Warn("sqlite rollback failed", "error", rerr)
			}
		}
	}()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err = tx.ExecContext(ctx, `INSERT INTO sessions (id, updated_at) VALUES (?, ?)
        ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at;`, key, now); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?;`, key); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	for i, m := range msgs {
		if _, err = tx.ExecContext(ctx, `INSERT INTO messages (session_id, position, role, content) VALUES (?, ?, ?, ?);`,
			key, i, m.Role().String(), m.Content()); err != nil {
			return fmt.Errorf("failed to store message %d: %w", i, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit messages: %w", err)
	}
	logger.L.Debug("sqlite history written", "session", key, "messages", len(msgs))
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
