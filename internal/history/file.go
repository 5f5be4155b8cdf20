package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"

	"github.com/comigor/gptchat/internal/chat"
	"github.com/comigor/gptchat/internal/logger"
)

// FileStore keeps each transcript in its own JSON file. Keys are file paths.
type FileStore struct {
	dir string // where new sessions are created
}

// NewFileStore creates a store that starts new sessions in dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// NewKey returns "<dir>/<unix seconds>-<8 hex>.json".
func (s *FileStore) NewKey(now time.Time) string {
	return filepath.Join(s.dir, sessionName(now)+".json")
}

// Load reads the transcript at key. A missing file yields chat.ErrNotFound.
func (s *FileStore) Load(_ context.Context, key string) ([]chat.Message, error) {
	b, err := os.ReadFile(key)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", chat.ErrNotFound, key)
	} else if err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}
	msgs, err := decodeTranscript(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return msgs, nil
}

// Save atomically replaces the file at key with msgs.
func (s *FileStore) Save(_ context.Context, key string, msgs []chat.Message) error {
	b, err := encodeTranscript(msgs)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if dir := filepath.Dir(key); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create history dir: %w", err)
		}
	}
	if err := renameio.WriteFile(key, b, 0o644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	logger.L.Debug("history file written", "path", key, "messages", len(msgs))
	return nil
}

// Close is a no-op; files are not held open.
func (s *FileStore) Close() error { return nil }

func encodeTranscript(msgs []chat.Message) ([]byte, error) {
	if msgs == nil {
		msgs = []chat.Message{}
	}
	return json.MarshalIndent(msgs, "", "  ")
}

func decodeTranscript(b []byte) ([]chat.Message, error) {
	if !bytes.HasPrefix(bytes.TrimSpace(b), []byte("[")) {
		return nil, fmt.Errorf("%w: expected a JSON array of messages", chat.ErrMalformedHistory)
	}
	var msgs []chat.Message
	if err := json.Unmarshal(b, &msgs); err != nil {
		if errors.Is(err, chat.ErrMalformedHistory) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", chat.ErrMalformedHistory, err)
	}
	return msgs, nil
}
