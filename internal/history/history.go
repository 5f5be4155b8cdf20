// Package history provides the storage backends for conversation transcripts.
//
// Two backends exist: plain JSON files, one per conversation (the default),
// and a single SQLite database holding every session.
package history

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/comigor/gptchat/internal/chat"
	"github.com/comigor/gptchat/internal/config"
)

// Backend names accepted in history.backend.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Store is a chat.Store that may hold resources.
type Store interface {
	chat.Store
	Close() error
}

// Open returns the backend selected by cfg.
func Open(cfg config.HistoryConfig) (Store, error) {
	switch cfg.Backend {
	case "", BackendFile:
		return NewFileStore(cfg.Dir), nil
	case BackendSQLite:
		return OpenSQLite(cfg.DBPath)
	default:
		return nil, fmt.Errorf("unsupported history backend %q (want %q or %q)", cfg.Backend, BackendFile, BackendSQLite)
	}
}

// sessionName is time based like "<unix seconds>-<8 hex>"; the random suffix
// keeps sessions started within the same second apart.
func sessionName(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.Unix(), uuid.NewString()[:8])
}
