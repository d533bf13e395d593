// Package store persists the word collection as a single JSON snapshot
// under one string key.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"codeberg.org/snonux/hanzicards/internal/vocab"
)

// DefaultKey is the key the collection is stored under.
const DefaultKey = "chinese-words"

// ErrLoad means a stored snapshot could not be read or decoded.
var ErrLoad = errors.New("failed to load word collection")

// Store is a string-keyed value store.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}

// Config selects and configures a backend
type Config struct {
	Backend string // "file" or "sqlite"
	Path    string // directory for file, database file for sqlite
}

// Open creates the backend named by config.
func Open(config Config) (Store, error) {
	switch config.Backend {
	case "file", "":
		return NewFileStore(config.Path)
	case "sqlite":
		return NewSQLiteStore(config.Path)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", config.Backend)
	}
}

// Load reads the collection stored under key. It never fails: a missing
// key yields an empty collection and an unreadable one is logged as
// ErrLoad and treated as empty.
func Load(s Store, key string, logger *slog.Logger) []vocab.Word {
	if logger == nil {
		logger = slog.Default()
	}

	raw, ok, err := s.Get(key)
	if err != nil {
		logger.Error("reading stored words", slog.String("key", key),
			slog.Any("error", fmt.Errorf("%w: %w", ErrLoad, err)))
		return []vocab.Word{}
	}
	if !ok || raw == "" {
		return []vocab.Word{}
	}

	words, err := Decode([]byte(raw))
	if err != nil {
		logger.Error("decoding stored words", slog.String("key", key), slog.Any("error", err))
		return []vocab.Word{}
	}
	return words
}

// Save writes words under key, replacing the previous snapshot.
func Save(s Store, key string, words []vocab.Word) error {
	data, err := Encode(words)
	if err != nil {
		return err
	}
	if err := s.Set(key, string(data)); err != nil {
		return fmt.Errorf("failed to save word collection: %w", err)
	}
	return nil
}

// Encode serializes words as a JSON array. A nil slice encodes as [].
func Encode(words []vocab.Word) ([]byte, error) {
	if words == nil {
		words = []vocab.Word{}
	}
	data, err := json.Marshal(words)
	if err != nil {
		return nil, fmt.Errorf("failed to encode word collection: %w", err)
	}
	return data, nil
}

// Decode parses a JSON array of words.
func Decode(data []byte) ([]vocab.Word, error) {
	var words []vocab.Word
	if err := json.Unmarshal(data, &words); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	if words == nil {
		words = []vocab.Word{}
	}
	return words, nil
}
