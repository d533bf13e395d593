// Package library holds the in-memory word collection and writes it
// through to a store after every accepted change.
package library

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/aretw0/introspection"

	"codeberg.org/snonux/hanzicards/internal/store"
	"codeberg.org/snonux/hanzicards/internal/vocab"
)

var (
	// ErrDuplicate is returned when a character is already in the collection.
	ErrDuplicate = errors.New("word already exists")
	// ErrInvalidWord is returned for words missing required fields.
	ErrInvalidWord = errors.New("invalid word")
	// ErrNotFound is returned when no word matches an id or character.
	ErrNotFound = errors.New("word not found")
)

// Library is the word collection. Words are ordered newest first and no
// two share a character.
type Library struct {
	mu     sync.Mutex
	words  []vocab.Word
	store  store.Store
	key    string
	logger *slog.Logger

	saves     int
	lastError error
}

var (
	_ introspection.Introspectable = (*Library)(nil)
	_ introspection.Component      = (*Library)(nil)
)

// Open loads the collection stored under key. A missing or unreadable
// snapshot starts an empty library.
func Open(s store.Store, key string, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.Default()
	}
	if key == "" {
		key = store.DefaultKey
	}

	words := dedupe(store.Load(s, key, logger))
	logger.Debug("library loaded", slog.String("key", key), slog.Int("words", len(words)))

	return &Library{
		words:  words,
		store:  s,
		key:    key,
		logger: logger,
	}
}

// Words returns a copy of the collection
func (l *Library) Words() []vocab.Word {
	l.mu.Lock()
	defer l.mu.Unlock()
	words := make([]vocab.Word, len(l.words))
	copy(words, l.words)
	return words
}

// Len returns the number of words
func (l *Library) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.words)
}

// Characters returns the set of characters currently stored
func (l *Library) Characters() map[string]struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return vocab.Characters(l.words)
}

// Add validates a manually entered word and prepends it.
func (l *Library) Add(word vocab.Word) (vocab.Word, error) {
	word.Character = strings.TrimSpace(word.Character)
	word.Meaning = strings.TrimSpace(word.Meaning)
	if word.Character == "" {
		return vocab.Word{}, fmt.Errorf("%w: character is required", ErrInvalidWord)
	}
	if word.Meaning == "" {
		return vocab.Word{}, fmt.Errorf("%w: meaning is required", ErrInvalidWord)
	}
	if word.ID == "" {
		word = vocab.NewWord(word.Character, word.Details())
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := vocab.Characters(l.words)[word.Character]; exists {
		return vocab.Word{}, fmt.Errorf("%w: %s", ErrDuplicate, word.Character)
	}

	l.words = append([]vocab.Word{word}, l.words...)
	return word, l.saveLocked()
}

// Merge prepends the words whose character is not yet stored, keeping
// their relative order. The filter runs against the state at merge time,
// so words added while an enrichment was in flight are not duplicated.
// It returns the words actually added.
func (l *Library) Merge(incoming []vocab.Word) ([]vocab.Word, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	existing := vocab.Characters(l.words)
	added := make([]vocab.Word, 0, len(incoming))
	for _, w := range incoming {
		if w.Character == "" {
			continue
		}
		if _, ok := existing[w.Character]; ok {
			continue
		}
		existing[w.Character] = struct{}{}
		added = append(added, w)
	}
	if len(added) == 0 {
		return added, nil
	}

	l.words = append(added, l.words...)
	return added, l.saveLocked()
}

// Remove deletes the word whose id or character equals ref.
func (l *Library) Remove(ref string) (vocab.Word, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexLocked(ref)
	if i < 0 {
		return vocab.Word{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}

	removed := l.words[i]
	l.words = append(l.words[:i:i], l.words[i+1:]...)
	return removed, l.saveLocked()
}

// Find returns the word whose id or character equals ref.
func (l *Library) Find(ref string) (vocab.Word, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i := l.indexLocked(ref); i >= 0 {
		return l.words[i], true
	}
	return vocab.Word{}, false
}

func (l *Library) indexLocked(ref string) int {
	ref = strings.TrimSpace(ref)
	for i, w := range l.words {
		if w.ID == ref || w.Character == ref {
			return i
		}
	}
	return -1
}

func (l *Library) saveLocked() error {
	err := store.Save(l.store, l.key, l.words)
	l.lastError = err
	if err != nil {
		l.logger.Error("saving library", slog.String("key", l.key), slog.Any("error", err))
		return err
	}
	l.saves++
	return nil
}

// dedupe keeps the first word for each character.
func dedupe(words []vocab.Word) []vocab.Word {
	seen := make(map[string]struct{}, len(words))
	out := make([]vocab.Word, 0, len(words))
	for _, w := range words {
		if _, ok := seen[w.Character]; ok {
			continue
		}
		seen[w.Character] = struct{}{}
		out = append(out, w)
	}
	return out
}
