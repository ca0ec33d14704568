// Package store keeps the ordered list of saved password entries and mirrors
// it, as one JSON blob, into a durable key-value medium.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jo-hoe/gopassgen/internal/backend/database"
)

const DefaultKey = "savedPasswords"

var ErrIndexOutOfRange = errors.New("entry index out of range")

// SavedEntry is immutable once stored.
type SavedEntry struct {
	Website      string `json:"website"`
	PasswordName string `json:"passwordName"`
	Password     string `json:"password"`
}

type Store struct {
	mu      sync.Mutex
	db      database.DatabaseService
	key     string
	entries []SavedEntry
}

// New creates an empty store persisting under key. Call Load to read the
// durable copy.
func New(db database.DatabaseService, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{
		db:      db,
		key:     key,
		entries: []SavedEntry{},
	}
}

// Load replaces the in-memory list with the durable copy. A missing,
// unreadable or malformed value yields an empty list; Load never fails.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = []SavedEntry{}

	data, err := s.db.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, database.ErrKeyNotFound) {
			slog.Warn("failed to read saved entries, starting empty", "key", s.key, "error", err)
		}
		return
	}

	var entries []SavedEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		slog.Warn("saved entries are malformed, starting empty", "key", s.key, "error", err)
		return
	}
	if entries != nil {
		s.entries = entries
	}
	slog.Info("loaded saved entries", "key", s.key, "count", len(s.entries))
}

// Save appends entry and persists the full list.
func (s *Store) Save(ctx context.Context, entry SavedEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := make([]SavedEntry, 0, len(s.entries)+1)
	updated = append(updated, s.entries...)
	updated = append(updated, entry)

	if err := s.persist(ctx, updated); err != nil {
		return fmt.Errorf("failed to save entry: %w", err)
	}
	s.entries = updated
	return nil
}

// Delete removes the entry at position index and persists the full list.
// An index outside the list returns ErrIndexOutOfRange and writes nothing.
func (s *Store) Delete(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.entries) {
		return fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, index, len(s.entries))
	}

	updated := make([]SavedEntry, 0, len(s.entries)-1)
	updated = append(updated, s.entries[:index]...)
	updated = append(updated, s.entries[index+1:]...)

	if err := s.persist(ctx, updated); err != nil {
		return fmt.Errorf("failed to delete entry %d: %w", index, err)
	}
	s.entries = updated
	return nil
}

// Entries returns a copy of the list in insertion order.
func (s *Store) Entries() []SavedEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SavedEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// persist overwrites the durable copy. The in-memory list is only swapped by
// the caller after this succeeds, so both copies stay identical.
func (s *Store) persist(ctx context.Context, entries []SavedEntry) error {
	data, err := Marshal(entries)
	if err != nil {
		return err
	}
	return s.db.Set(ctx, s.key, data)
}

// Marshal encodes entries in the persisted format. A nil list encodes as [].
func Marshal(entries []SavedEntry) ([]byte, error) {
	if entries == nil {
		entries = []SavedEntry{}
	}
	return json.Marshal(entries)
}
