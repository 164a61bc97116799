// Package clipboard maintains the ordered list of text notes backed by a
// single JSON document in the store directory.
package clipboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/filedrop/filedrop/internal/notify"
	"github.com/filedrop/filedrop/internal/store"
)

// MaxTextLen is the maximum note length in characters after trimming.
const MaxTextLen = 10000

// Clipboard error types.
var (
	ErrEmptyText   = errors.New("text is empty")
	ErrTextTooLong = errors.New("text exceeds maximum length")
	ErrNotFound    = errors.New("clipboard item not found")
)

// Item is one clipboard note.
type Item struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store persists clipboard items as a whole-document JSON array, newest
// first. Mutations are serialized with an in-process mutex; cross-process
// writers remain last-writer-wins.
type Store struct {
	path     string
	notifier *notify.Hub
	mu       sync.Mutex
}

// New creates a clipboard store whose document lives inside the given store
// directory. The notifier may be nil.
func New(dir string, notifier *notify.Hub) *Store {
	return &Store{
		path:     filepath.Join(dir, store.ClipboardDocName),
		notifier: notifier,
	}
}

func (s *Store) publish() {
	if s.notifier != nil {
		s.notifier.Publish(notify.EventClipboard)
	}
}

// load reads the backing document. A missing or unparsable document
// degrades to an empty list; the store self-heals on the next save.
func (s *Store) load() []Item {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("path", s.path).Msg("reading clipboard document failed")
		}
		return []Item{}
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("clipboard document corrupt, treating as empty")
		return []Item{}
	}
	if items == nil {
		return []Item{}
	}
	return items
}

// save writes the whole list back to the document, creating the store
// directory if needed.
func (s *Store) save(items []Item) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode clipboard document: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write clipboard document: %w", err)
	}
	return nil
}

// validateText trims the input and enforces the length bounds.
func validateText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrEmptyText
	}
	if len([]rune(trimmed)) > MaxTextLen {
		return "", ErrTextTooLong
	}
	return trimmed, nil
}

// newID builds an item id from the creation time in base-36 milliseconds
// plus a random suffix: unique without coordination, roughly sortable by
// creation order.
func newID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return strconv.FormatInt(now.UnixMilli(), 36) + suffix
}

// List returns the current items, newest-created first. It never fails;
// read errors degrade to an empty list.
func (s *Store) List() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Create validates text, prepends a new item, persists the list, and
// publishes a clipboard-changed event.
func (s *Store) Create(text string) (Item, error) {
	trimmed, err := validateText(text)
	if err != nil {
		return Item{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	item := Item{
		ID:        newID(now),
		Text:      trimmed,
		CreatedAt: now,
		UpdatedAt: now,
	}

	items := append([]Item{item}, s.load()...)
	if err := s.save(items); err != nil {
		return Item{}, err
	}

	s.publish()
	return item, nil
}

// Update replaces an item's text and refreshes its updated timestamp,
// leaving its position and id unchanged.
func (s *Store) Update(id, text string) (Item, error) {
	trimmed, err := validateText(text)
	if err != nil {
		return Item{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.load()
	for i := range items {
		if items[i].ID != id {
			continue
		}
		items[i].Text = trimmed
		items[i].UpdatedAt = time.Now().UTC()
		if err := s.save(items); err != nil {
			return Item{}, err
		}
		s.publish()
		return items[i], nil
	}
	return Item{}, ErrNotFound
}

// Delete removes an item by id.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.load()
	next := items[:0:0]
	for _, item := range items {
		if item.ID != id {
			next = append(next, item)
		}
	}
	if len(next) == len(items) {
		return ErrNotFound
	}

	if err := s.save(next); err != nil {
		return err
	}
	s.publish()
	return nil
}
