// Package store provides the directory-backed object store: uploads land as
// flat files in a single directory, metadata is derived on read, and every
// mutation publishes a store-changed event.
package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/filedrop/filedrop/internal/notify"
)

// Store error types.
var (
	ErrNotFound    = errors.New("file not found")
	ErrInvalidName = errors.New("invalid file name")
)

// ClipboardDocName is the clipboard document co-located in the store
// directory and excluded from listings.
const ClipboardDocName = ".clipboard.json"

// SortKey selects the listing order.
type SortKey string

// Supported sort keys.
const (
	SortNewest   SortKey = "newest"
	SortOldest   SortKey = "oldest"
	SortName     SortKey = "name"
	SortLargest  SortKey = "largest"
	SortSmallest SortKey = "smallest"
)

// ParseSortKey maps a query-parameter value to a SortKey, falling back to
// newest-first for unknown or empty values.
func ParseSortKey(s string) SortKey {
	switch SortKey(s) {
	case SortOldest, SortName, SortLargest, SortSmallest:
		return SortKey(s)
	default:
		return SortNewest
	}
}

// Entry describes one stored object in a listing or upload response.
type Entry struct {
	Filename   string `json:"filename"`
	URL        string `json:"url"`
	Size       int64  `json:"size"`
	Format     string `json:"format"`
	UploadTime string `json:"uploadTime"`

	modTime time.Time
}

// Store persists and retrieves files in a single flat directory.
type Store struct {
	dir      string
	notifier *notify.Hub
}

// New creates a store rooted at dir. The directory itself is created lazily
// on first write. The notifier may be nil, in which case mutations publish
// nothing.
func New(dir string, notifier *notify.Hub) *Store {
	return &Store{dir: dir, notifier: notifier}
}

// Dir returns the store directory path.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) publish() {
	if s.notifier != nil {
		s.notifier.Publish(notify.EventFiles)
	}
}

func (s *Store) ensureDir() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	return nil
}

// PublicPath builds the public access path for a stored filename.
func PublicPath(name string) string {
	return "/files/" + url.PathEscape(name)
}

// ValidName reports whether name is a bare filename: non-empty, no
// traversal sequences, no path separators.
func ValidName(name string) bool {
	if name == "" {
		return false
	}
	if strings.Contains(name, "..") {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

// Put writes the reader's contents to a freshly generated destination name
// derived from originalName and publishes a store-changed event. It returns
// the stored entry with its generated name and public path.
func (s *Store) Put(originalName string, r io.Reader) (Entry, error) {
	if err := s.ensureDir(); err != nil {
		return Entry{}, err
	}

	dest := DestinationName(originalName, time.Now())
	path := filepath.Join(s.dir, dest)

	f, err := os.Create(path)
	if err != nil {
		return Entry{}, fmt.Errorf("create %s: %w", dest, err)
	}
	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// Partial write: remove the destination so no truncated file is listed.
		_ = os.Remove(path)
		return Entry{}, fmt.Errorf("write %s: %w", dest, err)
	}

	log.Info().Str("file", dest).Int64("size", size).Msg("stored upload")
	s.publish()

	return Entry{
		Filename:   dest,
		URL:        PublicPath(dest),
		Size:       size,
		Format:     formatOf(dest),
		UploadTime: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// isHousekeeping reports whether a directory entry is store housekeeping
// rather than an uploaded object: the clipboard document, OS metadata files,
// partial-download leftovers, and editor lock files.
func isHousekeeping(name string) bool {
	switch name {
	case ClipboardDocName, ".DS_Store", "Thumbs.db", "desktop.ini":
		return true
	}
	for _, suffix := range []string{".part", ".crdownload", ".download", ".tmp"} {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	if strings.HasPrefix(name, ".~lock.") && strings.HasSuffix(name, "#") {
		return true
	}
	return strings.HasPrefix(name, "~$")
}

// List enumerates the store directory sorted by key. Listing never fails:
// read errors are logged and reported as an empty list.
func (s *Store) List(key SortKey) []Entry {
	dirents, err := os.ReadDir(s.dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("dir", s.dir).Msg("listing store directory failed")
		}
		return []Entry{}
	}

	entries := make([]Entry, 0, len(dirents))
	for _, de := range dirents {
		name := de.Name()
		if de.IsDir() || isHousekeeping(name) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			log.Warn().Err(err).Str("file", name).Msg("skipping unreadable entry")
			continue
		}
		entries = append(entries, Entry{
			Filename:   name,
			URL:        PublicPath(name),
			Size:       info.Size(),
			Format:     formatOf(name),
			UploadTime: info.ModTime().UTC().Format(time.RFC3339),
			modTime:    info.ModTime(),
		})
	}

	sortEntries(entries, key)
	return entries
}

// sortEntries orders a listing in place. Filename is the tie-breaker so
// listings are stable across calls.
func sortEntries(entries []Entry, key SortKey) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		switch key {
		case SortOldest:
			if !a.modTime.Equal(b.modTime) {
				return a.modTime.Before(b.modTime)
			}
		case SortName:
			return a.Filename < b.Filename
		case SortLargest:
			if a.Size != b.Size {
				return a.Size > b.Size
			}
		case SortSmallest:
			if a.Size != b.Size {
				return a.Size < b.Size
			}
		default: // SortNewest
			if !a.modTime.Equal(b.modTime) {
				return a.modTime.After(b.modTime)
			}
		}
		return a.Filename < b.Filename
	})
}

// Fetch reads a stored object and resolves its content type. Traversal
// attempts, missing entries, and non-regular files all report ErrNotFound.
func (s *Store) Fetch(name string) ([]byte, string, error) {
	if !ValidName(name) {
		return nil, "", ErrNotFound
	}

	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, "", ErrNotFound
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("read %s: %w", name, err)
	}
	return data, ContentTypeFor(name), nil
}

// Delete removes a stored object and publishes a store-changed event.
// Malformed names report ErrInvalidName; absent entries report ErrNotFound.
func (s *Store) Delete(name string) error {
	if !ValidName(name) {
		return ErrInvalidName
	}

	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete %s: %w", name, err)
	}

	log.Info().Str("file", name).Msg("deleted file")
	s.publish()
	return nil
}
