package store

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// maxNameRunes caps the sanitized base name length, counted in runes so
// multi-byte names are not cut mid-character.
const maxNameRunes = 100

// placeholderName replaces names that sanitize down to nothing.
const placeholderName = "file"

// unsafeChars are replaced with '_' to keep names valid on common
// filesystems (Windows included) and free of path separators.
const unsafeChars = `\/:*?"<>|`

// replaceUnsafe substitutes filesystem-unsafe characters and control
// characters with underscores.
func replaceUnsafe(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(unsafeChars, r) {
			return '_'
		}
		return r
	}, s)
}

// Sanitize turns an arbitrary client-supplied name into a safe on-disk base
// name. Unicode is preserved (normalized to NFC); unsafe and control
// characters become underscores; whitespace runs collapse to single spaces;
// the result is trimmed and capped at 100 runes. Names that end up empty or
// dot-only are replaced with a fixed placeholder.
func Sanitize(name string) string {
	s := norm.NFC.String(name)
	s = replaceUnsafe(s)
	s = strings.Join(strings.Fields(s), " ")

	if runes := []rune(s); len(runes) > maxNameRunes {
		s = strings.TrimSpace(string(runes[:maxNameRunes]))
	}

	if s == "" || strings.Trim(s, ".") == "" {
		return placeholderName
	}
	return s
}

// DestinationName builds the on-disk name for an upload: the sanitized base,
// an underscore, the upload timestamp in milliseconds, then the original
// extension. Two uploads of the same base name collide only when they land
// in the same millisecond.
func DestinationName(originalName string, now time.Time) string {
	ext := filepath.Ext(originalName)
	base := strings.TrimSuffix(originalName, ext)
	return fmt.Sprintf("%s_%d%s", Sanitize(base), now.UnixMilli(), replaceUnsafe(ext))
}
