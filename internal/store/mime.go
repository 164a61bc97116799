package store

import (
	"path/filepath"
	"strings"
)

// mimeTypes maps lower-cased extensions to content types for Fetch responses.
var mimeTypes = map[string]string{
	// Images
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
	"bmp":  "image/bmp",
	"svg":  "image/svg+xml",
	"ico":  "image/x-icon",

	// Documents
	"txt":  "text/plain; charset=utf-8",
	"md":   "text/markdown; charset=utf-8",
	"csv":  "text/csv; charset=utf-8",
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"ppt":  "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"rtf":  "application/rtf",

	// Audio / video
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"flac": "audio/flac",
	"aac":  "audio/aac",
	"ogg":  "audio/ogg",
	"m4a":  "audio/mp4",
	"mp4":  "video/mp4",
	"webm": "video/webm",
	"mov":  "video/quicktime",
	"avi":  "video/x-msvideo",
	"mkv":  "video/x-matroska",

	// Archives
	"zip": "application/zip",
	"rar": "application/vnd.rar",
	"7z":  "application/x-7z-compressed",
	"tar": "application/x-tar",
	"gz":  "application/gzip",
	"bz2": "application/x-bzip2",

	// Code / data
	"json": "application/json",
	"xml":  "application/xml",
	"js":   "text/javascript; charset=utf-8",
	"css":  "text/css; charset=utf-8",
	"html": "text/html; charset=utf-8",
}

// defaultContentType is used for unknown extensions.
const defaultContentType = "application/octet-stream"

// formatOf returns the lower-cased extension of a filename without the
// leading dot, or "" when the name has no extension.
func formatOf(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// ContentTypeFor resolves the content type for a filename from its
// extension, defaulting to application/octet-stream.
func ContentTypeFor(name string) string {
	if ct, ok := mimeTypes[formatOf(name)]; ok {
		return ct
	}
	return defaultContentType
}
