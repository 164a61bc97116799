package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/filedrop/filedrop/internal/store"
)

// uploadResult is one element of the upload response body.
type uploadResult struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// handleUpload accepts one or more files from a multipart form and stores
// each independently. Individual failures do not roll back siblings already
// written.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes()); err != nil {
		s.jsonError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		// Accept a single file under legacy field names
		for _, key := range []string{"files", "image"} {
			if hs := r.MultipartForm.File[key]; len(hs) > 0 {
				headers = hs[:1]
				break
			}
		}
	}
	if len(headers) == 0 {
		s.jsonError(w, "no files provided", http.StatusBadRequest)
		return
	}

	results := make([]uploadResult, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			log.Warn().Err(err).Str("file", header.Filename).Msg("opening uploaded part failed")
			continue
		}
		entry, err := s.store.Put(header.Filename, f)
		_ = f.Close()
		if err != nil {
			log.Warn().Err(err).Str("file", header.Filename).Msg("storing upload failed")
			continue
		}
		s.metrics.BytesUploaded.Add(float64(entry.Size))
		results = append(results, uploadResult{Filename: entry.Filename, URL: entry.URL})
	}

	if len(results) == 0 {
		s.jsonError(w, "all uploads failed", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusCreated, results)
}

// handleFiles returns the store listing. It never fails: storage errors
// surface as an empty array.
func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	key := store.ParseSortKey(r.URL.Query().Get("sort"))
	s.writeJSON(w, http.StatusOK, s.store.List(key))
}

// handleFileByName serves GET and DELETE for /files/{name}.
func (s *Server) handleFileByName(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/files/")

	switch r.Method {
	case http.MethodGet:
		data, contentType, err := s.store.Fetch(name)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				s.jsonError(w, "file not found", http.StatusNotFound)
				return
			}
			s.jsonError(w, "reading file failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		_, _ = w.Write(data)
		s.metrics.BytesDownloaded.Add(float64(len(data)))

	case http.MethodDelete:
		s.deleteFile(w, name)

	default:
		s.jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleDeleteByQuery serves DELETE /api/delete?filename=<name>.
func (s *Server) handleDeleteByQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		s.jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := r.URL.Query().Get("filename")
	if name == "" {
		s.jsonError(w, "filename required", http.StatusBadRequest)
		return
	}
	s.deleteFile(w, name)
}

func (s *Server) deleteFile(w http.ResponseWriter, name string) {
	switch err := s.store.Delete(name); {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, store.ErrInvalidName):
		s.jsonError(w, "invalid filename", http.StatusBadRequest)
	case errors.Is(err, store.ErrNotFound):
		s.jsonError(w, "file not found", http.StatusNotFound)
	default:
		s.jsonError(w, "deleting file failed", http.StatusInternalServerError)
	}
}
