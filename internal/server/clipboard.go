package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/filedrop/filedrop/internal/clipboard"
)

// clipboardRequest is the JSON body for create and update.
type clipboardRequest struct {
	Text string `json:"text"`
}

// handleClipboard dispatches the clipboard CRUD operations.
func (s *Server) handleClipboard(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, http.StatusOK, s.clipboard.List())

	case http.MethodPost:
		s.clipboardCreate(w, r)

	case http.MethodPut:
		s.clipboardUpdate(w, r)

	case http.MethodDelete:
		s.clipboardDelete(w, r)

	case http.MethodOptions:
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "content-type")
		w.WriteHeader(http.StatusNoContent)

	default:
		s.jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// decodeText extracts the text field from the request body. A malformed
// body yields an empty string, which fails validation downstream.
func decodeText(r *http.Request) string {
	var req clipboardRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	return req.Text
}

func (s *Server) clipboardCreate(w http.ResponseWriter, r *http.Request) {
	item, err := s.clipboard.Create(decodeText(r))
	if err != nil {
		s.clipboardError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, item)
}

func (s *Server) clipboardUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		s.jsonError(w, "id required", http.StatusBadRequest)
		return
	}

	item, err := s.clipboard.Update(id, decodeText(r))
	if err != nil {
		s.clipboardError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, item)
}

func (s *Server) clipboardDelete(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		s.jsonError(w, "id required", http.StatusBadRequest)
		return
	}

	if err := s.clipboard.Delete(id); err != nil {
		s.clipboardError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// clipboardError maps clipboard store errors to HTTP status codes.
func (s *Server) clipboardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, clipboard.ErrEmptyText):
		s.jsonError(w, "text must not be empty", http.StatusBadRequest)
	case errors.Is(err, clipboard.ErrTextTooLong):
		s.jsonError(w, "text exceeds 10000 characters", http.StatusRequestEntityTooLarge)
	case errors.Is(err, clipboard.ErrNotFound):
		s.jsonError(w, "item not found", http.StatusNotFound)
	default:
		s.jsonError(w, "clipboard operation failed", http.StatusInternalServerError)
	}
}
