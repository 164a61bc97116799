// Package server provides the HTTP surface of filedrop: upload, listing,
// fetch and delete for stored files, clipboard CRUD, and the live update
// stream that pushes change notifications to connected clients.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/filedrop/filedrop/internal/clipboard"
	"github.com/filedrop/filedrop/internal/config"
	"github.com/filedrop/filedrop/internal/notify"
	"github.com/filedrop/filedrop/internal/store"
)

// ErrorResponse is the JSON body for error replies.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Server is the filedrop HTTP server.
type Server struct {
	cfg       *config.Config
	mux       *http.ServeMux
	store     *store.Store
	clipboard *clipboard.Store
	notifier  *notify.Hub
	metrics   *Metrics
	httpSrv   *http.Server
	startTime time.Time
}

// NewServer creates a filedrop server from the given configuration.
func NewServer(cfg *config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hub := notify.NewHub()
	srv := &Server{
		cfg:       cfg,
		mux:       http.NewServeMux(),
		store:     store.New(cfg.DataDir, hub),
		clipboard: clipboard.New(cfg.DataDir, hub),
		notifier:  hub,
		metrics:   InitMetrics(nil),
		startTime: time.Now(),
	}

	srv.setupRoutes()
	return srv, nil
}

// Store returns the object store backing this server.
func (s *Server) Store() *store.Store {
	return s.store
}

// Clipboard returns the clipboard store backing this server.
func (s *Server) Clipboard() *clipboard.Store {
	return s.clipboard
}

// Notifier returns the change notification hub.
func (s *Server) Notifier() *notify.Hub {
	return s.notifier
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.Handler())

	s.mux.Handle("/api/upload", s.instrument("upload", http.HandlerFunc(s.handleUpload)))
	s.mux.Handle("/api/files", gzhttp.GzipHandler(s.instrument("list", http.HandlerFunc(s.handleFiles))))
	s.mux.Handle("/api/delete", s.instrument("delete", http.HandlerFunc(s.handleDeleteByQuery)))
	s.mux.Handle("/api/clipboard", gzhttp.GzipHandler(s.instrument("clipboard", http.HandlerFunc(s.handleClipboard))))
	s.mux.Handle("/files/", s.instrument("fetch", http.HandlerFunc(s.handleFileByName)))

	// Long-lived stream, not instrumented with request duration
	s.mux.HandleFunc("/api/events", s.handleEvents)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": time.Since(s.startTime).Round(time.Second).String(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("writing JSON response failed")
	}
}

func (s *Server) jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(code),
		Code:    code,
		Message: message,
	})
}

// ListenAndServe starts the server and blocks until Shutdown or failure.
func (s *Server) ListenAndServe() error {
	s.httpSrv = &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s,
	}
	log.Info().Str("listen", s.cfg.Listen).Str("data_dir", s.cfg.DataDir).Msg("starting filedrop server")
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}
