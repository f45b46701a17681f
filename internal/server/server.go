// Package server provides the local HTTP status surface: health, session
// status, mode switching, reference captures and a websocket event stream.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ayusman/skipspot/internal/app"
	"github.com/ayusman/skipspot/internal/dispatch"
	"github.com/ayusman/skipspot/internal/gesture"
	"github.com/ayusman/skipspot/internal/log"
	"github.com/ayusman/skipspot/internal/server/api"
	"github.com/ayusman/skipspot/internal/store"
)

// Config holds the server configuration. Routes whose dependency is nil are
// not registered.
type Config struct {
	StaticDir string
	App       *app.App
	Store     *store.Store
	Trainer   *gesture.Trainer
	// Context bounds the sessions started through POST /api/mode. Defaults
	// to context.Background().
	Context context.Context
}

// Server is the HTTP handler of the status surface.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Context == nil {
		config.Context = context.Background()
	}
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		logger: log.Component("server"),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.App != nil {
		s.mux.HandleFunc("/api/status", s.handleStatus)
		s.mux.HandleFunc("/api/mode", s.handleMode)
		s.mux.Handle("/api/events", NewEventsHandler(s.config.App.Hub()))
	}

	if s.config.Store != nil {
		refs := api.NewReferenceHandler(s.config.Store, s.config.Trainer)
		s.mux.Handle("/api/references", refs)
		s.mux.Handle("/api/references/", refs)
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	})
}

type statusResponse struct {
	Mode      app.Mode           `json:"mode"`
	Available []app.Mode         `json:"available"`
	LastLabel gesture.Label      `json:"last_label"`
	Outcomes  []dispatch.Outcome `json:"outcomes"`
	LastError string             `json:"last_error,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	a := s.config.App
	resp := statusResponse{
		Mode:      a.Mode(),
		Available: a.Available(),
		LastLabel: a.Hub().LastLabel(),
		Outcomes:  a.Hub().Recent(),
	}
	if resp.Outcomes == nil {
		resp.Outcomes = []dispatch.Outcome{}
	}
	if err := a.LastError(); err != nil {
		resp.LastError = err.Error()
	}
	api.WriteJSON(w, http.StatusOK, resp)
}

type modeRequest struct {
	Mode string `json:"mode"`
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	mode, err := app.ParseMode(req.Mode)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.config.App.SwitchMode(s.config.Context, mode); err != nil {
		if errors.Is(err, app.ErrModeUnavailable) {
			api.WriteError(w, http.StatusConflict, err.Error())
			return
		}
		api.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("mode changed over http", "mode", mode, "remote", r.RemoteAddr)
	api.WriteJSON(w, http.StatusOK, map[string]any{"mode": s.config.App.Mode()})
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("status server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
