package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/IshaanNene/feedpulse/internal/config"
	"github.com/IshaanNene/feedpulse/internal/report"
	"github.com/IshaanNene/feedpulse/internal/storage"
	"github.com/IshaanNene/feedpulse/internal/types"
)

// RunStore is the read side of the run database.
type RunStore interface {
	Runs(ctx context.Context) ([]storage.RunInfo, error)
	Load(ctx context.Context, runID string) (*types.Dataset, error)
}

// Server provides a read-only REST API over stored runs.
type Server struct {
	srv    *http.Server
	mux    *http.ServeMux
	store  RunStore
	logger *slog.Logger
}

// NewServer creates a new API server.
func NewServer(addr string, store RunStore, logger *slog.Logger) *Server {
	s := &Server{
		mux:    http.NewServeMux(),
		store:  store,
		logger: logger.With("component", "api_server"),
	}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.registerRoutes()
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.logger.Info("API server starting", "addr", s.srv.Addr)

	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	s.mux.HandleFunc("GET /api/runs", s.handleListRuns)
	s.mux.HandleFunc("GET /api/runs/{id}/records", s.handleRecords)
	s.mux.HandleFunc("GET /api/runs/{id}/summary", s.handleSummary)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": config.Version,
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.Runs(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	if runs == nil {
		runs = []storage.RunInfo{}
	}
	s.jsonResponse(w, http.StatusOK, runs)
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"run_id":  ds.RunID,
		"records": ds.Records,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	top := report.DefaultTopAuthors
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "top must be a non-negative integer"})
			return
		}
		top = n
	}

	ds, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, report.Summarize(ds, top))
}

// loadRun writes an error response and reports false when the run is missing.
func (s *Server) loadRun(w http.ResponseWriter, r *http.Request) (*types.Dataset, bool) {
	id := r.PathValue("id")
	ds, err := s.store.Load(r.Context(), id)
	if err != nil {
		s.internalError(w, err)
		return nil, false
	}
	if ds.Len() == 0 {
		s.jsonResponse(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return nil, false
	}
	return ds, true
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.logger.Error("request failed", "error", err)
	s.jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
