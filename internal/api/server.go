// File path: internal/api/server.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/jvaldebenito/cronoplan/internal/common"
	"github.com/jvaldebenito/cronoplan/internal/dataset"
	"github.com/jvaldebenito/cronoplan/internal/schedule"
)

var errNotFound = errors.New("not_found")

// Server exposes the schedule engine over HTTP: workbook upload, the
// editable task table, the table/gantt and dashboard projections, and the
// export surfaces.
type Server struct {
	router chi.Router
	store  dataset.Store
	loc    *time.Location

	maxUploadBytes int64
	now            func() time.Time
}

// Config controls request handling. Timezone fixes the calendar date used by
// every derivation.
type Config struct {
	Timezone       string
	MaxUploadBytes int64
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		Timezone:       "America/Santiago",
		MaxUploadBytes: 20 << 20,
	}
}

// Merge overlays non-empty override fields onto the base configuration.
func (c Config) Merge(override Config) Config {
	result := c
	if strings.TrimSpace(override.Timezone) != "" {
		result.Timezone = strings.TrimSpace(override.Timezone)
	}
	if override.MaxUploadBytes > 0 {
		result.MaxUploadBytes = override.MaxUploadBytes
	}
	return result
}

// NewServer builds the router around the given dataset store.
func NewServer(store dataset.Store, cfg *Config) (*Server, error) {
	logger := common.Logger()
	if store == nil {
		return nil, fmt.Errorf("dataset store required")
	}
	configuration := DefaultConfig()
	if cfg != nil {
		configuration = configuration.Merge(*cfg)
	}
	loc, err := time.LoadLocation(configuration.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", configuration.Timezone, err)
	}
	srv := &Server{
		router:         chi.NewRouter(),
		store:          store,
		loc:            loc,
		maxUploadBytes: configuration.MaxUploadBytes,
		now:            time.Now,
	}
	srv.routes()
	logger.Info("api: server ready", "timezone", configuration.Timezone)
	return srv, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// today is the as-of date every derivation in this request uses.
func (s *Server) today() schedule.Date {
	return schedule.DateOf(s.now().In(s.loc))
}

func (s *Server) routes() {
	logger := common.Logger()
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.router.Get("/api/logs", s.handleLogs)

	s.router.Post("/upload", s.handleUpload)
	s.router.Get("/api/tasks/{uploadID}", s.handleTasksGet)
	s.router.Post("/api/tasks/{uploadID}", s.handleTasksPost)
	s.router.Get("/api/data/{uploadID}", s.handleData)
	s.router.Get("/api/dashboard/{uploadID}", s.handleDashboard)
	s.router.Get("/api/export/excel/{uploadID}", s.handleExportExcel)
	s.router.Post("/api/export/html/{uploadID}", s.handleExportHTML)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": common.LogEntries()})
}

// loadDataset resolves the {uploadID} route parameter, writing the 404
// payload itself when the key is unknown.
func (s *Server) loadDataset(w http.ResponseWriter, r *http.Request) (*dataset.Dataset, bool) {
	key := chi.URLParam(r, "uploadID")
	ds, err := s.store.Get(r.Context(), key)
	if errors.Is(err, dataset.ErrNotFound) {
		writeError(w, http.StatusNotFound, errNotFound)
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("load dataset: %w", err))
		return nil, false
	}
	return ds, true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
