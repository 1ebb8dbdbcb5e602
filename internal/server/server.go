// Package server exposes the registry operations over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/gts-labs/gts/internal/loader"
	"github.com/gts-labs/gts/internal/ops"
)

const maxQueryLimit = 1000

// Server wraps the ops facade behind a JSON API.
type Server struct {
	ops    *ops.Ops
	host   string
	port   int
	watch  bool
	paths  []string
	logger *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Ops    *ops.Ops
	Host   string
	Port   int
	Watch  bool
	Paths  []string
	Logger *slog.Logger
}

// New creates a server instance.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		ops:    cfg.Ops,
		host:   cfg.Host,
		port:   cfg.Port,
		watch:  cfg.Watch,
		paths:  cfg.Paths,
		logger: logger,
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.host, s.port)
}

// Serve starts the HTTP server and blocks until the context is
// cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting server", "url", fmt.Sprintf("http://%s", s.Addr()))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.Addr(),
		Handler: s.Routes(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch && len(s.paths) > 0 {
		reader := loader.NewFileReader(s.paths, nil, s.logger)
		watcher := loader.NewWatcher(reader, s.logger, func() {
			if err := s.ops.Reload(s.paths); err != nil {
				s.logger.Warn("reload failed", "error", err)
			}
		})
		eg.Go(func() error {
			return watcher.Watch(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Debug("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// Routes builds the HTTP mux.
func (s *Server) Routes() http.Handler {
	r := chi.NewMux()
	r.Use(
		requestLogger(s.logger),
		middleware.Recoverer,
	)

	r.Get("/entities", s.handleGetEntities)
	r.Post("/entities", s.handleAddEntity)
	r.Post("/entities/bulk", s.handleAddEntities)
	r.Get("/entities/*", s.handleGetEntity)
	r.Post("/schemas", s.handleAddSchema)

	r.Get("/validate-id", s.handleValidateID)
	r.Post("/extract-id", s.handleExtractID)
	r.Get("/parse-id", s.handleParseID)
	r.Get("/match-id-pattern", s.handleMatchIDPattern)
	r.Get("/uuid", s.handleUUID)
	r.Post("/validate-instance", s.handleValidateInstance)
	r.Get("/resolve-relationships", s.handleSchemaGraph)
	r.Get("/compatibility", s.handleCompatibility)
	r.Post("/cast", s.handleCast)
	r.Get("/query", s.handleQuery)
	r.Get("/attr", s.handleAttr)

	return r
}

func (s *Server) handleGetEntities(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, 100)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.ops.GetEntities(limit))
}

func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "*")
	res := s.ops.GetEntity(id)
	status := http.StatusOK
	if !res.OK {
		status = http.StatusNotFound
	}
	writeJSON(w, status, res)
}

func (s *Server) handleAddEntity(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	validate := r.URL.Query().Get("validate") == "true"
	writeJSON(w, http.StatusOK, s.ops.AddEntity(body, validate))
}

func (s *Server) handleAddEntities(w http.ResponseWriter, r *http.Request) {
	var body []map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	writeJSON(w, http.StatusOK, s.ops.AddEntities(body))
}

func (s *Server) handleAddSchema(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TypeID string         `json:"type_id"`
		Schema map[string]any `json:"schema"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	writeJSON(w, http.StatusOK, s.ops.AddSchema(body.TypeID, body.Schema))
}

func (s *Server) handleValidateID(w http.ResponseWriter, r *http.Request) {
	id, ok := requiredQuery(w, r, "gts_id")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.ops.ValidateID(id))
}

func (s *Server) handleExtractID(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	writeJSON(w, http.StatusOK, s.ops.ExtractID(body))
}

func (s *Server) handleParseID(w http.ResponseWriter, r *http.Request) {
	id, ok := requiredQuery(w, r, "gts_id")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.ops.ParseID(id))
}

func (s *Server) handleMatchIDPattern(w http.ResponseWriter, r *http.Request) {
	candidate, ok := requiredQuery(w, r, "candidate")
	if !ok {
		return
	}
	pattern, ok := requiredQuery(w, r, "pattern")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.ops.MatchIDPattern(candidate, pattern))
}

func (s *Server) handleUUID(w http.ResponseWriter, r *http.Request) {
	id, ok := requiredQuery(w, r, "gts_id")
	if !ok {
		return
	}
	res, err := s.ops.UUID(id)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleValidateInstance(w http.ResponseWriter, r *http.Request) {
	var body struct {
		InstanceID string `json:"instance_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	writeJSON(w, http.StatusOK, s.ops.ValidateInstance(body.InstanceID))
}

func (s *Server) handleSchemaGraph(w http.ResponseWriter, r *http.Request) {
	id, ok := requiredQuery(w, r, "gts_id")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.ops.SchemaGraph(id))
}

func (s *Server) handleCompatibility(w http.ResponseWriter, r *http.Request) {
	oldID, ok := requiredQuery(w, r, "old_schema_id")
	if !ok {
		return
	}
	newID, ok := requiredQuery(w, r, "new_schema_id")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.ops.Compatibility(oldID, newID))
}

func (s *Server) handleCast(w http.ResponseWriter, r *http.Request) {
	var body struct {
		InstanceID string `json:"instance_id"`
		ToSchemaID string `json:"to_schema_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	writeJSON(w, http.StatusOK, s.ops.Cast(body.InstanceID, body.ToSchemaID))
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	expr, ok := requiredQuery(w, r, "expr")
	if !ok {
		return
	}
	limit, err := queryLimit(r, 100)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.ops.Query(expr, limit))
}

func (s *Server) handleAttr(w http.ResponseWriter, r *http.Request) {
	idWithPath, ok := requiredQuery(w, r, "gts_with_path")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.ops.Attr(idWithPath))
}
