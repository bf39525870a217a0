// Package api serves the engine and the group registry over HTTP.
//
// Every endpoint takes and returns JSON. Graph endpoints receive the graph in
// the request body, so the server holds no graph state; only groups are
// stored. Errors are written as {"code": "...", "message": "..."} with a
// status derived from the error code.
//
// Routes:
//
//	GET    /healthz
//	POST   /v1/layout
//	POST   /v1/lineage
//	POST   /v1/related
//	POST   /v1/slice
//	POST   /v1/render
//	GET    /v1/groups
//	POST   /v1/groups
//	POST   /v1/groups/validate
//	POST   /v1/groups/resolve
//	PATCH  /v1/groups/{id}
//	DELETE /v1/groups/{id}
//	POST   /v1/groups/{id}/members
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/pipegraph/pkg/buildinfo"
	"github.com/matzehuels/pipegraph/pkg/engine"
	"github.com/matzehuels/pipegraph/pkg/group"
	"github.com/matzehuels/pipegraph/pkg/observability"
)

const (
	// maxBodyBytes bounds request bodies.
	maxBodyBytes = 16 << 20

	shutdownTimeout = 5 * time.Second
)

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	runner   *engine.Runner
	registry *group.Registry
	logger   *log.Logger
}

// New creates a server. A nil logger discards output.
func New(runner *engine.Runner, registry *group.Registry, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Server{runner: runner, registry: registry, logger: logger}
}

// Handler returns the router with all routes and middleware mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/layout", s.handleLayout)
		r.Post("/lineage", s.handleLineage)
		r.Post("/related", s.handleRelated)
		r.Post("/slice", s.handleSlice)
		r.Post("/render", s.handleRender)

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", s.handleListGroups)
			r.Post("/", s.handleCreateGroup)
			r.Post("/validate", s.handleValidateName)
			r.Post("/resolve", s.handleResolve)
			r.Patch("/{id}", s.handleUpdateGroup)
			r.Delete("/{id}", s.handleDeleteGroup)
			r.Post("/{id}/members", s.handleMembers)
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// observe reports every request to the HTTP hooks and the logger.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			path = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, path, status, elapsed)
		s.logger.Debug("request",
			"method", r.Method,
			"path", path,
			"status", status,
			"duration", elapsed,
			"request_id", middleware.GetReqID(r.Context()))
	})
}
