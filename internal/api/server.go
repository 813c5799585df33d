// Package api exposes the HTTP interface for the resolution service.
package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vintro/wineresolver/internal/metrics"
	"github.com/vintro/wineresolver/internal/resolver"
	"github.com/vintro/wineresolver/internal/wine"
)

// Server wires HTTP handlers to the resolver and catalog.
type Server struct {
	router   chi.Router
	resolver *resolver.Resolver
	catalog  wine.Catalog
	logger   *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(res *resolver.Resolver, catalog wine.Catalog, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		resolver: res,
		catalog:  catalog,
		logger:   logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(timeoutMiddleware(60 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/resolve", s.resolveOne)
		r.Post("/resolve/batch", s.resolveBatch)
		r.Get("/wines/{wine_id}", s.getWine)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(s.logger, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	// The catalog is the only hard dependency; probe it with a cheap read.
	if _, err := s.catalog.FindByID(r.Context(), "readiness-probe"); err != nil {
		writeError(s.logger, w, http.StatusServiceUnavailable, "catalog unavailable")
		return
	}
	writeJSON(s.logger, w, http.StatusOK, map[string]string{"status": "ready"})
}

type resolveRequest struct {
	Name    string `json:"name"`
	Vintage *int   `json:"vintage,omitempty"`
}

type batchResolveRequest struct {
	Queries []resolveRequest `json:"queries"`
}

type batchResolveItem struct {
	Name    string              `json:"name"`
	Vintage *int                `json:"vintage,omitempty"`
	Wine    *wine.CanonicalWine `json:"wine,omitempty"`
	Error   string              `json:"error,omitempty"`
}

func (s *Server) resolveOne(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(s.logger, w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Name == "" {
		writeError(s.logger, w, http.StatusBadRequest, "name is required")
		return
	}

	resolved, err := s.resolver.Resolve(r.Context(), wine.Query{Name: req.Name, Vintage: req.Vintage})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusRequestTimeout
		}
		writeError(s.logger, w, status, err.Error())
		return
	}
	writeJSON(s.logger, w, http.StatusOK, resolved)
}

func (s *Server) resolveBatch(w http.ResponseWriter, r *http.Request) {
	var req batchResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(s.logger, w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.Queries) == 0 {
		writeError(s.logger, w, http.StatusBadRequest, "at least one query required")
		return
	}

	queries := make([]wine.Query, len(req.Queries))
	for i, q := range req.Queries {
		queries[i] = wine.Query{Name: q.Name, Vintage: q.Vintage}
	}

	outcomes := s.resolver.ResolveMany(r.Context(), queries)
	items := make([]batchResolveItem, len(outcomes))
	for i, o := range outcomes {
		items[i] = batchResolveItem{
			Name:    o.Query.Name,
			Vintage: o.Query.Vintage,
			Wine:    o.Wine,
		}
		if o.Err != nil {
			items[i].Error = o.Err.Error()
		}
	}
	writeJSON(s.logger, w, http.StatusOK, map[string]any{"results": items})
}

func (s *Server) getWine(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "wine_id")
	found, err := s.catalog.FindByID(r.Context(), id)
	if err != nil {
		writeError(s.logger, w, http.StatusInternalServerError, "catalog lookup failed")
		return
	}
	if found == nil {
		writeError(s.logger, w, http.StatusNotFound, "wine not found")
		return
	}
	writeJSON(s.logger, w, http.StatusOK, found)
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("error", rec))
					writeError(logger, w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		conn, buf, err := h.Hijack()
		if err != nil {
			return nil, nil, fmt.Errorf("hijack connection: %w", err)
		}
		return conn, buf, nil
	}
	return nil, nil, errors.New("hijacker not supported")
}

type requestIDKey struct{}

func writeJSON(logger *zap.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("write JSON failed", zap.Error(err))
	}
}

func writeError(logger *zap.Logger, w http.ResponseWriter, status int, msg string) {
	writeJSON(logger, w, status, map[string]string{"error": msg})
}
