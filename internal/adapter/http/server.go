package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/org-map-service/internal/domain"
	"github.com/couchcryptid/org-map-service/internal/mapview"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// MapBuilder builds the map view of a town.
type MapBuilder interface {
	BuildView(ctx context.Context, town string, creds domain.Credentials) (mapview.View, error)
}

// Server exposes the map API alongside health, readiness, and metrics endpoints.
type Server struct {
	httpServer   *http.Server
	maps         MapBuilder
	defaultCreds domain.Credentials
	logger       *slog.Logger
}

// NewServer creates an HTTP server with /api/v1/map, /healthz, /readyz, and
// /metrics routes. apiKey is used for portal requests that carry no
// Authorization header of their own.
func NewServer(addr string, ready ReadinessChecker, maps MapBuilder, apiKey string, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		maps:         maps,
		defaultCreds: domain.Credentials{Token: apiKey},
		logger:       logger,
	}

	mux.HandleFunc("GET /api/v1/map", s.handleMap)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	town := strings.TrimSpace(r.URL.Query().Get("town"))
	if town == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "town query parameter is required"})
		return
	}

	view, err := s.maps.BuildView(r.Context(), town, s.credentials(r))
	if err != nil {
		if errors.Is(err, domain.ErrBlankTown) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		s.logger.Error("build map view failed", "town", town, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// credentials extracts a "Token <key>" Authorization header, falling back
// to the configured key.
func (s *Server) credentials(r *http.Request) domain.Credentials {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Token") && strings.TrimSpace(token) != "" {
		return domain.Credentials{Token: strings.TrimSpace(token)}
	}
	return s.defaultCreds
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// writeJSON encodes v before writing the header so an unencodable value
// becomes a 500 rather than a truncated response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		status = http.StatusInternalServerError
		buf.Reset()
		buf.WriteString(`{"error":"encode response"}` + "\n")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes()) //nolint:errcheck // best-effort response
}
