// Package api - Thin, deterministic API layer
// The API is ONLY responsible for: input decoding, service orchestration, output serialization.
// The API NEVER performs estimation arithmetic.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"quizcost/core/estimation"
	"quizcost/internal/config"
	"quizcost/internal/logging"
	"quizcost/internal/monitoring"
)

// Server is the API server
type Server struct {
	handler *Handler
	mux     *http.ServeMux
	version string
	started time.Time

	maxBodyBytes int64
	metricsPath  string
	http         *http.Server
}

// NewServer creates a new API server for service, configured by cfg
func NewServer(version string, cfg *config.Config, service *estimation.Service) (*Server, error) {
	logger := logging.Named("api")

	opts := []HandlerOption{
		WithLogger(logger),
		WithMetrics(monitoring.New(cfg.Metrics.Enabled)),
		WithConfigUpdates(cfg.Server.AllowConfigUpdates),
	}
	if cfg.Cache.Enabled {
		cache, err := NewCache(cfg.Cache.Size)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithCache(cache))
	}

	s := &Server{
		handler:      NewHandler(service, opts...),
		mux:          http.NewServeMux(),
		version:      version,
		started:      time.Now(),
		maxBodyBytes: cfg.Server.MaxBodyBytes,
	}
	if cfg.Metrics.Enabled {
		s.metricsPath = cfg.Metrics.Path
	}

	s.registerRoutes()
	s.http = &http.Server{
		Addr:        cfg.Server.Addr,
		Handler:     s,
		ReadTimeout: time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
	}
	return s, nil
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	// Core endpoints
	s.mux.HandleFunc("POST /estimate", s.handler.HandleEstimate)
	s.mux.HandleFunc("POST /compare", s.handler.HandleCompare)
	s.mux.HandleFunc("GET /config", s.handler.HandleGetConfig)
	s.mux.HandleFunc("PATCH /config", s.handler.HandlePatchConfig)
	s.mux.HandleFunc("GET /health", s.handleHealth)

	// Supporting endpoints
	s.mux.HandleFunc("GET /version", s.handleVersion)
	if s.metricsPath != "" {
		s.mux.Handle("GET "+s.metricsPath, promhttp.Handler())
	}
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status":         "healthy",
		"version":        s.version,
		"config_version": s.handler.service.Snapshot().Version,
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"time":           time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// handleVersion handles GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"version":    s.version,
		"engine":     "quizcost",
		"strategy":   s.handler.service.Strategy().Name(),
		"strategies": estimation.StrategyNames(),
	}, http.StatusOK)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.maxBodyBytes > 0 && r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	}
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the server and blocks until it stops
func (s *Server) ListenAndServe() error {
	logging.Info("server listening", zap.String("addr", s.http.Addr), zap.String("version", s.version))
	return s.http.ListenAndServe()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
