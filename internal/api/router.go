package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/waveform-core/internal/coordinate"
	"github.com/nerrad567/waveform-core/internal/static"
)

// healthCheckTimeout bounds the database probe in /api/v1/health.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	if s.http != nil {
		r.Use(s.http.middleware)
	}
	r.Use(s.recoveryMiddleware)

	r.With(s.rateLimitMiddleware).Get("/", s.handleIngest)

	prefix := s.staticCfg.Prefix
	r.Handle(prefix+"/*", static.DirHandler(prefix, s.staticCfg.Dir))
	r.Handle(prefix, http.RedirectHandler(prefix+"/", http.StatusMovedPermanently))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)
	})

	if s.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	return r
}

// handleIngest runs one ingestion and answers with the index document.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	log := s.logger.With("request_id", r.Context().Value(ctxKeyRequestID))

	res, err := s.ingest.Run(r.Context())
	if err != nil {
		if coordinate.KindOf(err) == coordinate.KindUnknown && r.Context().Err() != nil {
			log.Debug("ingest abandoned", "run_id", res.RunID, "error", err)
		}
		writeFailure(w, err)
		return
	}

	if err := s.index.Serve(w, r); err != nil {
		log.Error("serving index document", "run_id", res.RunID, "error", err)
		writeInternalError(w)
	}
}

// handleHealth reports the server and database status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status, code, database := "ok", http.StatusOK, "ok"
	if err := s.db.HealthCheck(ctx); err != nil {
		s.logger.Warn("health check failed", "error", err)
		status, code, database = "degraded", http.StatusServiceUnavailable, "unavailable"
	}

	writeJSON(w, code, map[string]any{
		"status":   status,
		"version":  s.version,
		"database": database,
	})
}
