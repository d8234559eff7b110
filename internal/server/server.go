// Package server provides the admin HTTP API for triggering and inspecting
// ingestion runs.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/job-ingest/internal/db"
	"github.com/jonathan/job-ingest/internal/logger"
	"github.com/jonathan/job-ingest/internal/pipeline"
	"github.com/jonathan/job-ingest/internal/server/middleware"
	"github.com/jonathan/job-ingest/internal/server/ratelimit"
	"github.com/jonathan/job-ingest/internal/sources"
	"github.com/jonathan/job-ingest/internal/trending"
	"github.com/jonathan/job-ingest/internal/types"
)

// Store is the read side of the catalog used by the API.
type Store interface {
	Ping(ctx context.Context) error
	ListCompanySources(ctx context.Context, filter sources.CompanyFilter) ([]types.CompanySource, error)
	ListIngestRuns(ctx context.Context, limit int) ([]db.IngestRun, error)
	GetIngestRun(ctx context.Context, runID uuid.UUID) (*db.IngestRun, error)
	ListNeedsReview(ctx context.Context, limit int) ([]db.ReviewPosting, error)
}

// Runner starts ingestion runs.
type Runner interface {
	Run(ctx context.Context, opts pipeline.RunOptions) (*types.RunStats, error)
	LastStats() *types.RunStats
}

// TrendingLister reads the trending aggregate.
type TrendingLister interface {
	List(ctx context.Context, limit int) ([]db.TrendingPosting, error)
	IsTrending(ctx context.Context, postingID uuid.UUID) (bool, error)
	Threshold() int
}

var _ TrendingLister = (*trending.Aggregator)(nil)

// Deps are the collaborators behind the handlers.
type Deps struct {
	Store    Store
	Runner   Runner
	Cleanup  pipeline.CleanupRunner
	Geocoder pipeline.GeocodeRunner
	Trending TrendingLister
	Registry *sources.Registry
	Logger   *logger.Logger
}

// Config holds server configuration
type Config struct {
	Port      int
	APIKey    string
	StaleDays int
	RateLimit *ratelimit.Config
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	deps        Deps
	staleDays   int
	rateLimiter *ratelimit.Limiter
	log         *logger.Logger
	validate    *validator.Validate
}

// New creates a new server instance
func New(cfg Config, deps Deps) *Server {
	s := &Server{
		deps:        deps,
		staleDays:   cfg.StaleDays,
		rateLimiter: ratelimit.NewLimiter(cfg.RateLimit),
		log:         logger.OrDefault(deps.Logger),
		validate:    validator.New(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /v1/sources", s.handleListSources)
	mux.HandleFunc("POST /v1/runs", s.handleRun)
	mux.HandleFunc("POST /v1/runs/stream", s.handleRunStream)
	mux.HandleFunc("GET /v1/runs", s.handleListRuns)
	mux.HandleFunc("GET /v1/runs/last", s.handleLastRun)
	mux.HandleFunc("GET /v1/runs/{id}", s.handleGetRun)
	mux.HandleFunc("POST /v1/cleanup", s.handleCleanup)
	mux.HandleFunc("POST /v1/geocode", s.handleGeocode)
	mux.HandleFunc("GET /v1/trending", s.handleTrending)
	mux.HandleFunc("GET /v1/postings/{id}/trending", s.handlePostingTrending)
	mux.HandleFunc("GET /v1/review", s.handleReview)

	handler := middleware.APIKey(cfg.APIKey, "/health")(mux)
	handler = s.withRateLimit(s.withLogging(handler))
	handler = middleware.RequestID(handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 15 * time.Minute, // synchronous runs
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.rateLimiter.Stop()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.rateLimiter.Stop()
	s.log.Info("server stopped")
	return nil
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(s.extractClientID(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response code for request logs.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the wrapper.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote", r.RemoteAddr,
			"request_id", middleware.GetRequestID(r))
	})
}

// extractClientID uses the remote IP; X-Forwarded-For is not trusted.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}
	if info.RetryAfter > 0 {
		secs := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = secs
		w.Header().Set("Retry-After", fmt.Sprintf("%d", secs))
	}

	s.log.Warn("rate limit exceeded", "path", r.URL.Path, "client", s.extractClientID(r), "limit", info.Limit)
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("failed to encode JSON response", "error", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// failed maps err onto a status and writes it.
func (s *Server) failed(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	s.errorResponse(w, status, err.Error())
}
