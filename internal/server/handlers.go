package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-ingest/internal/cleanup"
	"github.com/jonathan/job-ingest/internal/pipeline"
	"github.com/jonathan/job-ingest/internal/sources"
	"github.com/jonathan/job-ingest/internal/types"
)

const (
	defaultListLimit = 20
	maxListLimit     = 200
)

// RunRequest is the body of POST /v1/runs. An empty body runs everything.
type RunRequest struct {
	Platform     string `json:"platform,omitempty" validate:"omitempty,oneof=greenhouse lever ashby remotive arbeitnow jsearch usajobs apprenticeship"`
	Company      string `json:"company,omitempty" validate:"omitempty,max=200"`
	DryRun       bool   `json:"dry_run,omitempty"`
	MaxCompanies int    `json:"max_companies,omitempty" validate:"gte=0,lte=10000"`
	Cleanup      bool   `json:"cleanup,omitempty"`
	StaleDays    int    `json:"stale_days,omitempty" validate:"gte=0,lte=365"`
	Geocode      bool   `json:"geocode,omitempty"`
}

// CleanupRequest is the body of POST /v1/cleanup.
type CleanupRequest struct {
	DryRun    bool `json:"dry_run,omitempty"`
	StaleDays int  `json:"stale_days,omitempty" validate:"gte=0,lte=365"`
}

// decodeBody reads an optional JSON body into v and validates it.
func (s *Server) decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	if err := s.validate.Struct(v); err != nil {
		return validationError(err)
	}
	return nil
}

func (s *Server) runOptions(r *http.Request) (pipeline.RunOptions, error) {
	var req RunRequest
	if err := s.decodeBody(r, &req); err != nil {
		return pipeline.RunOptions{}, err
	}

	platform := types.Platform(req.Platform)
	if platform != "" && s.deps.Registry != nil {
		if _, ok := s.deps.Registry.Get(platform); !ok {
			return pipeline.RunOptions{}, &ErrValidation{Field: "platform", Message: "not enabled"}
		}
	}

	staleDays := req.StaleDays
	if staleDays == 0 {
		staleDays = s.staleDays
	}

	return pipeline.RunOptions{
		Platform:     platform,
		Company:      req.Company,
		DryRun:       req.DryRun,
		MaxCompanies: req.MaxCompanies,
		RunCleanup:   req.Cleanup,
		StaleDays:    staleDays,
		RunGeocode:   req.Geocode,
		Trigger:      "api",
	}, nil
}

// handleHealth reports liveness and database reachability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Store.Ping(ctx); err != nil {
			s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListSources lists enabled adapters and registered company boards.
func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		s.failed(w, errUnavailable)
		return
	}

	filter := sources.CompanyFilter{
		Platform: types.Platform(r.URL.Query().Get("platform")),
		Company:  r.URL.Query().Get("company"),
	}
	companies, err := s.deps.Store.ListCompanySources(r.Context(), filter)
	if err != nil {
		s.failed(w, err)
		return
	}

	var adapters []types.Platform
	if s.deps.Registry != nil {
		adapters = s.deps.Registry.Platforms()
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"adapters":  adapters,
		"companies": companies,
	})
}

// handleRun executes a run synchronously and returns its stats.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.deps.Runner == nil {
		s.failed(w, errUnavailable)
		return
	}
	opts, err := s.runOptions(r)
	if err != nil {
		s.failed(w, err)
		return
	}

	stats, err := s.deps.Runner.Run(r.Context(), opts)
	if err != nil {
		s.failed(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, stats)
}

// handleRunStream executes a run and streams progress as Server-Sent Events.
func (s *Server) handleRunStream(w http.ResponseWriter, r *http.Request) {
	if s.deps.Runner == nil {
		s.failed(w, errUnavailable)
		return
	}
	opts, err := s.runOptions(r)
	if err != nil {
		s.failed(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	opts.OnProgress = func(e pipeline.ProgressEvent) {
		if err := sse.WriteEvent(e.Stage, e); err != nil {
			s.log.Debug("failed to write progress event", "error", err)
		}
	}

	stats, err := s.deps.Runner.Run(r.Context(), opts)
	if err != nil {
		sse.WriteError(err.Error())
		return
	}
	sse.WriteEvent("stats", stats) //nolint:errcheck
}

// handleListRuns returns recent persisted runs, newest first.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		s.failed(w, errUnavailable)
		return
	}
	limit, err := queryLimit(r, defaultListLimit)
	if err != nil {
		s.failed(w, err)
		return
	}
	runs, err := s.deps.Store.ListIngestRuns(r.Context(), limit)
	if err != nil {
		s.failed(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"runs": runs})
}

// handleGetRun returns one persisted run.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		s.failed(w, errUnavailable)
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.failed(w, &ErrValidation{Field: "id", Message: "must be a UUID"})
		return
	}
	run, err := s.deps.Store.GetIngestRun(r.Context(), id)
	if err != nil {
		s.failed(w, err)
		return
	}
	if run == nil {
		s.failed(w, &ErrNotFound{Resource: "run", ID: id.String()})
		return
	}
	s.jsonResponse(w, http.StatusOK, run)
}

// handleLastRun returns the last run's stats. This process's own last run
// wins; otherwise the newest persisted run is used.
func (s *Server) handleLastRun(w http.ResponseWriter, r *http.Request) {
	if s.deps.Runner != nil {
		if stats := s.deps.Runner.LastStats(); stats != nil {
			s.jsonResponse(w, http.StatusOK, stats)
			return
		}
	}
	if s.deps.Store != nil {
		runs, err := s.deps.Store.ListIngestRuns(r.Context(), 1)
		if err != nil {
			s.failed(w, err)
			return
		}
		if len(runs) > 0 {
			s.jsonResponse(w, http.StatusOK, runs[0])
			return
		}
	}
	s.failed(w, &ErrNotFound{Resource: "run"})
}

// handleCleanup runs a staleness sweep.
func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	if s.deps.Cleanup == nil {
		s.failed(w, errUnavailable)
		return
	}
	var req CleanupRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.failed(w, err)
		return
	}
	staleDays := req.StaleDays
	if staleDays == 0 {
		staleDays = s.staleDays
	}

	result, err := s.deps.Cleanup.Run(r.Context(), cleanup.Options{StaleDays: staleDays, DryRun: req.DryRun})
	if err != nil {
		s.failed(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleGeocode runs one geocoding pass.
func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	if s.deps.Geocoder == nil {
		s.failed(w, errUnavailable)
		return
	}
	result, err := s.deps.Geocoder.Run(r.Context())
	if err != nil {
		s.failed(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleTrending lists trending postings.
func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	if s.deps.Trending == nil {
		s.failed(w, errUnavailable)
		return
	}
	limit, err := queryLimit(r, defaultListLimit)
	if err != nil {
		s.failed(w, err)
		return
	}
	postings, err := s.deps.Trending.List(r.Context(), limit)
	if err != nil {
		s.failed(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"threshold": s.deps.Trending.Threshold(),
		"postings":  postings,
	})
}

// handlePostingTrending reports whether one posting is trending.
func (s *Server) handlePostingTrending(w http.ResponseWriter, r *http.Request) {
	if s.deps.Trending == nil {
		s.failed(w, errUnavailable)
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.failed(w, &ErrValidation{Field: "id", Message: "must be a UUID"})
		return
	}
	ok, err := s.deps.Trending.IsTrending(r.Context(), id)
	if err != nil {
		s.failed(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"posting_id": id, "trending": ok})
}

// handleReview lists postings whose classification needs a human look.
func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		s.failed(w, errUnavailable)
		return
	}
	limit, err := queryLimit(r, 50)
	if err != nil {
		s.failed(w, err)
		return
	}
	postings, err := s.deps.Store.ListNeedsReview(r.Context(), limit)
	if err != nil {
		s.failed(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"postings": postings})
}

// queryLimit parses ?limit, clamped to maxListLimit.
func queryLimit(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, &ErrValidation{Field: "limit", Message: "must be a positive integer"}
	}
	return min(n, maxListLimit), nil
}
