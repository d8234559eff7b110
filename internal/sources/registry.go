package sources

import (
	"github.com/jonathan/job-ingest/internal/config"
	"github.com/jonathan/job-ingest/internal/logger"
	"github.com/jonathan/job-ingest/internal/types"
)

// Registry maps platforms to adapters, preserving registration order.
type Registry struct {
	adapters []Adapter
	byName   map[types.Platform]Adapter
}

// NewRegistry creates a registry. Later adapters replace earlier ones for the same platform.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{byName: make(map[types.Platform]Adapter)}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register adds or replaces an adapter.
func (r *Registry) Register(a Adapter) {
	if _, exists := r.byName[a.Platform()]; exists {
		for i, existing := range r.adapters {
			if existing.Platform() == a.Platform() {
				r.adapters[i] = a
			}
		}
	} else {
		r.adapters = append(r.adapters, a)
	}
	r.byName[a.Platform()] = a
}

// Get returns the adapter for a platform.
func (r *Registry) Get(platform types.Platform) (Adapter, bool) {
	a, ok := r.byName[platform]
	return a, ok
}

// Adapters returns all adapters in registration order.
func (r *Registry) Adapters() []Adapter {
	out := make([]Adapter, len(r.adapters))
	copy(out, r.adapters)
	return out
}

// Platforms returns the registered platform names in order.
func (r *Registry) Platforms() []types.Platform {
	out := make([]types.Platform, 0, len(r.adapters))
	for _, a := range r.adapters {
		out = append(out, a.Platform())
	}
	return out
}

// FromConfig builds the default registry: the three ATS adapters plus every
// aggregator that is enabled and has the credentials it needs.
func FromConfig(cfg *config.Config, log *logger.Logger) *Registry {
	log = logger.OrDefault(log)
	opts := Options{
		Timeout:     cfg.FetchTimeout.D(),
		MaxPostings: cfg.MaxPostingsPerSource,
		Logger:      log,
	}

	candidates := []Adapter{
		NewGreenhouse(opts),
		NewLever(opts),
		NewAshby(opts),
		NewRemotive(opts),
		NewArbeitnow(opts),
		NewApprenticeship(opts, cfg.Sources.ApprenticeshipOccupations),
	}

	if cfg.Sources.JSearchAPIKey != "" {
		candidates = append(candidates, NewJSearch(opts, cfg.Sources.JSearchAPIKey, cfg.Sources.JSearchQueries))
	} else {
		log.Debug("jsearch disabled: no API key configured")
	}

	if cfg.Sources.USAJobsAPIKey != "" && cfg.Sources.USAJobsEmail != "" {
		candidates = append(candidates, NewUSAJobs(opts, cfg.Sources.USAJobsAPIKey, cfg.Sources.USAJobsEmail, cfg.Sources.USAJobsKeywords))
	} else {
		log.Debug("usajobs disabled: API key or contact email missing")
	}

	r := NewRegistry()
	for _, a := range candidates {
		if !cfg.SourceEnabled(string(a.Platform())) {
			log.Info("source disabled by config", "platform", a.Platform())
			continue
		}
		r.Register(a)
	}
	return r
}
