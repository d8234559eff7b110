// Package sources provides adapters for the external job providers. Every
// adapter converges its provider's response shape on types.RawPosting.
package sources

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-ingest/internal/fetch"
	"github.com/jonathan/job-ingest/internal/logger"
	"github.com/jonathan/job-ingest/internal/types"
)

// Kind distinguishes per-company ATS boards from public aggregator APIs.
type Kind string

const (
	// KindATS adapters fetch one company board per call
	KindATS Kind = "ats"
	// KindAggregator adapters query a public API with no company concept
	KindAggregator Kind = "aggregator"
)

// CompanyFilter narrows company enumeration.
type CompanyFilter struct {
	Platform types.Platform
	Company  string // company name or slug, case-insensitive
	Limit    int
}

// Matches reports whether a company passes the name/slug filter.
func (f CompanyFilter) Matches(c types.CompanySource) bool {
	if f.Company == "" {
		return true
	}
	return strings.EqualFold(f.Company, c.CompanyName) || strings.EqualFold(f.Company, c.Slug)
}

// CompanyLister reads registered company boards.
type CompanyLister interface {
	ListCompanySources(ctx context.Context, filter CompanyFilter) ([]types.CompanySource, error)
}

// Adapter integrates one external job provider.
type Adapter interface {
	Platform() types.Platform
	Kind() Kind
	// ListCompanies enumerates what FetchPostings should be called with.
	ListCompanies(ctx context.Context, lister CompanyLister, filter CompanyFilter) ([]types.CompanySource, error)
	// FetchPostings returns the raw postings for one company. Errors are
	// *fetch.Error for transport problems and *PayloadError for bad bodies.
	FetchPostings(ctx context.Context, company types.CompanySource) ([]types.RawPosting, error)
}

// Options holds the settings shared by every adapter.
type Options struct {
	BaseURL     string // overrides the provider endpoint, used by tests
	Timeout     time.Duration
	MaxPostings int // 0 means unlimited
	HTTPClient  *http.Client
	Logger      *logger.Logger
}

func (o Options) fetchOptions() *fetch.Options {
	opts := fetch.DefaultOptions()
	if o.Timeout > 0 {
		opts.Timeout = o.Timeout
	}
	opts.Client = o.HTTPClient
	return opts
}

func (o Options) baseURL(def string) string {
	if o.BaseURL != "" {
		return strings.TrimRight(o.BaseURL, "/")
	}
	return def
}

func (o Options) capped(postings []types.RawPosting) []types.RawPosting {
	if o.MaxPostings > 0 && len(postings) > o.MaxPostings {
		return postings[:o.MaxPostings]
	}
	return postings
}

// atsBase implements ListCompanies for per-company boards.
type atsBase struct {
	platform types.Platform
}

func (a atsBase) Platform() types.Platform { return a.platform }
func (a atsBase) Kind() Kind               { return KindATS }

func (a atsBase) ListCompanies(ctx context.Context, lister CompanyLister, filter CompanyFilter) ([]types.CompanySource, error) {
	filter.Platform = a.platform
	return lister.ListCompanySources(ctx, filter)
}

// aggregatorNamespace seeds the stable IDs of synthetic aggregator sources.
var aggregatorNamespace = uuid.MustParse("6f1d3c8e-2b4a-4f7e-9c51-0d2e8a7b4c13")

// aggregatorBase implements ListCompanies for aggregator APIs by returning a
// single synthetic source named after the provider.
type aggregatorBase struct {
	platform    types.Platform
	displayName string
}

func (a aggregatorBase) Platform() types.Platform { return a.platform }
func (a aggregatorBase) Kind() Kind               { return KindAggregator }

func (a aggregatorBase) ListCompanies(_ context.Context, _ CompanyLister, filter CompanyFilter) ([]types.CompanySource, error) {
	src := a.source()
	if !filter.Matches(src) {
		return nil, nil
	}
	return []types.CompanySource{src}, nil
}

func (a aggregatorBase) source() types.CompanySource {
	return types.CompanySource{
		ID:          uuid.NewSHA1(aggregatorNamespace, []byte(a.platform)),
		CompanyName: a.displayName,
		Platform:    a.platform,
		Slug:        string(a.platform),
		IsActive:    true,
	}
}

// boardSlug returns the company's slug, falling back to one derived from its board URL.
func boardSlug(company types.CompanySource) string {
	if company.Slug != "" {
		return company.Slug
	}
	_, slug := ParseBoardURL(company.BoardURL)
	return slug
}
