package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-ingest/internal/fetch"
	"github.com/jonathan/job-ingest/internal/types"
)

func serveJSON(t *testing.T, wantPath, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if wantPath != "" {
			assert.Equal(t, wantPath, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

var acme = types.CompanySource{CompanyName: "Acme", Slug: "acme", IsActive: true}

func TestGreenhouse_FetchPostings(t *testing.T) {
	server := serveJSON(t, "/v1/boards/acme/jobs", `{
		"jobs": [
			{
				"id": 4012345,
				"title": "Junior Backend Engineer",
				"absolute_url": "https://boards.greenhouse.io/acme/jobs/4012345",
				"content": "&lt;p&gt;Build APIs in Go&lt;/p&gt;",
				"updated_at": "2026-10-01T12:00:00-04:00",
				"first_published": "2026-09-30T09:00:00Z",
				"location": {"name": "Austin, TX"},
				"metadata": [{"name": "Employment Type", "value": "Full-time"}]
			},
			{"id": 4012346, "title": "Designer", "location": null}
		]
	}`)

	adapter := NewGreenhouse(Options{BaseURL: server.URL})
	postings, err := adapter.FetchPostings(context.Background(), acme)
	require.NoError(t, err)
	require.Len(t, postings, 2)

	p := postings[0]
	assert.Equal(t, types.PlatformGreenhouse, p.Platform)
	assert.Equal(t, "4012345", p.ExternalID)
	assert.Equal(t, "Junior Backend Engineer", p.Title)
	assert.Equal(t, "Acme", p.Company)
	assert.Equal(t, "Austin, TX", p.Location)
	assert.Equal(t, "Full-time", p.JobType)
	assert.Equal(t, "https://boards.greenhouse.io/acme/jobs/4012345", p.ApplyURL)
	require.NotNil(t, p.PostedAt)
	assert.Equal(t, time.Date(2026, 9, 30, 9, 0, 0, 0, time.UTC), *p.PostedAt)

	assert.Empty(t, postings[1].Location)
	assert.Nil(t, postings[1].PostedAt)
}

func TestGreenhouse_SlugFromBoardURL(t *testing.T) {
	server := serveJSON(t, "/v1/boards/globex/jobs", `{"jobs": []}`)

	company := types.CompanySource{CompanyName: "Globex", BoardURL: "https://boards.greenhouse.io/globex"}
	postings, err := NewGreenhouse(Options{BaseURL: server.URL}).FetchPostings(context.Background(), company)
	require.NoError(t, err)
	assert.Empty(t, postings)
}

func TestGreenhouse_MissingSlug(t *testing.T) {
	_, err := NewGreenhouse(Options{}).FetchPostings(context.Background(), types.CompanySource{CompanyName: "Nameless"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no greenhouse board slug")
}

func TestGreenhouse_SchemaMismatch(t *testing.T) {
	server := serveJSON(t, "", `{"jobs": [{"id": "not-a-number"}]}`)

	_, err := NewGreenhouse(Options{BaseURL: server.URL}).FetchPostings(context.Background(), acme)
	require.Error(t, err)

	var payloadErr *PayloadError
	require.ErrorAs(t, err, &payloadErr)
	assert.Equal(t, types.PlatformGreenhouse, payloadErr.Platform)
	assert.Equal(t, "schema mismatch", payloadErr.Message)
}

func TestGreenhouse_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewGreenhouse(Options{BaseURL: server.URL}).FetchPostings(context.Background(), acme)
	require.Error(t, err)

	var fetchErr *fetch.Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
}

func TestGreenhouse_MaxPostings(t *testing.T) {
	server := serveJSON(t, "", `{"jobs": [{"id": 1}, {"id": 2}, {"id": 3}]}`)

	postings, err := NewGreenhouse(Options{BaseURL: server.URL, MaxPostings: 2}).FetchPostings(context.Background(), acme)
	require.NoError(t, err)
	assert.Len(t, postings, 2)
}

func TestLever_FetchPostings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v0/postings/acme", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("mode"))
		_, _ = w.Write([]byte(`[
			{
				"id": "abc-123",
				"text": "Data Analyst",
				"hostedUrl": "https://jobs.lever.co/acme/abc-123",
				"createdAt": 1790000000000,
				"description": "<p>Analyze things.</p>",
				"lists": [{"text": "Requirements", "content": "<li>SQL</li>"}],
				"additional": "Benefits included",
				"workplaceType": "remote",
				"country": "US",
				"categories": {"commitment": "Full-time", "location": "New York, NY"},
				"salaryRange": {"min": 65000, "max": 80000.4, "currency": "USD", "interval": "per-year-salary"}
			}
		]`))
	}))
	defer server.Close()

	postings, err := NewLever(Options{BaseURL: server.URL}).FetchPostings(context.Background(), acme)
	require.NoError(t, err)
	require.Len(t, postings, 1)

	p := postings[0]
	assert.Equal(t, "abc-123", p.ExternalID)
	assert.Equal(t, "Data Analyst", p.Title)
	assert.Equal(t, "New York, NY", p.Location)
	assert.Equal(t, "US", p.Country)
	assert.Equal(t, "Full-time", p.JobType)
	assert.True(t, p.Remote)
	assert.Contains(t, p.Description, "<h3>Requirements</h3><ul><li>SQL</li></ul>")
	assert.Contains(t, p.Description, "Benefits included")
	require.NotNil(t, p.SalaryMin)
	require.NotNil(t, p.SalaryMax)
	assert.Equal(t, 65000, *p.SalaryMin)
	assert.Equal(t, 80000, *p.SalaryMax)
	assert.Equal(t, "USD", p.SalaryCurrency)
	require.NotNil(t, p.PostedAt)
	assert.Equal(t, time.UnixMilli(1790000000000).UTC(), *p.PostedAt)
}

func TestLever_SchemaMismatch(t *testing.T) {
	server := serveJSON(t, "", `{"ok": false, "error": "Document not found"}`)

	_, err := NewLever(Options{BaseURL: server.URL}).FetchPostings(context.Background(), acme)

	var payloadErr *PayloadError
	require.ErrorAs(t, err, &payloadErr)
	assert.Equal(t, types.PlatformLever, payloadErr.Platform)
}

func TestAshby_FetchPostings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/posting-api/job-board/acme", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("includeCompensation"))
		_, _ = w.Write([]byte(`{
			"jobs": [
				{
					"id": "7f3e",
					"title": "Support Specialist",
					"location": "Remote - US",
					"employmentType": "FullTime",
					"isRemote": true,
					"publishedAt": "2026-10-10T08:30:00.000+00:00",
					"jobUrl": "https://jobs.ashbyhq.com/acme/7f3e",
					"descriptionHtml": "<p>Help customers</p>",
					"address": {"postalAddress": {"addressCountry": "United States"}},
					"compensation": {
						"summaryComponents": [
							{"compensationType": "EquityPercentage", "minValue": 0.1},
							{"compensationType": "Salary", "interval": "1 YEAR", "currencyCode": "USD", "minValue": 50000, "maxValue": 60000}
						]
					}
				}
			]
		}`))
	}))
	defer server.Close()

	postings, err := NewAshby(Options{BaseURL: server.URL}).FetchPostings(context.Background(), acme)
	require.NoError(t, err)
	require.Len(t, postings, 1)

	p := postings[0]
	assert.Equal(t, "7f3e", p.ExternalID)
	assert.Equal(t, "United States", p.Country)
	assert.Equal(t, "FullTime", p.JobType)
	assert.True(t, p.Remote)
	assert.Equal(t, "<p>Help customers</p>", p.Description)
	require.NotNil(t, p.SalaryMin)
	assert.Equal(t, 50000, *p.SalaryMin)
	assert.Equal(t, 60000, *p.SalaryMax)
	assert.Equal(t, "1 YEAR", p.SalaryPeriod)
	require.NotNil(t, p.PostedAt)
	assert.Equal(t, 2026, p.PostedAt.Year())
}

type fakeLister struct {
	got     CompanyFilter
	sources []types.CompanySource
}

func (f *fakeLister) ListCompanySources(_ context.Context, filter CompanyFilter) ([]types.CompanySource, error) {
	f.got = filter
	return f.sources, nil
}

func TestATS_ListCompaniesDelegatesWithPlatform(t *testing.T) {
	lister := &fakeLister{sources: []types.CompanySource{acme}}

	companies, err := NewLever(Options{}).ListCompanies(context.Background(), lister, CompanyFilter{Company: "acme", Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, []types.CompanySource{acme}, companies)
	assert.Equal(t, types.PlatformLever, lister.got.Platform)
	assert.Equal(t, "acme", lister.got.Company)
	assert.Equal(t, 5, lister.got.Limit)
}
