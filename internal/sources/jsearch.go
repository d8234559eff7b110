package sources

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/jonathan/job-ingest/internal/logger"
	"github.com/jonathan/job-ingest/internal/types"
)

const jsearchBaseURL = "https://api.openwebninja.com"

// JSearch queries the JSearch aggregator once per configured search string.
// A failing query is logged and skipped; the fetch fails only when every
// query fails.
type JSearch struct {
	aggregatorBase
	opts    Options
	apiKey  string
	queries []string
	country string
}

// NewJSearch creates a JSearch adapter.
func NewJSearch(opts Options, apiKey string, queries []string) *JSearch {
	return &JSearch{
		aggregatorBase: aggregatorBase{platform: types.PlatformJSearch, displayName: "JSearch"},
		opts:           opts,
		apiKey:         apiKey,
		queries:        queries,
		country:        "us",
	}
}

type jsearchResponse struct {
	Data []jsearchJob `json:"data"`
}

type jsearchJob struct {
	JobID                string   `json:"job_id"`
	JobTitle             string   `json:"job_title"`
	EmployerName         string   `json:"employer_name"`
	EmployerLogo         string   `json:"employer_logo"`
	JobDescription       string   `json:"job_description"`
	JobCity              string   `json:"job_city"`
	JobState             string   `json:"job_state"`
	JobCountry           string   `json:"job_country"`
	JobIsRemote          bool     `json:"job_is_remote"`
	JobEmploymentType    string   `json:"job_employment_type"`
	JobPostedAtTimestamp int64    `json:"job_posted_at_timestamp"`
	JobMinSalary         *float64 `json:"job_min_salary"`
	JobMaxSalary         *float64 `json:"job_max_salary"`
	JobSalaryCurrency    string   `json:"job_salary_currency"`
	JobSalaryPeriod      string   `json:"job_salary_period"`
	JobApplyLink         string   `json:"job_apply_link"`
}

// FetchPostings implements Adapter.
func (j *JSearch) FetchPostings(ctx context.Context, _ types.CompanySource) ([]types.RawPosting, error) {
	log := logger.OrDefault(j.opts.Logger).With("source", types.PlatformJSearch)
	endpoint := j.opts.baseURL(jsearchBaseURL) + "/jsearch/search"

	seen := make(map[string]bool)
	var postings []types.RawPosting
	var errs []error

	for _, query := range j.queries {
		if j.opts.MaxPostings > 0 && len(postings) >= j.opts.MaxPostings {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fetchOpts := j.opts.fetchOptions()
		fetchOpts.Headers = map[string]string{"x-api-key": j.apiKey}
		fetchOpts.Query = url.Values{
			"query":     {query},
			"page":      {"1"},
			"num_pages": {"1"},
			"country":   {j.country},
		}

		var resp jsearchResponse
		if err := getJSON(ctx, types.PlatformJSearch, endpoint, fetchOpts, &resp); err != nil {
			log.Warn("jsearch query failed", "query", query, "error", err)
			errs = append(errs, err)
			continue
		}

		for _, job := range resp.Data {
			if job.JobID != "" && seen[job.JobID] {
				continue
			}
			seen[job.JobID] = true
			postings = append(postings, jsearchPosting(job))
		}
	}

	if len(errs) > 0 && len(errs) == len(j.queries) {
		return nil, errors.Join(errs...)
	}
	return j.opts.capped(postings), nil
}

func jsearchPosting(job jsearchJob) types.RawPosting {
	p := types.RawPosting{
		Platform:       types.PlatformJSearch,
		Title:          strings.TrimSpace(job.JobTitle),
		Company:        strings.TrimSpace(job.EmployerName),
		CompanyLogo:    job.EmployerLogo,
		Description:    job.JobDescription,
		Location:       joinNonEmpty(", ", job.JobCity, job.JobState),
		Country:        job.JobCountry,
		State:          job.JobState,
		JobType:        job.JobEmploymentType,
		Remote:         job.JobIsRemote,
		SalaryMin:      floatPtrToInt(job.JobMinSalary),
		SalaryMax:      floatPtrToInt(job.JobMaxSalary),
		SalaryCurrency: job.JobSalaryCurrency,
		SalaryPeriod:   job.JobSalaryPeriod,
		ApplyURL:       job.JobApplyLink,
	}
	if job.JobID != "" {
		p.ExternalID = "jsearch_" + job.JobID
	}
	if job.JobPostedAtTimestamp > 0 {
		t := time.Unix(job.JobPostedAtTimestamp, 0).UTC()
		p.PostedAt = &t
	}
	return p
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
