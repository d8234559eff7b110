package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/job-ingest/internal/types"
)

const remotiveBaseURL = "https://remotive.com"

// Remotive fetches the Remotive remote-jobs feed. Every posting is remote.
type Remotive struct {
	aggregatorBase
	opts Options
}

// NewRemotive creates a Remotive adapter.
func NewRemotive(opts Options) *Remotive {
	return &Remotive{
		aggregatorBase: aggregatorBase{platform: types.PlatformRemotive, displayName: "Remotive"},
		opts:           opts,
	}
}

type remotiveResponse struct {
	Jobs []remotiveJob `json:"jobs"`
}

type remotiveJob struct {
	ID                        int64    `json:"id"`
	URL                       string   `json:"url"`
	Title                     string   `json:"title"`
	CompanyName               string   `json:"company_name"`
	CompanyLogo               string   `json:"company_logo"`
	JobType                   string   `json:"job_type"`
	PublicationDate           string   `json:"publication_date"`
	CandidateRequiredLocation string   `json:"candidate_required_location"`
	Salary                    string   `json:"salary"`
	Description               string   `json:"description"`
	Tags                      []string `json:"tags"`
}

// FetchPostings implements Adapter.
func (r *Remotive) FetchPostings(ctx context.Context, _ types.CompanySource) ([]types.RawPosting, error) {
	endpoint := r.opts.baseURL(remotiveBaseURL) + "/api/remote-jobs"

	var resp remotiveResponse
	if err := getJSON(ctx, types.PlatformRemotive, endpoint, r.opts.fetchOptions(), &resp); err != nil {
		return nil, err
	}

	postings := make([]types.RawPosting, 0, len(resp.Jobs))
	for _, job := range resp.Jobs {
		p := types.RawPosting{
			Platform:    types.PlatformRemotive,
			Title:       strings.TrimSpace(job.Title),
			Company:     strings.TrimSpace(job.CompanyName),
			CompanyLogo: job.CompanyLogo,
			Description: job.Description,
			Location:    job.CandidateRequiredLocation,
			JobType:     job.JobType,
			Remote:      true,
			Tags:        job.Tags,
			ApplyURL:    job.URL,
			PostedAt:    parseLooseTimestamp(job.PublicationDate),
		}
		if job.ID != 0 {
			p.ExternalID = fmt.Sprintf("remotive_%d", job.ID)
		}
		p.SalaryMin, p.SalaryMax = ParseSalaryText(job.Salary)
		postings = append(postings, p)
	}

	return r.opts.capped(postings), nil
}
