package sources

import (
	"context"
	"strings"

	"github.com/jonathan/job-ingest/internal/types"
)

const arbeitnowBaseURL = "https://www.arbeitnow.com"

// Arbeitnow fetches the Arbeitnow job board API.
type Arbeitnow struct {
	aggregatorBase
	opts Options
}

// NewArbeitnow creates an Arbeitnow adapter.
func NewArbeitnow(opts Options) *Arbeitnow {
	return &Arbeitnow{
		aggregatorBase: aggregatorBase{platform: types.PlatformArbeitnow, displayName: "Arbeitnow"},
		opts:           opts,
	}
}

type arbeitnowResponse struct {
	Data []arbeitnowJob `json:"data"`
}

type arbeitnowJob struct {
	Slug        string       `json:"slug"`
	CompanyName string       `json:"company_name"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Remote      bool         `json:"remote"`
	URL         string       `json:"url"`
	Tags        []string     `json:"tags"`
	JobTypes    []string     `json:"job_types"`
	Location    string       `json:"location"`
	CreatedAt   unixOrString `json:"created_at"`
}

// FetchPostings implements Adapter.
func (a *Arbeitnow) FetchPostings(ctx context.Context, _ types.CompanySource) ([]types.RawPosting, error) {
	endpoint := a.opts.baseURL(arbeitnowBaseURL) + "/api/job-board-api"

	var resp arbeitnowResponse
	if err := getJSON(ctx, types.PlatformArbeitnow, endpoint, a.opts.fetchOptions(), &resp); err != nil {
		return nil, err
	}

	postings := make([]types.RawPosting, 0, len(resp.Data))
	for _, job := range resp.Data {
		p := types.RawPosting{
			Platform:    types.PlatformArbeitnow,
			Title:       strings.TrimSpace(job.Title),
			Company:     strings.TrimSpace(job.CompanyName),
			Description: job.Description,
			Location:    job.Location,
			JobType:     strings.Join(job.JobTypes, " "),
			Remote:      job.Remote,
			Tags:        job.Tags,
			ApplyURL:    job.URL,
			PostedAt:    job.CreatedAt.t,
		}
		if job.Slug != "" {
			p.ExternalID = "arbeitnow_" + job.Slug
		}
		postings = append(postings, p)
	}

	return a.opts.capped(postings), nil
}
