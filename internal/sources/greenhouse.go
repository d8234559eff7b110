package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/jonathan/job-ingest/internal/types"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io"

// Greenhouse fetches a company's public Greenhouse job board.
type Greenhouse struct {
	atsBase
	opts Options
}

// NewGreenhouse creates a Greenhouse adapter.
func NewGreenhouse(opts Options) *Greenhouse {
	return &Greenhouse{atsBase: atsBase{platform: types.PlatformGreenhouse}, opts: opts}
}

type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

type greenhouseJob struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	AbsoluteURL    string `json:"absolute_url"`
	Content        string `json:"content"`
	UpdatedAt      string `json:"updated_at"`
	FirstPublished string `json:"first_published"`
	Location       *struct {
		Name string `json:"name"`
	} `json:"location"`
	Metadata []struct {
		Name  string `json:"name"`
		Value any    `json:"value"`
	} `json:"metadata"`
}

// FetchPostings implements Adapter.
func (g *Greenhouse) FetchPostings(ctx context.Context, company types.CompanySource) ([]types.RawPosting, error) {
	slug := boardSlug(company)
	if slug == "" {
		return nil, fmt.Errorf("company %q has no greenhouse board slug", company.CompanyName)
	}

	endpoint := fmt.Sprintf("%s/v1/boards/%s/jobs", g.opts.baseURL(greenhouseBaseURL), url.PathEscape(slug))
	fetchOpts := g.opts.fetchOptions()
	fetchOpts.Query = url.Values{"content": {"true"}}

	var resp greenhouseResponse
	if err := getJSON(ctx, types.PlatformGreenhouse, endpoint, fetchOpts, &resp); err != nil {
		return nil, err
	}

	postings := make([]types.RawPosting, 0, len(resp.Jobs))
	for _, job := range resp.Jobs {
		p := types.RawPosting{
			Platform:    types.PlatformGreenhouse,
			Title:       job.Title,
			Company:     company.CompanyName,
			Description: job.Content,
			ApplyURL:    job.AbsoluteURL,
			JobType:     greenhouseMetadata(job, "Employment Type"),
		}
		if job.ID != 0 {
			p.ExternalID = strconv.FormatInt(job.ID, 10)
		}
		if job.Location != nil {
			p.Location = job.Location.Name
		}
		p.PostedAt = parseTimestamp(job.FirstPublished, job.UpdatedAt)
		postings = append(postings, p)
	}

	return g.opts.capped(postings), nil
}

// greenhouseMetadata returns a string metadata value by case-sensitive name.
func greenhouseMetadata(job greenhouseJob, name string) string {
	for _, m := range job.Metadata {
		if m.Name == name {
			if s, ok := m.Value.(string); ok {
				return s
			}
		}
	}
	return ""
}

// parseTimestamp returns the first value that parses as RFC 3339.
func parseTimestamp(values ...string) *time.Time {
	for _, v := range values {
		if v == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
