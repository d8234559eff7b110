package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jonathan/job-ingest/internal/types"
)

const leverBaseURL = "https://api.lever.co"

// Lever fetches a company's public Lever postings.
type Lever struct {
	atsBase
	opts Options
}

// NewLever creates a Lever adapter.
func NewLever(opts Options) *Lever {
	return &Lever{atsBase: atsBase{platform: types.PlatformLever}, opts: opts}
}

type leverPosting struct {
	ID               string `json:"id"`
	Text             string `json:"text"`
	HostedURL        string `json:"hostedUrl"`
	ApplyURL         string `json:"applyUrl"`
	CreatedAt        int64  `json:"createdAt"`
	Description      string `json:"description"`
	DescriptionPlain string `json:"descriptionPlain"`
	Lists            []struct {
		Text    string `json:"text"`
		Content string `json:"content"`
	} `json:"lists"`
	Additional    string `json:"additional"`
	WorkplaceType string `json:"workplaceType"`
	Country       string `json:"country"`
	Categories    struct {
		Commitment   string   `json:"commitment"`
		Location     string   `json:"location"`
		Team         string   `json:"team"`
		AllLocations []string `json:"allLocations"`
	} `json:"categories"`
	SalaryRange *struct {
		Min      *float64 `json:"min"`
		Max      *float64 `json:"max"`
		Currency string   `json:"currency"`
		Interval string   `json:"interval"`
	} `json:"salaryRange"`
}

// FetchPostings implements Adapter.
func (l *Lever) FetchPostings(ctx context.Context, company types.CompanySource) ([]types.RawPosting, error) {
	slug := boardSlug(company)
	if slug == "" {
		return nil, fmt.Errorf("company %q has no lever board slug", company.CompanyName)
	}

	endpoint := fmt.Sprintf("%s/v0/postings/%s", l.opts.baseURL(leverBaseURL), url.PathEscape(slug))
	fetchOpts := l.opts.fetchOptions()
	fetchOpts.Query = url.Values{"mode": {"json"}}

	var resp []leverPosting
	if err := getJSON(ctx, types.PlatformLever, endpoint, fetchOpts, &resp); err != nil {
		return nil, err
	}

	postings := make([]types.RawPosting, 0, len(resp))
	for _, job := range resp {
		p := types.RawPosting{
			Platform:    types.PlatformLever,
			ExternalID:  job.ID,
			Title:       job.Text,
			Company:     company.CompanyName,
			Description: leverDescription(job),
			Location:    job.Categories.Location,
			Country:     job.Country,
			JobType:     job.Categories.Commitment,
			Remote:      strings.EqualFold(job.WorkplaceType, "remote"),
			ApplyURL:    firstNonEmpty(job.HostedURL, job.ApplyURL),
		}
		if job.CreatedAt > 0 {
			t := time.UnixMilli(job.CreatedAt).UTC()
			p.PostedAt = &t
		}
		if job.SalaryRange != nil {
			p.SalaryMin = floatPtrToInt(job.SalaryRange.Min)
			p.SalaryMax = floatPtrToInt(job.SalaryRange.Max)
			p.SalaryCurrency = job.SalaryRange.Currency
			p.SalaryPeriod = job.SalaryRange.Interval
		}
		postings = append(postings, p)
	}

	return l.opts.capped(postings), nil
}

// leverDescription joins the opening, the requirement lists, and the closing
// section into one HTML document.
func leverDescription(job leverPosting) string {
	var sb strings.Builder
	if job.Description != "" {
		sb.WriteString(job.Description)
	} else {
		sb.WriteString(job.DescriptionPlain)
	}
	for _, list := range job.Lists {
		sb.WriteString("<h3>")
		sb.WriteString(list.Text)
		sb.WriteString("</h3><ul>")
		sb.WriteString(list.Content)
		sb.WriteString("</ul>")
	}
	if job.Additional != "" {
		sb.WriteString("<div>")
		sb.WriteString(job.Additional)
		sb.WriteString("</div>")
	}
	return sb.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
