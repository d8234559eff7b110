package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jonathan/job-ingest/internal/types"
)

const ashbyBaseURL = "https://api.ashbyhq.com"

// Ashby fetches a company's public Ashby job board.
type Ashby struct {
	atsBase
	opts Options
}

// NewAshby creates an Ashby adapter.
func NewAshby(opts Options) *Ashby {
	return &Ashby{atsBase: atsBase{platform: types.PlatformAshby}, opts: opts}
}

type ashbyResponse struct {
	Jobs []ashbyJob `json:"jobs"`
}

type ashbyJob struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Location         string `json:"location"`
	EmploymentType   string `json:"employmentType"`
	IsRemote         bool   `json:"isRemote"`
	PublishedAt      string `json:"publishedAt"`
	JobURL           string `json:"jobUrl"`
	ApplyURL         string `json:"applyUrl"`
	DescriptionHTML  string `json:"descriptionHtml"`
	DescriptionPlain string `json:"descriptionPlain"`
	Address          *struct {
		PostalAddress struct {
			AddressCountry  string `json:"addressCountry"`
			AddressLocality string `json:"addressLocality"`
			AddressRegion   string `json:"addressRegion"`
		} `json:"postalAddress"`
	} `json:"address"`
	Compensation *struct {
		SummaryComponents []struct {
			CompensationType string   `json:"compensationType"`
			Interval         string   `json:"interval"`
			CurrencyCode     string   `json:"currencyCode"`
			MinValue         *float64 `json:"minValue"`
			MaxValue         *float64 `json:"maxValue"`
		} `json:"summaryComponents"`
	} `json:"compensation"`
}

// FetchPostings implements Adapter.
func (a *Ashby) FetchPostings(ctx context.Context, company types.CompanySource) ([]types.RawPosting, error) {
	slug := boardSlug(company)
	if slug == "" {
		return nil, fmt.Errorf("company %q has no ashby board slug", company.CompanyName)
	}

	endpoint := fmt.Sprintf("%s/posting-api/job-board/%s", a.opts.baseURL(ashbyBaseURL), url.PathEscape(slug))
	fetchOpts := a.opts.fetchOptions()
	fetchOpts.Query = url.Values{"includeCompensation": {"true"}}

	var resp ashbyResponse
	if err := getJSON(ctx, types.PlatformAshby, endpoint, fetchOpts, &resp); err != nil {
		return nil, err
	}

	postings := make([]types.RawPosting, 0, len(resp.Jobs))
	for _, job := range resp.Jobs {
		p := types.RawPosting{
			Platform:    types.PlatformAshby,
			ExternalID:  job.ID,
			Title:       job.Title,
			Company:     company.CompanyName,
			Description: firstNonEmpty(job.DescriptionHTML, job.DescriptionPlain),
			Location:    job.Location,
			JobType:     job.EmploymentType,
			Remote:      job.IsRemote,
			ApplyURL:    firstNonEmpty(job.JobURL, job.ApplyURL),
			PostedAt:    parseTimestamp(job.PublishedAt),
		}
		if job.Address != nil {
			p.Country = job.Address.PostalAddress.AddressCountry
		}
		if job.Compensation != nil {
			for _, c := range job.Compensation.SummaryComponents {
				if !strings.EqualFold(c.CompensationType, "Salary") {
					continue
				}
				p.SalaryMin = floatPtrToInt(c.MinValue)
				p.SalaryMax = floatPtrToInt(c.MaxValue)
				p.SalaryCurrency = c.CurrencyCode
				p.SalaryPeriod = c.Interval
				break
			}
		}
		postings = append(postings, p)
	}

	return a.opts.capped(postings), nil
}
