package sources

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/jonathan/job-ingest/internal/logger"
	"github.com/jonathan/job-ingest/internal/types"
)

const usajobsBaseURL = "https://data.usajobs.gov"

// USAJobs queries the federal USAJobs search API once per keyword.
type USAJobs struct {
	aggregatorBase
	opts     Options
	apiKey   string
	email    string
	keywords []string
}

// NewUSAJobs creates a USAJobs adapter. The API requires both a key and the
// registered contact email, sent as the User-Agent.
func NewUSAJobs(opts Options, apiKey, email string, keywords []string) *USAJobs {
	return &USAJobs{
		aggregatorBase: aggregatorBase{platform: types.PlatformUSAJobs, displayName: "USAJobs"},
		opts:           opts,
		apiKey:         apiKey,
		email:          email,
		keywords:       keywords,
	}
}

type usajobsResponse struct {
	SearchResult struct {
		SearchResultItems []struct {
			MatchedObjectDescriptor usajobsPosition `json:"MatchedObjectDescriptor"`
		} `json:"SearchResultItems"`
	} `json:"SearchResult"`
}

type usajobsPosition struct {
	PositionID           string `json:"PositionID"`
	PositionTitle        string `json:"PositionTitle"`
	PositionURI          string `json:"PositionURI"`
	OrganizationName     string `json:"OrganizationName"`
	DepartmentName       string `json:"DepartmentName"`
	QualificationSummary string `json:"QualificationSummary"`
	PublicationStartDate string `json:"PublicationStartDate"`
	PositionLocation     []struct {
		CityName               string `json:"CityName"`
		CountrySubDivisionCode string `json:"CountrySubDivisionCode"`
		CountryCode            string `json:"CountryCode"`
	} `json:"PositionLocation"`
	PositionSchedule []struct {
		Name string `json:"Name"`
	} `json:"PositionSchedule"`
	PositionRemuneration []struct {
		MinimumRange     string `json:"MinimumRange"`
		MaximumRange     string `json:"MaximumRange"`
		RateIntervalCode string `json:"RateIntervalCode"`
	} `json:"PositionRemuneration"`
	UserArea struct {
		Details struct {
			JobSummary       string   `json:"JobSummary"`
			TeleworkEligible flexBool `json:"TeleworkEligible"`
			RemoteIndicator  flexBool `json:"RemoteIndicator"`
		} `json:"Details"`
	} `json:"UserArea"`
}

// flexBool decodes true/false sent as a JSON bool or as "Yes"/"No"/"true".
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case bool:
		*b = flexBool(v)
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		*b = flexBool(s == "yes" || s == "true" || s == "y")
	}
	return nil
}

// FetchPostings implements Adapter.
func (u *USAJobs) FetchPostings(ctx context.Context, _ types.CompanySource) ([]types.RawPosting, error) {
	log := logger.OrDefault(u.opts.Logger).With("source", types.PlatformUSAJobs)
	endpoint := u.opts.baseURL(usajobsBaseURL) + "/api/search"

	seen := make(map[string]bool)
	var postings []types.RawPosting
	var errs []error

	for _, keyword := range u.keywords {
		if u.opts.MaxPostings > 0 && len(postings) >= u.opts.MaxPostings {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fetchOpts := u.opts.fetchOptions()
		fetchOpts.UserAgent = u.email
		fetchOpts.Headers = map[string]string{"Authorization-Key": u.apiKey}
		fetchOpts.Query = url.Values{
			"Keyword":        {keyword},
			"ResultsPerPage": {"25"},
			"DatePosted":     {"7"},
		}

		var resp usajobsResponse
		if err := getJSON(ctx, types.PlatformUSAJobs, endpoint, fetchOpts, &resp); err != nil {
			log.Warn("usajobs query failed", "keyword", keyword, "error", err)
			errs = append(errs, err)
			continue
		}

		for _, item := range resp.SearchResult.SearchResultItems {
			pos := item.MatchedObjectDescriptor
			if pos.PositionID != "" && seen[pos.PositionID] {
				continue
			}
			seen[pos.PositionID] = true
			postings = append(postings, usajobsPosting(pos))
		}
	}

	if len(errs) > 0 && len(errs) == len(u.keywords) {
		return nil, errors.Join(errs...)
	}
	return u.opts.capped(postings), nil
}

func usajobsPosting(pos usajobsPosition) types.RawPosting {
	p := types.RawPosting{
		Platform:       types.PlatformUSAJobs,
		Title:          strings.TrimSpace(pos.PositionTitle),
		Company:        firstNonEmpty(pos.OrganizationName, pos.DepartmentName, "U.S. Government"),
		Country:        "US",
		Remote:         bool(pos.UserArea.Details.TeleworkEligible) || bool(pos.UserArea.Details.RemoteIndicator),
		ApplyURL:       pos.PositionURI,
		PostedAt:       parseLooseTimestamp(pos.PublicationStartDate),
		SalaryCurrency: "USD",
	}
	if pos.PositionID != "" {
		p.ExternalID = "usajobs_" + pos.PositionID
	}

	desc := pos.UserArea.Details.JobSummary
	if pos.QualificationSummary != "" {
		desc += "\n\nQualifications:\n" + pos.QualificationSummary
	}
	p.Description = desc

	if len(pos.PositionLocation) > 0 {
		loc := pos.PositionLocation[0]
		p.Location = joinNonEmpty(", ", loc.CityName, loc.CountrySubDivisionCode)
	}

	if len(pos.PositionSchedule) > 0 {
		p.JobType = pos.PositionSchedule[0].Name
	}

	if len(pos.PositionRemuneration) > 0 {
		rem := pos.PositionRemuneration[0]
		p.SalaryMin = parseAmount(rem.MinimumRange)
		p.SalaryMax = parseAmount(rem.MaximumRange)
		p.SalaryPeriod = usajobsInterval(rem.RateIntervalCode)
	}
	return p
}

func parseAmount(s string) *int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f <= 0 {
		return nil
	}
	v := int(math.Round(f))
	return &v
}

// usajobsInterval maps USAJobs rate interval codes to salary periods.
func usajobsInterval(code string) string {
	switch strings.ToUpper(code) {
	case "PH":
		return "HOUR"
	case "PD":
		return "DAY"
	case "BW":
		return "BIWEEKLY"
	case "PM":
		return "MONTH"
	default:
		return "YEAR"
	}
}
