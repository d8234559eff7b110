package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jonathan/job-ingest/internal/fetch"
	"github.com/jonathan/job-ingest/internal/logger"
	"github.com/jonathan/job-ingest/internal/types"
)

const (
	apprenticeshipBaseURL   = "https://www.apprenticeship.gov"
	apprenticeshipFinderURL = "https://www.apprenticeship.gov/apprenticeship-job-finder"
	apprenticeshipSponsor   = "Registered Apprenticeship Program"
)

// Apprenticeship queries the Apprenticeship.gov registered apprenticeship API
// once per occupation keyword. Programs are in-person and US-only.
type Apprenticeship struct {
	aggregatorBase
	opts        Options
	occupations []string
}

// NewApprenticeship creates an Apprenticeship.gov adapter.
func NewApprenticeship(opts Options, occupations []string) *Apprenticeship {
	return &Apprenticeship{
		aggregatorBase: aggregatorBase{platform: types.PlatformApprenticeship, displayName: "Apprenticeship.gov"},
		opts:           opts,
		occupations:    occupations,
	}
}

// flexText decodes a value sent either as a JSON string or as a number.
type flexText string

func (f *flexText) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		*f = flexText(strings.TrimSpace(v))
	case float64:
		*f = flexText(strconv.FormatFloat(v, 'f', -1, 64))
	}
	return nil
}

type apprenticeshipProgram struct {
	ID                    flexText `json:"id"`
	ProgramID             flexText `json:"program_id"`
	RapidsNumber          flexText `json:"rapids_number"`
	OccupationTitle       string   `json:"occupation_title"`
	Title                 string   `json:"title"`
	SponsorName           string   `json:"sponsor_name"`
	EmployerName          string   `json:"employer_name"`
	ProgramDescription    string   `json:"program_description"`
	OccupationDescription string   `json:"occupation_description"`
	Requirements          string   `json:"requirements"`
	TermLength            flexText `json:"term_length"`
	DurationMonths        flexText `json:"duration_months"`
	StartingWage          flexText `json:"starting_wage"`
	WageRange             flexText `json:"wage_range"`
	City                  string   `json:"city"`
	State                 string   `json:"state"`
	CreatedAt             string   `json:"created_at"`
	PostedDate            string   `json:"posted_date"`
	URL                   string   `json:"url"`
	ApplyURL              string   `json:"apply_url"`
}

// FetchPostings implements Adapter. A 429 stops the remaining keyword
// queries; other per-keyword failures are skipped unless every query fails.
func (a *Apprenticeship) FetchPostings(ctx context.Context, _ types.CompanySource) ([]types.RawPosting, error) {
	log := logger.OrDefault(a.opts.Logger).With("source", types.PlatformApprenticeship)
	endpoint := a.opts.baseURL(apprenticeshipBaseURL) + "/api/v1/apprenticeships"

	seen := make(map[string]bool)
	var postings []types.RawPosting
	var errs []error
	succeeded := 0

	for _, occupation := range a.occupations {
		if a.opts.MaxPostings > 0 && len(postings) >= a.opts.MaxPostings {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fetchOpts := a.opts.fetchOptions()
		fetchOpts.Query = url.Values{
			"keyword":  {occupation},
			"page":     {"1"},
			"per_page": {"25"},
		}

		var body json.RawMessage
		if err := getJSON(ctx, types.PlatformApprenticeship, endpoint, fetchOpts, &body); err != nil {
			var fetchErr *fetch.Error
			if errors.As(err, &fetchErr) && fetchErr.StatusCode == http.StatusTooManyRequests {
				log.Warn("apprenticeship.gov rate limit reached, stopping", "keyword", occupation)
				errs = append(errs, err)
				break
			}
			log.Warn("apprenticeship query failed", "keyword", occupation, "error", err)
			errs = append(errs, err)
			continue
		}

		programs, err := decodePrograms(body)
		if err != nil {
			errs = append(errs, &PayloadError{Platform: types.PlatformApprenticeship, URL: endpoint, Message: "failed to decode", Cause: err})
			continue
		}
		succeeded++

		for _, prog := range programs {
			p, ok := apprenticeshipPosting(prog)
			if !ok {
				continue
			}
			if seen[p.ExternalID] {
				continue
			}
			seen[p.ExternalID] = true
			postings = append(postings, p)
		}
	}

	if len(errs) > 0 && succeeded == 0 {
		return nil, errors.Join(errs...)
	}
	return a.opts.capped(postings), nil
}

// decodePrograms accepts both {"data": [...]} and a bare array.
func decodePrograms(body json.RawMessage) ([]apprenticeshipProgram, error) {
	var programs []apprenticeshipProgram
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '[' {
		err := json.Unmarshal(trimmed, &programs)
		return programs, err
	}
	var wrapped struct {
		Data []apprenticeshipProgram `json:"data"`
	}
	err := json.Unmarshal(body, &wrapped)
	return wrapped.Data, err
}

// apprenticeshipPosting maps one program. Programs without an id or an
// occupation title are dropped.
func apprenticeshipPosting(prog apprenticeshipProgram) (types.RawPosting, bool) {
	id := firstNonEmpty(string(prog.ID), string(prog.ProgramID), string(prog.RapidsNumber))
	title := firstNonEmpty(strings.TrimSpace(prog.OccupationTitle), strings.TrimSpace(prog.Title))
	if id == "" || title == "" {
		return types.RawPosting{}, false
	}

	p := types.RawPosting{
		Platform:       types.PlatformApprenticeship,
		ExternalID:     "apprenticeship_" + id,
		Title:          title + " Apprentice",
		Company:        firstNonEmpty(strings.TrimSpace(prog.SponsorName), strings.TrimSpace(prog.EmployerName), apprenticeshipSponsor),
		Description:    programDescription(prog, title),
		Country:        "US",
		State:          strings.TrimSpace(prog.State),
		JobType:        "apprenticeship",
		SalaryCurrency: "USD",
		SalaryPeriod:   "HOUR",
		PostedAt:       parseLooseTimestamp(firstNonEmpty(prog.CreatedAt, prog.PostedDate)),
		ApplyURL:       firstNonEmpty(prog.URL, prog.ApplyURL),
	}

	city := strings.TrimSpace(prog.City)
	switch {
	case city != "" && p.State != "":
		p.Location = city + ", " + p.State
	default:
		p.Location = firstNonEmpty(city, p.State, "United States")
	}

	if p.ApplyURL == "" {
		p.ApplyURL = apprenticeshipFinderURL + "?" + url.Values{"occupation": {title}}.Encode()
	}

	// A single starting wage is a floor, not a range.
	if lo, hi := ParseSalaryText(string(prog.StartingWage)); lo != nil {
		p.SalaryMin = lo
		if *hi != *lo {
			p.SalaryMax = hi
		}
	}
	return p, true
}

func programDescription(prog apprenticeshipProgram, title string) string {
	var parts []string
	for _, s := range []string{prog.ProgramDescription, prog.OccupationDescription} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	if s := strings.TrimSpace(prog.Requirements); s != "" {
		parts = append(parts, "Requirements: "+s)
	}
	if d := firstNonEmpty(string(prog.TermLength), string(prog.DurationMonths)); d != "" {
		parts = append(parts, "Program Duration: "+d)
	}
	if w := firstNonEmpty(string(prog.StartingWage), string(prog.WageRange)); w != "" {
		parts = append(parts, "Starting Wage: "+w)
	}
	if len(parts) == 0 {
		return "Registered " + title + " Apprenticeship Program"
	}
	return strings.Join(parts, "\n\n")
}
