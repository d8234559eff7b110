// Package normalize maps raw provider postings onto the canonical
// pre-classification record. Everything here is pure: no I/O, no clock.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/job-ingest/internal/fetch"
	"github.com/jonathan/job-ingest/internal/types"
)

// FallbackIDPrefix marks identity keys derived from content rather than a
// provider id.
const FallbackIDPrefix = "h:"

var validate = validator.New()

// Normalize converts a raw posting into its canonical form. now is used as
// postedAt when the source carries no date.
func Normalize(raw types.RawPosting, now time.Time) (*types.NormalizedPosting, error) {
	title := strings.Join(strings.Fields(raw.Title), " ")
	company := strings.Join(strings.Fields(raw.Company), " ")

	if title == "" {
		return nil, &MalformedPayloadError{Platform: raw.Platform, ExternalID: raw.ExternalID, Field: "title", Message: "missing"}
	}
	if company == "" {
		return nil, &MalformedPayloadError{Platform: raw.Platform, ExternalID: raw.ExternalID, Field: "company", Message: "missing"}
	}

	applyURL := strings.TrimSpace(raw.ApplyURL)
	if err := validate.Struct(raw); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, &MalformedPayloadError{Platform: raw.Platform, ExternalID: raw.ExternalID, Message: err.Error()}
		}
		for _, fe := range verrs {
			if fe.Field() == "ApplyURL" {
				// invalid apply links are cleared
				applyURL = ""
				continue
			}
			return nil, &MalformedPayloadError{Platform: raw.Platform, ExternalID: raw.ExternalID, Field: fe.Field(), Message: fe.Tag()}
		}
	}

	description := descriptionText(raw.Description)
	location := strings.Join(strings.Fields(raw.Location), " ")

	posting := &types.NormalizedPosting{
		Platform:       raw.Platform,
		ExternalID:     strings.TrimSpace(raw.ExternalID),
		Title:          title,
		Company:        company,
		Description:    description,
		Location:       location,
		Country:        countryOf(raw, location),
		JobType:        MapJobType(raw.JobType, title),
		SalaryCurrency: strings.ToUpper(strings.TrimSpace(raw.SalaryCurrency)),
		SalaryPeriod:   strings.TrimSpace(raw.SalaryPeriod),
		Skills:         ExtractSkills(title, description, strings.Join(raw.Tags, "\n")),
		Remote:         IsRemote(raw.Remote, title, location),
		ApplyURL:       applyURL,
		CompanyLogo:    strings.TrimSpace(raw.CompanyLogo),
	}

	posting.SalaryMin, posting.SalaryMax = normalizeSalary(raw.SalaryMin, raw.SalaryMax)
	if posting.SalaryMin == nil && posting.SalaryMax == nil {
		posting.SalaryCurrency = ""
		posting.SalaryPeriod = ""
	}

	if raw.PostedAt != nil && !raw.PostedAt.IsZero() {
		posting.PostedAt = raw.PostedAt.UTC()
	} else {
		posting.PostedAt = now.UTC()
	}

	if posting.ExternalID == "" {
		posting.ExternalID = FallbackID(company, title, location)
	}
	posting.ContentHash = ContentHash(title, description)

	return posting, nil
}

// FallbackID derives a deterministic identity for sources without stable ids.
// Any edit to company, title or location yields a new identity.
func FallbackID(company, title, location string) string {
	key := strings.ToLower(company) + "|" + strings.ToLower(title) + "|" + strings.ToLower(location)
	sum := sha256.Sum256([]byte(key))
	return FallbackIDPrefix + hex.EncodeToString(sum[:])[:32]
}

// ContentHash fingerprints the fields whose change triggers reclassification.
func ContentHash(title, description string) string {
	sum := sha256.Sum256([]byte(title + "\n" + description))
	return hex.EncodeToString(sum[:])
}

// descriptionText strips markup. A fragment goquery cannot parse is kept as
// whitespace-collapsed raw text.
func descriptionText(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	text, err := fetch.HTMLToText(raw)
	if err != nil {
		return strings.Join(strings.Fields(raw), " ")
	}
	return text
}

// normalizeSalary drops non-positive values and swaps a reversed range.
func normalizeSalary(lo, hi *int) (*int, *int) {
	lo = positive(lo)
	hi = positive(hi)
	if lo != nil && hi != nil && *lo > *hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

func positive(v *int) *int {
	if v == nil || *v <= 0 {
		return nil
	}
	n := *v
	return &n
}

// countryOf prefers the provider country, then the location string, then a
// separately reported US state.
func countryOf(raw types.RawPosting, location string) *string {
	if c := DeriveCountry(raw.Country, location); c != nil {
		return c
	}
	return CountryFromState(raw.State)
}
