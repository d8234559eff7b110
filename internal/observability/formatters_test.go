package observability

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/job-ingest/internal/db"
	"github.com/jonathan/job-ingest/internal/types"
)

func TestPrintRunStats(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	stats := &types.RunStats{
		CompaniesProcessed: 3,
		CompaniesFailed:    1,
		PostingsFound:      40,
		PostingsCreated:    10,
		PostingsUpdated:    28,
		PostingsSkipped:    2,
		DurationMs:         1234,
		Errors:             []string{"acme: HTTP status 500"},
		ErrorsTruncated:    4,
		Cleanup:            &types.CleanupResult{PostingsChecked: 100, PostingsMarkedInactive: 3, StaleDaysThreshold: 7},
	}

	p.PrintRunStats(stats)
	output := buf.String()

	assert.Contains(t, output, "INGESTION RUN")
	assert.Contains(t, output, "3 processed, 1 failed")
	assert.Contains(t, output, "10 created, 28 updated, 2 skipped")
	assert.Contains(t, output, "acme: HTTP status 500")
	assert.Contains(t, output, "... and 4 more")
	assert.Contains(t, output, "CLEANUP")
	assert.NotContains(t, output, "GEOCODING")
}

func TestPrintRunStats_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintRunStats(nil)
	assert.Empty(t, buf.String())
}

func TestFit(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"short ascii", "Acme"},
		{"wide runes", "株式会社テスト"},
		{"long ascii", strings.Repeat("x", 100)},
		{"long wide runes", strings.Repeat("株", 40)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, 20, runewidth.StringWidth(fit(tt.in, 20)))
		})
	}
	assert.True(t, strings.HasSuffix(strings.TrimRight(fit(strings.Repeat("x", 100), 20), " "), "..."))
}

func TestPrintCompanyResult(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	company := types.CompanySource{CompanyName: "Acme", Platform: types.PlatformLever}

	p.PrintCompanyResult(company, 5, 2, 3, 0, nil)
	p.PrintCompanyResult(company, 0, 0, 0, 0, errors.New("HTTP status 404"))

	output := buf.String()
	assert.Contains(t, output, "✓ Acme")
	assert.Contains(t, output, "found=5 created=2 updated=3 skipped=0")
	assert.Contains(t, output, "✗ Acme")
	assert.Contains(t, output, "HTTP status 404")
}

func TestPrintCleanupResult_DryRun(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintCleanupResult(&types.CleanupResult{PostingsChecked: 9, PostingsMarkedInactive: 2, DryRun: true, StaleDaysThreshold: 7})

	output := buf.String()
	assert.Contains(t, output, "Would mark:")
	assert.Contains(t, output, "7 days")
}

func TestPrintGeocodeResult(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintGeocodeResult(&types.GeocodeResult{Copied: 4, Geocoded: 2, Failed: 1, Remaining: 7})

	output := buf.String()
	assert.Contains(t, output, "Copied:    4 rows")
	assert.Contains(t, output, "Remaining: 7 locations")
}

func TestPrintClassification(t *testing.T) {
	var buf bytes.Buffer
	c := &types.Classification{
		ExperienceLevel: types.LevelEntry,
		AudienceTags:    []types.AudienceTag{types.TagGenZ},
		Confidence:      0.7,
		NeedsReview:     false,
		Signals: types.ClassificationSignals{
			TitleMatch: "manager",
			Overrides:  []string{"retail/service manager context"},
		},
	}

	NewPrinter(&buf).PrintClassification("Shift Manager", c)

	output := buf.String()
	assert.Contains(t, output, "ENTRY (0.70)")
	assert.Contains(t, output, "genz")
	assert.Contains(t, output, "retail/service manager context")
	assert.NotContains(t, output, "Review:")
}

func TestPrintTrending_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintTrending(nil, 10)
	assert.Contains(t, buf.String(), "No postings with 10 or more saves")
}

func TestPrintReviewQueue(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintReviewQueue([]db.ReviewPosting{
		{Title: "Coordinator", Company: "Acme", Platform: types.PlatformAshby, ExperienceLevel: types.LevelMid, Confidence: 0.41, AudienceTags: []string{"genz", "mid_career"}},
		{Title: "Analyst", Company: "Beta", Platform: types.PlatformLever, ExperienceLevel: types.LevelEntry, Confidence: 0.45, AudienceTags: []string{"genz"}},
	})

	output := buf.String()
	assert.Contains(t, output, "By level: ENTRY=1 MID=1")
	assert.Contains(t, output, "0.41  Coordinator")
}
