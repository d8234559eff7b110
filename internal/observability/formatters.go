// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jonathan/job-ingest/internal/db"
	"github.com/jonathan/job-ingest/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content. Widths are
// measured in terminal cells so company names in any script stay aligned.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	inner := boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", fit(title, inner))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", fit(line, inner))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// fit truncates s to width cells and pads it on the right.
func fit(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "..."), width)
}

// PrintCompanyResult outputs one line per processed company.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintCompanyResult(company types.CompanySource, found, created, updated, skipped int, err error) {
	name := fit(company.CompanyName, 24)
	if err != nil {
		fmt.Fprintf(p.out, "  ✗ %s [%s] %v\n", name, company.Platform, err)
		return
	}
	fmt.Fprintf(p.out, "  ✓ %s [%s] found=%d created=%d updated=%d skipped=%d\n",
		name, company.Platform, found, created, updated, skipped)
}

// PrintRunStats outputs a summary of an ingestion run.
func (p *Printer) PrintRunStats(stats *types.RunStats) {
	if stats == nil {
		return
	}

	var sb strings.Builder
	if stats.DryRun {
		sb.WriteString("Mode:         dry run (nothing persisted)\n")
	}
	sb.WriteString(fmt.Sprintf("Companies:    %d processed, %d failed\n", stats.CompaniesProcessed, stats.CompaniesFailed))
	sb.WriteString(fmt.Sprintf("Postings:     %d found\n", stats.PostingsFound))
	sb.WriteString(fmt.Sprintf("              %d created, %d updated, %d skipped\n",
		stats.PostingsCreated, stats.PostingsUpdated, stats.PostingsSkipped))
	sb.WriteString(fmt.Sprintf("Reclassified: %d\n", stats.PostingsReclassified))
	sb.WriteString(fmt.Sprintf("Duration:     %dms\n", stats.DurationMs))

	if len(stats.Errors) > 0 {
		sb.WriteString("\nErrors:\n")
		count := min(len(stats.Errors), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", stats.Errors[i]))
		}
		if more := len(stats.Errors) - count + stats.ErrorsTruncated; more > 0 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", more))
		}
	}

	p.printBox("INGESTION RUN", strings.TrimSuffix(sb.String(), "\n"))

	if stats.Cleanup != nil {
		p.PrintCleanupResult(stats.Cleanup)
	}
	if stats.Geocode != nil {
		p.PrintGeocodeResult(stats.Geocode)
	}
}

// PrintCleanupResult outputs a summary of a staleness sweep.
func (p *Printer) PrintCleanupResult(r *types.CleanupResult) {
	if r == nil {
		return
	}
	verb := "Marked inactive"
	if r.DryRun {
		verb = "Would mark"
	}
	content := fmt.Sprintf("Checked:         %d active postings\n%-16s %d\nThreshold:       %d days",
		r.PostingsChecked, verb+":", r.PostingsMarkedInactive, r.StaleDaysThreshold)
	p.printBox("CLEANUP", content)
}

// PrintGeocodeResult outputs a summary of a geocoding run.
func (p *Printer) PrintGeocodeResult(r *types.GeocodeResult) {
	if r == nil {
		return
	}
	content := fmt.Sprintf("Copied:    %d rows\nGeocoded:  %d rows\nFailed:    %d locations\nRemaining: %d locations",
		r.Copied, r.Geocoded, r.Failed, r.Remaining)
	p.printBox("GEOCODING", content)
}

// PrintClassification outputs a classifier decision with the signals behind it.
func (p *Printer) PrintClassification(title string, c *types.Classification) {
	if c == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title:      %s\n", title))
	sb.WriteString(fmt.Sprintf("Level:      %s (%.2f)\n", c.ExperienceLevel, c.Confidence))
	sb.WriteString(fmt.Sprintf("Tags:       %s\n", strings.Join(c.TagStrings(), ", ")))
	sb.WriteString(fmt.Sprintf("Locale:     %.2f\n", c.LocaleConfidence))
	if c.NeedsReview {
		sb.WriteString("Review:     needed\n")
	}

	s := c.Signals
	if s.YearsRequired != nil {
		sb.WriteString(fmt.Sprintf("Years:      %d-%d\n", s.YearsRequired.Min, s.YearsRequired.Max))
	}
	if s.TitleMatch != "" {
		sb.WriteString(fmt.Sprintf("Title hit:  %s\n", s.TitleMatch))
	}
	if s.SalaryBand != "" {
		sb.WriteString(fmt.Sprintf("Salary:     %s\n", s.SalaryBand))
	}
	for _, o := range s.Overrides {
		sb.WriteString(fmt.Sprintf("Override:   %s\n", o))
	}

	p.printBox("CLASSIFICATION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintTrending outputs trending postings.
func (p *Printer) PrintTrending(postings []db.TrendingPosting, threshold int) {
	var sb strings.Builder
	if len(postings) == 0 {
		sb.WriteString(fmt.Sprintf("No postings with %d or more saves", threshold))
	}
	for i, t := range postings {
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, t.Title))
		sb.WriteString(fmt.Sprintf("    %s, %d saves\n", t.Company, t.SaveCount))
	}
	p.printBox("TRENDING", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintReviewQueue outputs postings flagged for review, grouped by level.
func (p *Printer) PrintReviewQueue(postings []db.ReviewPosting) {
	var sb strings.Builder
	if len(postings) == 0 {
		sb.WriteString("Nothing to review")
	}

	byLevel := map[types.ExperienceLevel]int{}
	for _, r := range postings {
		byLevel[r.ExperienceLevel]++
	}
	levels := make([]string, 0, len(byLevel))
	for l, n := range byLevel {
		levels = append(levels, fmt.Sprintf("%s=%d", l, n))
	}
	sort.Strings(levels)
	if len(levels) > 0 {
		sb.WriteString(fmt.Sprintf("By level: %s\n\n", strings.Join(levels, " ")))
	}

	for _, r := range postings {
		sb.WriteString(fmt.Sprintf("%.2f  %s\n", r.Confidence, r.Title))
		sb.WriteString(fmt.Sprintf("      %s [%s] %s\n", r.Company, r.Platform, strings.Join(r.AudienceTags, ",")))
	}
	p.printBox("NEEDS REVIEW", strings.TrimSuffix(sb.String(), "\n"))
}
