package pipeline

import (
	"sync"

	"github.com/jonathan/job-ingest/internal/types"
)

// companyCounts are the per-company tallies folded into RunStats.
type companyCounts struct {
	found        int
	created      int
	updated      int
	skipped      int
	reclassified int
}

func (c companyCounts) summary() map[string]int {
	return map[string]int{
		"found":   c.found,
		"created": c.created,
		"updated": c.updated,
		"skipped": c.skipped,
	}
}

// recorder serializes updates to RunStats from concurrent company workers.
type recorder struct {
	mu    sync.Mutex
	stats *types.RunStats
	max   int
}

// addError appends msg unless the list is full, in which case it is only counted.
func (r *recorder) addError(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appendError(msg)
}

func (r *recorder) appendError(msg string) {
	if len(r.stats.Errors) >= r.max {
		r.stats.ErrorsTruncated++
		return
	}
	r.stats.Errors = append(r.stats.Errors, msg)
}

// companyFailed marks a company failed, keeping whatever it wrote first.
func (r *recorder) companyFailed(c companyCounts, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.CompaniesFailed++
	r.addCounts(c)
	r.appendError(msg)
}

func (r *recorder) companyDone(c companyCounts) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addCounts(c)
}

func (r *recorder) addCounts(c companyCounts) {
	r.stats.CompaniesProcessed++
	r.stats.PostingsFound += c.found
	r.stats.PostingsCreated += c.created
	r.stats.PostingsUpdated += c.updated
	r.stats.PostingsSkipped += c.skipped
	r.stats.PostingsReclassified += c.reclassified
}
