package classify

import (
	"strings"

	"github.com/jonathan/job-ingest/internal/types"
)

// Annual salary band edges.
const (
	entrySalaryCeiling  = 60000
	midSalaryCeiling    = 100000
	seniorSalaryCeiling = 200000
)

// annualize converts an amount to a yearly figure for banding only. Stored
// salaries keep their original period.
func annualize(amount float64, period string) float64 {
	p := strings.ToLower(period)
	switch {
	case strings.Contains(p, "hour"):
		return amount * 2080
	case strings.Contains(p, "day") || strings.Contains(p, "daily"):
		return amount * 260
	case strings.Contains(p, "biweek"):
		return amount * 26
	case strings.Contains(p, "week"):
		return amount * 52
	case strings.Contains(p, "month"):
		return amount * 12
	default:
		return amount
	}
}

// salaryLevel maps the annualized salary midpoint to a level and its band label.
func salaryLevel(lo, hi *int, period string) (types.ExperienceLevel, string) {
	var mid float64
	switch {
	case lo != nil && hi != nil:
		mid = float64(*lo+*hi) / 2
	case lo != nil:
		mid = float64(*lo)
	case hi != nil:
		mid = float64(*hi)
	default:
		return "", ""
	}
	if mid <= 0 {
		return "", ""
	}

	annual := annualize(mid, period)
	switch {
	case annual < entrySalaryCeiling:
		return types.LevelEntry, "<$60k (entry)"
	case annual < midSalaryCeiling:
		return types.LevelMid, "$60k-$100k (mid)"
	case annual < seniorSalaryCeiling:
		return types.LevelSenior, "$100k-$200k (senior)"
	default:
		return types.LevelExecutive, ">$200k (executive)"
	}
}
