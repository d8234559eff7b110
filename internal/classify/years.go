package classify

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/job-ingest/internal/types"
)

const maxReasonableYears = 25

var (
	noExperienceRegex = regexp.MustCompile(`no (?:prior )?experience (?:required|necessary|needed)|entry.?level`)
	rangeYearsRegex   = regexp.MustCompile(`(\d{1,2})\s*(?:to|-|–)\s*(\d{1,2})\s*\+?\s*years?`)
	plusYearsRegex    = regexp.MustCompile(`(\d{1,2})\+\s*years?`)
	minimumYearsRegex = regexp.MustCompile(`(?:minimum(?: of)?|at least|min\.?)\s*(\d{1,2})\s*years?`)
	simpleYearsRegex  = regexp.MustCompile(`(\d{1,2})\s*years?\s*(?:of\s+)?(?:relevant\s+|related\s+|professional\s+)?experience`)
)

// ParseYearsRequired extracts a years-of-experience requirement from free
// text. Phrases are tried from most to least specific; values outside 0..25
// are ignored.
func ParseYearsRequired(text string) *types.YearsRange {
	lower := strings.ToLower(text)

	if noExperienceRegex.MatchString(lower) {
		return &types.YearsRange{Min: 0, Max: 0}
	}

	if m := rangeYearsRegex.FindStringSubmatch(lower); m != nil {
		lo, hi := atoi(m[1]), atoi(m[2])
		if reasonable(lo) && reasonable(hi) {
			if lo > hi {
				lo, hi = hi, lo
			}
			return &types.YearsRange{Min: lo, Max: hi}
		}
	}

	if m := plusYearsRegex.FindStringSubmatch(lower); m != nil {
		if y := atoi(m[1]); reasonable(y) {
			return &types.YearsRange{Min: y, Max: min(y+5, maxReasonableYears)}
		}
	}

	if m := minimumYearsRegex.FindStringSubmatch(lower); m != nil {
		if y := atoi(m[1]); reasonable(y) {
			return &types.YearsRange{Min: y, Max: min(y+3, maxReasonableYears)}
		}
	}

	if m := simpleYearsRegex.FindStringSubmatch(lower); m != nil {
		if y := atoi(m[1]); reasonable(y) {
			return &types.YearsRange{Min: y, Max: y}
		}
	}

	return nil
}

// yearsLevel maps the average of a years range to a level.
func yearsLevel(r types.YearsRange) types.ExperienceLevel {
	avg := float64(r.Min+r.Max) / 2
	switch {
	case avg <= 2:
		return types.LevelEntry
	case avg <= 5:
		return types.LevelMid
	case avg <= 10:
		return types.LevelSenior
	default:
		return types.LevelExecutive
	}
}

func reasonable(y int) bool {
	return y >= 0 && y <= maxReasonableYears
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}
