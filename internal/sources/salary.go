package sources

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var salaryNumberRegex = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([kK])?`)

// ParseSalaryText extracts a min/max pair from free-text salary strings such as
// "$50k - $70k", "€45,000–60,000" or "90000". Returns nil pointers when no
// number is found. Currency and period are left to the caller.
func ParseSalaryText(s string) (*int, *int) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	cleaned := strings.ReplaceAll(s, ",", "")
	matches := salaryNumberRegex.FindAllStringSubmatch(cleaned, -1)

	var values []int
	for _, m := range matches {
		f, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if m[2] != "" {
			f *= 1000
		}
		if f <= 0 {
			continue
		}
		values = append(values, int(math.Round(f)))
	}

	switch len(values) {
	case 0:
		return nil, nil
	case 1:
		v := values[0]
		return &v, &v
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return &lo, &hi
}

// floatPtrToInt rounds an optional float salary to an optional int.
func floatPtrToInt(f *float64) *int {
	if f == nil || *f <= 0 {
		return nil
	}
	v := int(math.Round(*f))
	return &v
}
