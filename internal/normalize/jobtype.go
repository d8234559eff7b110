package normalize

import (
	"strings"

	"github.com/jonathan/job-ingest/internal/types"
)

type jobTypePhrase struct {
	phrase  string
	jobType types.JobType
}

// providerJobTypes is checked in order against the provider value after
// lowercasing and collapsing '-' and '_' into spaces. Internship terms come
// first so "full time internship" stays an internship.
var providerJobTypes = []jobTypePhrase{
	{"intern", types.JobTypeInternship},
	{"internship", types.JobTypeInternship},
	{"praktikum", types.JobTypeInternship},
	{"co op", types.JobTypeInternship},
	{"apprentice", types.JobTypeApprenticeship},
	{"apprenticeship", types.JobTypeApprenticeship},
	{"working student", types.JobTypePartTime},
	{"werkstudent", types.JobTypePartTime},
	{"part time", types.JobTypePartTime},
	{"parttime", types.JobTypePartTime},
	{"contract", types.JobTypeContract},
	{"contractor", types.JobTypeContract},
	{"freelance", types.JobTypeFreelance},
	{"freelancer", types.JobTypeFreelance},
	{"temporary", types.JobTypeTemporary},
	{"temp", types.JobTypeTemporary},
	{"seasonal", types.JobTypeTemporary},
	{"full time", types.JobTypeFullTime},
	{"fulltime", types.JobTypeFullTime},
	{"permanent", types.JobTypeFullTime},
	{"regular", types.JobTypeFullTime},
}

// titleJobTypes is the fallback when the provider value is missing or unknown.
var titleJobTypes = []jobTypePhrase{
	{"intern", types.JobTypeInternship},
	{"internship", types.JobTypeInternship},
	{"co op", types.JobTypeInternship},
	{"apprentice", types.JobTypeApprenticeship},
	{"apprenticeship", types.JobTypeApprenticeship},
	{"contract", types.JobTypeContract},
	{"freelance", types.JobTypeFreelance},
	{"part time", types.JobTypePartTime},
	{"temporary", types.JobTypeTemporary},
	{"seasonal", types.JobTypeTemporary},
}

// MapJobType maps a provider job-type value ("full_time", "FULLTIME",
// "Full-time", "Intern", "contractor", ...) to the canonical enum. Falls back
// to title keywords, then FULL_TIME.
func MapJobType(value, title string) types.JobType {
	if jt, ok := matchJobType(collapseSeparators(value), providerJobTypes); ok {
		return jt
	}
	if jt, ok := matchJobType(collapseSeparators(title), titleJobTypes); ok {
		return jt
	}
	return types.JobTypeFullTime
}

func matchJobType(s string, phrases []jobTypePhrase) (types.JobType, bool) {
	if s == "" {
		return "", false
	}
	for _, p := range phrases {
		if containsWord(s, p.phrase) {
			return p.jobType, true
		}
	}
	return "", false
}

// collapseSeparators lowercases s and turns '-', '_' and runs of whitespace into single spaces.
func collapseSeparators(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
