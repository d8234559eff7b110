package classify

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jonathan/job-ingest/internal/types"
)

// Title keyword lists. Phrases match on word boundaries.
var (
	entryTitleSignals = []string{
		"intern", "internship", "entry level", "entry-level",
		"junior", "associate", "coordinator", "assistant",
		"trainee", "apprentice", "graduate", "early career",
		"new grad", "jr.", "jr", "student", "fellowship",
		"residency", "resident",
	}
	midTitleSignals = []string{
		"specialist", "analyst", "manager", "lead",
		"supervisor", "experienced", "mid-level", "mid level",
		"team lead", "project manager",
	}
	seniorTitleSignals = []string{
		"senior", "sr.", "sr", "director", "head of", "principal",
		"staff engineer", "staff developer", "architect",
		"senior manager", "engineering manager",
	}
	executiveTitleSignals = []string{
		"vice president", "chief executive", "chief technology", "chief financial",
		"chief operating", "chief marketing", "chief information",
		"executive director", "svp", "evp", "general manager",
		"founder", "co-founder", "managing director",
		"managing partner", "general partner", "founding partner", "equity partner",
	}
	// executiveTitleTokens are short abbreviations checked before every other list.
	executiveTitleTokens = []string{
		"vp", "cto", "cfo", "ceo", "coo", "cmo", "cio", "president",
	}
	// executiveWholeTitles count only as the entire leading title segment, so
	// "Partner, Tax" is executive and "Partner Engineer" is not.
	executiveWholeTitles = []string{"partner", "gm"}
)

// seniorCareBlocklist holds phrases where "senior" names the clientele, not the role.
var seniorCareBlocklist = []string{
	"senior living", "senior care", "senior center", "senior community",
	"senior services", "senior citizen", "senior housing", "senior residence",
	"senior home", "senior wellness",
}

// retailServiceCompanies are employers where "manager" titles are usually entry level.
var retailServiceCompanies = []string{
	"mcdonald", "burger king", "wendy", "taco bell", "kfc",
	"subway", "starbucks", "dunkin", "chipotle", "chick-fil-a",
	"walmart", "target", "costco", "cvs", "walgreens",
	"dollar general", "dollar tree", "family dollar",
	"pizza hut", "domino", "papa john",
}

// descriptionSignals are checked executive first; the first level with any
// match wins and every match at that level is recorded.
var descriptionSignals = []struct {
	level   types.ExperienceLevel
	phrases []string
}{
	{types.LevelExecutive, []string{
		"board of directors", "c-suite", "executive team",
		"p&l responsibility", "profit and loss", "company strategy",
		"organizational strategy",
	}},
	{types.LevelSenior, []string{
		"report to the ceo", "report to the cto", "report to the cfo",
		"reports to ceo", "reports to cto", "report directly to",
		"extensive experience", "expert level", "deep expertise",
	}},
	{types.LevelEntry, []string{
		"no experience required", "no experience necessary", "no experience needed",
		"no prior experience", "entry level position", "entry-level position",
		"recent graduate", "fresh graduate", "will train", "training provided",
		"learn on the job",
	}},
	{types.LevelMid, []string{
		"manage a team", "lead a team", "team management", "proven track record",
	}},
}

// earlyCareerPhrases add the genz tag regardless of the chosen level.
var earlyCareerPhrases = []string{"new grad", "new graduate", "apprentice", "apprenticeship"}

// Locale deny-lists. A match lowers locale confidence; nothing is deleted.
var (
	foreignCompanySuffixes = []string{
		"gmbh", "ag", "pvt ltd", "pvt. ltd", "private limited", "b.v.", "sarl",
		"s.a.r.l.", "kft", "sp. z o.o.", "s.r.l.", "oy", "ab",
	}
	foreignLocationPhrases = []string{
		"must be based in india", "must be located in india", "based in europe",
		"eu only", "europe only", "emea only", "uk only", "must reside in canada",
		"fluent german", "german speaking", "deutschkenntnisse",
	}
)

// titleLevel returns the level implied by the title and the phrase that decided it.
func titleLevel(title string) (types.ExperienceLevel, string) {
	lower := strings.ToLower(title)

	if containsAny(lower, seniorCareBlocklist) != "" {
		if signal := containsAny(lower, entryTitleSignals); signal != "" {
			return types.LevelEntry, signal
		}
		return types.LevelMid, "senior (care context)"
	}

	if signal := leadingTitle(lower, executiveWholeTitles); signal != "" {
		return types.LevelExecutive, signal
	}

	ordered := []struct {
		level   types.ExperienceLevel
		signals []string
	}{
		{types.LevelExecutive, executiveTitleTokens},
		{types.LevelExecutive, executiveTitleSignals},
		{types.LevelSenior, seniorTitleSignals},
		{types.LevelEntry, entryTitleSignals},
		{types.LevelMid, midTitleSignals},
	}
	for _, o := range ordered {
		if signal := containsAny(lower, o.signals); signal != "" {
			return o.level, signal
		}
	}
	return "", ""
}

// descriptionLevel returns the first level with matching phrases and all of its matches.
func descriptionLevel(description string) (types.ExperienceLevel, []string) {
	lower := strings.ToLower(description)
	for _, group := range descriptionSignals {
		var matches []string
		for _, phrase := range group.phrases {
			if containsWord(lower, phrase) {
				matches = append(matches, phrase)
			}
		}
		if len(matches) > 0 {
			return group.level, matches
		}
	}
	return "", nil
}

func isRetailServiceCompany(company string) bool {
	lower := strings.ToLower(company)
	for _, name := range retailServiceCompanies {
		if strings.Contains(lower, name) {
			return true
		}
	}
	return false
}

// containsAny returns the first phrase found in s on word boundaries.
// leadingTitle returns the phrase equal to the title's first segment. Segments
// end at separator punctuation such as a comma or dash.
func leadingTitle(s string, phrases []string) string {
	head := s
	if i := strings.IndexAny(s, ",-|:(/"); i >= 0 {
		head = s[:i]
	}
	head = strings.TrimSpace(head)
	for _, p := range phrases {
		if head == p {
			return p
		}
	}
	return ""
}

func containsAny(s string, phrases []string) string {
	for _, p := range phrases {
		if containsWord(s, p) {
			return p
		}
	}
	return ""
}

// containsWord reports whether phrase occurs in s with no letter or digit on
// either side. Both arguments are expected lowercased.
func containsWord(s, phrase string) bool {
	if phrase == "" {
		return false
	}
	for offset := 0; offset < len(s); {
		idx := strings.Index(s[offset:], phrase)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(phrase)
		if !wordRuneBefore(s, start) && !wordRuneAt(s, end) {
			return true
		}
		offset = start + 1
	}
	return false
}

func wordRuneBefore(s string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func wordRuneAt(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
