package normalize

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Skill vocabularies. Matching is case-insensitive on word boundaries, so
// "go" matches "Go developer" but not "good".
var (
	TechSkills = []string{
		"python", "javascript", "typescript", "react", "node.js", "java",
		"sql", "aws", "docker", "git", "html", "css", "vue", "angular",
		"go", "rust", "swift", "kotlin", "flutter", "django", "fastapi",
		"mongodb", "postgresql", "redis", "kubernetes", "terraform",
	}

	TradesSkills = []string{
		"electrical", "plumbing", "hvac", "welding", "carpentry", "osha",
		"blueprint reading", "forklift", "cdl", "cnc", "machining", "epa 608",
	}

	HealthcareSkills = []string{
		"cpr", "bls", "acls", "phlebotomy", "patient care", "hipaa", "ehr",
		"medical terminology", "vital signs", "cna", "lpn", "pharmacy",
	}

	PublicSafetySkills = []string{
		"emt", "paramedic", "first aid", "firearms", "dispatch",
		"security clearance", "de-escalation", "law enforcement", "fire safety",
	}
)

// skillAliases maps common variants to the vocabulary name.
var skillAliases = map[string]string{
	"golang":      "go",
	"k8s":         "kubernetes",
	"nodejs":      "node.js",
	"reactjs":     "react",
	"react.js":    "react",
	"vuejs":       "vue",
	"vue.js":      "vue",
	"postgres":    "postgresql",
	"mongo":       "mongodb",
	"electrician": "electrical",
	"plumber":     "plumbing",
	"welder":      "welding",
	"carpenter":   "carpentry",
}

var allVocabularies = [][]string{TechSkills, TradesSkills, HealthcareSkills, PublicSafetySkills}

// ExtractSkills returns the sorted, de-duplicated vocabulary skills found in
// the given texts.
func ExtractSkills(texts ...string) []string {
	text := strings.ToLower(strings.Join(texts, "\n"))
	if strings.TrimSpace(text) == "" {
		return []string{}
	}

	found := make(map[string]bool)
	for _, vocab := range allVocabularies {
		for _, skill := range vocab {
			if containsWord(text, skill) {
				found[skill] = true
			}
		}
	}
	for alias, skill := range skillAliases {
		if !found[skill] && containsWord(text, alias) {
			found[skill] = true
		}
	}

	skills := make([]string, 0, len(found))
	for s := range found {
		skills = append(skills, s)
	}
	sort.Strings(skills)
	return skills
}

// containsWord reports whether word occurs in s with no letter or digit
// immediately before or after it. Both arguments are expected lowercased.
func containsWord(s, word string) bool {
	if word == "" {
		return false
	}
	for offset := 0; offset < len(s); {
		idx := strings.Index(s[offset:], word)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(word)
		if !isWordRuneBefore(s, start) && !isWordRuneAt(s, end) {
			return true
		}
		offset = start + 1
	}
	return false
}

func isWordRuneBefore(s string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isWordRuneAt(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
