// Package classify assigns an experience level, audience tags and a locale
// confidence to postings using fixed keyword rules. Identical input always
// yields identical output.
package classify

import (
	"math"
	"sort"
	"strings"

	"github.com/jonathan/job-ingest/internal/types"
)

// Signal weights. Years and title decide the level when present; description
// and salary only move confidence unless nothing stronger fired.
const (
	yearsWeight       = 10
	titleWeight       = 8
	descriptionWeight = 3
	salaryWeight      = 3

	// ReviewThreshold is the confidence below which a posting is flagged for review.
	ReviewThreshold = 0.5

	noSignalConfidence  = 0.3
	singleSignalPenalty = 0.9
	dualTagMargin       = 3
	retailConfidence    = 0.7
)

// Input is everything the classifier looks at.
type Input struct {
	Title        string
	Description  string
	Company      string
	Location     string
	Country      *string
	JobType      types.JobType
	SalaryMin    *int
	SalaryMax    *int
	SalaryPeriod string
}

// InputFrom builds classifier input from a normalized posting.
func InputFrom(p *types.NormalizedPosting) Input {
	return Input{
		Title:        p.Title,
		Description:  p.Description,
		Company:      p.Company,
		Location:     p.Location,
		Country:      p.Country,
		JobType:      p.JobType,
		SalaryMin:    p.SalaryMin,
		SalaryMax:    p.SalaryMax,
		SalaryPeriod: p.SalaryPeriod,
	}
}

// Classifier scores postings. It holds only configuration.
type Classifier struct {
	targetCountries map[string]bool
}

// New creates a classifier. targetCountries are ISO alpha-2 codes the catalog
// serves; an empty list disables the country part of the locale signal.
func New(targetCountries []string) *Classifier {
	targets := make(map[string]bool, len(targetCountries))
	for _, c := range targetCountries {
		targets[strings.ToUpper(strings.TrimSpace(c))] = true
	}
	return &Classifier{targetCountries: targets}
}

// Classify scores one posting.
func (c *Classifier) Classify(in Input) types.Classification {
	var signals types.ClassificationSignals
	scores := make(map[types.ExperienceLevel]int, len(types.Levels))
	total := 0

	var yearsLvl, titleLvl types.ExperienceLevel

	if years := ParseYearsRequired(in.Description); years != nil {
		yearsLvl = yearsLevel(*years)
		scores[yearsLvl] += yearsWeight
		total += yearsWeight
		signals.YearsRequired = years
	}

	if lvl, match := titleLevel(in.Title); lvl != "" {
		titleLvl = lvl
		scores[lvl] += titleWeight
		total += titleWeight
		signals.TitleMatch = match
	}

	if lvl, matches := descriptionLevel(in.Description); lvl != "" {
		scores[lvl] += descriptionWeight
		total += descriptionWeight
		signals.DescriptionSignals = matches
	}

	salaryLvl, band := salaryLevel(in.SalaryMin, in.SalaryMax, in.SalaryPeriod)
	if salaryLvl != "" {
		scores[salaryLvl] += salaryWeight
		total += salaryWeight
		signals.SalaryBand = band
	}

	level := types.LevelMid
	confidence := noSignalConfidence
	if total > 0 {
		switch {
		case yearsLvl != "":
			level = yearsLvl
		case titleLvl != "":
			level = titleLvl
		default:
			level = argmax(scores)
		}

		confidence = float64(scores[level]) / float64(total)
		if nonZero(scores) == 1 {
			confidence *= singleSignalPenalty
		}
	}

	tags := map[types.AudienceTag]bool{level.Tag(): true}
	if confidence < ReviewThreshold && total > 0 {
		if runnerUp, ok := runnerUp(scores, level); ok && scores[level]-scores[runnerUp] <= dualTagMargin {
			tags[runnerUp.Tag()] = true
		}
	}

	if isRetailServiceCompany(in.Company) && retailManagerTitle(in.Title) && (salaryLvl == "" || salaryLvl == types.LevelEntry) {
		level = types.LevelEntry
		tags = map[types.AudienceTag]bool{types.TagGenZ: true}
		confidence = math.Max(confidence, retailConfidence)
		signals.Overrides = append(signals.Overrides, "retail/service manager context")
	}

	if in.JobType == types.JobTypeInternship || in.JobType == types.JobTypeApprenticeship || containsAny(strings.ToLower(in.Title+"\n"+in.Description), earlyCareerPhrases) != "" {
		tags[types.TagGenZ] = true
	}

	confidence = clamp(round2(confidence))
	locale, localeSignals := c.localeConfidence(in)
	signals.LocaleSignals = localeSignals

	return types.Classification{
		ExperienceLevel:  level,
		AudienceTags:     sortedTags(tags),
		Confidence:       confidence,
		NeedsReview:      confidence < ReviewThreshold,
		LocaleConfidence: locale,
		Signals:          signals,
	}
}

// localeConfidence is 1.0 for a target country, 0.5 when the country is
// unknown and 0.2 otherwise, lowered by 0.3 per deny-list hit.
func (c *Classifier) localeConfidence(in Input) (float64, []string) {
	var signals []string
	score := 1.0

	if len(c.targetCountries) > 0 {
		switch {
		case in.Country == nil || *in.Country == "":
			score = 0.5
			signals = append(signals, "country unknown")
		case !c.targetCountries[strings.ToUpper(*in.Country)]:
			score = 0.2
			signals = append(signals, "country "+strings.ToUpper(*in.Country)+" outside target")
		}
	}

	if suffix := containsAny(strings.ToLower(in.Company), foreignCompanySuffixes); suffix != "" {
		score -= 0.3
		signals = append(signals, "company suffix "+suffix)
	}
	text := strings.ToLower(in.Location + "\n" + in.Description)
	if phrase := containsAny(text, foreignLocationPhrases); phrase != "" {
		score -= 0.3
		signals = append(signals, "phrase "+phrase)
	}

	return clamp(round2(score)), signals
}

func retailManagerTitle(title string) bool {
	lower := strings.ToLower(title)
	return strings.Contains(lower, "manager") && !strings.Contains(lower, "general manager")
}

// argmax returns the highest scoring level; ties go to the lower level.
func argmax(scores map[types.ExperienceLevel]int) types.ExperienceLevel {
	best, bestScore := types.LevelMid, 0
	for _, l := range types.Levels {
		if scores[l] > bestScore {
			best, bestScore = l, scores[l]
		}
	}
	return best
}

// runnerUp returns the best scoring level other than winner.
func runnerUp(scores map[types.ExperienceLevel]int, winner types.ExperienceLevel) (types.ExperienceLevel, bool) {
	var best types.ExperienceLevel
	bestScore := 0
	for _, l := range types.Levels {
		if l == winner {
			continue
		}
		if scores[l] > bestScore {
			best, bestScore = l, scores[l]
		}
	}
	return best, bestScore > 0
}

func nonZero(scores map[types.ExperienceLevel]int) int {
	n := 0
	for _, s := range scores {
		if s > 0 {
			n++
		}
	}
	return n
}

func sortedTags(set map[types.AudienceTag]bool) []types.AudienceTag {
	tags := make([]types.AudienceTag, 0, len(set))
	for t := range set {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func clamp(f float64) float64 {
	return math.Min(1, math.Max(0, f))
}
