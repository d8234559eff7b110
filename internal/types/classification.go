package types

// ExperienceLevel is the seniority bucket assigned by the classifier.
type ExperienceLevel string

// Experience levels, lowest first
const (
	LevelEntry     ExperienceLevel = "ENTRY"
	LevelMid       ExperienceLevel = "MID"
	LevelSenior    ExperienceLevel = "SENIOR"
	LevelExecutive ExperienceLevel = "EXECUTIVE"
)

// Levels lists every experience level in ascending order. Iteration order over
// levels must use this slice so scoring stays deterministic.
var Levels = []ExperienceLevel{LevelEntry, LevelMid, LevelSenior, LevelExecutive}

// AudienceTag labels the candidate segment a posting targets.
type AudienceTag string

// Audience tags
const (
	TagGenZ      AudienceTag = "genz"
	TagMidCareer AudienceTag = "mid_career"
	TagSenior    AudienceTag = "senior"
	TagExecutive AudienceTag = "executive"
)

// Tag returns the primary audience tag for the level.
func (l ExperienceLevel) Tag() AudienceTag {
	switch l {
	case LevelEntry:
		return TagGenZ
	case LevelSenior:
		return TagSenior
	case LevelExecutive:
		return TagExecutive
	default:
		return TagMidCareer
	}
}

// YearsRange is a parsed years-of-experience requirement.
type YearsRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// ClassificationSignals records which rules fired. It is persisted as JSON
// alongside the posting so reviewers can see why a level was chosen.
type ClassificationSignals struct {
	YearsRequired      *YearsRange `json:"years_required,omitempty"`
	TitleMatch         string      `json:"title_match,omitempty"`
	SalaryBand         string      `json:"salary_band,omitempty"`
	DescriptionSignals []string    `json:"description_signals,omitempty"`
	LocaleSignals      []string    `json:"locale_signals,omitempty"`
	Overrides          []string    `json:"overrides,omitempty"`
}

// Classification is the classifier output for one posting.
type Classification struct {
	ExperienceLevel  ExperienceLevel       `json:"experience_level"`
	AudienceTags     []AudienceTag         `json:"audience_tags"`
	Confidence       float64               `json:"confidence"`
	NeedsReview      bool                  `json:"needs_review"`
	LocaleConfidence float64               `json:"locale_confidence"`
	Signals          ClassificationSignals `json:"signals"`
}

// TagStrings returns the audience tags as plain strings for storage.
func (c *Classification) TagStrings() []string {
	out := make([]string, len(c.AudienceTags))
	for i, t := range c.AudienceTags {
		out[i] = string(t)
	}
	return out
}
