package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExperienceLevel_Tag(t *testing.T) {
	tests := []struct {
		level ExperienceLevel
		want  AudienceTag
	}{
		{LevelEntry, TagGenZ},
		{LevelMid, TagMidCareer},
		{LevelSenior, TagSenior},
		{LevelExecutive, TagExecutive},
		{ExperienceLevel("bogus"), TagMidCareer},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.level.Tag())
		})
	}
}

func TestPlatform_IsATS(t *testing.T) {
	assert.True(t, PlatformGreenhouse.IsATS())
	assert.True(t, PlatformLever.IsATS())
	assert.True(t, PlatformAshby.IsATS())
	assert.False(t, PlatformRemotive.IsATS())
	assert.False(t, PlatformUSAJobs.IsATS())
}

func TestClassification_SignalsJSON(t *testing.T) {
	c := Classification{
		ExperienceLevel: LevelSenior,
		AudienceTags:    []AudienceTag{TagSenior},
		Confidence:      0.9,
		Signals: ClassificationSignals{
			YearsRequired: &YearsRange{Min: 5, Max: 10},
			TitleMatch:    "senior",
		},
	}

	data, err := json.Marshal(c.Signals)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"years_required":{"min":5,"max":10}`)
	assert.Contains(t, string(data), `"title_match":"senior"`)
	assert.NotContains(t, string(data), "salary_band")

	assert.Equal(t, []string{"senior"}, c.TagStrings())
}

func TestRunStats_JSONFieldNames(t *testing.T) {
	stats := RunStats{CompaniesProcessed: 2, PostingsCreated: 5, Errors: []string{"x"}}
	data, err := json.Marshal(stats)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"companiesProcessed":2`)
	assert.Contains(t, string(data), `"postingsCreated":5`)
	assert.NotContains(t, string(data), "cleanup")
}
