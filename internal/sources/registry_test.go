package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/job-ingest/internal/config"
	"github.com/jonathan/job-ingest/internal/logger"
	"github.com/jonathan/job-ingest/internal/types"
)

func TestRegistry_RegisterReplaces(t *testing.T) {
	first := NewLever(Options{})
	second := NewLever(Options{MaxPostings: 3})

	r := NewRegistry(NewGreenhouse(Options{}), first, second)
	assert.Equal(t, []types.Platform{types.PlatformGreenhouse, types.PlatformLever}, r.Platforms())

	got, ok := r.Get(types.PlatformLever)
	assert.True(t, ok)
	assert.Same(t, second, got)

	_, ok = r.Get(types.PlatformUSAJobs)
	assert.False(t, ok)
}

func TestFromConfig(t *testing.T) {
	t.Run("defaults skip keyed aggregators", func(t *testing.T) {
		cfg := config.Defaults()
		r := FromConfig(&cfg, logger.Discard())
		assert.Equal(t, []types.Platform{
			types.PlatformGreenhouse,
			types.PlatformLever,
			types.PlatformAshby,
			types.PlatformRemotive,
			types.PlatformArbeitnow,
			types.PlatformApprenticeship,
		}, r.Platforms())
	})

	t.Run("credentials enable jsearch and usajobs", func(t *testing.T) {
		cfg := config.Defaults()
		cfg.Sources.JSearchAPIKey = "k"
		cfg.Sources.USAJobsAPIKey = "k"
		cfg.Sources.USAJobsEmail = "ops@example.com"
		r := FromConfig(&cfg, logger.Discard())

		_, ok := r.Get(types.PlatformJSearch)
		assert.True(t, ok)
		_, ok = r.Get(types.PlatformUSAJobs)
		assert.True(t, ok)
	})

	t.Run("usajobs needs email too", func(t *testing.T) {
		cfg := config.Defaults()
		cfg.Sources.USAJobsAPIKey = "k"
		r := FromConfig(&cfg, logger.Discard())

		_, ok := r.Get(types.PlatformUSAJobs)
		assert.False(t, ok)
	})

	t.Run("disabled list", func(t *testing.T) {
		cfg := config.Defaults()
		cfg.Sources.Disabled = []string{"Remotive", "ashby"}
		r := FromConfig(&cfg, logger.Discard())

		_, ok := r.Get(types.PlatformRemotive)
		assert.False(t, ok)
		_, ok = r.Get(types.PlatformAshby)
		assert.False(t, ok)
		_, ok = r.Get(types.PlatformGreenhouse)
		assert.True(t, ok)
	})
}
