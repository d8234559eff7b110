//go:build integration

package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-ingest/internal/sources"
	"github.com/jonathan/job-ingest/internal/types"
)

const testPlatform = types.Platform("itest")

func getTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	db, err := Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	ddl, err := os.ReadFile("../../migrations/001_catalog.sql")
	require.NoError(t, err)
	_, err = db.pool.Exec(ctx, string(ddl))
	require.NoError(t, err)

	// Clean up test data before each test
	_, _ = db.pool.Exec(ctx, "DELETE FROM job_postings WHERE source_platform = $1", string(testPlatform))
	_, _ = db.pool.Exec(ctx, "DELETE FROM company_sources WHERE slug LIKE 'itest-%'")

	return db
}

func testPosting(externalID, title, location string) *types.NormalizedPosting {
	return &types.NormalizedPosting{
		Platform:    testPlatform,
		ExternalID:  externalID,
		Title:       title,
		Company:     "Integration Co",
		Description: "Build things.",
		Location:    location,
		JobType:     types.JobTypeFullTime,
		Skills:      []string{"go"},
		PostedAt:    time.Now().UTC().Add(-time.Hour),
		ContentHash: externalID + title,
	}
}

func testClassification(level types.ExperienceLevel) *types.Classification {
	return &types.Classification{
		ExperienceLevel:  level,
		AudienceTags:     []types.AudienceTag{level.Tag()},
		Confidence:       0.9,
		LocaleConfidence: 1,
	}
}

func TestIntegration_UpsertPosting(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	t.Run("creates then updates the same identity", func(t *testing.T) {
		first, err := db.UpsertPosting(ctx, UpsertInput{
			Posting:        testPosting("up-1", "Engineer", "Austin, TX"),
			Classification: testClassification(types.LevelMid),
			SeenAt:         time.Now(),
		})
		require.NoError(t, err)
		assert.True(t, first.Inserted)

		second, err := db.UpsertPosting(ctx, UpsertInput{
			Posting:        testPosting("up-1", "Engineer", "Austin, TX"),
			Classification: testClassification(types.LevelSenior),
			SeenAt:         time.Now(),
		})
		require.NoError(t, err)
		assert.False(t, second.Inserted)
		assert.Equal(t, first.ID, second.ID)

		var level string
		var count int
		require.NoError(t, db.pool.QueryRow(ctx,
			`SELECT experience_level, COUNT(*) OVER () FROM job_postings
			 WHERE source_platform = $1 AND source_external_id = 'up-1'`,
			string(testPlatform)).Scan(&level, &count))
		assert.Equal(t, 1, count)
		assert.Equal(t, "MID", level, "classification kept without reclassify")
	})

	t.Run("reclassify overwrites classification", func(t *testing.T) {
		_, err := db.UpsertPosting(ctx, UpsertInput{
			Posting:        testPosting("up-1", "Senior Engineer", "Austin, TX"),
			Classification: testClassification(types.LevelSenior),
			Reclassify:     true,
			SeenAt:         time.Now(),
		})
		require.NoError(t, err)

		var level string
		require.NoError(t, db.pool.QueryRow(ctx,
			`SELECT experience_level FROM job_postings
			 WHERE source_platform = $1 AND source_external_id = 'up-1'`,
			string(testPlatform)).Scan(&level))
		assert.Equal(t, "SENIOR", level)
	})

	t.Run("location change resets coordinates", func(t *testing.T) {
		_, err := db.ApplyCoordinates(ctx, "Austin, TX", Coordinates{Latitude: 30.27, Longitude: -97.74, Confidence: 0.8})
		require.NoError(t, err)

		_, err = db.UpsertPosting(ctx, UpsertInput{
			Posting:        testPosting("up-1", "Senior Engineer", "Dallas, TX"),
			Classification: testClassification(types.LevelSenior),
			SeenAt:         time.Now(),
		})
		require.NoError(t, err)

		var lat *float64
		require.NoError(t, db.pool.QueryRow(ctx,
			`SELECT latitude FROM job_postings
			 WHERE source_platform = $1 AND source_external_id = 'up-1'`,
			string(testPlatform)).Scan(&lat))
		assert.Nil(t, lat)
	})

	t.Run("lookup", func(t *testing.T) {
		existing, err := db.LookupIdentity(ctx, testPlatform, "up-1")
		require.NoError(t, err)
		require.NotNil(t, existing)
		assert.NotEqual(t, uuid.Nil, existing.ID)
		assert.Equal(t, "up-1Senior Engineer", existing.ContentHash)

		missing, err := db.LookupIdentity(ctx, testPlatform, "does-not-exist")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})
}

func TestIntegration_CopyKnownCoordinates(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	location := "Itest City " + uuid.NewString()[:8]
	for _, id := range []string{"geo-1", "geo-2", "geo-3"} {
		_, err := db.UpsertPosting(ctx, UpsertInput{
			Posting:        testPosting(id, "Engineer", location),
			Classification: testClassification(types.LevelMid),
			SeenAt:         time.Now(),
		})
		require.NoError(t, err)
	}

	_, err := db.pool.Exec(ctx,
		`UPDATE job_postings SET latitude = 1, longitude = 2, geocode_confidence = 0.5, geocoded_at = NOW()
		 WHERE source_platform = $1 AND source_external_id = 'geo-1'`, string(testPlatform))
	require.NoError(t, err)

	copied, err := db.CopyKnownCoordinates(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, copied, 2)

	pending, err := db.PendingLocations(ctx, nil)
	require.NoError(t, err)
	for _, p := range pending {
		assert.NotEqual(t, location, p.Location)
	}
}

func TestIntegration_MarkStale(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	_, err := db.UpsertPosting(ctx, UpsertInput{
		Posting:        testPosting("stale-1", "Engineer", ""),
		Classification: testClassification(types.LevelMid),
		SeenAt:         time.Now().Add(-8 * 24 * time.Hour),
	})
	require.NoError(t, err)

	cutoff := time.Now().Add(-7 * 24 * time.Hour)
	stale, err := db.CountStale(ctx, cutoff)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stale, 1)

	marked, err := db.MarkStale(ctx, cutoff)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, marked, 1)

	var active bool
	require.NoError(t, db.pool.QueryRow(ctx,
		`SELECT is_active FROM job_postings WHERE source_platform = $1 AND source_external_id = 'stale-1'`,
		string(testPlatform)).Scan(&active))
	assert.False(t, active)
}

func TestIntegration_ListCompanySources(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	_, err := db.pool.Exec(ctx,
		`INSERT INTO company_sources (company_name, ats_platform, slug, is_active) VALUES
		 ('Itest Acme', 'greenhouse', 'itest-acme', TRUE),
		 ('Itest Beta', 'lever', 'itest-beta', TRUE),
		 ('Itest Gone', 'greenhouse', 'itest-gone', FALSE)`)
	require.NoError(t, err)

	companies, err := db.ListCompanySources(ctx, sources.CompanyFilter{Platform: types.PlatformGreenhouse, Company: "itest-acme"})
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "Itest Acme", companies[0].CompanyName)

	inactive, err := db.ListCompanySources(ctx, sources.CompanyFilter{Company: "itest-gone"})
	require.NoError(t, err)
	assert.Empty(t, inactive)
}

func TestIntegration_IngestRuns(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	id, err := db.CreateIngestRun(ctx, "itest", false)
	require.NoError(t, err)
	defer func() { _, _ = db.pool.Exec(ctx, "DELETE FROM ingest_runs WHERE id = $1", id) }()

	require.NoError(t, db.CompleteIngestRun(ctx, id, RunStatusCompleted, types.RunStats{PostingsFound: 3}))

	run, err := db.GetIngestRun(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.True(t, run.IsFinished())
	assert.Contains(t, string(run.Stats), `"postingsFound": 3`)
}

func TestIntegration_AdvisoryLock(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	first, err := db.TryAdvisoryLock(ctx, 424242)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := db.TryAdvisoryLock(ctx, 424242)
	require.NoError(t, err)
	assert.Nil(t, second)

	require.NoError(t, first.Release(ctx))

	third, err := db.TryAdvisoryLock(ctx, 424242)
	require.NoError(t, err)
	require.NotNil(t, third)
	require.NoError(t, third.Release(ctx))
}
