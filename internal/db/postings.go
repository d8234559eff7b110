package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/job-ingest/internal/types"
)

// LookupIdentity returns the stored state for an identity key, or nil if absent.
func (db *DB) LookupIdentity(ctx context.Context, platform types.Platform, externalID string) (*Existing, error) {
	var e Existing
	err := db.pool.QueryRow(ctx,
		`SELECT id, content_hash
		 FROM job_postings
		 WHERE source_platform = $1 AND source_external_id = $2`,
		string(platform), externalID,
	).Scan(&e.ID, &e.ContentHash)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up posting identity: %w", err)
	}
	return &e, nil
}

// UpsertPosting creates or updates a posting by identity key in one statement.
// Updates re-activate the posting and refresh last_seen_at; classification
// columns change only when in.Reclassify is set, and coordinates are cleared
// only when the location string differs from the stored one.
func (db *DB) UpsertPosting(ctx context.Context, in UpsertInput) (*UpsertResult, error) {
	p, c := in.Posting, in.Classification
	if p == nil || c == nil {
		return nil, fmt.Errorf("failed to upsert posting: posting and classification are required")
	}

	signalsJSON, err := json.Marshal(c.Signals)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal classification signals: %w", err)
	}

	skills := p.Skills
	if skills == nil {
		skills = []string{}
	}

	var r UpsertResult
	err = db.pool.QueryRow(ctx,
		`INSERT INTO job_postings (
		     source_platform, source_external_id, title, company, description,
		     location, country, job_type, salary_min, salary_max,
		     salary_currency, salary_period, skills, remote, apply_url,
		     company_logo, content_hash, posted_at, last_seen_at, is_active,
		     experience_level, audience_tags, classification_confidence,
		     classification_signals, locale_confidence, needs_review)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		         $16, $17, $18, $19, TRUE, $20, $21, $22, $23, $24, $25)
		 ON CONFLICT ON CONSTRAINT job_postings_identity_key DO UPDATE SET
		     title = EXCLUDED.title,
		     company = EXCLUDED.company,
		     description = EXCLUDED.description,
		     country = EXCLUDED.country,
		     job_type = EXCLUDED.job_type,
		     salary_min = EXCLUDED.salary_min,
		     salary_max = EXCLUDED.salary_max,
		     salary_currency = EXCLUDED.salary_currency,
		     salary_period = EXCLUDED.salary_period,
		     skills = EXCLUDED.skills,
		     remote = EXCLUDED.remote,
		     apply_url = EXCLUDED.apply_url,
		     company_logo = EXCLUDED.company_logo,
		     content_hash = EXCLUDED.content_hash,
		     last_seen_at = EXCLUDED.last_seen_at,
		     is_active = TRUE,
		     latitude = CASE WHEN job_postings.location IS DISTINCT FROM EXCLUDED.location
		                     THEN NULL ELSE job_postings.latitude END,
		     longitude = CASE WHEN job_postings.location IS DISTINCT FROM EXCLUDED.location
		                      THEN NULL ELSE job_postings.longitude END,
		     geocode_confidence = CASE WHEN job_postings.location IS DISTINCT FROM EXCLUDED.location
		                               THEN NULL ELSE job_postings.geocode_confidence END,
		     geocoded_at = CASE WHEN job_postings.location IS DISTINCT FROM EXCLUDED.location
		                        THEN NULL ELSE job_postings.geocoded_at END,
		     location = EXCLUDED.location,
		     experience_level = CASE WHEN $26::boolean THEN EXCLUDED.experience_level ELSE job_postings.experience_level END,
		     audience_tags = CASE WHEN $26::boolean THEN EXCLUDED.audience_tags ELSE job_postings.audience_tags END,
		     classification_confidence = CASE WHEN $26::boolean THEN EXCLUDED.classification_confidence
		                                      ELSE job_postings.classification_confidence END,
		     classification_signals = CASE WHEN $26::boolean THEN EXCLUDED.classification_signals
		                                   ELSE job_postings.classification_signals END,
		     locale_confidence = CASE WHEN $26::boolean THEN EXCLUDED.locale_confidence ELSE job_postings.locale_confidence END,
		     needs_review = CASE WHEN $26::boolean THEN EXCLUDED.needs_review ELSE job_postings.needs_review END,
		     updated_at = NOW()
		 RETURNING id, (xmax = 0) AS inserted`,
		string(p.Platform), p.ExternalID, p.Title, p.Company, p.Description,
		p.Location, p.Country, string(p.JobType), p.SalaryMin, p.SalaryMax,
		nullIfEmpty(p.SalaryCurrency), nullIfEmpty(p.SalaryPeriod), skills, p.Remote, nullIfEmpty(p.ApplyURL),
		nullIfEmpty(p.CompanyLogo), p.ContentHash, p.PostedAt, in.SeenAt,
		string(c.ExperienceLevel), c.TagStrings(), c.Confidence,
		signalsJSON, c.LocaleConfidence, c.NeedsReview,
		in.Reclassify,
	).Scan(&r.ID, &r.Inserted)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert posting %s/%s: %w", p.Platform, p.ExternalID, err)
	}
	return &r, nil
}

// CountPostings returns the number of postings, active or not.
func (db *DB) CountPostings(ctx context.Context) (int, error) {
	var n int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM job_postings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count postings: %w", err)
	}
	return n, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
