package db

import (
	"context"
	"fmt"

	"github.com/jonathan/job-ingest/internal/types"
)

// ListNeedsReview returns active postings flagged for review, least confident first.
func (db *DB) ListNeedsReview(ctx context.Context, limit int) ([]ReviewPosting, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, source_platform, source_external_id, title, company,
		        experience_level, audience_tags, classification_confidence,
		        classification_signals, updated_at
		 FROM job_postings
		 WHERE needs_review AND is_active
		 ORDER BY classification_confidence ASC, updated_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list postings needing review: %w", err)
	}
	defer rows.Close()

	var out []ReviewPosting
	for rows.Next() {
		var r ReviewPosting
		var platform, level string
		if err := rows.Scan(&r.ID, &platform, &r.ExternalID, &r.Title, &r.Company,
			&level, &r.AudienceTags, &r.Confidence, &r.Signals, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review posting: %w", err)
		}
		r.Platform = types.Platform(platform)
		r.ExperienceLevel = types.ExperienceLevel(level)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate review postings: %w", err)
	}
	return out, nil
}
