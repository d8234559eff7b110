package db

import (
	"context"
	"fmt"

	"github.com/jonathan/job-ingest/internal/sources"
	"github.com/jonathan/job-ingest/internal/types"
)

// ListCompanySources returns active company boards matching the filter,
// ordered by company name. A zero Limit means no limit.
func (db *DB) ListCompanySources(ctx context.Context, filter sources.CompanyFilter) ([]types.CompanySource, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, company_name, ats_platform, slug, COALESCE(board_url, ''), is_active
		 FROM company_sources
		 WHERE is_active
		   AND ($1 = '' OR ats_platform = $1)
		   AND ($2 = '' OR lower(company_name) = lower($2) OR lower(slug) = lower($2))
		 ORDER BY company_name, slug
		 LIMIT NULLIF($3::int, 0)`,
		string(filter.Platform), filter.Company, filter.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list company sources: %w", err)
	}
	defer rows.Close()

	var companies []types.CompanySource
	for rows.Next() {
		var c types.CompanySource
		var platform string
		if err := rows.Scan(&c.ID, &c.CompanyName, &platform, &c.Slug, &c.BoardURL, &c.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan company source: %w", err)
		}
		c.Platform = types.Platform(platform)
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate company sources: %w", err)
	}
	return companies, nil
}
