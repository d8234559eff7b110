package db

import (
	"context"
	"fmt"
)

// CopyKnownCoordinates fills un-geocoded active postings from any geocoded
// posting with the exact same location string. It makes no external calls
// and returns the number of rows updated.
func (db *DB) CopyKnownCoordinates(ctx context.Context) (int, error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE job_postings AS p
		 SET latitude = g.latitude,
		     longitude = g.longitude,
		     geocode_confidence = g.geocode_confidence,
		     geocoded_at = NOW(),
		     updated_at = NOW()
		 FROM (
		     SELECT DISTINCT ON (location) location, latitude, longitude, geocode_confidence
		     FROM job_postings
		     WHERE latitude IS NOT NULL AND longitude IS NOT NULL AND location <> ''
		     ORDER BY location, geocoded_at DESC NULLS LAST
		 ) AS g
		 WHERE p.location = g.location
		   AND p.is_active
		   AND p.latitude IS NULL`,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to copy known coordinates: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// PendingLocations returns distinct location strings of active postings that
// still lack coordinates, most-waited-for first. Locations whose lowercased,
// trimmed form is in skip are left out.
func (db *DB) PendingLocations(ctx context.Context, skip []string) ([]PendingLocation, error) {
	if skip == nil {
		skip = []string{}
	}
	rows, err := db.pool.Query(ctx,
		`SELECT location, COUNT(*) AS waiting
		 FROM job_postings
		 WHERE is_active
		   AND latitude IS NULL
		   AND btrim(location) <> ''
		   AND NOT (lower(btrim(location)) = ANY($1))
		 GROUP BY location
		 ORDER BY waiting DESC, location`,
		skip,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending locations: %w", err)
	}
	defer rows.Close()

	var pending []PendingLocation
	for rows.Next() {
		var p PendingLocation
		if err := rows.Scan(&p.Location, &p.Waiting); err != nil {
			return nil, fmt.Errorf("failed to scan pending location: %w", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pending locations: %w", err)
	}
	return pending, nil
}

// ApplyCoordinates writes coordinates to every un-geocoded posting with the
// exact location string and returns the number of rows updated.
func (db *DB) ApplyCoordinates(ctx context.Context, location string, c Coordinates) (int, error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE job_postings
		 SET latitude = $2, longitude = $3, geocode_confidence = $4,
		     geocoded_at = NOW(), updated_at = NOW()
		 WHERE location = $1 AND latitude IS NULL`,
		location, c.Latitude, c.Longitude, c.Confidence,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to apply coordinates for %q: %w", location, err)
	}
	return int(tag.RowsAffected()), nil
}
