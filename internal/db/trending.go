package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SaveCount returns how many save events a posting received since the given time.
func (db *DB) SaveCount(ctx context.Context, postingID uuid.UUID, since time.Time) (int, error) {
	var n int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM save_events WHERE posting_id = $1 AND created_at >= $2`,
		postingID, since,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count saves: %w", err)
	}
	return n, nil
}

// TopSaved returns active postings with at least minSaves saves since the
// given time, highest count first.
func (db *DB) TopSaved(ctx context.Context, since time.Time, minSaves, limit int) ([]TrendingPosting, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT p.id, p.title, p.company, COUNT(*) AS saves
		 FROM save_events s
		 JOIN job_postings p ON p.id = s.posting_id
		 WHERE s.created_at >= $1 AND p.is_active
		 GROUP BY p.id, p.title, p.company
		 HAVING COUNT(*) >= $2
		 ORDER BY saves DESC, p.id
		 LIMIT $3`,
		since, minSaves, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list trending postings: %w", err)
	}
	defer rows.Close()

	var out []TrendingPosting
	for rows.Next() {
		var t TrendingPosting
		if err := rows.Scan(&t.PostingID, &t.Title, &t.Company, &t.SaveCount); err != nil {
			return nil, fmt.Errorf("failed to scan trending posting: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trending postings: %w", err)
	}
	return out, nil
}
