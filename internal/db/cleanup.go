package db

import (
	"context"
	"fmt"
	"time"
)

// CountActive returns the number of active postings.
func (db *DB) CountActive(ctx context.Context) (int, error) {
	var n int
	err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM job_postings WHERE is_active`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count active postings: %w", err)
	}
	return n, nil
}

// CountStale returns the number of active postings last seen before cutoff.
func (db *DB) CountStale(ctx context.Context, cutoff time.Time) (int, error) {
	var n int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM job_postings WHERE is_active AND last_seen_at < $1`,
		cutoff,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count stale postings: %w", err)
	}
	return n, nil
}

// MarkStale deactivates active postings last seen before cutoff and returns
// how many were changed.
func (db *DB) MarkStale(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE job_postings
		 SET is_active = FALSE, updated_at = NOW()
		 WHERE is_active AND last_seen_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark stale postings: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
