package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateIngestRun records the start of an ingestion run and returns its ID
func (db *DB) CreateIngestRun(ctx context.Context, trigger string, dryRun bool) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO ingest_runs (trigger, status, dry_run)
		 VALUES ($1, 'running', $2)
		 RETURNING id`,
		trigger, dryRun,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create ingest run: %w", err)
	}
	return id, nil
}

// CompleteIngestRun stores the final status and statistics of a run
func (db *DB) CompleteIngestRun(ctx context.Context, runID uuid.UUID, status string, stats any) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal run stats: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`UPDATE ingest_runs SET status = $1, stats = $2, completed_at = NOW() WHERE id = $3`,
		status, statsJSON, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete ingest run: %w", err)
	}
	return nil
}

// GetIngestRun retrieves a run by ID, or nil if it does not exist
func (db *DB) GetIngestRun(ctx context.Context, runID uuid.UUID) (*IngestRun, error) {
	var r IngestRun
	err := db.pool.QueryRow(ctx,
		`SELECT id, trigger, status, dry_run, stats, started_at, completed_at
		 FROM ingest_runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &r.Trigger, &r.Status, &r.DryRun, &r.Stats, &r.StartedAt, &r.CompletedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ingest run: %w", err)
	}
	return &r, nil
}

// ListIngestRuns returns the most recent runs, newest first
func (db *DB) ListIngestRuns(ctx context.Context, limit int) ([]IngestRun, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, trigger, status, dry_run, stats, started_at, completed_at
		 FROM ingest_runs
		 ORDER BY started_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingest runs: %w", err)
	}
	defer rows.Close()

	var runs []IngestRun
	for rows.Next() {
		var r IngestRun
		if err := rows.Scan(&r.ID, &r.Trigger, &r.Status, &r.DryRun, &r.Stats, &r.StartedAt, &r.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ingest run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ingest runs: %w", err)
	}
	return runs, nil
}
