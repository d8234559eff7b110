package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AdvisoryLock is a held session-level advisory lock. It pins one pooled
// connection until released.
type AdvisoryLock struct {
	conn *pgxpool.Conn
	key  int64
}

// TryAdvisoryLock attempts pg_try_advisory_lock on a dedicated connection.
// It returns (nil, nil) when another session holds the lock.
func (db *DB) TryAdvisoryLock(ctx context.Context, key int64) (*AdvisoryLock, error) {
	conn, err := db.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection for lock: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, nil
	}
	return &AdvisoryLock{conn: conn, key: key}, nil
}

// Release unlocks and returns the connection to the pool. A failed unlock
// destroys the connection, which ends the session and frees the lock.
func (l *AdvisoryLock) Release(ctx context.Context) error {
	if l == nil || l.conn == nil {
		return nil
	}
	conn := l.conn
	l.conn = nil

	var released bool
	if err := conn.QueryRow(ctx, `SELECT pg_advisory_unlock($1)`, l.key).Scan(&released); err != nil {
		_ = conn.Conn().Close(ctx)
		conn.Release()
		return fmt.Errorf("failed to release advisory lock: %w", err)
	}
	conn.Release()
	return nil
}
