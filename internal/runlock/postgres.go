package runlock

import (
	"context"
	"fmt"

	"github.com/jonathan/job-ingest/internal/db"
)

// AdvisoryLocker is implemented by *db.DB.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (*db.AdvisoryLock, error)
}

// PGLocker uses a session-level Postgres advisory lock.
type PGLocker struct {
	db AdvisoryLocker
}

// NewPGLocker creates a locker backed by the catalog database.
func NewPGLocker(database AdvisoryLocker) *PGLocker {
	return &PGLocker{db: database}
}

// TryAcquire takes the advisory lock for name or returns ErrLocked.
func (l *PGLocker) TryAcquire(ctx context.Context, name string) (Lease, error) {
	lock, err := l.db.TryAdvisoryLock(ctx, Key(name))
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock %q: %w", name, err)
	}
	if lock == nil {
		return nil, ErrLocked
	}
	return lock, nil
}
