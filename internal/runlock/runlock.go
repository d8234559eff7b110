// Package runlock provides the mutual exclusion that keeps ingestion and
// cleanup runs from overlapping, across processes.
package runlock

import (
	"context"
	"errors"
	"hash/fnv"
)

// Name is the single lock shared by ingestion and cleanup.
const Name = "job-ingest:catalog-writer"

// ErrLocked is returned by TryAcquire when another holder owns the lock.
var ErrLocked = errors.New("run lock is held by another process")

// Lease is a held lock.
type Lease interface {
	Release(ctx context.Context) error
}

// Locker acquires named locks without blocking.
type Locker interface {
	TryAcquire(ctx context.Context, name string) (Lease, error)
}

// Key maps a lock name onto the int64 keyspace of Postgres advisory locks.
func Key(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return int64(h.Sum64())
}
