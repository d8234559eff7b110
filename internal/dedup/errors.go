package dedup

import (
	"fmt"

	"github.com/jonathan/job-ingest/internal/types"
)

// IdentityConflictError means storage rejected a write for violating the
// identity uniqueness constraint. The upsert statement should make this
// impossible, so it is treated as fatal for the run.
type IdentityConflictError struct {
	Platform   types.Platform
	ExternalID string
	Cause      error
}

func (e *IdentityConflictError) Error() string {
	return fmt.Sprintf("identity conflict for %s/%s: %v", e.Platform, e.ExternalID, e.Cause)
}

func (e *IdentityConflictError) Unwrap() error {
	return e.Cause
}
