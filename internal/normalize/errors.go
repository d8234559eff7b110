package normalize

import (
	"fmt"

	"github.com/jonathan/job-ingest/internal/types"
)

// MalformedPayloadError means a raw posting lacks a field the catalog requires.
// The record is skipped and counted; the run continues.
type MalformedPayloadError struct {
	Platform   types.Platform
	ExternalID string
	Field      string
	Message    string
}

func (e *MalformedPayloadError) Error() string {
	id := e.ExternalID
	if id == "" {
		id = "<no id>"
	}
	if e.Field != "" {
		return fmt.Sprintf("malformed %s posting %s: %s: %s", e.Platform, id, e.Field, e.Message)
	}
	return fmt.Sprintf("malformed %s posting %s: %s", e.Platform, id, e.Message)
}
