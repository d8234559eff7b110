package sources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/job-ingest/internal/fetch"
	"github.com/jonathan/job-ingest/internal/schemas"
	"github.com/jonathan/job-ingest/internal/types"
)

// PayloadError means a provider answered 2xx with a body that does not match
// its expected shape. The company is counted as failed for this run.
type PayloadError struct {
	Platform types.Platform
	URL      string
	Message  string
	Cause    error
}

func (e *PayloadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed %s payload from %s: %s: %v", e.Platform, e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("malformed %s payload from %s: %s", e.Platform, e.URL, e.Message)
}

func (e *PayloadError) Unwrap() error {
	return e.Cause
}

// getJSON fetches url, validates the body against the provider schema, and
// decodes it into dst.
func getJSON(ctx context.Context, platform types.Platform, url string, opts *fetch.Options, dst any) error {
	result, err := fetch.URL(ctx, url, opts)
	if err != nil {
		return err
	}

	if err := schemas.ValidateProvider(string(platform), result.Body); err != nil {
		return &PayloadError{Platform: platform, URL: result.URL, Message: "schema mismatch", Cause: err}
	}

	if err := json.Unmarshal(result.Body, dst); err != nil {
		return &PayloadError{Platform: platform, URL: result.URL, Message: "failed to decode", Cause: err}
	}
	return nil
}
