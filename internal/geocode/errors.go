package geocode

import "fmt"

// NoMatchError means the geocoding API found nothing for a location. The
// location is skipped and tried again on a later run.
type NoMatchError struct {
	Location string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no geocode match for %q", e.Location)
}

// ResponseError means the API answered with a body that could not be used.
type ResponseError struct {
	Location string
	Message  string
	Cause    error
}

func (e *ResponseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("bad geocode response for %q: %s: %v", e.Location, e.Message, e.Cause)
	}
	return fmt.Sprintf("bad geocode response for %q: %s", e.Location, e.Message)
}

func (e *ResponseError) Unwrap() error {
	return e.Cause
}
