package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-ingest/internal/fetch"
)

func newNominatim(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "job-ingest-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Lookup(t *testing.T) {
	srv := newNominatim(t, http.StatusOK,
		`[{"lat":"30.2672","lon":"-97.7431","importance":0.72,"display_name":"Austin, Texas"}]`)
	c := NewClient(srv.URL+"/", "job-ingest-test", time.Second)

	coords, err := c.Lookup(context.Background(), "Austin, TX")
	require.NoError(t, err)
	assert.InDelta(t, 30.2672, coords.Latitude, 1e-9)
	assert.InDelta(t, -97.7431, coords.Longitude, 1e-9)
	assert.InDelta(t, 0.72, coords.Confidence, 1e-9)
}

func TestClient_LookupDefaultsConfidence(t *testing.T) {
	srv := newNominatim(t, http.StatusOK, `[{"lat":"1.5","lon":"2.5"}]`)
	c := NewClient(srv.URL, "job-ingest-test", time.Second)

	coords, err := c.Lookup(context.Background(), "Somewhere")
	require.NoError(t, err)
	assert.Equal(t, defaultConfidence, coords.Confidence)
}

func TestClient_LookupNoMatch(t *testing.T) {
	srv := newNominatim(t, http.StatusOK, `[]`)
	c := NewClient(srv.URL, "job-ingest-test", time.Second)

	_, err := c.Lookup(context.Background(), "Atlantis")
	var noMatch *NoMatchError
	require.True(t, errors.As(err, &noMatch))
	assert.Equal(t, "Atlantis", noMatch.Location)
}

func TestClient_LookupSchemaMismatch(t *testing.T) {
	srv := newNominatim(t, http.StatusOK, `{"error":"rate limited"}`)
	c := NewClient(srv.URL, "job-ingest-test", time.Second)

	_, err := c.Lookup(context.Background(), "Austin, TX")
	var respErr *ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.Equal(t, "schema mismatch", respErr.Message)
}

func TestClient_LookupInvalidCoordinates(t *testing.T) {
	srv := newNominatim(t, http.StatusOK, `[{"lat":"north","lon":"2.5"}]`)
	c := NewClient(srv.URL, "job-ingest-test", time.Second)

	_, err := c.Lookup(context.Background(), "Austin, TX")
	var respErr *ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.Equal(t, "invalid latitude", respErr.Message)
}

func TestClient_LookupHTTPError(t *testing.T) {
	srv := newNominatim(t, http.StatusServiceUnavailable, `busy`)
	c := NewClient(srv.URL, "job-ingest-test", time.Second)

	_, err := c.Lookup(context.Background(), "Austin, TX")
	var fetchErr *fetch.Error
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusServiceUnavailable, fetchErr.StatusCode)
}
