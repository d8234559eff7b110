package geocode

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/job-ingest/internal/db"
	"github.com/jonathan/job-ingest/internal/fetch"
	"github.com/jonathan/job-ingest/internal/schemas"
)

// defaultConfidence is used when the API returns no importance score.
const defaultConfidence = 0.5

// Client calls a Nominatim-compatible search API.
type Client struct {
	baseURL    string
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		timeout:   timeout,
	}
}

// WithHTTPClient overrides the HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

type searchResult struct {
	Lat        string   `json:"lat"`
	Lon        string   `json:"lon"`
	Importance *float64 `json:"importance"`
}

// Lookup resolves a location string to coordinates. It returns
// *NoMatchError when the API has no result.
func (c *Client) Lookup(ctx context.Context, location string) (*db.Coordinates, error) {
	opts := fetch.DefaultOptions()
	if c.timeout > 0 {
		opts.Timeout = c.timeout
	}
	if c.userAgent != "" {
		opts.UserAgent = c.userAgent
	}
	opts.Client = c.httpClient
	opts.Query = url.Values{
		"q":      {location},
		"format": {"jsonv2"},
		"limit":  {"1"},
	}

	result, err := fetch.URL(ctx, c.baseURL+"/search", opts)
	if err != nil {
		return nil, err
	}

	if err := schemas.ValidateProvider("nominatim", result.Body); err != nil {
		return nil, &ResponseError{Location: location, Message: "schema mismatch", Cause: err}
	}

	var results []searchResult
	if err := json.Unmarshal(result.Body, &results); err != nil {
		return nil, &ResponseError{Location: location, Message: "failed to decode", Cause: err}
	}
	if len(results) == 0 {
		return nil, &NoMatchError{Location: location}
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, &ResponseError{Location: location, Message: "invalid latitude", Cause: err}
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, &ResponseError{Location: location, Message: "invalid longitude", Cause: err}
	}
	if math.Abs(lat) > 90 || math.Abs(lon) > 180 {
		return nil, &ResponseError{Location: location, Message: "coordinates out of range"}
	}

	confidence := defaultConfidence
	if imp := results[0].Importance; imp != nil {
		confidence = math.Min(1, math.Max(0, *imp))
	}

	return &db.Coordinates{Latitude: lat, Longitude: lon, Confidence: confidence}, nil
}
