package types

// RunStats summarizes one ingestion run.
type RunStats struct {
	CompaniesProcessed   int            `json:"companiesProcessed"`
	CompaniesFailed      int            `json:"companiesFailed"`
	PostingsFound        int            `json:"postingsFound"`
	PostingsCreated      int            `json:"postingsCreated"`
	PostingsUpdated      int            `json:"postingsUpdated"`
	PostingsSkipped      int            `json:"postingsSkipped"`
	PostingsReclassified int            `json:"postingsReclassified"`
	DurationMs           int64          `json:"durationMs"`
	Errors               []string       `json:"errors"`
	ErrorsTruncated      int            `json:"errorsTruncated,omitempty"`
	DryRun               bool           `json:"dryRun"`
	Cleanup              *CleanupResult `json:"cleanup,omitempty"`
	Geocode              *GeocodeResult `json:"geocode,omitempty"`
}

// CleanupResult is returned by a staleness sweep.
type CleanupResult struct {
	PostingsChecked        int  `json:"postingsChecked"`
	PostingsMarkedInactive int  `json:"postingsMarkedInactive"`
	DryRun                 bool `json:"dryRun"`
	StaleDaysThreshold     int  `json:"staleDaysThreshold"`
}

// GeocodeResult is returned by a geocoding run.
type GeocodeResult struct {
	Copied    int `json:"copied"`
	Geocoded  int `json:"geocoded"`
	Failed    int `json:"failed"`
	Remaining int `json:"remaining"`
}
