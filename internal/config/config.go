// Package config provides configuration loading and validation for the ingestion CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Default values. Every tunable used by the pipeline is listed here and passed
// explicitly into constructors.
const (
	DefaultConcurrency          = 1
	DefaultMaxRunErrors         = 50
	DefaultMaxPostingsPerSource = 200
	DefaultFetchTimeout         = 30 * time.Second
	DefaultStaleDays            = 7
	DefaultGeocoderURL          = "https://nominatim.openstreetmap.org"
	DefaultGeocoderUserAgent    = "job-ingest/1.0"
	DefaultGeocodeInterval      = time.Second
	DefaultGeocodeBudget        = 50 * time.Second
	DefaultTrendingWindow       = 24 * time.Hour
	DefaultTrendingThreshold    = 10
	DefaultIngestSchedule       = "@every 1h"
	DefaultCleanupSchedule      = "@daily"
	DefaultServerPort           = 8080
	DefaultLogLevel             = "info"
	DefaultLogFormat            = "text"
)

// Config represents the pipeline configuration loaded from a JSON or YAML file
// and overlaid by environment variables.
type Config struct {
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty"`
	RedisURL    string `json:"redis_url,omitempty" yaml:"redis_url,omitempty" validate:"omitempty,url"`

	LogLevel  string `json:"log_level,omitempty" yaml:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	LogFormat string `json:"log_format,omitempty" yaml:"log_format,omitempty" validate:"omitempty,oneof=text json"`

	// Orchestrator
	Concurrency          int      `json:"concurrency,omitempty" yaml:"concurrency,omitempty" validate:"gte=0,lte=64"`
	MaxRunErrors         int      `json:"max_run_errors,omitempty" yaml:"max_run_errors,omitempty" validate:"gte=0"`
	MaxPostingsPerSource int      `json:"max_postings_per_source,omitempty" yaml:"max_postings_per_source,omitempty" validate:"gte=0"`
	FetchTimeout         Duration `json:"fetch_timeout,omitempty" yaml:"fetch_timeout,omitempty"`

	// Cleanup
	StaleDays int `json:"stale_days,omitempty" yaml:"stale_days,omitempty" validate:"gte=0"`

	Geocoder GeocoderConfig `json:"geocoder" yaml:"geocoder"`
	Trending TrendingConfig `json:"trending" yaml:"trending"`
	Locale   LocaleConfig   `json:"locale" yaml:"locale"`
	Sources  SourcesConfig  `json:"sources" yaml:"sources"`
	Schedule ScheduleConfig `json:"schedule" yaml:"schedule"`
	Server   ServerConfig   `json:"server" yaml:"server"`
}

// GeocoderConfig configures the external geocoding API and its pacing.
type GeocoderConfig struct {
	URL       string   `json:"url,omitempty" yaml:"url,omitempty" validate:"omitempty,url"`
	UserAgent string   `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	Interval  Duration `json:"interval,omitempty" yaml:"interval,omitempty"` // minimum gap between calls
	Budget    Duration `json:"budget,omitempty" yaml:"budget,omitempty"`     // wall-clock budget for the resolve pass
}

// TrendingConfig configures the trending window.
type TrendingConfig struct {
	Window    Duration `json:"window,omitempty" yaml:"window,omitempty"`
	Threshold int      `json:"threshold,omitempty" yaml:"threshold,omitempty" validate:"gte=0"`
}

// LocaleConfig lists the countries the catalog targets (ISO alpha-2).
type LocaleConfig struct {
	TargetCountries []string `json:"target_countries,omitempty" yaml:"target_countries,omitempty" validate:"dive,len=2"`
}

// SourcesConfig configures the aggregator adapters.
type SourcesConfig struct {
	Disabled        []string `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	JSearchAPIKey   string   `json:"jsearch_api_key,omitempty" yaml:"jsearch_api_key,omitempty"`
	JSearchQueries  []string `json:"jsearch_queries,omitempty" yaml:"jsearch_queries,omitempty"`
	USAJobsAPIKey   string   `json:"usajobs_api_key,omitempty" yaml:"usajobs_api_key,omitempty"`
	USAJobsEmail    string   `json:"usajobs_email,omitempty" yaml:"usajobs_email,omitempty" validate:"omitempty,email"`
	USAJobsKeywords []string `json:"usajobs_keywords,omitempty" yaml:"usajobs_keywords,omitempty"`

	// ApprenticeshipOccupations are the keyword searches sent to Apprenticeship.gov.
	ApprenticeshipOccupations []string `json:"apprenticeship_occupations,omitempty" yaml:"apprenticeship_occupations,omitempty"`
}

// ScheduleConfig holds cron specs for the long-running scheduler.
type ScheduleConfig struct {
	Ingest  string `json:"ingest,omitempty" yaml:"ingest,omitempty"`
	Cleanup string `json:"cleanup,omitempty" yaml:"cleanup,omitempty"`
}

// ServerConfig configures the admin HTTP API.
type ServerConfig struct {
	Port   int    `json:"port,omitempty" yaml:"port,omitempty" validate:"gte=0,lte=65535"`
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// Defaults returns a Config populated with default values.
func Defaults() Config {
	return Config{
		LogLevel:             DefaultLogLevel,
		LogFormat:            DefaultLogFormat,
		Concurrency:          DefaultConcurrency,
		MaxRunErrors:         DefaultMaxRunErrors,
		MaxPostingsPerSource: DefaultMaxPostingsPerSource,
		FetchTimeout:         Duration(DefaultFetchTimeout),
		StaleDays:            DefaultStaleDays,
		Geocoder: GeocoderConfig{
			URL:       DefaultGeocoderURL,
			UserAgent: DefaultGeocoderUserAgent,
			Interval:  Duration(DefaultGeocodeInterval),
			Budget:    Duration(DefaultGeocodeBudget),
		},
		Trending: TrendingConfig{
			Window:    Duration(DefaultTrendingWindow),
			Threshold: DefaultTrendingThreshold,
		},
		Locale: LocaleConfig{TargetCountries: []string{"US"}},
		Sources: SourcesConfig{
			JSearchQueries:            DefaultJSearchQueries(),
			USAJobsKeywords:           DefaultUSAJobsKeywords(),
			ApprenticeshipOccupations: DefaultApprenticeshipOccupations(),
		},
		Schedule: ScheduleConfig{
			Ingest:  DefaultIngestSchedule,
			Cleanup: DefaultCleanupSchedule,
		},
		Server: ServerConfig{Port: DefaultServerPort},
	}
}

// DefaultJSearchQueries returns the search strings sent to JSearch.
func DefaultJSearchQueries() []string {
	return []string{
		"entry level software developer",
		"junior data analyst",
		"software engineer intern",
		"electrician apprentice",
		"hvac technician apprentice",
		"medical assistant entry level",
		"pharmacy technician",
		"emt paramedic entry level",
		"security officer entry level",
	}
}

// DefaultUSAJobsKeywords returns the keyword searches sent to USAJobs.
func DefaultUSAJobsKeywords() []string {
	return []string{"software developer", "data analyst", "IT specialist", "recent graduate"}
}

// DefaultApprenticeshipOccupations returns the trades searched on Apprenticeship.gov.
func DefaultApprenticeshipOccupations() []string {
	return []string{
		"electrician", "plumber", "hvac", "carpenter", "welder",
		"machinist", "automotive", "construction", "sheet metal", "pipefitter",
	}
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// Load reads the optional config file, overlays the environment, fills
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	cfg.ApplyEnv(os.Getenv)
	merged := cfg.MergeWithDefaults(Defaults())

	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// ApplyEnv overlays values from environment variables. Environment wins over
// the file for secrets and connection strings.
func (c *Config) ApplyEnv(getenv func(string) string) {
	setString := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.RedisURL, "REDIS_URL")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.Sources.JSearchAPIKey, "JSEARCH_API_KEY")
	setString(&c.Sources.USAJobsAPIKey, "USAJOBS_API_KEY")
	setString(&c.Sources.USAJobsEmail, "USAJOBS_EMAIL")
	setString(&c.Geocoder.URL, "GEOCODER_URL")
	setString(&c.Server.APIKey, "ADMIN_API_KEY")

	if v := getenv("STALE_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.StaleDays = n
		}
	}
}

var validate = validator.New()

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.Geocoder.Interval < 0 || c.Geocoder.Budget < 0 {
		return fmt.Errorf("config error: geocoder interval and budget must be non-negative")
	}
	if c.Geocoder.Budget > 0 && c.Geocoder.Budget < c.Geocoder.Interval {
		return fmt.Errorf("config error: geocoder budget %s is shorter than interval %s",
			c.Geocoder.Budget, c.Geocoder.Interval)
	}
	if c.FetchTimeout < 0 {
		return fmt.Errorf("config error: 'fetch_timeout' must be non-negative")
	}
	if c.Trending.Window < 0 {
		return fmt.Errorf("config error: trending window must be non-negative")
	}

	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.RedisURL == "" {
		result.RedisURL = defaults.RedisURL
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}
	if result.LogFormat == "" {
		result.LogFormat = defaults.LogFormat
	}
	if result.Geocoder.URL == "" {
		result.Geocoder.URL = defaults.Geocoder.URL
	}
	if result.Geocoder.UserAgent == "" {
		result.Geocoder.UserAgent = defaults.Geocoder.UserAgent
	}
	if result.Schedule.Ingest == "" {
		result.Schedule.Ingest = defaults.Schedule.Ingest
	}
	if result.Schedule.Cleanup == "" {
		result.Schedule.Cleanup = defaults.Schedule.Cleanup
	}

	// Int fields: use default if zero
	if result.Concurrency == 0 {
		result.Concurrency = defaults.Concurrency
	}
	if result.MaxRunErrors == 0 {
		result.MaxRunErrors = defaults.MaxRunErrors
	}
	if result.MaxPostingsPerSource == 0 {
		result.MaxPostingsPerSource = defaults.MaxPostingsPerSource
	}
	if result.StaleDays == 0 {
		result.StaleDays = defaults.StaleDays
	}
	if result.Trending.Threshold == 0 {
		result.Trending.Threshold = defaults.Trending.Threshold
	}
	if result.Server.Port == 0 {
		result.Server.Port = defaults.Server.Port
	}

	// Duration fields
	if result.FetchTimeout == 0 {
		result.FetchTimeout = defaults.FetchTimeout
	}
	if result.Geocoder.Interval == 0 {
		result.Geocoder.Interval = defaults.Geocoder.Interval
	}
	if result.Geocoder.Budget == 0 {
		result.Geocoder.Budget = defaults.Geocoder.Budget
	}
	if result.Trending.Window == 0 {
		result.Trending.Window = defaults.Trending.Window
	}

	// Slice fields
	if len(result.Locale.TargetCountries) == 0 {
		result.Locale.TargetCountries = defaults.Locale.TargetCountries
	}
	if len(result.Sources.JSearchQueries) == 0 {
		result.Sources.JSearchQueries = defaults.Sources.JSearchQueries
	}
	if len(result.Sources.USAJobsKeywords) == 0 {
		result.Sources.USAJobsKeywords = defaults.Sources.USAJobsKeywords
	}
	if len(result.Sources.ApprenticeshipOccupations) == 0 {
		result.Sources.ApprenticeshipOccupations = defaults.Sources.ApprenticeshipOccupations
	}

	return result
}

// SourceEnabled reports whether the named platform is not in the disabled list.
func (c *Config) SourceEnabled(platform string) bool {
	for _, d := range c.Sources.Disabled {
		if strings.EqualFold(d, platform) {
			return false
		}
	}
	return true
}
