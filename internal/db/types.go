package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-ingest/internal/types"
)

// Ingest run statuses
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Existing is the stored state of a posting needed to decide how to upsert it.
type Existing struct {
	ID          uuid.UUID
	ContentHash string
}

// UpsertInput is one posting write. Classification is always supplied so a
// racing insert never leaves a row unclassified; Reclassify decides whether
// an update overwrites the stored classification.
type UpsertInput struct {
	Posting        *types.NormalizedPosting
	Classification *types.Classification
	Reclassify     bool
	SeenAt         time.Time
}

// UpsertResult reports what the write did.
type UpsertResult struct {
	ID       uuid.UUID
	Inserted bool
}

// PendingLocation is a location string still waiting for coordinates.
type PendingLocation struct {
	Location string
	Waiting  int
}

// Coordinates is a resolved location.
type Coordinates struct {
	Latitude   float64
	Longitude  float64
	Confidence float64
}

// TrendingPosting is a posting with its save count inside the window.
type TrendingPosting struct {
	PostingID uuid.UUID `json:"postingId"`
	Title     string    `json:"title"`
	Company   string    `json:"company"`
	SaveCount int       `json:"saveCount"`
}

// ReviewPosting is a low-confidence classification awaiting a human look.
type ReviewPosting struct {
	ID              uuid.UUID             `json:"id"`
	Platform        types.Platform        `json:"sourcePlatform"`
	ExternalID      string                `json:"sourceExternalId"`
	Title           string                `json:"title"`
	Company         string                `json:"company"`
	ExperienceLevel types.ExperienceLevel `json:"experienceLevel"`
	AudienceTags    []string              `json:"audienceTags"`
	Confidence      float64               `json:"classificationConfidence"`
	Signals         json.RawMessage       `json:"classificationSignals,omitempty"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

// IngestRun is the persisted record of one non-dry ingestion run.
type IngestRun struct {
	ID          uuid.UUID       `json:"id"`
	Trigger     string          `json:"trigger"`
	Status      string          `json:"status"`
	DryRun      bool            `json:"dryRun"`
	Stats       json.RawMessage `json:"stats,omitempty"`
	StartedAt   time.Time       `json:"startedAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

// IsFinished reports whether the run reached a terminal status.
func (r *IngestRun) IsFinished() bool {
	return r.Status == RunStatusCompleted || r.Status == RunStatusFailed
}
