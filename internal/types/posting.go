// Package types provides type definitions for structured data shared across the ingestion pipeline.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"time"

	"github.com/google/uuid"
)

// Platform identifies the provider a posting was fetched from.
type Platform string

const (
	// PlatformGreenhouse is the Greenhouse ATS job board API
	PlatformGreenhouse Platform = "greenhouse"
	// PlatformLever is the Lever ATS postings API
	PlatformLever Platform = "lever"
	// PlatformAshby is the Ashby ATS job board API
	PlatformAshby Platform = "ashby"
	// PlatformRemotive is the Remotive remote jobs aggregator
	PlatformRemotive Platform = "remotive"
	// PlatformArbeitnow is the Arbeitnow job board aggregator
	PlatformArbeitnow Platform = "arbeitnow"
	// PlatformJSearch is the JSearch aggregator (OpenWebNinja)
	PlatformJSearch Platform = "jsearch"
	// PlatformUSAJobs is the USAJobs federal job search API
	PlatformUSAJobs Platform = "usajobs"
	// PlatformApprenticeship is the Apprenticeship.gov registered apprenticeship API
	PlatformApprenticeship Platform = "apprenticeship"
)

// IsATS reports whether the platform is a per-company applicant tracking board.
func (p Platform) IsATS() bool {
	switch p {
	case PlatformGreenhouse, PlatformLever, PlatformAshby:
		return true
	}
	return false
}

// JobType is the canonical employment type.
type JobType string

// Canonical job types
const (
	JobTypeFullTime       JobType = "FULL_TIME"
	JobTypePartTime       JobType = "PART_TIME"
	JobTypeContract       JobType = "CONTRACT"
	JobTypeInternship     JobType = "INTERNSHIP"
	JobTypeApprenticeship JobType = "APPRENTICESHIP"
	JobTypeFreelance      JobType = "FREELANCE"
	JobTypeTemporary      JobType = "TEMPORARY"
)

// CompanySource is a company board registered for ingestion. Rows are owned by
// external admin tooling and are read-only here.
type CompanySource struct {
	ID          uuid.UUID `json:"id"`
	CompanyName string    `json:"company_name"`
	Platform    Platform  `json:"ats_platform"`
	Slug        string    `json:"slug"`
	BoardURL    string    `json:"board_url,omitempty"`
	IsActive    bool      `json:"is_active"`
}

// RawPosting is the provider-independent shape every adapter converges on.
// Fields hold source values as-is; the normalizer owns all interpretation.
type RawPosting struct {
	Platform       Platform   `json:"platform" validate:"required"`
	ExternalID     string     `json:"external_id,omitempty"`
	Title          string     `json:"title"`
	Company        string     `json:"company"`
	Description    string     `json:"description,omitempty"` // may contain HTML
	Location       string     `json:"location,omitempty"`
	Country        string     `json:"country,omitempty"`
	State          string     `json:"state,omitempty"` // US state code when the provider reports it separately
	JobType        string     `json:"job_type,omitempty"`
	Remote         bool       `json:"remote,omitempty"`
	SalaryMin      *int       `json:"salary_min,omitempty"`
	SalaryMax      *int       `json:"salary_max,omitempty"`
	SalaryCurrency string     `json:"salary_currency,omitempty"`
	SalaryPeriod   string     `json:"salary_period,omitempty"`
	Tags           []string   `json:"tags,omitempty"`
	PostedAt       *time.Time `json:"posted_at,omitempty"`
	ApplyURL       string     `json:"apply_url,omitempty" validate:"omitempty,url"`
	CompanyLogo    string     `json:"company_logo,omitempty"`
}

// NormalizedPosting is the canonical pre-classification record.
type NormalizedPosting struct {
	Platform       Platform  `json:"source_platform"`
	ExternalID     string    `json:"source_external_id"`
	Title          string    `json:"title"`
	Company        string    `json:"company"`
	Description    string    `json:"description"`
	Location       string    `json:"location"`
	Country        *string   `json:"country,omitempty"`
	JobType        JobType   `json:"job_type"`
	SalaryMin      *int      `json:"salary_min,omitempty"`
	SalaryMax      *int      `json:"salary_max,omitempty"`
	SalaryCurrency string    `json:"salary_currency,omitempty"`
	SalaryPeriod   string    `json:"salary_period,omitempty"`
	Skills         []string  `json:"skills"`
	Remote         bool      `json:"remote"`
	PostedAt       time.Time `json:"posted_at"`
	ApplyURL       string    `json:"apply_url,omitempty"`
	CompanyLogo    string    `json:"company_logo,omitempty"`
	ContentHash    string    `json:"content_hash"`
}
