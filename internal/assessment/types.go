package assessment

import (
	"time"

	"github.com/verdigris-botanica/egress/internal/types"
)

// AssessmentType represents the kind of assessment being conducted
type AssessmentType string

const (
	TypeSecurity       AssessmentType = "security"
	TypeInfrastructure AssessmentType = "infrastructure"
	TypeCompliance     AssessmentType = "compliance"
	TypeCapacity       AssessmentType = "capacity"
)

// String returns the string representation of AssessmentType
func (t AssessmentType) String() string {
	return string(t)
}

// IsValid checks if the AssessmentType is a valid value
func (t AssessmentType) IsValid() bool {
	switch t {
	case TypeSecurity, TypeInfrastructure, TypeCompliance, TypeCapacity:
		return true
	default:
		return false
	}
}

// FindingSeverity represents the severity level of a finding
type FindingSeverity string

const (
	SeverityCritical FindingSeverity = "critical"
	SeverityHigh     FindingSeverity = "high"
	SeverityMedium   FindingSeverity = "medium"
	SeverityLow      FindingSeverity = "low"
	SeverityInfo     FindingSeverity = "info"
)

// Finding represents a single assessment observation. Findings are
// produced by assessment runs and are read-only to the transmission
// pipeline; the classification is immutable once assigned.
type Finding struct {
	ID             types.ID                 `json:"id"`
	Category       string                   `json:"category"`
	Severity       FindingSeverity          `json:"severity"`
	Classification types.DataClassification `json:"classification"`
	Description    string                   `json:"description"`
	CreatedAt      time.Time                `json:"created_at"`
}

// SeveritySummary is the distribution of findings across severity levels.
type SeveritySummary struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Info     int `json:"info"`
}

// Assessment is a collection of findings from a single assessment run.
type Assessment struct {
	ID        types.ID       `json:"id"`
	Type      AssessmentType `json:"type"`
	Name      string         `json:"name"`
	Findings  []Finding      `json:"findings"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewAssessment creates an empty assessment of the given type.
func NewAssessment(assessmentType AssessmentType, name string) *Assessment {
	return &Assessment{
		ID:        types.NewID(),
		Type:      assessmentType,
		Name:      name,
		Findings:  []Finding{},
		CreatedAt: time.Now().UTC(),
	}
}

// AddFinding appends a finding to the assessment with a fresh ID.
func (a *Assessment) AddFinding(category string, severity FindingSeverity, classification types.DataClassification, description string) Finding {
	f := Finding{
		ID:             types.NewID(),
		Category:       category,
		Severity:       severity,
		Classification: classification,
		Description:    description,
		CreatedAt:      time.Now().UTC(),
	}
	a.Findings = append(a.Findings, f)
	return f
}

// SummarizeSeverity computes the severity distribution over the given findings.
func SummarizeSeverity(findings []Finding) SeveritySummary {
	var s SeveritySummary
	for _, f := range findings {
		switch f.Severity {
		case SeverityCritical:
			s.Critical++
		case SeverityHigh:
			s.High++
		case SeverityMedium:
			s.Medium++
		case SeverityLow:
			s.Low++
		case SeverityInfo:
			s.Info++
		}
	}
	return s
}
