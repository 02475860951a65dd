package types

import "github.com/m-mizutani/goerr/v2"

// AssessmentStatus represents the lifecycle status of a saved assessment
type AssessmentStatus string

const (
	AssessmentStatusDraft                AssessmentStatus = "Draft"
	AssessmentStatusFinalized            AssessmentStatus = "Finalized"
	AssessmentStatusReassessmentRequired AssessmentStatus = "Re-assessment Required"
)

// AllAssessmentStatuses returns all valid assessment statuses
func AllAssessmentStatuses() []AssessmentStatus {
	return []AssessmentStatus{
		AssessmentStatusDraft,
		AssessmentStatusFinalized,
		AssessmentStatusReassessmentRequired,
	}
}

// IsValid checks if the assessment status is valid
func (s AssessmentStatus) IsValid() bool {
	switch s {
	case AssessmentStatusDraft,
		AssessmentStatusFinalized,
		AssessmentStatusReassessmentRequired:
		return true
	default:
		return false
	}
}

// IsLocked reports whether scoring and materiality edits are blocked in this status
func (s AssessmentStatus) IsLocked() bool {
	return s == AssessmentStatusFinalized
}

// Normalize returns the status, treating empty as AssessmentStatusDraft
func (s AssessmentStatus) Normalize() AssessmentStatus {
	if s == "" {
		return AssessmentStatusDraft
	}
	return s
}

// String returns the string representation of the assessment status
func (s AssessmentStatus) String() string {
	return string(s)
}

// ParseAssessmentStatus parses a string into an AssessmentStatus
func ParseAssessmentStatus(s string) (AssessmentStatus, error) {
	status := AssessmentStatus(s)
	if !status.IsValid() {
		return "", goerr.New("invalid assessment status", goerr.V("status", s))
	}
	return status, nil
}
