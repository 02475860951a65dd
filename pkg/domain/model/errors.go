package model

import "github.com/m-mizutani/goerr/v2"

// Domain errors
var (
	// ErrInvalidConfiguration is returned when a threshold configuration violates its ordering invariants
	ErrInvalidConfiguration = goerr.New("invalid threshold configuration")
	// ErrInvalidCatalog is returned when reference data is inconsistent
	ErrInvalidCatalog = goerr.New("invalid catalog")
	// ErrInvalidPatch is returned when a record patch carries an invalid value
	ErrInvalidPatch = goerr.New("invalid record patch")
	// ErrInvalidTransition is returned when a status change is not allowed from the current status
	ErrInvalidTransition = goerr.New("invalid status transition")
	// ErrAssessmentLocked is returned when editing a finalized assessment
	ErrAssessmentLocked = goerr.New("assessment is finalized and locked")
	// ErrReasonRequired is returned when a re-assessment request has no reason
	ErrReasonRequired = goerr.New("re-assessment reason is required")
	// ErrNotFound is returned by repositories when the requested entity does not exist
	ErrNotFound = goerr.New("not found")
)

// Context keys for error values
const (
	TopicIDKey      = "topic_id"
	IndustryCodeKey = "industry_code"
	FieldKey        = "field"
	ValueKey        = "value"
	StatusKey       = "status"
	AssessmentIDKey = "assessment_id"
)
