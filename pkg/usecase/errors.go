package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// Not found errors
	ErrAssessmentNotFound = errors.New("assessment not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrIndustryNotFound   = errors.New("industry not found")

	// Scope errors
	ErrTopicNotInScope = errors.New("topic is not in the selected scope")
	ErrInvalidScope    = errors.New("invalid industry selection")

	// ErrNarrativeSuperseded means the risk description changed while a background narrative was pending
	ErrNarrativeSuperseded = errors.New("risk description was edited while the narrative was pending")
)

// Context keys for error values
const (
	AssessmentIDKey = "assessment_id"
	SessionIDKey    = "session_id"
	TopicIDKey      = "topic_id"
	IndustryKey     = "industry_code"
)
