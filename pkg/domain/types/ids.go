package types

import (
	"regexp"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]+(-[A-Z0-9]+)*$`)

// IndustryCode identifies an industry, e.g. "TC-SI"
type IndustryCode string

// Validate checks if the IndustryCode is valid
func (c IndustryCode) Validate() error {
	if c == "" {
		return goerr.New("industry code cannot be empty")
	}
	if !codePattern.MatchString(string(c)) {
		return goerr.New("industry code must be uppercase alphanumeric with hyphens", goerr.V("code", c))
	}
	return nil
}

func (c IndustryCode) String() string {
	return string(c)
}

// TopicID identifies a disclosure topic, e.g. "TC-SI-001"
type TopicID string

// Validate checks if the TopicID is valid
func (t TopicID) Validate() error {
	if t == "" {
		return goerr.New("topic ID cannot be empty")
	}
	if !codePattern.MatchString(string(t)) {
		return goerr.New("topic ID must be uppercase alphanumeric with hyphens", goerr.V("id", t))
	}
	return nil
}

func (t TopicID) String() string {
	return string(t)
}

// AssessmentID identifies a saved assessment
type AssessmentID string

// NewAssessmentID allocates a new random AssessmentID
func NewAssessmentID() AssessmentID {
	return AssessmentID(uuid.New().String())
}

func (a AssessmentID) String() string {
	return string(a)
}

// SessionID identifies an open editing session
type SessionID string

// NewSessionID allocates a new random SessionID
func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

func (s SessionID) String() string {
	return string(s)
}
