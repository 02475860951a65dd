package memory

import (
	"github.com/secmon-lab/materiality/pkg/domain/interfaces"
	"github.com/secmon-lab/materiality/pkg/domain/model"
)

// ErrNotFound is returned when the requested entity does not exist
var ErrNotFound = model.ErrNotFound

// Repository is an alias for Memory to match the pattern
type Repository = Memory

type Memory struct {
	assessment *assessmentRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		assessment: newAssessmentRepository(),
	}
}

func (m *Memory) Assessment() interfaces.AssessmentRepository {
	return m.assessment
}

func (m *Memory) Close() error {
	return nil
}
