package interfaces

import (
	"context"

	"github.com/secmon-lab/materiality/pkg/domain/model"
	"github.com/secmon-lab/materiality/pkg/domain/types"
)

type AssessmentRepository interface {
	// Get retrieves a saved assessment by ID
	Get(ctx context.Context, id types.AssessmentID) (*model.SavedAssessment, error)

	// List retrieves all saved assessments
	List(ctx context.Context) ([]*model.SavedAssessment, error)

	// ListByStatus retrieves saved assessments with the given status, most recently modified first
	ListByStatus(ctx context.Context, status types.AssessmentStatus) ([]*model.SavedAssessment, error)

	// Put stores the assessment, replacing any existing one with the same ID
	Put(ctx context.Context, assessment *model.SavedAssessment) error
}
