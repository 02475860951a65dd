package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/materiality/pkg/domain/model"
	"github.com/secmon-lab/materiality/pkg/domain/types"
)

type assessmentRepository struct {
	mu          sync.RWMutex
	assessments map[types.AssessmentID]*model.SavedAssessment
}

func newAssessmentRepository() *assessmentRepository {
	return &assessmentRepository{
		assessments: make(map[types.AssessmentID]*model.SavedAssessment),
	}
}

func (r *assessmentRepository) Get(ctx context.Context, id types.AssessmentID) (*model.SavedAssessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, exists := r.assessments[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "assessment not found", goerr.V(model.AssessmentIDKey, id))
	}

	// Return a copy to prevent external modification
	return a.Clone(), nil
}

func (r *assessmentRepository) List(ctx context.Context) ([]*model.SavedAssessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	assessments := make([]*model.SavedAssessment, 0, len(r.assessments))
	for _, a := range r.assessments {
		assessments = append(assessments, a.Clone())
	}

	return assessments, nil
}

func (r *assessmentRepository) ListByStatus(ctx context.Context, status types.AssessmentStatus) ([]*model.SavedAssessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	assessments := make([]*model.SavedAssessment, 0)
	for _, a := range r.assessments {
		if a.Status.Normalize() == status.Normalize() {
			assessments = append(assessments, a.Clone())
		}
	}

	slices.SortFunc(assessments, model.CompareRecency)
	return assessments, nil
}

func (r *assessmentRepository) Put(ctx context.Context, assessment *model.SavedAssessment) error {
	if assessment == nil || assessment.ID == "" {
		return goerr.New("assessment ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.assessments[assessment.ID] = assessment.Clone()
	return nil
}
