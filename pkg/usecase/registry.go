package usecase

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/materiality/pkg/domain/interfaces"
	"github.com/secmon-lab/materiality/pkg/domain/model"
	"github.com/secmon-lab/materiality/pkg/domain/types"
	"github.com/secmon-lab/materiality/pkg/utils/logging"
)

// RegistryUseCase manages versioned saved assessments and their status lifecycle
type RegistryUseCase struct {
	repo    interfaces.Repository
	catalog *model.Catalog
	now     func() time.Time

	// serializes read-modify-write of saved assessments
	mu sync.Mutex
}

func NewRegistryUseCase(repo interfaces.Repository, catalog *model.Catalog, now func() time.Time) *RegistryUseCase {
	return &RegistryUseCase{
		repo:    repo,
		catalog: catalog,
		now:     now,
	}
}

// CreateDraft stores the snapshot as a new Draft at version 1
func (uc *RegistryUseCase) CreateDraft(ctx context.Context, snap model.Snapshot) (*model.SavedAssessment, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	return uc.create(ctx, snap, types.AssessmentStatusDraft)
}

func (uc *RegistryUseCase) create(ctx context.Context, snap model.Snapshot, status types.AssessmentStatus) (*model.SavedAssessment, error) {
	if err := snap.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid snapshot")
	}

	a := model.NewSavedAssessment(types.NewAssessmentID(), snap, status, uc.now().UTC())
	if err := uc.repo.Assessment().Put(ctx, a); err != nil {
		return nil, goerr.Wrap(err, "failed to store assessment", goerr.V(AssessmentIDKey, a.ID))
	}

	logging.From(ctx).Info("assessment created",
		"assessment_id", a.ID,
		"status", a.Status,
		"name", a.AssessmentName,
	)
	return a, nil
}

// Save stores the snapshot as Draft. An empty id creates a new assessment;
// an unknown id is NotFound. The version is preserved.
func (uc *RegistryUseCase) Save(ctx context.Context, id types.AssessmentID, snap model.Snapshot) (*model.SavedAssessment, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if id == "" {
		return uc.create(ctx, snap, types.AssessmentStatusDraft)
	}
	return uc.overwrite(ctx, id, snap, types.AssessmentStatusDraft)
}

// Finalize stores the snapshot as Finalized and reports records that are not complete.
// Incomplete records do not block finalization.
func (uc *RegistryUseCase) Finalize(ctx context.Context, id types.AssessmentID, snap model.Snapshot) (*model.SavedAssessment, []model.ValidationIssue, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	var (
		a   *model.SavedAssessment
		err error
	)
	if id == "" {
		a, err = uc.create(ctx, snap, types.AssessmentStatusFinalized)
	} else {
		a, err = uc.overwrite(ctx, id, snap, types.AssessmentStatusFinalized)
	}
	if err != nil {
		return nil, nil, err
	}

	issues := uc.Issues(a.Data)
	if len(issues) > 0 {
		logging.From(ctx).Warn("assessment finalized with incomplete records",
			"assessment_id", a.ID,
			"issues", len(issues),
		)
	}
	return a, issues, nil
}

func (uc *RegistryUseCase) overwrite(ctx context.Context, id types.AssessmentID, snap model.Snapshot, status types.AssessmentStatus) (*model.SavedAssessment, error) {
	if err := snap.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid snapshot", goerr.V(AssessmentIDKey, id))
	}

	a, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}

	prev := a.Status
	if err := a.Overwrite(snap, status, uc.now().UTC()); err != nil {
		return nil, err
	}

	if err := uc.repo.Assessment().Put(ctx, a); err != nil {
		return nil, goerr.Wrap(err, "failed to store assessment", goerr.V(AssessmentIDKey, id))
	}

	logging.From(ctx).Info("assessment saved",
		"assessment_id", a.ID,
		"from", prev,
		"to", a.Status,
		"version", a.Version,
	)
	return a, nil
}

// RequestReassessment reopens a Finalized assessment with a reason and bumps its version
func (uc *RegistryUseCase) RequestReassessment(ctx context.Context, id types.AssessmentID, reason string) (*model.SavedAssessment, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	a, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := a.RequestReassessment(reason, uc.now().UTC()); err != nil {
		return nil, err
	}

	if err := uc.repo.Assessment().Put(ctx, a); err != nil {
		return nil, goerr.Wrap(err, "failed to store assessment", goerr.V(AssessmentIDKey, id))
	}

	logging.From(ctx).Info("re-assessment requested",
		"assessment_id", a.ID,
		"version", a.Version,
		"reason", a.ReAssessmentReason,
	)
	return a, nil
}

// Get returns a saved assessment
func (uc *RegistryUseCase) Get(ctx context.Context, id types.AssessmentID) (*model.SavedAssessment, error) {
	return uc.get(ctx, id)
}

func (uc *RegistryUseCase) get(ctx context.Context, id types.AssessmentID) (*model.SavedAssessment, error) {
	a, err := uc.repo.Assessment().Get(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, goerr.Wrap(ErrAssessmentNotFound, "assessment not found", goerr.V(AssessmentIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get assessment", goerr.V(AssessmentIDKey, id))
	}
	return a, nil
}

// List returns all saved assessments, most recently modified first
func (uc *RegistryUseCase) List(ctx context.Context) ([]*model.SavedAssessment, error) {
	list, err := uc.repo.Assessment().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list assessments")
	}

	slices.SortFunc(list, model.CompareRecency)
	return list, nil
}

// ListByStatus returns saved assessments with the given status, most recently modified first
func (uc *RegistryUseCase) ListByStatus(ctx context.Context, status types.AssessmentStatus) ([]*model.SavedAssessment, error) {
	list, err := uc.repo.Assessment().ListByStatus(ctx, status)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list assessments", goerr.V(model.StatusKey, status))
	}

	slices.SortFunc(list, model.CompareRecency)
	return list, nil
}

// Issues lists what is missing in the topics in scope of data. Topics without a record are undecided.
func (uc *RegistryUseCase) Issues(data model.AssessmentData) []model.ValidationIssue {
	var issues []model.ValidationIssue
	for _, topic := range uc.catalog.Scope(data.IndustryCodes()...) {
		rec := data.Assessments[topic.ID]
		if rec == nil {
			rec = model.NewAssessmentRecord(topic.ID)
		}
		issues = append(issues, rec.Issues()...)
	}
	return issues
}

// ConsistencyIssue reports saved data that no longer matches the catalog or the configuration invariants
type ConsistencyIssue struct {
	AssessmentID types.AssessmentID `json:"assessmentId"`
	Message      string             `json:"message"`
	Value        string             `json:"value,omitempty"`
}

// CheckConsistency verifies every saved assessment against the current catalog.
// It reports industries and records whose reference data was removed and
// threshold configurations that violate their ordering invariants.
func (uc *RegistryUseCase) CheckConsistency(ctx context.Context) ([]ConsistencyIssue, error) {
	list, err := uc.repo.Assessment().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list assessments")
	}

	var issues []ConsistencyIssue
	for _, a := range list {
		for _, code := range a.Data.IndustryCodes() {
			if _, ok := uc.catalog.Industry(code); !ok {
				issues = append(issues, ConsistencyIssue{AssessmentID: a.ID, Message: "unknown industry", Value: code.String()})
			}
		}

		ids := make([]types.TopicID, 0, len(a.Data.Assessments))
		for id := range a.Data.Assessments {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		for _, id := range ids {
			if _, ok := uc.catalog.Topic(id); !ok {
				issues = append(issues, ConsistencyIssue{AssessmentID: a.ID, Message: "record of unknown topic", Value: id.String()})
			}
		}

		if err := a.Data.Config.Validate(); err != nil {
			issues = append(issues, ConsistencyIssue{AssessmentID: a.ID, Message: "invalid threshold configuration", Value: err.Error()})
		}
	}

	logging.From(ctx).Debug("consistency check finished", "assessments", len(list), "issues", len(issues))
	return issues, nil
}
