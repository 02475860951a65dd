package usecase

import (
	"context"

	"github.com/secmon-lab/materiality/pkg/domain/types"
	"github.com/secmon-lab/materiality/pkg/service/report"
)

// ReportUseCase renders saved assessments
type ReportUseCase struct {
	registry *RegistryUseCase
	report   *report.Service
}

func NewReportUseCase(registry *RegistryUseCase, svc *report.Service) *ReportUseCase {
	return &ReportUseCase{registry: registry, report: svc}
}

// Render returns the report of a saved assessment and its file name
func (uc *ReportUseCase) Render(ctx context.Context, id types.AssessmentID, f report.Format) ([]byte, string, error) {
	a, err := uc.registry.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}

	body, err := uc.report.Render(ctx, a, f)
	if err != nil {
		return nil, "", err
	}
	return body, report.FileName(a, f), nil
}

// Upload renders the report and stores it, returning its location
func (uc *ReportUseCase) Upload(ctx context.Context, id types.AssessmentID, f report.Format) (string, error) {
	a, err := uc.registry.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return uc.report.Upload(ctx, a, f)
}
