package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/materiality/pkg/domain/model"
	"github.com/secmon-lab/materiality/pkg/domain/types"
)

func newSnapshot(name string) model.Snapshot {
	primary := model.DefaultIndustries()[0]
	return model.Snapshot{
		AssessmentName: name,
		ReportingYear:  "2025",
		Data: model.AssessmentData{
			PrimaryIndustry: &primary,
			Config:          model.DefaultThresholdConfiguration(),
			Assessments: map[types.TopicID]*model.AssessmentRecord{
				"TC-SI-001": model.NewAssessmentRecord("TC-SI-001"),
			},
		},
	}
}

func TestSavedAssessment_Lifecycle(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a := model.NewSavedAssessment("a-1", newSnapshot("Acme FY2025"), types.AssessmentStatusDraft, now)

	gt.V(t, a.Version).Equal(1)
	gt.V(t, a.Status).Equal(types.AssessmentStatusDraft)
	gt.B(t, a.IsLocked()).False()

	// re-assessment from Draft is rejected and version stays
	err := a.RequestReassessment("new regulation", now)
	gt.B(t, errors.Is(err, model.ErrInvalidTransition)).True()
	gt.V(t, a.Version).Equal(1)

	gt.NoError(t, a.Overwrite(newSnapshot("Acme FY2025"), types.AssessmentStatusFinalized, now))
	gt.V(t, a.Status).Equal(types.AssessmentStatusFinalized)
	gt.V(t, a.Version).Equal(1)
	gt.B(t, a.IsLocked()).True()

	err = a.Overwrite(newSnapshot("edited"), types.AssessmentStatusDraft, now)
	gt.B(t, errors.Is(err, model.ErrAssessmentLocked)).True()
	gt.S(t, a.AssessmentName).Equal("Acme FY2025")

	err = a.RequestReassessment("   ", now)
	gt.B(t, errors.Is(err, model.ErrReasonRequired)).True()
	gt.V(t, a.Status).Equal(types.AssessmentStatusFinalized)

	gt.NoError(t, a.RequestReassessment("new regulation", now))
	gt.V(t, a.Version).Equal(2)
	gt.V(t, a.Status).Equal(types.AssessmentStatusReassessmentRequired)
	gt.S(t, a.ReAssessmentReason).Equal("new regulation")

	gt.NoError(t, a.Overwrite(newSnapshot("Acme FY2025 v2"), types.AssessmentStatusDraft, now))
	gt.V(t, a.Status).Equal(types.AssessmentStatusDraft)
	gt.V(t, a.Version).Equal(2)
}

func TestSavedAssessment_NameFallback(t *testing.T) {
	a := model.NewSavedAssessment("a-1", newSnapshot("  "), types.AssessmentStatusDraft, time.Now())
	gt.S(t, a.AssessmentName).Equal(model.UntitledAssessmentName)
}

func TestSavedAssessment_SnapshotIsolation(t *testing.T) {
	snap := newSnapshot("Acme")
	a := model.NewSavedAssessment("a-1", snap, types.AssessmentStatusDraft, time.Now())

	snap.Data.Assessments["TC-SI-001"].RiskDescription = "mutated after save"
	gt.S(t, a.Data.Assessments["TC-SI-001"].RiskDescription).Equal("")

	out := a.Snapshot()
	out.Data.Assessments["TC-SI-001"].Justification = "mutated copy"
	gt.S(t, a.Data.Assessments["TC-SI-001"].Justification).Equal("")
}

func TestSnapshot_Validate(t *testing.T) {
	snap := newSnapshot("Acme")
	gt.NoError(t, snap.Validate())

	snap.Timeline = &model.Timeline{
		Start: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	gt.Error(t, snap.Validate())

	snap = newSnapshot("Acme")
	snap.Data.Config.Likelihood.LowMax = 90
	gt.B(t, errors.Is(snap.Validate(), model.ErrInvalidConfiguration)).True()
}

func TestAssessmentData_IndustryCodes(t *testing.T) {
	gt.A(t, model.AssessmentData{}.IndustryCodes()).Length(0)

	primary := model.Industry{Code: "TC-SI"}
	d := model.AssessmentData{
		PrimaryIndustry:     &primary,
		SecondaryIndustries: []model.Industry{{Code: "CG-AA"}},
	}
	codes := d.IndustryCodes()
	gt.A(t, codes).Length(2)
	gt.V(t, codes[0]).Equal(types.IndustryCode("TC-SI"))
}

func TestCompareRecency(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	a := &model.SavedAssessment{ID: "a", LastModified: t0}
	b := &model.SavedAssessment{ID: "b", LastModified: t0}
	c := &model.SavedAssessment{ID: "c", LastModified: t0.Add(time.Minute)}

	gt.N(t, model.CompareRecency(c, a)).Less(0)
	gt.N(t, model.CompareRecency(a, b)).Less(0)
	gt.N(t, model.CompareRecency(b, a)).Greater(0)
	gt.N(t, model.CompareRecency(a, a)).Equal(0)
}
