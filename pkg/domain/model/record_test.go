package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/materiality/pkg/domain/model"
	"github.com/secmon-lab/materiality/pkg/domain/types"
)

func ptr[T any](v T) *T {
	return &v
}

func TestAssessmentRecord_Defaults(t *testing.T) {
	rec := model.NewAssessmentRecord("TC-SI-001")

	gt.Value(t, rec.IsMaterial).Nil()
	gt.A(t, rec.ValueChain).Length(0)
	gt.V(t, rec.Scores.Magnitude).Equal(types.ScoreLevelLow)
	gt.V(t, rec.Scores.Likelihood).Equal(types.ScoreLevelLow)
	gt.V(t, rec.Scores.Horizon).Equal(types.ScoreLevelLow)
	gt.B(t, rec.IsComplete()).False()
	gt.A(t, rec.Issues()).Length(1)
}

func TestAssessmentRecord_IsComplete(t *testing.T) {
	now := time.Now()
	cfg := model.DefaultThresholdConfiguration()

	t.Run("omitted branch requires reason and justification", func(t *testing.T) {
		rec := model.NewAssessmentRecord("TC-SI-001")
		rec.SetMateriality(false, now)
		gt.B(t, rec.IsComplete()).False()
		gt.A(t, rec.Issues()).Length(2)

		gt.NoError(t, rec.Apply(model.RecordPatch{OmissionReason: ptr(types.OmissionReasonNotApplicable)}, cfg, now))
		gt.B(t, rec.IsComplete()).False()

		gt.NoError(t, rec.Apply(model.RecordPatch{Justification: ptr("   ")}, cfg, now))
		gt.B(t, rec.IsComplete()).False()

		gt.NoError(t, rec.Apply(model.RecordPatch{Justification: ptr("No data centers operated")}, cfg, now))
		gt.B(t, rec.IsComplete()).True()
	})

	t.Run("material branch requires value chain and statement link", func(t *testing.T) {
		rec := model.NewAssessmentRecord("TC-SI-002")
		rec.SetMateriality(true, now)
		gt.B(t, rec.IsComplete()).False()

		gt.NoError(t, rec.Apply(model.RecordPatch{
			ValueChain: ptr([]types.ValueChainStage{types.ValueChainDownstream}),
		}, cfg, now))
		gt.B(t, rec.IsComplete()).False()

		gt.NoError(t, rec.Apply(model.RecordPatch{
			IfrsBridge: &model.IfrsBridgePatch{StatementLink: ptr(types.FinancialStatementProfitLoss)},
		}, cfg, now))
		gt.B(t, rec.IsComplete()).True()
	})

	t.Run("toggling retains both branches", func(t *testing.T) {
		rec := model.NewAssessmentRecord("TC-SI-003")
		rec.SetMateriality(false, now)
		gt.NoError(t, rec.Apply(model.RecordPatch{
			OmissionReason: ptr(types.OmissionReasonImmaterial),
			Justification:  ptr("Below threshold"),
		}, cfg, now))
		omittedComplete := rec.IsComplete()

		rec.SetMateriality(true, now)
		gt.B(t, rec.IsComplete()).False()
		gt.V(t, rec.OmissionReason).Equal(types.OmissionReasonImmaterial)

		rec.SetMateriality(false, now)
		gt.V(t, rec.IsComplete()).Equal(omittedComplete)
		gt.B(t, rec.IsComplete()).True()
	})
}

func TestAssessmentRecord_Apply(t *testing.T) {
	cfg := model.DefaultThresholdConfiguration()

	t.Run("stamps last updated", func(t *testing.T) {
		rec := model.NewAssessmentRecord("TC-SI-001")
		now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
		gt.NoError(t, rec.Apply(model.RecordPatch{RiskDescription: ptr("risk")}, cfg, now))
		gt.V(t, rec.LastUpdated).Equal(now)
		gt.S(t, rec.RiskDescription).Equal("risk")
	})

	t.Run("raw value is classified and kept", func(t *testing.T) {
		rec := model.NewAssessmentRecord("TC-SI-001")
		gt.NoError(t, rec.Apply(model.RecordPatch{
			Scores: &model.ScoresPatch{
				Magnitude:  &model.ScoreInput{Value: ptr(3.0)},
				Likelihood: &model.ScoreInput{Value: ptr(75.0)},
				Horizon:    &model.ScoreInput{Level: ptr(types.ScoreLevelMedium)},
			},
		}, cfg, time.Now()))

		gt.V(t, rec.Scores.Magnitude).Equal(types.ScoreLevelMedium)
		gt.V(t, rec.Scores.Likelihood).Equal(types.ScoreLevelHigh)
		gt.V(t, rec.Scores.Horizon).Equal(types.ScoreLevelMedium)
		gt.V(t, *rec.RawScores.Magnitude).Equal(3.0)
		gt.Value(t, rec.RawScores.HorizonYears).Nil()

		gt.NoError(t, rec.Apply(model.RecordPatch{
			Scores: &model.ScoresPatch{Magnitude: &model.ScoreInput{Level: ptr(types.ScoreLevelHigh)}},
		}, cfg, time.Now()))
		gt.V(t, rec.Scores.Magnitude).Equal(types.ScoreLevelHigh)
		gt.Value(t, rec.RawScores.Magnitude).Nil()
	})

	t.Run("value chain keeps set semantics", func(t *testing.T) {
		rec := model.NewAssessmentRecord("TC-SI-001")
		gt.NoError(t, rec.Apply(model.RecordPatch{
			ValueChain: ptr([]types.ValueChainStage{types.ValueChainDownstream, types.ValueChainUpstream, types.ValueChainDownstream}),
		}, cfg, time.Now()))
		gt.A(t, rec.ValueChain).Length(2)
		gt.V(t, rec.ValueChain[0]).Equal(types.ValueChainUpstream)
		gt.V(t, rec.ValueChain[1]).Equal(types.ValueChainDownstream)
	})

	t.Run("invalid patch changes nothing", func(t *testing.T) {
		tests := []struct {
			name  string
			patch model.RecordPatch
		}{
			{
				name: "unknown omission reason",
				patch: model.RecordPatch{
					RiskDescription: ptr("should not be applied"),
					OmissionReason:  ptr(types.OmissionReason("Too hard")),
				},
			},
			{
				name:  "unknown value chain stage",
				patch: model.RecordPatch{ValueChain: ptr([]types.ValueChainStage{"Midstream"})},
			},
			{
				name:  "both level and value",
				patch: model.RecordPatch{Scores: &model.ScoresPatch{Magnitude: &model.ScoreInput{Level: ptr(types.ScoreLevelLow), Value: ptr(1.0)}}},
			},
			{
				name:  "neither level nor value",
				patch: model.RecordPatch{Scores: &model.ScoresPatch{Magnitude: &model.ScoreInput{}}},
			},
			{
				name:  "magnitude above cap",
				patch: model.RecordPatch{Scores: &model.ScoresPatch{Magnitude: &model.ScoreInput{Value: ptr(16.0)}}},
			},
			{
				name:  "negative likelihood",
				patch: model.RecordPatch{Scores: &model.ScoresPatch{Likelihood: &model.ScoreInput{Value: ptr(-1.0)}}},
			},
			{
				name:  "invalid level",
				patch: model.RecordPatch{Scores: &model.ScoresPatch{Horizon: &model.ScoreInput{Level: ptr(types.ScoreLevel("Critical"))}}},
			},
			{
				name:  "invalid statement",
				patch: model.RecordPatch{IfrsBridge: &model.IfrsBridgePatch{StatementLink: ptr(types.FinancialStatement("Notes"))}},
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec := model.NewAssessmentRecord("TC-SI-001")
				before := rec.Clone()

				err := rec.Apply(tt.patch, cfg, time.Now())
				gt.Error(t, err)
				gt.B(t, errors.Is(err, model.ErrInvalidPatch)).True()
				gt.V(t, rec).Equal(before)
			})
		}
	})

	t.Run("empty string clears optional enums", func(t *testing.T) {
		rec := model.NewAssessmentRecord("TC-SI-001")
		gt.NoError(t, rec.Apply(model.RecordPatch{
			IfrsBridge: &model.IfrsBridgePatch{StatementLink: ptr(types.FinancialStatementCashFlow), FSLI: ptr("Revenue")},
		}, cfg, time.Now()))
		gt.NoError(t, rec.Apply(model.RecordPatch{
			IfrsBridge: &model.IfrsBridgePatch{StatementLink: ptr(types.FinancialStatement(""))},
		}, cfg, time.Now()))
		gt.V(t, rec.IfrsBridge.StatementLink).Equal(types.FinancialStatement(""))
		gt.S(t, rec.IfrsBridge.FSLI).Equal("Revenue")
	})
}

func TestAssessmentRecord_Clone(t *testing.T) {
	rec := model.NewAssessmentRecord("TC-SI-001")
	rec.SetMateriality(true, time.Now())
	rec.ValueChain = []types.ValueChainStage{types.ValueChainUpstream}

	c := rec.Clone()
	*c.IsMaterial = false
	c.ValueChain[0] = types.ValueChainDownstream

	gt.B(t, *rec.IsMaterial).True()
	gt.V(t, rec.ValueChain[0]).Equal(types.ValueChainUpstream)
}
