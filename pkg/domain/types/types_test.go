package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/materiality/pkg/domain/types"
)

func TestParseOmissionReason(t *testing.T) {
	for _, r := range types.AllOmissionReasons() {
		got, err := types.ParseOmissionReason(r.String())
		gt.NoError(t, err)
		gt.V(t, got).Equal(r)
	}

	_, err := types.ParseOmissionReason("Too expensive")
	gt.Error(t, err)
	_, err = types.ParseOmissionReason("")
	gt.Error(t, err)
}

func TestParseValueChainStage(t *testing.T) {
	stages := types.AllValueChainStages()
	gt.A(t, stages).Equal([]types.ValueChainStage{
		types.ValueChainUpstream,
		types.ValueChainDirectOps,
		types.ValueChainDownstream,
	})

	got, err := types.ParseValueChainStage("Direct Operations")
	gt.NoError(t, err)
	gt.V(t, got).Equal(types.ValueChainDirectOps)

	_, err = types.ParseValueChainStage("direct operations")
	gt.Error(t, err)
}

func TestIfrsEnums(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
		check func() bool
	}{
		{"balance sheet", true, func() bool { return types.FinancialStatementBalanceSheet.IsValid() }},
		{"cash flow", true, func() bool { return types.FinancialStatement("Cash Flow").IsValid() }},
		{"unknown statement", false, func() bool { return types.FinancialStatement("Equity").IsValid() }},
		{"current effect", true, func() bool { return types.EffectTypeCurrent.IsValid() }},
		{"unknown effect", false, func() bool { return types.EffectType("Potential").IsValid() }},
		{"relative magnitude", true, func() bool { return types.MagnitudeTypeRelative.IsValid() }},
		{"lowercase magnitude", false, func() bool { return types.MagnitudeType("relative").IsValid() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.V(t, tt.check()).Equal(tt.valid)
		})
	}

	gt.A(t, types.AllFinancialStatements()).Length(3)

	_, err := types.ParseFinancialStatement("Profit & Loss")
	gt.NoError(t, err)
	_, err = types.ParseEffectType("Anticipated")
	gt.NoError(t, err)
	_, err = types.ParseMagnitudeType("ABSOLUTE")
	gt.NoError(t, err)
	_, err = types.ParseMagnitudeType("PERCENT")
	gt.Error(t, err)
}
