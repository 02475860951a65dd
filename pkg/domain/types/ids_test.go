package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/materiality/pkg/domain/types"
)

func TestIndustryCode_Validate(t *testing.T) {
	tests := []struct {
		name    string
		code    types.IndustryCode
		wantErr bool
	}{
		{"valid", "TC-SI", false},
		{"valid single segment", "BANKS", false},
		{"empty", "", true},
		{"lowercase", "tc-si", true},
		{"spaces", "TC SI", true},
		{"trailing hyphen", "TC-", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.code.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("IndustryCode.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTopicID_Validate(t *testing.T) {
	tests := []struct {
		name    string
		id      types.TopicID
		wantErr bool
	}{
		{"valid", "TC-SI-001", false},
		{"empty", "", true},
		{"double hyphen", "TC--001", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.id.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("TopicID.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewAssessmentID(t *testing.T) {
	a := types.NewAssessmentID()
	b := types.NewAssessmentID()
	gt.S(t, a.String()).NotEqual("")
	gt.V(t, a).NotEqual(b)
}
