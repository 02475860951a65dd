package model

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/materiality/pkg/domain/types"
)

// Scores holds the categorical score of each dimension
type Scores struct {
	Magnitude  types.ScoreLevel `json:"magnitude"`
	Likelihood types.ScoreLevel `json:"likelihood"`
	Horizon    types.ScoreLevel `json:"horizon"`
}

// RawScores keeps the numeric inputs a bucket was classified from, if any
type RawScores struct {
	Magnitude    *float64 `json:"magnitude,omitempty"`
	Likelihood   *float64 `json:"likelihood,omitempty"`
	HorizonYears *float64 `json:"horizonYears,omitempty"`
}

// IfrsBridge ties a material topic to the financial statements
type IfrsBridge struct {
	StatementLink types.FinancialStatement `json:"statementLink,omitempty"`
	FSLI          string                   `json:"fsli,omitempty"`
	EffectType    types.EffectType         `json:"effectType,omitempty"`
}

// AssessmentRecord is the assessment state of one topic. Fields of both
// branches are retained regardless of IsMaterial so a user can toggle back
// and forth; only the active branch is validated.
type AssessmentRecord struct {
	TopicID         types.TopicID           `json:"topicId"`
	IsMaterial      *bool                   `json:"isMaterial"`
	OmissionReason  types.OmissionReason    `json:"omissionReason,omitempty"`
	Justification   string                  `json:"justification,omitempty"`
	RiskDescription string                  `json:"riskDescription,omitempty"`
	ValueChain      []types.ValueChainStage `json:"valueChain"`
	Scores          Scores                  `json:"scores"`
	RawScores       RawScores               `json:"rawScores"`
	IfrsBridge      IfrsBridge              `json:"ifrsBridge"`
	LastUpdated     time.Time               `json:"lastUpdated"`
}

// NewAssessmentRecord returns the default record of a topic that has not been touched yet
func NewAssessmentRecord(topicID types.TopicID) *AssessmentRecord {
	return &AssessmentRecord{
		TopicID:    topicID,
		ValueChain: []types.ValueChainStage{},
		Scores: Scores{
			Magnitude:  types.ScoreLevelLow,
			Likelihood: types.ScoreLevelLow,
			Horizon:    types.ScoreLevelLow,
		},
	}
}

// Material reports whether the record is explicitly marked material
func (r *AssessmentRecord) Material() bool {
	return r != nil && r.IsMaterial != nil && *r.IsMaterial
}

// Omitted reports whether the record is explicitly marked not material
func (r *AssessmentRecord) Omitted() bool {
	return r != nil && r.IsMaterial != nil && !*r.IsMaterial
}

// SetMateriality sets the materiality decision without touching either branch's fields
func (r *AssessmentRecord) SetMateriality(material bool, now time.Time) {
	r.IsMaterial = &material
	r.LastUpdated = now
}

// ValidationIssue describes why a record is not complete. Issues are reportable, not fatal.
type ValidationIssue struct {
	TopicID types.TopicID `json:"topicId"`
	Field   string        `json:"field"`
	Message string        `json:"message"`
}

// Issues lists what is missing before the record is complete
func (r *AssessmentRecord) Issues() []ValidationIssue {
	issue := func(field, msg string) ValidationIssue {
		return ValidationIssue{TopicID: r.TopicID, Field: field, Message: msg}
	}

	switch {
	case r.IsMaterial == nil:
		return []ValidationIssue{issue("isMaterial", "materiality has not been decided")}

	case !*r.IsMaterial:
		var issues []ValidationIssue
		if r.OmissionReason == "" {
			issues = append(issues, issue("omissionReason", "omission reason is required"))
		}
		if strings.TrimSpace(r.Justification) == "" {
			issues = append(issues, issue("justification", "justification is required"))
		}
		return issues

	default:
		var issues []ValidationIssue
		if len(r.ValueChain) == 0 {
			issues = append(issues, issue("valueChain", "at least one value chain stage is required"))
		}
		if r.IfrsBridge.StatementLink == "" {
			issues = append(issues, issue("ifrsBridge.statementLink", "financial statement link is required"))
		}
		return issues
	}
}

// IsComplete is derived on every call and never stored
func (r *AssessmentRecord) IsComplete() bool {
	return len(r.Issues()) == 0
}

// Clone returns a deep copy of the record
func (r *AssessmentRecord) Clone() *AssessmentRecord {
	if r == nil {
		return nil
	}
	c := *r
	if r.IsMaterial != nil {
		v := *r.IsMaterial
		c.IsMaterial = &v
	}
	c.ValueChain = slices.Clone(r.ValueChain)
	if c.ValueChain == nil {
		c.ValueChain = []types.ValueChainStage{}
	}
	c.RawScores = RawScores{
		Magnitude:    clonePtr(r.RawScores.Magnitude),
		Likelihood:   clonePtr(r.RawScores.Likelihood),
		HorizonYears: clonePtr(r.RawScores.HorizonYears),
	}
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ScoreInput sets one score either directly by bucket or by a raw value
// classified against the current thresholds. Exactly one must be set.
type ScoreInput struct {
	Level *types.ScoreLevel `json:"level,omitempty"`
	Value *float64          `json:"value,omitempty"`
}

// ScoresPatch updates individual score dimensions
type ScoresPatch struct {
	Magnitude  *ScoreInput `json:"magnitude,omitempty"`
	Likelihood *ScoreInput `json:"likelihood,omitempty"`
	Horizon    *ScoreInput `json:"horizon,omitempty"`
}

// IfrsBridgePatch updates individual bridge fields. An empty string clears the field.
type IfrsBridgePatch struct {
	StatementLink *types.FinancialStatement `json:"statementLink,omitempty"`
	FSLI          *string                   `json:"fsli,omitempty"`
	EffectType    *types.EffectType         `json:"effectType,omitempty"`
}

// RecordPatch is a typed partial update of an AssessmentRecord. Nil fields are left unchanged.
type RecordPatch struct {
	IsMaterial      *bool                    `json:"isMaterial,omitempty"`
	OmissionReason  *types.OmissionReason    `json:"omissionReason,omitempty"`
	Justification   *string                  `json:"justification,omitempty"`
	RiskDescription *string                  `json:"riskDescription,omitempty"`
	ValueChain      *[]types.ValueChainStage `json:"valueChain,omitempty"`
	Scores          *ScoresPatch             `json:"scores,omitempty"`
	IfrsBridge      *IfrsBridgePatch         `json:"ifrsBridge,omitempty"`
}

// Validate checks every field of the patch against cfg without applying it
func (p RecordPatch) Validate(cfg ThresholdConfiguration) error {
	if p.OmissionReason != nil && *p.OmissionReason != "" && !p.OmissionReason.IsValid() {
		return goerr.Wrap(ErrInvalidPatch, "invalid omission reason", goerr.V(FieldKey, "omissionReason"), goerr.V(ValueKey, *p.OmissionReason))
	}

	if p.ValueChain != nil {
		for _, stage := range *p.ValueChain {
			if !stage.IsValid() {
				return goerr.Wrap(ErrInvalidPatch, "invalid value chain stage", goerr.V(FieldKey, "valueChain"), goerr.V(ValueKey, stage))
			}
		}
	}

	if p.Scores != nil {
		if err := p.Scores.Magnitude.validate("scores.magnitude", 0, cfg.Magnitude.Cap); err != nil {
			return err
		}
		hundred := 100.0
		if err := p.Scores.Likelihood.validate("scores.likelihood", 0, &hundred); err != nil {
			return err
		}
		var maxYears *float64
		if cfg.Horizons.LongTermMaxYears != nil {
			v := float64(*cfg.Horizons.LongTermMaxYears)
			maxYears = &v
		}
		if err := p.Scores.Horizon.validate("scores.horizon", 0, maxYears); err != nil {
			return err
		}
	}

	if b := p.IfrsBridge; b != nil {
		if b.StatementLink != nil && *b.StatementLink != "" && !b.StatementLink.IsValid() {
			return goerr.Wrap(ErrInvalidPatch, "invalid financial statement", goerr.V(FieldKey, "ifrsBridge.statementLink"), goerr.V(ValueKey, *b.StatementLink))
		}
		if b.EffectType != nil && *b.EffectType != "" && !b.EffectType.IsValid() {
			return goerr.Wrap(ErrInvalidPatch, "invalid effect type", goerr.V(FieldKey, "ifrsBridge.effectType"), goerr.V(ValueKey, *b.EffectType))
		}
	}

	return nil
}

func (s *ScoreInput) validate(field string, minValue float64, maxValue *float64) error {
	if s == nil {
		return nil
	}
	if (s.Level == nil) == (s.Value == nil) {
		return goerr.Wrap(ErrInvalidPatch, "exactly one of level or value must be set", goerr.V(FieldKey, field))
	}
	if s.Level != nil && !s.Level.IsValid() {
		return goerr.Wrap(ErrInvalidPatch, "invalid score level", goerr.V(FieldKey, field), goerr.V(ValueKey, *s.Level))
	}
	if s.Value != nil {
		v := *s.Value
		if math.IsNaN(v) || math.IsInf(v, 0) || v < minValue {
			return goerr.Wrap(ErrInvalidPatch, "score value out of range", goerr.V(FieldKey, field), goerr.V(ValueKey, v))
		}
		if maxValue != nil && v > *maxValue {
			return goerr.Wrap(ErrInvalidPatch, "score value exceeds configured maximum",
				goerr.V(FieldKey, field), goerr.V(ValueKey, v), goerr.V("max", *maxValue))
		}
	}
	return nil
}

// Apply validates p and merges it into the record, stamping LastUpdated.
// Nothing is changed if validation fails.
func (r *AssessmentRecord) Apply(p RecordPatch, cfg ThresholdConfiguration, now time.Time) error {
	if err := p.Validate(cfg); err != nil {
		return err
	}

	if p.IsMaterial != nil {
		v := *p.IsMaterial
		r.IsMaterial = &v
	}
	if p.OmissionReason != nil {
		r.OmissionReason = *p.OmissionReason
	}
	if p.Justification != nil {
		r.Justification = *p.Justification
	}
	if p.RiskDescription != nil {
		r.RiskDescription = *p.RiskDescription
	}
	if p.ValueChain != nil {
		r.ValueChain = normalizeValueChain(*p.ValueChain)
	}

	if s := p.Scores; s != nil {
		applyScore(s.Magnitude, &r.Scores.Magnitude, &r.RawScores.Magnitude, cfg.ClassifyMagnitude)
		applyScore(s.Likelihood, &r.Scores.Likelihood, &r.RawScores.Likelihood, cfg.ClassifyLikelihood)
		applyScore(s.Horizon, &r.Scores.Horizon, &r.RawScores.HorizonYears, cfg.ClassifyHorizon)
	}

	if b := p.IfrsBridge; b != nil {
		if b.StatementLink != nil {
			r.IfrsBridge.StatementLink = *b.StatementLink
		}
		if b.FSLI != nil {
			r.IfrsBridge.FSLI = *b.FSLI
		}
		if b.EffectType != nil {
			r.IfrsBridge.EffectType = *b.EffectType
		}
	}

	r.LastUpdated = now
	return nil
}

func applyScore(in *ScoreInput, level *types.ScoreLevel, raw **float64, classify func(float64) types.ScoreLevel) {
	if in == nil {
		return
	}
	if in.Value != nil {
		v := *in.Value
		*level = classify(v)
		*raw = &v
		return
	}
	*level = *in.Level
	*raw = nil
}

// normalizeValueChain keeps set semantics: duplicates are dropped, process order is kept
func normalizeValueChain(stages []types.ValueChainStage) []types.ValueChainStage {
	out := make([]types.ValueChainStage, 0, len(stages))
	for _, stage := range types.AllValueChainStages() {
		if slices.Contains(stages, stage) {
			out = append(out, stage)
		}
	}
	return out
}
