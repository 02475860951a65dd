package firestore

import (
	"context"
	"slices"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/materiality/pkg/domain/model"
	"github.com/secmon-lab/materiality/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type assessmentDocument struct {
	ID                 string                    `firestore:"id"`
	AssessmentName     string                    `firestore:"assessment_name"`
	ReportingYear      string                    `firestore:"reporting_year"`
	Timeline           *timelineDocument         `firestore:"timeline,omitempty"`
	Version            int                       `firestore:"version"`
	Status             string                    `firestore:"status"`
	LastModified       time.Time                 `firestore:"last_modified"`
	ReAssessmentReason string                    `firestore:"reassessment_reason"`
	PrimaryIndustry    *industryDocument         `firestore:"primary_industry,omitempty"`
	SecondaryIndustry  []industryDocument        `firestore:"secondary_industries"`
	Config             configDocument            `firestore:"config"`
	Records            map[string]recordDocument `firestore:"records"`
}

type timelineDocument struct {
	Start time.Time `firestore:"start"`
	End   time.Time `firestore:"end"`
}

type industryDocument struct {
	Code   string `firestore:"code"`
	Name   string `firestore:"name"`
	Sector string `firestore:"sector"`
}

type configDocument struct {
	MagnitudeType        string   `firestore:"magnitude_type"`
	MagnitudeDenominator string   `firestore:"magnitude_denominator"`
	MagnitudeLowMax      float64  `firestore:"magnitude_low_max"`
	MagnitudeMediumMax   float64  `firestore:"magnitude_medium_max"`
	MagnitudeCap         *float64 `firestore:"magnitude_cap"`
	LikelihoodLowMax     float64  `firestore:"likelihood_low_max"`
	LikelihoodMediumMax  float64  `firestore:"likelihood_medium_max"`
	ShortTermYears       int      `firestore:"short_term_years"`
	MediumTermYears      int      `firestore:"medium_term_years"`
	LongTermMaxYears     *int     `firestore:"long_term_max_years"`
}

type recordDocument struct {
	IsMaterial      *bool     `firestore:"is_material"`
	OmissionReason  string    `firestore:"omission_reason"`
	Justification   string    `firestore:"justification"`
	RiskDescription string    `firestore:"risk_description"`
	ValueChain      []string  `firestore:"value_chain"`
	Magnitude       string    `firestore:"magnitude"`
	Likelihood      string    `firestore:"likelihood"`
	Horizon         string    `firestore:"horizon"`
	RawMagnitude    *float64  `firestore:"raw_magnitude"`
	RawLikelihood   *float64  `firestore:"raw_likelihood"`
	RawHorizonYears *float64  `firestore:"raw_horizon_years"`
	StatementLink   string    `firestore:"statement_link"`
	FSLI            string    `firestore:"fsli"`
	EffectType      string    `firestore:"effect_type"`
	LastUpdated     time.Time `firestore:"last_updated"`
}

type assessmentRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newAssessmentRepository(client *firestore.Client) *assessmentRepository {
	return &assessmentRepository{
		client:           client,
		collectionPrefix: "",
	}
}

// AssessmentsCollection returns the name of the collection holding saved assessments
func AssessmentsCollection(prefix string) string {
	if prefix != "" {
		return prefix + "_assessments"
	}
	return "assessments"
}

func (r *assessmentRepository) assessmentsCollection() string {
	return AssessmentsCollection(r.collectionPrefix)
}

func industryToDocument(ind model.Industry) industryDocument {
	return industryDocument{Code: string(ind.Code), Name: ind.Name, Sector: ind.Sector}
}

func industryToModel(doc industryDocument) model.Industry {
	return model.Industry{Code: types.IndustryCode(doc.Code), Name: doc.Name, Sector: doc.Sector}
}

func recordToDocument(rec *model.AssessmentRecord) recordDocument {
	doc := recordDocument{
		IsMaterial:      rec.IsMaterial,
		OmissionReason:  string(rec.OmissionReason),
		Justification:   rec.Justification,
		RiskDescription: rec.RiskDescription,
		ValueChain:      make([]string, 0, len(rec.ValueChain)),
		Magnitude:       string(rec.Scores.Magnitude),
		Likelihood:      string(rec.Scores.Likelihood),
		Horizon:         string(rec.Scores.Horizon),
		RawMagnitude:    rec.RawScores.Magnitude,
		RawLikelihood:   rec.RawScores.Likelihood,
		RawHorizonYears: rec.RawScores.HorizonYears,
		StatementLink:   string(rec.IfrsBridge.StatementLink),
		FSLI:            rec.IfrsBridge.FSLI,
		EffectType:      string(rec.IfrsBridge.EffectType),
		LastUpdated:     rec.LastUpdated,
	}
	for _, stage := range rec.ValueChain {
		doc.ValueChain = append(doc.ValueChain, string(stage))
	}
	return doc
}

func recordToModel(topicID string, doc recordDocument) *model.AssessmentRecord {
	rec := &model.AssessmentRecord{
		TopicID:         types.TopicID(topicID),
		IsMaterial:      doc.IsMaterial,
		OmissionReason:  types.OmissionReason(doc.OmissionReason),
		Justification:   doc.Justification,
		RiskDescription: doc.RiskDescription,
		ValueChain:      make([]types.ValueChainStage, 0, len(doc.ValueChain)),
		Scores: model.Scores{
			Magnitude:  types.ScoreLevel(doc.Magnitude),
			Likelihood: types.ScoreLevel(doc.Likelihood),
			Horizon:    types.ScoreLevel(doc.Horizon),
		},
		RawScores: model.RawScores{
			Magnitude:    doc.RawMagnitude,
			Likelihood:   doc.RawLikelihood,
			HorizonYears: doc.RawHorizonYears,
		},
		IfrsBridge: model.IfrsBridge{
			StatementLink: types.FinancialStatement(doc.StatementLink),
			FSLI:          doc.FSLI,
			EffectType:    types.EffectType(doc.EffectType),
		},
		LastUpdated: doc.LastUpdated,
	}
	for _, stage := range doc.ValueChain {
		rec.ValueChain = append(rec.ValueChain, types.ValueChainStage(stage))
	}
	return rec
}

func assessmentToDocument(a *model.SavedAssessment) *assessmentDocument {
	cfg := a.Data.Config
	doc := &assessmentDocument{
		ID:                 string(a.ID),
		AssessmentName:     a.AssessmentName,
		ReportingYear:      a.ReportingYear,
		Version:            a.Version,
		Status:             string(a.Status.Normalize()),
		LastModified:       a.LastModified,
		ReAssessmentReason: a.ReAssessmentReason,
		SecondaryIndustry:  make([]industryDocument, 0, len(a.Data.SecondaryIndustries)),
		Config: configDocument{
			MagnitudeType:        string(cfg.Magnitude.Type),
			MagnitudeDenominator: cfg.Magnitude.Denominator,
			MagnitudeLowMax:      cfg.Magnitude.Thresholds.LowMax,
			MagnitudeMediumMax:   cfg.Magnitude.Thresholds.MediumMax,
			MagnitudeCap:         cfg.Magnitude.Cap,
			LikelihoodLowMax:     cfg.Likelihood.LowMax,
			LikelihoodMediumMax:  cfg.Likelihood.MediumMax,
			ShortTermYears:       cfg.Horizons.ShortTermYears,
			MediumTermYears:      cfg.Horizons.MediumTermYears,
			LongTermMaxYears:     cfg.Horizons.LongTermMaxYears,
		},
		Records: make(map[string]recordDocument, len(a.Data.Assessments)),
	}

	if a.Timeline != nil {
		doc.Timeline = &timelineDocument{Start: a.Timeline.Start, End: a.Timeline.End}
	}
	if a.Data.PrimaryIndustry != nil {
		primary := industryToDocument(*a.Data.PrimaryIndustry)
		doc.PrimaryIndustry = &primary
	}
	for _, ind := range a.Data.SecondaryIndustries {
		doc.SecondaryIndustry = append(doc.SecondaryIndustry, industryToDocument(ind))
	}
	for id, rec := range a.Data.Assessments {
		if rec != nil {
			doc.Records[string(id)] = recordToDocument(rec)
		}
	}

	return doc
}

func assessmentToModel(doc *assessmentDocument) *model.SavedAssessment {
	a := &model.SavedAssessment{
		ID:                 types.AssessmentID(doc.ID),
		AssessmentName:     doc.AssessmentName,
		ReportingYear:      doc.ReportingYear,
		Version:            doc.Version,
		Status:             types.AssessmentStatus(doc.Status).Normalize(),
		LastModified:       doc.LastModified,
		ReAssessmentReason: doc.ReAssessmentReason,
		Data: model.AssessmentData{
			SecondaryIndustries: make([]model.Industry, 0, len(doc.SecondaryIndustry)),
			Config: model.ThresholdConfiguration{
				Magnitude: model.MagnitudeConfig{
					Type:        types.MagnitudeType(doc.Config.MagnitudeType),
					Denominator: doc.Config.MagnitudeDenominator,
					Thresholds: model.RangeThresholds{
						LowMax:    doc.Config.MagnitudeLowMax,
						MediumMax: doc.Config.MagnitudeMediumMax,
					},
					Cap: doc.Config.MagnitudeCap,
				},
				Likelihood: model.RangeThresholds{
					LowMax:    doc.Config.LikelihoodLowMax,
					MediumMax: doc.Config.LikelihoodMediumMax,
				},
				Horizons: model.HorizonConfig{
					ShortTermYears:   doc.Config.ShortTermYears,
					MediumTermYears:  doc.Config.MediumTermYears,
					LongTermMaxYears: doc.Config.LongTermMaxYears,
				},
			},
			Assessments: make(map[types.TopicID]*model.AssessmentRecord, len(doc.Records)),
		},
	}

	if doc.Timeline != nil {
		a.Timeline = &model.Timeline{Start: doc.Timeline.Start, End: doc.Timeline.End}
	}
	if doc.PrimaryIndustry != nil {
		primary := industryToModel(*doc.PrimaryIndustry)
		a.Data.PrimaryIndustry = &primary
	}
	for _, ind := range doc.SecondaryIndustry {
		a.Data.SecondaryIndustries = append(a.Data.SecondaryIndustries, industryToModel(ind))
	}
	for id, rec := range doc.Records {
		a.Data.Assessments[types.TopicID(id)] = recordToModel(id, rec)
	}

	return a
}

func (r *assessmentRepository) Get(ctx context.Context, id types.AssessmentID) (*model.SavedAssessment, error) {
	docRef := r.client.Collection(r.assessmentsCollection()).Doc(string(id))
	doc, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "assessment not found", goerr.V(model.AssessmentIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get assessment", goerr.V(model.AssessmentIDKey, id))
	}

	var aDoc assessmentDocument
	if err := doc.DataTo(&aDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal assessment", goerr.V(model.AssessmentIDKey, id))
	}

	return assessmentToModel(&aDoc), nil
}

func (r *assessmentRepository) List(ctx context.Context) ([]*model.SavedAssessment, error) {
	return r.collect(ctx, r.client.Collection(r.assessmentsCollection()).
		OrderBy(fieldLastModified, firestore.Desc))
}

// ListByStatus requires the composite index declared in IndexConfig
func (r *assessmentRepository) ListByStatus(ctx context.Context, status types.AssessmentStatus) ([]*model.SavedAssessment, error) {
	list, err := r.collect(ctx, r.client.Collection(r.assessmentsCollection()).
		Where(fieldStatus, "==", string(status.Normalize())).
		OrderBy(fieldLastModified, firestore.Desc))
	if err != nil {
		return nil, err
	}

	// Firestore breaks last_modified ties by descending document name
	slices.SortStableFunc(list, model.CompareRecency)
	return list, nil
}

func (r *assessmentRepository) collect(ctx context.Context, q firestore.Query) ([]*model.SavedAssessment, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var assessments []*model.SavedAssessment
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate assessments")
		}

		var aDoc assessmentDocument
		if err := doc.DataTo(&aDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal assessment", goerr.V(model.AssessmentIDKey, doc.Ref.ID))
		}

		assessments = append(assessments, assessmentToModel(&aDoc))
	}

	return assessments, nil
}

func (r *assessmentRepository) Put(ctx context.Context, assessment *model.SavedAssessment) error {
	if assessment == nil || assessment.ID == "" {
		return goerr.New("assessment ID is required")
	}

	docRef := r.client.Collection(r.assessmentsCollection()).Doc(string(assessment.ID))
	if _, err := docRef.Set(ctx, assessmentToDocument(assessment)); err != nil {
		return goerr.Wrap(err, "failed to put assessment", goerr.V(model.AssessmentIDKey, assessment.ID))
	}

	return nil
}
