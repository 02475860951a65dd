package model

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/materiality/pkg/domain/types"
)

const (
	// DefaultAssessmentName pre-populates the name of a new session
	DefaultAssessmentName = "[Company Name] Financial Materiality Assessment"
	// UntitledAssessmentName is stored when an assessment is saved without a name
	UntitledAssessmentName = "Untitled Assessment"
)

// Timeline is an optional reporting period replacing a single reporting year
type Timeline struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// AssessmentData is the body of a saved assessment
type AssessmentData struct {
	PrimaryIndustry     *Industry                           `json:"primaryIndustry"`
	SecondaryIndustries []Industry                          `json:"secondaryIndustries"`
	Config              ThresholdConfiguration              `json:"config"`
	Assessments         map[types.TopicID]*AssessmentRecord `json:"assessments"`
}

// IndustryCodes returns the primary code followed by secondary codes
func (d AssessmentData) IndustryCodes() []types.IndustryCode {
	if d.PrimaryIndustry == nil {
		return nil
	}
	codes := []types.IndustryCode{d.PrimaryIndustry.Code}
	for _, ind := range d.SecondaryIndustries {
		codes = append(codes, ind.Code)
	}
	return codes
}

// Clone returns a deep copy
func (d AssessmentData) Clone() AssessmentData {
	c := AssessmentData{
		Config:              d.Config.Clone(),
		SecondaryIndustries: slices.Clone(d.SecondaryIndustries),
		Assessments:         make(map[types.TopicID]*AssessmentRecord, len(d.Assessments)),
	}
	if c.SecondaryIndustries == nil {
		c.SecondaryIndustries = []Industry{}
	}
	if d.PrimaryIndustry != nil {
		p := *d.PrimaryIndustry
		c.PrimaryIndustry = &p
	}
	for id, rec := range d.Assessments {
		c.Assessments[id] = rec.Clone()
	}
	return c
}

// Clone returns a deep copy
func (c ThresholdConfiguration) Clone() ThresholdConfiguration {
	out := c
	out.Magnitude.Cap = clonePtr(c.Magnitude.Cap)
	out.Horizons.LongTermMaxYears = clonePtr(c.Horizons.LongTermMaxYears)
	return out
}

// Snapshot is the full session state handed to the registry on save or finalize
type Snapshot struct {
	AssessmentName string         `json:"assessmentName"`
	ReportingYear  string         `json:"reportingYear"`
	Timeline       *Timeline      `json:"timeline,omitempty"`
	Data           AssessmentData `json:"data"`
}

// Validate checks the snapshot can be stored
func (s Snapshot) Validate() error {
	if err := s.Data.Config.Validate(); err != nil {
		return err
	}
	if s.Timeline != nil && s.Timeline.End.Before(s.Timeline.Start) {
		return goerr.New("timeline end must not be before start",
			goerr.V("start", s.Timeline.Start), goerr.V("end", s.Timeline.End))
	}
	return nil
}

// SavedAssessment is a versioned snapshot of a full session
type SavedAssessment struct {
	ID                 types.AssessmentID     `json:"id"`
	AssessmentName     string                 `json:"assessmentName"`
	ReportingYear      string                 `json:"reportingYear"`
	Timeline           *Timeline              `json:"timeline,omitempty"`
	Version            int                    `json:"version"`
	Status             types.AssessmentStatus `json:"status"`
	LastModified       time.Time              `json:"lastModified"`
	ReAssessmentReason string                 `json:"reAssessmentReason,omitempty"`
	Data               AssessmentData         `json:"data"`
}

// CompareRecency orders saved assessments most recently modified first, then by ID
func CompareRecency(a, b *SavedAssessment) int {
	if c := b.LastModified.Compare(a.LastModified); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// NewSavedAssessment creates the first version of an assessment
func NewSavedAssessment(id types.AssessmentID, snap Snapshot, status types.AssessmentStatus, now time.Time) *SavedAssessment {
	a := &SavedAssessment{
		ID:      id,
		Version: 1,
	}
	a.overwrite(snap, status, now)
	return a
}

func (a *SavedAssessment) overwrite(snap Snapshot, status types.AssessmentStatus, now time.Time) {
	name := strings.TrimSpace(snap.AssessmentName)
	if name == "" {
		name = UntitledAssessmentName
	}
	a.AssessmentName = name
	a.ReportingYear = snap.ReportingYear
	if snap.Timeline != nil {
		tl := *snap.Timeline
		a.Timeline = &tl
	} else {
		a.Timeline = nil
	}
	a.Data = snap.Data.Clone()
	a.Status = status
	a.LastModified = now
}

// IsLocked reports whether edits are blocked
func (a *SavedAssessment) IsLocked() bool {
	return a.Status.Normalize().IsLocked()
}

// Overwrite replaces the snapshot at this id with the given status, keeping the version.
// A finalized assessment must be reopened through a re-assessment request first.
func (a *SavedAssessment) Overwrite(snap Snapshot, status types.AssessmentStatus, now time.Time) error {
	if a.IsLocked() {
		return goerr.Wrap(ErrAssessmentLocked, "cannot overwrite finalized assessment",
			goerr.V(AssessmentIDKey, a.ID), goerr.V(StatusKey, a.Status))
	}
	a.overwrite(snap, status, now)
	return nil
}

// RequestReassessment reopens a finalized assessment and bumps its version
func (a *SavedAssessment) RequestReassessment(reason string, now time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return goerr.Wrap(ErrReasonRequired, "reason must not be empty", goerr.V(AssessmentIDKey, a.ID))
	}
	if a.Status.Normalize() != types.AssessmentStatusFinalized {
		return goerr.Wrap(ErrInvalidTransition, "re-assessment can only be requested for a finalized assessment",
			goerr.V(AssessmentIDKey, a.ID), goerr.V(StatusKey, a.Status))
	}

	a.Status = types.AssessmentStatusReassessmentRequired
	a.ReAssessmentReason = reason
	a.Version++
	a.LastModified = now
	return nil
}

// Snapshot returns the session state stored in this assessment
func (a *SavedAssessment) Snapshot() Snapshot {
	s := Snapshot{
		AssessmentName: a.AssessmentName,
		ReportingYear:  a.ReportingYear,
		Data:           a.Data.Clone(),
	}
	if a.Timeline != nil {
		tl := *a.Timeline
		s.Timeline = &tl
	}
	return s
}

// Clone returns a deep copy
func (a *SavedAssessment) Clone() *SavedAssessment {
	if a == nil {
		return nil
	}
	c := *a
	if a.Timeline != nil {
		tl := *a.Timeline
		c.Timeline = &tl
	}
	c.Data = a.Data.Clone()
	return &c
}
