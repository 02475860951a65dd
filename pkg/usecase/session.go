package usecase

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/materiality/pkg/domain/model"
	"github.com/secmon-lab/materiality/pkg/domain/types"
	"github.com/secmon-lab/materiality/pkg/utils/logging"
)

// ScopeInput selects the assessment identity and the industries in scope
type ScopeInput struct {
	AssessmentName      string               `json:"assessmentName"`
	ReportingYear       string               `json:"reportingYear"`
	Timeline            *model.Timeline      `json:"timeline,omitempty"`
	PrimaryIndustry     types.IndustryCode   `json:"primaryIndustry"`
	SecondaryIndustries []types.IndustryCode `json:"secondaryIndustries"`
}

// TopicState is a topic in scope with its record and completeness
type TopicState struct {
	Topic    model.Topic             `json:"topic"`
	Record   *model.AssessmentRecord `json:"record"`
	Complete bool                    `json:"complete"`
	Issues   []model.ValidationIssue `json:"issues"`
}

// SessionState is a read-only view of an editing session
type SessionState struct {
	ID                  types.SessionID              `json:"id"`
	AssessmentID        types.AssessmentID           `json:"assessmentId,omitempty"`
	Status              types.AssessmentStatus       `json:"status"`
	Version             int                          `json:"version"`
	Locked              bool                         `json:"locked"`
	ReAssessmentReason  string                       `json:"reAssessmentReason,omitempty"`
	AssessmentName      string                       `json:"assessmentName"`
	ReportingYear       string                       `json:"reportingYear"`
	Timeline            *model.Timeline              `json:"timeline,omitempty"`
	PrimaryIndustry     *model.Industry              `json:"primaryIndustry"`
	SecondaryIndustries []model.Industry             `json:"secondaryIndustries"`
	Config              model.ThresholdConfiguration `json:"config"`
	Labels              model.ConfigurationLabels    `json:"labels"`
	Topics              []TopicState                 `json:"topics"`
	UpdatedAt           time.Time                    `json:"updatedAt"`
}

// session is the mutable working copy of one assessment
type session struct {
	id types.SessionID

	mu     sync.Mutex
	closed bool

	assessmentID types.AssessmentID
	status       types.AssessmentStatus
	version      int
	reason       string

	name      string
	year      string
	timeline  *model.Timeline
	primary   *model.Industry
	secondary []model.Industry
	config    model.ThresholdConfiguration
	records   map[types.TopicID]*model.AssessmentRecord
	updatedAt time.Time

	// last time any operation touched the session, used for idle expiry
	accessedAt time.Time
}

func (s *session) industryCodes() []types.IndustryCode {
	return model.AssessmentData{PrimaryIndustry: s.primary, SecondaryIndustries: s.secondary}.IndustryCodes()
}

func (s *session) locked() bool {
	return s.status.Normalize().IsLocked()
}

func (s *session) snapshot() model.Snapshot {
	return model.Snapshot{
		AssessmentName: s.name,
		ReportingYear:  s.year,
		Timeline:       s.timeline,
		Data: model.AssessmentData{
			PrimaryIndustry:     s.primary,
			SecondaryIndustries: s.secondary,
			Config:              s.config,
			Assessments:         s.records,
		},
	}
}

func (s *session) adopt(a *model.SavedAssessment) {
	s.assessmentID = a.ID
	s.status = a.Status
	s.version = a.Version
	s.reason = a.ReAssessmentReason
}

// SessionUseCase manages editing sessions. Each session has its own lock so
// sessions never block each other.
type SessionUseCase struct {
	catalog  *model.Catalog
	registry *RegistryUseCase
	now      func() time.Time
	defaults model.ThresholdConfiguration

	mu       sync.RWMutex
	sessions map[types.SessionID]*session
}

func NewSessionUseCase(catalog *model.Catalog, registry *RegistryUseCase, now func() time.Time) *SessionUseCase {
	return &SessionUseCase{
		catalog:  catalog,
		registry: registry,
		now:      now,
		defaults: model.DefaultThresholdConfiguration(),
		sessions: make(map[types.SessionID]*session),
	}
}

// Open starts a session. An empty assessment ID starts a blank assessment;
// otherwise the saved assessment is loaded and is read-only if Finalized.
func (uc *SessionUseCase) Open(ctx context.Context, assessmentID types.AssessmentID) (*SessionState, error) {
	now := uc.now().UTC()
	s := &session{
		id:        types.NewSessionID(),
		status:    types.AssessmentStatusDraft,
		name:      model.DefaultAssessmentName,
		year:      strconv.Itoa(now.Year()),
		config:    uc.defaults.Clone(),
		secondary: []model.Industry{},
		records:   make(map[types.TopicID]*model.AssessmentRecord),
		updatedAt: now,

		accessedAt: now,
	}

	if assessmentID != "" {
		a, err := uc.registry.Get(ctx, assessmentID)
		if err != nil {
			return nil, err
		}
		snap := a.Snapshot()
		s.adopt(a)
		s.name = snap.AssessmentName
		s.year = snap.ReportingYear
		s.timeline = snap.Timeline
		s.primary = snap.Data.PrimaryIndustry
		s.secondary = snap.Data.SecondaryIndustries
		s.config = snap.Data.Config
		s.records = snap.Data.Assessments
	}

	uc.mu.Lock()
	uc.sessions[s.id] = s
	uc.mu.Unlock()

	logging.From(ctx).Info("session opened",
		"session_id", s.id,
		"assessment_id", s.assessmentID,
		"status", s.status,
	)

	s.mu.Lock()
	defer s.mu.Unlock()
	return uc.state(s), nil
}

// Get returns the current state of a session
func (uc *SessionUseCase) Get(ctx context.Context, sid types.SessionID) (*SessionState, error) {
	var st *SessionState
	err := uc.withSession(sid, func(s *session) error {
		st = uc.state(s)
		return nil
	})
	return st, err
}

// Close discards a session. Pending narrative results for it are dropped.
func (uc *SessionUseCase) Close(ctx context.Context, sid types.SessionID) error {
	uc.mu.Lock()
	s, ok := uc.sessions[sid]
	delete(uc.sessions, sid)
	uc.mu.Unlock()

	if !ok {
		return goerr.Wrap(ErrSessionNotFound, "session not found", goerr.V(SessionIDKey, sid))
	}

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	logging.From(ctx).Info("session closed", "session_id", sid)
	return nil
}

// ExpireIdle closes every session not accessed since cutoff and returns how
// many were closed. Sessions busy with an operation are skipped.
func (uc *SessionUseCase) ExpireIdle(ctx context.Context, cutoff time.Time) int {
	uc.mu.Lock()
	var expired []types.SessionID
	for id, s := range uc.sessions {
		if !s.mu.TryLock() {
			continue
		}
		if s.accessedAt.Before(cutoff) {
			s.closed = true
			delete(uc.sessions, id)
			expired = append(expired, id)
		}
		s.mu.Unlock()
	}
	uc.mu.Unlock()

	for _, id := range expired {
		logging.From(ctx).Info("session expired", "session_id", id, "cutoff", cutoff)
	}
	return len(expired)
}

// SetScope sets the assessment identity and industry selection. Records of
// topics that leave the scope are kept but no longer shown or aggregated.
func (uc *SessionUseCase) SetScope(ctx context.Context, sid types.SessionID, in ScopeInput) (*SessionState, error) {
	if in.Timeline != nil && in.Timeline.End.Before(in.Timeline.Start) {
		return nil, goerr.Wrap(ErrInvalidScope, "timeline end must not be before start")
	}
	if in.PrimaryIndustry == "" && len(in.SecondaryIndustries) > 0 {
		return nil, goerr.Wrap(ErrInvalidScope, "secondary industries require a primary industry")
	}

	var primary *model.Industry
	if in.PrimaryIndustry != "" {
		ind, ok := uc.catalog.Industry(in.PrimaryIndustry)
		if !ok {
			return nil, goerr.Wrap(ErrIndustryNotFound, "unknown primary industry", goerr.V(IndustryKey, in.PrimaryIndustry))
		}
		primary = &ind
	}

	secondary := []model.Industry{}
	for _, code := range in.SecondaryIndustries {
		if code == in.PrimaryIndustry || slices.ContainsFunc(secondary, func(i model.Industry) bool { return i.Code == code }) {
			continue
		}
		ind, ok := uc.catalog.Industry(code)
		if !ok {
			return nil, goerr.Wrap(ErrIndustryNotFound, "unknown secondary industry", goerr.V(IndustryKey, code))
		}
		secondary = append(secondary, ind)
	}

	var st *SessionState
	err := uc.edit(sid, func(s *session) error {
		s.name = strings.TrimSpace(in.AssessmentName)
		s.year = strings.TrimSpace(in.ReportingYear)
		if in.Timeline != nil {
			tl := *in.Timeline
			s.timeline = &tl
		} else {
			s.timeline = nil
		}
		s.primary = primary
		s.secondary = secondary
		s.updatedAt = uc.now().UTC()
		st = uc.state(s)
		return nil
	})
	return st, err
}

// UpdateConfig replaces the threshold configuration. An invalid configuration
// is rejected and the previous one stays in effect. Stored scores are not reclassified.
func (uc *SessionUseCase) UpdateConfig(ctx context.Context, sid types.SessionID, cfg model.ThresholdConfiguration) (*SessionState, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var st *SessionState
	err := uc.edit(sid, func(s *session) error {
		s.config = cfg.Clone()
		s.updatedAt = uc.now().UTC()
		st = uc.state(s)
		return nil
	})
	return st, err
}

// SetMateriality records the materiality decision of a topic in scope
func (uc *SessionUseCase) SetMateriality(ctx context.Context, sid types.SessionID, topicID types.TopicID, material bool) (*model.AssessmentRecord, error) {
	var rec *model.AssessmentRecord
	err := uc.edit(sid, func(s *session) error {
		r, err := uc.record(s, topicID)
		if err != nil {
			return err
		}
		now := uc.now().UTC()
		r.SetMateriality(material, now)
		s.updatedAt = now
		rec = r.Clone()
		return nil
	})
	return rec, err
}

// PatchRecord merges a validated patch into the record of a topic in scope
func (uc *SessionUseCase) PatchRecord(ctx context.Context, sid types.SessionID, topicID types.TopicID, patch model.RecordPatch) (*model.AssessmentRecord, error) {
	var rec *model.AssessmentRecord
	err := uc.edit(sid, func(s *session) error {
		r, err := uc.record(s, topicID)
		if err != nil {
			return err
		}
		now := uc.now().UTC()
		if err := r.Apply(patch, s.config, now); err != nil {
			return err
		}
		s.updatedAt = now
		rec = r.Clone()
		return nil
	})
	return rec, err
}

// Dashboard aggregates the records of the topics in scope
func (uc *SessionUseCase) Dashboard(ctx context.Context, sid types.SessionID) (*model.Dashboard, error) {
	var d *model.Dashboard
	err := uc.withSession(sid, func(s *session) error {
		d = model.BuildDashboard(uc.catalog.Scope(s.industryCodes()...), s.records)
		return nil
	})
	return d, err
}

// Save stores the session as Draft, creating the saved assessment on first save
func (uc *SessionUseCase) Save(ctx context.Context, sid types.SessionID) (*SessionState, error) {
	var st *SessionState
	err := uc.edit(sid, func(s *session) error {
		a, err := uc.registry.Save(ctx, s.assessmentID, s.snapshot())
		if err != nil {
			return err
		}
		s.adopt(a)
		s.name = a.AssessmentName
		st = uc.state(s)
		return nil
	})
	return st, err
}

// Finalize stores the session as Finalized and locks it. Incomplete records are reported, not rejected.
func (uc *SessionUseCase) Finalize(ctx context.Context, sid types.SessionID) (*SessionState, []model.ValidationIssue, error) {
	var (
		st     *SessionState
		issues []model.ValidationIssue
	)
	err := uc.edit(sid, func(s *session) error {
		a, found, err := uc.registry.Finalize(ctx, s.assessmentID, s.snapshot())
		if err != nil {
			return err
		}
		s.adopt(a)
		s.name = a.AssessmentName
		issues = found
		st = uc.state(s)
		return nil
	})
	return st, issues, err
}

// narrativeTarget is what a narrative request needs from the session
type narrativeTarget struct {
	topic    model.Topic
	industry string
	// baseline is the risk description when the request was made
	baseline string
}

// topicContext resolves the names used to request a narrative for a topic in scope
func (uc *SessionUseCase) topicContext(sid types.SessionID, topicID types.TopicID, forEdit bool) (narrativeTarget, error) {
	var target narrativeTarget
	fn := uc.withSession
	if forEdit {
		fn = uc.edit
	}
	err := fn(sid, func(s *session) error {
		t, err := uc.topicInScope(s, topicID)
		if err != nil {
			return err
		}
		target.topic = t
		target.industry = string(t.IndustryCode)
		if ind, ok := uc.catalog.Industry(t.IndustryCode); ok {
			target.industry = ind.Name
		}
		if rec, ok := s.records[topicID]; ok {
			target.baseline = rec.RiskDescription
		}
		return nil
	})
	return target, err
}

// applyNarrative writes a generated narrative into the risk description. It
// fails if the session was closed or the topic left the scope meanwhile. With
// a non-nil baseline it also fails if the description no longer matches it.
func (uc *SessionUseCase) applyNarrative(sid types.SessionID, topicID types.TopicID, text string, baseline *string) (*model.AssessmentRecord, error) {
	var rec *model.AssessmentRecord
	err := uc.edit(sid, func(s *session) error {
		r, err := uc.record(s, topicID)
		if err != nil {
			return err
		}
		if baseline != nil && r.RiskDescription != *baseline {
			return goerr.Wrap(ErrNarrativeSuperseded, "risk description changed",
				goerr.V(SessionIDKey, sid), goerr.V(TopicIDKey, topicID))
		}
		now := uc.now().UTC()
		if err := r.Apply(model.RecordPatch{RiskDescription: &text}, s.config, now); err != nil {
			return err
		}
		s.updatedAt = now
		rec = r.Clone()
		return nil
	})
	return rec, err
}

func (uc *SessionUseCase) lookup(sid types.SessionID) (*session, error) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	s, ok := uc.sessions[sid]
	if !ok {
		return nil, goerr.Wrap(ErrSessionNotFound, "session not found", goerr.V(SessionIDKey, sid))
	}
	return s, nil
}

func (uc *SessionUseCase) withSession(sid types.SessionID, fn func(s *session) error) error {
	s, err := uc.lookup(sid)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return goerr.Wrap(ErrSessionNotFound, "session closed", goerr.V(SessionIDKey, sid))
	}
	s.accessedAt = uc.now().UTC()
	return fn(s)
}

func (uc *SessionUseCase) edit(sid types.SessionID, fn func(s *session) error) error {
	return uc.withSession(sid, func(s *session) error {
		if s.locked() {
			return goerr.Wrap(model.ErrAssessmentLocked, "session is read-only",
				goerr.V(SessionIDKey, sid), goerr.V(AssessmentIDKey, s.assessmentID))
		}
		return fn(s)
	})
}

func (uc *SessionUseCase) topicInScope(s *session, topicID types.TopicID) (model.Topic, error) {
	topic, ok := uc.catalog.Topic(topicID)
	if !ok || !slices.Contains(s.industryCodes(), topic.IndustryCode) {
		return model.Topic{}, goerr.Wrap(ErrTopicNotInScope, "topic is not in scope",
			goerr.V(SessionIDKey, s.id), goerr.V(TopicIDKey, topicID))
	}
	return topic, nil
}

// record returns the stored record of a topic in scope, creating it on first touch
func (uc *SessionUseCase) record(s *session, topicID types.TopicID) (*model.AssessmentRecord, error) {
	if _, err := uc.topicInScope(s, topicID); err != nil {
		return nil, err
	}
	rec, ok := s.records[topicID]
	if !ok {
		rec = model.NewAssessmentRecord(topicID)
		s.records[topicID] = rec
	}
	return rec, nil
}

func (uc *SessionUseCase) state(s *session) *SessionState {
	st := &SessionState{
		ID:                  s.id,
		AssessmentID:        s.assessmentID,
		Status:              s.status.Normalize(),
		Version:             s.version,
		Locked:              s.locked(),
		ReAssessmentReason:  s.reason,
		AssessmentName:      s.name,
		ReportingYear:       s.year,
		SecondaryIndustries: slices.Clone(s.secondary),
		Config:              s.config.Clone(),
		Labels:              s.config.Labels(),
		Topics:              []TopicState{},
		UpdatedAt:           s.updatedAt,
	}
	if s.timeline != nil {
		tl := *s.timeline
		st.Timeline = &tl
	}
	if s.primary != nil {
		p := *s.primary
		st.PrimaryIndustry = &p
	}

	for _, topic := range uc.catalog.Scope(s.industryCodes()...) {
		rec := s.records[topic.ID].Clone()
		if rec == nil {
			rec = model.NewAssessmentRecord(topic.ID)
		}
		issues := rec.Issues()
		st.Topics = append(st.Topics, TopicState{
			Topic:    topic,
			Record:   rec,
			Complete: len(issues) == 0,
			Issues:   issues,
		})
	}
	return st
}
