package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/materiality/pkg/domain/interfaces"
	"github.com/secmon-lab/materiality/pkg/domain/model"
	"github.com/secmon-lab/materiality/pkg/domain/types"
	"github.com/secmon-lab/materiality/pkg/utils/async"
	"github.com/secmon-lab/materiality/pkg/utils/logging"
	"golang.org/x/sync/singleflight"
)

const (
	// NarrativeFallback replaces the suggestion whenever the narrative service fails
	NarrativeFallback = "The AI service is currently unavailable or not configured."

	DefaultNarrativeTimeout = 20 * time.Second
)

// Dispatcher runs handler in the background
type Dispatcher func(ctx context.Context, handler func(ctx context.Context) error)

// NarrativeResult is the outcome of a narrative request for a topic
type NarrativeResult struct {
	TopicID types.TopicID           `json:"topicId"`
	Text    string                  `json:"text,omitempty"`
	Applied bool                    `json:"applied"`
	Pending bool                    `json:"pending"`
	Record  *model.AssessmentRecord `json:"record,omitempty"`
}

// NarrativeUseCase drafts risk descriptions. Failures never surface as errors:
// the fallback text is returned instead.
type NarrativeUseCase struct {
	service  interfaces.NarrativeService
	sessions *SessionUseCase
	timeout  time.Duration
	dispatch Dispatcher

	group singleflight.Group
}

func NewNarrativeUseCase(service interfaces.NarrativeService, sessions *SessionUseCase, timeout time.Duration, dispatch Dispatcher) *NarrativeUseCase {
	if timeout <= 0 {
		timeout = DefaultNarrativeTimeout
	}
	if dispatch == nil {
		dispatch = async.Dispatch
	}
	return &NarrativeUseCase{
		service:  service,
		sessions: sessions,
		timeout:  timeout,
		dispatch: dispatch,
	}
}

// Enabled reports whether a narrative service is configured
func (uc *NarrativeUseCase) Enabled() bool {
	return uc.service != nil
}

// Suggest returns a suggestion for the topic, or NarrativeFallback on any
// failure or after the timeout. Identical concurrent requests share one call.
func (uc *NarrativeUseCase) Suggest(ctx context.Context, topicName, industryName string) string {
	logger := logging.From(ctx)
	if uc.service == nil {
		logger.Debug("narrative service is not configured")
		return NarrativeFallback
	}

	key := topicName + "\x00" + industryName
	ch := uc.group.DoChan(key, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.timeout)
		defer cancel()
		return uc.service.Suggest(callCtx, topicName, industryName)
	})

	timer := time.NewTimer(uc.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.Err != nil {
			logger.Warn("narrative suggestion failed",
				"error", res.Err,
				"topic", topicName,
				"industry", industryName,
			)
			return NarrativeFallback
		}
		text, _ := res.Val.(string)
		if text == "" {
			return NarrativeFallback
		}
		return text

	case <-timer.C:
		logger.Warn("narrative suggestion timed out", "topic", topicName, "timeout", uc.timeout)
		return NarrativeFallback

	case <-ctx.Done():
		return NarrativeFallback
	}
}

// SuggestForTopic requests a narrative for a topic in a session and, if apply
// is set, writes it to the record's risk description. No session lock is held
// while the request is in flight.
func (uc *NarrativeUseCase) SuggestForTopic(ctx context.Context, sid types.SessionID, topicID types.TopicID, apply bool) (*NarrativeResult, error) {
	target, err := uc.sessions.topicContext(sid, topicID, apply)
	if err != nil {
		return nil, err
	}

	text := uc.Suggest(ctx, target.topic.Name, target.industry)
	result := &NarrativeResult{TopicID: topicID, Text: text}
	if !apply {
		return result, nil
	}

	rec, err := uc.sessions.applyNarrative(sid, topicID, text, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "narrative discarded", goerr.V(SessionIDKey, sid), goerr.V(TopicIDKey, topicID))
	}
	result.Applied = true
	result.Record = rec
	return result, nil
}

// SuggestForTopicAsync dispatches the request in the background and applies
// the result when it arrives. The result is dropped if the session was closed
// or finalized before completion. It is also dropped if the topic left the
// scope or the risk description was edited in the meantime.
func (uc *NarrativeUseCase) SuggestForTopicAsync(ctx context.Context, sid types.SessionID, topicID types.TopicID) (*NarrativeResult, error) {
	target, err := uc.sessions.topicContext(sid, topicID, true)
	if err != nil {
		return nil, err
	}

	uc.dispatch(ctx, func(ctx context.Context) error {
		text := uc.Suggest(ctx, target.topic.Name, target.industry)
		if _, err := uc.sessions.applyNarrative(sid, topicID, text, &target.baseline); err != nil {
			if isStale(err) {
				logging.From(ctx).Info("discarded stale narrative",
					"session_id", sid,
					"topic_id", topicID,
					"reason", err.Error(),
				)
				return nil
			}
			return goerr.Wrap(err, "failed to apply narrative", goerr.V(SessionIDKey, sid), goerr.V(TopicIDKey, topicID))
		}
		return nil
	})

	return &NarrativeResult{TopicID: topicID, Pending: true}, nil
}

func isStale(err error) bool {
	return errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrTopicNotInScope) ||
		errors.Is(err, ErrNarrativeSuperseded) ||
		errors.Is(err, model.ErrAssessmentLocked)
}
