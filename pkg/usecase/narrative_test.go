package usecase_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/materiality/pkg/domain/model"
	"github.com/secmon-lab/materiality/pkg/usecase"
)

type mockNarrativeService struct {
	suggestFn func(ctx context.Context, topicName, industryName string) (string, error)
	calls     atomic.Int32
}

func (m *mockNarrativeService) Suggest(ctx context.Context, topicName, industryName string) (string, error) {
	m.calls.Add(1)
	return m.suggestFn(ctx, topicName, industryName)
}

// waitDispatcher runs handlers in goroutines and lets a test wait for them
type waitDispatcher struct {
	wg   sync.WaitGroup
	errs chan error
}

func newWaitDispatcher() *waitDispatcher {
	return &waitDispatcher{errs: make(chan error, 16)}
}

func (d *waitDispatcher) Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := handler(context.Background()); err != nil {
			d.errs <- err
		}
	}()
}

func TestNarrative_Suggest(t *testing.T) {
	ctx := context.Background()

	t.Run("returns service text", func(t *testing.T) {
		svc := &mockNarrativeService{suggestFn: func(ctx context.Context, topic, industry string) (string, error) {
			return "Energy costs may reduce cash flow.", nil
		}}
		uc := newUseCases(t, usecase.WithNarrativeService(svc))
		gt.S(t, uc.Narrative.Suggest(ctx, "Data Security", "Software & IT Services")).Equal("Energy costs may reduce cash flow.")
	})

	t.Run("failure yields fallback", func(t *testing.T) {
		svc := &mockNarrativeService{suggestFn: func(ctx context.Context, topic, industry string) (string, error) {
			return "", errors.New("missing credentials")
		}}
		uc := newUseCases(t, usecase.WithNarrativeService(svc))
		gt.S(t, uc.Narrative.Suggest(ctx, "Data Security", "Software & IT Services")).Equal(usecase.NarrativeFallback)
	})

	t.Run("not configured yields fallback", func(t *testing.T) {
		uc := newUseCases(t)
		gt.B(t, uc.Narrative.Enabled()).False()
		gt.S(t, uc.Narrative.Suggest(ctx, "Data Security", "Software & IT Services")).Equal(usecase.NarrativeFallback)
	})

	t.Run("slow service times out", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		svc := &mockNarrativeService{suggestFn: func(ctx context.Context, topic, industry string) (string, error) {
			<-release
			return "too late", nil
		}}
		uc := newUseCases(t, usecase.WithNarrativeService(svc), usecase.WithNarrativeTimeout(20*time.Millisecond))

		start := time.Now()
		gt.S(t, uc.Narrative.Suggest(ctx, "Data Security", "Software & IT Services")).Equal(usecase.NarrativeFallback)
		gt.B(t, time.Since(start) < time.Second).True()
	})

	t.Run("concurrent identical requests are coalesced", func(t *testing.T) {
		release := make(chan struct{})
		svc := &mockNarrativeService{suggestFn: func(ctx context.Context, topic, industry string) (string, error) {
			<-release
			return "shared", nil
		}}
		uc := newUseCases(t, usecase.WithNarrativeService(svc))

		var wg sync.WaitGroup
		results := make([]string, 5)
		for i := range results {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i] = uc.Narrative.Suggest(ctx, "Data Security", "Software & IT Services")
			}()
		}
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		for _, r := range results {
			gt.S(t, r).Equal("shared")
		}
		gt.B(t, svc.calls.Load() < 5).True()
	})
}

func TestNarrative_SuggestForTopic(t *testing.T) {
	ctx := context.Background()

	var gotTopic, gotIndustry string
	svc := &mockNarrativeService{suggestFn: func(ctx context.Context, topic, industry string) (string, error) {
		gotTopic, gotIndustry = topic, industry
		return "Breaches may raise the cost of capital.", nil
	}}
	uc := newUseCases(t, usecase.WithNarrativeService(svc))
	sid := openScoped(t, uc, "TC-SI")

	t.Run("suggest only", func(t *testing.T) {
		res, err := uc.Narrative.SuggestForTopic(ctx, sid, "TC-SI-003", false)
		gt.NoError(t, err).Required()
		gt.S(t, res.Text).Equal("Breaches may raise the cost of capital.")
		gt.B(t, res.Applied).False()
		gt.S(t, gotTopic).Equal("Data Security")
		gt.S(t, gotIndustry).Equal("Software & IT Services")

		st, err := uc.Session.Get(ctx, sid)
		gt.NoError(t, err).Required()
		gt.S(t, st.Topics[2].Record.RiskDescription).Equal("")
	})

	t.Run("apply writes risk description", func(t *testing.T) {
		res, err := uc.Narrative.SuggestForTopic(ctx, sid, "TC-SI-003", true)
		gt.NoError(t, err).Required()
		gt.B(t, res.Applied).True()
		gt.S(t, res.Record.RiskDescription).Equal("Breaches may raise the cost of capital.")
	})

	t.Run("topic out of scope", func(t *testing.T) {
		_, err := uc.Narrative.SuggestForTopic(ctx, sid, "EM-EP-001", false)
		gt.B(t, errors.Is(err, usecase.ErrTopicNotInScope)).True()
	})
}

func TestNarrative_FallbackIsApplied(t *testing.T) {
	ctx := context.Background()
	svc := &mockNarrativeService{suggestFn: func(ctx context.Context, topic, industry string) (string, error) {
		return "", errors.New("unavailable")
	}}
	uc := newUseCases(t, usecase.WithNarrativeService(svc))
	sid := openScoped(t, uc, "TC-SI")

	res, err := uc.Narrative.SuggestForTopic(ctx, sid, "TC-SI-001", true)
	gt.NoError(t, err).Required()
	gt.S(t, res.Record.RiskDescription).Equal(usecase.NarrativeFallback)
}

func TestNarrative_NoLockDuringRequest(t *testing.T) {
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})
	svc := &mockNarrativeService{suggestFn: func(ctx context.Context, topic, industry string) (string, error) {
		close(started)
		<-release
		return "late narrative", nil
	}}
	uc := newUseCases(t, usecase.WithNarrativeService(svc))
	sid := openScoped(t, uc, "TC-SI")

	done := make(chan error, 1)
	go func() {
		_, err := uc.Narrative.SuggestForTopic(ctx, sid, "TC-SI-001", true)
		done <- err
	}()
	<-started

	// other edits proceed while the request is in flight
	_, err := uc.Session.SetMateriality(ctx, sid, "TC-SI-002", false)
	gt.NoError(t, err).Required()
	_, err = uc.Session.PatchRecord(ctx, sid, "TC-SI-001", model.RecordPatch{Justification: ptr("edited meanwhile")})
	gt.NoError(t, err).Required()

	close(release)
	gt.NoError(t, <-done).Required()

	st, err := uc.Session.Get(ctx, sid)
	gt.NoError(t, err).Required()
	gt.S(t, st.Topics[0].Record.RiskDescription).Equal("late narrative")
	gt.S(t, st.Topics[0].Record.Justification).Equal("edited meanwhile")
}

func TestNarrative_Async(t *testing.T) {
	ctx := context.Background()

	t.Run("applies result", func(t *testing.T) {
		d := newWaitDispatcher()
		svc := &mockNarrativeService{suggestFn: func(ctx context.Context, topic, industry string) (string, error) {
			return "async narrative", nil
		}}
		uc := newUseCases(t, usecase.WithNarrativeService(svc), usecase.WithDispatcher(d.Dispatch))
		sid := openScoped(t, uc, "TC-SI")

		res, err := uc.Narrative.SuggestForTopicAsync(ctx, sid, "TC-SI-001")
		gt.NoError(t, err).Required()
		gt.B(t, res.Pending).True()
		d.wg.Wait()
		gt.A(t, drain(d.errs)).Length(0)

		st, err := uc.Session.Get(ctx, sid)
		gt.NoError(t, err).Required()
		gt.S(t, st.Topics[0].Record.RiskDescription).Equal("async narrative")
	})

	t.Run("discarded when session closed", func(t *testing.T) {
		d := newWaitDispatcher()
		release := make(chan struct{})
		svc := &mockNarrativeService{suggestFn: func(ctx context.Context, topic, industry string) (string, error) {
			<-release
			return "stale", nil
		}}
		uc := newUseCases(t, usecase.WithNarrativeService(svc), usecase.WithDispatcher(d.Dispatch))
		sid := openScoped(t, uc, "TC-SI")

		_, err := uc.Narrative.SuggestForTopicAsync(ctx, sid, "TC-SI-001")
		gt.NoError(t, err).Required()
		gt.NoError(t, uc.Session.Close(ctx, sid)).Required()
		close(release)
		d.wg.Wait()
		gt.A(t, drain(d.errs)).Length(0)
	})

	t.Run("discarded when topic leaves scope", func(t *testing.T) {
		d := newWaitDispatcher()
		release := make(chan struct{})
		svc := &mockNarrativeService{suggestFn: func(ctx context.Context, topic, industry string) (string, error) {
			<-release
			return "stale", nil
		}}
		uc := newUseCases(t, usecase.WithNarrativeService(svc), usecase.WithDispatcher(d.Dispatch))
		sid := openScoped(t, uc, "TC-SI")

		_, err := uc.Narrative.SuggestForTopicAsync(ctx, sid, "TC-SI-001")
		gt.NoError(t, err).Required()

		_, err = uc.Session.SetScope(ctx, sid, usecase.ScopeInput{PrimaryIndustry: "CG-AA"})
		gt.NoError(t, err).Required()
		close(release)
		d.wg.Wait()
		gt.A(t, drain(d.errs)).Length(0)

		// back in scope, the record was never touched
		st, err := uc.Session.SetScope(ctx, sid, usecase.ScopeInput{PrimaryIndustry: "TC-SI"})
		gt.NoError(t, err).Required()
		gt.S(t, st.Topics[0].Record.RiskDescription).Equal("")
	})

	t.Run("discarded when description edited meanwhile", func(t *testing.T) {
		d := newWaitDispatcher()
		release := make(chan struct{})
		svc := &mockNarrativeService{suggestFn: func(ctx context.Context, topic, industry string) (string, error) {
			<-release
			return "generated narrative", nil
		}}
		uc := newUseCases(t, usecase.WithNarrativeService(svc), usecase.WithDispatcher(d.Dispatch))
		sid := openScoped(t, uc, "TC-SI")

		_, err := uc.Narrative.SuggestForTopicAsync(ctx, sid, "TC-SI-001")
		gt.NoError(t, err).Required()

		_, err = uc.Session.PatchRecord(ctx, sid, "TC-SI-001", model.RecordPatch{RiskDescription: ptr("written by hand")})
		gt.NoError(t, err).Required()
		close(release)
		d.wg.Wait()
		gt.A(t, drain(d.errs)).Length(0)

		st, err := uc.Session.Get(ctx, sid)
		gt.NoError(t, err).Required()
		gt.S(t, st.Topics[0].Record.RiskDescription).Equal("written by hand")
	})

	t.Run("applied when other fields edited meanwhile", func(t *testing.T) {
		d := newWaitDispatcher()
		release := make(chan struct{})
		svc := &mockNarrativeService{suggestFn: func(ctx context.Context, topic, industry string) (string, error) {
			<-release
			return "generated narrative", nil
		}}
		uc := newUseCases(t, usecase.WithNarrativeService(svc), usecase.WithDispatcher(d.Dispatch))
		sid := openScoped(t, uc, "TC-SI")

		_, err := uc.Narrative.SuggestForTopicAsync(ctx, sid, "TC-SI-001")
		gt.NoError(t, err).Required()

		_, err = uc.Session.PatchRecord(ctx, sid, "TC-SI-001", model.RecordPatch{Justification: ptr("edited meanwhile")})
		gt.NoError(t, err).Required()
		close(release)
		d.wg.Wait()
		gt.A(t, drain(d.errs)).Length(0)

		st, err := uc.Session.Get(ctx, sid)
		gt.NoError(t, err).Required()
		gt.S(t, st.Topics[0].Record.RiskDescription).Equal("generated narrative")
		gt.S(t, st.Topics[0].Record.Justification).Equal("edited meanwhile")
	})

	t.Run("rejected on locked session", func(t *testing.T) {
		uc := newUseCases(t)
		sid := openScoped(t, uc, "TC-SI")
		_, _, err := uc.Session.Finalize(ctx, sid)
		gt.NoError(t, err).Required()

		_, err = uc.Narrative.SuggestForTopicAsync(ctx, sid, "TC-SI-001")
		gt.B(t, errors.Is(err, model.ErrAssessmentLocked)).True()
	})
}

func drain(ch chan error) []error {
	var errs []error
	for {
		select {
		case err := <-ch:
			errs = append(errs, err)
		default:
			return errs
		}
	}
}
