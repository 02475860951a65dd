package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/materiality/pkg/repository/memory"
	"github.com/secmon-lab/materiality/pkg/service/worker"
	"github.com/secmon-lab/materiality/pkg/usecase"
)

type mockExpirer struct {
	mu      sync.Mutex
	cutoffs []time.Time
	expired int
}

func (m *mockExpirer) ExpireIdle(ctx context.Context, cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cutoffs = append(m.cutoffs, cutoff)
	return m.expired
}

func (m *mockExpirer) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cutoffs)
}

func TestSessionReaper_Reap(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := &mockExpirer{expired: 2}
	w, err := worker.NewSessionReaper(m, 30*time.Minute, time.Minute)
	gt.NoError(t, err).Required()

	gt.V(t, w.Reap(context.Background(), func() time.Time { return now })).Equal(2)
	gt.A(t, m.cutoffs).Length(1).Required()
	gt.V(t, m.cutoffs[0]).Equal(now.Add(-30 * time.Minute))
}

func TestNewSessionReaper_RejectsNonPositiveDurations(t *testing.T) {
	tests := []struct {
		name     string
		idle     time.Duration
		interval time.Duration
	}{
		{name: "zero interval", idle: time.Hour, interval: 0},
		{name: "negative interval", idle: time.Hour, interval: -time.Minute},
		{name: "zero idle timeout", idle: 0, interval: time.Minute},
		{name: "negative idle timeout", idle: -time.Hour, interval: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := worker.NewSessionReaper(&mockExpirer{}, tt.idle, tt.interval)
			gt.Error(t, err).Is(worker.ErrInvalidDuration)
			gt.V(t, w).Nil()
		})
	}
}

func TestSessionReaper_StartStop(t *testing.T) {
	m := &mockExpirer{}
	w, err := worker.NewSessionReaper(m, time.Hour, 10*time.Millisecond)
	gt.NoError(t, err).Required()

	gt.NoError(t, w.Start(context.Background()))

	deadline := time.Now().Add(2 * time.Second)
	for m.calls() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	w.Stop()

	gt.B(t, m.calls() > 0).True()
}

func TestSessionReaper_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w, err := worker.NewSessionReaper(&mockExpirer{}, time.Hour, time.Hour)
	gt.NoError(t, err).Required()
	gt.NoError(t, w.Start(ctx))

	cancel()
	done := make(chan struct{})
	go func() {
		// Stop must return after the loop exited on cancellation
		w.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reaper did not stop after context cancellation")
	}
}

func TestSessionReaper_WithSessions(t *testing.T) {
	ctx := context.Background()
	uc := usecase.New(memory.New())

	st, err := uc.Session.Open(ctx, "")
	gt.NoError(t, err).Required()

	w, err := worker.NewSessionReaper(uc.Session, time.Hour, time.Minute)
	gt.NoError(t, err).Required()

	// Not idle yet
	gt.V(t, w.Reap(ctx, time.Now)).Equal(0)

	// Two hours later the session is idle
	later := func() time.Time { return time.Now().Add(2 * time.Hour) }
	gt.V(t, w.Reap(ctx, later)).Equal(1)

	_, err = uc.Session.Get(ctx, st.ID)
	gt.Error(t, err).Is(usecase.ErrSessionNotFound)
}
