package worker

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/materiality/pkg/utils/logging"
)

// ErrInvalidDuration is returned when the idle timeout or interval is not positive
var ErrInvalidDuration = goerr.New("session reaper duration must be positive")

// SessionExpirer closes editing sessions idle since a cutoff
type SessionExpirer interface {
	ExpireIdle(ctx context.Context, cutoff time.Time) int
}

// SessionReaper periodically closes editing sessions that have been idle
// longer than the configured timeout. Sessions live in process memory, so a
// single instance owns them and no distributed locking is needed.
type SessionReaper struct {
	sessions SessionExpirer
	idle     time.Duration
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewSessionReaper creates a new worker for expiring idle sessions
func NewSessionReaper(sessions SessionExpirer, idle, interval time.Duration) (*SessionReaper, error) {
	if idle <= 0 {
		return nil, goerr.Wrap(ErrInvalidDuration, "invalid idle timeout", goerr.V("idle_timeout", idle.String()))
	}
	if interval <= 0 {
		return nil, goerr.Wrap(ErrInvalidDuration, "invalid reap interval", goerr.V("interval", interval.String()))
	}

	return &SessionReaper{
		sessions: sessions,
		idle:     idle,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins the background loop without blocking
func (w *SessionReaper) Start(ctx context.Context) error {
	logging.Default().Info("Session reaper starting",
		"idle_timeout", w.idle.String(),
		"interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *SessionReaper) Stop() {
	logging.Default().Info("Session reaper stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Session reaper stopped")
}

func (w *SessionReaper) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.reap(ctx)

		case <-w.stopCh:
			return

		case <-ctx.Done():
			logging.Default().Info("Session reaper context cancelled")
			return
		}
	}
}

// reap performs a single expiry cycle
func (w *SessionReaper) reap(ctx context.Context) int {
	cutoff := w.now().UTC().Add(-w.idle)
	n := w.sessions.ExpireIdle(ctx, cutoff)
	if n > 0 {
		logging.Default().Info("Expired idle sessions", "count", n, "cutoff", cutoff)
	}
	return n
}
