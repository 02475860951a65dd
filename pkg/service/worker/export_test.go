package worker

import (
	"context"
	"time"
)

// Reap runs one expiry cycle with the given clock
func (w *SessionReaper) Reap(ctx context.Context, now func() time.Time) int {
	w.now = now
	return w.reap(ctx)
}
