package async

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/materiality/pkg/utils/errutil"
	"github.com/secmon-lab/materiality/pkg/utils/logging"
)

// Group runs handlers in background goroutines detached from the request
// context and tracks them so a shutdown can wait for in-flight work.
type Group struct {
	wg sync.WaitGroup
}

func New() *Group {
	return &Group{}
}

// Dispatch runs handler in a new goroutine. The handler gets a fresh context
// carrying the caller's logger. Errors and panics are reported, never propagated.
func (g *Group) Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	bgCtx := logging.With(context.Background(), logging.From(ctx))

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				_ = errutil.Handle(bgCtx, goerr.New("panic in background job", goerr.V("panic", r)), "background job panicked")
			}
		}()

		if err := handler(bgCtx); err != nil {
			_ = errutil.Handle(bgCtx, err, "background job failed")
		}
	}()
}

// Wait blocks until every dispatched handler has returned or ctx is done
func (g *Group) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return goerr.Wrap(ctx.Err(), "background jobs did not finish")
	}
}

var defaultGroup = New()

// Dispatch runs handler on the process wide group
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	defaultGroup.Dispatch(ctx, handler)
}
