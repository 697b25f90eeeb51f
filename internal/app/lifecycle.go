package app

import (
	"context"
	"os/signal"
	"syscall"
	"time"
)

// Lifecycle holds the cancel functions of a render run. Both must be called,
// typically through a deferred Cleanup.
type Lifecycle struct {
	cancelTimeout context.CancelFunc
	stopSignals   context.CancelFunc
}

// SetupLifecycle derives the context of a render run: it is canceled when
// the timeout expires or when SIGINT or SIGTERM is received, whichever comes
// first. The frame loop observes it between frames.
//
// Parameters:
//   - ctx: The parent context.
//   - timeout: The maximum duration of the run.
//
// Returns:
//   - context.Context: The run context.
//   - *Lifecycle: Releases the timer and the signal handler.
func SetupLifecycle(ctx context.Context, timeout time.Duration) (context.Context, *Lifecycle) {
	ctx, cancelTimeout := context.WithTimeout(ctx, timeout)
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	return ctx, &Lifecycle{cancelTimeout: cancelTimeout, stopSignals: stopSignals}
}

// Cleanup stops listening for signals and releases the timeout.
func (l *Lifecycle) Cleanup() {
	if l.stopSignals != nil {
		l.stopSignals()
	}
	if l.cancelTimeout != nil {
		l.cancelTimeout()
	}
}
