// Package workerutil runs long-lived background workers under panic
// supervision.
package workerutil

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

const (
	defaultInitialBackoff = 100 * time.Millisecond
	defaultMaxBackoff     = 5 * time.Second
	defaultMaxRetries     = 5
)

// Options configures Supervise. Zero numeric fields use the defaults
// (100ms initial backoff, 5s cap, 5 attempts). MaxRetries 1 means run once.
type Options struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxRetries     int

	// OnPanic runs after each recovered panic, before the backoff wait.
	// attempt is 1-based.
	OnPanic func(worker string, attempt int, recovered any)

	// OnExit runs exactly once when the worker stops for good. err is nil on
	// a clean return or cancellation, the worker's own error when it returned
	// one, or a PanicError when the retry budget ran out.
	OnExit func(worker string, err error)

	// IsShutdown suppresses restarts while the application tears down.
	IsShutdown func() bool
}

// PanicError is reported through OnExit when every attempt panicked.
type PanicError struct {
	Worker   string
	Attempts int
	Last     any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("worker %s panicked %d times, last: %v", e.Worker, e.Attempts, e.Last)
}

func (opts Options) withDefaults() Options {
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = defaultInitialBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = defaultMaxBackoff
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.MaxBackoff < opts.InitialBackoff {
		slog.Warn("[worker] MaxBackoff below InitialBackoff, using InitialBackoff",
			"initialBackoff", opts.InitialBackoff, "maxBackoff", opts.MaxBackoff)
		opts.MaxBackoff = opts.InitialBackoff
	}
	return opts
}

// Supervise runs fn on a goroutine tracked by wg. A panic is logged with its
// stack and fn is restarted after an exponential backoff. A returned error is
// final: the worker is not restarted and the error goes to OnExit.
func Supervise(
	ctx context.Context,
	name string,
	wg *sync.WaitGroup,
	fn func(ctx context.Context) error,
	opts Options,
) {
	opts = opts.withDefaults()
	wg.Go(func() {
		err := superviseLoop(ctx, name, fn, opts)
		if opts.OnExit != nil {
			opts.OnExit(name, err)
		}
	})
}

func superviseLoop(ctx context.Context, name string, fn func(ctx context.Context) error, opts Options) error {
	delay := opts.InitialBackoff
	var last any

	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		err, recovered, panicked := runOnce(ctx, name, fn)
		if !panicked {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		last = recovered
		if ctx.Err() != nil {
			return nil
		}
		if opts.IsShutdown != nil && opts.IsShutdown() {
			slog.Info("[worker] shutdown in progress, not restarting", "worker", name)
			return nil
		}
		if opts.OnPanic != nil {
			opts.OnPanic(name, attempt, recovered)
		}
		if attempt == opts.MaxRetries {
			break
		}

		slog.Warn("[worker] restarting after panic", "worker", name, "attempt", attempt, "delay", delay)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
		delay = nextBackoff(delay, opts.MaxBackoff)
	}

	slog.Error("[worker] giving up after repeated panics", "worker", name, "attempts", opts.MaxRetries)
	return &PanicError{Worker: name, Attempts: opts.MaxRetries, Last: last}
}

func runOnce(ctx context.Context, name string, fn func(ctx context.Context) error) (err error, recovered any, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("[worker] recovered from panic",
				"worker", name,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			recovered = r
			panicked = true
		}
	}()
	return fn(ctx), nil, false
}

// nextBackoff doubles current, capped at limit and guarded against overflow.
func nextBackoff(current, limit time.Duration) time.Duration {
	if current <= 0 {
		return defaultInitialBackoff
	}
	next := current * 2
	if next > limit || next < current {
		return limit
	}
	return next
}
