// Package capture turns raw OS keyboard input into discrete key events.
//
// A Source delivers RawEvents, the Loop decodes them through the source's
// keys.Table, tracks held modifiers in a ModifierSet, and hands one KeyEvent
// per non-modifier press to an Emitter.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"screenkey/internal/keys"
)

const (
	DefaultActiveInterval = time.Millisecond
	DefaultIdleInterval   = 10 * time.Millisecond

	pollBatchSize = 64
)

// State is the polling cadence the loop is in.
type State int32

const (
	StateIdle State = iota
	StateActive
)

func (s State) String() string {
	if s == StateActive {
		return "active"
	}
	return "idle"
}

// LoopOptions configures a Loop. Zero intervals use the defaults.
type LoopOptions struct {
	ActiveInterval time.Duration
	IdleInterval   time.Duration
	// EmitRepeats forwards autorepeat of non-modifier keys as additional events.
	EmitRepeats bool
	// Now overrides the event clock. Nil uses time.Now.
	Now func() time.Time
}

// Stats is a point-in-time view of the loop for status reporting.
type Stats struct {
	Source       string   `json:"source"`
	Running      bool     `json:"running"`
	State        string   `json:"state"`
	Polls        uint64   `json:"polls"`
	RawEvents    uint64   `json:"raw_events"`
	Emitted      uint64   `json:"emitted"`
	Dropped      uint64   `json:"dropped"`    // raw events lost to queue overflow
	Unmapped     uint64   `json:"unmapped"`   // raw events with no decode entry
	Suppressed   uint64   `json:"suppressed"` // withheld by the emitter
	EmitFailures uint64   `json:"emit_failures"`
	Held         []string `json:"held"`
}

// Loop drives a Source. Run must not be called concurrently; a new Run
// after a previous one returned reopens the source.
type Loop struct {
	source  Source
	emitter Emitter
	opts    LoopOptions
	mods    *ModifierSet

	// sleepFn is replaced in tests to observe the cadence.
	sleepFn func(ctx context.Context, d time.Duration) bool

	running      atomic.Bool
	state        atomic.Int32
	polls        atomic.Uint64
	rawEvents    atomic.Uint64
	emitted      atomic.Uint64
	unmapped     atomic.Uint64
	suppressed   atomic.Uint64
	emitFailures atomic.Uint64

	// overflow accumulates queue drops across reopened streams.
	overflow atomic.Uint64
}

// NewLoop builds a loop reading from source and emitting to emitter.
func NewLoop(source Source, emitter Emitter, opts LoopOptions) *Loop {
	if opts.ActiveInterval <= 0 {
		opts.ActiveInterval = DefaultActiveInterval
	}
	if opts.IdleInterval <= 0 {
		opts.IdleInterval = DefaultIdleInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Loop{
		source:  source,
		emitter: emitter,
		opts:    opts,
		mods:    NewModifierSet(),
		sleepFn: sleepContext,
	}
}

// Run opens the source and polls it until ctx is done. A source open
// failure is returned immediately and is not retried. Cancellation returns nil.
func (l *Loop) Run(ctx context.Context) error {
	if l.source == nil {
		return errors.New("capture: nil source")
	}
	if l.emitter == nil {
		return errors.New("capture: nil emitter")
	}
	if !l.running.CompareAndSwap(false, true) {
		return errors.New("capture: loop already running")
	}
	defer l.running.Store(false)

	stream, err := l.source.Open(ctx)
	if err != nil {
		return fmt.Errorf("open %s source: %w", l.source.Name(), err)
	}
	defer func() {
		if closeErr := stream.Close(); closeErr != nil {
			slog.Debug("[capture] stream close failed", "source", l.source.Name(), "error", closeErr)
		}
	}()
	slog.Info("[capture] started", "source", l.source.Name())

	table := l.source.Table()
	counter, _ := stream.(DropCounter)
	overflowBase := l.overflow.Load()
	buf := make([]RawEvent, 0, pollBatchSize)
	for {
		if ctx.Err() != nil {
			return nil
		}
		events, pollErr := stream.Poll(buf[:0])
		if pollErr != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("poll %s source: %w", l.source.Name(), pollErr)
		}
		l.polls.Add(1)
		if counter != nil {
			l.overflow.Store(overflowBase + counter.Dropped())
		}

		next := StateIdle
		if len(events) > 0 {
			next = StateActive
		}
		l.state.Store(int32(next))

		for _, ev := range events {
			l.handle(table, ev)
		}
		buf = events

		if !l.sleepFn(ctx, l.interval(next)) {
			return nil
		}
	}
}

func (l *Loop) interval(s State) time.Duration {
	if s == StateActive {
		return l.opts.ActiveInterval
	}
	return l.opts.IdleInterval
}

// handle applies one raw event. Only the loop goroutine calls it.
func (l *Loop) handle(table *keys.Table, ev RawEvent) {
	l.rawEvents.Add(1)
	label, ok := table.Decode(ev.Code)
	if !ok {
		l.unmapped.Add(1)
		return
	}

	if table.IsModifier(ev.Code) {
		switch ev.Action {
		case ActionPress:
			l.mods.Add(label)
		case ActionRelease:
			l.mods.Remove(label)
		}
		return
	}

	switch ev.Action {
	case ActionPress:
	case ActionRepeat:
		if !l.opts.EmitRepeats {
			return
		}
	default:
		return
	}

	event := NewKeyEvent(label, l.mods.Snapshot(), l.opts.Now())
	slog.Debug("[capture] key pressed", "key", event.Key, "modifiers", event.Modifiers)
	if err := l.emitter.Emit(event); err != nil {
		if errors.Is(err, ErrSuppressed) {
			l.suppressed.Add(1)
			return
		}
		l.emitFailures.Add(1)
		slog.Warn("[capture] failed to emit event", "key", event.Key, "error", err)
		return
	}
	l.emitted.Add(1)
}

// HeldModifiers returns the modifiers currently held, in press order.
func (l *Loop) HeldModifiers() []string {
	return l.mods.Snapshot()
}

// Snapshot reports the loop's counters and state.
func (l *Loop) Snapshot() Stats {
	name := ""
	if l.source != nil {
		name = l.source.Name()
	}
	return Stats{
		Source:       name,
		Running:      l.running.Load(),
		State:        State(l.state.Load()).String(),
		Polls:        l.polls.Load(),
		RawEvents:    l.rawEvents.Load(),
		Emitted:      l.emitted.Load(),
		Dropped:      l.overflow.Load(),
		Unmapped:     l.unmapped.Load(),
		Suppressed:   l.suppressed.Load(),
		EmitFailures: l.emitFailures.Load(),
		Held:         l.mods.Snapshot(),
	}
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
