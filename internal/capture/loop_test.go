package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"screenkey/internal/keys"
	"screenkey/internal/testutil"

	"github.com/google/go-cmp/cmp"
)

type recordingEmitter struct {
	events []KeyEvent
	err    error
}

func (r *recordingEmitter) Emit(ev KeyEvent) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, ev)
	return nil
}

type emitted struct {
	Key       string
	Modifiers []string
}

func summarize(events []KeyEvent) []emitted {
	out := make([]emitted, 0, len(events))
	for _, ev := range events {
		out = append(out, emitted{Key: ev.Key, Modifiers: ev.Modifiers})
	}
	return out
}

func code(t *testing.T, label string) keys.Code {
	t.Helper()
	c, ok := keys.Evdev.Lookup(label)
	if !ok {
		t.Fatalf("no evdev code for %q", label)
	}
	return c
}

// runScript drives one Run over batches and stops once the script is
// exhausted. It returns the sleep intervals requested after each poll.
func runScript(t *testing.T, opts LoopOptions, emitter Emitter, batches ...[]RawEvent) (*Loop, []time.Duration) {
	t.Helper()
	source := NewReplaySource(keys.Evdev, batches...)
	loop := NewLoop(source, emitter, opts)
	var sleeps []time.Duration
	loop.sleepFn = func(_ context.Context, d time.Duration) bool {
		sleeps = append(sleeps, d)
		return len(sleeps) < len(batches)+1
	}
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return loop, sleeps
}

func TestLoopShiftA(t *testing.T) {
	shift, a := code(t, "Shift"), code(t, "A")
	rec := &recordingEmitter{}
	runScript(t, LoopOptions{}, rec,
		[]RawEvent{Press(shift)},
		[]RawEvent{Press(a)},
		[]RawEvent{Release(a)},
		[]RawEvent{Release(shift)},
	)

	want := []emitted{{Key: "A", Modifiers: []string{"Shift"}}}
	if diff := cmp.Diff(want, summarize(rec.events)); diff != "" {
		t.Fatalf("emitted events mismatch (-want +got):\n%s", diff)
	}
}

func TestLoopCtrlAltDelete(t *testing.T) {
	ctrl, alt, del := code(t, "Ctrl"), code(t, "Alt"), code(t, "Delete")
	rec := &recordingEmitter{}
	loop, _ := runScript(t, LoopOptions{}, rec,
		[]RawEvent{Press(ctrl), Press(alt), Press(del)},
	)

	want := []emitted{{Key: "Delete", Modifiers: []string{"Ctrl", "Alt"}}}
	if diff := cmp.Diff(want, summarize(rec.events)); diff != "" {
		t.Fatalf("emitted events mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Ctrl", "Alt"}, loop.HeldModifiers()); diff != "" {
		t.Fatalf("held modifiers mismatch (-want +got):\n%s", diff)
	}
}

func TestLoopHandleSequences(t *testing.T) {
	shift, ctrl, a, b := code(t, "Shift"), code(t, "Ctrl"), code(t, "A"), code(t, "B")
	rightShift := keys.Code(54)

	tests := []struct {
		name     string
		opts     LoopOptions
		events   []RawEvent
		want     []emitted
		wantHeld []string
	}{
		{
			name:     "bare modifier emits nothing",
			events:   []RawEvent{Press(shift), Release(shift)},
			want:     []emitted{},
			wantHeld: []string{},
		},
		{
			name:     "double press keeps one entry",
			events:   []RawEvent{Press(shift), Press(shift), Press(a)},
			want:     []emitted{{Key: "A", Modifiers: []string{"Shift"}}},
			wantHeld: []string{"Shift"},
		},
		{
			name:     "left and right shift share a label",
			events:   []RawEvent{Press(shift), Press(rightShift), Release(rightShift), Press(a)},
			want:     []emitted{{Key: "A", Modifiers: []string{}}},
			wantHeld: []string{},
		},
		{
			name:     "release of non-held modifier is ignored",
			events:   []RawEvent{Release(ctrl), Press(a)},
			want:     []emitted{{Key: "A", Modifiers: []string{}}},
			wantHeld: []string{},
		},
		{
			name:     "non-modifier release is ignored",
			events:   []RawEvent{Release(a), Press(b)},
			want:     []emitted{{Key: "B", Modifiers: []string{}}},
			wantHeld: []string{},
		},
		{
			name:     "repeats dropped by default",
			events:   []RawEvent{Press(a), Repeat(a), Repeat(a), Release(a)},
			want:     []emitted{{Key: "A", Modifiers: []string{}}},
			wantHeld: []string{},
		},
		{
			name:     "repeats forwarded when enabled",
			opts:     LoopOptions{EmitRepeats: true},
			events:   []RawEvent{Press(ctrl), Press(a), Repeat(a)},
			want:     []emitted{{Key: "A", Modifiers: []string{"Ctrl"}}, {Key: "A", Modifiers: []string{"Ctrl"}}},
			wantHeld: []string{"Ctrl"},
		},
		{
			name:     "modifier repeat does not change the set",
			opts:     LoopOptions{EmitRepeats: true},
			events:   []RawEvent{Repeat(shift), Press(a)},
			want:     []emitted{{Key: "A", Modifiers: []string{}}},
			wantHeld: []string{},
		},
		{
			name:     "unmapped code is dropped",
			events:   []RawEvent{Press(58), Press(a)},
			want:     []emitted{{Key: "A", Modifiers: []string{}}},
			wantHeld: []string{},
		},
		{
			name:     "insertion order preserved",
			events:   []RawEvent{Press(ctrl), Press(shift), Press(a), Release(ctrl), Press(b)},
			want:     []emitted{{Key: "A", Modifiers: []string{"Ctrl", "Shift"}}, {Key: "B", Modifiers: []string{"Shift"}}},
			wantHeld: []string{"Shift"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingEmitter{}
			loop := NewLoop(NewReplaySource(keys.Evdev), rec, tt.opts)
			for _, ev := range tt.events {
				loop.handle(keys.Evdev, ev)
			}
			if diff := cmp.Diff(tt.want, summarize(rec.events)); diff != "" {
				t.Fatalf("emitted events mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantHeld, loop.HeldModifiers()); diff != "" {
				t.Fatalf("held modifiers mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoopEventModifiersAreCopies(t *testing.T) {
	shift, a := code(t, "Shift"), code(t, "A")
	rec := &recordingEmitter{}
	loop := NewLoop(NewReplaySource(keys.Evdev), rec, LoopOptions{})
	loop.handle(keys.Evdev, Press(shift))
	loop.handle(keys.Evdev, Press(a))
	loop.handle(keys.Evdev, Release(shift))

	if len(rec.events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(rec.events))
	}
	if diff := cmp.Diff([]string{"Shift"}, rec.events[0].Modifiers); diff != "" {
		t.Fatalf("emitted modifiers changed after release (-want +got):\n%s", diff)
	}
	rec.events[0].Modifiers[0] = "mutated"
	if got := loop.HeldModifiers(); len(got) != 0 {
		t.Fatalf("HeldModifiers() = %v, want empty", got)
	}
}

func TestLoopEventIdentity(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_123)
	rec := &recordingEmitter{}
	loop := NewLoop(NewReplaySource(keys.Evdev), rec, LoopOptions{Now: func() time.Time { return fixed }})
	a := code(t, "A")
	loop.handle(keys.Evdev, Press(a))
	loop.handle(keys.Evdev, Release(a))
	loop.handle(keys.Evdev, Press(a))

	if len(rec.events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(rec.events))
	}
	if rec.events[0].ID == "" || rec.events[0].ID == rec.events[1].ID {
		t.Fatalf("event IDs not unique: %q, %q", rec.events[0].ID, rec.events[1].ID)
	}
	if rec.events[0].Timestamp != fixed.UnixMilli() {
		t.Fatalf("Timestamp = %d, want %d", rec.events[0].Timestamp, fixed.UnixMilli())
	}
	if rec.events[0].Modifiers == nil {
		t.Fatal("Modifiers is nil, want empty slice")
	}
}

func TestLoopEmitFailureIsLoggedAndNonFatal(t *testing.T) {
	logBuf := testutil.CaptureLogBuffer(t, slog.LevelWarn)
	a, b := code(t, "A"), code(t, "B")
	rec := &recordingEmitter{err: errors.New("frontend gone")}

	loop, _ := runScript(t, LoopOptions{}, rec,
		[]RawEvent{Press(a), Release(a)},
		[]RawEvent{Press(b)},
	)

	stats := loop.Snapshot()
	if stats.EmitFailures != 2 || stats.Emitted != 0 {
		t.Fatalf("stats = %+v, want 2 emit failures and 0 emitted", stats)
	}
	logs := logBuf.String()
	if !strings.Contains(logs, "failed to emit event") || !strings.Contains(logs, "frontend gone") {
		t.Fatalf("expected emit failure warning, got logs: %s", logs)
	}
}

func TestLoopSuppressedEventsAreNotEmitted(t *testing.T) {
	logBuf := testutil.CaptureLogBuffer(t, slog.LevelWarn)
	a, b := code(t, "A"), code(t, "B")
	emitter := EmitterFunc(func(ev KeyEvent) error {
		if ev.Key == "A" {
			return fmt.Errorf("paused: %w", ErrSuppressed)
		}
		return nil
	})

	loop, _ := runScript(t, LoopOptions{}, emitter,
		[]RawEvent{Press(a), Release(a), Press(b), Release(b)},
	)

	stats := loop.Snapshot()
	if stats.Suppressed != 1 || stats.Emitted != 1 || stats.EmitFailures != 0 {
		t.Fatalf("stats = %+v, want 1 suppressed, 1 emitted, 0 failures", stats)
	}
	if logs := logBuf.String(); strings.Contains(logs, "failed to emit event") {
		t.Fatalf("suppression logged as failure: %s", logs)
	}
}

func TestLoopCadence(t *testing.T) {
	a := code(t, "A")
	opts := LoopOptions{ActiveInterval: 2 * time.Millisecond, IdleInterval: 20 * time.Millisecond}
	_, sleeps := runScript(t, opts, &recordingEmitter{},
		[]RawEvent{Press(a)},
		nil,
		[]RawEvent{Release(a)},
	)

	want := []time.Duration{
		2 * time.Millisecond,  // events found
		20 * time.Millisecond, // empty poll
		2 * time.Millisecond,
		20 * time.Millisecond, // script exhausted
	}
	if diff := cmp.Diff(want, sleeps); diff != "" {
		t.Fatalf("sleep intervals mismatch (-want +got):\n%s", diff)
	}
}

func TestLoopDefaultIntervals(t *testing.T) {
	loop := NewLoop(NewReplaySource(keys.Evdev), &recordingEmitter{}, LoopOptions{})
	if got := loop.interval(StateActive); got != time.Millisecond {
		t.Fatalf("active interval = %v, want 1ms", got)
	}
	if got := loop.interval(StateIdle); got != 10*time.Millisecond {
		t.Fatalf("idle interval = %v, want 10ms", got)
	}
}

func TestLoopOpenFailureIsReturnedOnce(t *testing.T) {
	source := NewReplaySource(keys.Evdev).FailOpen(ErrNoDevices)
	loop := NewLoop(source, &recordingEmitter{}, LoopOptions{})

	err := loop.Run(context.Background())
	if !errors.Is(err, ErrNoDevices) {
		t.Fatalf("Run() error = %v, want ErrNoDevices", err)
	}
	if source.Opened() != 1 {
		t.Fatalf("Open called %d times, want 1", source.Opened())
	}
	if loop.Snapshot().Running {
		t.Fatal("loop still reports running after Run returned")
	}
}

type failingStream struct{ err error }

func (f failingStream) Poll(dst []RawEvent) ([]RawEvent, error) { return dst, f.err }
func (failingStream) Close() error                              { return nil }

type failingSource struct{ err error }

func (failingSource) Name() string                           { return "failing" }
func (failingSource) Table() *keys.Table                     { return keys.Evdev }
func (f failingSource) Open(context.Context) (Stream, error) { return failingStream(f), nil }

func TestLoopPollErrorStopsLoop(t *testing.T) {
	boom := errors.New("device vanished")
	loop := NewLoop(failingSource{err: boom}, &recordingEmitter{}, LoopOptions{})
	if err := loop.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want %v", err, boom)
	}
}

func TestLoopCancelledContextReturnsNil(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	loop := NewLoop(NewReplaySource(keys.Evdev), &recordingEmitter{}, LoopOptions{})
	if err := loop.Run(ctx); err != nil {
		t.Fatalf("Run() on cancelled context = %v, want nil", err)
	}
}

func TestLoopRejectsNilCollaborators(t *testing.T) {
	if err := NewLoop(nil, &recordingEmitter{}, LoopOptions{}).Run(context.Background()); err == nil {
		t.Fatal("expected error for nil source")
	}
	if err := NewLoop(NewReplaySource(keys.Evdev), nil, LoopOptions{}).Run(context.Background()); err == nil {
		t.Fatal("expected error for nil emitter")
	}
}

func TestLoopSnapshotCounters(t *testing.T) {
	shift, a := code(t, "Shift"), code(t, "A")
	loop, _ := runScript(t, LoopOptions{}, &recordingEmitter{},
		[]RawEvent{Press(shift), Press(a), Press(58)},
	)
	stats := loop.Snapshot()
	if stats.Source != "replay" {
		t.Fatalf("Source = %q, want replay", stats.Source)
	}
	if stats.Polls != 2 || stats.RawEvents != 3 || stats.Emitted != 1 || stats.Unmapped != 1 || stats.Dropped != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.State != "idle" {
		t.Fatalf("State = %q, want idle after empty poll", stats.State)
	}
	if diff := cmp.Diff([]string{"Shift"}, stats.Held); diff != "" {
		t.Fatalf("held mismatch (-want +got):\n%s", diff)
	}
}

// queuedStream serves events through the same bounded queue the platform
// backends use.
type queuedStream struct{ q *eventQueue }

func (s queuedStream) Poll(dst []RawEvent) ([]RawEvent, error) { return s.q.drain(dst), nil }
func (queuedStream) Close() error                              { return nil }
func (s queuedStream) Dropped() uint64                         { return s.q.Dropped() }

// queuedSource hands out one fresh queue per Open, like a reopened device.
type queuedSource struct{ queues []*eventQueue }

func (*queuedSource) Name() string       { return "queued" }
func (*queuedSource) Table() *keys.Table { return keys.Evdev }

func (s *queuedSource) Open(context.Context) (Stream, error) {
	q := s.queues[0]
	s.queues = s.queues[1:]
	return queuedStream{q: q}, nil
}

func TestLoopSnapshotCountsQueueOverflow(t *testing.T) {
	a := code(t, "A")
	source := &queuedSource{}
	for range 2 {
		q := newEventQueue(1)
		q.push(Press(a))
		q.push(Press(a))
		source.queues = append(source.queues, q)
	}

	loop := NewLoop(source, &recordingEmitter{}, LoopOptions{})
	var sleeps int
	loop.sleepFn = func(context.Context, time.Duration) bool {
		sleeps++
		return false
	}
	for range 2 {
		if err := loop.Run(context.Background()); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	}

	stats := loop.Snapshot()
	if stats.Dropped != 2 {
		t.Fatalf("Dropped = %d, want 2 across both runs", stats.Dropped)
	}
	if stats.Unmapped != 0 {
		t.Fatalf("Unmapped = %d, want 0", stats.Unmapped)
	}
	if stats.Emitted != 2 || sleeps != 2 {
		t.Fatalf("Emitted = %d sleeps = %d, want 2 and 2", stats.Emitted, sleeps)
	}
}

func TestKeyEventString(t *testing.T) {
	tests := []struct {
		event KeyEvent
		want  string
	}{
		{KeyEvent{Key: "A", Modifiers: []string{}}, "A"},
		{KeyEvent{Key: "Delete", Modifiers: []string{"Ctrl", "Alt"}}, "Ctrl + Alt + Delete"},
	}
	for _, tt := range tests {
		if got := tt.event.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
