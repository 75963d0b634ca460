//go:build darwin && cgo

package capture

/*
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation

#include <CoreGraphics/CoreGraphics.h>
#include <CoreFoundation/CoreFoundation.h>

extern CGEventRef screenkeyTapCallback(CGEventTapProxy proxy, CGEventType type, CGEventRef event, void *refcon);

static CFMachPortRef createListenTap() {
    CGEventMask mask = CGEventMaskBit(kCGEventKeyDown) | CGEventMaskBit(kCGEventKeyUp) | CGEventMaskBit(kCGEventFlagsChanged);
    return CGEventTapCreate(
        kCGSessionEventTap,
        kCGHeadInsertEventTap,
        kCGEventTapOptionListenOnly,
        mask,
        screenkeyTapCallback,
        NULL
    );
}

static CFRunLoopRef attachTap(CFMachPortRef tap) {
    CFRunLoopSourceRef source = CFMachPortCreateRunLoopSource(kCFAllocatorDefault, tap, 0);
    CFRunLoopAddSource(CFRunLoopGetCurrent(), source, kCFRunLoopCommonModes);
    CFRelease(source);
    CGEventTapEnable(tap, true);
    return CFRunLoopGetCurrent();
}

static void runTapSlice(double seconds) {
    CFRunLoopRunInMode(kCFRunLoopDefaultMode, seconds, false);
}

static void stopTap(CFRunLoopRef loop) {
    CFRunLoopStop(loop);
}

static void enableTap(CFMachPortRef tap) {
    CGEventTapEnable(tap, true);
}

static void releaseTap(CFMachPortRef tap) {
    CGEventTapEnable(tap, false);
    CFMachPortInvalidate(tap);
    CFRelease(tap);
}
*/
import "C"

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"screenkey/internal/keys"
)

const (
	tapStopTimeout = 2 * time.Second
	// tapRunSlice bounds how long the run loop runs before rechecking closed,
	// so a stop issued before the loop started is still honoured.
	tapRunSlice = 250 * time.Millisecond
)

// The tap callback has no Go-visible user pointer, so the live stream is
// global. Only one tap stream may be open at a time.
var activeTap atomic.Pointer[tapStream]

// NewPlatformSource returns the CGEventTap source.
func NewPlatformSource(opts SourceOptions) Source {
	return &tapSource{opts: opts}
}

type tapSource struct {
	opts SourceOptions
}

func (s *tapSource) Name() string       { return "cg-event-tap" }
func (s *tapSource) Table() *keys.Table { return keys.Darwin }

type tapReady struct {
	err error
}

func (s *tapSource) Open(ctx context.Context) (Stream, error) {
	st := &tapStream{
		queue:  newEventQueue(s.opts.queueSize()),
		doneCh: make(chan struct{}),
	}
	if !activeTap.CompareAndSwap(nil, st) {
		return nil, errors.New("an event tap is already installed")
	}

	readyCh := make(chan tapReady, 1)
	go st.runTapLoop(readyCh)

	select {
	case ready := <-readyCh:
		if ready.err != nil {
			activeTap.CompareAndSwap(st, nil)
			return nil, ready.err
		}
	case <-ctx.Done():
		st.closed.Store(true)
		go func() {
			if ready := <-readyCh; ready.err == nil {
				st.stopLoop()
				<-st.doneCh
			}
			activeTap.CompareAndSwap(st, nil)
		}()
		return nil, ctx.Err()
	}
	slog.Info("[tap] listen-only event tap installed")
	return st, nil
}

type tapStream struct {
	queue  *eventQueue
	doneCh chan struct{}

	mu   sync.Mutex
	tap  C.CFMachPortRef
	loop C.CFRunLoopRef

	closeOnce sync.Once
	closed    atomic.Bool
	closeErr  error
}

// Dropped reports raw events lost to queue overflow.
func (s *tapStream) Dropped() uint64 { return s.queue.Dropped() }

func (s *tapStream) Poll(dst []RawEvent) ([]RawEvent, error) {
	if s.closed.Load() {
		return dst, ErrStreamClosed
	}
	select {
	case <-s.doneCh:
		return dst, errors.New("event tap run loop exited")
	default:
	}
	return s.queue.drain(dst), nil
}

func (s *tapStream) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		if s.stopLoop() {
			timer := time.NewTimer(tapStopTimeout)
			defer timer.Stop()
			select {
			case <-s.doneCh:
			case <-timer.C:
				slog.Warn("[tap] run loop stop timed out, thread may leak")
				s.closeErr = errors.New("event tap stop timed out")
			}
		}
		activeTap.CompareAndSwap(s, nil)
	})
	return s.closeErr
}

func (s *tapStream) runTapLoop(readyCh chan<- tapReady) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(s.doneCh)

	tap := C.createListenTap()
	if tap == 0 {
		readyCh <- tapReady{err: fmt.Errorf("%w: create event tap failed, grant Accessibility (Input Monitoring) permission", ErrNoDevices)}
		return
	}
	defer C.releaseTap(tap)

	loop := C.attachTap(tap)
	s.mu.Lock()
	s.tap = tap
	s.loop = loop
	s.mu.Unlock()

	readyCh <- tapReady{}
	for !s.closed.Load() {
		C.runTapSlice(C.double(tapRunSlice.Seconds()))
	}
	slog.Debug("[tap] run loop exited")
}

// stopLoop wakes the run loop and reports whether one was attached.
func (s *tapStream) stopLoop() bool {
	s.mu.Lock()
	loop := s.loop
	s.mu.Unlock()
	if loop == 0 {
		return false
	}
	C.stopTap(loop)
	return true
}

func (s *tapStream) reenable() {
	s.mu.Lock()
	tap := s.tap
	s.mu.Unlock()
	if tap != 0 {
		C.enableTap(tap)
		slog.Warn("[tap] event tap was disabled by the system, re-enabled")
	}
}

//export screenkeyTapCallback
func screenkeyTapCallback(proxy C.CGEventTapProxy, eventType C.CGEventType, event C.CGEventRef, refcon unsafe.Pointer) C.CGEventRef {
	st := activeTap.Load()
	if st == nil {
		return event
	}

	switch eventType {
	case C.kCGEventTapDisabledByTimeout, C.kCGEventTapDisabledByUserInput:
		st.reenable()
		return event
	}

	code := keys.Code(C.CGEventGetIntegerValueField(event, C.kCGKeyboardEventKeycode))
	switch eventType {
	case C.kCGEventKeyDown:
		action := ActionPress
		if C.CGEventGetIntegerValueField(event, C.kCGKeyboardEventAutorepeat) != 0 {
			action = ActionRepeat
		}
		st.queue.push(RawEvent{Code: code, Action: action})
	case C.kCGEventKeyUp:
		st.queue.push(RawEvent{Code: code, Action: ActionRelease})
	case C.kCGEventFlagsChanged:
		if action, ok := actionFromDarwinFlags(code, uint64(C.CGEventGetFlags(event))); ok {
			st.queue.push(RawEvent{Code: code, Action: action})
		}
	}
	return event
}
