//go:build windows

package capture

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

	"golang.org/x/sys/windows"
)

var (
	user32DLL = windows.NewLazySystemDLL("user32.dll")

	procSetWindowsHookExW   = user32DLL.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32DLL.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32DLL.NewProc("CallNextHookEx")
	procGetMessageW         = user32DLL.NewProc("GetMessageW")
	procPeekMessageW        = user32DLL.NewProc("PeekMessageW")
	procPostThreadMessageW  = user32DLL.NewProc("PostThreadMessageW")
)

const (
	whKeyboardLL = 13

	wmQuit       = 0x0012
	wmKeyDown    = 0x0100
	wmKeyUp      = 0x0101
	wmSysKeyDown = 0x0104
	wmSysKeyUp   = 0x0105
	pmNoRemove   = 0x0000

	hookStopTimeout = 2 * time.Second
)

// kbdllHookStruct mirrors KBDLLHOOKSTRUCT.
type kbdllHookStruct struct {
	vkCode      uint32
	scanCode    uint32
	flags       uint32
	time        uint32
	dwExtraInfo uintptr
}

type point struct {
	x int32
	y int32
}

// winMsg mirrors MSG. The layout must match Win32 on 32 and 64 bit.
type winMsg struct {
	hWnd     uintptr
	message  uint32
	wParam   uintptr
	lParam   uintptr
	time     uint32
	pt       point
	lPrivate uint32
}

// The hook procedure has no user pointer, so the live stream is global.
// Only one hook stream may be open at a time.
var (
	activeHook   atomic.Pointer[hookStream]
	hookCallback = windows.NewCallback(lowLevelKeyboardProc)
)

// NewPlatformSource returns the low-level keyboard hook source.
func NewPlatformSource(opts SourceOptions) Source {
	return &hookSource{opts: opts}
}

type hookSource struct {
	opts SourceOptions
}

func (s *hookSource) Name() string       { return "win32-hook" }
func (s *hookSource) Table() *keys.Table { return keys.Win32 }

type loopReady struct {
	threadID uint32
	err      error
}

func (s *hookSource) Open(ctx context.Context) (Stream, error) {
	if err := user32DLL.Load(); err != nil {
		return nil, fmt.Errorf("user32.dll is unavailable: %w", err)
	}

	st := &hookStream{
		queue:  newEventQueue(s.opts.queueSize()),
		down:   newDownState(),
		doneCh: make(chan struct{}),
	}
	if !activeHook.CompareAndSwap(nil, st) {
		return nil, errors.New("a keyboard hook is already installed")
	}

	readyCh := make(chan loopReady, 1)
	go st.runHookLoop(readyCh)

	select {
	case ready := <-readyCh:
		if ready.err != nil {
			activeHook.CompareAndSwap(st, nil)
			return nil, fmt.Errorf("install keyboard hook: %w", ready.err)
		}
		st.threadID = ready.threadID
	case <-ctx.Done():
		activeHook.CompareAndSwap(st, nil)
		go func() {
			if ready := <-readyCh; ready.err == nil {
				_ = postQuit(ready.threadID)
			}
		}()
		return nil, ctx.Err()
	}
	slog.Info("[hook] low-level keyboard hook installed", "threadID", st.threadID)
	return st, nil
}

type hookStream struct {
	queue    *eventQueue
	threadID uint32
	doneCh   chan struct{}

	// down is only touched on the hook thread.
	down *downState

	closeOnce sync.Once
	closed    atomic.Bool
	closeErr  error
}

// Dropped reports raw events lost to queue overflow.
func (s *hookStream) Dropped() uint64 { return s.queue.Dropped() }

func (s *hookStream) Poll(dst []RawEvent) ([]RawEvent, error) {
	if s.closed.Load() {
		return dst, ErrStreamClosed
	}
	select {
	case <-s.doneCh:
		return dst, errors.New("keyboard hook message loop exited")
	default:
	}
	return s.queue.drain(dst), nil
}

func (s *hookStream) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.closeErr = postQuit(s.threadID)

		timer := time.NewTimer(hookStopTimeout)
		defer timer.Stop()
		select {
		case <-s.doneCh:
		case <-timer.C:
			slog.Warn("[hook] message loop stop timed out, thread may leak", "threadID", s.threadID)
			s.closeErr = errors.Join(s.closeErr, errors.New("keyboard hook stop timed out"))
		}
		activeHook.CompareAndSwap(s, nil)
	})
	return s.closeErr
}

func (s *hookStream) runHookLoop(readyCh chan<- loopReady) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(s.doneCh)

	threadID := windows.GetCurrentThreadId()

	// Creates the thread message queue so PostThreadMessageW can deliver WM_QUIT.
	var qmsg winMsg
	procPeekMessageW.Call(uintptr(unsafe.Pointer(&qmsg)), 0, 0, 0, pmNoRemove)

	hook, _, err := procSetWindowsHookExW.Call(whKeyboardLL, hookCallback, 0, 0)
	if hook == 0 {
		readyCh <- loopReady{err: callError("SetWindowsHookExW", err)}
		return
	}
	defer func() {
		if res, _, unhookErr := procUnhookWindowsHookEx.Call(hook); res == 0 {
			slog.Error("[hook] UnhookWindowsHookEx failed", "error", unhookErr)
		}
	}()

	readyCh <- loopReady{threadID: threadID}

	for {
		var msg winMsg
		ret, _, lastErr := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		switch int32(ret) {
		case -1:
			slog.Warn("[hook] GetMessageW returned error, exiting loop", "error", lastErr)
			return
		case 0:
			slog.Debug("[hook] message loop received WM_QUIT")
			return
		}
	}
}

// lowLevelKeyboardProc runs on the hook thread. It must return quickly or
// Windows silently removes the hook, so it only enqueues.
func lowLevelKeyboardProc(nCode, wParam, lParam uintptr) uintptr {
	if int32(nCode) >= 0 {
		if st := activeHook.Load(); st != nil {
			info := (*kbdllHookStruct)(unsafe.Pointer(lParam))
			code := keys.Code(info.vkCode)
			switch wParam {
			case wmKeyDown, wmSysKeyDown:
				st.queue.push(RawEvent{Code: code, Action: st.down.keyDown(code)})
			case wmKeyUp, wmSysKeyUp:
				st.queue.push(RawEvent{Code: code, Action: st.down.keyUp(code)})
			}
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
	return ret
}

func postQuit(threadID uint32) error {
	if threadID == 0 {
		return errors.New("cannot post WM_QUIT: threadID is 0")
	}
	res, _, err := procPostThreadMessageW.Call(uintptr(threadID), wmQuit, 0, 0)
	if res != 0 {
		return nil
	}
	return callError("PostThreadMessageW", err)
}

func callError(name string, err error) error {
	if err == nil || errors.Is(err, windows.ERROR_SUCCESS) {
		return fmt.Errorf("%s failed", name)
	}
	return fmt.Errorf("%s: %w", name, err)
}
