package main

import (
	"context"
	"log/slog"

	"screenkey/internal/capture"
	"screenkey/internal/wsserver"
)

// Runtime event names shared with the frontend.
const (
	eventKeyPress          = "key-press"
	eventPaused            = "screenkey:paused"
	eventCaptureFailed     = "screenkey:capture-failed"
	eventSessionLogUpdated = "app:session-log-updated"
	eventConfigLoadFailed  = "config:load-failed"
	eventWorkerPanic       = "app:worker-panic"
)

// emitRuntimeEvent emits via the app context and delegates to emitRuntimeEventWithContext.
func (a *App) emitRuntimeEvent(name string, payload any) {
	a.emitRuntimeEventWithContext(a.runtimeContext(), name, payload)
}

// emitRuntimeEventWithContext emits a runtime event only when ctx is non-nil.
func (a *App) emitRuntimeEventWithContext(ctx context.Context, name string, payload any) {
	if ctx == nil {
		slog.Debug("[EVENT] runtime event dropped because app context is nil", "event", name)
		return
	}
	runtimeEventsEmitFn(ctx, name, payload)
}

// Emit is the capture loop's Emitter. The pause hotkey is consumed here and
// never forwarded; while paused every other event is dropped. Both report
// capture.ErrSuppressed. Forwarded events go to the history ring, the Wails
// runtime and WebSocket clients.
func (a *App) Emit(event capture.KeyEvent) error {
	if a.hotkeys.Observe(event.Key, event.Modifiers) {
		return capture.ErrSuppressed
	}
	if a.paused.Load() {
		return capture.ErrSuppressed
	}

	a.recordHistory(event)
	a.emitRuntimeEvent(eventKeyPress, event)
	if a.wsHub != nil {
		if err := a.wsHub.Broadcast(wsserver.MessageKeyPress, event); err != nil {
			return err
		}
	}
	return nil
}

// setPaused stores the pause state and notifies listeners when it changed.
func (a *App) setPaused(paused bool) bool {
	a.pauseMu.Lock()
	changed := a.paused.Swap(paused) != paused
	a.pauseMu.Unlock()
	if changed {
		a.notifyPaused(paused)
	}
	return paused
}

func (a *App) togglePaused() bool {
	a.pauseMu.Lock()
	next := !a.paused.Load()
	a.paused.Store(next)
	a.pauseMu.Unlock()
	a.notifyPaused(next)
	return next
}

func (a *App) notifyPaused(paused bool) {
	slog.Info("[EVENT] forwarding state changed", "paused", paused)
	a.emitRuntimeEvent(eventPaused, paused)
	if a.wsHub != nil {
		if err := a.wsHub.Broadcast(wsserver.MessagePaused, paused); err != nil {
			slog.Warn("[WS] failed to broadcast pause state", "error", err)
		}
	}
}
