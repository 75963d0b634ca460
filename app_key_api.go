package main

import (
	"log/slog"

	"screenkey/internal/capture"
	"screenkey/internal/config"
)

// CaptureStatus is the frontend's view of the capture worker.
type CaptureStatus struct {
	capture.Stats
	Paused      bool   `json:"paused"`
	PauseHotkey string `json:"pause_hotkey"`
	// Error is set once capture has stopped for good.
	Error string `json:"error,omitempty"`
}

func (a *App) currentLoop() *capture.Loop {
	a.loopMu.RLock()
	defer a.loopMu.RUnlock()
	return a.loop
}

// GetRecentKeys returns the most recent forwarded events, oldest first.
// A reloaded frontend uses it to repaint.
func (a *App) GetRecentKeys() []capture.KeyEvent {
	return a.recentKeys()
}

// ClearRecentKeys empties the history ring.
func (a *App) ClearRecentKeys() {
	a.clearHistory()
}

// GetHeldModifiers returns the modifiers currently held, in press order.
func (a *App) GetHeldModifiers() []string {
	loop := a.currentLoop()
	if loop == nil {
		return []string{}
	}
	return loop.HeldModifiers()
}

// GetCaptureStatus reports loop counters, pause state and any terminal error.
func (a *App) GetCaptureStatus() CaptureStatus {
	status := CaptureStatus{
		Paused:      a.paused.Load(),
		PauseHotkey: a.hotkeys.ActiveBinding(),
	}
	if loop := a.currentLoop(); loop != nil {
		status.Stats = loop.Snapshot()
	} else {
		status.Held = []string{}
	}
	a.captureMu.Lock()
	status.Error = a.captureErr
	a.captureMu.Unlock()
	return status
}

// TogglePause flips forwarding and returns the new paused state.
func (a *App) TogglePause() bool {
	return a.togglePaused()
}

// SetPaused sets forwarding explicitly and returns the paused state.
func (a *App) SetPaused(paused bool) bool {
	return a.setPaused(paused)
}

// IsPaused reports whether forwarding is paused.
func (a *App) IsPaused() bool {
	return a.paused.Load()
}

// GetWebSocketURL returns the broadcast endpoint, or "" when disabled.
func (a *App) GetWebSocketURL() string {
	if a.wsHub == nil {
		slog.Debug("[WS] wsHub is nil, WebSocket URL unavailable")
		return ""
	}
	return a.wsHub.URL()
}

// GetConfig returns a copy of the effective configuration.
func (a *App) GetConfig() config.Config {
	return config.Clone(a.cfg)
}
