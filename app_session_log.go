package main

import "screenkey/internal/sessionlog"

// notifySessionLogUpdated is the Store's throttled ping. The event carries no
// payload; the frontend calls GetSessionErrorLog on receipt, so throttling
// never loses entries.
//
// It runs inside slog's Handle call and must not log at warn or above.
func (a *App) notifySessionLogUpdated() {
	if ctx := a.runtimeContext(); ctx != nil {
		runtimeEventsEmitFn(ctx, eventSessionLogUpdated, nil)
	}
}

// GetSessionErrorLog returns every retained warn/error entry, oldest first.
func (a *App) GetSessionErrorLog() []sessionlog.Entry {
	return a.sessionLog.Snapshot()
}
