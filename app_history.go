package main

import "screenkey/internal/capture"

func (a *App) recordHistory(event capture.KeyEvent) {
	a.historyMu.Lock()
	a.history.Push(event)
	a.historyMu.Unlock()
}

func (a *App) recentKeys() []capture.KeyEvent {
	a.historyMu.RLock()
	defer a.historyMu.RUnlock()
	return a.history.Snapshot()
}

func (a *App) clearHistory() {
	a.historyMu.Lock()
	a.history.Reset()
	a.historyMu.Unlock()
}
