package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"screenkey/internal/capture"
	"screenkey/internal/config"
	"screenkey/internal/ringbuf"
	"screenkey/internal/workerutil"
	"screenkey/internal/wsserver"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// Test seams.
var (
	runtimeEventsEmitFn           = runtime.EventsEmit
	runtimeWindowSetAlwaysOnTopFn = runtime.WindowSetAlwaysOnTop
	defaultConfigPathFn           = config.DefaultPath
	loadConfigFn                  = config.Load
	newPlatformSourceFn           = capture.NewPlatformSource
	newHubFn                      = wsserver.NewHub
)

const shutdownWaitTimeout = 5 * time.Second

func (a *App) addStartupWarning(message string) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return
	}
	a.startupWarnMu.Lock()
	a.startupWarnings = append(a.startupWarnings, trimmed)
	a.startupWarnMu.Unlock()
}

func (a *App) consumeStartupWarnings() string {
	a.startupWarnMu.Lock()
	defer a.startupWarnMu.Unlock()
	if len(a.startupWarnings) == 0 {
		return ""
	}
	message := strings.Join(a.startupWarnings, "\n")
	a.startupWarnings = nil
	return message
}

// flushStartupWarnings surfaces queued warnings once the runtime context
// exists. Each warning also lands in the session log through slog.
func (a *App) flushStartupWarnings() {
	message := a.consumeStartupWarnings()
	if message == "" {
		return
	}
	slog.Warn("[config] startup warning", "detail", message)
	a.emitRuntimeEvent(eventConfigLoadFailed, map[string]string{"message": message})
}

func (a *App) startup(ctx context.Context) {
	setConsoleUTF8()
	a.setRuntimeContext(ctx)

	a.configPath = defaultConfigPathFn()
	for _, message := range config.ConsumeDefaultPathWarnings() {
		a.addStartupWarning(message)
	}
	cfg, err := loadConfigFn(a.configPath)
	if err != nil {
		// Config errors are non-fatal; Load returns a usable Config either way.
		slog.Warn("[config] failed to load config", "path", a.configPath, "error", err)
		a.addStartupWarning("Config file problem, affected settings use defaults: " + err.Error())
	}
	a.cfg = cfg
	if a.logLevel != nil {
		a.logLevel.Set(cfg.SlogLevel())
	}

	a.historyMu.Lock()
	a.history = ringbuf.New[capture.KeyEvent](cfg.Overlay.History)
	a.historyMu.Unlock()

	bgCtx, cancel := context.WithCancel(ctx)
	a.bgCancel = cancel

	a.startWebSocket(bgCtx)
	a.configurePauseHotkey()
	a.startCapture(bgCtx)
	a.startAlwaysOnTopKeeper(bgCtx)
	a.flushStartupWarnings()
}

func (a *App) shutdown(_ context.Context) {
	a.shuttingDown.Store(true)
	if a.bgCancel != nil {
		a.bgCancel()
	}
	if !waitWithTimeout(a.bgWG.Wait, shutdownWaitTimeout) {
		slog.Warn("[DEBUG-PANIC] timed out waiting for background workers during shutdown")
	}
	if err := a.hotkeys.Stop(); err != nil {
		slog.Warn("[hotkey] stop failed", "error", err)
	}
	if a.wsHub != nil {
		if err := a.wsHub.Stop(); err != nil {
			slog.Warn("[WS] stop failed", "error", err)
		}
	}
	a.setRuntimeContext(nil)
}

func (a *App) startWebSocket(ctx context.Context) {
	if !a.cfg.WebSocket.Enabled {
		return
	}
	hub := newHubFn(wsserver.HubOptions{Addr: fmt.Sprintf("127.0.0.1:%d", a.cfg.WebSocket.Port)})
	if err := hub.Start(ctx); err != nil {
		slog.Warn("[WS] failed to start, continuing without WebSocket output", "error", err)
		a.addStartupWarning("WebSocket output is unavailable: " + err.Error())
		return
	}
	a.wsHub = hub
}

func (a *App) configurePauseHotkey() {
	spec := strings.TrimSpace(a.cfg.PauseHotkey)
	if spec == "" {
		slog.Debug("[hotkey] pause hotkey disabled")
		return
	}
	if err := a.hotkeys.Start(spec, func() { a.togglePaused() }); err != nil {
		slog.Warn("[hotkey] pause hotkey rejected", "binding", spec, "error", err)
		return
	}
	slog.Info("[hotkey] pause hotkey active", "binding", a.hotkeys.ActiveBinding())
}

// startCapture runs the capture loop on a supervised worker. A panic restarts
// the loop; an error (the source could not open or failed while polling) is
// final and is reported to the frontend.
func (a *App) startCapture(ctx context.Context) {
	cfg := a.cfg
	source := newPlatformSourceFn(capture.SourceOptions{DeviceFilter: cfg.Capture.DeviceFilter})
	loop := capture.NewLoop(source, a, capture.LoopOptions{
		ActiveInterval: cfg.ActiveInterval(),
		IdleInterval:   cfg.IdleInterval(),
		EmitRepeats:    cfg.Capture.EmitRepeats,
	})
	a.loopMu.Lock()
	a.loop = loop
	a.loopMu.Unlock()

	workerutil.Supervise(ctx, "capture", &a.bgWG, loop.Run, workerutil.Options{
		IsShutdown: a.shuttingDown.Load,
		OnPanic: func(worker string, attempt int, _ any) {
			a.emitRuntimeEvent(eventWorkerPanic, map[string]any{"worker": worker, "attempt": attempt})
		},
		OnExit: func(_ string, err error) {
			if err == nil {
				slog.Info("[capture] stopped")
				return
			}
			a.reportCaptureFailure(err)
		},
	})
}

func (a *App) reportCaptureFailure(err error) {
	message := err.Error()
	switch {
	case errors.Is(err, capture.ErrNoDevices):
		message = "No keyboard input available: " + message
	case errors.Is(err, capture.ErrUnsupported):
		message = "Key capture is not supported on this platform"
	}
	a.captureMu.Lock()
	a.captureErr = message
	a.captureMu.Unlock()

	slog.Error("[capture] capture stopped", "error", err)
	a.emitRuntimeEvent(eventCaptureFailed, message)
}

// startAlwaysOnTopKeeper re-asserts always-on-top periodically. Some window
// managers drop the flag when another window goes fullscreen.
func (a *App) startAlwaysOnTopKeeper(ctx context.Context) {
	interval := a.cfg.AlwaysOnTopInterval()
	if interval <= 0 {
		return
	}
	workerutil.Supervise(ctx, "always-on-top", &a.bgWG, func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if rtCtx := a.runtimeContext(); rtCtx != nil {
					runtimeWindowSetAlwaysOnTopFn(rtCtx, true)
				}
			}
		}
	}, workerutil.Options{IsShutdown: a.shuttingDown.Load})
}

func waitWithTimeout(waitFn func(), timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		waitFn()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}
