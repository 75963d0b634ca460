package main

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"screenkey/internal/capture"
	"screenkey/internal/config"
	"screenkey/internal/hotkeys"
	"screenkey/internal/ringbuf"
	"screenkey/internal/sessionlog"
	"screenkey/internal/wsserver"
)

// App is the Wails-bound application service.
type App struct {
	// Runtime context lifecycle.
	ctx   context.Context
	ctxMu sync.RWMutex

	// cfg and configPath are written once in startup before any worker
	// starts and are read-only afterwards.
	cfg        config.Config
	configPath string
	logLevel   *slog.LevelVar

	startupWarnMu   sync.Mutex
	startupWarnings []string

	// Capture state. loop is replaced only by startCapture.
	loopMu     sync.RWMutex
	loop       *capture.Loop
	captureMu  sync.Mutex
	captureErr string

	hotkeys *hotkeys.Manager
	pauseMu sync.Mutex
	paused  atomic.Bool

	historyMu sync.RWMutex
	history   *ringbuf.Ring[capture.KeyEvent]

	sessionLog *sessionlog.Store

	// wsHub is set once during startup; nil when disabled or failed to start.
	wsHub *wsserver.Hub

	// Background worker cancellation/waits.
	bgCancel     context.CancelFunc
	bgWG         sync.WaitGroup
	shuttingDown atomic.Bool
}

// NewApp creates the app service. store receives mirrored warn/error logs
// and may be nil; logLevel, when non-nil, is adjusted to the configured level.
func NewApp(store *sessionlog.Store, logLevel *slog.LevelVar) *App {
	if store == nil {
		store = sessionlog.NewStore(sessionlog.DefaultCapacity, sessionlog.DefaultNotifyInterval, nil)
	}
	defaults := config.DefaultConfig()
	app := &App{
		cfg:        defaults,
		logLevel:   logLevel,
		hotkeys:    hotkeys.NewManager(),
		history:    ringbuf.New[capture.KeyEvent](defaults.Overlay.History),
		sessionLog: store,
	}
	store.SetNotify(app.notifySessionLogUpdated)
	return app
}

func (a *App) setRuntimeContext(ctx context.Context) {
	a.ctxMu.Lock()
	a.ctx = ctx
	a.ctxMu.Unlock()
}

func (a *App) runtimeContext() context.Context {
	a.ctxMu.RLock()
	ctx := a.ctx
	a.ctxMu.RUnlock()
	return ctx
}
