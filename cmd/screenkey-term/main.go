// Command screenkey-term shows captured keystrokes in a terminal. It runs the
// same capture loop as the overlay and is handy over SSH or when no webview
// is available.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"screenkey/internal/capture"
	"screenkey/internal/config"
	"screenkey/internal/hotkeys"
	"screenkey/internal/sessionlog"
	"screenkey/internal/workerutil"

	"github.com/gdamore/tcell/v2"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("screenkey-term", flag.ContinueOnError)
	demo := fs.Bool("demo", false, "replay a scripted typing session instead of capturing")
	configPath := fs.String("config", config.DefaultPath(), "config file path")
	logPath := fs.String("log", "", "write logs to this file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	store := sessionlog.NewStore(sessionlog.DefaultCapacity, sessionlog.DefaultNotifyInterval, nil)
	logLevel := new(slog.LevelVar)
	var logOut io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			fmt.Fprintf(os.Stderr, "screenkey-term: open log: %v\n", err)
			return 1
		}
		defer f.Close()
		logOut = f
	}
	base := slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(sessionlog.NewTeeHandler(base, slog.LevelWarn, store.Append)))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Warn("[config] config load failed, continuing with usable values", "path", *configPath, "error", err)
	}
	logLevel.Set(cfg.SlogLevel())

	var source capture.Source
	if *demo {
		source = demoSource(capture.NewPlatformSource(capture.SourceOptions{}).Table())
	} else {
		source = capture.NewPlatformSource(capture.SourceOptions{DeviceFilter: cfg.Capture.DeviceFilter})
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "screenkey-term: %v\n", err)
		return 1
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "screenkey-term: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := newPresenter(source.Name(), cfg.Overlay.History)
	redraw := func() { _ = screen.PostEvent(tcell.NewEventInterrupt(nil)) }

	hk := hotkeys.NewManager()
	if cfg.PauseHotkey != "" {
		if err := hk.Start(cfg.PauseHotkey, func() { p.togglePause(); redraw() }); err != nil {
			slog.Warn("[hotkey] pause hotkey disabled", "binding", cfg.PauseHotkey, "error", err)
		}
	}
	defer func() { _ = hk.Stop() }()

	emitter := capture.EmitterFunc(func(ev capture.KeyEvent) error {
		if hk.Observe(ev.Key, ev.Modifiers) || p.isPaused() {
			return capture.ErrSuppressed
		}
		p.push(ev)
		redraw()
		return nil
	})
	loop := capture.NewLoop(source, emitter, capture.LoopOptions{
		ActiveInterval: cfg.ActiveInterval(),
		IdleInterval:   cfg.IdleInterval(),
		EmitRepeats:    cfg.Capture.EmitRepeats,
	})

	var (
		wg        sync.WaitGroup
		failedMu  sync.Mutex
		failedErr error
	)
	workerutil.Supervise(ctx, "capture", &wg, loop.Run, workerutil.Options{
		OnExit: func(_ string, err error) {
			if err == nil {
				return
			}
			failedMu.Lock()
			failedErr = err
			failedMu.Unlock()
			p.setStatus(captureFailureMessage(err))
			redraw()
		},
		IsShutdown: func() bool { return ctx.Err() != nil },
	})

	go func() {
		<-ctx.Done()
		_ = screen.PostEvent(tcell.NewEventInterrupt(errQuit))
	}()

	eventLoop(screen, p, loop)
	screen.Fini()
	stop()
	wg.Wait()

	failedMu.Lock()
	defer failedMu.Unlock()
	if failedErr != nil {
		fmt.Fprintf(os.Stderr, "screenkey-term: %s\n", captureFailureMessage(failedErr))
		for _, entry := range store.Snapshot() {
			fmt.Fprintf(os.Stderr, "  %s %s [%s] %s %s\n", entry.Timestamp, entry.Level, entry.Source, entry.Message, entry.Detail)
		}
		return 1
	}
	return 0
}

var errQuit = errors.New("quit")

func eventLoop(screen tcell.Screen, p *presenter, loop *capture.Loop) {
	draw(screen, p.view(loop.Snapshot()))
	for {
		switch ev := screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventKey:
			if isQuitKey(ev) {
				return
			}
		case *tcell.EventInterrupt:
			if ev.Data() == errQuit {
				return
			}
		}
		draw(screen, p.view(loop.Snapshot()))
	}
}

func isQuitKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q'
	}
	return false
}

func captureFailureMessage(err error) string {
	switch {
	case errors.Is(err, capture.ErrUnsupported):
		return "Key capture is not supported on this platform"
	case errors.Is(err, capture.ErrNoDevices):
		return "No keyboard input available: " + err.Error()
	default:
		return "Key capture stopped: " + err.Error()
	}
}
