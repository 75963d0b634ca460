package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"screenkey/internal/capture"

	"github.com/gdamore/tcell/v2"
	"github.com/google/go-cmp/cmp"
)

func newSimScreen(t *testing.T, width, height int) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(screen.Fini)
	screen.SetSize(width, height)
	return screen
}

func rowText(screen tcell.Screen, y int) string {
	width, _ := screen.Size()
	var b strings.Builder
	for x := range width {
		r, _, _, _ := screen.GetContent(x, y)
		b.WriteRune(r)
	}
	return strings.TrimRight(b.String(), " ")
}

func TestKeyLine(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		width  int
		want   string
	}{
		{name: "empty", labels: nil, width: 40, want: ""},
		{name: "fits", labels: []string{"A", "Ctrl + C"}, width: 40, want: " A     Ctrl + C "},
		{name: "drops oldest", labels: []string{"Shift + H", "E", "L"}, width: 10, want: " E     L "},
		{name: "nothing fits", labels: []string{"Ctrl + Alt + Delete"}, width: 5, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := keyLine(tt.labels, tt.width); got != tt.want {
				t.Fatalf("keyLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPresenterKeepsNewest(t *testing.T) {
	p := newPresenter("replay", 2)
	at := time.Unix(0, 0)
	p.push(capture.NewKeyEvent("A", nil, at))
	p.push(capture.NewKeyEvent("B", nil, at))
	p.push(capture.NewKeyEvent("C", []string{"Ctrl"}, at))

	got := p.view(capture.Stats{}).Keys
	if diff := cmp.Diff([]string{"B", "Ctrl + C"}, got); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestDrawRendersKeysAndHeader(t *testing.T) {
	screen := newSimScreen(t, 60, 5)
	draw(screen, viewState{
		Source: "replay",
		Keys:   []string{"Shift + H", "I"},
		Stats:  capture.Stats{Polls: 3, Emitted: 2},
	})

	header := rowText(screen, 0)
	if !strings.Contains(header, "replay") || !strings.Contains(header, "emitted 2") {
		t.Fatalf("header = %q", header)
	}
	if strings.Contains(header, "PAUSED") {
		t.Fatalf("header shows paused: %q", header)
	}
	keysRow := rowText(screen, 2)
	if !strings.Contains(keysRow, "Shift + H") || !strings.Contains(keysRow, " I") {
		t.Fatalf("keys row = %q", keysRow)
	}
	if footer := rowText(screen, 4); footer != "q or Esc to quit" {
		t.Fatalf("footer = %q", footer)
	}
}

func TestDrawShowsPausedAndStatus(t *testing.T) {
	screen := newSimScreen(t, 80, 4)
	draw(screen, viewState{
		Source: "evdev",
		Paused: true,
		Status: "No keyboard input available: no keyboard devices found",
	})

	if header := rowText(screen, 0); !strings.HasSuffix(header, "| PAUSED") {
		t.Fatalf("header = %q, want paused marker", header)
	}
	if footer := rowText(screen, 3); !strings.HasPrefix(footer, "No keyboard input available") {
		t.Fatalf("footer = %q", footer)
	}
}

func TestDrawClipsToWidth(t *testing.T) {
	screen := newSimScreen(t, 8, 3)
	draw(screen, viewState{Source: "a-very-long-source-name", Keys: []string{"A"}})
	if header := rowText(screen, 0); len([]rune(header)) > 8 {
		t.Fatalf("header not clipped: %q", header)
	}
}

func TestIsQuitKey(t *testing.T) {
	tests := []struct {
		name string
		ev   *tcell.EventKey
		want bool
	}{
		{name: "q", ev: tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), want: true},
		{name: "esc", ev: tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), want: true},
		{name: "other rune", ev: tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isQuitKey(tt.ev); got != tt.want {
				t.Fatalf("isQuitKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDemoSourceDecodesShiftH(t *testing.T) {
	table := capture.NewPlatformSource(capture.SourceOptions{}).Table()
	src := demoSource(table)

	var got []string
	loop := capture.NewLoop(src, capture.EmitterFunc(func(ev capture.KeyEvent) error {
		got = append(got, ev.String())
		return nil
	}), capture.LoopOptions{ActiveInterval: time.Microsecond, IdleInterval: time.Microsecond})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()
	for loop.Snapshot().Emitted < 2 && ctx.Err() == nil {
		time.Sleep(time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(got) < 2 || got[0] != "Shift + H" || got[1] != "E" {
		t.Fatalf("demo events = %v, want Shift + H then E", got)
	}
}
