package main

import (
	"fmt"
	"strings"
	"sync"

	"screenkey/internal/capture"
	"screenkey/internal/ringbuf"

	"github.com/gdamore/tcell/v2"
)

const keySeparator = "   "

var (
	styleTitle  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleKey    = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorDarkSlateGray).Bold(true)
	stylePaused = tcell.StyleDefault.Foreground(tcell.ColorGray).Background(tcell.ColorBlack)
	styleError  = tcell.StyleDefault.Foreground(tcell.ColorRed)
)

// presenter holds what the terminal shows. Emit runs on the capture worker
// and drawing on the UI goroutine, so every field is behind mu.
type presenter struct {
	mu      sync.Mutex
	source  string
	history *ringbuf.Ring[capture.KeyEvent]
	paused  bool
	status  string
}

func newPresenter(source string, history int) *presenter {
	return &presenter{source: source, history: ringbuf.New[capture.KeyEvent](history)}
}

func (p *presenter) push(event capture.KeyEvent) {
	p.mu.Lock()
	p.history.Push(event)
	p.mu.Unlock()
}

func (p *presenter) togglePause() {
	p.mu.Lock()
	p.paused = !p.paused
	p.mu.Unlock()
}

func (p *presenter) isPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

func (p *presenter) setStatus(status string) {
	p.mu.Lock()
	p.status = status
	p.mu.Unlock()
}

// viewState is an immutable frame to draw.
type viewState struct {
	Source string
	Keys   []string
	Paused bool
	Status string
	Stats  capture.Stats
}

func (p *presenter) view(stats capture.Stats) viewState {
	p.mu.Lock()
	defer p.mu.Unlock()
	events := p.history.Snapshot()
	labels := make([]string, len(events))
	for i, ev := range events {
		labels[i] = ev.String()
	}
	return viewState{
		Source: p.source,
		Keys:   labels,
		Paused: p.paused,
		Status: p.status,
		Stats:  stats,
	}
}

func draw(screen tcell.Screen, v viewState) {
	screen.Clear()
	width, height := screen.Size()
	if width <= 0 || height <= 0 {
		return
	}

	title := fmt.Sprintf("screenkey | %s | polls %d  emitted %d  dropped %d",
		v.Source, v.Stats.Polls, v.Stats.Emitted, v.Stats.Dropped)
	if v.Paused {
		title += " | PAUSED"
	}
	putString(screen, 0, 0, width, title, styleTitle)

	style := styleKey
	if v.Paused {
		style = stylePaused
	}
	line := keyLine(v.Keys, width)
	x := max((width-len([]rune(line)))/2, 0)
	y := height / 2
	for i, label := range splitKeyLine(line) {
		if i > 0 {
			x += len([]rune(keySeparator))
		}
		x = putString(screen, x, y, width, label, style)
	}

	if height > 2 {
		footer := "q or Esc to quit"
		footerStyle := styleTitle
		if v.Status != "" {
			footer, footerStyle = v.Status, styleError
		}
		putString(screen, 0, height-1, width, footer, footerStyle)
	}
	screen.Show()
}

// keyLine joins labels as boxed keys, dropping the oldest until it fits.
func keyLine(labels []string, width int) string {
	boxed := make([]string, len(labels))
	for i, l := range labels {
		boxed[i] = " " + l + " "
	}
	for len(boxed) > 0 {
		line := strings.Join(boxed, keySeparator)
		if len([]rune(line)) <= width {
			return line
		}
		boxed = boxed[1:]
	}
	return ""
}

func splitKeyLine(line string) []string {
	if line == "" {
		return nil
	}
	return strings.Split(line, keySeparator)
}

// putString writes s from x, clipped at width, and returns the next column.
func putString(screen tcell.Screen, x, y, width int, s string, style tcell.Style) int {
	for _, r := range s {
		if x >= width {
			break
		}
		screen.SetContent(x, y, r, nil, style)
		x++
	}
	return x
}
