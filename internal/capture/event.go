package capture

import (
	"errors"
	"strings"
	"time"

	"screenkey/internal/keys"

	"github.com/google/uuid"
)

// Action is the kind of a raw key transition.
type Action uint8

const (
	ActionRelease Action = iota
	ActionPress
	ActionRepeat
)

func (a Action) String() string {
	switch a {
	case ActionRelease:
		return "release"
	case ActionPress:
		return "press"
	case ActionRepeat:
		return "repeat"
	default:
		return "unknown"
	}
}

// RawEvent is one key transition as reported by a Source, before decoding.
type RawEvent struct {
	Code   keys.Code
	Action Action
}

// KeyEvent is emitted once per qualifying non-modifier press.
// Modifiers is a copy taken at emission time and is never nil.
type KeyEvent struct {
	ID        string   `json:"id"`
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"`
	Timestamp int64    `json:"ts"` // unix milliseconds
}

// NewKeyEvent builds a KeyEvent with a fresh ID. modifiers is copied.
func NewKeyEvent(key string, modifiers []string, at time.Time) KeyEvent {
	mods := make([]string, len(modifiers))
	copy(mods, modifiers)
	return KeyEvent{
		ID:        uuid.NewString(),
		Key:       key,
		Modifiers: mods,
		Timestamp: at.UnixMilli(),
	}
}

// String renders the event the way the overlay shows it, e.g. "Ctrl + Alt + Delete".
func (e KeyEvent) String() string {
	if len(e.Modifiers) == 0 {
		return e.Key
	}
	return strings.Join(e.Modifiers, " + ") + " + " + e.Key
}

// ErrSuppressed is returned by an Emitter that deliberately withheld an
// event, e.g. a consumed hotkey or paused forwarding. The loop counts it
// apart from emitted events and failures.
var ErrSuppressed = errors.New("key event suppressed")

// Emitter receives composed key events. Implementations must not block on
// the presentation layer; the capture loop calls Emit on its own goroutine.
type Emitter interface {
	Emit(KeyEvent) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(KeyEvent) error

// Emit calls f(event).
func (f EmitterFunc) Emit(event KeyEvent) error {
	return f(event)
}
