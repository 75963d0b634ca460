package sessionlog

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"screenkey/internal/ringbuf"
)

const (
	DefaultCapacity       = 500
	DefaultNotifyInterval = 50 * time.Millisecond
	entryTimestampLayout  = "20060102150405"
)

// Entry is one session log line as exposed to the frontend.
type Entry struct {
	// Seq increases monotonically and never resets, for frontend dedup.
	Seq       uint64 `json:"seq"`
	Timestamp string `json:"ts"`    // "20060102150405"
	Level     string `json:"level"` // "warn", "error"
	Message   string `json:"msg"`
	Source    string `json:"source"` // slog group or component tag
	Detail    string `json:"detail,omitempty"`
}

// Store keeps the most recent entries in memory and pings a listener,
// throttled, when new entries arrive. The ping carries no payload; the
// listener fetches Snapshot. Throttling never loses entries.
type Store struct {
	mu       sync.RWMutex
	seq      uint64
	entries  *ringbuf.Ring[Entry]
	lastPing time.Time

	interval time.Duration
	notify   func()
	now      func() time.Time
}

// NewStore returns a Store holding up to capacity entries. notify may be nil.
func NewStore(capacity int, interval time.Duration, notify func()) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if interval < 0 {
		interval = 0
	}
	return &Store{
		entries:  ringbuf.New[Entry](capacity),
		interval: interval,
		notify:   notify,
		now:      time.Now,
	}
}

// Append records rec. It is an EntryCallback.
//
// Must not log through slog: TeeHandler calls Append synchronously and the
// store lock is not reentrant.
func (s *Store) Append(rec Record) {
	ts := rec.Time
	if ts.IsZero() {
		ts = s.now()
	}
	entry := Entry{
		Timestamp: ts.Format(entryTimestampLayout),
		Level:     levelName(rec.Level),
		Message:   rec.Message,
		Source:    sourceFor(rec),
		Detail:    rec.Detail,
	}

	s.mu.Lock()
	s.seq++
	entry.Seq = s.seq
	s.entries.Push(entry)
	shouldPing := false
	now := s.now()
	if now.Sub(s.lastPing) >= s.interval {
		s.lastPing = now
		shouldPing = true
	}
	notify := s.notify
	s.mu.Unlock()

	if shouldPing && notify != nil {
		notify()
	}
}

// SetNotify replaces the listener.
func (s *Store) SetNotify(notify func()) {
	s.mu.Lock()
	s.notify = notify
	s.mu.Unlock()
}

// Snapshot returns every retained entry, oldest first.
func (s *Store) Snapshot() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries.Snapshot()
}

// Len returns the number of retained entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries.Len()
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warn"
	case level >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}

// sourceFor prefers the slog group, then a leading "[tag]" in the message.
func sourceFor(rec Record) string {
	if rec.Group != "" {
		return rec.Group
	}
	if strings.HasPrefix(rec.Message, "[") {
		if end := strings.IndexByte(rec.Message, ']'); end > 1 {
			return rec.Message[1:end]
		}
	}
	return ""
}
