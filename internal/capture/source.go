package capture

import (
	"context"
	"errors"
	"sync/atomic"

	"screenkey/internal/keys"
)

var (
	// ErrNoDevices is returned by Open when no keyboard device can be read.
	ErrNoDevices = errors.New("no keyboard devices found")
	// ErrUnsupported is returned on platforms without a capture backend.
	ErrUnsupported = errors.New("key capture is not supported on this platform")
	// ErrStreamClosed is returned by Poll after Close.
	ErrStreamClosed = errors.New("capture stream closed")
)

const defaultQueueSize = 256

// Source opens a platform input backend.
type Source interface {
	// Name identifies the backend in logs ("evdev", "win32-hook", "cg-event-tap").
	Name() string
	// Table is the decode table for the codes this source reports.
	Table() *keys.Table
	// Open starts capturing. A failure here is final for the capture loop.
	Open(ctx context.Context) (Stream, error)
}

// Stream is an open capture session.
type Stream interface {
	// Poll appends every pending event to dst and returns it. It never blocks.
	Poll(dst []RawEvent) ([]RawEvent, error)
	// Close stops capturing and releases OS resources.
	Close() error
}

// DropCounter is implemented by streams that discard raw events when their
// queue is full.
type DropCounter interface {
	Dropped() uint64
}

// SourceOptions configures NewPlatformSource.
type SourceOptions struct {
	// DeviceFilter restricts evdev devices to those whose name contains one
	// of the substrings (case-insensitive). Empty means every keyboard.
	// Ignored by hook-based backends.
	DeviceFilter []string
	// QueueSize bounds the number of undelivered raw events. 0 uses the default.
	QueueSize int
}

func (o SourceOptions) queueSize() int {
	if o.QueueSize <= 0 {
		return defaultQueueSize
	}
	return o.QueueSize
}

// eventQueue buffers raw events between OS callbacks or reader goroutines
// and the polling loop. push never blocks; overflow drops the event.
type eventQueue struct {
	ch      chan RawEvent
	dropped atomic.Uint64
}

func newEventQueue(size int) *eventQueue {
	if size <= 0 {
		size = defaultQueueSize
	}
	return &eventQueue{ch: make(chan RawEvent, size)}
}

func (q *eventQueue) push(ev RawEvent) bool {
	select {
	case q.ch <- ev:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

func (q *eventQueue) drain(dst []RawEvent) []RawEvent {
	for {
		select {
		case ev := <-q.ch:
			dst = append(dst, ev)
		default:
			return dst
		}
	}
}

// Dropped returns how many events were discarded because the queue was full.
func (q *eventQueue) Dropped() uint64 {
	return q.dropped.Load()
}
