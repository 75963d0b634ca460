// Package ringbuf provides a fixed-capacity FIFO that overwrites its oldest
// element when full.
package ringbuf

// Ring is a circular buffer. The zero value is unusable; construct with New.
//
// Not safe for concurrent use; callers hold their own lock.
type Ring[T any] struct {
	buf   []T // fixed-size backing array
	head  int // index of the oldest element
	count int // number of valid elements (0..cap)
}

// New allocates a ring with the given capacity. Values <= 0 are clamped to 1.
func New[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push appends v, overwriting the oldest element when full.
func (r *Ring[T]) Push(v T) {
	bufCap := len(r.buf)
	if r.count < bufCap {
		r.buf[(r.head+r.count)%bufCap] = v
		r.count++
		return
	}
	r.buf[r.head] = v
	r.head = (r.head + 1) % bufCap
}

// Snapshot returns the elements oldest first in a newly allocated slice.
// An empty ring yields an empty, non-nil slice.
func (r *Ring[T]) Snapshot() []T {
	out := make([]T, r.count)
	if r.count == 0 {
		return out
	}
	bufCap := len(r.buf)
	first := min(bufCap-r.head, r.count)
	copy(out, r.buf[r.head:r.head+first])
	if rest := r.count - first; rest > 0 {
		copy(out[first:], r.buf[:rest])
	}
	return out
}

// Len returns the number of stored elements.
func (r *Ring[T]) Len() int { return r.count }

// Cap returns the capacity.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Reset discards every element without releasing the backing array.
func (r *Ring[T]) Reset() {
	clear(r.buf)
	r.head = 0
	r.count = 0
}
