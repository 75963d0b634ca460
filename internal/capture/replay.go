package capture

import (
	"context"
	"sync"

	"screenkey/internal/keys"
)

// ReplaySource serves a fixed script of raw events, one batch per Poll.
// Once the script is exhausted, Poll returns no events. It backs the
// terminal presenter's demo mode and the tests.
type ReplaySource struct {
	table   *keys.Table
	batches [][]RawEvent
	openErr error

	mu     sync.Mutex
	opened int
}

// NewReplaySource returns a source decoding with table and replaying batches.
func NewReplaySource(table *keys.Table, batches ...[]RawEvent) *ReplaySource {
	return &ReplaySource{table: table, batches: batches}
}

// FailOpen makes Open return err.
func (s *ReplaySource) FailOpen(err error) *ReplaySource {
	s.openErr = err
	return s
}

func (s *ReplaySource) Name() string       { return "replay" }
func (s *ReplaySource) Table() *keys.Table { return s.table }

// Opened returns how many times Open was called.
func (s *ReplaySource) Opened() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened
}

// Open starts a stream over a private copy of the script.
func (s *ReplaySource) Open(context.Context) (Stream, error) {
	s.mu.Lock()
	s.opened++
	s.mu.Unlock()
	if s.openErr != nil {
		return nil, s.openErr
	}
	batches := make([][]RawEvent, len(s.batches))
	copy(batches, s.batches)
	return &replayStream{batches: batches}, nil
}

type replayStream struct {
	mu      sync.Mutex
	batches [][]RawEvent
	closed  bool
}

func (r *replayStream) Poll(dst []RawEvent) ([]RawEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return dst, ErrStreamClosed
	}
	if len(r.batches) == 0 {
		return dst, nil
	}
	dst = append(dst, r.batches[0]...)
	r.batches = r.batches[1:]
	return dst, nil
}

func (r *replayStream) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Press and Release are shorthands for building replay scripts.
func Press(code keys.Code) RawEvent   { return RawEvent{Code: code, Action: ActionPress} }
func Release(code keys.Code) RawEvent { return RawEvent{Code: code, Action: ActionRelease} }
func Repeat(code keys.Code) RawEvent  { return RawEvent{Code: code, Action: ActionRepeat} }
