package capture

import (
	"slices"
	"sync"
)

// ModifierSet is the set of currently held modifier labels, in insertion
// order. A label is present at most once. There is no expiry: a modifier
// stays held until a matching release arrives.
type ModifierSet struct {
	mu     sync.Mutex
	labels []string
}

// NewModifierSet returns an empty set.
func NewModifierSet() *ModifierSet {
	return &ModifierSet{}
}

// Add marks label as held and reports whether the set changed.
// Re-adding a held label is a no-op.
func (s *ModifierSet) Add(label string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.labels, label) {
		return false
	}
	s.labels = append(s.labels, label)
	return true
}

// Remove clears label and reports whether it was held.
// Removing a label that is not held is a no-op.
func (s *ModifierSet) Remove(label string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := slices.Index(s.labels, label)
	if idx < 0 {
		return false
	}
	s.labels = slices.Delete(s.labels, idx, idx+1)
	return true
}

// Snapshot returns a copy of the held labels in insertion order.
// The result is never nil.
func (s *ModifierSet) Snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.labels))
	copy(out, s.labels)
	return out
}

// Len returns the number of held modifiers.
func (s *ModifierSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.labels)
}
