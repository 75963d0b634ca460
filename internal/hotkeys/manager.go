package hotkeys

import (
	"errors"
	"log/slog"
	"sync"
)

// Manager watches the key stream for one binding. Unlike an OS hotkey
// registration, the combo still reaches other applications; the caller
// decides whether to forward it.
type Manager struct {
	mu        sync.Mutex
	active    Binding
	onTrigger func()
}

// NewManager creates a new hotkey manager.
func NewManager() *Manager {
	return &Manager{}
}

// Start parses spec and binds onTrigger to it, replacing any previous binding.
func (m *Manager) Start(spec string, onTrigger func()) error {
	if onTrigger == nil {
		return errors.New("onTrigger callback is required")
	}
	binding, err := ParseBinding(spec)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = binding
	m.onTrigger = onTrigger
	slog.Debug("[hotkey] binding active", "binding", binding.Normalized())
	return nil
}

// Stop clears the active binding.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = Binding{}
	m.onTrigger = nil
	return nil
}

// ActiveBinding returns the normalized binding string for the active hotkey.
func (m *Manager) ActiveBinding() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active.Normalized()
}

// Observe checks one key event against the active binding. On a match the
// trigger runs synchronously on the caller's goroutine and Observe returns
// true.
func (m *Manager) Observe(key string, modifiers []string) bool {
	m.mu.Lock()
	binding, trigger := m.active, m.onTrigger
	m.mu.Unlock()

	if trigger == nil || !binding.Matches(key, modifiers) {
		return false
	}
	trigger()
	return true
}
