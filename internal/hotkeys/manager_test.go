package hotkeys

import "testing"

func TestManagerObserve(t *testing.T) {
	m := NewManager()
	if m.Observe("K", []string{"Ctrl", "Alt"}) {
		t.Fatal("Observe matched before Start")
	}

	fired := 0
	if err := m.Start("Ctrl+Alt+K", func() { fired++ }); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := m.ActiveBinding(); got != "Ctrl+Alt+K" {
		t.Fatalf("ActiveBinding() = %q", got)
	}

	if !m.Observe("K", []string{"Alt", "Ctrl"}) {
		t.Fatal("Observe did not match the binding")
	}
	if m.Observe("K", []string{"Ctrl"}) {
		t.Fatal("Observe matched a partial combo")
	}
	if fired != 1 {
		t.Fatalf("trigger fired %d times, want 1", fired)
	}

	if err := m.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if m.ActiveBinding() != "" || m.Observe("K", []string{"Ctrl", "Alt"}) {
		t.Fatal("binding still active after Stop")
	}
}

func TestManagerStartErrors(t *testing.T) {
	m := NewManager()
	if err := m.Start("Ctrl+K", nil); err == nil {
		t.Fatal("expected error for nil callback")
	}
	if err := m.Start("Ctrl+Nope", func() {}); err == nil {
		t.Fatal("expected parse error")
	}
	if m.ActiveBinding() != "" {
		t.Fatalf("failed Start left binding %q", m.ActiveBinding())
	}
}
