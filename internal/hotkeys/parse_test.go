package hotkeys

import (
	"strings"
	"testing"
)

func TestParseBindingSuccess(t *testing.T) {
	tests := []struct {
		name     string
		spec     string
		wantNorm string
		wantMods Modifier
		wantKey  string
	}{
		{
			name:     "Ctrl+Shift+F12",
			spec:     "Ctrl+Shift+F12",
			wantNorm: "Ctrl+Shift+F12",
			wantMods: ModCtrl | ModShift,
			wantKey:  "F12",
		},
		{
			name:     "default pause binding",
			spec:     "Ctrl+Alt+K",
			wantNorm: "Ctrl+Alt+K",
			wantMods: ModCtrl | ModAlt,
			wantKey:  "K",
		},
		{
			name:     "Ctrl+backtick",
			spec:     "Ctrl+`",
			wantNorm: "Ctrl+`",
			wantMods: ModCtrl,
			wantKey:  "`",
		},
		{
			name:     "Alt+3",
			spec:     "Alt+3",
			wantNorm: "Alt+3",
			wantMods: ModAlt,
			wantKey:  "3",
		},
		{
			name:     "named key space",
			spec:     "Ctrl+Space",
			wantNorm: "Ctrl+Space",
			wantMods: ModCtrl,
			wantKey:  "Space",
		},
		{
			name:     "arrow key",
			spec:     "Ctrl+Left",
			wantNorm: "Ctrl+←",
			wantMods: ModCtrl,
			wantKey:  "←",
		},
		{
			name:     "page up alias",
			spec:     "Shift+PageUp",
			wantNorm: "Shift+PgUp",
			wantMods: ModShift,
			wantKey:  "PgUp",
		},
		{
			name:     "grave alias",
			spec:     "Ctrl+Grave",
			wantNorm: "Ctrl+`",
			wantMods: ModCtrl,
			wantKey:  "`",
		},
		{
			name:     "Control alias",
			spec:     "Control+A",
			wantNorm: "Ctrl+A",
			wantMods: ModCtrl,
			wantKey:  "A",
		},
		{
			name:     "Super, Win and Cmd are Meta",
			spec:     "Super+Win+Cmd+A",
			wantNorm: "Meta+A",
			wantMods: ModMeta,
			wantKey:  "A",
		},
		{
			name:     "Option is Alt",
			spec:     "Option+Z",
			wantNorm: "Alt+Z",
			wantMods: ModAlt,
			wantKey:  "Z",
		},
		{
			name:     "canonical modifier order",
			spec:     "Meta+Alt+Shift+Ctrl+A",
			wantNorm: "Ctrl+Shift+Alt+Meta+A",
			wantMods: ModCtrl | ModShift | ModAlt | ModMeta,
			wantKey:  "A",
		},
		{
			name:     "dedup Ctrl+Ctrl+A",
			spec:     "Ctrl+Ctrl+A",
			wantNorm: "Ctrl+A",
			wantMods: ModCtrl,
			wantKey:  "A",
		},
		{
			name:     "lowercase",
			spec:     "ctrl+shift+f12",
			wantNorm: "Ctrl+Shift+F12",
			wantMods: ModCtrl | ModShift,
			wantKey:  "F12",
		},
		{
			name:     "whitespace padded",
			spec:     "  Ctrl + A  ",
			wantNorm: "Ctrl+A",
			wantMods: ModCtrl,
			wantKey:  "A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			binding, err := ParseBinding(tt.spec)
			if err != nil {
				t.Fatalf("ParseBinding(%q) returned unexpected error: %v", tt.spec, err)
			}
			if binding.Normalized() != tt.wantNorm {
				t.Errorf("Normalized() = %q, want %q", binding.Normalized(), tt.wantNorm)
			}
			if binding.Modifiers() != tt.wantMods {
				t.Errorf("Modifiers() = 0x%X, want 0x%X", binding.Modifiers(), tt.wantMods)
			}
			if binding.Key() != tt.wantKey {
				t.Errorf("Key() = %q, want %q", binding.Key(), tt.wantKey)
			}
		})
	}
}

func TestParseBindingErrors(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		wantSub string
	}{
		{name: "empty spec", spec: "", wantSub: "empty"},
		{name: "whitespace-only spec", spec: "   ", wantSub: "empty"},
		{name: "key only", spec: "Ctrl", wantSub: "modifiers and key"},
		{name: "unknown modifier", spec: "Hyper+A", wantSub: "unknown modifier"},
		{name: "missing key token", spec: "Ctrl+", wantSub: "missing hotkey key token"},
		{name: "modifier as key", spec: "Ctrl+Shift", wantSub: "is a modifier"},
		{name: "unknown key name", spec: "Ctrl+CapsLock", wantSub: "unknown key"},
		{name: "function key out of range", spec: "Ctrl+F13", wantSub: "unknown key"},
		{name: "function key with leading zero", spec: "Ctrl+F01", wantSub: "unknown key"},
		{name: "leading plus", spec: "+A", wantSub: "unknown modifier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBinding(tt.spec)
			if err == nil {
				t.Fatalf("ParseBinding(%q) expected error, got nil", tt.spec)
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.wantSub)
			}
		})
	}
}

func TestBindingMatches(t *testing.T) {
	binding, err := ParseBinding("Ctrl+Meta+K")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		key  string
		mods []string
		want bool
	}{
		{"exact linux", "K", []string{"Ctrl", "Super"}, true},
		{"exact windows reversed order", "K", []string{"Win", "Ctrl"}, true},
		{"exact macos", "K", []string{"Cmd", "Ctrl"}, true},
		{"wrong key", "J", []string{"Ctrl", "Super"}, false},
		{"missing modifier", "K", []string{"Ctrl"}, false},
		{"extra modifier", "K", []string{"Ctrl", "Super", "Shift"}, false},
		{"unknown modifier label", "K", []string{"Ctrl", "Super", "Hyper"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := binding.Matches(tt.key, tt.mods); got != tt.want {
				t.Fatalf("Matches(%q, %v) = %v, want %v", tt.key, tt.mods, got, tt.want)
			}
		})
	}
	if (Binding{}).Matches("K", nil) {
		t.Fatal("zero Binding must never match")
	}
}
