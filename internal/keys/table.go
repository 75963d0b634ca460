// Package keys maps platform-native key identifiers to display labels.
//
// Each supported input backend has its own code space (Linux evdev codes,
// Win32 virtual-key codes, macOS virtual keycodes). A Table is a static,
// read-only decode map for one of those code spaces plus the set of codes
// that are modifiers. Tables are safe for concurrent use.
package keys

// Modifier display labels shared by every table. The Meta label is platform
// specific and returned by Table.MetaLabel.
const (
	LabelShift = "Shift"
	LabelCtrl  = "Ctrl"
	LabelAlt   = "Alt"

	MetaSuper = "Super"
	MetaWin   = "Win"
	MetaCmd   = "Cmd"
)

// Code is a platform key identifier. Its meaning depends on the Table.
type Code uint32

// Table decodes one platform's key codes.
// Construct only via newTable so labels and modifier sets stay consistent.
type Table struct {
	name      string
	metaLabel string
	labels    map[Code]string
	modifiers map[Code]struct{}
}

func newTable(name, metaLabel string, labels map[Code]string, modifiers []Code) *Table {
	mods := make(map[Code]struct{}, len(modifiers))
	for _, code := range modifiers {
		mods[code] = struct{}{}
	}
	return &Table{
		name:      name,
		metaLabel: metaLabel,
		labels:    labels,
		modifiers: mods,
	}
}

// Name identifies the code space ("evdev", "win32", "darwin").
func (t *Table) Name() string { return t.name }

// MetaLabel returns the display name used for the Meta/Super key.
func (t *Table) MetaLabel() string { return t.metaLabel }

// Decode returns the display label for code. Unmapped codes return ("", false);
// this is a defined outcome, not an error.
func (t *Table) Decode(code Code) (string, bool) {
	label, ok := t.labels[code]
	return label, ok
}

// IsModifier reports whether code is a left or right Shift, Ctrl, Alt or Meta key.
func (t *Table) IsModifier(code Code) bool {
	_, ok := t.modifiers[code]
	return ok
}

// Len returns the number of mapped codes.
func (t *Table) Len() int { return len(t.labels) }

// Codes returns every mapped code in unspecified order.
func (t *Table) Codes() []Code {
	out := make([]Code, 0, len(t.labels))
	for code := range t.labels {
		out = append(out, code)
	}
	return out
}

// Lookup returns the lowest code that decodes to label.
func (t *Table) Lookup(label string) (Code, bool) {
	var (
		best  Code
		found bool
	)
	for code, l := range t.labels {
		if l == label && (!found || code < best) {
			best, found = code, true
		}
	}
	return best, found
}

// IsModifierLabel reports whether label is one of the modifier display names
// rendered by any table.
func IsModifierLabel(label string) bool {
	switch label {
	case LabelShift, LabelCtrl, LabelAlt, MetaSuper, MetaWin, MetaCmd:
		return true
	default:
		return false
	}
}
