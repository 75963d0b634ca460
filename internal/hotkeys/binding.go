// Package hotkeys detects a configured key combination in the captured
// key stream.
//
// Bindings are matched against decoded display labels rather than
// platform codes, so one binding string works on every platform.
package hotkeys

import (
	"slices"

	"screenkey/internal/keys"
)

// Modifier is a modifier class. Meta covers Super, Win and Cmd.
type Modifier uint8

const (
	ModCtrl Modifier = 1 << iota
	ModShift
	ModAlt
	ModMeta
)

// Binding describes a parsed hotkey.
// Construct only via ParseBinding to guarantee invariant consistency.
type Binding struct {
	modifiers  Modifier
	key        string
	normalized string
}

// Modifiers returns the modifier bitmask.
func (b Binding) Modifiers() Modifier { return b.modifiers }

// Key returns the display label of the non-modifier key.
func (b Binding) Key() string { return b.key }

// Normalized returns the canonical human-readable binding string.
func (b Binding) Normalized() string { return b.normalized }

// IsZero reports whether b is the zero Binding.
func (b Binding) IsZero() bool { return b.key == "" }

// Matches reports whether an event with key and modifiers is exactly this
// binding. Extra held modifiers prevent a match.
func (b Binding) Matches(key string, modifiers []string) bool {
	if b.IsZero() || key != b.key {
		return false
	}
	var held Modifier
	for _, label := range modifiers {
		mod, ok := modifierForLabel(label)
		if !ok {
			return false
		}
		held |= mod
	}
	return held == b.modifiers
}

func modifierForLabel(label string) (Modifier, bool) {
	switch label {
	case keys.LabelCtrl:
		return ModCtrl, true
	case keys.LabelShift:
		return ModShift, true
	case keys.LabelAlt:
		return ModAlt, true
	case keys.MetaSuper, keys.MetaWin, keys.MetaCmd:
		return ModMeta, true
	default:
		return 0, false
	}
}

var modifierOrder = []struct {
	mod  Modifier
	name string
}{
	{ModCtrl, keys.LabelCtrl},
	{ModShift, keys.LabelShift},
	{ModAlt, keys.LabelAlt},
	{ModMeta, "Meta"},
}

func modifierNames(mods Modifier) []string {
	var names []string
	for _, m := range modifierOrder {
		if mods&m.mod != 0 {
			names = append(names, m.name)
		}
	}
	return slices.Clip(names)
}
