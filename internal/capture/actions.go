package capture

import (
	"strings"

	"screenkey/internal/keys"
)

// actionFromEvdevValue maps an EV_KEY value to an Action.
// 0 is release, 1 is press, 2 is autorepeat.
func actionFromEvdevValue(value int32) (Action, bool) {
	switch value {
	case 0:
		return ActionRelease, true
	case 1:
		return ActionPress, true
	case 2:
		return ActionRepeat, true
	default:
		return 0, false
	}
}

// actionFromDarwinFlags resolves a kCGEventFlagsChanged event. The event
// carries no direction, so it is derived from whether the modifier's flag
// bit is still set. Untracked keys (caps lock, fn) report false.
func actionFromDarwinFlags(code keys.Code, flags uint64) (Action, bool) {
	flag, ok := keys.DarwinModifierFlag(code)
	if !ok {
		return 0, false
	}
	if flags&flag != 0 {
		return ActionPress, true
	}
	return ActionRelease, true
}

// downState classifies key-down notifications for backends that do not
// distinguish autorepeat themselves. A down for a code that is already
// down is a repeat.
type downState struct {
	down map[keys.Code]struct{}
}

func newDownState() *downState {
	return &downState{down: make(map[keys.Code]struct{})}
}

func (d *downState) keyDown(code keys.Code) Action {
	if _, held := d.down[code]; held {
		return ActionRepeat
	}
	d.down[code] = struct{}{}
	return ActionPress
}

func (d *downState) keyUp(code keys.Code) Action {
	delete(d.down, code)
	return ActionRelease
}

// matchesDeviceFilter reports whether an input device named name passes
// the configured filter. An empty filter accepts every device.
func matchesDeviceFilter(name string, filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, f := range filter {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" && strings.Contains(lower, f) {
			return true
		}
	}
	return false
}

// isEventNode reports whether path looks like an evdev character device
// (/dev/input/eventN).
func isEventNode(path string) bool {
	idx := strings.LastIndexByte(path, '/')
	base := path[idx+1:]
	rest, ok := strings.CutPrefix(base, "event")
	if !ok || rest == "" {
		return false
	}
	for _, ch := range rest {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}
