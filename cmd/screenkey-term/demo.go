package main

import (
	"screenkey/internal/capture"
	"screenkey/internal/keys"
)

// demoPauseBatches is how many empty polls separate demo key strokes. At
// the default 10ms idle cadence that is about a third of a second.
const demoPauseBatches = 30

// demoSource replays a short typing session through the real decode table
// of this platform, so the demo exercises the same Loop path as live input.
func demoSource(table *keys.Table) *capture.ReplaySource {
	code := func(label string) keys.Code {
		c, _ := table.Lookup(label)
		return c
	}
	var script [][]capture.RawEvent
	pause := func() {
		for range demoPauseBatches {
			script = append(script, nil)
		}
	}
	tap := func(held []string, key string) {
		var batch []capture.RawEvent
		for _, m := range held {
			batch = append(batch, capture.Press(code(m)))
		}
		batch = append(batch, capture.Press(code(key)), capture.Release(code(key)))
		for i := len(held) - 1; i >= 0; i-- {
			batch = append(batch, capture.Release(code(held[i])))
		}
		script = append(script, batch)
		pause()
	}

	tap([]string{keys.LabelShift}, "H")
	for _, k := range []string{"E", "L", "L", "O"} {
		tap(nil, k)
	}
	tap(nil, "Space")
	tap([]string{keys.LabelCtrl}, "C")
	tap([]string{keys.LabelCtrl, keys.LabelAlt}, "Delete")
	tap([]string{table.MetaLabel()}, "Space")
	for _, k := range []string{"↑", "↑", "↓", "↓", "←", "→"} {
		tap(nil, k)
	}
	tap(nil, "Esc")
	return capture.NewReplaySource(table, script...)
}
