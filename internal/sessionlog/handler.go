// Package sessionlog mirrors warn and error slog records into an in-memory
// log that the overlay can display.
package sessionlog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"
	"time"
)

// Record is what TeeHandler hands to its callback.
// Group is the accumulated dot-separated slog group (empty at top level).
// Detail renders the record's attributes, including those added via
// WithAttrs, as space-separated key=value pairs.
type Record struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Group   string
	Detail  string
}

// EntryCallback is invoked for each log record at or above the capture threshold.
type EntryCallback func(Record)

// TeeHandler wraps a base [slog.Handler] and tees records at or above minLevel
// to a callback. The base handler only sees records it is enabled for, so a
// quiet base level never hides warnings from the callback.
type TeeHandler struct {
	base     slog.Handler
	callback EntryCallback
	minLevel slog.Level
	group    string
	attrs    []string // pre-rendered WithAttrs pairs
}

// NewTeeHandler creates a TeeHandler that delegates to base and invokes callback
// for every record whose level is >= minLevel. A nil callback only delegates.
func NewTeeHandler(base slog.Handler, minLevel slog.Level, callback EntryCallback) *TeeHandler {
	return &TeeHandler{
		base:     base,
		callback: callback,
		minLevel: minLevel,
	}
}

// Enabled reports whether either the callback or the base handler wants level.
func (h *TeeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return (h.callback != nil && level >= h.minLevel) || h.base.Enabled(ctx, level)
}

// Handle forwards the record to the base handler, then invokes the callback
// if the record's level meets minLevel. The callback runs even when the base
// handler fails.
func (h *TeeHandler) Handle(ctx context.Context, record slog.Record) error {
	var err error
	if h.base.Enabled(ctx, record.Level) {
		err = h.base.Handle(ctx, record)
	}

	if h.callback != nil && record.Level >= h.minLevel {
		rec := Record{
			Time:    record.Time,
			Level:   record.Level,
			Message: record.Message,
			Group:   h.group,
			Detail:  h.renderDetail(record),
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					// stderr, not slog: logging here would re-enter this handler.
					fmt.Fprintf(os.Stderr, "[session-log] callback panicked: %v\n%s\n", r, debug.Stack())
				}
			}()
			h.callback(rec)
		}()
	}

	return err
}

func (h *TeeHandler) renderDetail(record slog.Record) string {
	if len(h.attrs) == 0 && record.NumAttrs() == 0 {
		return ""
	}
	parts := make([]string, 0, len(h.attrs)+record.NumAttrs())
	parts = append(parts, h.attrs...)
	record.Attrs(func(a slog.Attr) bool {
		parts = appendAttr(parts, h.group, a)
		return true
	})
	return strings.Join(parts, " ")
}

func appendAttr(parts []string, prefix string, a slog.Attr) []string {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return parts
	}
	key := a.Key
	if prefix != "" && key != "" {
		key = prefix + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			parts = appendAttr(parts, key, ga)
		}
		return parts
	}
	return append(parts, key+"="+a.Value.String())
}

// WithAttrs returns a new TeeHandler whose base handler has the given attributes
// applied. The callback, minLevel, and accumulated group are preserved.
func (h *TeeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	rendered := make([]string, len(h.attrs), len(h.attrs)+len(attrs))
	copy(rendered, h.attrs)
	for _, a := range attrs {
		rendered = appendAttr(rendered, h.group, a)
	}
	return &TeeHandler{
		base:     h.base.WithAttrs(attrs),
		callback: h.callback,
		minLevel: h.minLevel,
		group:    h.group,
		attrs:    rendered,
	}
}

// WithGroup returns a new TeeHandler whose base handler is wrapped with the
// given group name, appended to the accumulated group with ".".
func (h *TeeHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newGroup := name
	if h.group != "" {
		newGroup = h.group + "." + name
	}
	return &TeeHandler{
		base:     h.base.WithGroup(name),
		callback: h.callback,
		minLevel: h.minLevel,
		group:    newGroup,
		attrs:    h.attrs,
	}
}
