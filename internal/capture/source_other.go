//go:build !linux && !windows && !(darwin && cgo)

package capture

import (
	"context"

	"screenkey/internal/keys"
)

// NewPlatformSource returns a source whose Open always fails with ErrUnsupported.
func NewPlatformSource(SourceOptions) Source {
	return unsupportedSource{}
}

type unsupportedSource struct{}

func (unsupportedSource) Name() string       { return "unsupported" }
func (unsupportedSource) Table() *keys.Table { return keys.Evdev }

func (unsupportedSource) Open(context.Context) (Stream, error) {
	return nil, ErrUnsupported
}
