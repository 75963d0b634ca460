//go:build linux

package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"screenkey/internal/keys"

	"github.com/fsnotify/fsnotify"
	"github.com/holoplot/go-evdev"
)

const (
	inputDir = "/dev/input"

	// udev applies group permissions shortly after the node appears.
	hotplugOpenAttempts = 5
	hotplugOpenDelay    = 100 * time.Millisecond
)

// NewPlatformSource returns the evdev source.
func NewPlatformSource(opts SourceOptions) Source {
	return &evdevSource{opts: opts}
}

type evdevSource struct {
	opts SourceOptions
}

func (s *evdevSource) Name() string       { return "evdev" }
func (s *evdevSource) Table() *keys.Table { return keys.Evdev }

func (s *evdevSource) Open(ctx context.Context) (Stream, error) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, fmt.Errorf("list input devices: %w", err)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	st := &evdevStream{
		filter:  slices.Clone(s.opts.DeviceFilter),
		queue:   newEventQueue(s.opts.queueSize()),
		devices: make(map[string]*evdev.InputDevice),
		cancel:  cancel,
	}
	for _, p := range paths {
		_, _ = st.attach(p.Path)
	}
	if st.deviceCount() == 0 {
		cancel()
		return nil, fmt.Errorf("%w: run with sudo or join the input group", ErrNoDevices)
	}

	if watcher, watchErr := fsnotify.NewWatcher(); watchErr != nil {
		slog.Warn("[evdev] hotplug disabled, watcher create failed", "error", watchErr)
	} else if addErr := watcher.Add(inputDir); addErr != nil {
		slog.Warn("[evdev] hotplug disabled, watch failed", "dir", inputDir, "error", addErr)
		_ = watcher.Close()
	} else {
		st.watcher = watcher
		st.wg.Go(func() { st.watchHotplug(streamCtx) })
	}
	return st, nil
}

type evdevStream struct {
	filter []string
	queue  *eventQueue
	cancel context.CancelFunc

	mu      sync.Mutex
	devices map[string]*evdev.InputDevice
	closed  bool

	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
}

// Dropped reports raw events lost to queue overflow.
func (s *evdevStream) Dropped() uint64 { return s.queue.Dropped() }

func (s *evdevStream) Poll(dst []RawEvent) ([]RawEvent, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return dst, ErrStreamClosed
	}
	return s.queue.drain(dst), nil
}

func (s *evdevStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	devices := s.devices
	s.devices = map[string]*evdev.InputDevice{}
	s.mu.Unlock()

	s.cancel()
	var errs []error
	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close watcher: %w", err))
		}
	}
	for path, dev := range devices {
		if err := dev.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", path, err))
		}
	}
	s.wg.Wait()
	return errors.Join(errs...)
}

func (s *evdevStream) deviceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.devices)
}

// attach opens path and starts a reader if it is a keyboard passing the
// filter. It reports whether the device was attached; err is the open error.
func (s *evdevStream) attach(path string) (bool, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		slog.Debug("[evdev] open failed", "path", path, "error", err)
		return false, err
	}
	name, _ := dev.Name()
	if !isKeyboard(dev) || !matchesDeviceFilter(name, s.filter) {
		_ = dev.Close()
		return false, nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = dev.Close()
		return false, nil
	}
	if _, exists := s.devices[path]; exists {
		s.mu.Unlock()
		_ = dev.Close()
		return false, nil
	}
	s.devices[path] = dev
	s.mu.Unlock()

	slog.Info("[evdev] keyboard attached", "path", path, "name", name)
	s.wg.Go(func() { s.readDevice(path, dev) })
	return true, nil
}

func (s *evdevStream) detach(path string, dev *evdev.InputDevice) {
	s.mu.Lock()
	current, ok := s.devices[path]
	if ok && current == dev {
		delete(s.devices, path)
	}
	closed := s.closed
	s.mu.Unlock()
	if ok && current == dev {
		_ = dev.Close()
		if !closed {
			slog.Info("[evdev] keyboard detached", "path", path)
		}
	}
}

func (s *evdevStream) readDevice(path string, dev *evdev.InputDevice) {
	for {
		ev, err := dev.ReadOne()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if !closed {
				slog.Warn("[evdev] device read failed", "path", path, "error", err)
			}
			s.detach(path, dev)
			return
		}
		if ev.Type != evdev.EV_KEY {
			continue
		}
		action, ok := actionFromEvdevValue(ev.Value)
		if !ok {
			continue
		}
		if !s.queue.push(RawEvent{Code: keys.Code(ev.Code), Action: action}) {
			slog.Debug("[evdev] queue full, event dropped", "path", path)
		}
	}
}

func (s *evdevStream) watchHotplug(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if !isEventNode(event.Name) {
				continue
			}
			switch {
			case event.Has(fsnotify.Create):
				s.attachWithRetry(ctx, event.Name)
			case event.Has(fsnotify.Remove):
				s.mu.Lock()
				dev := s.devices[event.Name]
				s.mu.Unlock()
				if dev != nil {
					s.detach(event.Name, dev)
				}
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("[evdev] hotplug watcher error", "error", err)
		}
	}
}

func (s *evdevStream) attachWithRetry(ctx context.Context, path string) {
	for range hotplugOpenAttempts {
		_, err := s.attach(path)
		if !errors.Is(err, os.ErrPermission) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(hotplugOpenDelay):
		}
	}
}

// isKeyboard keeps devices that can type letters. Power buttons, lid
// switches and mice also report EV_KEY.
func isKeyboard(dev *evdev.InputDevice) bool {
	for _, c := range dev.CapableEvents(evdev.EV_KEY) {
		if keys.Code(c) == keys.EvdevKeyA {
			return true
		}
	}
	return false
}
