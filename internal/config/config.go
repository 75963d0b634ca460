package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"screenkey/internal/hotkeys"

	"go.yaml.in/yaml/v3"
)

const (
	maxConfigFileBytes int64 = 1 << 20 // 1MB
	// maxValidPort is the highest TCP port number (2^16 - 1).
	// Port 0 is valid and means "OS auto-assign".
	maxValidPort = 65535

	minPollMs  = 1
	maxPollMs  = 1000
	minHistory = 1
	maxHistory = 100

	appDirName     = "screenkey"
	configFileName = "config.yaml"
)

// Test seams.
var (
	userHomeDirFn = os.UserHomeDir
	goosFn        = func() string { return runtime.GOOS }
)

var defaultPathWarningState struct {
	mu       sync.Mutex
	messages []string
}

func recordDefaultPathWarning(message string) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return
	}
	defaultPathWarningState.mu.Lock()
	defaultPathWarningState.messages = append(defaultPathWarningState.messages, trimmed)
	defaultPathWarningState.mu.Unlock()
}

// ConsumeDefaultPathWarnings returns and clears path-resolution warnings
// accumulated during DefaultPath() calls.
func ConsumeDefaultPathWarnings() []string {
	defaultPathWarningState.mu.Lock()
	defer defaultPathWarningState.mu.Unlock()
	if len(defaultPathWarningState.messages) == 0 {
		return nil
	}
	out := make([]string, len(defaultPathWarningState.messages))
	copy(out, defaultPathWarningState.messages)
	defaultPathWarningState.messages = nil
	return out
}

// CaptureConfig tunes the capture loop.
type CaptureConfig struct {
	// ActivePollMs is the sleep after a poll that returned events.
	ActivePollMs int `yaml:"active_poll_ms" json:"active_poll_ms"`
	// IdlePollMs is the sleep after an empty poll. Never below ActivePollMs.
	IdlePollMs  int  `yaml:"idle_poll_ms" json:"idle_poll_ms"`
	EmitRepeats bool `yaml:"emit_repeats" json:"emit_repeats"`
	// DeviceFilter limits evdev devices by case-insensitive name substring.
	DeviceFilter []string `yaml:"device_filter,omitempty" json:"device_filter,omitempty"`
}

// OverlayConfig controls the presentation window.
type OverlayConfig struct {
	// History is how many recent keys are retained for GetRecentKeys.
	History int `yaml:"history" json:"history"`
	// AlwaysOnTopIntervalMs is how often always-on-top is re-asserted.
	// 0 uses the default; a negative value disables the keeper.
	AlwaysOnTopIntervalMs int `yaml:"always_on_top_interval_ms" json:"always_on_top_interval_ms"`
}

// WebSocketConfig controls the optional broadcast endpoint.
type WebSocketConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Port 0 (default) lets the OS assign an available port.
	Port int `yaml:"port" json:"port"`
}

// Config is screenkey runtime configuration. The file is only ever read.
type Config struct {
	LogLevel    string          `yaml:"log_level" json:"log_level"`
	PauseHotkey string          `yaml:"pause_hotkey" json:"pause_hotkey"`
	Capture     CaptureConfig   `yaml:"capture" json:"capture"`
	Overlay     OverlayConfig   `yaml:"overlay" json:"overlay"`
	WebSocket   WebSocketConfig `yaml:"websocket" json:"websocket"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		LogLevel:    "info",
		PauseHotkey: "Ctrl+Alt+K",
		Capture: CaptureConfig{
			ActivePollMs: 1,
			IdlePollMs:   10,
		},
		Overlay: OverlayConfig{
			History:               5,
			AlwaysOnTopIntervalMs: 2000,
		},
	}
}

// DefaultPath resolves the config file path. Windows uses APPDATA; other
// platforms use XDG_CONFIG_HOME, then ~/.config, then os.TempDir() if the
// home directory cannot be resolved.
func DefaultPath() string {
	var base string
	if goosFn() == "windows" {
		base = strings.TrimSpace(os.Getenv("APPDATA"))
	} else {
		base = strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME"))
	}
	if base == "" {
		home, err := userHomeDirFn()
		if err != nil {
			slog.Warn("[WARN-CONFIG] using temp dir as config path fallback", "error", err)
			recordDefaultPathWarning(
				"Config path fallback: failed to resolve the config or home directory. Using temp directory.",
			)
			base = os.TempDir()
		} else {
			base = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(base, appDirName, configFileName)
}

// Load reads the config file. A missing or empty file yields defaults.
// On a parse or validation error the returned Config is still usable:
// defaults for a parse error, the normalized values otherwise.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, errors.New("config path required")
	}

	raw, err := readLimitedFile(path, maxConfigFileBytes)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		slog.Warn("[WARN-CONFIG] failed to parse config, using defaults", "path", path, "error", err)
		return DefaultConfig(), fmt.Errorf("parse %s: %w", path, err)
	}
	if err := applyDefaultsAndValidate(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Clone returns a deep copy of cfg.
func Clone(src Config) Config {
	dst := src
	if src.Capture.DeviceFilter != nil {
		dst.Capture.DeviceFilter = make([]string, len(src.Capture.DeviceFilter))
		copy(dst.Capture.DeviceFilter, src.Capture.DeviceFilter)
	}
	return dst
}

// SlogLevel converts LogLevel to a slog.Level. Call only on a validated Config.
func (c Config) SlogLevel() slog.Level {
	level, _ := parseLogLevel(c.LogLevel)
	return level
}

// ActiveInterval returns Capture.ActivePollMs as a duration.
func (c Config) ActiveInterval() time.Duration {
	return time.Duration(c.Capture.ActivePollMs) * time.Millisecond
}

// IdleInterval returns Capture.IdlePollMs as a duration.
func (c Config) IdleInterval() time.Duration {
	return time.Duration(c.Capture.IdlePollMs) * time.Millisecond
}

// AlwaysOnTopInterval returns the keeper period, or 0 when disabled.
func (c Config) AlwaysOnTopInterval() time.Duration {
	if c.Overlay.AlwaysOnTopIntervalMs <= 0 {
		return 0
	}
	return time.Duration(c.Overlay.AlwaysOnTopIntervalMs) * time.Millisecond
}

// applyDefaultsAndValidate fills missing defaults and validates cfg in-place.
// Out-of-range numbers are clamped with a warning. An unknown log level or
// an unparsable pause hotkey is an error; the field is reset to its default.
// MUTATES: cfg is directly modified.
func applyDefaultsAndValidate(cfg *Config) error {
	defaults := DefaultConfig()
	var errs []error

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}
	if _, ok := parseLogLevel(cfg.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("unknown log_level %q (want debug, info, warn or error)", cfg.LogLevel))
		cfg.LogLevel = defaults.LogLevel
	}

	cfg.PauseHotkey = strings.TrimSpace(cfg.PauseHotkey)
	if cfg.PauseHotkey != "" {
		binding, err := hotkeys.ParseBinding(cfg.PauseHotkey)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid pause_hotkey: %w", err))
			cfg.PauseHotkey = defaults.PauseHotkey
		} else {
			cfg.PauseHotkey = binding.Normalized()
		}
	}

	validateCapture(&cfg.Capture, defaults.Capture)
	validateOverlay(&cfg.Overlay, defaults.Overlay)
	validateWebSocketPort(&cfg.WebSocket)

	return errors.Join(errs...)
}

func validateCapture(c *CaptureConfig, defaults CaptureConfig) {
	if c.ActivePollMs == 0 {
		c.ActivePollMs = defaults.ActivePollMs
	}
	if c.IdlePollMs == 0 {
		c.IdlePollMs = defaults.IdlePollMs
	}
	c.ActivePollMs = clampInt("capture.active_poll_ms", c.ActivePollMs, minPollMs, maxPollMs)
	c.IdlePollMs = clampInt("capture.idle_poll_ms", c.IdlePollMs, minPollMs, maxPollMs)
	if c.IdlePollMs < c.ActivePollMs {
		slog.Warn("[WARN-CONFIG] capture.idle_poll_ms below active_poll_ms, raising it",
			"idle", c.IdlePollMs, "active", c.ActivePollMs)
		c.IdlePollMs = c.ActivePollMs
	}

	filter := c.DeviceFilter[:0:0]
	for _, entry := range c.DeviceFilter {
		if trimmed := strings.TrimSpace(entry); trimmed != "" {
			filter = append(filter, trimmed)
		}
	}
	if len(filter) == 0 {
		filter = nil
	}
	c.DeviceFilter = filter
}

func validateOverlay(o *OverlayConfig, defaults OverlayConfig) {
	if o.History == 0 {
		o.History = defaults.History
	}
	o.History = clampInt("overlay.history", o.History, minHistory, maxHistory)
	if o.AlwaysOnTopIntervalMs == 0 {
		o.AlwaysOnTopIntervalMs = defaults.AlwaysOnTopIntervalMs
	}
}

// validateWebSocketPort resets an out-of-range port to 0 (auto-assign) so a
// misconfigured file never prevents startup.
func validateWebSocketPort(ws *WebSocketConfig) {
	if ws.Port < 0 || ws.Port > maxValidPort {
		slog.Warn("[WARN-CONFIG] websocket.port out of valid range (0-65535), falling back to 0 (auto-assign)",
			"configured", ws.Port, "max", maxValidPort)
		ws.Port = 0
	}
}

func clampInt(field string, v, lo, hi int) int {
	switch {
	case v < lo:
		slog.Warn("[WARN-CONFIG] value below minimum, clamping", "field", field, "configured", v, "min", lo)
		return lo
	case v > hi:
		slog.Warn("[WARN-CONFIG] value above maximum, clamping", "field", field, "configured", v, "max", hi)
		return hi
	default:
		return v
	}
}

func parseLogLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

func readLimitedFile(path string, maxBytes int64) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path %s is a directory", path)
	}

	limited := io.LimitReader(file, maxBytes+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > maxBytes {
		return nil, fmt.Errorf("config file exceeds %d bytes", maxBytes)
	}
	return raw, nil
}
