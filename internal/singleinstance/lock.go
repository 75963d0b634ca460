// Package singleinstance keeps one overlay running per user.
package singleinstance

import (
	"errors"
	"os"
	"os/user"
	"regexp"
	"strings"
)

// ErrAlreadyRunning is returned by TryLock when another instance holds the lock.
var ErrAlreadyRunning = errors.New("another instance is already running")

const namePrefix = "screenkey-"

var invalidNameRune = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// sanitizeUsername makes value safe for mutex and file names.
func sanitizeUsername(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return invalidNameRune.ReplaceAllString(value, "_")
}

func currentUsername() string {
	for _, key := range []string{"USERNAME", "USER"} {
		if name := strings.TrimSpace(os.Getenv(key)); name != "" {
			return name
		}
	}
	if current, err := user.Current(); err == nil {
		return current.Username
	}
	return ""
}

// DefaultName returns the per-user lock name passed to TryLock.
func DefaultName() string {
	return namePrefix + sanitizeUsername(currentUsername())
}
