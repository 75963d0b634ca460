//go:build windows

package main

import (
	"log/slog"

	"golang.org/x/sys/windows"
)

const cpUTF8 = 65001

var (
	kernel32            = windows.NewLazySystemDLL("kernel32.dll")
	procSetConsoleOutCP = kernel32.NewProc("SetConsoleOutputCP")
	procSetConsoleCP    = kernel32.NewProc("SetConsoleCP")
)

// setConsoleUTF8 switches an attached console to UTF-8 so arrow glyphs in
// debug logs render. Without a console both calls fail harmlessly.
func setConsoleUTF8() {
	if r, _, err := procSetConsoleOutCP.Call(cpUTF8); r == 0 {
		slog.Debug("[console] SetConsoleOutputCP failed", "error", err)
	}
	if r, _, err := procSetConsoleCP.Call(cpUTF8); r == 0 {
		slog.Debug("[console] SetConsoleCP failed", "error", err)
	}
}
