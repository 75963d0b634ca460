package hotkeys

import (
	"fmt"
	"strconv"
	"strings"
)

var modifierByName = map[string]Modifier{
	"CTRL":    ModCtrl,
	"CONTROL": ModCtrl,
	"SHIFT":   ModShift,
	"ALT":     ModAlt,
	"OPTION":  ModAlt,
	"META":    ModMeta,
	"WIN":     ModMeta,
	"SUPER":   ModMeta,
	"CMD":     ModMeta,
	"COMMAND": ModMeta,
}

// keyByName maps upper-cased key tokens to decoder display labels.
var keyByName = map[string]string{
	"SPACE":     "Space",
	"TAB":       "Tab",
	"ENTER":     "Enter",
	"RETURN":    "Enter",
	"ESC":       "Esc",
	"ESCAPE":    "Esc",
	"BACKSPACE": "Backspace",
	"DELETE":    "Delete",
	"DEL":       "Delete",
	"HOME":      "Home",
	"END":       "End",
	"PGUP":      "PgUp",
	"PAGEUP":    "PgUp",
	"PGDN":      "PgDn",
	"PAGEDOWN":  "PgDn",
	"LEFT":      "←",
	"RIGHT":     "→",
	"UP":        "↑",
	"DOWN":      "↓",
	"BACKQUOTE": "`",
	"GRAVE":     "`",
}

// ParseBinding parses a binding like "Ctrl+Shift+F12".
func ParseBinding(spec string) (Binding, error) {
	raw := strings.TrimSpace(spec)
	if raw == "" {
		return Binding{}, fmt.Errorf("hotkey spec is empty")
	}

	parts := strings.Split(raw, "+")
	if len(parts) < 2 {
		return Binding{}, fmt.Errorf("hotkey must include modifiers and key: %s", raw)
	}

	var modifiers Modifier
	for _, token := range parts[:len(parts)-1] {
		name := strings.ToUpper(strings.TrimSpace(token))
		mod, ok := modifierByName[name]
		if !ok {
			return Binding{}, fmt.Errorf("unknown modifier %q in hotkey %q", token, raw)
		}
		modifiers |= mod
	}

	key, err := parseKey(parts[len(parts)-1])
	if err != nil {
		return Binding{}, err
	}

	normalized := strings.Join(append(modifierNames(modifiers), key), "+")
	return Binding{
		modifiers:  modifiers,
		key:        key,
		normalized: normalized,
	}, nil
}

func parseKey(raw string) (string, error) {
	token := strings.ToUpper(strings.TrimSpace(raw))
	if token == "" {
		return "", fmt.Errorf("missing hotkey key token")
	}
	if label, ok := keyByName[token]; ok {
		return label, nil
	}
	if _, isMod := modifierByName[token]; isMod {
		return "", fmt.Errorf("hotkey key %q is a modifier", raw)
	}
	if len(token) == 1 {
		ch := token[0]
		switch {
		case ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
			return token, nil
		case strings.IndexByte("-=[];'`\\,./", ch) >= 0:
			return token, nil
		}
	}
	if n, ok := strings.CutPrefix(token, "F"); ok {
		if fn, err := strconv.Atoi(n); err == nil && strconv.Itoa(fn) == n && fn >= 1 && fn <= 12 {
			return token, nil
		}
	}
	return "", fmt.Errorf("unknown key %q in hotkey spec", raw)
}
