package keys

// Linux input event codes (linux/input-event-codes.h).
const (
	evKeyEsc        Code = 1
	evKey1          Code = 2
	evKey2          Code = 3
	evKey3          Code = 4
	evKey4          Code = 5
	evKey5          Code = 6
	evKey6          Code = 7
	evKey7          Code = 8
	evKey8          Code = 9
	evKey9          Code = 10
	evKey0          Code = 11
	evKeyMinus      Code = 12
	evKeyEqual      Code = 13
	evKeyBackspace  Code = 14
	evKeyTab        Code = 15
	evKeyQ          Code = 16
	evKeyW          Code = 17
	evKeyE          Code = 18
	evKeyR          Code = 19
	evKeyT          Code = 20
	evKeyY          Code = 21
	evKeyU          Code = 22
	evKeyI          Code = 23
	evKeyO          Code = 24
	evKeyP          Code = 25
	evKeyLeftBrace  Code = 26
	evKeyRightBrace Code = 27
	evKeyEnter      Code = 28
	evKeyLeftCtrl   Code = 29
	evKeyA          Code = 30
	evKeyS          Code = 31
	evKeyD          Code = 32
	evKeyF          Code = 33
	evKeyG          Code = 34
	evKeyH          Code = 35
	evKeyJ          Code = 36
	evKeyK          Code = 37
	evKeyL          Code = 38
	evKeySemicolon  Code = 39
	evKeyApostrophe Code = 40
	evKeyGrave      Code = 41
	evKeyLeftShift  Code = 42
	evKeyBackslash  Code = 43
	evKeyZ          Code = 44
	evKeyX          Code = 45
	evKeyC          Code = 46
	evKeyV          Code = 47
	evKeyB          Code = 48
	evKeyN          Code = 49
	evKeyM          Code = 50
	evKeyComma      Code = 51
	evKeyDot        Code = 52
	evKeySlash      Code = 53
	evKeyRightShift Code = 54
	evKeyLeftAlt    Code = 56
	evKeySpace      Code = 57
	evKeyF1         Code = 59
	evKeyF2         Code = 60
	evKeyF3         Code = 61
	evKeyF4         Code = 62
	evKeyF5         Code = 63
	evKeyF6         Code = 64
	evKeyF7         Code = 65
	evKeyF8         Code = 66
	evKeyF9         Code = 67
	evKeyF10        Code = 68
	evKeyF11        Code = 87
	evKeyF12        Code = 88
	evKeyRightCtrl  Code = 97
	evKeyRightAlt   Code = 100
	evKeyHome       Code = 102
	evKeyUp         Code = 103
	evKeyPageUp     Code = 104
	evKeyLeft       Code = 105
	evKeyRight      Code = 106
	evKeyEnd        Code = 107
	evKeyDown       Code = 108
	evKeyPageDown   Code = 109
	evKeyDelete     Code = 111
	evKeyLeftMeta   Code = 125
	evKeyRightMeta  Code = 126
)

// EvdevKeyA is KEY_A. Sources use it to tell keyboards apart from other
// devices that report EV_KEY (power buttons, mice).
const EvdevKeyA = evKeyA

// Evdev decodes Linux evdev key codes.
var Evdev = newTable("evdev", MetaSuper, map[Code]string{
	evKeyA: "A", evKeyB: "B", evKeyC: "C", evKeyD: "D", evKeyE: "E",
	evKeyF: "F", evKeyG: "G", evKeyH: "H", evKeyI: "I", evKeyJ: "J",
	evKeyK: "K", evKeyL: "L", evKeyM: "M", evKeyN: "N", evKeyO: "O",
	evKeyP: "P", evKeyQ: "Q", evKeyR: "R", evKeyS: "S", evKeyT: "T",
	evKeyU: "U", evKeyV: "V", evKeyW: "W", evKeyX: "X", evKeyY: "Y",
	evKeyZ: "Z",

	evKey0: "0", evKey1: "1", evKey2: "2", evKey3: "3", evKey4: "4",
	evKey5: "5", evKey6: "6", evKey7: "7", evKey8: "8", evKey9: "9",

	evKeySpace:     "Space",
	evKeyEnter:     "Enter",
	evKeyBackspace: "Backspace",
	evKeyTab:       "Tab",
	evKeyEsc:       "Esc",
	evKeyUp:        "↑",
	evKeyDown:      "↓",
	evKeyLeft:      "←",
	evKeyRight:     "→",
	evKeyDelete:    "Delete",
	evKeyHome:      "Home",
	evKeyEnd:       "End",
	evKeyPageUp:    "PgUp",
	evKeyPageDown:  "PgDn",

	evKeyF1: "F1", evKeyF2: "F2", evKeyF3: "F3", evKeyF4: "F4",
	evKeyF5: "F5", evKeyF6: "F6", evKeyF7: "F7", evKeyF8: "F8",
	evKeyF9: "F9", evKeyF10: "F10", evKeyF11: "F11", evKeyF12: "F12",

	evKeyLeftShift:  LabelShift,
	evKeyRightShift: LabelShift,
	evKeyLeftCtrl:   LabelCtrl,
	evKeyRightCtrl:  LabelCtrl,
	evKeyLeftAlt:    LabelAlt,
	evKeyRightAlt:   LabelAlt,
	evKeyLeftMeta:   MetaSuper,
	evKeyRightMeta:  MetaSuper,

	evKeyMinus:      "-",
	evKeyEqual:      "=",
	evKeyLeftBrace:  "[",
	evKeyRightBrace: "]",
	evKeySemicolon:  ";",
	evKeyApostrophe: "'",
	evKeyGrave:      "`",
	evKeyBackslash:  "\\",
	evKeyComma:      ",",
	evKeyDot:        ".",
	evKeySlash:      "/",
}, []Code{
	evKeyLeftShift, evKeyRightShift,
	evKeyLeftCtrl, evKeyRightCtrl,
	evKeyLeftAlt, evKeyRightAlt,
	evKeyLeftMeta, evKeyRightMeta,
})
