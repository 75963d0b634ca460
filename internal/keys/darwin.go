package keys

// macOS virtual keycodes (HIToolbox Events.h, kVK_*). These are positional
// (ANSI layout) and unrelated to ASCII.
const (
	macA            Code = 0x00
	macS            Code = 0x01
	macD            Code = 0x02
	macF            Code = 0x03
	macH            Code = 0x04
	macG            Code = 0x05
	macZ            Code = 0x06
	macX            Code = 0x07
	macC            Code = 0x08
	macV            Code = 0x09
	macB            Code = 0x0B
	macQ            Code = 0x0C
	macW            Code = 0x0D
	macE            Code = 0x0E
	macR            Code = 0x0F
	macY            Code = 0x10
	macT            Code = 0x11
	mac1            Code = 0x12
	mac2            Code = 0x13
	mac3            Code = 0x14
	mac4            Code = 0x15
	mac6            Code = 0x16
	mac5            Code = 0x17
	macEqual        Code = 0x18
	mac9            Code = 0x19
	mac7            Code = 0x1A
	macMinus        Code = 0x1B
	mac8            Code = 0x1C
	mac0            Code = 0x1D
	macRightBracket Code = 0x1E
	macO            Code = 0x1F
	macU            Code = 0x20
	macLeftBracket  Code = 0x21
	macI            Code = 0x22
	macP            Code = 0x23
	macReturn       Code = 0x24
	macL            Code = 0x25
	macJ            Code = 0x26
	macQuote        Code = 0x27
	macK            Code = 0x28
	macSemicolon    Code = 0x29
	macBackslash    Code = 0x2A
	macComma        Code = 0x2B
	macSlash        Code = 0x2C
	macN            Code = 0x2D
	macM            Code = 0x2E
	macPeriod       Code = 0x2F
	macTab          Code = 0x30
	macSpace        Code = 0x31
	macGrave        Code = 0x32
	macDelete       Code = 0x33 // backspace
	macEscape       Code = 0x35
	macRightCommand Code = 0x36
	macCommand      Code = 0x37
	macShift        Code = 0x38
	macOption       Code = 0x3A
	macControl      Code = 0x3B
	macRightShift   Code = 0x3C
	macRightOption  Code = 0x3D
	macRightControl Code = 0x3E
	macF5           Code = 0x60
	macF6           Code = 0x61
	macF7           Code = 0x62
	macF3           Code = 0x63
	macF8           Code = 0x64
	macF9           Code = 0x65
	macF11          Code = 0x67
	macF10          Code = 0x6D
	macF12          Code = 0x6F
	macHome         Code = 0x73
	macPageUp       Code = 0x74
	macForwardDel   Code = 0x75
	macF4           Code = 0x76
	macEnd          Code = 0x77
	macF2           Code = 0x78
	macPageDown     Code = 0x79
	macF1           Code = 0x7A
	macLeftArrow    Code = 0x7B
	macRightArrow   Code = 0x7C
	macDownArrow    Code = 0x7D
	macUpArrow      Code = 0x7E
)

// Darwin decodes macOS virtual keycodes from a CGEventTap.
var Darwin = newTable("darwin", MetaCmd, map[Code]string{
	macA: "A", macB: "B", macC: "C", macD: "D", macE: "E",
	macF: "F", macG: "G", macH: "H", macI: "I", macJ: "J",
	macK: "K", macL: "L", macM: "M", macN: "N", macO: "O",
	macP: "P", macQ: "Q", macR: "R", macS: "S", macT: "T",
	macU: "U", macV: "V", macW: "W", macX: "X", macY: "Y",
	macZ: "Z",

	mac0: "0", mac1: "1", mac2: "2", mac3: "3", mac4: "4",
	mac5: "5", mac6: "6", mac7: "7", mac8: "8", mac9: "9",

	macSpace:      "Space",
	macReturn:     "Enter",
	macDelete:     "Backspace",
	macTab:        "Tab",
	macEscape:     "Esc",
	macUpArrow:    "↑",
	macDownArrow:  "↓",
	macLeftArrow:  "←",
	macRightArrow: "→",
	macForwardDel: "Delete",
	macHome:       "Home",
	macEnd:        "End",
	macPageUp:     "PgUp",
	macPageDown:   "PgDn",

	macF1: "F1", macF2: "F2", macF3: "F3", macF4: "F4",
	macF5: "F5", macF6: "F6", macF7: "F7", macF8: "F8",
	macF9: "F9", macF10: "F10", macF11: "F11", macF12: "F12",

	macShift:        LabelShift,
	macRightShift:   LabelShift,
	macControl:      LabelCtrl,
	macRightControl: LabelCtrl,
	macOption:       LabelAlt,
	macRightOption:  LabelAlt,
	macCommand:      MetaCmd,
	macRightCommand: MetaCmd,

	macMinus:        "-",
	macEqual:        "=",
	macLeftBracket:  "[",
	macRightBracket: "]",
	macSemicolon:    ";",
	macQuote:        "'",
	macGrave:        "`",
	macBackslash:    "\\",
	macComma:        ",",
	macPeriod:       ".",
	macSlash:        "/",
}, []Code{
	macShift, macRightShift,
	macControl, macRightControl,
	macOption, macRightOption,
	macCommand, macRightCommand,
})

// DarwinModifierFlag returns the CGEventFlags bit that is set while the
// modifier with the given keycode is held. FlagsChanged events carry no
// up/down state, so the tap compares this bit against the event flags.
func DarwinModifierFlag(code Code) (uint64, bool) {
	switch code {
	case macShift, macRightShift:
		return 1 << 17, true // kCGEventFlagMaskShift
	case macControl, macRightControl:
		return 1 << 18, true // kCGEventFlagMaskControl
	case macOption, macRightOption:
		return 1 << 19, true // kCGEventFlagMaskAlternate
	case macCommand, macRightCommand:
		return 1 << 20, true // kCGEventFlagMaskCommand
	default:
		return 0, false
	}
}
