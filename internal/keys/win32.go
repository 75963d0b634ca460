package keys

import "strconv"

// Win32 virtual-key codes (winuser.h). Letters and digits use their ASCII
// values and are filled in by the table constructor.
const (
	vkBack     Code = 0x08
	vkTab      Code = 0x09
	vkReturn   Code = 0x0D
	vkEscape   Code = 0x1B
	vkSpace    Code = 0x20
	vkPrior    Code = 0x21
	vkNext     Code = 0x22
	vkEnd      Code = 0x23
	vkHome     Code = 0x24
	vkLeft     Code = 0x25
	vkUp       Code = 0x26
	vkRight    Code = 0x27
	vkDown     Code = 0x28
	vkDelete   Code = 0x2E
	vkLWin     Code = 0x5B
	vkRWin     Code = 0x5C
	vkF1       Code = 0x70
	vkLShift   Code = 0xA0
	vkRShift   Code = 0xA1
	vkLControl Code = 0xA2
	vkRControl Code = 0xA3
	vkLMenu    Code = 0xA4
	vkRMenu    Code = 0xA5
	vkOem1     Code = 0xBA // ;
	vkOemPlus  Code = 0xBB // =
	vkOemComma Code = 0xBC
	vkOemMinus Code = 0xBD
	vkOemDot   Code = 0xBE
	vkOem2     Code = 0xBF // /
	vkOem3     Code = 0xC0 // `
	vkOem4     Code = 0xDB // [
	vkOem5     Code = 0xDC // \
	vkOem6     Code = 0xDD // ]
	vkOem7     Code = 0xDE // '
)

// Win32 decodes virtual-key codes delivered by the low-level keyboard hook.
// The hook reports sided modifiers (VK_LSHIFT and friends), so the generic
// VK_SHIFT/VK_CONTROL/VK_MENU codes are not mapped.
var Win32 = newTable("win32", MetaWin, win32Labels(), []Code{
	vkLShift, vkRShift,
	vkLControl, vkRControl,
	vkLMenu, vkRMenu,
	vkLWin, vkRWin,
})

func win32Labels() map[Code]string {
	labels := map[Code]string{
		vkSpace:  "Space",
		vkReturn: "Enter",
		vkBack:   "Backspace",
		vkTab:    "Tab",
		vkEscape: "Esc",
		vkUp:     "↑",
		vkDown:   "↓",
		vkLeft:   "←",
		vkRight:  "→",
		vkDelete: "Delete",
		vkHome:   "Home",
		vkEnd:    "End",
		vkPrior:  "PgUp",
		vkNext:   "PgDn",

		vkLShift:   LabelShift,
		vkRShift:   LabelShift,
		vkLControl: LabelCtrl,
		vkRControl: LabelCtrl,
		vkLMenu:    LabelAlt,
		vkRMenu:    LabelAlt,
		vkLWin:     MetaWin,
		vkRWin:     MetaWin,

		vkOemMinus: "-",
		vkOemPlus:  "=",
		vkOem4:     "[",
		vkOem6:     "]",
		vkOem1:     ";",
		vkOem7:     "'",
		vkOem3:     "`",
		vkOem5:     "\\",
		vkOemComma: ",",
		vkOemDot:   ".",
		vkOem2:     "/",
	}
	for ch := 'A'; ch <= 'Z'; ch++ {
		labels[Code(ch)] = string(ch)
	}
	for ch := '0'; ch <= '9'; ch++ {
		labels[Code(ch)] = string(ch)
	}
	for i := range 12 {
		labels[vkF1+Code(i)] = "F" + strconv.Itoa(i+1)
	}
	return labels
}
