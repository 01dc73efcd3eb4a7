package input

import (
	"strings"
	"unicode"

	"github.com/aretw0/keyseq/pkg/domain"
)

var punctuationCodes = map[rune]string{
	' ':  "Space",
	'-':  "Minus",
	'_':  "Minus",
	'=':  "Equal",
	'+':  "Equal",
	'[':  "BracketLeft",
	'{':  "BracketLeft",
	']':  "BracketRight",
	'}':  "BracketRight",
	'\\': "Backslash",
	'|':  "Backslash",
	';':  "Semicolon",
	':':  "Semicolon",
	'\'': "Quote",
	'"':  "Quote",
	',':  "Comma",
	'<':  "Comma",
	'.':  "Period",
	'>':  "Period",
	'/':  "Slash",
	'?':  "Slash",
	'`':  "Backquote",
	'~':  "Backquote",
	'!':  "Digit1",
	'@':  "Digit2",
	'#':  "Digit3",
	'$':  "Digit4",
	'%':  "Digit5",
	'^':  "Digit6",
	'&':  "Digit7",
	'*':  "Digit8",
	'(':  "Digit9",
	')':  "Digit0",
}

// namedKeys maps lower-cased aliases to browser-style key names.
// For these keys Key and Code are identical.
var namedKeys = map[string]string{
	"up":         "ArrowUp",
	"arrowup":    "ArrowUp",
	"down":       "ArrowDown",
	"arrowdown":  "ArrowDown",
	"left":       "ArrowLeft",
	"arrowleft":  "ArrowLeft",
	"right":      "ArrowRight",
	"arrowright": "ArrowRight",
	"enter":      "Enter",
	"return":     "Enter",
	"tab":        "Tab",
	"esc":        "Escape",
	"escape":     "Escape",
	"backspace":  "Backspace",
	"delete":     "Delete",
	"insert":     "Insert",
	"home":       "Home",
	"end":        "End",
	"pgup":       "PageUp",
	"pageup":     "PageUp",
	"pgdown":     "PageDown",
	"pagedown":   "PageDown",
	"f1":         "F1",
	"f2":         "F2",
	"f3":         "F3",
	"f4":         "F4",
	"f5":         "F5",
	"f6":         "F6",
	"f7":         "F7",
	"f8":         "F8",
	"f9":         "F9",
	"f10":        "F10",
	"f11":        "F11",
	"f12":        "F12",
}

// KeyEventForRune builds the browser-style event a US layout produces for r.
func KeyEventForRune(r rune) domain.KeyEvent {
	switch {
	case r >= 'a' && r <= 'z':
		return domain.KeyEvent{Key: string(r), Code: "Key" + string(unicode.ToUpper(r))}
	case r >= 'A' && r <= 'Z':
		return domain.KeyEvent{Key: string(r), Code: "Key" + string(r)}
	case r >= '0' && r <= '9':
		return domain.KeyEvent{Key: string(r), Code: "Digit" + string(r)}
	case r == '\r' || r == '\n':
		return domain.KeyEvent{Key: "Enter", Code: "Enter"}
	case r == '\t':
		return domain.KeyEvent{Key: "Tab", Code: "Tab"}
	case r == 0x1b:
		return domain.KeyEvent{Key: "Escape", Code: "Escape"}
	case r == 0x7f || r == 0x08:
		return domain.KeyEvent{Key: "Backspace", Code: "Backspace"}
	}
	if code, ok := punctuationCodes[r]; ok {
		return domain.KeyEvent{Key: string(r), Code: code}
	}
	return domain.KeyEvent{Key: string(r)}
}

// KeyEventForName resolves a key name such as "up", "ArrowUp", "enter",
// "KeyB", "Digit1" or a single character.
func KeyEventForName(name string) (domain.KeyEvent, bool) {
	if name == "" {
		return domain.KeyEvent{}, false
	}
	if runes := []rune(name); len(runes) == 1 {
		return KeyEventForRune(runes[0]), true
	}
	if strings.EqualFold(name, "space") {
		return domain.KeyEvent{Key: " ", Code: "Space"}, true
	}
	if key, ok := namedKeys[strings.ToLower(name)]; ok {
		return domain.KeyEvent{Key: key, Code: key}, true
	}
	if rest, ok := strings.CutPrefix(name, "Key"); ok && len(rest) == 1 && rest[0] >= 'A' && rest[0] <= 'Z' {
		return domain.KeyEvent{Key: strings.ToLower(rest), Code: name}, true
	}
	if rest, ok := strings.CutPrefix(name, "Digit"); ok && len(rest) == 1 && rest[0] >= '0' && rest[0] <= '9' {
		return domain.KeyEvent{Key: rest, Code: name}, true
	}
	return domain.KeyEvent{}, false
}
