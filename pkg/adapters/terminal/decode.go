package terminal

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/keyseq/pkg/domain"
	"github.com/aretw0/keyseq/pkg/input"
)

const esc = 0x1b

type control int

const (
	ctrlNone control = iota
	ctrlInterrupt
	ctrlEOF
)

type decoded struct {
	event domain.KeyEvent
	ctrl  control
}

func named(name string) domain.KeyEvent {
	return domain.KeyEvent{Key: name, Code: name}
}

// csiFinal maps the final byte of parameterless CSI and SS3 sequences.
var csiFinal = map[byte]string{
	'A': "ArrowUp",
	'B': "ArrowDown",
	'C': "ArrowRight",
	'D': "ArrowLeft",
	'H': "Home",
	'F': "End",
}

var ss3Final = map[byte]string{
	'P': "F1",
	'Q': "F2",
	'R': "F3",
	'S': "F4",
}

// tildeKeys maps the numeric parameter of "ESC [ n ~" sequences.
var tildeKeys = map[int]string{
	1:  "Home",
	2:  "Insert",
	3:  "Delete",
	4:  "End",
	5:  "PageUp",
	6:  "PageDown",
	7:  "Home",
	8:  "End",
	11: "F1",
	12: "F2",
	13: "F3",
	14: "F4",
	15: "F5",
	17: "F6",
	18: "F7",
	19: "F8",
	20: "F9",
	21: "F10",
	23: "F11",
	24: "F12",
}

// decoder turns raw terminal bytes into key events. Incomplete escape
// sequences and UTF-8 runes are kept until the next chunk.
type decoder struct {
	pending []byte
}

func (d *decoder) feed(chunk []byte) []decoded {
	buf := append(d.pending, chunk...)
	d.pending = nil

	var out []decoded
	for len(buf) > 0 {
		b := buf[0]
		switch {
		case b == esc:
			if len(buf) == 1 {
				// A lone ESC at the end of a read is the Escape key itself.
				out = append(out, decoded{event: named("Escape")})
				buf = buf[1:]
				continue
			}
			ev, n, ok := parseEscape(buf)
			if n == 0 {
				d.pending = append([]byte(nil), buf...)
				return out
			}
			if ok {
				out = append(out, decoded{event: ev})
			}
			buf = buf[n:]
		case b == 0x03:
			out = append(out, decoded{ctrl: ctrlInterrupt})
			buf = buf[1:]
		case b == 0x04:
			out = append(out, decoded{ctrl: ctrlEOF})
			buf = buf[1:]
		case b == '\r' || b == '\n' || b == '\t' || b == 0x7f || b == 0x08:
			out = append(out, decoded{event: input.KeyEventForRune(rune(b))})
			buf = buf[1:]
		case b < 0x20:
			// Other control characters carry no key.
			buf = buf[1:]
		default:
			if !utf8.FullRune(buf) {
				d.pending = append([]byte(nil), buf...)
				return out
			}
			r, n := utf8.DecodeRune(buf)
			if r != utf8.RuneError {
				out = append(out, decoded{event: input.KeyEventForRune(r)})
			}
			buf = buf[n:]
		}
	}
	return out
}

// parseEscape parses the sequence at the start of buf, which begins with
// ESC and holds at least two bytes. n is zero when more bytes are needed;
// ok is false for recognized but unmapped sequences.
func parseEscape(buf []byte) (ev domain.KeyEvent, n int, ok bool) {
	switch buf[1] {
	case '[':
		i := 2
		for i < len(buf) && buf[i] >= 0x20 && buf[i] <= 0x3f {
			i++
		}
		if i >= len(buf) {
			return domain.KeyEvent{}, 0, false
		}
		final := buf[i]
		params := string(buf[2:i])
		n = i + 1
		if final == '~' {
			num := params
			if idx := strings.IndexByte(params, ';'); idx >= 0 {
				num = params[:idx]
			}
			code, err := strconv.Atoi(num)
			if err != nil {
				return domain.KeyEvent{}, n, false
			}
			name, ok := tildeKeys[code]
			if !ok {
				return domain.KeyEvent{}, n, false
			}
			return named(name), n, true
		}
		// Modified arrows ("ESC [ 1 ; 5 A") report the plain key.
		if name, ok := csiFinal[final]; ok {
			return named(name), n, true
		}
		return domain.KeyEvent{}, n, false
	case 'O':
		if len(buf) < 3 {
			return domain.KeyEvent{}, 0, false
		}
		if name, ok := csiFinal[buf[2]]; ok {
			return named(name), 3, true
		}
		if name, ok := ss3Final[buf[2]]; ok {
			return named(name), 3, true
		}
		return domain.KeyEvent{}, 3, false
	case esc:
		// Double ESC: the first one stands alone.
		return named("Escape"), 1, true
	default:
		// Alt+key: report the key without the modifier.
		if !utf8.FullRune(buf[1:]) {
			return domain.KeyEvent{}, 0, false
		}
		r, size := utf8.DecodeRune(buf[1:])
		if r < 0x20 || r == utf8.RuneError {
			return domain.KeyEvent{}, 1 + size, false
		}
		return input.KeyEventForRune(r), 1 + size, true
	}
}
