package terminal

import (
	"testing"

	"github.com/aretw0/keyseq/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func keys(ds []decoded) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		switch d.ctrl {
		case ctrlInterrupt:
			out = append(out, "^C")
		case ctrlEOF:
			out = append(out, "^D")
		default:
			out = append(out, d.event.Code)
		}
	}
	return out
}

func TestDecoder_Konami(t *testing.T) {
	var d decoder
	got := d.feed([]byte("\x1b[A\x1b[A\x1b[B\x1b[B\x1b[D\x1b[C\x1b[D\x1b[Cba"))
	assert.Equal(t, []string(domain.KonamiCode), keys(got))
	assert.Equal(t, "b", got[8].event.Key)
}

func TestDecoder_Sequences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"ss3 arrows", "\x1bOA\x1bOD", []string{"ArrowUp", "ArrowLeft"}},
		{"modified arrow", "\x1b[1;5C", []string{"ArrowRight"}},
		{"tilde keys", "\x1b[3~\x1b[5~\x1b[15~", []string{"Delete", "PageUp", "F5"}},
		{"function keys", "\x1bOP\x1bOS", []string{"F1", "F4"}},
		{"unknown csi skipped", "\x1b[99~x", []string{"KeyX"}},
		{"alt key", "\x1bq", []string{"KeyQ"}},
		{"double escape", "\x1b\x1b[A", []string{"Escape", "ArrowUp"}},
		{"lone escape", "\x1b", []string{"Escape"}},
		{"controls", "\r\t\x7f", []string{"Enter", "Tab", "Backspace"}},
		{"other controls ignored", "\x01\x02z", []string{"KeyZ"}},
		{"signals", "a\x03b\x04", []string{"KeyA", "^C", "KeyB", "^D"}},
		{"digits and space", "1 ", []string{"Digit1", "Space"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d decoder
			assert.Equal(t, tt.want, keys(d.feed([]byte(tt.in))))
		})
	}
}

func TestDecoder_SplitChunks(t *testing.T) {
	var d decoder
	assert.Empty(t, d.feed([]byte("\x1b[")))
	assert.Equal(t, []string{"ArrowUp"}, keys(d.feed([]byte("A"))))

	// "é" split across reads.
	assert.Empty(t, d.feed([]byte{0xc3}))
	got := d.feed([]byte{0xa9})
	if assert.Len(t, got, 1) {
		assert.Equal(t, "é", got[0].event.Key)
		assert.Empty(t, got[0].event.Code)
	}
}
