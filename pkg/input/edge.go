package input

import "github.com/aretw0/keyseq/pkg/domain"

// EdgeDetector reduces per-frame gamepad snapshots to button-down tokens.
// It is not safe for concurrent use; Sources drives it from a single goroutine.
type EdgeDetector struct {
	buttons   []string
	threshold float64
	previous  map[int][]bool
}

// NewEdgeDetector creates a detector using the given index-to-symbol table.
// A nil table selects domain.StandardButtonMap and a threshold <= 0 selects
// domain.DefaultPressThreshold.
func NewEdgeDetector(buttons []string, threshold float64) *EdgeDetector {
	if buttons == nil {
		buttons = domain.StandardButtonMap
	}
	if threshold <= 0 {
		threshold = domain.DefaultPressThreshold
	}
	return &EdgeDetector{
		buttons:   buttons,
		threshold: threshold,
		previous:  make(map[int][]bool),
	}
}

// Pressed reports whether a button counts as held down.
func (d *EdgeDetector) Pressed(b domain.Button) bool {
	return b.Pressed || b.Value > d.threshold
}

// Detect compares each connected pad with its previous snapshot and returns
// one token per button that went from released to pressed, in pad order then
// button order.
func (d *EdgeDetector) Detect(pads []domain.Gamepad) []domain.Token {
	var out []domain.Token
	for _, pad := range pads {
		if !pad.Connected {
			continue
		}
		prev, seen := d.previous[pad.Index]
		if !seen || len(prev) != len(pad.Buttons) {
			prev = make([]bool, len(pad.Buttons))
		}
		next := make([]bool, len(pad.Buttons))
		for i, b := range pad.Buttons {
			next[i] = d.Pressed(b)
			if !next[i] || prev[i] {
				continue
			}
			if sym, ok := d.symbol(i); ok {
				out = append(out, domain.Token{Symbol: sym, Source: domain.SourceGamepad})
			}
		}
		d.previous[pad.Index] = next
	}
	return out
}

// Forget drops the recorded state of every pad.
func (d *EdgeDetector) Forget() {
	clear(d.previous)
}

func (d *EdgeDetector) symbol(index int) (string, bool) {
	if index < 0 || index >= len(d.buttons) || d.buttons[index] == "" {
		return "", false
	}
	return d.buttons[index], true
}
