package domain

// Source identifies the device family a token came from.
type Source string

const (
	SourceKeyboard Source = "keyboard"
	SourceGamepad  Source = "gamepad"
)

// Token is one normalized input activation.
// Alt is the secondary representation of the same key (the physical code for
// keyboards); an empty Alt means there is none.
type Token struct {
	Symbol string `json:"symbol"`
	Alt    string `json:"alt,omitempty"`
	Source Source `json:"source"`
}

// Matches reports whether the token stands for the expected symbol.
func (t Token) Matches(expected string) bool {
	return t.Symbol == expected || (t.Alt != "" && t.Alt == expected)
}

// KeyEvent is a raw keyboard press: Key is the produced symbol ("b",
// "ArrowUp"), Code the physical key ("KeyB", "ArrowUp").
type KeyEvent struct {
	Key  string `json:"key"`
	Code string `json:"code,omitempty"`
}

// Button is the polled state of one gamepad button.
// Value carries the analog reading (0..1) for triggers and pressure pads.
type Button struct {
	Pressed bool    `json:"pressed"`
	Value   float64 `json:"value"`
}

// Gamepad is one polled gamepad snapshot.
type Gamepad struct {
	Index     int      `json:"index"`
	ID        string   `json:"id,omitempty"`
	Connected bool     `json:"connected"`
	Buttons   []Button `json:"buttons"`
}
