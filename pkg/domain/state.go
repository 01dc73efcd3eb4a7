package domain

import "time"

// ListenerStatus defines whether a listener is consuming input.
type ListenerStatus string

const (
	StatusListening ListenerStatus = "listening" // Consuming tokens
	StatusStopped   ListenerStatus = "stopped"   // Sources released, state reset
)

// State represents a point-in-time snapshot of a listener.
type State struct {
	// Name is the label of the listened sequence (may be empty).
	Name string `json:"name,omitempty"`

	// Sequence is a copy of the target sequence.
	Sequence Sequence `json:"sequence"`

	// Position is the number of consecutive symbols matched so far.
	Position int `json:"position"`

	// Total is the length of Sequence.
	Total int `json:"total"`

	// Status indicates if the listener is consuming input.
	Status ListenerStatus `json:"status"`

	// Gamepad reports whether gamepad polling is enabled.
	Gamepad bool `json:"gamepad"`

	// Timeout is the sliding window; zero or negative means none.
	Timeout time.Duration `json:"timeout"`

	// Deadline is when the current attempt expires, nil when idle or untimed.
	Deadline *time.Time `json:"deadline,omitempty"`
}

// Armed reports whether a partial attempt is in flight.
func (s State) Armed() bool {
	return s.Position > 0
}

// Next returns the symbol expected next.
func (s State) Next() string {
	if s.Position < 0 || s.Position >= len(s.Sequence) {
		return ""
	}
	return s.Sequence[s.Position]
}
