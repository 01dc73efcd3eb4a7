package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Sequence is an ordered, fixed list of target symbols.
type Sequence []string

// Validate reports whether the sequence can be matched.
func (s Sequence) Validate() error {
	if len(s) == 0 {
		return ErrEmptySequence
	}
	for i, sym := range s {
		if strings.TrimSpace(sym) == "" {
			return fmt.Errorf("position %d: %w", i, ErrEmptySymbol)
		}
	}
	return nil
}

// Clone returns an independent copy.
func (s Sequence) Clone() Sequence {
	if s == nil {
		return nil
	}
	out := make(Sequence, len(s))
	copy(out, s)
	return out
}

// String renders the sequence as a space separated list.
func (s Sequence) String() string {
	return strings.Join(s, " ")
}

// Definition is a named sequence as persisted by a SequenceStore.
type Definition struct {
	Name        string    `json:"name" yaml:"name" mapstructure:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Keys        Sequence  `json:"keys" yaml:"keys" mapstructure:"keys"`
	CreatedAt   time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty" mapstructure:"created_at"`
}

// ValidateName reports whether name can identify a stored definition.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("definition name cannot be empty: %w", ErrInvalidName)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%q: only letters, digits, '.', '_' and '-' are allowed: %w", name, ErrInvalidName)
	}
	return nil
}

// Validate checks the name and keys of the definition.
func (d Definition) Validate() error {
	if err := ValidateName(d.Name); err != nil {
		return err
	}
	if err := d.Keys.Validate(); err != nil {
		return fmt.Errorf("definition %q: %w", d.Name, err)
	}
	return nil
}

// Clone returns a copy whose Keys do not alias the original.
func (d Definition) Clone() Definition {
	d.Keys = d.Keys.Clone()
	return d
}

// KonamiCode is up-up-down-down-left-right-left-right-B-A, expressed as
// physical key codes.
var KonamiCode = Sequence{
	"ArrowUp",
	"ArrowUp",
	"ArrowDown",
	"ArrowDown",
	"ArrowLeft",
	"ArrowRight",
	"ArrowLeft",
	"ArrowRight",
	"KeyB",
	"KeyA",
}

// KonamiCodeWithEnter is KonamiCode followed by a confirmation key.
var KonamiCodeWithEnter = append(KonamiCode.Clone(), "Enter")

// GamepadKonamiCode is the Konami code entered on a gamepad d-pad.
var GamepadKonamiCode = Sequence{
	GamepadUp,
	GamepadUp,
	GamepadDown,
	GamepadDown,
	GamepadLeft,
	GamepadRight,
	GamepadLeft,
	GamepadRight,
	GamepadB,
	GamepadA,
}

// Presets maps the built-in sequence names to their definitions.
var Presets = map[string]Definition{
	"konami": {
		Name:        "konami",
		Description: "Up, Up, Down, Down, Left, Right, Left, Right, B, A",
		Keys:        KonamiCode,
	},
	"konami-enter": {
		Name:        "konami-enter",
		Description: "The Konami code confirmed with Enter",
		Keys:        KonamiCodeWithEnter,
	},
	"konami-gamepad": {
		Name:        "konami-gamepad",
		Description: "The Konami code on a gamepad d-pad",
		Keys:        GamepadKonamiCode,
	},
}

// Preset returns a copy of a built-in definition.
func Preset(name string) (Definition, bool) {
	def, ok := Presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Definition{}, false
	}
	return def.Clone(), true
}
