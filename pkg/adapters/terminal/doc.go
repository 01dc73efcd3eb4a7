// Package terminal adapts an interactive terminal into a keyboard source.
//
// Raw bytes are decoded into browser-style key events: letters become
// "KeyA", arrows "ArrowUp", and so on, so the same sequences match on a
// terminal as on any other keyboard source.
package terminal
