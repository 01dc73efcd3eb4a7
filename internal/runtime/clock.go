package runtime

import (
	"time"

	"github.com/aretw0/keyseq/pkg/ports"
)

// SystemClock is the wall-clock implementation of ports.Clock.
type SystemClock struct{}

// Now returns time.Now.
func (SystemClock) Now() time.Time { return time.Now() }

// AfterFunc wraps time.AfterFunc.
func (SystemClock) AfterFunc(d time.Duration, fn func()) ports.Timer {
	return time.AfterFunc(d, fn)
}
