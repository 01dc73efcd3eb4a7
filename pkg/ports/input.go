package ports

import (
	"context"
	"time"

	"github.com/aretw0/keyseq/pkg/domain"
)

// KeyHandler receives one raw keyboard press.
type KeyHandler func(domain.KeyEvent)

// Subscription is the handle returned by a source registration.
// Close releases exactly the handler it was returned for and is idempotent.
type Subscription interface {
	Close() error
}

// KeyboardSource delivers keyboard presses to registered handlers.
// Handlers may be invoked from any goroutine.
type KeyboardSource interface {
	Subscribe(handler KeyHandler) (Subscription, error)
}

// GamepadSource returns the current snapshot of every known gamepad.
// Implementations report a disconnected pad with Connected set to false
// rather than dropping it from the slice.
type GamepadSource interface {
	Gamepads() ([]domain.Gamepad, error)
}

// FrameSource delivers the refresh ticks that drive gamepad polling.
// Consumers stop reading once ctx is done; the channel need not be closed.
type FrameSource interface {
	Frames(ctx context.Context) <-chan time.Time
}

// Timer is a single scheduled callback.
type Timer interface {
	// Stop cancels the timer. It reports false if the callback already ran
	// or is running.
	Stop() bool
}

// Clock abstracts time for the matcher deadline.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}
