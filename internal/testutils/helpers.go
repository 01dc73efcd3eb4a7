package testutils

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/keyseq/pkg/domain"
	"github.com/aretw0/keyseq/pkg/ports"
)

// ManualClock is a ports.Clock whose time only moves through Advance.
// Timers fire synchronously inside Advance, in deadline order.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	clock   *ManualClock
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

// NewManualClock creates a clock starting at a fixed instant.
func NewManualClock() *ManualClock {
	return &ManualClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the current manual time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc schedules fn to run once the clock has advanced by d.
func (c *ManualClock) AfterFunc(d time.Duration, fn func()) ports.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	return t
}

// Pending returns the number of timers that are neither stopped nor fired.
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Advance moves the clock forward and runs every timer that became due.
// Callbacks run without the clock lock held, so they may schedule new timers.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		due := c.nextDue(target)
		if due == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = due.at
		due.fired = true
		c.mu.Unlock()

		due.fn()
	}
}

func (c *ManualClock) nextDue(target time.Time) *manualTimer {
	var live []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			live = append(live, t)
		}
	}
	c.timers = live
	sort.SliceStable(live, func(i, j int) bool { return live[i].at.Before(live[j].at) })
	if len(live) == 0 || live[0].at.After(target) {
		return nil
	}
	return live[0]
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// ManualFrames is a ports.FrameSource driven by Tick.
// Every call to Frames shares the same unbuffered channel.
type ManualFrames struct {
	ch chan time.Time
}

// NewManualFrames creates an idle frame source.
func NewManualFrames() *ManualFrames {
	return &ManualFrames{ch: make(chan time.Time)}
}

// Frames returns the channel fed by Tick.
func (f *ManualFrames) Frames(ctx context.Context) <-chan time.Time {
	return f.ch
}

// Tick delivers one frame and reports whether a poll loop received it
// before the timeout. Ticking twice guarantees the first frame was fully
// processed.
func (f *ManualFrames) Tick(timeout time.Duration) bool {
	select {
	case f.ch <- time.Now():
		return true
	case <-time.After(timeout):
		return false
	}
}

// StaticGamepads is a ports.GamepadSource returning whatever was last Set.
type StaticGamepads struct {
	mu   sync.Mutex
	pads []domain.Gamepad
	err  error
}

// Set replaces the snapshot returned by the next poll.
func (s *StaticGamepads) Set(pads ...domain.Gamepad) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pads = pads
}

// Fail makes every subsequent poll return err.
func (s *StaticGamepads) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Gamepads returns the current snapshot.
func (s *StaticGamepads) Gamepads() ([]domain.Gamepad, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]domain.Gamepad, len(s.pads))
	for i, p := range s.pads {
		p.Buttons = append([]domain.Button(nil), p.Buttons...)
		out[i] = p
	}
	return out, nil
}

// Pad builds a connected gamepad snapshot with the given buttons pressed.
func Pad(index, buttons int, pressed ...int) domain.Gamepad {
	pad := domain.Gamepad{Index: index, Connected: true, Buttons: make([]domain.Button, buttons)}
	for _, b := range pressed {
		if b >= 0 && b < buttons {
			pad.Buttons[b] = domain.Button{Pressed: true, Value: 1}
		}
	}
	return pad
}
