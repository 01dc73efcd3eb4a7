package runtime

import (
	"time"

	"github.com/aretw0/keyseq/pkg/domain"
	"github.com/aretw0/keyseq/pkg/ports"
)

// DefaultTimeout is the sliding window between two correct steps.
const DefaultTimeout = 5 * time.Second

// Matcher tracks progress through one target sequence.
type Matcher struct {
	name            string
	sequence        domain.Sequence
	timeout         time.Duration
	resetOnMismatch bool

	clock    ports.Clock
	emit     func(*domain.Event)
	deadline func(gen uint64)

	position int
	timer    ports.Timer
	expires  time.Time
	gen      uint64
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithName tags every emitted event with the sequence name.
func WithName(name string) Option {
	return func(m *Matcher) {
		m.name = name
	}
}

// WithTimeout sets the sliding window. A value <= 0 disables the deadline.
func WithTimeout(d time.Duration) Option {
	return func(m *Matcher) {
		m.timeout = d
	}
}

// WithResetOnMismatch controls whether an armed mismatch resets the attempt.
func WithResetOnMismatch(enabled bool) Option {
	return func(m *Matcher) {
		m.resetOnMismatch = enabled
	}
}

// WithClock replaces the wall clock.
func WithClock(clock ports.Clock) Option {
	return func(m *Matcher) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithEmitter registers the receiver of every event the matcher produces.
func WithEmitter(fn func(*domain.Event)) Option {
	return func(m *Matcher) {
		m.emit = fn
	}
}

// WithDeadlineHandler replaces what runs when the deadline timer fires.
// The handler must eventually call Expire(gen) while holding the owner's lock.
// Without it the timer goroutine calls Expire directly.
func WithDeadlineHandler(fn func(gen uint64)) Option {
	return func(m *Matcher) {
		m.deadline = fn
	}
}

// NewMatcher creates an idle matcher for sequence.
func NewMatcher(sequence domain.Sequence, opts ...Option) (*Matcher, error) {
	if err := sequence.Validate(); err != nil {
		return nil, err
	}
	m := &Matcher{
		sequence:        sequence.Clone(),
		timeout:         DefaultTimeout,
		resetOnMismatch: true,
		clock:           SystemClock{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.deadline == nil {
		m.deadline = m.Expire
	}
	return m, nil
}

// Process feeds one token and reports whether it completed the sequence.
func (m *Matcher) Process(tok domain.Token) bool {
	m.fire(domain.EventInput, m.position, tok)

	if tok.Matches(m.sequence[m.position]) {
		m.position++
		m.arm()
		m.fire(domain.EventProgress, m.position, tok)

		if m.position == len(m.sequence) {
			m.fire(domain.EventMatch, m.position, tok)
			m.clear()
			return true
		}
		return false
	}

	if m.position == 0 || !m.resetOnMismatch {
		return false
	}

	m.fire(domain.EventMismatch, m.position, tok)
	m.clear()

	// The token that broke the attempt may open the next one.
	if tok.Matches(m.sequence[0]) {
		m.position = 1
		m.arm()
		m.fire(domain.EventProgress, m.position, tok)
		// A one-symbol sequence completes on its first step.
		if len(m.sequence) == 1 {
			m.fire(domain.EventMatch, m.position, tok)
			m.clear()
			return true
		}
	}
	return false
}

// Expire handles the deadline fired for generation gen.
// Stale generations are ignored.
func (m *Matcher) Expire(gen uint64) {
	if gen != m.gen || m.timer == nil {
		return
	}
	m.timer = nil
	if m.position > 0 {
		m.fire(domain.EventTimeout, m.position, domain.Token{})
	}
	m.clear()
}

// Reset returns to position 0 and cancels the deadline.
// It emits nothing; owners report administrative resets themselves.
func (m *Matcher) Reset() {
	m.clear()
}

// UpdateSequence replaces the target sequence and resets.
func (m *Matcher) UpdateSequence(sequence domain.Sequence) error {
	if err := sequence.Validate(); err != nil {
		return err
	}
	m.sequence = sequence.Clone()
	m.Reset()
	return nil
}

// Progress returns the number of consecutive symbols matched so far.
func (m *Matcher) Progress() int { return m.position }

// Total returns the sequence length.
func (m *Matcher) Total() int { return len(m.sequence) }

// Armed reports whether a partial attempt is in flight.
func (m *Matcher) Armed() bool { return m.position > 0 }

// Sequence returns a copy of the target sequence.
func (m *Matcher) Sequence() domain.Sequence { return m.sequence.Clone() }

// Name returns the sequence name given through WithName.
func (m *Matcher) Name() string { return m.name }

// Timeout returns the configured sliding window.
func (m *Matcher) Timeout() time.Duration { return m.timeout }

// Deadline returns when the current attempt expires, if a deadline is pending.
func (m *Matcher) Deadline() (time.Time, bool) {
	if m.timer == nil {
		return time.Time{}, false
	}
	return m.expires, true
}

// arm cancels any pending deadline and starts a fresh one.
func (m *Matcher) arm() {
	m.cancel()
	if m.timeout <= 0 {
		return
	}
	m.gen++
	gen := m.gen
	m.expires = m.clock.Now().Add(m.timeout)
	m.timer = m.clock.AfterFunc(m.timeout, func() { m.deadline(gen) })
}

func (m *Matcher) cancel() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	// Bumping the generation invalidates an expiry already in flight.
	m.gen++
}

func (m *Matcher) clear() {
	m.position = 0
	m.cancel()
}

func (m *Matcher) fire(t domain.EventType, position int, tok domain.Token) {
	if m.emit == nil {
		return
	}
	m.emit(&domain.Event{
		Timestamp: m.clock.Now(),
		Type:      t,
		Sequence:  m.name,
		Position:  position,
		Total:     len(m.sequence),
		Symbol:    tok.Symbol,
		Alt:       tok.Alt,
		Source:    tok.Source,
	})
}
