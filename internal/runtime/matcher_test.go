package runtime_test

import (
	"testing"
	"time"

	"github.com/aretw0/keyseq/internal/runtime"
	"github.com/aretw0/keyseq/internal/testutils"
	"github.com/aretw0/keyseq/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	events []domain.Event
}

func (r *recorder) emit(e *domain.Event) {
	r.events = append(r.events, *e)
}

func (r *recorder) count(t domain.EventType) int {
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

func (r *recorder) progress() []int {
	var out []int
	for _, e := range r.events {
		if e.Type == domain.EventProgress {
			out = append(out, e.Position)
		}
	}
	return out
}

func key(sym string) domain.Token {
	return domain.Token{Symbol: sym, Source: domain.SourceKeyboard}
}

var updown = domain.Sequence{"Up", "Up", "Down", "Down"}

func newMatcher(t *testing.T, seq domain.Sequence, opts ...runtime.Option) (*runtime.Matcher, *recorder, *testutils.ManualClock) {
	t.Helper()
	rec := &recorder{}
	clock := testutils.NewManualClock()
	opts = append([]runtime.Option{runtime.WithClock(clock), runtime.WithEmitter(rec.emit)}, opts...)
	m, err := runtime.NewMatcher(seq, opts...)
	require.NoError(t, err)
	return m, rec, clock
}

func TestNewMatcher_RejectsEmpty(t *testing.T) {
	_, err := runtime.NewMatcher(nil)
	assert.ErrorIs(t, err, domain.ErrEmptySequence)

	_, err = runtime.NewMatcher(domain.Sequence{"Up", ""})
	assert.ErrorIs(t, err, domain.ErrEmptySymbol)
}

func TestMatcher_FullSequence(t *testing.T) {
	m, rec, _ := newMatcher(t, updown, runtime.WithTimeout(time.Second))

	var seen []int
	for i, sym := range updown {
		matched := m.Process(key(sym))
		if i < len(updown)-1 {
			assert.False(t, matched)
			assert.Equal(t, i+1, m.Progress())
		} else {
			assert.True(t, matched)
		}
		seen = append(seen, m.Progress())
	}

	assert.Equal(t, []int{1, 2, 3, 0}, seen)
	assert.Equal(t, []int{1, 2, 3, 4}, rec.progress())
	assert.Equal(t, 1, rec.count(domain.EventMatch))
	assert.Equal(t, 4, rec.count(domain.EventInput))
	assert.False(t, m.Armed())
	_, pending := m.Deadline()
	assert.False(t, pending)
}

func TestMatcher_InputFiresBeforeProgress(t *testing.T) {
	m, rec, _ := newMatcher(t, updown)

	m.Process(domain.Token{Symbol: "Up", Source: domain.SourceGamepad})

	require.Len(t, rec.events, 2)
	assert.Equal(t, domain.EventInput, rec.events[0].Type)
	assert.Equal(t, domain.SourceGamepad, rec.events[0].Source)
	assert.Equal(t, 0, rec.events[0].Position)
	assert.Equal(t, domain.EventProgress, rec.events[1].Type)
	assert.Equal(t, 1, rec.events[1].Position)
	assert.Equal(t, 4, rec.events[1].Total)
}

func TestMatcher_AltSymbolMatches(t *testing.T) {
	m, _, _ := newMatcher(t, domain.Sequence{"KeyB", "KeyA"})

	m.Process(domain.Token{Symbol: "b", Alt: "KeyB", Source: domain.SourceKeyboard})
	assert.Equal(t, 1, m.Progress())

	// An empty Alt never matches anything.
	m2, _, _ := newMatcher(t, domain.Sequence{"KeyB"})
	m2.Process(domain.Token{Symbol: "x"})
	assert.Equal(t, 0, m2.Progress())
}

func TestMatcher_IdleMismatchIsSilent(t *testing.T) {
	m, rec, _ := newMatcher(t, updown)

	m.Process(key("Left"))

	assert.Equal(t, 0, m.Progress())
	assert.Equal(t, 0, rec.count(domain.EventMismatch))
	assert.Equal(t, 0, rec.count(domain.EventProgress))
	assert.Equal(t, 1, rec.count(domain.EventInput))
}

func TestMatcher_ArmedMismatchResets(t *testing.T) {
	m, rec, clock := newMatcher(t, updown, runtime.WithTimeout(time.Second))

	m.Process(key("Up"))
	m.Process(key("Up"))
	m.Process(key("Left"))

	assert.Equal(t, 1, rec.count(domain.EventMismatch))
	assert.Equal(t, 0, m.Progress())
	assert.Equal(t, []int{1, 2}, rec.progress())
	assert.Equal(t, 0, clock.Pending())
}

func TestMatcher_MismatchRestartsWithFirstSymbol(t *testing.T) {
	seq := domain.Sequence{"Up", "Down", "Left"}
	m, rec, clock := newMatcher(t, seq, runtime.WithTimeout(time.Second))

	m.Process(key("Up"))
	m.Process(key("Up"))

	assert.Equal(t, 1, rec.count(domain.EventMismatch))
	assert.Equal(t, 1, m.Progress())
	assert.Equal(t, []int{1, 1}, rec.progress())
	assert.Equal(t, 1, clock.Pending())

	// The mismatch event comes before the restart progress.
	types := make([]domain.EventType, 0, len(rec.events))
	for _, e := range rec.events[2:] {
		types = append(types, e.Type)
	}
	assert.Equal(t, []domain.EventType{domain.EventInput, domain.EventMismatch, domain.EventProgress}, types)
}

func TestMatcher_RestartByAlt(t *testing.T) {
	m, _, _ := newMatcher(t, domain.Sequence{"KeyB", "KeyA"})

	m.Process(domain.Token{Symbol: "b", Alt: "KeyB"})
	m.Process(domain.Token{Symbol: "b", Alt: "KeyB"})

	assert.Equal(t, 1, m.Progress())
}

func TestMatcher_MismatchDisabled(t *testing.T) {
	m, rec, _ := newMatcher(t, updown, runtime.WithResetOnMismatch(false))

	m.Process(key("Up"))
	m.Process(key("Left"))
	m.Process(key("Up"))

	assert.Equal(t, 2, m.Progress())
	assert.Equal(t, 0, rec.count(domain.EventMismatch))
}

func TestMatcher_Timeout(t *testing.T) {
	m, rec, clock := newMatcher(t, updown, runtime.WithTimeout(time.Second))

	m.Process(key("Up"))
	clock.Advance(1001 * time.Millisecond)

	assert.Equal(t, 1, rec.count(domain.EventTimeout))
	assert.Equal(t, 0, m.Progress())
	assert.Equal(t, 0, clock.Pending())
}

func TestMatcher_SlidingWindow(t *testing.T) {
	m, rec, clock := newMatcher(t, updown, runtime.WithTimeout(time.Second))

	m.Process(key("Up"))
	clock.Advance(999 * time.Millisecond)
	m.Process(key("Up"))
	clock.Advance(999 * time.Millisecond)
	m.Process(key("Down"))
	clock.Advance(999 * time.Millisecond)

	assert.Equal(t, 3, m.Progress())
	assert.Equal(t, 0, rec.count(domain.EventTimeout))
	assert.Equal(t, 1, clock.Pending())

	deadline, ok := m.Deadline()
	require.True(t, ok)
	assert.Equal(t, clock.Now().Add(time.Millisecond), deadline)
}

func TestMatcher_TimeoutDisabled(t *testing.T) {
	m, rec, clock := newMatcher(t, updown, runtime.WithTimeout(0))

	m.Process(key("Up"))
	assert.Equal(t, 0, clock.Pending())

	clock.Advance(time.Hour)
	assert.Equal(t, 1, m.Progress())
	assert.Equal(t, 0, rec.count(domain.EventTimeout))
}

func TestMatcher_StaleExpiryIgnored(t *testing.T) {
	var fired []uint64
	m, rec, clock := newMatcher(t, updown,
		runtime.WithTimeout(time.Second),
		runtime.WithDeadlineHandler(func(gen uint64) { fired = append(fired, gen) }),
	)

	m.Process(key("Up"))
	clock.Advance(time.Second)
	require.Len(t, fired, 1)

	// A step lands between the timer firing and the owner handling it.
	m.Process(key("Up"))
	m.Expire(fired[0])

	assert.Equal(t, 2, m.Progress())
	assert.Equal(t, 0, rec.count(domain.EventTimeout))
}

func TestMatcher_ResetAndUpdate(t *testing.T) {
	m, rec, clock := newMatcher(t, updown)

	m.Process(key("Up"))
	m.Reset()
	assert.Equal(t, 0, m.Progress())
	assert.Equal(t, 0, clock.Pending())
	assert.Equal(t, 0, rec.count(domain.EventReset))

	m.Process(key("Up"))
	require.NoError(t, m.UpdateSequence(domain.Sequence{"A", "B"}))
	assert.Equal(t, 0, m.Progress())
	assert.Equal(t, domain.Sequence{"A", "B"}, m.Sequence())
	assert.Equal(t, 2, m.Total())

	assert.ErrorIs(t, m.UpdateSequence(domain.Sequence{}), domain.ErrEmptySequence)
	assert.Equal(t, domain.Sequence{"A", "B"}, m.Sequence())
}

func TestMatcher_SequenceIsCopied(t *testing.T) {
	seq := domain.Sequence{"Up", "Down"}
	m, _, _ := newMatcher(t, seq)

	seq[0] = "Left"
	got := m.Sequence()
	got[1] = "Right"

	assert.Equal(t, domain.Sequence{"Up", "Down"}, m.Sequence())
}

func TestMatcher_SingleSymbol(t *testing.T) {
	m, rec, _ := newMatcher(t, domain.Sequence{"Enter"})

	assert.True(t, m.Process(key("Enter")))
	assert.Equal(t, 0, m.Progress())
	assert.Equal(t, 1, rec.count(domain.EventMatch))
}

func TestMatcher_EventsCarryName(t *testing.T) {
	m, rec, _ := newMatcher(t, updown, runtime.WithName("updown"))

	m.Process(key("Up"))

	for _, e := range rec.events {
		assert.Equal(t, "updown", e.Sequence)
	}
}
