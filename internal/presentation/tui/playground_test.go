package tui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/aretw0/keyseq"
	"github.com/aretw0/keyseq/pkg/domain"
	"github.com/aretw0/keyseq/pkg/registry"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(p *Playground, msgs ...tea.KeyMsg) {
	for _, msg := range msgs {
		p.Update(msg)
	}
	drain(p)
}

// drain feeds queued listener events to the model the way waitEvent would.
func drain(p *Playground) {
	for {
		select {
		case e := <-p.events:
			p.Update(eventMsg(e))
		default:
			return
		}
	}
}

func newPlayground(t *testing.T, def domain.Definition, opts ...PlaygroundOption) *Playground {
	t.Helper()
	opts = append(opts, WithListenerOptions(keyseq.WithTimeout(0)))
	p, err := NewPlayground(def, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Listener().Destroy)
	p.Init()
	drain(p)
	return p
}

var hi = domain.Definition{Name: "hi", Keys: domain.Sequence{"KeyH", "KeyI"}}

func TestKeyEvent(t *testing.T) {
	ev, ok := keyEvent(tea.KeyMsg{Type: tea.KeyUp})
	require.True(t, ok)
	assert.Equal(t, domain.KeyEvent{Key: "ArrowUp", Code: "ArrowUp"}, ev)

	ev, ok = keyEvent(runes("b"))
	require.True(t, ok)
	assert.Equal(t, domain.KeyEvent{Key: "b", Code: "KeyB"}, ev)

	ev, ok = keyEvent(tea.KeyMsg{Type: tea.KeySpace})
	require.True(t, ok)
	assert.Equal(t, "Space", ev.Code)

	_, ok = keyEvent(runes("ab"))
	assert.False(t, ok, "pastes are not single presses")
	_, ok = keyEvent(tea.KeyMsg{Type: tea.KeyCtrlA})
	assert.False(t, ok)
}

func TestPlayground_Konami(t *testing.T) {
	p := newPlayground(t, domain.Definition{Name: "konami", Keys: domain.KonamiCode})

	press(p,
		tea.KeyMsg{Type: tea.KeyUp}, tea.KeyMsg{Type: tea.KeyUp},
		tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown},
	)
	assert.Equal(t, 4, p.state.Position)
	assert.Contains(t, p.View(), "4/10")

	press(p,
		tea.KeyMsg{Type: tea.KeyLeft}, tea.KeyMsg{Type: tea.KeyRight},
		tea.KeyMsg{Type: tea.KeyLeft}, tea.KeyMsg{Type: tea.KeyRight},
		runes("b"), runes("a"),
	)
	assert.Equal(t, 1, p.matches)
	assert.Equal(t, 0, p.state.Position)
	assert.Contains(t, p.View(), "Matched! (1)")
}

func TestPlayground_MismatchAndReset(t *testing.T) {
	p := newPlayground(t, hi)

	press(p, runes("h"), runes("x"))
	assert.Equal(t, "Wrong key, starting over", p.status)
	assert.Equal(t, 0, p.state.Position)

	press(p, runes("h"), tea.KeyMsg{Type: tea.KeyCtrlX})
	assert.Equal(t, 0, p.state.Position)
	assert.Equal(t, domain.EventReset, p.log[len(p.log)-1].Type)
}

func TestPlayground_Record(t *testing.T) {
	var saved domain.Sequence
	p := newPlayground(t, hi, WithSave(func(seq domain.Sequence) error {
		saved = seq
		return nil
	}))

	press(p, tea.KeyMsg{Type: tea.KeyCtrlR}, runes("o"), runes("k"))
	assert.Contains(t, p.View(), "REC")
	assert.Equal(t, 0, p.state.Position, "recording keys do not reach the listener")

	press(p, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Equal(t, domain.Sequence{"KeyO", "KeyK"}, saved)
	assert.Equal(t, domain.Sequence{"KeyO", "KeyK"}, p.state.Sequence)
	assert.False(t, p.failed)

	press(p, runes("o"), runes("k"))
	assert.Equal(t, 1, p.matches)
}

func TestPlayground_RecordErrors(t *testing.T) {
	p := newPlayground(t, hi, WithSave(func(domain.Sequence) error { return errors.New("disk full") }))

	press(p, tea.KeyMsg{Type: tea.KeyCtrlR}, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.True(t, p.failed, "empty recordings are rejected")
	assert.Equal(t, hi.Keys, p.state.Sequence)

	press(p, tea.KeyMsg{Type: tea.KeyCtrlR}, runes("z"), tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.True(t, p.failed)
	assert.Contains(t, p.status, "disk full")
	assert.Equal(t, domain.Sequence{"KeyZ"}, p.state.Sequence)
}

func TestPlayground_Quit(t *testing.T) {
	p := newPlayground(t, hi)

	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.False(t, p.Listener().Listening())
}

func TestSequenceMarkdown(t *testing.T) {
	md := SequenceMarkdown(registry.Entry{Definition: domain.Presets["konami"], Builtin: true})
	assert.Contains(t, md, "# konami")
	assert.Contains(t, md, "built-in, 10 keys")
	assert.Contains(t, md, "| 9 | `KeyB` |")

	out, err := NewRenderer()(md)
	require.NoError(t, err)
	assert.Contains(t, out, "konami")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|___/")
}
