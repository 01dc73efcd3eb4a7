package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/keyseq"
	"github.com/aretw0/keyseq/pkg/domain"
	"github.com/aretw0/keyseq/pkg/input"
	"github.com/aretw0/keyseq/pkg/observability"
	"github.com/aretw0/keyseq/pkg/recorder"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	logSize     = 8
	eventBuffer = 256
	maxBarWidth = 60
)

// SaveFunc persists a freshly recorded sequence.
type SaveFunc func(domain.Sequence) error

type eventMsg domain.Event

// Playground is an interactive bubbletea model: it shows progress through a
// sequence, logs listener events and records replacement sequences.
type Playground struct {
	listener *keyseq.Listener
	keyboard *input.PushKeyboard
	recorder *recorder.Recorder
	events   chan domain.Event
	save     SaveFunc

	keys   keyMap
	help   help.Model
	bar    progress.Model
	styles styles

	state   domain.State
	log     []domain.Event
	matches int
	status  string
	failed  bool
}

// PlaygroundOption configures the Playground.
type PlaygroundOption func(*playgroundConfig)

type playgroundConfig struct {
	save      SaveFunc
	hooks     domain.LifecycleHooks
	listener  []keyseq.Option
	recording []recorder.Option
}

// WithSave is called with every successfully recorded sequence.
func WithSave(fn SaveFunc) PlaygroundOption {
	return func(c *playgroundConfig) { c.save = fn }
}

// WithHooks adds lifecycle hooks next to the playground's own.
func WithHooks(hooks domain.LifecycleHooks) PlaygroundOption {
	return func(c *playgroundConfig) { c.hooks = hooks }
}

// WithListenerOptions forwards options to the underlying Listener.
func WithListenerOptions(opts ...keyseq.Option) PlaygroundOption {
	return func(c *playgroundConfig) { c.listener = append(c.listener, opts...) }
}

// WithRecorderOptions forwards options to the sequence recorder.
func WithRecorderOptions(opts ...recorder.Option) PlaygroundOption {
	return func(c *playgroundConfig) { c.recording = append(c.recording, opts...) }
}

// NewPlayground builds a stopped playground for def. The listener starts
// with the program.
func NewPlayground(def domain.Definition, opts ...PlaygroundOption) (*Playground, error) {
	var cfg playgroundConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Playground{
		keyboard: input.NewPushKeyboard(),
		recorder: recorder.New(cfg.recording...),
		events:   make(chan domain.Event, eventBuffer),
		save:     cfg.save,
		keys:     defaultKeyMap(),
		help:     help.New(),
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(40), progress.WithoutPercentage()),
		styles:   newStyles(),
		status:   "Waiting for input",
	}

	forward := domain.HooksFunc(func(_ context.Context, e *domain.Event) {
		select {
		case p.events <- *e:
		default:
		}
	})
	lopts := append([]keyseq.Option{
		keyseq.WithName(def.Name),
		keyseq.WithKeyboard(p.keyboard),
	}, cfg.listener...)
	lopts = append(lopts, keyseq.WithLifecycleHooks(observability.Chain(forward, cfg.hooks)))

	l, err := keyseq.New(def.Keys, func() {}, lopts...)
	if err != nil {
		return nil, err
	}
	p.listener = l
	p.state = l.State()
	return p, nil
}

// Listener exposes the listener driving the playground.
func (p *Playground) Listener() *keyseq.Listener { return p.listener }

// Run starts an interactive program on the terminal and blocks until quit.
func (p *Playground) Run(opts ...tea.ProgramOption) error {
	defer p.listener.Destroy()
	_, err := tea.NewProgram(p, opts...).Run()
	return err
}

func (p *Playground) Init() tea.Cmd {
	p.listener.Start()
	p.state = p.listener.State()
	return p.waitEvent
}

func (p *Playground) waitEvent() tea.Msg {
	return eventMsg(<-p.events)
}

func (p *Playground) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.help.Width = msg.Width
		p.bar.Width = min(maxBarWidth, max(10, msg.Width-4))

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, p.keys.Quit):
			p.listener.Stop()
			return p, tea.Quit
		case key.Matches(msg, p.keys.Record):
			p.toggleRecording()
		case key.Matches(msg, p.keys.Reset):
			p.listener.Reset()
		default:
			ev, ok := keyEvent(msg)
			if !ok {
				break
			}
			if p.recorder.Recording() {
				p.recorder.Record(input.NormalizeKey(ev))
			} else {
				p.keyboard.Press(ev)
			}
		}
		p.state = p.listener.State()

	case eventMsg:
		p.observe(domain.Event(msg))
		return p, p.waitEvent
	}
	return p, nil
}

func (p *Playground) observe(e domain.Event) {
	p.log = append(p.log, e)
	if len(p.log) > logSize {
		p.log = p.log[len(p.log)-logSize:]
	}

	switch e.Type {
	case domain.EventMatch:
		p.matches++
		p.setStatus(fmt.Sprintf("Matched! (%d)", p.matches), false)
	case domain.EventMismatch:
		p.setStatus("Wrong key, starting over", false)
	case domain.EventTimeout:
		p.setStatus("Too slow, starting over", false)
	case domain.EventInput:
		// Gamepad presses reach the recorder through the listener.
		if e.Source == domain.SourceGamepad && p.recorder.Recording() {
			p.recorder.Record(domain.Token{Symbol: e.Symbol, Alt: e.Alt, Source: e.Source})
		}
	}
	p.state = p.listener.State()
}

func (p *Playground) toggleRecording() {
	if !p.recorder.Recording() {
		p.recorder.Start()
		p.setStatus("Recording, press ctrl+r to finish", false)
		return
	}
	seq, err := p.recorder.Stop()
	if err != nil {
		p.setStatus(err.Error(), true)
		return
	}
	if err := p.listener.UpdateSequence(seq); err != nil {
		p.setStatus(err.Error(), true)
		return
	}
	if p.save != nil {
		if err := p.save(seq); err != nil {
			p.setStatus("Recorded but not saved: "+err.Error(), true)
			return
		}
	}
	p.setStatus(fmt.Sprintf("Now listening for %d keys", len(seq)), false)
}

func (p *Playground) setStatus(s string, failed bool) {
	p.status, p.failed = s, failed
}

func (p *Playground) View() string {
	var b strings.Builder
	title := "keyseq playground"
	if p.state.Name != "" {
		title += " · " + p.state.Name
	}
	b.WriteString(p.styles.Title.Render(title))
	b.WriteString("\n")

	b.WriteString(p.renderSequence())
	b.WriteString("\n\n")

	pct := 0.0
	if p.state.Total > 0 {
		pct = float64(p.state.Position) / float64(p.state.Total)
	}
	fmt.Fprintf(&b, "%s %d/%d\n", p.bar.ViewAs(pct), p.state.Position, p.state.Total)

	if p.recorder.Recording() {
		keys := p.recorder.Keys()
		b.WriteString(p.styles.Recording.Render(fmt.Sprintf("● REC %s", keys.String())))
		b.WriteString("\n")
	}

	switch {
	case p.failed:
		b.WriteString(p.styles.Error.Render(p.status))
	case p.matches > 0 && strings.HasPrefix(p.status, "Matched"):
		b.WriteString(p.styles.Success.Render(p.status))
	default:
		b.WriteString(p.styles.Status.Render(p.status))
	}
	b.WriteString("\n")

	b.WriteString(p.styles.LogBox.Render(p.renderLog()))
	b.WriteString("\n")
	b.WriteString(p.help.View(p.keys))
	return b.String()
}

func (p *Playground) renderSequence() string {
	parts := make([]string, len(p.state.Sequence))
	for i, sym := range p.state.Sequence {
		switch {
		case i < p.state.Position:
			parts[i] = p.styles.Done.Render(sym)
		case i == p.state.Position:
			parts[i] = p.styles.Next.Render(sym)
		default:
			parts[i] = p.styles.Pending.Render(sym)
		}
	}
	return strings.Join(parts, " ")
}

func (p *Playground) renderLog() string {
	if len(p.log) == 0 {
		return p.styles.Dim.Render("no events yet")
	}
	lines := make([]string, len(p.log))
	for i, e := range p.log {
		line := fmt.Sprintf("%s %-8s %d/%d", e.Timestamp.Format("15:04:05.000"), e.Type, e.Position, e.Total)
		if e.Symbol != "" {
			line += fmt.Sprintf(" %s (%s)", e.Symbol, e.Source)
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}
