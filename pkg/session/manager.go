package session

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/keyseq"
	"github.com/aretw0/keyseq/internal/logging"
	"github.com/aretw0/keyseq/pkg/domain"
	"github.com/aretw0/keyseq/pkg/input"
	"github.com/aretw0/keyseq/pkg/observability"
	"github.com/aretw0/keyseq/pkg/ports"
	"github.com/google/uuid"
)

// Info is a point-in-time view of a session.
type Info struct {
	ID string `json:"id"`
	domain.State
	Matches   int64     `json:"matches"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is one listener with its own keyboard.
type Session struct {
	id        string
	listener  *keyseq.Listener
	keyboard  *input.PushKeyboard
	matches   atomic.Int64
	createdAt time.Time
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Listener returns the underlying listener.
func (s *Session) Listener() *keyseq.Listener { return s.listener }

// Keyboard returns the keyboard feeding the listener.
func (s *Session) Keyboard() *input.PushKeyboard { return s.keyboard }

// Info returns a snapshot of the session.
func (s *Session) Info() Info {
	return Info{
		ID:        s.id,
		State:     s.listener.State(),
		Matches:   s.matches.Load(),
		CreatedAt: s.createdAt,
	}
}

// Manager orchestrates session access, ensuring safe concurrent operations.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool

	stream *observability.Stream
	hooks  domain.LifecycleHooks
	clock  ports.Clock
	opts   []keyseq.Option
	logger *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger configures a logger for the Manager and its listeners.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithStream publishes session events on stream instead of a private one.
func WithStream(stream *observability.Stream) Option {
	return func(m *Manager) {
		m.stream = stream
	}
}

// WithLifecycleHooks adds hooks (metrics, logging) to every session.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = hooks
	}
}

// WithClock replaces the clock of every session listener.
func WithClock(clock ports.Clock) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

// WithListenerOptions sets defaults applied to every session listener
// before the per-session options.
func WithListenerOptions(opts ...keyseq.Option) Option {
	return func(m *Manager) {
		m.opts = append(m.opts, opts...)
	}
}

// NewManager creates an empty Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.stream == nil {
		m.stream = observability.NewStream(observability.WithStreamLogger(m.logger))
	}
	return m
}

// Stream returns the stream session events are published on, keyed by ID.
func (m *Manager) Stream() *observability.Stream {
	return m.stream
}

// Create starts a listening session for def. An empty id is replaced by a
// random one. Options override the manager defaults but not the keyboard,
// name or hooks, which the manager owns.
func (m *Manager) Create(id string, def domain.Definition, opts ...keyseq.Option) (Info, error) {
	if id == "" {
		id = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return Info{}, fmt.Errorf("session manager closed")
	}
	if _, exists := m.sessions[id]; exists {
		return Info{}, fmt.Errorf("%q: %w", id, domain.ErrSessionExists)
	}

	s := &Session{
		id:       id,
		keyboard: input.NewPushKeyboard(),
	}

	all := make([]keyseq.Option, 0, len(m.opts)+len(opts)+5)
	all = append(all, m.opts...)
	all = append(all, opts...)
	if m.clock != nil {
		all = append(all, keyseq.WithClock(m.clock))
	}
	all = append(all,
		keyseq.WithName(def.Name),
		keyseq.WithKeyboard(s.keyboard),
		keyseq.WithLogger(m.logger.With("session_id", id)),
		keyseq.WithLifecycleHooks(observability.Chain(m.hooks, m.stream.Hooks(id))),
	)

	l, err := keyseq.New(def.Keys, func() { s.matches.Add(1) }, all...)
	if err != nil {
		return Info{}, err
	}
	s.listener = l
	s.createdAt = time.Now().UTC()
	if m.clock != nil {
		s.createdAt = m.clock.Now().UTC()
	}
	m.sessions[id] = s
	l.Start()

	m.logger.Info("Session created", "session_id", id, "sequence", def.Name)
	return s.Info(), nil
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%q: %w", id, domain.ErrSessionNotFound)
	}
	return s, nil
}

// Snapshot returns the current view of a session.
func (m *Manager) Snapshot(id string) (Info, error) {
	s, err := m.Get(id)
	if err != nil {
		return Info{}, err
	}
	return s.Info(), nil
}

// Press feeds key events to a session in order and returns the resulting
// snapshot. Presses on a stopped session are dropped.
func (m *Manager) Press(id string, events ...domain.KeyEvent) (Info, error) {
	s, err := m.Get(id)
	if err != nil {
		return Info{}, err
	}
	for _, ev := range events {
		s.keyboard.Press(ev)
	}
	return s.Info(), nil
}

// Reset drops the progress of a session.
func (m *Manager) Reset(id string) (Info, error) {
	s, err := m.Get(id)
	if err != nil {
		return Info{}, err
	}
	s.listener.Reset()
	return s.Info(), nil
}

// Start resumes a stopped session.
func (m *Manager) Start(id string) (Info, error) {
	s, err := m.Get(id)
	if err != nil {
		return Info{}, err
	}
	s.listener.Start()
	return s.Info(), nil
}

// Stop pauses a session without deleting it.
func (m *Manager) Stop(id string) (Info, error) {
	s, err := m.Get(id)
	if err != nil {
		return Info{}, err
	}
	s.listener.Stop()
	return s.Info(), nil
}

// Delete destroys a session and ends its event subscriptions.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%q: %w", id, domain.ErrSessionNotFound)
	}

	s.listener.Destroy()
	m.stream.Close(id)
	m.logger.Info("Session deleted", "session_id", id)
	return nil
}

// List returns a snapshot of every session ordered by ID.
func (m *Manager) List() []Info {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	out := make([]Info, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Subscribe follows the events of a session. The channel is closed when the
// session is deleted or cancel is called.
func (m *Manager) Subscribe(id string) (<-chan domain.Event, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return nil, nil, fmt.Errorf("%q: %w", id, domain.ErrSessionNotFound)
	}
	ch, cancel := m.stream.Subscribe(id)
	return ch, cancel, nil
}

// Close destroys every session. Later calls to Create fail.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		_ = m.Delete(id)
	}
}
