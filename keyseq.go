package keyseq

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/keyseq/internal/runtime"
	"github.com/aretw0/keyseq/pkg/adapters/evdev"
	"github.com/aretw0/keyseq/pkg/domain"
	"github.com/aretw0/keyseq/pkg/input"
	"github.com/aretw0/keyseq/pkg/ports"
)

// Listener watches one or two input sources for a key sequence.
// It is the high-level entry point of the library: it owns a matcher, the
// input sources feeding it and the lock serializing them.
//
// Callbacks and lifecycle hooks run synchronously while that lock is held.
// They must not call back into the same Listener; hand the work to another
// goroutine instead.
type Listener struct {
	mu        sync.Mutex
	matcher   *runtime.Matcher
	sources   *input.Sources
	callbacks domain.Callbacks
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	clock     ports.Clock
	once      bool
	gamepad   bool
	listening bool
	run       uint64
	name      string
	closer    io.Closer
}

type config struct {
	name            string
	timeout         time.Duration
	resetOnMismatch bool
	once            bool
	gamepad         bool
	keyboard        ports.KeyboardSource
	gamepadSource   ports.GamepadSource
	frames          ports.FrameSource
	clock           ports.Clock
	buttons         []string
	threshold       float64
	logger          *slog.Logger
	hooks           domain.LifecycleHooks
	callbacks       domain.Callbacks
}

// Option defines a functional option for configuring the Listener.
type Option func(*config)

// WithOnProgress is called after every forward step with the new position.
func WithOnProgress(fn func(position, total int)) Option {
	return func(c *config) {
		c.callbacks.OnProgress = fn
	}
}

// WithOnMismatch is called once per failed attempt that had progress.
func WithOnMismatch(fn func()) Option {
	return func(c *config) {
		c.callbacks.OnMismatch = fn
	}
}

// WithOnTimeout is called when an attempt in progress runs out of time.
func WithOnTimeout(fn func()) Option {
	return func(c *config) {
		c.callbacks.OnTimeout = fn
	}
}

// WithOnInput is called for every token, matched or not, before matching.
func WithOnInput(fn func(symbol string, source domain.Source)) Option {
	return func(c *config) {
		c.callbacks.OnInput = fn
	}
}

// WithTimeout sets the sliding window between two correct inputs
// (default 5s). A value <= 0 disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithResetOnMismatch controls whether a wrong input resets an attempt in
// progress (default true). When disabled, wrong inputs are ignored.
func WithResetOnMismatch(enabled bool) Option {
	return func(c *config) {
		c.resetOnMismatch = enabled
	}
}

// WithOnce stops the Listener after its first match.
func WithOnce(enabled bool) Option {
	return func(c *config) {
		c.once = enabled
	}
}

// WithGamepad enables gamepad polling alongside the keyboard.
// Without WithGamepadSource the platform evdev source is used.
func WithGamepad(enabled bool) Option {
	return func(c *config) {
		c.gamepad = enabled
	}
}

// WithName labels the Listener in events and logs.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithKeyboard sets the keyboard source. Without it the Listener only
// reacts to the gamepad.
func WithKeyboard(k ports.KeyboardSource) Option {
	return func(c *config) {
		c.keyboard = k
	}
}

// WithGamepadSource sets the gamepad source and enables gamepad polling.
func WithGamepadSource(g ports.GamepadSource) Option {
	return func(c *config) {
		c.gamepadSource = g
		c.gamepad = g != nil
	}
}

// WithFrameSource sets the cadence of gamepad polling (default 60 Hz).
func WithFrameSource(f ports.FrameSource) Option {
	return func(c *config) {
		c.frames = f
	}
}

// WithClock replaces the wall clock used for the timeout.
func WithClock(clock ports.Clock) Option {
	return func(c *config) {
		c.clock = clock
	}
}

// WithButtonMap replaces the gamepad index-to-symbol table.
func WithButtonMap(buttons []string) Option {
	return func(c *config) {
		c.buttons = buttons
	}
}

// WithPressThreshold sets the analog value above which a button counts as
// pressed (default 0.5).
func WithPressThreshold(threshold float64) Option {
	return func(c *config) {
		c.threshold = threshold
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *config) {
		c.hooks = hooks
	}
}

// New creates a stopped Listener for sequence. onMatch is required.
func New(sequence domain.Sequence, onMatch func(), opts ...Option) (*Listener, error) {
	if onMatch == nil {
		return nil, domain.ErrMissingOnMatch
	}

	cfg := config{
		timeout:         runtime.DefaultTimeout,
		resetOnMismatch: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.callbacks.OnMatch = onMatch

	// Ensure logger is initialized so components never see nil.
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.name != "" {
		cfg.logger = cfg.logger.With("sequence", cfg.name)
	}
	if cfg.clock == nil {
		cfg.clock = runtime.SystemClock{}
	}

	l := &Listener{
		callbacks: cfg.callbacks,
		hooks:     cfg.hooks,
		logger:    cfg.logger,
		clock:     cfg.clock,
		once:      cfg.once,
		name:      cfg.name,
	}

	m, err := runtime.NewMatcher(sequence,
		runtime.WithName(cfg.name),
		runtime.WithTimeout(cfg.timeout),
		runtime.WithResetOnMismatch(cfg.resetOnMismatch),
		runtime.WithClock(cfg.clock),
		runtime.WithEmitter(l.dispatch),
		runtime.WithDeadlineHandler(l.expire),
	)
	if err != nil {
		return nil, err
	}
	l.matcher = m

	srcOpts := []input.SourcesOption{
		input.WithKeyboardSource(cfg.keyboard),
		input.WithFrameSource(cfg.frames),
		input.WithDetector(input.NewEdgeDetector(cfg.buttons, cfg.threshold)),
		input.WithSourcesLogger(cfg.logger),
	}
	if cfg.gamepad {
		pads := cfg.gamepadSource
		if pads == nil {
			src := evdev.New(evdev.WithLogger(cfg.logger))
			pads, l.closer = src, src
		}
		srcOpts = append(srcOpts, input.WithGamepadSource(pads))
		l.gamepad = true
	}
	l.sources = input.NewSources(srcOpts...)

	return l, nil
}

// Listen creates a Listener and starts it immediately.
func Listen(sequence domain.Sequence, onMatch func(), opts ...Option) (*Listener, error) {
	l, err := New(sequence, onMatch, opts...)
	if err != nil {
		return nil, err
	}
	l.Start()
	return l, nil
}

// Start begins consuming input from a clean state. It is a no-op while
// already listening.
func (l *Listener) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.listening {
		return
	}
	l.listening = true
	l.run++
	l.matcher.Reset()

	run := l.run
	l.sources.Start(func(tok domain.Token) { l.handle(run, tok) })
	l.logger.Debug("Listener started", "gamepad", l.gamepad)
	l.fire(domain.EventStart, 0)
}

// Stop releases the input sources, cancels the timeout and resets progress.
// No callback fires after Stop returns. It is a no-op while stopped.
func (l *Listener) Stop() {
	l.mu.Lock()
	stopped := l.stopLocked()
	l.mu.Unlock()

	if stopped {
		l.sources.Stop()
	}
}

// Destroy stops the Listener and releases any device it opened itself.
func (l *Listener) Destroy() {
	l.Stop()
	l.mu.Lock()
	closer := l.closer
	l.closer = nil
	l.mu.Unlock()
	if closer != nil {
		if err := closer.Close(); err != nil {
			l.logger.Warn("Failed to release gamepad source", "err", err)
		}
	}
}

// Reset drops any progress without affecting whether the Listener is running.
func (l *Listener) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	lost := l.matcher.Progress()
	l.matcher.Reset()
	l.fire(domain.EventReset, lost)
}

// UpdateSequence replaces the target sequence and resets progress.
func (l *Listener) UpdateSequence(sequence domain.Sequence) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	lost := l.matcher.Progress()
	if err := l.matcher.UpdateSequence(sequence); err != nil {
		return err
	}
	l.logger.Debug("Sequence updated", "total", len(sequence))
	l.fire(domain.EventReset, lost)
	return nil
}

// Progress returns the number of consecutive correct inputs so far.
func (l *Listener) Progress() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.matcher.Progress()
}

// Sequence returns a copy of the target sequence.
func (l *Listener) Sequence() domain.Sequence {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.matcher.Sequence()
}

// Listening reports whether the Listener is consuming input.
func (l *Listener) Listening() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.listening
}

// Name returns the label given through WithName.
func (l *Listener) Name() string {
	return l.name
}

// State returns a snapshot of the Listener.
func (l *Listener) State() domain.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := domain.State{
		Name:     l.name,
		Sequence: l.matcher.Sequence(),
		Position: l.matcher.Progress(),
		Total:    l.matcher.Total(),
		Status:   domain.StatusStopped,
		Gamepad:  l.gamepad,
		Timeout:  l.matcher.Timeout(),
	}
	if l.listening {
		st.Status = domain.StatusListening
	}
	if deadline, ok := l.matcher.Deadline(); ok {
		st.Deadline = &deadline
	}
	return st
}

func (l *Listener) handle(run uint64, tok domain.Token) {
	l.mu.Lock()
	defer l.mu.Unlock()
	// Tokens from a previous run may still be in flight after Stop.
	if !l.listening || l.run != run {
		return
	}
	if l.matcher.Process(tok) && l.once {
		l.stopLocked()
	}
}

func (l *Listener) expire(gen uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.listening {
		return
	}
	l.matcher.Expire(gen)
}

// stopLocked marks the Listener stopped and signals the sources without
// waiting for the poll loop. It reports whether anything changed.
func (l *Listener) stopLocked() bool {
	if !l.listening {
		return false
	}
	l.listening = false
	l.matcher.Reset()
	l.sources.Cancel()
	l.logger.Debug("Listener stopped")
	l.fire(domain.EventStop, 0)
	return true
}

func (l *Listener) fire(t domain.EventType, position int) {
	l.dispatch(&domain.Event{
		Timestamp: l.clock.Now(),
		Type:      t,
		Sequence:  l.name,
		Position:  position,
		Total:     l.matcher.Total(),
	})
}

func (l *Listener) dispatch(e *domain.Event) {
	l.callbacks.Dispatch(e)
	l.hooks.Fire(context.Background(), e)
}
