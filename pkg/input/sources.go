package input

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/keyseq/internal/logging"
	"github.com/aretw0/keyseq/pkg/domain"
	"github.com/aretw0/keyseq/pkg/ports"
)

// TokenHandler receives normalized tokens from every enabled source.
type TokenHandler func(domain.Token)

// Sources is the union of the keyboard source and the optional gamepad poll
// loop. Which members are active is decided at construction time.
type Sources struct {
	keyboard ports.KeyboardSource
	gamepad  ports.GamepadSource
	frames   ports.FrameSource
	logger   *slog.Logger

	detectMu sync.Mutex
	detector *EdgeDetector

	mu      sync.Mutex
	running bool
	sub     ports.Subscription
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// SourcesOption configures Sources.
type SourcesOption func(*Sources)

// WithKeyboardSource sets the push-driven keyboard source.
func WithKeyboardSource(k ports.KeyboardSource) SourcesOption {
	return func(s *Sources) {
		s.keyboard = k
	}
}

// WithGamepadSource enables gamepad polling against g.
func WithGamepadSource(g ports.GamepadSource) SourcesOption {
	return func(s *Sources) {
		s.gamepad = g
	}
}

// WithFrameSource sets the cadence of gamepad polling.
func WithFrameSource(f ports.FrameSource) SourcesOption {
	return func(s *Sources) {
		if f != nil {
			s.frames = f
		}
	}
}

// WithDetector replaces the default edge detector.
func WithDetector(d *EdgeDetector) SourcesOption {
	return func(s *Sources) {
		if d != nil {
			s.detector = d
		}
	}
}

// WithSourcesLogger configures a logger for source failures.
func WithSourcesLogger(logger *slog.Logger) SourcesOption {
	return func(s *Sources) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSources creates an idle source union.
func NewSources(opts ...SourcesOption) *Sources {
	s := &Sources{
		frames:   TickerFrames{},
		detector: NewEdgeDetector(nil, 0),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GamepadEnabled reports whether a gamepad source is configured.
func (s *Sources) GamepadEnabled() bool {
	return s.gamepad != nil
}

// Start subscribes to the keyboard and launches the gamepad poll loop.
// Unavailable sources are logged and skipped. Start is a no-op while running.
func (s *Sources) Start(handler TokenHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true

	if s.keyboard == nil {
		s.logger.Debug("Keyboard source unavailable, skipping")
	} else {
		sub, err := s.keyboard.Subscribe(func(ev domain.KeyEvent) {
			handler(NormalizeKey(ev))
		})
		if err != nil {
			s.logger.Warn("Keyboard source unavailable, skipping", "err", err)
		} else {
			s.sub = sub
		}
	}

	if s.gamepad != nil {
		ctx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		s.wg.Add(1)
		go s.poll(ctx, handler)
	}
}

// Cancel releases the keyboard subscription and signals the poll loop to
// exit without waiting for it. It is idempotent and safe to call from a
// token handler.
func (s *Sources) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	if s.sub != nil {
		if err := s.sub.Close(); err != nil {
			s.logger.Warn("Failed to release keyboard subscription", "err", err)
		}
		s.sub = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Stop cancels and waits until no poll loop is left running.
// It must not be called from a token handler.
func (s *Sources) Stop() {
	s.Cancel()
	s.wg.Wait()
}

// Running reports whether the sources are started.
func (s *Sources) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Sources) poll(ctx context.Context, handler TokenHandler) {
	defer s.wg.Done()

	frames := s.frames.Frames(ctx)
	failing := false
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-frames:
			if !ok {
				return
			}
		}

		pads, err := s.gamepad.Gamepads()
		if err != nil {
			if !failing {
				s.logger.Warn("Gamepad poll failed", "err", err)
				failing = true
			}
			continue
		}
		if failing {
			s.logger.Info("Gamepad poll recovered")
			failing = false
		}

		s.detectMu.Lock()
		tokens := s.detector.Detect(pads)
		s.detectMu.Unlock()

		for _, tok := range tokens {
			if ctx.Err() != nil {
				return
			}
			handler(tok)
		}
	}
}
