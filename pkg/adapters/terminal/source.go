package terminal

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/aretw0/keyseq/internal/logging"
	"github.com/aretw0/keyseq/pkg/domain"
	"github.com/aretw0/keyseq/pkg/input"
	"github.com/aretw0/keyseq/pkg/ports"
	"golang.org/x/term"
)

// ErrInterrupted is reported by Err after Ctrl+C.
var ErrInterrupted = errors.New("interrupted")

// Source is a ports.KeyboardSource reading key presses from a terminal.
// When the input is a TTY it is switched to raw mode until Close, so
// presses arrive one by one without echo. Ctrl+C and Ctrl+D end the input
// instead of being delivered as keys.
type Source struct {
	keyboard *input.PushKeyboard
	in       io.Reader
	fd       int
	raw      bool
	restore  *term.State
	logger   *slog.Logger

	mu      sync.Mutex
	started bool
	closed  bool
	err     error
	done    chan struct{}
}

// Option configures the Source.
type Option func(*Source)

// WithInput reads from r instead of os.Stdin. Raw mode is only managed when
// r is a terminal file.
func WithInput(r io.Reader) Option {
	return func(s *Source) {
		s.in = r
	}
}

// WithRawMode controls whether a terminal input is put in raw mode
// (default true).
func WithRawMode(enabled bool) Option {
	return func(s *Source) {
		s.raw = enabled
	}
}

// WithLogger configures a logger for read failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		s.logger = logger
	}
}

// New creates a Source. Nothing is read until Open.
func New(opts ...Option) *Source {
	s := &Source{
		keyboard: input.NewPushKeyboard(),
		in:       os.Stdin,
		fd:       -1,
		raw:      true,
		logger:   logging.NewNop(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if f, ok := s.in.(interface{ Fd() uintptr }); ok {
		s.fd = int(f.Fd())
	}
	return s
}

// IsTerminal reports whether the input is an interactive terminal.
func (s *Source) IsTerminal() bool {
	return s.fd >= 0 && term.IsTerminal(s.fd)
}

// Open enables raw mode if applicable and starts reading.
func (s *Source) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("terminal source closed: %w", domain.ErrSourceUnavailable)
	}
	if s.started {
		return nil
	}
	if s.raw && s.IsTerminal() {
		state, err := term.MakeRaw(s.fd)
		if err != nil {
			return fmt.Errorf("failed to enable raw mode: %w: %w", domain.ErrSourceUnavailable, err)
		}
		s.restore = state
	}
	s.started = true
	go s.readLoop()
	return nil
}

// Subscribe registers handler for every decoded key press.
func (s *Source) Subscribe(handler ports.KeyHandler) (ports.Subscription, error) {
	return s.keyboard.Subscribe(handler)
}

// Done is closed once the input ends: EOF, Ctrl+D, Ctrl+C or a read error.
func (s *Source) Done() <-chan struct{} {
	return s.done
}

// Err returns why the input ended: io.EOF for end of input or Ctrl+D,
// ErrInterrupted for Ctrl+C, or the read error. It is nil while running.
func (s *Source) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close restores the terminal. A read blocked on the input is abandoned.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.restore != nil {
		if err := term.Restore(s.fd, s.restore); err != nil {
			return fmt.Errorf("failed to restore terminal: %w", err)
		}
		s.restore = nil
	}
	return nil
}

func (s *Source) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return
	}
	s.err = err
	close(s.done)
}

func (s *Source) readLoop() {
	var dec decoder
	buf := make([]byte, 256)
	for {
		n, err := s.in.Read(buf)
		if n > 0 {
			for _, d := range dec.feed(buf[:n]) {
				switch d.ctrl {
				case ctrlInterrupt:
					s.finish(ErrInterrupted)
					return
				case ctrlEOF:
					s.finish(io.EOF)
					return
				default:
					s.keyboard.Press(d.event)
				}
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.logger.Warn("Terminal read failed", "err", err)
			}
			s.finish(err)
			return
		}
	}
}
