//go:build !linux

package evdev

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/aretw0/keyseq/pkg/domain"
)

// Source reports domain.ErrSourceUnavailable outside Linux.
type Source struct{}

// Option configures the Source.
type Option func(*Source)

// WithDevices is accepted for portability and ignored.
func WithDevices(paths ...string) Option { return func(*Source) {} }

// WithRescanInterval is accepted for portability and ignored.
func WithRescanInterval(d time.Duration) Option { return func(*Source) {} }

// WithLogger is accepted for portability and ignored.
func WithLogger(logger *slog.Logger) Option { return func(*Source) {} }

// New creates an unavailable source.
func New(opts ...Option) *Source { return &Source{} }

// Gamepads always fails on this platform.
func (s *Source) Gamepads() ([]domain.Gamepad, error) {
	return nil, fmt.Errorf("evdev on %s: %w", runtime.GOOS, domain.ErrSourceUnavailable)
}

// Close is a no-op.
func (s *Source) Close() error { return nil }

// List always fails on this platform.
func List() ([]DeviceInfo, error) {
	return nil, fmt.Errorf("evdev on %s: %w", runtime.GOOS, domain.ErrSourceUnavailable)
}
