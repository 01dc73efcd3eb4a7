package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/aretw0/keyseq"
	"github.com/aretw0/keyseq/internal/logging"
	"github.com/aretw0/keyseq/pkg/adapters/evdev"
	"github.com/aretw0/keyseq/pkg/adapters/file"
	"github.com/aretw0/keyseq/pkg/adapters/memory"
	"github.com/aretw0/keyseq/pkg/adapters/redis"
	"github.com/aretw0/keyseq/pkg/config"
	"github.com/aretw0/keyseq/pkg/domain"
	"github.com/aretw0/keyseq/pkg/input"
	"github.com/aretw0/keyseq/pkg/persistence/middleware"
	"github.com/aretw0/keyseq/pkg/ports"
	"github.com/aretw0/keyseq/pkg/registry"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// NewLogger builds the application logger from the log section.
// Logs go to w so they never mix with the key echo on stdout.
func NewLogger(w io.Writer, cfg config.LogConfig) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewWriter(w, level, cfg.Format), nil
}

// printSystemMessage prints a standardized system message.
// Raw terminals need the explicit carriage return.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\r\n", fmt.Sprintf(format, args...))
}

// OpenRegistry builds the sequence catalog over the configured store.
// The returned close function releases the store connection.
func OpenRegistry(cfg config.Config, logger *slog.Logger) (*registry.Registry, func() error, error) {
	var (
		store ports.SequenceStore
		opts  = []registry.Option{registry.WithLogger(logger)}
		close = func() error { return nil }
	)

	switch strings.ToLower(cfg.Store.Driver) {
	case config.DriverMemory:
		store = memory.NewStore()
	case config.DriverFile:
		store = file.New(cfg.Store.Path)
	case config.DriverRedis:
		prefix := cfg.Store.Redis.Prefix
		if prefix == "" {
			prefix = redis.DefaultPrefix
		}
		rs := redis.New(cfg.Store.Redis.Addr, cfg.Store.Redis.Password, cfg.Store.Redis.DB,
			redis.WithPrefix(prefix),
			redis.WithTTL(cfg.Store.Redis.TTL),
		)
		store = rs
		opts = append(opts, registry.WithLocker(redis.NewLocker(rs.Client(), prefix)))
		close = rs.Close
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	if cfg.Store.Encryption.Key != "" {
		mw, err := encryption(cfg.Store.Encryption)
		if err != nil {
			_ = close()
			return nil, nil, err
		}
		store = middleware.Chain(store, mw)
	}

	logger.Debug("Sequence store ready", "driver", cfg.Store.Driver, "encrypted", cfg.Store.Encryption.Key != "")
	return registry.New(store, opts...), close, nil
}

func encryption(cfg config.EncryptionConfig) (middleware.Middleware, error) {
	active, err := middleware.ParseKey(cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("store.encryption.key: %w", err)
	}
	var fallback [][]byte
	for i, k := range cfg.FallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return nil, fmt.Errorf("store.encryption.fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    active,
		FallbackKeys: fallback,
	})
}

// ResolveDefinition picks the sequence to listen for: the name given on the
// command line, then explicit keys from the config, then its sequence name.
func ResolveDefinition(ctx context.Context, reg *registry.Registry, cfg config.Config, name string) (domain.Definition, error) {
	if name != "" {
		return reg.Get(ctx, name)
	}
	def, custom := cfg.Definition()
	if custom {
		return def, def.Keys.Validate()
	}
	return reg.Get(ctx, def.Name)
}

// ListenerOptions maps the config onto Listener options. When the gamepad is
// enabled the returned release function closes the device source.
func ListenerOptions(cfg config.Config, logger *slog.Logger) ([]keyseq.Option, func()) {
	opts := []keyseq.Option{
		keyseq.WithTimeout(cfg.Timeout),
		keyseq.WithResetOnMismatch(cfg.ResetOnMismatch),
		keyseq.WithOnce(cfg.Once),
		keyseq.WithLogger(logger),
	}
	if !cfg.Gamepad.Enabled {
		return opts, func() {}
	}

	pads := evdev.New(
		evdev.WithDevices(cfg.Gamepad.Devices...),
		evdev.WithLogger(logger),
	)
	opts = append(opts,
		keyseq.WithGamepadSource(pads),
		keyseq.WithFrameSource(input.TickerFrames{Interval: cfg.Gamepad.PollInterval}),
	)
	if cfg.Gamepad.Threshold > 0 {
		opts = append(opts, keyseq.WithPressThreshold(cfg.Gamepad.Threshold))
	}
	return opts, func() {
		if err := pads.Close(); err != nil {
			logger.Warn("Failed to release gamepads", "err", err)
		}
	}
}
