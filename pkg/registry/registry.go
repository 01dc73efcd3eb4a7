package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/keyseq/internal/logging"
	"github.com/aretw0/keyseq/pkg/domain"
	"github.com/aretw0/keyseq/pkg/ports"
)

var (
	// ErrBuiltin is returned when deleting a preset.
	ErrBuiltin = errors.New("built-in sequence cannot be deleted")

	// ErrReadOnly is returned by writes when no store is configured.
	ErrReadOnly = errors.New("no sequence store configured")
)

// DefaultLockTTL bounds how long a distributed write lock may be held.
const DefaultLockTTL = 10 * time.Second

// Entry is a catalog listing item.
type Entry struct {
	domain.Definition
	Builtin bool `json:"builtin"`
}

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Registry is the catalog of known sequences: the built-in presets plus
// whatever a SequenceStore holds. Stored definitions shadow presets of the
// same name. Writes to one name are serialized locally and, when a locker
// is configured, across processes.
type Registry struct {
	store   ports.SequenceStore
	presets map[string]domain.Definition

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures the Registry.
type Option func(*Registry)

// WithLocker enables distributed locking of writes.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(r *Registry) {
		r.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		if ttl > 0 {
			r.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Registry.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithPresets replaces the built-in definitions. Pass nothing to disable them.
func WithPresets(defs ...domain.Definition) Option {
	return func(r *Registry) {
		r.presets = make(map[string]domain.Definition, len(defs))
		for _, d := range defs {
			r.presets[d.Name] = d.Clone()
		}
	}
}

// WithNow replaces the time source used to stamp new definitions.
func WithNow(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// New creates a Registry. A nil store serves presets only.
func New(store ports.SequenceStore, opts ...Option) *Registry {
	r := &Registry{
		store:   store,
		presets: make(map[string]domain.Definition, len(domain.Presets)),
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for name, def := range domain.Presets {
		r.presets[name] = def.Clone()
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Store returns the underlying sequence store, possibly nil.
func (r *Registry) Store() ports.SequenceStore {
	return r.store
}

// Builtin reports whether name is a preset.
func (r *Registry) Builtin(name string) bool {
	_, ok := r.presets[name]
	return ok
}

// Get resolves name against the store first, then the presets.
func (r *Registry) Get(ctx context.Context, name string) (domain.Definition, error) {
	if r.store != nil {
		def, err := r.store.Load(ctx, name)
		if err == nil {
			return def, nil
		}
		if !errors.Is(err, domain.ErrSequenceNotFound) {
			return domain.Definition{}, fmt.Errorf("failed to load sequence %q: %w", name, err)
		}
	}
	if def, ok := r.presets[name]; ok {
		return def.Clone(), nil
	}
	return domain.Definition{}, fmt.Errorf("%q: %w", name, domain.ErrSequenceNotFound)
}

// List returns every known definition ordered by name.
func (r *Registry) List(ctx context.Context) ([]Entry, error) {
	byName := make(map[string]Entry, len(r.presets))
	for name, def := range r.presets {
		byName[name] = Entry{Definition: def.Clone(), Builtin: true}
	}

	if r.store != nil {
		names, err := r.store.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sequences: %w", err)
		}
		for _, name := range names {
			def, err := r.store.Load(ctx, name)
			if errors.Is(err, domain.ErrSequenceNotFound) {
				continue // deleted or expired meanwhile
			}
			if err != nil {
				return nil, fmt.Errorf("failed to load sequence %q: %w", name, err)
			}
			byName[name] = Entry{Definition: def}
		}
	}

	out := make([]Entry, 0, len(byName))
	for _, e := range byName {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Save validates def, stamps CreatedAt when unset and persists it.
func (r *Registry) Save(ctx context.Context, def domain.Definition) error {
	if r.store == nil {
		return ErrReadOnly
	}
	if err := def.Validate(); err != nil {
		return err
	}
	if def.CreatedAt.IsZero() {
		def.CreatedAt = r.now().UTC()
	}
	return r.WithLock(ctx, def.Name, func(ctx context.Context) error {
		if err := r.store.Save(ctx, def); err != nil {
			return err
		}
		r.logger.Info("Sequence saved", "sequence", def.Name, "total", len(def.Keys))
		return nil
	})
}

// Delete removes a stored definition. Presets cannot be deleted.
func (r *Registry) Delete(ctx context.Context, name string) error {
	if r.store == nil {
		return ErrReadOnly
	}
	return r.WithLock(ctx, name, func(ctx context.Context) error {
		if _, err := r.store.Load(ctx, name); err != nil {
			if errors.Is(err, domain.ErrSequenceNotFound) && r.Builtin(name) {
				return fmt.Errorf("%q: %w", name, ErrBuiltin)
			}
			return err
		}
		if err := r.store.Delete(ctx, name); err != nil {
			return err
		}
		r.logger.Info("Sequence deleted", "sequence", name)
		return nil
	})
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(name) after unlocking.
func (r *Registry) acquire(name string) *lockEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.locks[name]
	if !exists {
		entry = &lockEntry{}
		r.locks[name] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (r *Registry) release(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.locks[name]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(r.locks, name)
	}
}

// WithLock executes fn while holding the write lock for name.
func (r *Registry) WithLock(ctx context.Context, name string, fn func(context.Context) error) error {
	entry := r.acquire(name)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		r.release(name)
	}()

	if r.locker != nil {
		unlock, err := r.locker.Lock(ctx, "sequence:"+name, r.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				r.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"sequence", name,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
