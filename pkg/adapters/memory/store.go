package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/keyseq/pkg/domain"
)

// Store implements ports.SequenceStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.Definition
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store, optionally seeded with definitions.
func NewStore(seed ...domain.Definition) *Store {
	s := &Store{
		data: make(map[string]domain.Definition),
	}
	for _, def := range seed {
		s.data[def.Name] = def.Clone()
	}
	return s
}

// Save persists the definition in memory.
func (s *Store) Save(ctx context.Context, def domain.Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	// Copy so the caller cannot mutate stored keys.
	copied := def.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[def.Name] = copied
	return nil
}

// Load retrieves a copy of the definition.
func (s *Store) Load(ctx context.Context, name string) (domain.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.data[name]
	if !ok {
		return domain.Definition{}, domain.ErrSequenceNotFound
	}
	return def.Clone(), nil
}

// Delete removes the definition.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, name)
	return nil
}

// List returns the stored names in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
