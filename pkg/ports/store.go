package ports

import (
	"context"

	"github.com/aretw0/keyseq/pkg/domain"
)

// SequenceStore defines the interface for persisting named sequences.
type SequenceStore interface {
	// Save persists the definition under its name, replacing any previous one.
	Save(ctx context.Context, def domain.Definition) error

	// Load retrieves a definition by name.
	// Returns domain.ErrSequenceNotFound if the name is unknown.
	Load(ctx context.Context, name string) (domain.Definition, error)

	// Delete removes a definition. Deleting an unknown name is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of every stored definition.
	List(ctx context.Context) ([]string, error)
}
