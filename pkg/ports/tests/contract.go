package tests

import (
	"context"
	"testing"

	"github.com/aretw0/keyseq/pkg/domain"
	"github.com/aretw0/keyseq/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SequenceStoreContractTest is a reusable test suite that verifies if an adapter complies with ports.SequenceStore.
// The store must be empty when passed in.
func SequenceStoreContractTest(t *testing.T, store ports.SequenceStore) {
	t.Helper()
	ctx := context.Background()

	konami := domain.Definition{
		Name:        "konami",
		Description: "classic",
		Keys:        domain.KonamiCode.Clone(),
	}
	short := domain.Definition{
		Name: "short",
		Keys: domain.Sequence{"ArrowUp", "ArrowDown"},
	}

	t.Run("Load_NotFound", func(t *testing.T) {
		_, err := store.Load(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrSequenceNotFound)
	})

	t.Run("Save_Load", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, konami))

		got, err := store.Load(ctx, "konami")
		require.NoError(t, err)
		assert.Equal(t, konami.Name, got.Name)
		assert.Equal(t, konami.Description, got.Description)
		assert.Equal(t, konami.Keys, got.Keys)
	})

	t.Run("Load_ReturnsCopy", func(t *testing.T) {
		got, err := store.Load(ctx, "konami")
		require.NoError(t, err)
		got.Keys[0] = "Mutated"

		again, err := store.Load(ctx, "konami")
		require.NoError(t, err)
		assert.Equal(t, "ArrowUp", again.Keys[0])
	})

	t.Run("Save_Overwrites", func(t *testing.T) {
		updated := konami.Clone()
		updated.Keys = append(updated.Keys, "Enter")
		require.NoError(t, store.Save(ctx, updated))

		got, err := store.Load(ctx, "konami")
		require.NoError(t, err)
		assert.Len(t, got.Keys, len(domain.KonamiCode)+1)
	})

	t.Run("List", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, short))

		names, err := store.List(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"konami", "short"}, names)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "short"))

		_, err := store.Load(ctx, "short")
		assert.ErrorIs(t, err, domain.ErrSequenceNotFound)

		names, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"konami"}, names)

		assert.NoError(t, store.Delete(ctx, "never-existed"))
	})
}
