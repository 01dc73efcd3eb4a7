package registry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/keyseq/pkg/adapters/memory"
	"github.com/aretw0/keyseq/pkg/domain"
	"github.com/aretw0/keyseq/pkg/ports"
	"github.com/aretw0/keyseq/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	args := m.Called(ctx, key, ttl)
	fn, _ := args.Get(0).(ports.UnlockFunc)
	return fn, args.Error(1)
}

var fixed = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestRegistry_PresetsOnly(t *testing.T) {
	reg := registry.New(nil)
	ctx := context.Background()

	def, err := reg.Get(ctx, "konami")
	require.NoError(t, err)
	assert.Equal(t, domain.KonamiCode, def.Keys)

	_, err = reg.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSequenceNotFound)

	entries, err := reg.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, len(domain.Presets))
	for _, e := range entries {
		assert.True(t, e.Builtin)
	}

	assert.ErrorIs(t, reg.Save(ctx, domain.Definition{Name: "x", Keys: domain.Sequence{"KeyX"}}), registry.ErrReadOnly)
}

func TestRegistry_StoreShadowsPreset(t *testing.T) {
	store := memory.NewStore()
	reg := registry.New(store, registry.WithNow(func() time.Time { return fixed }))
	ctx := context.Background()

	require.NoError(t, reg.Save(ctx, domain.Definition{Name: "konami", Keys: domain.Sequence{"KeyK"}}))
	require.NoError(t, reg.Save(ctx, domain.Definition{Name: "abc", Keys: domain.Sequence{"KeyA", "KeyB", "KeyC"}}))

	def, err := reg.Get(ctx, "konami")
	require.NoError(t, err)
	assert.Equal(t, domain.Sequence{"KeyK"}, def.Keys)
	assert.Equal(t, fixed, def.CreatedAt)

	entries, err := reg.List(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
		if e.Name == "konami" {
			assert.False(t, e.Builtin)
		}
	}
	assert.Equal(t, []string{"abc", "konami", "konami-enter", "konami-gamepad"}, names)

	// Deleting the override brings the preset back.
	require.NoError(t, reg.Delete(ctx, "konami"))
	def, err = reg.Get(ctx, "konami")
	require.NoError(t, err)
	assert.Equal(t, domain.KonamiCode, def.Keys)
}

func TestRegistry_DeleteRules(t *testing.T) {
	reg := registry.New(memory.NewStore())
	ctx := context.Background()

	assert.ErrorIs(t, reg.Delete(ctx, "konami"), registry.ErrBuiltin)

	assert.ErrorIs(t, reg.Delete(ctx, "nope"), domain.ErrSequenceNotFound)
}

func TestRegistry_SaveValidates(t *testing.T) {
	reg := registry.New(memory.NewStore())

	err := reg.Save(context.Background(), domain.Definition{Name: "empty"})
	assert.ErrorIs(t, err, domain.ErrEmptySequence)

	err = reg.Save(context.Background(), domain.Definition{Name: "../x", Keys: domain.Sequence{"KeyX"}})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestRegistry_CustomPresets(t *testing.T) {
	reg := registry.New(nil, registry.WithPresets(domain.Definition{Name: "hi", Keys: domain.Sequence{"KeyH", "KeyI"}}))

	assert.True(t, reg.Builtin("hi"))
	assert.False(t, reg.Builtin("konami"))
	_, err := reg.Get(context.Background(), "konami")
	assert.ErrorIs(t, err, domain.ErrSequenceNotFound)
}

func TestRegistry_DistributedLock(t *testing.T) {
	locker := new(MockLocker)
	unlocked := false
	unlock := ports.UnlockFunc(func(context.Context) error {
		unlocked = true
		return nil
	})
	locker.On("Lock", mock.Anything, "sequence:abc", 3*time.Second).Return(unlock, nil).Once()

	reg := registry.New(memory.NewStore(), registry.WithLocker(locker), registry.WithLockTTL(3*time.Second))
	require.NoError(t, reg.Save(context.Background(), domain.Definition{Name: "abc", Keys: domain.Sequence{"KeyA"}}))

	locker.AssertExpectations(t)
	assert.True(t, unlocked)
}

func TestRegistry_LockFailureAborts(t *testing.T) {
	locker := new(MockLocker)
	locker.On("Lock", mock.Anything, "sequence:abc", registry.DefaultLockTTL).Return(nil, errors.New("boom"))

	store := memory.NewStore()
	reg := registry.New(store, registry.WithLocker(locker))
	err := reg.Save(context.Background(), domain.Definition{Name: "abc", Keys: domain.Sequence{"KeyA"}})
	assert.ErrorContains(t, err, "boom")

	_, err = store.Load(context.Background(), "abc")
	assert.ErrorIs(t, err, domain.ErrSequenceNotFound)
}
