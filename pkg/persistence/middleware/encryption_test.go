package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/keyseq/pkg/adapters/memory"
	"github.com/aretw0/keyseq/pkg/domain"
	"github.com/aretw0/keyseq/pkg/persistence/middleware"
	"github.com/aretw0/keyseq/pkg/ports"
	"github.com/aretw0/keyseq/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, middleware.KeySize)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func encrypted(t *testing.T, next ports.SequenceStore, cfg middleware.EncryptionConfig) ports.SequenceStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	return middleware.Chain(next, mw)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	store := encrypted(t, memory.NewStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	tests.SequenceStoreContractTest(t, store)
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	store := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})

	secret := domain.Definition{
		Name:        "vault",
		Description: "opens the vault",
		Keys:        domain.Sequence{"KeyX", "KeyY", "KeyZ"},
	}
	require.NoError(t, store.Save(ctx, secret))

	raw, err := underlying.Load(ctx, "vault")
	require.NoError(t, err)
	assert.Equal(t, "vault", raw.Name)
	assert.Empty(t, raw.Description)
	require.Len(t, raw.Keys, 1)
	assert.True(t, strings.HasPrefix(raw.Keys[0], "enc:v1:"))
	assert.NotContains(t, raw.Keys[0], "KeyX")

	got, err := store.Load(ctx, "vault")
	require.NoError(t, err)
	assert.Equal(t, secret.Keys, got.Keys)
	assert.Equal(t, secret.Description, got.Description)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)

	old := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, old.Save(ctx, domain.Definition{Name: "legacy", Keys: domain.Sequence{"KeyL"}}))

	rotated := encrypted(t, underlying, middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	got, err := rotated.Load(ctx, "legacy")
	require.NoError(t, err)
	assert.Equal(t, domain.Sequence{"KeyL"}, got.Keys)

	withoutFallback := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: newKey})
	_, err = withoutFallback.Load(ctx, "legacy")
	assert.ErrorIs(t, err, middleware.ErrDecrypt)
}

func TestEncryptionMiddleware_FailsSecure(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore(domain.Definition{Name: "plain", Keys: domain.Sequence{"KeyP"}})
	store := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})

	_, err := store.Load(ctx, "plain")
	assert.ErrorIs(t, err, middleware.ErrMissingEnvelope)
}

func TestEncryptionMiddleware_RenamedEnvelope(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	store := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, store.Save(ctx, domain.Definition{Name: "a", Keys: domain.Sequence{"KeyA"}}))

	raw, err := underlying.Load(ctx, "a")
	require.NoError(t, err)
	raw.Name = "b"
	require.NoError(t, underlying.Save(ctx, raw))

	_, err = store.Load(ctx, "b")
	assert.ErrorIs(t, err, middleware.ErrDecrypt)
}

func TestNewEncryptionMiddleware_InvalidKeys(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)

	got, err := middleware.ParseKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	got, err = middleware.ParseKey(" " + base64.URLEncoding.EncodeToString(key) + "\n")
	require.NoError(t, err)
	assert.Equal(t, key, got)

	_, err = middleware.ParseKey(base64.StdEncoding.EncodeToString([]byte("too short")))
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)

	_, err = middleware.ParseKey("%%%")
	assert.Error(t, err)
}
