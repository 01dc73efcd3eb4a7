package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/keyseq/pkg/adapters/redis"
	"github.com/aretw0/keyseq/pkg/domain"
	"github.com/aretw0/keyseq/pkg/ports/tests"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	tests.SequenceStoreContractTest(t, redis.NewFromClient(client))
}

func TestRedisStore_Keys(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("test:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.Definition{Name: "hi", Keys: domain.Sequence{"KeyH", "KeyI"}}))

	assert.True(t, mr.Exists("test:hi"))
	members, err := mr.ZMembers("test:index")
	require.NoError(t, err)
	assert.Equal(t, []string{"hi"}, members)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.Definition{Name: "temp", Keys: domain.Sequence{"Up"}}))

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"temp"}, names)

	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, "temp")
	assert.ErrorIs(t, err, domain.ErrSequenceNotFound)
}

func TestRedisStore_InvalidDefinition(t *testing.T) {
	_, client := newClient(t)
	store := redis.NewFromClient(client)

	err := store.Save(context.Background(), domain.Definition{Name: "empty"})
	assert.ErrorIs(t, err, domain.ErrEmptySequence)
}

func TestRedisStore_Unreachable(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client)
	mr.Close()

	_, err := store.Load(context.Background(), "konami")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSequenceNotFound)
}
