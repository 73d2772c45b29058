package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const isolatedTestRedisDB = 13

// testClient connects to the cache configured through CACHE_* and skips the
// test when no server is reachable.
func testClient(t *testing.T) *redis.Client {
	t.Helper()
	cfg := LoadConfig()
	cfg.DB = isolatedTestRedisDB

	client := redis.NewClient(&redis.Options{Addr: cfg.Addr(), Password: cfg.Password, DB: cfg.DB})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis not reachable at %s: %v", cfg.Addr(), err)
	}
	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})
	return client
}

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(testClient(t), "test:")
	ctx := context.Background()

	type payload struct {
		Title string `json:"title"`
	}

	var got payload
	found, err := store.GetJSON(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.SetJSON(ctx, "p1", payload{Title: "Dragon Fire"}, time.Minute))
	found, err = store.GetJSON(ctx, "p1", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Dragon Fire", got.Title)

	require.NoError(t, store.Delete(ctx, "p1"))
	found, err = store.GetJSON(ctx, "p1", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStoreDeletePrefix(t *testing.T) {
	client := testClient(t)
	store := NewStore(client, "test:")
	ctx := context.Background()

	for _, k := range []string{"list:1:20", "list:2:20", "product:P1"} {
		require.NoError(t, store.SetJSON(ctx, k, k, time.Minute))
	}
	require.NoError(t, store.DeletePrefix(ctx, "list:"))

	var v string
	found, err := store.GetJSON(ctx, "list:1:20", &v)
	require.NoError(t, err)
	assert.False(t, found)
	found, err = store.GetJSON(ctx, "product:P1", &v)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestCorruptEntryIsAMiss(t *testing.T) {
	client := testClient(t)
	store := NewStore(client, "test:")
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "test:bad", "{not json", time.Minute).Err())
	var v map[string]any
	found, err := store.GetJSON(ctx, "bad", &v)
	require.NoError(t, err)
	assert.False(t, found)
}
