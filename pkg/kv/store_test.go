package kv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func storeBackends(t *testing.T) map[string]Store {
	t.Helper()

	fileStore, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	sqliteStore, err := NewSQLiteStore(filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqliteStore.Close() })

	mr := miniredis.RunT(t)
	redisStore := NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { redisStore.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fileStore,
		"sqlite": sqliteStore,
		"redis":  redisStore,
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, store := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, found, err := store.Get(ctx, "oculentCart")
			require.NoError(t, err)
			require.False(t, found, "missing key should report not found")

			require.NoError(t, store.Set(ctx, "oculentCart", []byte(`[{"quantity":1}]`)))

			value, found, err := store.Get(ctx, "oculentCart")
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, `[{"quantity":1}]`, string(value))

			require.NoError(t, store.Set(ctx, "oculentCart", []byte(`[]`)))
			value, found, err = store.Get(ctx, "oculentCart")
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, `[]`, string(value), "set should replace the previous value")

			require.NoError(t, store.Delete(ctx, "oculentCart"))
			_, found, err = store.Get(ctx, "oculentCart")
			require.NoError(t, err)
			require.False(t, found)

			require.NoError(t, store.Delete(ctx, "oculentCart"), "deleting an absent key is not an error")
		})
	}
}

func TestStorePing(t *testing.T) {
	ctx := context.Background()
	for name, store := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			pinger, ok := store.(Pinger)
			require.True(t, ok, "every backend exposes the health-check surface")
			require.NoError(t, pinger.Ping(ctx))
		})
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "oculentOrders", []byte(`[{"orderNumber":"OC1"}]`)))

	second, err := NewFileStore(dir)
	require.NoError(t, err)
	value, found, err := second.Get(ctx, "oculentOrders")
	require.NoError(t, err)
	require.True(t, found)
	require.JSONEq(t, `[{"orderNumber":"OC1"}]`, string(value))
}

func TestFileStoreRejectsUnsafeKeys(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.Get(ctx, "../escape")
	require.Error(t, err)
	require.Error(t, store.Set(ctx, "a/b", nil))
}

func TestRedisStoreNamespacesKeys(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	store := NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Set(ctx, "oculentCart", []byte(`[]`)))
	got, err := mr.Get("oculent:oculentCart")
	require.NoError(t, err)
	require.Equal(t, `[]`, got)
}
