package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/keepsake-dev/keepsake/assert"
	"github.com/keepsake-dev/keepsake/storage"
	"github.com/keepsake-dev/keepsake/storage/redis"
)

func newTestStore(t *testing.T, namespace string) *redis.Store {
	s := miniredis.RunT(t)
	store := redis.NewStore(redis.Options{Addr: s.Addr()}, namespace)
	t.Cleanup(func() {
		assert.NilError(t, store.Close())
	})
	return store
}

func TestSnapshotWriteAndRead(t *testing.T) {
	store := newTestStore(t, "world")
	ctx := context.Background()

	assert.NilError(t, store.Write(ctx, "save.json", []byte(`{"entities":[]}`)))
	data, err := store.Read(ctx, "save.json")
	assert.NilError(t, err)
	assert.Equal(t, string(data), `{"entities":[]}`)
}

func TestReadMissingSnapshot(t *testing.T) {
	store := newTestStore(t, "world")
	_, err := store.Read(context.Background(), "nope.json")
	assert.ErrorIs(t, err, storage.ErrSnapshotMissing)
}

func TestSchemaStorage(t *testing.T) {
	store := newTestStore(t, "world")

	_, err := store.GetSchema("Position")
	assert.ErrorIs(t, err, storage.ErrNoSchemaFound)

	schema := []byte(`{"type":"object"}`)
	assert.NilError(t, store.SetSchema("Position", schema))
	stored, err := store.GetSchema("Position")
	assert.NilError(t, err)
	assert.DeepEqual(t, stored, schema)
}

func TestNamespacesAreIsolated(t *testing.T) {
	s := miniredis.RunT(t)
	ctx := context.Background()

	alpha := redis.NewStore(redis.Options{Addr: s.Addr()}, "alpha")
	beta := redis.NewStore(redis.Options{Addr: s.Addr()}, "beta")
	t.Cleanup(func() {
		assert.NilError(t, alpha.Close())
		assert.NilError(t, beta.Close())
	})

	assert.NilError(t, alpha.Write(ctx, "save.json", []byte("alpha")))
	_, err := beta.Read(ctx, "save.json")
	assert.ErrorIs(t, err, storage.ErrSnapshotMissing)
}
