package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/keepsake-dev/keepsake/assert"
	"github.com/keepsake-dev/keepsake/storage"
	"github.com/keepsake-dev/keepsake/storage/file"
)

func TestWriteAndRead(t *testing.T) {
	store := file.NewStore(t.TempDir())
	ctx := context.Background()

	assert.NilError(t, store.Write(ctx, "save.json", []byte(`{"entities":[]}`)))
	data, err := store.Read(ctx, "save.json")
	assert.NilError(t, err)
	assert.Equal(t, string(data), `{"entities":[]}`)
}

func TestReadMissingSnapshot(t *testing.T) {
	store := file.NewStore(t.TempDir())
	_, err := store.Read(context.Background(), "nope.json")
	assert.ErrorIs(t, err, storage.ErrSnapshotMissing)
}

func TestWriteCreatesNestedDirectories(t *testing.T) {
	root := t.TempDir()
	store := file.NewStore(root)
	ctx := context.Background()

	assert.NilError(t, store.Write(ctx, filepath.Join("saves", "slot1", "save.json"), []byte("x")))
	data, err := store.Read(ctx, filepath.Join("saves", "slot1", "save.json"))
	assert.NilError(t, err)
	assert.Equal(t, string(data), "x")
}

func TestWriteReplacesWholeSnapshot(t *testing.T) {
	root := t.TempDir()
	store := file.NewStore(root)
	ctx := context.Background()

	assert.NilError(t, store.Write(ctx, "save.json", []byte("a long first snapshot")))
	assert.NilError(t, store.Write(ctx, "save.json", []byte("short")))

	data, err := store.Read(ctx, "save.json")
	assert.NilError(t, err)
	assert.Equal(t, string(data), "short")

	// No temp files left behind.
	entries, err := os.ReadDir(root)
	assert.NilError(t, err)
	assert.Len(t, entries, 1)
}
