// Package file implements a SnapshotStore backed by the local filesystem.
package file

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/keepsake-dev/keepsake/storage"
)

var _ storage.SnapshotStore = (*Store)(nil)

// Store writes each snapshot as a single file beneath a root directory.
// Writes go to a temporary sibling first and are renamed into place, so a
// partial write can never leave a previously valid snapshot truncated.
type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

func (s *Store) path(key string) string {
	return filepath.Join(s.root, key)
}

func (s *Store) Write(_ context.Context, key string, data []byte) error {
	target := s.path(key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return eris.Wrap(err, "failed to create snapshot directory")
	}

	tmp := target + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrap(err, "failed to write snapshot")
	}
	if err := os.Rename(tmp, target); err != nil {
		// Leaving the temp file behind is preferable to a half-replaced
		// snapshot; report the failure and clean up best-effort.
		_ = os.Remove(tmp)
		return eris.Wrap(err, "failed to finalize snapshot")
	}
	return nil
}

func (s *Store) Read(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, eris.Wrap(storage.ErrSnapshotMissing, key)
	} else if err != nil {
		return nil, eris.Wrap(err, "failed to read snapshot")
	}
	return data, nil
}
