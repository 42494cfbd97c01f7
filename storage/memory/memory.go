// Package memory implements in-memory SnapshotStore and SchemaStorage. The
// schema storage backs file-based worlds, where schema drift only matters
// within a single process; the snapshot store exists for tests.
package memory

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/keepsake-dev/keepsake/storage"
)

var (
	_ storage.SnapshotStore = (*Store)(nil)
	_ storage.SchemaStorage = (*Store)(nil)
)

type Store struct {
	mu        sync.Mutex
	snapshots map[string][]byte
	schemas   map[string][]byte
}

func NewStore() *Store {
	return &Store{
		snapshots: make(map[string][]byte),
		schemas:   make(map[string][]byte),
	}
}

func (s *Store) Write(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.snapshots[key] = cp
	return nil
}

func (s *Store) Read(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.snapshots[key]
	if !ok {
		return nil, eris.Wrap(storage.ErrSnapshotMissing, key)
	}
	return data, nil
}

func (s *Store) GetSchema(componentName string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	schema, ok := s.schemas[componentName]
	if !ok {
		return nil, eris.Wrap(storage.ErrNoSchemaFound, componentName)
	}
	return schema, nil
}

func (s *Store) SetSchema(componentName string, schemaData []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemas[componentName] = schemaData
	return nil
}
