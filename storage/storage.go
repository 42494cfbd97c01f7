// Package storage defines the persistence interfaces the engine depends on:
// a SnapshotStore for serialized scenes and a SchemaStorage for component
// schemas.
package storage

import (
	"context"

	"github.com/rotisserie/eris"
)

var (
	ErrNoSchemaFound   = eris.New("no schema found")
	ErrSnapshotMissing = eris.New("snapshot not found")
)

// SnapshotStore persists serialized scenes under caller-chosen keys. A Write
// must be all-or-nothing: a failed write never truncates or corrupts a
// previously stored snapshot under the same key.
type SnapshotStore interface {
	Write(ctx context.Context, key string, data []byte) error
	Read(ctx context.Context, key string) ([]byte, error)
}

// SchemaStorage records the JSON schema of every registered component so that
// schema drift between runs is detected at registration time.
type SchemaStorage interface {
	GetSchema(componentName string) ([]byte, error)
	SetSchema(componentName string, schemaData []byte) error
}
