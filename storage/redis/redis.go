// Package redis implements SnapshotStore and SchemaStorage on a Redis
// instance. Snapshot blobs and component schemas are both namespaced so
// multiple worlds can share one Redis.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"

	"github.com/keepsake-dev/keepsake/storage"
)

var (
	_ storage.SnapshotStore = (*Store)(nil)
	_ storage.SchemaStorage = (*Store)(nil)
)

type Options = redis.Options

type Store struct {
	namespace string
	client    *redis.Client
}

func NewStore(options Options, namespace string) *Store {
	return &Store{
		namespace: namespace,
		client:    redis.NewClient(&options),
	}
}

func (s *Store) snapshotKey(key string) string {
	return fmt.Sprintf("%s:snapshot:%s", s.namespace, key)
}

func (s *Store) schemaStorageKey() string {
	return fmt.Sprintf("%s:schema", s.namespace)
}

func (s *Store) Write(ctx context.Context, key string, data []byte) error {
	// SET is atomic on the Redis side; a failed write leaves any previous
	// value for the key untouched.
	return eris.Wrap(s.client.Set(ctx, s.snapshotKey(key), data, 0).Err(), "failed to write snapshot")
}

func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.snapshotKey(key)).Bytes()
	if eris.Is(err, redis.Nil) {
		return nil, eris.Wrap(storage.ErrSnapshotMissing, key)
	} else if err != nil {
		return nil, eris.Wrap(err, "failed to read snapshot")
	}
	return data, nil
}

func (s *Store) GetSchema(componentName string) ([]byte, error) {
	ctx := context.Background()
	schemaBytes, err := s.client.HGet(ctx, s.schemaStorageKey(), componentName).Bytes()
	if eris.Is(err, redis.Nil) {
		return nil, eris.Wrap(storage.ErrNoSchemaFound, componentName)
	} else if err != nil {
		return nil, eris.Wrap(err, "")
	}
	return schemaBytes, nil
}

func (s *Store) SetSchema(componentName string, schemaData []byte) error {
	ctx := context.Background()
	return eris.Wrap(s.client.HSet(ctx, s.schemaStorageKey(), componentName, schemaData).Err(), "")
}

func (s *Store) Close() error {
	log.Info().Msg("Closing storage connection.")
	if err := s.client.Close(); err != nil {
		return eris.Wrap(err, "")
	}
	log.Info().Msg("Successfully closed storage connection.")
	return nil
}
