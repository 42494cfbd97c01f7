// Package testutils provides world fixtures for unit tests.
package testutils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"gotest.tools/v3/assert"

	"github.com/keepsake-dev/keepsake"
)

// NewTestWorld creates a World suitable for unit tests. Snapshots are written
// to a per-test temp directory that is cleaned up when the test completes.
func NewTestWorld(t testing.TB, opts ...keepsake.WorldOption) *keepsake.World {
	t.Setenv("KEEPSAKE_NAMESPACE", "test")
	t.Setenv("KEEPSAKE_SNAPSHOT_BACKEND", "file")
	t.Setenv("KEEPSAKE_SNAPSHOT_DIR", t.TempDir())

	world, err := keepsake.NewWorld(opts...)
	if err != nil {
		t.Fatalf("Unable to initialize test world: %v", err)
	}
	return world
}

// NewTestRedisWorld creates a World backed by an in-process redis server.
func NewTestRedisWorld(t testing.TB, opts ...keepsake.WorldOption) *keepsake.World {
	s := miniredis.RunT(t)
	t.Setenv("KEEPSAKE_NAMESPACE", "test")
	t.Setenv("KEEPSAKE_SNAPSHOT_BACKEND", "redis")
	t.Setenv("KEEPSAKE_REDIS_ADDRESS", s.Addr())

	world, err := keepsake.NewWorld(opts...)
	if err != nil {
		t.Fatalf("Unable to initialize test world: %v", err)
	}
	return world
}

// DoTick runs a single tick synchronously and fails the test if the tick
// errors.
func DoTick(t testing.TB, world *keepsake.World) {
	assert.NilError(t, world.Tick(context.Background()))
}

// SetTestTimeout fails the test if it runs past the given duration.
func SetTestTimeout(t *testing.T, timeout time.Duration) {
	if _, ok := t.Deadline(); ok {
		// A deadline has already been set. Don't add an additional deadline.
		return
	}
	success := make(chan bool)
	t.Cleanup(func() {
		success <- true
	})
	go func() {
		select {
		case <-success:
			// test was successful. Do nothing
		case <-time.After(timeout):
			panic("test timed out")
		}
	}()
}
