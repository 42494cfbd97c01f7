package keepsake

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/keepsake-dev/keepsake/storage"
)

// WorldOption represents an option that can be used to augment how the World will be run.
type WorldOption func(*World)

// WithTickChannel sets the channel that will be used to decide when world.Tick is executed. If unset, a loop interval
// of 1 second will be set. To set some other time, use: WithTickChannel(time.Tick(<some-duration>)). Tests can pass
// in a channel controlled by the test for fine-grained control over when ticks are executed.
func WithTickChannel(ch <-chan time.Time) WorldOption {
	return func(world *World) {
		world.tickChannel = ch
	}
}

// WithTickDoneChannel sets a channel that will be notified each time a tick completes. The completed tick will be
// pushed to the channel. This option is useful in tests when assertions need to be performed at the end of a tick.
func WithTickDoneChannel(ch chan<- uint64) WorldOption {
	return func(world *World) {
		world.tickDoneChannel = ch
	}
}

// WithNamespace sets the World's namespace, overriding KEEPSAKE_NAMESPACE.
// The namespace prefixes log entries and snapshot store keys.
func WithNamespace(namespace string) WorldOption {
	return func(world *World) {
		world.namespace = namespace
		world.logger = world.logger.With().Str("namespace", namespace).Logger()
	}
}

// WithSnapshotStore replaces the store snapshots are written to and read
// from, overriding the KEEPSAKE_SNAPSHOT_BACKEND selection.
func WithSnapshotStore(store storage.SnapshotStore) WorldOption {
	return func(world *World) {
		world.snapshots = store
	}
}

// WithPrettyLog switches the World's logger to human-readable console output.
// This should only be used for local development.
func WithPrettyLog() WorldOption {
	return func(world *World) {
		world.logger = world.logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
