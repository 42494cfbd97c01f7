package keepsake

import (
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/keepsake-dev/keepsake/component"
	"github.com/keepsake-dev/keepsake/filter"
	"github.com/keepsake-dev/keepsake/scene"
	"github.com/keepsake-dev/keepsake/stage"
	"github.com/keepsake-dev/keepsake/storage"
	"github.com/keepsake-dev/keepsake/storage/file"
	"github.com/keepsake-dev/keepsake/storage/memory"
	"github.com/keepsake-dev/keepsake/storage/redis"
	"github.com/keepsake-dev/keepsake/types"
)

const RedisDialTimeout = 15 * time.Second

var _ scene.ComponentSource = (*World)(nil)

// World owns the entity store and the snapshot lifecycle engine that saves
// and restores it. All mutation happens on the tick goroutine; see Tick for
// the phase ordering contract.
type World struct {
	namespace string
	logger    zerolog.Logger

	// Core modules
	componentManager *component.Manager
	systemManager    *systemManager
	snapshots        storage.SnapshotStore

	// Lifecycle
	worldStage *stage.Manager
	loadStage  *stage.Manager

	// Snapshot machinery
	pendingRequest atomic.Pointer[Request]
	fixups         []fixupEntry
	fixupNames     map[string]struct{}
	loaded         *Loaded

	// Entity arena. metas is indexed by types.EntityIndex; despawned indexes
	// are pushed onto freeIndexes and reused with a bumped generation.
	metas       []entityMeta
	freeIndexes []types.EntityIndex
	numAlive    int

	// Tick
	tick                         *atomic.Uint64
	tickChannel                  <-chan time.Time
	tickDoneChannel              chan<- uint64
	addChannelWaitingForNextTick chan chan struct{}
}

type entityMeta struct {
	generation uint32
	alive      bool
	parent     types.Entity
	children   []types.Entity
	components map[types.ComponentID]any
}

// NewWorld creates a new World. The snapshot backend, namespace, and logging
// are taken from KEEPSAKE_* environment variables (see WorldConfig) and may
// be overridden with options.
func NewWorld(opts ...WorldOption) (*World, error) {
	cfg, err := loadWorldConfig()
	if err != nil {
		return nil, eris.Wrap(err, "failed to load config to start world")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, eris.Wrap(err, "")
	}
	logger := zlog.Logger.Level(level).With().Str("namespace", cfg.Namespace).Logger()

	var snapshots storage.SnapshotStore
	var schemas storage.SchemaStorage
	switch cfg.SnapshotBackend {
	case SnapshotBackendRedis:
		store := redis.NewStore(redis.Options{
			Addr:        cfg.RedisAddress,
			Password:    cfg.RedisPassword,
			DB:          0, // use default DB
			DialTimeout: RedisDialTimeout,
		}, cfg.Namespace)
		snapshots = store
		schemas = store
	default:
		snapshots = file.NewStore(cfg.SnapshotDir)
		schemas = memory.NewStore()
	}

	world := &World{
		namespace: cfg.Namespace,
		logger:    logger,

		componentManager: component.NewManager(schemas),
		systemManager:    newSystemManager(),
		snapshots:        snapshots,

		worldStage: stage.NewManager(StageInit),
		loadStage:  stage.NewManager(LoadStageIdle),

		fixupNames: make(map[string]struct{}),

		tick:                         new(atomic.Uint64),
		tickChannel:                  time.Tick(time.Second), //nolint:staticcheck // leaks only at world teardown.
		addChannelWaitingForNextTick: make(chan chan struct{}),
	}

	// Apply options
	for _, opt := range opts {
		opt(world)
	}

	if err := world.registerMarkerComponents(); err != nil {
		return nil, err
	}

	return world, nil
}

// registerMarkerComponents registers the engine's own marker components.
// All three are transient: markers are never written into a scene. Persist
// and Restored are re-attached explicitly when a snapshot is applied.
func (w *World) registerMarkerComponents() error {
	if err := RegisterComponent[Persist](w, component.WithTransient[Persist]()); err != nil {
		return err
	}
	if err := RegisterComponent[Unload](w, component.WithTransient[Unload]()); err != nil {
		return err
	}
	return RegisterComponent[Restored](w, component.WithTransient[Restored]())
}

func (w *World) CurrentTick() uint64 {
	return w.tick.Load()
}

func (w *World) Namespace() string {
	return w.namespace
}

func (w *World) Logger() *zerolog.Logger {
	return &w.logger
}

// NumEntities returns the number of live entities.
func (w *World) NumEntities() int {
	return w.numAlive
}

func (w *World) GetRegisteredComponents() []types.ComponentMetadata {
	return w.componentManager.GetComponents()
}

func (w *World) GetRegisteredSystems() []string {
	return w.systemManager.GetRegisteredSystemNames()
}

func (w *World) GetComponentByName(name string) (types.ComponentMetadata, error) {
	return w.componentManager.GetComponentByName(name)
}

// Search returns an iterator over live entities whose components match the
// given filter. Iteration order is ascending entity index.
func (w *World) Search(componentFilter filter.ComponentFilter) *Search {
	return newSearch(w, componentFilter)
}

// SerializableComponents returns the encoded form of every non-transient
// component attached to e, keyed by durable component name. It implements
// scene.ComponentSource for extraction.
func (w *World) SerializableComponents(e types.Entity) (map[string]json.RawMessage, error) {
	meta, err := w.meta(e)
	if err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(meta.components))
	for id, comp := range meta.components {
		md, err := w.componentManager.GetComponentByID(id)
		if err != nil {
			return nil, err
		}
		if md.Transient() {
			continue
		}
		bz, err := md.Encode(comp)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to encode component %q", md.Name())
		}
		out[md.Name()] = bz
	}
	return out, nil
}
