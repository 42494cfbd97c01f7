package keepsake

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/keepsake-dev/keepsake/filter"
	"github.com/keepsake-dev/keepsake/scene"
	"github.com/keepsake-dev/keepsake/stage"
	"github.com/keepsake-dev/keepsake/types"
)

// Load executor stages. The executor is Idle between loads; a load request
// drives it through Unloading, Reading, and Applying within the Load phase,
// then it waits in AwaitingFixup until the end of the Post-Load phase.
const (
	LoadStageIdle          stage.Stage = "Idle"
	LoadStageUnloading     stage.Stage = "Unloading"
	LoadStageReading       stage.Stage = "Reading"
	LoadStageApplying      stage.Stage = "Applying"
	LoadStageAwaitingFixup stage.Stage = "AwaitingFixup"
)

// LoadStage returns the load executor's current stage.
func (w *World) LoadStage() stage.Stage {
	return w.loadStage.Current()
}

// runLoadPhase resolves a pending load request. I/O, format, and schema
// failures are recoverable: they are logged and the executor returns to
// Idle. Note that by the time the snapshot is read, Unloading has already
// despawned every Persist/Unload entity, so an aborted load leaves the world
// without them. Staging the despawn until after a successful parse would be
// safer but would change observable semantics; the current behavior is the
// documented trade-off.
func (w *World) runLoadPhase(ctx context.Context, req *Request) {
	logger := w.logger.With().
		Str("phase", "load").
		Str("path", req.path).
		Logger()

	w.loadStage.Store(LoadStageUnloading)
	unloaded := w.unload()
	logger.Debug().Int("entities", unloaded).Msg("unloaded world")

	w.loadStage.Store(LoadStageReading)
	serialized, err := w.snapshots.Read(ctx, req.path)
	if err != nil {
		logger.Error().Err(err).Msg("snapshot read failed")
		w.loadStage.Store(LoadStageIdle)
		return
	}
	sc, err := scene.Decode(serialized)
	if err != nil {
		logger.Error().Err(err).Msg("snapshot decode failed")
		w.loadStage.Store(LoadStageIdle)
		return
	}

	w.loadStage.Store(LoadStageApplying)
	loaded, err := w.apply(sc)
	if err != nil {
		logger.Error().Err(err).Msg("snapshot apply failed")
		w.loadStage.Store(LoadStageIdle)
		return
	}

	w.loaded = loaded
	w.loadStage.Store(LoadStageAwaitingFixup)
	logger.Info().Int("entities", loaded.Len()).Msg("load successful")
}

// unload despawns every entity marked Persist or Unload, recursively. The
// entity list is collected up front; an entity that disappears because an
// ancestor was despawned first is skipped, not an error.
func (w *World) unload() int {
	entities := w.Search(filter.Or(
		filter.Contains(Persist{}),
		filter.Contains(Unload{}),
	)).Collect()

	count := 0
	for _, e := range entities {
		if !w.Exists(e) {
			continue
		}
		w.despawnRecursive(e)
		count++
	}
	return count
}

// decodedRecord is one scene record after validation: every component name
// resolved against the live registry and every value decoded.
type decodedRecord struct {
	index types.EntityIndex
	comps []decodedComponent
}

type decodedComponent struct {
	metadata types.ComponentMetadata
	value    any
}

// apply inserts every scene record as a fresh entity, tagged Persist (so it
// participates in future saves) and Restored (so fix-up can find it), and
// returns the old-index to new-entity mapping. The scene is validated in
// full before the first entity is inserted, so an unknown component name or
// an undecodable value aborts the load without half-applying the snapshot.
func (w *World) apply(sc *scene.Scene) (*Loaded, error) {
	records := make([]decodedRecord, 0, len(sc.Entities))
	for _, rec := range sc.Entities {
		decoded := decodedRecord{index: rec.Index}
		for name, raw := range rec.Components {
			md, err := w.componentManager.GetComponentByName(name)
			if err != nil {
				return nil, eris.Wrapf(err, "scene has a component unknown to the registry")
			}
			value, err := md.Decode(raw)
			if err != nil {
				return nil, eris.Wrapf(err, "failed to decode component %q", name)
			}
			decoded.comps = append(decoded.comps, decodedComponent{metadata: md, value: value})
		}
		records = append(records, decoded)
	}

	persistMD, err := w.componentManager.GetComponentByName(Persist{}.Name())
	if err != nil {
		return nil, err
	}
	restoredMD, err := w.componentManager.GetComponentByName(Restored{}.Name())
	if err != nil {
		return nil, err
	}

	mapping := make(map[types.EntityIndex]types.Entity, len(records))
	for _, rec := range records {
		e := w.createEntity()
		meta, err := w.meta(e)
		if err != nil {
			return nil, err
		}
		for _, comp := range rec.comps {
			w.setComponentValue(comp.metadata, meta, comp.value)
		}
		w.setComponentValue(persistMD, meta, Persist{})
		w.setComponentValue(restoredMD, meta, Restored{Index: rec.index})
		mapping[rec.index] = e

		w.logger.Debug().
			Uint32("old_index", uint32(rec.index)).
			Str("entity", e.String()).
			Msg("entity restored")
	}

	return &Loaded{entities: mapping}, nil
}
