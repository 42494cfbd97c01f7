package keepsake

import (
	"github.com/rotisserie/eris"

	"github.com/keepsake-dev/keepsake/filter"
	"github.com/keepsake-dev/keepsake/types"
)

// Loaded is the identity mapping built by a load: the pre-save index of every
// restored entity mapped to the entity that now holds its components. It is
// visible only during the Post-Load phase of the tick that performed the
// load and is destroyed when that phase ends.
//
// Lookups key on the index alone. Generations are allocator state; an entity
// reference decoded from a snapshot never carries a meaningful generation, so
// comparing full identities across the save/load boundary is always wrong.
type Loaded struct {
	entities map[types.EntityIndex]types.Entity
}

// Entity returns the live entity that was restored from the given pre-save
// reference.
func (l *Loaded) Entity(old types.Entity) (types.Entity, bool) {
	e, ok := l.entities[old.Index]
	return e, ok
}

// Len returns the number of restored entities.
func (l *Loaded) Len() int {
	return len(l.entities)
}

// Remap rewrites a stored entity reference in place so it points at the
// restored entity. A nil ref is an absent optional reference and is left
// alone. A reference whose target is not in the mapping denotes an entity
// that was never saved; that is a data-integrity defect and fails the tick
// rather than leaving a silently wrong reference in the world.
func (l *Loaded) Remap(ref *types.Entity) error {
	if ref == nil {
		return nil
	}
	e, ok := l.entities[ref.Index]
	if !ok {
		return eris.Wrapf(ErrMissingMapping, "reference to index %d", ref.Index)
	}
	*ref = e
	return nil
}

// FixupFunc rewrites the entity references embedded in a single component
// instance using the identity mapping. Implementations should call
// Loaded.Remap on every reference field.
type FixupFunc[T types.Component] func(comp *T, loaded *Loaded) error

type fixupEntry struct {
	name  string
	apply func(w *World, loaded *Loaded) error
}

// RegisterFixup registers a rewrite operation for component type T. Any
// component whose fields contain entity references must have one: identity
// reallocation during a load invalidates every stored reference, and the
// Post-Load phase invokes the registered rewriters over all live instances
// of their component types before any other logic can observe the restored
// world. T must already be registered as a component.
func RegisterFixup[T types.Component](w *World, fn FixupFunc[T]) error {
	var t T
	name := t.Name()
	if _, err := w.componentManager.GetComponentByName(name); err != nil {
		return eris.Wrap(err, "must register component before registering a fixup")
	}
	if _, ok := w.fixupNames[name]; ok {
		return eris.Errorf("fixup for component %q is already registered", name)
	}
	w.fixupNames[name] = struct{}{}
	w.fixups = append(w.fixups, fixupEntry{
		name: name,
		apply: func(w *World, loaded *Loaded) error {
			wCtx := NewWorldContext(w)
			var failure error
			w.Search(filter.Contains(t)).Each(func(e types.Entity) bool {
				comp, err := GetComponent[T](wCtx, e)
				if err != nil {
					failure = err
					return false
				}
				if err := fn(comp, loaded); err != nil {
					failure = eris.Wrapf(err, "fix-up of component %q on %s failed", name, e)
					return false
				}
				return true
			})
			return failure
		},
	})
	return nil
}

// runPostLoadPhase runs reference fix-up. It executes every tick, immediately
// after the Load phase and before ordinary systems, but only does work when a
// load produced an identity mapping this tick. At the end of the phase the
// mapping is destroyed and every Restored tag is removed, so a second run has
// nothing to fix: fix-up is once-per-load by construction.
//
// A fix-up failure is an integrity defect and is returned as a tick error
// rather than logged and swallowed.
func (w *World) runPostLoadPhase() error {
	if w.loaded == nil {
		return nil
	}
	loaded := w.loaded

	for _, entry := range w.fixups {
		if err := entry.apply(w, loaded); err != nil {
			return eris.Wrap(err, "post-load fix-up failed")
		}
	}

	w.clearRestoredTags()
	w.loaded = nil
	w.loadStage.Store(LoadStageIdle)

	w.logger.Info().
		Str("phase", "post-load").
		Int("entities", loaded.Len()).
		Int("fixups", len(w.fixups)).
		Msg("post-load fix-up complete")
	return nil
}

func (w *World) clearRestoredTags() {
	wCtx := NewWorldContext(w)
	for _, e := range w.Search(filter.Contains(Restored{})).Collect() {
		// The entity is live and carries the tag; removal cannot fail.
		_ = RemoveComponentFrom[Restored](wCtx, e)
	}
}
