package keepsake

import (
	"reflect"

	"github.com/rotisserie/eris"

	"github.com/keepsake-dev/keepsake/types"
)

// createEntity allocates a fresh entity. Despawned indexes are reused with a
// bumped generation so stale handles never alias the new occupant.
func (w *World) createEntity() types.Entity {
	var idx types.EntityIndex
	if n := len(w.freeIndexes); n > 0 {
		idx = w.freeIndexes[n-1]
		w.freeIndexes = w.freeIndexes[:n-1]
	} else {
		idx = types.EntityIndex(len(w.metas))
		w.metas = append(w.metas, entityMeta{})
	}

	meta := &w.metas[idx]
	meta.generation++
	meta.alive = true
	meta.parent = types.Entity{}
	meta.children = nil
	meta.components = make(map[types.ComponentID]any)
	w.numAlive++

	return types.Entity{Index: idx, Generation: meta.generation}
}

// meta resolves an entity handle, rejecting despawned entities and stale
// generations.
func (w *World) meta(e types.Entity) (*entityMeta, error) {
	if int(e.Index) >= len(w.metas) {
		return nil, eris.Wrap(ErrEntityNotFound, e.String())
	}
	meta := &w.metas[e.Index]
	if !meta.alive || meta.generation != e.Generation {
		return nil, eris.Wrap(ErrEntityNotFound, e.String())
	}
	return meta, nil
}

// Exists reports whether e names a live entity.
func (w *World) Exists(e types.Entity) bool {
	_, err := w.meta(e)
	return err == nil
}

// entityAt returns the live entity at the given index, if any.
func (w *World) entityAt(idx types.EntityIndex) (types.Entity, bool) {
	if int(idx) >= len(w.metas) || !w.metas[idx].alive {
		return types.Entity{}, false
	}
	return types.Entity{Index: idx, Generation: w.metas[idx].generation}, true
}

// despawnRecursive removes e and every descendant in its containment tree.
// Despawning an entity that is already gone is a no-op, not an error: during
// unload an entity may have been removed as a side effect of despawning an
// ancestor.
func (w *World) despawnRecursive(e types.Entity) {
	meta, err := w.meta(e)
	if err != nil {
		return
	}
	// Detach the children before recursing: each child's despawnOne compacts
	// its parent's children slice, which would skip siblings mid-iteration.
	children := meta.children
	meta.children = nil
	for _, child := range children {
		w.despawnRecursive(child)
	}
	w.despawnOne(e, meta)
}

func (w *World) despawnOne(e types.Entity, meta *entityMeta) {
	if !meta.parent.IsZero() {
		if parentMeta, err := w.meta(meta.parent); err == nil {
			parentMeta.children = removeEntity(parentMeta.children, e)
		}
	}
	meta.alive = false
	meta.parent = types.Entity{}
	meta.children = nil
	meta.components = nil
	w.numAlive--
	w.freeIndexes = append(w.freeIndexes, e.Index)

	w.logger.Debug().Str("entity", e.String()).Msg("entity despawned")
}

func (w *World) setParent(child, parent types.Entity) error {
	childMeta, err := w.meta(child)
	if err != nil {
		return eris.Wrap(err, "child")
	}
	parentMeta, err := w.meta(parent)
	if err != nil {
		return eris.Wrap(err, "parent")
	}
	if !childMeta.parent.IsZero() {
		if oldMeta, err := w.meta(childMeta.parent); err == nil {
			oldMeta.children = removeEntity(oldMeta.children, child)
		}
	}
	childMeta.parent = parent
	parentMeta.children = append(parentMeta.children, child)
	return nil
}

// componentsOf returns the component values attached to the given meta, for
// filter matching.
func (w *World) componentsOf(meta *entityMeta) []types.Component {
	comps := make([]types.Component, 0, len(meta.components))
	for _, c := range meta.components {
		comps = append(comps, c.(types.Component))
	}
	return comps
}

func (w *World) setComponentValue(md types.ComponentMetadata, meta *entityMeta, value any) {
	meta.components[md.ID()] = normalizeComponentValue(value)
}

// normalizeComponentValue ensures every stored component is a pointer to its
// struct, so callers of GetComponent can mutate components in place. This is
// what the Post-Load fix-up contract relies on.
func normalizeComponentValue(comp any) any {
	v := reflect.ValueOf(comp)
	if v.Kind() == reflect.Pointer {
		return comp
	}
	ptr := reflect.New(v.Type())
	ptr.Elem().Set(v)
	return ptr.Interface()
}

func removeEntity(entities []types.Entity, e types.Entity) []types.Entity {
	for i, candidate := range entities {
		if candidate == e {
			return append(entities[:i], entities[i+1:]...)
		}
	}
	return entities
}
