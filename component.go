package keepsake

import (
	"github.com/rotisserie/eris"

	"github.com/keepsake-dev/keepsake/component"
	"github.com/keepsake-dev/keepsake/types"
)

// RegisterComponent registers the component type T with the world. A
// component must be registered before it can be attached to an entity or
// appear in a snapshot. Registration persists the component's JSON schema
// through the world's schema storage and rejects drift from a previously
// stored schema.
func RegisterComponent[T types.Component](w *World, opts ...component.Option[T]) error {
	compMetadata, err := component.NewComponentMetadata[T](opts...)
	if err != nil {
		return err
	}
	return w.componentManager.RegisterComponent(compMetadata)
}

// Create creates a single entity with the given components attached.
func Create(wCtx WorldContext, components ...types.Component) (types.Entity, error) {
	entities, err := CreateMany(wCtx, 1, components...)
	if err != nil {
		return types.Entity{}, err
	}
	return entities[0], nil
}

// CreateMany creates num entities, each with the given components attached.
func CreateMany(wCtx WorldContext, num int, components ...types.Component) ([]types.Entity, error) {
	w := wCtx.world()

	// Resolve all metadata up front so a typo'd registration fails before
	// any entity is created.
	metadatas := make([]types.ComponentMetadata, len(components))
	for i, comp := range components {
		md, err := w.componentManager.GetComponentByName(comp.Name())
		if err != nil {
			return nil, eris.Wrap(err, "must register component before creating an entity")
		}
		metadatas[i] = md
	}

	entities := make([]types.Entity, 0, num)
	for i := 0; i < num; i++ {
		e := w.createEntity()
		meta, err := w.meta(e)
		if err != nil {
			return nil, err
		}
		for j, comp := range components {
			w.setComponentValue(metadatas[j], meta, comp)
		}
		entities = append(entities, e)
		w.logger.Debug().
			Str("entity", e.String()).
			Int("num_components", len(components)).
			Msg("entity created")
	}
	return entities, nil
}

// GetComponent returns a pointer to the entity's component of type T.
// Mutations through the pointer are visible to subsequent reads and to scene
// extraction.
func GetComponent[T types.Component](wCtx WorldContext, e types.Entity) (*T, error) {
	w := wCtx.world()
	var t T
	md, err := w.componentManager.GetComponentByName(t.Name())
	if err != nil {
		return nil, err
	}
	meta, err := w.meta(e)
	if err != nil {
		return nil, err
	}
	value, ok := meta.components[md.ID()]
	if !ok {
		return nil, eris.Wrapf(ErrComponentNotOnEntity, "component %q on %s", t.Name(), e)
	}
	comp, ok := value.(*T)
	if !ok {
		return nil, eris.Errorf("type assertion for component failed: %v to %v", value, t.Name())
	}
	return comp, nil
}

// SetComponent sets the entity's component of type T, attaching it if absent.
func SetComponent[T types.Component](wCtx WorldContext, e types.Entity, comp *T) error {
	w := wCtx.world()
	var t T
	md, err := w.componentManager.GetComponentByName(t.Name())
	if err != nil {
		return err
	}
	meta, err := w.meta(e)
	if err != nil {
		return err
	}
	w.setComponentValue(md, meta, comp)
	w.logger.Debug().
		Str("entity", e.String()).
		Str("component_name", md.Name()).
		Int("component_id", int(md.ID())).
		Msg("entity updated")
	return nil
}

// AddComponentTo attaches the default value of component T to the entity.
// It is an error if the entity already carries a T.
func AddComponentTo[T types.Component](wCtx WorldContext, e types.Entity) error {
	w := wCtx.world()
	var t T
	md, err := w.componentManager.GetComponentByName(t.Name())
	if err != nil {
		return err
	}
	meta, err := w.meta(e)
	if err != nil {
		return err
	}
	if _, ok := meta.components[md.ID()]; ok {
		return eris.Wrapf(ErrComponentAlreadyOnEntity, "component %q on %s", t.Name(), e)
	}
	bz, err := md.New()
	if err != nil {
		return err
	}
	defaultVal, err := md.Decode(bz)
	if err != nil {
		return err
	}
	w.setComponentValue(md, meta, defaultVal)
	return nil
}

// RemoveComponentFrom detaches component T from the entity.
func RemoveComponentFrom[T types.Component](wCtx WorldContext, e types.Entity) error {
	w := wCtx.world()
	var t T
	md, err := w.componentManager.GetComponentByName(t.Name())
	if err != nil {
		return err
	}
	meta, err := w.meta(e)
	if err != nil {
		return err
	}
	if _, ok := meta.components[md.ID()]; !ok {
		return eris.Wrapf(ErrComponentNotOnEntity, "component %q on %s", t.Name(), e)
	}
	delete(meta.components, md.ID())
	return nil
}

// UpdateComponent reads the entity's component of type T, applies fn, and
// stores the result.
func UpdateComponent[T types.Component](wCtx WorldContext, e types.Entity, fn func(*T) *T) error {
	val, err := GetComponent[T](wCtx, e)
	if err != nil {
		return err
	}
	return SetComponent[T](wCtx, e, fn(val))
}

// SetParent makes child part of parent's containment tree: despawning the
// parent recursively despawns the child.
func SetParent(wCtx WorldContext, child, parent types.Entity) error {
	return wCtx.world().setParent(child, parent)
}

// DespawnRecursive removes the entity and all of its descendants. Despawning
// an entity that no longer exists is a no-op.
func DespawnRecursive(wCtx WorldContext, e types.Entity) {
	wCtx.world().despawnRecursive(e)
}
