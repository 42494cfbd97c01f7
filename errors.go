package keepsake

import "github.com/rotisserie/eris"

var (
	// ErrEntityNotFound is returned when an entity handle does not name a
	// live entity, either because it was despawned or because the handle's
	// generation is stale.
	ErrEntityNotFound = eris.New("entity not found")

	// ErrComponentNotOnEntity is returned when a component lookup finds the
	// entity but not the component.
	ErrComponentNotOnEntity = eris.New("component not on entity")

	// ErrComponentAlreadyOnEntity is returned when adding a component to an
	// entity that already carries one of that type.
	ErrComponentAlreadyOnEntity = eris.New("component already on entity")

	// ErrMissingMapping is returned by reference fix-up when a persisted
	// entity reference points at an entity that was not part of the applied
	// snapshot. This is a data-integrity defect: the referenced entity was
	// never saved. It fails the tick rather than leaving a silently wrong
	// reference in the world.
	ErrMissingMapping = eris.New("no identity mapping for loaded entity reference")
)
