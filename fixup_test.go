package keepsake_test

import (
	"context"
	"testing"

	"github.com/keepsake-dev/keepsake"
	"github.com/keepsake-dev/keepsake/assert"
	"github.com/keepsake-dev/keepsake/filter"
	"github.com/keepsake-dev/keepsake/storage/memory"
	"github.com/keepsake-dev/keepsake/testutils"
	"github.com/keepsake-dev/keepsake/types"
)

func registerPawnComponents(t *testing.T, world *keepsake.World) {
	t.Helper()
	assert.NilError(t, keepsake.RegisterComponent[Position](world))
	assert.NilError(t, keepsake.RegisterComponent[Weapon](world))
	assert.NilError(t, keepsake.RegisterComponent[Target](world))
	assert.NilError(t, keepsake.RegisterComponent[CurrentWeapon](world))
}

func TestReferencesAreRemappedAfterLoad(t *testing.T) {
	store := memory.NewStore()

	world1 := testutils.NewTestWorld(t, keepsake.WithSnapshotStore(store))
	registerPawnComponents(t, world1)
	wCtx1 := keepsake.NewWorldContext(world1)

	weapon, err := keepsake.Create(wCtx1, keepsake.Persist{}, Weapon{Damage: 12})
	assert.NilError(t, err)
	_, err = keepsake.Create(wCtx1, keepsake.Persist{}, Position{X: 1}, Target{Entity: weapon})
	assert.NilError(t, err)

	world1.EnqueueSave("save.json")
	testutils.DoTick(t, world1)

	world2 := testutils.NewTestWorld(t, keepsake.WithSnapshotStore(store))
	registerPawnComponents(t, world2)
	assert.NilError(t, keepsake.RegisterFixup(world2, func(c *Target, loaded *keepsake.Loaded) error {
		return loaded.Remap(&c.Entity)
	}))
	wCtx2 := keepsake.NewWorldContext(world2)

	// Occupy the low indexes so the restored entities cannot land on the
	// indexes they were saved with.
	_, err = keepsake.CreateMany(wCtx2, 3, Position{})
	assert.NilError(t, err)

	world2.EnqueueLoad("save.json")
	testutils.DoTick(t, world2)

	holder, err := world2.Search(filter.Contains(Target{})).First()
	assert.NilError(t, err)
	target, err := keepsake.GetComponent[Target](wCtx2, holder)
	assert.NilError(t, err)

	// The stored reference now names the restored weapon, not the stale
	// pre-save identity.
	assert.True(t, world2.Exists(target.Entity))
	restored, err := keepsake.GetComponent[Weapon](wCtx2, target.Entity)
	assert.NilError(t, err)
	assert.Equal(t, restored.Damage, 12)
}

func TestNilOptionalReferenceIsLeftAlone(t *testing.T) {
	store := memory.NewStore()

	world1 := testutils.NewTestWorld(t, keepsake.WithSnapshotStore(store))
	registerPawnComponents(t, world1)
	wCtx1 := keepsake.NewWorldContext(world1)
	_, err := keepsake.Create(wCtx1, keepsake.Persist{}, CurrentWeapon{Weapon: nil})
	assert.NilError(t, err)
	world1.EnqueueSave("save.json")
	testutils.DoTick(t, world1)

	world2 := testutils.NewTestWorld(t, keepsake.WithSnapshotStore(store))
	registerPawnComponents(t, world2)
	assert.NilError(t, keepsake.RegisterFixup(world2, func(c *CurrentWeapon, loaded *keepsake.Loaded) error {
		return loaded.Remap(c.Weapon)
	}))
	wCtx2 := keepsake.NewWorldContext(world2)

	world2.EnqueueLoad("save.json")
	testutils.DoTick(t, world2)

	holder, err := world2.Search(filter.Contains(CurrentWeapon{})).First()
	assert.NilError(t, err)
	cw, err := keepsake.GetComponent[CurrentWeapon](wCtx2, holder)
	assert.NilError(t, err)
	assert.Nil(t, cw.Weapon)
}

func TestMissingMappingFailsTheTick(t *testing.T) {
	store := memory.NewStore()

	world1 := testutils.NewTestWorld(t, keepsake.WithSnapshotStore(store))
	registerPawnComponents(t, world1)
	wCtx1 := keepsake.NewWorldContext(world1)

	// The weapon is not marked Persist, so the snapshot contains a dangling
	// reference to it.
	weapon, err := keepsake.Create(wCtx1, Weapon{Damage: 1})
	assert.NilError(t, err)
	_, err = keepsake.Create(wCtx1, keepsake.Persist{}, Target{Entity: weapon})
	assert.NilError(t, err)
	world1.EnqueueSave("save.json")
	testutils.DoTick(t, world1)

	world2 := testutils.NewTestWorld(t, keepsake.WithSnapshotStore(store))
	registerPawnComponents(t, world2)
	assert.NilError(t, keepsake.RegisterFixup(world2, func(c *Target, loaded *keepsake.Loaded) error {
		return loaded.Remap(&c.Entity)
	}))

	world2.EnqueueLoad("save.json")
	err = world2.Tick(context.Background())
	assert.ErrorIs(t, err, keepsake.ErrMissingMapping)
}

func TestRestoredTagCarriesPreSaveIndex(t *testing.T) {
	store := memory.NewStore()

	world1 := testutils.NewTestWorld(t, keepsake.WithSnapshotStore(store))
	registerPawnComponents(t, world1)
	wCtx1 := keepsake.NewWorldContext(world1)
	saved, err := keepsake.Create(wCtx1, keepsake.Persist{}, Position{})
	assert.NilError(t, err)
	world1.EnqueueSave("save.json")
	testutils.DoTick(t, world1)

	world2 := testutils.NewTestWorld(t, keepsake.WithSnapshotStore(store))
	registerPawnComponents(t, world2)
	wCtx2 := keepsake.NewWorldContext(world2)
	_, err = keepsake.CreateMany(wCtx2, 2, Position{})
	assert.NilError(t, err)

	// Restored is a component like any other during the Post-Load phase, so
	// a fixup on it can observe the pre-save identity it carries.
	var observed []keepsake.Restored
	assert.NilError(t, keepsake.RegisterFixup(world2, func(r *keepsake.Restored, loaded *keepsake.Loaded) error {
		observed = append(observed, *r)
		_, ok := loaded.Entity(types.Entity{Index: r.Index})
		assert.True(t, ok)
		return nil
	}))

	world2.EnqueueLoad("save.json")
	testutils.DoTick(t, world2)

	assert.Len(t, observed, 1)
	assert.Equal(t, observed[0].Index, saved.Index)
	// The tag itself is gone once the phase ends.
	assert.Equal(t, world2.Search(filter.Contains(keepsake.Restored{})).Count(), 0)
}

func TestFixupRegistrationRules(t *testing.T) {
	world := testutils.NewTestWorld(t)

	// A fixup cannot target an unregistered component.
	err := keepsake.RegisterFixup(world, func(c *Target, loaded *keepsake.Loaded) error {
		return loaded.Remap(&c.Entity)
	})
	assert.ErrorContains(t, err, "must register component")

	assert.NilError(t, keepsake.RegisterComponent[Target](world))
	assert.NilError(t, keepsake.RegisterFixup(world, func(c *Target, loaded *keepsake.Loaded) error {
		return loaded.Remap(&c.Entity)
	}))
	err = keepsake.RegisterFixup(world, func(c *Target, loaded *keepsake.Loaded) error {
		return nil
	})
	assert.ErrorContains(t, err, "already registered")
}

func TestSecondTickAfterLoadIsANoOp(t *testing.T) {
	store := memory.NewStore()

	world1 := testutils.NewTestWorld(t, keepsake.WithSnapshotStore(store))
	registerPawnComponents(t, world1)
	wCtx1 := keepsake.NewWorldContext(world1)
	_, err := keepsake.Create(wCtx1, keepsake.Persist{}, Position{X: 2})
	assert.NilError(t, err)
	world1.EnqueueSave("save.json")
	testutils.DoTick(t, world1)

	fixupRuns := 0
	world2 := testutils.NewTestWorld(t, keepsake.WithSnapshotStore(store))
	registerPawnComponents(t, world2)
	assert.NilError(t, keepsake.RegisterFixup(world2, func(c *Position, loaded *keepsake.Loaded) error {
		fixupRuns++
		return nil
	}))

	world2.EnqueueLoad("save.json")
	testutils.DoTick(t, world2)
	assert.Equal(t, fixupRuns, 1)
	assert.Equal(t, world2.LoadStage(), keepsake.LoadStageIdle)

	// No pending request and no live mapping: the snapshot phases do nothing.
	testutils.DoTick(t, world2)
	assert.Equal(t, fixupRuns, 1)
	assert.Equal(t, world2.NumEntities(), 1)
}
