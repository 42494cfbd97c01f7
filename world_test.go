package keepsake_test

import (
	"testing"

	"github.com/keepsake-dev/keepsake"
	"github.com/keepsake-dev/keepsake/assert"
	"github.com/keepsake-dev/keepsake/filter"
	"github.com/keepsake-dev/keepsake/testutils"
	"github.com/keepsake-dev/keepsake/types"
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (Position) Name() string { return "Position" }

type Health struct {
	Value int `json:"value"`
}

func (Health) Name() string { return "Health" }

type Target struct {
	Entity types.Entity `json:"entity"`
}

func (Target) Name() string { return "Target" }

// CurrentWeapon holds an optional reference; nil means unarmed.
type CurrentWeapon struct {
	Weapon *types.Entity `json:"weapon"`
}

func (CurrentWeapon) Name() string { return "CurrentWeapon" }

type Weapon struct {
	Damage int `json:"damage"`
}

func (Weapon) Name() string { return "Weapon" }

func TestEntityLifecycle(t *testing.T) {
	world := testutils.NewTestWorld(t)
	assert.NilError(t, keepsake.RegisterComponent[Position](world))
	wCtx := keepsake.NewWorldContext(world)

	e, err := keepsake.Create(wCtx, Position{X: 1, Y: 2})
	assert.NilError(t, err)
	assert.True(t, world.Exists(e))
	assert.Equal(t, world.NumEntities(), 1)

	pos, err := keepsake.GetComponent[Position](wCtx, e)
	assert.NilError(t, err)
	assert.Equal(t, pos.X, 1.0)
	assert.Equal(t, pos.Y, 2.0)

	keepsake.DespawnRecursive(wCtx, e)
	assert.False(t, world.Exists(e))
	assert.Equal(t, world.NumEntities(), 0)

	_, err = keepsake.GetComponent[Position](wCtx, e)
	assert.ErrorIs(t, err, keepsake.ErrEntityNotFound)
}

func TestDespawnedIndexIsReusedWithNewGeneration(t *testing.T) {
	world := testutils.NewTestWorld(t)
	assert.NilError(t, keepsake.RegisterComponent[Position](world))
	wCtx := keepsake.NewWorldContext(world)

	old, err := keepsake.Create(wCtx, Position{X: 1})
	assert.NilError(t, err)
	keepsake.DespawnRecursive(wCtx, old)

	fresh, err := keepsake.Create(wCtx, Position{X: 2})
	assert.NilError(t, err)
	assert.Equal(t, fresh.Index, old.Index)
	assert.NotEqual(t, fresh.Generation, old.Generation)

	// The stale handle must not resolve to the new occupant.
	assert.False(t, world.Exists(old))
	_, err = keepsake.GetComponent[Position](wCtx, old)
	assert.ErrorIs(t, err, keepsake.ErrEntityNotFound)

	pos, err := keepsake.GetComponent[Position](wCtx, fresh)
	assert.NilError(t, err)
	assert.Equal(t, pos.X, 2.0)
}

func TestDespawnRecursive(t *testing.T) {
	world := testutils.NewTestWorld(t)
	assert.NilError(t, keepsake.RegisterComponent[Position](world))
	wCtx := keepsake.NewWorldContext(world)

	parent, err := keepsake.Create(wCtx, Position{})
	assert.NilError(t, err)
	child, err := keepsake.Create(wCtx, Position{})
	assert.NilError(t, err)
	grandchild, err := keepsake.Create(wCtx, Position{})
	assert.NilError(t, err)
	bystander, err := keepsake.Create(wCtx, Position{})
	assert.NilError(t, err)

	assert.NilError(t, keepsake.SetParent(wCtx, child, parent))
	assert.NilError(t, keepsake.SetParent(wCtx, grandchild, child))

	keepsake.DespawnRecursive(wCtx, parent)
	assert.False(t, world.Exists(parent))
	assert.False(t, world.Exists(child))
	assert.False(t, world.Exists(grandchild))
	assert.True(t, world.Exists(bystander))

	// Despawning an entity that is already gone is a no-op.
	keepsake.DespawnRecursive(wCtx, child)
	assert.Equal(t, world.NumEntities(), 1)
}

func TestDespawnRecursiveRemovesEverySibling(t *testing.T) {
	world := testutils.NewTestWorld(t)
	assert.NilError(t, keepsake.RegisterComponent[Position](world))
	wCtx := keepsake.NewWorldContext(world)

	parent, err := keepsake.Create(wCtx, Position{})
	assert.NilError(t, err)

	children := make([]types.Entity, 4)
	for i := range children {
		children[i], err = keepsake.Create(wCtx, Position{})
		assert.NilError(t, err)
		assert.NilError(t, keepsake.SetParent(wCtx, children[i], parent))
	}

	keepsake.DespawnRecursive(wCtx, parent)

	assert.False(t, world.Exists(parent))
	for i, child := range children {
		if world.Exists(child) {
			t.Errorf("child %d survived despawn of its parent", i)
		}
	}
	assert.Equal(t, world.NumEntities(), 0)
}

func TestComponentOperations(t *testing.T) {
	world := testutils.NewTestWorld(t)
	assert.NilError(t, keepsake.RegisterComponent[Position](world))
	assert.NilError(t, keepsake.RegisterComponent[Health](world))
	wCtx := keepsake.NewWorldContext(world)

	e, err := keepsake.Create(wCtx, Position{})
	assert.NilError(t, err)

	_, err = keepsake.GetComponent[Health](wCtx, e)
	assert.ErrorIs(t, err, keepsake.ErrComponentNotOnEntity)

	assert.NilError(t, keepsake.AddComponentTo[Health](wCtx, e))
	err = keepsake.AddComponentTo[Health](wCtx, e)
	assert.ErrorIs(t, err, keepsake.ErrComponentAlreadyOnEntity)

	assert.NilError(t, keepsake.UpdateComponent[Health](wCtx, e, func(h *Health) *Health {
		h.Value = 40
		return h
	}))
	health, err := keepsake.GetComponent[Health](wCtx, e)
	assert.NilError(t, err)
	assert.Equal(t, health.Value, 40)

	// Mutation through the returned pointer is visible to later reads.
	health.Value = 50
	again, err := keepsake.GetComponent[Health](wCtx, e)
	assert.NilError(t, err)
	assert.Equal(t, again.Value, 50)

	assert.NilError(t, keepsake.RemoveComponentFrom[Health](wCtx, e))
	err = keepsake.RemoveComponentFrom[Health](wCtx, e)
	assert.ErrorIs(t, err, keepsake.ErrComponentNotOnEntity)
}

func TestSearch(t *testing.T) {
	world := testutils.NewTestWorld(t)
	assert.NilError(t, keepsake.RegisterComponent[Position](world))
	assert.NilError(t, keepsake.RegisterComponent[Health](world))
	wCtx := keepsake.NewWorldContext(world)

	_, err := keepsake.CreateMany(wCtx, 3, Position{})
	assert.NilError(t, err)
	_, err = keepsake.CreateMany(wCtx, 2, Position{}, Health{})
	assert.NilError(t, err)
	_, err = keepsake.Create(wCtx, Health{})
	assert.NilError(t, err)

	assert.Equal(t, world.Search(filter.Contains(Position{})).Count(), 5)
	assert.Equal(t, world.Search(filter.Contains(Health{})).Count(), 3)
	assert.Equal(t, world.Search(filter.And(
		filter.Contains(Position{}),
		filter.Contains(Health{}),
	)).Count(), 2)
	assert.Equal(t, world.Search(filter.Exact(Health{})).Count(), 1)
	assert.Equal(t, world.Search(filter.Not(filter.Contains(Health{}))).Count(), 3)
	assert.Equal(t, world.Search(filter.All()).Count(), 6)

	first, err := world.Search(filter.Contains(Position{})).First()
	assert.NilError(t, err)
	assert.True(t, world.Exists(first))

	_, err = world.Search(filter.Contains(Target{})).First()
	assert.ErrorIs(t, err, keepsake.ErrEntityNotFound)
}

func TestRegisterComponentRejectsDuplicates(t *testing.T) {
	world := testutils.NewTestWorld(t)
	assert.NilError(t, keepsake.RegisterComponent[Position](world))
	err := keepsake.RegisterComponent[Position](world)
	assert.ErrorContains(t, err, "is already registered")
}

func TestCreateRequiresRegisteredComponent(t *testing.T) {
	world := testutils.NewTestWorld(t)
	wCtx := keepsake.NewWorldContext(world)
	_, err := keepsake.Create(wCtx, Position{})
	assert.ErrorContains(t, err, "must register component")
}
