// Command pawn demonstrates a full save/load round trip: a pawn holding a
// reference to its weapon entity is saved, then restored into a fresh world
// whose entity indexes are already occupied, with the weapon reference
// rewritten during the Post-Load phase.
package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/keepsake-dev/keepsake"
	"github.com/keepsake-dev/keepsake/component"
	"github.com/keepsake-dev/keepsake/filter"
	"github.com/keepsake-dev/keepsake/types"
)

type Pawn struct{}

func (Pawn) Name() string { return "Pawn" }

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (Position) Name() string { return "Position" }

// CurrentWeapon is an optional reference to the weapon the pawn is holding.
type CurrentWeapon struct {
	Weapon *types.Entity `json:"weapon"`
}

func (CurrentWeapon) Name() string { return "CurrentWeapon" }

type Weapon struct{}

func (Weapon) Name() string { return "Weapon" }

// Sprite is the pawn's visual. It is registered transient and its model
// entity carries Unload: neither is ever saved, both are rebuilt from pawn
// data after every load.
type Sprite struct {
	Model types.Entity `json:"model"`
}

func (Sprite) Name() string { return "Sprite" }

func newWorld() (*keepsake.World, error) {
	world, err := keepsake.NewWorld(keepsake.WithPrettyLog())
	if err != nil {
		return nil, err
	}

	if err := keepsake.RegisterComponent[Pawn](world); err != nil {
		return nil, err
	}
	if err := keepsake.RegisterComponent[Position](world); err != nil {
		return nil, err
	}
	if err := keepsake.RegisterComponent[CurrentWeapon](world); err != nil {
		return nil, err
	}
	if err := keepsake.RegisterComponent[Weapon](world); err != nil {
		return nil, err
	}
	if err := keepsake.RegisterComponent[Sprite](world, component.WithTransient[Sprite]()); err != nil {
		return nil, err
	}

	if err := keepsake.RegisterSystems(world, SpawnPawnSprites); err != nil {
		return nil, err
	}

	// CurrentWeapon holds an entity reference, so it must be rewritten
	// against the identity mapping after every load.
	err = keepsake.RegisterFixup(world, func(c *CurrentWeapon, loaded *keepsake.Loaded) error {
		return loaded.Remap(c.Weapon)
	})
	if err != nil {
		return nil, err
	}

	return world, nil
}

// SpawnPawnSprites attaches a sprite to every pawn that does not have one
// yet. Sprites reference a model entity marked Unload: it is rebuilt here
// after every load instead of being persisted.
func SpawnPawnSprites(wCtx keepsake.WorldContext) error {
	bare := keepsake.NewSearch(wCtx, filter.And(
		filter.Contains(Pawn{}),
		filter.Not(filter.Contains(Sprite{})),
	)).Collect()
	for _, e := range bare {
		model, err := keepsake.Create(wCtx, keepsake.Unload{})
		if err != nil {
			return err
		}
		if err := keepsake.SetComponent(wCtx, e, &Sprite{Model: model}); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	ctx := context.Background()

	// Save
	{
		world, err := newWorld()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build world")
		}
		wCtx := keepsake.NewWorldContext(world)

		weapon, err := keepsake.Create(wCtx, keepsake.Persist{}, Weapon{})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to spawn weapon")
		}
		_, err = keepsake.Create(wCtx,
			keepsake.Persist{},
			Pawn{},
			Position{X: 4, Y: 7},
			CurrentWeapon{Weapon: &weapon},
		)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to spawn pawn")
		}

		world.EnqueueSave("pawn.json")
		if err := world.Tick(ctx); err != nil {
			log.Fatal().Err(err).Msg("save tick failed")
		}
	}

	// Load
	{
		world, err := newWorld()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build world")
		}
		wCtx := keepsake.NewWorldContext(world)

		// Occupy a few indexes so the saved identities are invalidated, for
		// demonstration.
		if _, err := keepsake.CreateMany(wCtx, 3); err != nil {
			log.Fatal().Err(err).Msg("failed to spawn decoys")
		}

		world.EnqueueLoad("pawn.json")
		if err := world.Tick(ctx); err != nil {
			log.Fatal().Err(err).Msg("load tick failed")
		}

		pawn, err := world.Search(filter.Contains(Pawn{})).First()
		if err != nil {
			log.Fatal().Err(err).Msg("no pawn was restored")
		}
		held, err := keepsake.GetComponent[CurrentWeapon](wCtx, pawn)
		if err != nil {
			log.Fatal().Err(err).Msg("pawn must have CurrentWeapon")
		}
		if held.Weapon == nil || !world.Exists(*held.Weapon) {
			log.Fatal().Msg("pawn's weapon reference was not remapped")
		}
		sprite, err := keepsake.GetComponent[Sprite](wCtx, pawn)
		if err != nil {
			log.Fatal().Err(err).Msg("pawn must have a sprite")
		}

		fmt.Printf("pawn %s restored holding weapon %s with sprite model %s\n",
			pawn, *held.Weapon, sprite.Model)
	}
}
