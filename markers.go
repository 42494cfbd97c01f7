package keepsake

import "github.com/keepsake-dev/keepsake/types"

// Persist marks an entity as part of the durable world state: it is captured
// by filtered saves and despawned (recursively) before a load so restored
// state never coexists with stale persisted state.
type Persist struct{}

func (Persist) Name() string { return "Persist" }

// Unload marks an entity to be despawned (recursively) before a load without
// ever being captured by a save. Use it for state that is derived from
// persisted entities and must be rebuilt after a load.
type Unload struct{}

func (Unload) Name() string { return "Unload" }

// Restored tags an entity that was just re-created from a snapshot with the
// index its source entity had when it was saved. Restored tags exist only
// between the Load and the end of the Post-Load phase of a single tick; the
// engine removes them once reference fix-up has run.
type Restored struct {
	Index types.EntityIndex `json:"index"`
}

func (Restored) Name() string { return "Restored" }
