package types

import (
	"fmt"

	"github.com/goccy/go-json"
)

// EntityIndex is the recyclable half of an entity's identity. It is the only
// part of an identity that survives a snapshot round trip.
type EntityIndex uint32

// Entity names one object in the world. The index is reused after a despawn;
// the generation is incremented on reuse so stale handles can be detected.
// Live entities always have generation >= 1.
//
// Components that hold an optional reference to another entity should use
// *Entity, which marshals to JSON null when absent.
type Entity struct {
	Index      EntityIndex
	Generation uint32
}

func (e Entity) String() string {
	return fmt.Sprintf("Entity(%d:%d)", e.Index, e.Generation)
}

// IsZero reports whether e is the zero handle. The zero handle never names a
// live entity.
func (e Entity) IsZero() bool {
	return e == Entity{}
}

// entityJSON is the persisted form of an Entity. Only the index is written:
// generations are allocator state and are not reproducible across a
// save/load boundary, so a persisted generation would only invite accidental
// full-identity comparisons.
type entityJSON struct {
	Index EntityIndex `json:"index"`
}

func (e Entity) MarshalJSON() ([]byte, error) {
	return json.Marshal(entityJSON{Index: e.Index})
}

// UnmarshalJSON decodes a persisted entity reference. The generation is set
// to zero, which never matches a live entity; the handle is unusable until
// it is remapped against the post-load identity mapping.
func (e *Entity) UnmarshalJSON(bz []byte) error {
	var v entityJSON
	if err := json.Unmarshal(bz, &v); err != nil {
		return err
	}
	e.Index = v.Index
	e.Generation = 0
	return nil
}
