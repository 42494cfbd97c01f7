// Package scene defines the detached, serializable capture of a set of
// entities and their components. A scene has no back-reference to the world
// it was extracted from; the entity indexes it records are meaningful only
// as keys into the identity mapping built when the scene is applied.
package scene

import (
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"

	"github.com/keepsake-dev/keepsake/codec"
	"github.com/keepsake-dev/keepsake/types"
)

// EntityRecord is one captured entity: its pre-save index and one
// field-named record per serializable component, keyed by the component's
// durable name.
type EntityRecord struct {
	Index      types.EntityIndex          `json:"index"`
	Components map[string]json.RawMessage `json:"components"`
}

// Scene is an ordered sequence of entity records. The encoding is
// self-describing, human-readable JSON. It carries no version marker;
// schema drift between save and load is undefined behavior.
type Scene struct {
	Entities []EntityRecord `json:"entities"`
}

// ComponentSource is the read-only view of a live store that extraction
// needs: the encoded serializable components of a single entity.
type ComponentSource interface {
	SerializableComponents(e types.Entity) (map[string]json.RawMessage, error)
}

// Extract captures exactly the given entities, and for each exactly its
// currently attached serializable components. Transient and unregistered
// component types are silently omitted; this is intentional (visual and
// reconstructible state is expected to be excluded) but it is a source of
// silent data loss if a component that should round-trip was never
// registered as serializable. Extract has no side effects on the source.
func Extract(src ComponentSource, entities []types.Entity) (*Scene, error) {
	sc := &Scene{Entities: make([]EntityRecord, 0, len(entities))}
	for _, e := range entities {
		comps, err := src.SerializableComponents(e)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to extract entity %s", e)
		}
		sc.Entities = append(sc.Entities, EntityRecord{
			Index:      e.Index,
			Components: comps,
		})
	}
	return sc, nil
}

// Encode renders the scene in its on-disk form.
func (s *Scene) Encode() ([]byte, error) {
	return codec.EncodeIndented(s)
}

// Decode parses a previously encoded scene.
func Decode(bz []byte) (*Scene, error) {
	sc, err := codec.Decode[Scene](bz)
	if err != nil {
		return nil, eris.Wrap(err, "failed to decode scene")
	}
	return &sc, nil
}
