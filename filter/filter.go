// Package filter provides composable predicates over the component set of an
// entity. Filters drive world searches, including the engine's own marker
// queries during the save and load phases.
package filter

import (
	"github.com/keepsake-dev/keepsake/types"
)

// ComponentFilter is a filter that filters entities based on their components.
type ComponentFilter interface {
	// MatchesComponents returns true if the entity matches the filter.
	MatchesComponents(components []types.Component) bool
}

// MatchComponent returns true if the given slice of components contains the
// given component. Components are the same if they have the same Name.
func MatchComponent(components []types.Component, cType types.Component) bool {
	for _, c := range components {
		if cType.Name() == c.Name() {
			return true
		}
	}
	return false
}
