package filter

import (
	"github.com/keepsake-dev/keepsake/types"
)

type all struct{}

// All matches every entity, whatever its components. Dump-mode saves use it.
func All() ComponentFilter {
	return &all{}
}

func (f *all) MatchesComponents(_ []types.Component) bool {
	return true
}
