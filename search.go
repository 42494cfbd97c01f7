package keepsake

import (
	"github.com/keepsake-dev/keepsake/filter"
	"github.com/keepsake-dev/keepsake/types"
)

// Search iterates live entities whose attached components match a filter.
type Search struct {
	w      *World
	filter filter.ComponentFilter
}

func newSearch(w *World, componentFilter filter.ComponentFilter) *Search {
	return &Search{w: w, filter: componentFilter}
}

// NewSearch creates a Search from within a system.
func NewSearch(wCtx WorldContext, componentFilter filter.ComponentFilter) *Search {
	return newSearch(wCtx.world(), componentFilter)
}

// Each calls fn for every matching entity in ascending index order. Iteration
// stops early if fn returns false. fn must not create or despawn entities.
func (s *Search) Each(fn func(types.Entity) bool) {
	for idx := range s.w.metas {
		meta := &s.w.metas[idx]
		if !meta.alive {
			continue
		}
		if !s.filter.MatchesComponents(s.w.componentsOf(meta)) {
			continue
		}
		e := types.Entity{Index: types.EntityIndex(idx), Generation: meta.generation}
		if !fn(e) {
			return
		}
	}
}

// Collect returns all matching entities. Unlike Each, the caller is free to
// mutate the world while walking the result.
func (s *Search) Collect() []types.Entity {
	var entities []types.Entity
	s.Each(func(e types.Entity) bool {
		entities = append(entities, e)
		return true
	})
	return entities
}

// Count returns the number of matching entities.
func (s *Search) Count() int {
	count := 0
	s.Each(func(types.Entity) bool {
		count++
		return true
	})
	return count
}

// First returns the first matching entity.
func (s *Search) First() (types.Entity, error) {
	var found *types.Entity
	s.Each(func(e types.Entity) bool {
		found = &e
		return false
	})
	if found == nil {
		return types.Entity{}, ErrEntityNotFound
	}
	return *found, nil
}
