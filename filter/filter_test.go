package filter_test

import (
	"testing"

	"github.com/keepsake-dev/keepsake/assert"
	"github.com/keepsake-dev/keepsake/filter"
	"github.com/keepsake-dev/keepsake/types"
)

type alpha struct{}

func (alpha) Name() string { return "alpha" }

type beta struct{}

func (beta) Name() string { return "beta" }

type gamma struct{}

func (gamma) Name() string { return "gamma" }

func TestContains(t *testing.T) {
	comps := []types.Component{alpha{}, beta{}}

	assert.True(t, filter.Contains(alpha{}).MatchesComponents(comps))
	assert.True(t, filter.Contains(alpha{}, beta{}).MatchesComponents(comps))
	assert.False(t, filter.Contains(gamma{}).MatchesComponents(comps))
	assert.False(t, filter.Contains(alpha{}, gamma{}).MatchesComponents(comps))
}

func TestExact(t *testing.T) {
	comps := []types.Component{alpha{}, beta{}}

	assert.True(t, filter.Exact(alpha{}, beta{}).MatchesComponents(comps))
	assert.True(t, filter.Exact(beta{}, alpha{}).MatchesComponents(comps))
	assert.False(t, filter.Exact(alpha{}).MatchesComponents(comps))
	assert.False(t, filter.Exact(alpha{}, beta{}, gamma{}).MatchesComponents(comps))
}

func TestCombinators(t *testing.T) {
	comps := []types.Component{alpha{}, beta{}}

	assert.True(t, filter.And(
		filter.Contains(alpha{}),
		filter.Contains(beta{}),
	).MatchesComponents(comps))
	assert.False(t, filter.And(
		filter.Contains(alpha{}),
		filter.Contains(gamma{}),
	).MatchesComponents(comps))

	assert.True(t, filter.Or(
		filter.Contains(gamma{}),
		filter.Contains(beta{}),
	).MatchesComponents(comps))
	assert.False(t, filter.Or(
		filter.Contains(gamma{}),
	).MatchesComponents(comps))

	assert.True(t, filter.Not(filter.Contains(gamma{})).MatchesComponents(comps))
	assert.False(t, filter.Not(filter.Contains(alpha{})).MatchesComponents(comps))
}

func TestAll(t *testing.T) {
	assert.True(t, filter.All().MatchesComponents([]types.Component{alpha{}}))
	assert.True(t, filter.All().MatchesComponents(nil))
}
