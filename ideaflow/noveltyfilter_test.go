package ideaflow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoveltyFilterExactDuplicate(t *testing.T) {
	f := NewNoveltyFilter(0.9)
	ideas := []string{"Solar rooftop A", "solar rooftop a!", "Wind micro-turbines"}
	out := f.FilterAll(ideas)
	require.Equal(t, []string{"Solar rooftop A", "Wind micro-turbines"}, out)
}

func TestNoveltyFilterEmptyIdea(t *testing.T) {
	f := NewNoveltyFilter(0.8)
	res := f.Filter("   ")
	require.False(t, res.IsNovel)
	require.Equal(t, 1.0, res.SimilarityScore)
	require.Equal(t, "Empty", res.SimilarTo)
}

func TestNoveltyFilterThresholdOneOnlyExactDuplicatesRemoved(t *testing.T) {
	f := NewNoveltyFilter(1.0)
	out := f.FilterAll([]string{"red apple pie", "green apple pie", "red apple pie"})
	require.Equal(t, []string{"red apple pie", "green apple pie"}, out)
}

func TestNoveltyFilterThresholdZeroOnlyFirstSurvives(t *testing.T) {
	f := NewNoveltyFilter(0.0)
	out := f.FilterAll([]string{"alpha", "beta", "gamma"})
	require.Equal(t, []string{"alpha"}, out)
}

func TestNoveltyFilterIsIdempotent(t *testing.T) {
	ideas := []string{"build a community garden", "build a shared community garden", "launch a bike share program"}

	f1 := NewNoveltyFilter(0.8)
	once := f1.FilterAll(ideas)

	f2 := NewNoveltyFilter(0.8)
	twice := f2.FilterAll(once)
	_ = once

	f3 := NewNoveltyFilter(0.8)
	passOne := f3.FilterAll(ideas)
	f4 := NewNoveltyFilter(0.8)
	passTwo := f4.FilterAll(passOne)

	require.Equal(t, passOne, passTwo)
	require.Equal(t, passOne, twice)
}

func TestNoveltyFilterResetClearsState(t *testing.T) {
	f := NewNoveltyFilter(0.8)
	f.Filter("idea one")
	require.False(t, f.Filter("idea one").IsNovel)
	f.Reset()
	require.True(t, f.Filter("idea one").IsNovel)
}

func TestJaccardSimilarityIdentical(t *testing.T) {
	require.Equal(t, 1.0, JaccardSimilarity("build a garden", "build a garden"))
}
