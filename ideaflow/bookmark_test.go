package ideaflow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInMemoryBookmarkStoreFlagsNearDuplicates(t *testing.T) {
	store := NewInMemoryBookmarkStore()
	id, err := store.Save(BookmarkEntry{Idea: "Community solar co-op for rural towns", Topic: "energy"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	result, err := store.CheckDuplicate("Community solar co-op for rural towns and villages", "energy")
	require.NoError(t, err)
	require.NotEmpty(t, result.SimilarBookmarks)
	require.NotEqual(t, RecommendAllow, result.Recommendation)
}

func TestInMemoryBookmarkStoreAllowsDistinctTopics(t *testing.T) {
	store := NewInMemoryBookmarkStore()
	_, err := store.Save(BookmarkEntry{Idea: "Community solar co-op", Topic: "energy"})
	require.NoError(t, err)

	result, err := store.CheckDuplicate("Community solar co-op", "agriculture")
	require.NoError(t, err)
	require.Equal(t, RecommendAllow, result.Recommendation)
	require.Empty(t, result.SimilarBookmarks)
}
