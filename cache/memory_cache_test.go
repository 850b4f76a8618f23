package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryCacheWorkflowRoundTrip(t *testing.T) {
	c := NewMemoryCache(8, time.Minute)
	defer c.Close()

	_, hit := c.GetWorkflow("topic", "bg", "opts")
	require.False(t, hit)

	c.PutWorkflow("topic", "bg", "opts", []byte(`{"ok":true}`), time.Minute)
	raw, hit := c.GetWorkflow("topic", "bg", "opts")
	require.True(t, hit)
	require.Equal(t, `{"ok":true}`, string(raw))
}

func TestMemoryCacheAgentRoundTrip(t *testing.T) {
	c := NewMemoryCache(8, time.Minute)
	defer c.Close()

	_, hit := c.GetAgent("Critic", "evaluate this idea")
	require.False(t, hit)

	c.PutAgent("Critic", "evaluate this idea", `[{"score":7,"comment":"fine"}]`, time.Minute)
	text, hit := c.GetAgent("Critic", "evaluate this idea")
	require.True(t, hit)
	require.Equal(t, `[{"score":7,"comment":"fine"}]`, text)

	// A different agent name or prompt is a distinct key.
	_, hit = c.GetAgent("Advocate", "evaluate this idea")
	require.False(t, hit)
	_, hit = c.GetAgent("Critic", "evaluate a different idea")
	require.False(t, hit)
}

func TestMemoryCacheAgentExpires(t *testing.T) {
	c := NewMemoryCache(8, time.Hour)
	defer c.Close()

	c.PutAgent("Critic", "p", "cached text", time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	_, hit := c.GetAgent("Critic", "p")
	require.False(t, hit)
}

func TestMemoryCacheEvictsOldestBeyondCapacity(t *testing.T) {
	c := NewMemoryCache(2, time.Minute)
	defer c.Close()

	c.PutAgent("a", "1", "one", time.Minute)
	c.PutAgent("a", "2", "two", time.Minute)
	c.PutAgent("a", "3", "three", time.Minute)

	_, hit := c.GetAgent("a", "1")
	require.False(t, hit, "oldest entry should have been evicted")
	_, hit = c.GetAgent("a", "3")
	require.True(t, hit)
}
