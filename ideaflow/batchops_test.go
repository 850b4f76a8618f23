package ideaflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/madspark-go/ideaflow/cache"
	"github.com/madspark-go/ideaflow/ideaflow/internal/mockprovider"
)

func TestGenerateIdeasFormatsStructuredResponse(t *testing.T) {
	provider := mockprovider.New(mockprovider.Fixed(`[
		{"idea_number":1,"title":"Rooftop gardens","description":"grow food on unused rooftops","key_features":["low-cost","scalable"]}
	]`))
	ops := NewBatchAgentOps(provider, NewTemperaturePolicyFromPreset(PresetBalanced), nil)

	ideas, err := ops.GenerateIdeas(context.Background(), "urban food security", "", 1)
	require.NoError(t, err)
	require.Equal(t, []string{"Rooftop gardens. grow food on unused rooftops. Key features: low-cost; scalable"}, ideas)
}

func TestGenerateIdeasFallsBackToPlaceholderOnUnparsable(t *testing.T) {
	provider := mockprovider.New(mockprovider.Fixed("not json at all"))
	ops := NewBatchAgentOps(provider, NewTemperaturePolicyFromPreset(PresetBalanced), nil)

	ideas, err := ops.GenerateIdeas(context.Background(), "topic", "", 2)
	require.NoError(t, err)
	require.Equal(t, []string{"Idea 1", "Idea 2"}, ideas)
}

func TestEvaluateBatchClampsAndDefaultsComment(t *testing.T) {
	provider := mockprovider.New(mockprovider.Fixed(`[{"score":15,"comment":""},{"score":-3,"comment":"bad"}]`))
	ops := NewBatchAgentOps(provider, NewTemperaturePolicyFromPreset(PresetBalanced), nil)

	records, err := ops.EvaluateBatch(context.Background(), []string{"a", "b"}, "topic", "")
	require.NoError(t, err)
	require.Equal(t, 10.0, records[0].Score)
	require.Equal(t, "No comment provided", records[0].Comment)
	require.Equal(t, 0.0, records[1].Score)
}

func TestAdvocateBatchFallsBackOnBlankFormatted(t *testing.T) {
	provider := mockprovider.New(mockprovider.Fixed(`[{"formatted":""}]`))
	ops := NewBatchAgentOps(provider, NewTemperaturePolicyFromPreset(PresetBalanced), nil)

	out, err := ops.AdvocateBatch(context.Background(), []string{"idea"}, []validatedRecord{{Score: 5, Comment: "x"}}, "topic", "")
	require.NoError(t, err)
	require.Equal(t, []string{"Advocacy unavailable"}, out)
}

func TestSkepticizeBatchConsumesAdvocacyOutput(t *testing.T) {
	var capturedPrompt string
	provider := mockprovider.New(func(callIndex int, prompt string) (string, error) {
		capturedPrompt = prompt
		return `[{"formatted":"a challenge"}]`, nil
	})
	ops := NewBatchAgentOps(provider, NewTemperaturePolicyFromPreset(PresetBalanced), nil)

	out, err := ops.SkepticizeBatch(context.Background(), []string{"idea"}, []string{"a strong defense"}, "topic", "")
	require.NoError(t, err)
	require.Equal(t, []string{"a challenge"}, out)
	require.Contains(t, capturedPrompt, "a strong defense")
}

func TestImproveBatchSubstitutesOriginalOnBlankImprovement(t *testing.T) {
	provider := mockprovider.New(mockprovider.Fixed(`[{"improved_idea":""}]`))
	ops := NewBatchAgentOps(provider, NewTemperaturePolicyFromPreset(PresetBalanced), nil)

	inputs := []ImproveInput{{Idea: "original idea", Critique: "c", Advocacy: "a", Skepticism: "s"}}
	out, err := ops.ImproveBatch(context.Background(), inputs, "")
	require.NoError(t, err)
	require.Equal(t, "original idea", out[0].ImprovedIdea)
}

func TestImproveBatchPropagatesProviderError(t *testing.T) {
	provider := mockprovider.New(mockprovider.Failing(errors.New("provider down")))
	ops := NewBatchAgentOps(provider, NewTemperaturePolicyFromPreset(PresetBalanced), nil)

	_, err := ops.ImproveBatch(context.Background(), []ImproveInput{{Idea: "x"}}, "")
	require.Error(t, err)
}

func TestEvaluateBatchServesSecondCallFromAgentCache(t *testing.T) {
	provider := mockprovider.New(mockprovider.Fixed(`[{"score":8,"comment":"solid"}]`))
	memCache := cache.NewMemoryCache(8, time.Minute)
	ops := NewBatchAgentOps(provider, NewTemperaturePolicyFromPreset(PresetBalanced), memCache)

	first, err := ops.EvaluateBatch(context.Background(), []string{"an idea"}, "topic", "")
	require.NoError(t, err)
	require.Equal(t, 8.0, first[0].Score)
	require.Equal(t, 1, provider.CallCount())

	second, err := ops.EvaluateBatch(context.Background(), []string{"an idea"}, "topic", "")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, provider.CallCount(), "second identical call should be served from the agent cache")
}
