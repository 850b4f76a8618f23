package ideaflow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBatchInferenceJSON(t *testing.T) {
	raw := `[{"inference_chain":["a","b"],"conclusion":"works","confidence":0.8}]`
	results := parseBatchInference(raw, 1, InferenceFull)
	require.Len(t, results, 1)
	require.Equal(t, "works", results[0].Conclusion)
	require.InDelta(t, 0.8, results[0].Confidence, 1e-9)
}

func TestParsePlainTextInferenceCausal(t *testing.T) {
	raw := "CAUSAL_CHAIN: step one; step two\nCONCLUSION: it follows\nCONFIDENCE: 0.6"
	result := parsePlainTextInference(raw, InferenceCausal)
	require.Equal(t, []string{"step one", "step two"}, result.CausalChain)
	require.Equal(t, "it follows", result.Conclusion)
	require.InDelta(t, 0.6, result.Confidence, 1e-9)
}

func TestParsePlainTextInferenceNoContradictions(t *testing.T) {
	raw := "NO_CONTRADICTIONS: True\nCONCLUSION: consistent\nCONFIDENCE: 0.9"
	result := parsePlainTextInference(raw, InferenceContradiction)
	require.Empty(t, result.Contradictions)
}

func TestParsePlainTextInferenceContradictionsFound(t *testing.T) {
	raw := "CONTRADICTIONS_FOUND: 2\nCONTRADICTION_1: first issue\nCONTRADICTION_2: second issue\nCONCLUSION: flawed\nCONFIDENCE: 0.5"
	result := parsePlainTextInference(raw, InferenceContradiction)
	require.Equal(t, []string{"first issue", "second issue"}, result.Contradictions)
}
