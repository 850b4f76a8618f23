package ideaflow

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/madspark-go/ideaflow/ideaflow/internal/mockprovider"
	"github.com/madspark-go/ideaflow/internal/corelog"
)

// TestRunHappyPathOrdersTopCandidates exercises GenerateIdeas -> NoveltyFilter
// -> Evaluate -> SelectTopK -> Advocate/Skeptic -> Improve -> ReEvaluate end
// to end with a deterministic scripted provider (spec §8 scenario 1).
// MultiDimensional/LogicalInference are disabled here so call order (and
// therefore which script index answers which phase) stays fixed.
func TestRunHappyPathOrdersTopCandidates(t *testing.T) {
	provider := mockprovider.New(
		mockprovider.Fixed(mockprovider.NIdeasJSON(5, "Idea")),                     // GenerateIdeas
		mockprovider.Fixed(`[{"score":9,"comment":"great"},{"score":8,"comment":"good"},{"score":7,"comment":"ok"},{"score":6,"comment":"meh"},{"score":5,"comment":"weak"}]`), // EvaluateBatch
		mockprovider.Fixed(mockprovider.NFormattedJSON(2, "strong defense")),        // AdvocateBatch
		mockprovider.Fixed(mockprovider.NFormattedJSON(2, "serious objection")),     // SkepticizeBatch
		mockprovider.Fixed(`[{"improved_idea":"Idea 1 improved","key_improvements":["clarity"]},{"improved_idea":"Idea 2 improved","key_improvements":["scope"]}]`), // ImproveBatch
		mockprovider.Fixed(`[{"score":9.5,"comment":"even better"},{"score":8.2,"comment":"solid"}]`), // ReEvaluate
	)

	orch := NewOrchestrator(provider, nil, nil, nil)
	opts := DefaultWorkflowOptions()
	opts.NumTopCandidates = 2
	opts.MultiDimensional = false
	opts.LogicalInference = false

	results, err := orch.Run(context.Background(), "renewable energy storage", "budget-constrained municipal deployment", opts)
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.Equal(t, "Idea 1. a distinct approach. Key features: a; b", results[0].Idea)
	require.Equal(t, 9.0, results[0].InitialScore)
	require.Equal(t, "Idea 1 improved", results[0].ImprovedIdea)
	require.Equal(t, 9.5, results[0].ImprovedScore)
	require.Equal(t, []string{"clarity"}, results[0].KeyImprovements)

	require.Equal(t, 8.0, results[1].InitialScore)
	require.Empty(t, results[0].PartialFailures)
}

// TestRunNoveltyFilterDedupsInOrchestratorContext exercises scenario 2: two
// near-identical generated ideas should collapse to one before Evaluate
// ever sees them.
func TestRunNoveltyFilterDedupsInOrchestratorContext(t *testing.T) {
	provider := mockprovider.New(
		mockprovider.Fixed(`[
			{"idea_number":1,"title":"Solar micro-grid","description":"deploy small solar grids in rural towns","key_features":["solar","grid"]},
			{"idea_number":2,"title":"Solar micro-grid","description":"deploy small solar grids in rural towns","key_features":["solar","grid"]},
			{"idea_number":3,"title":"Wind co-op","description":"community-owned wind turbines","key_features":["wind"]},
			{"idea_number":4,"title":"Tidal pilot","description":"small-scale tidal generator pilot","key_features":["tidal"]},
			{"idea_number":5,"title":"Biogas digesters","description":"farm-scale biogas digesters","key_features":["biogas"]}
		]`),
		func(callIndex int, prompt string) (string, error) {
			n := countNumberedLines(prompt)
			require.Less(t, n, 5, "exact duplicate should have been filtered before Evaluate")
			return mockprovider.NScoresJSON(n, 7, "fine"), nil
		},
		mockprovider.Fixed(mockprovider.NFormattedJSON(2, "defense")),
		mockprovider.Fixed(mockprovider.NFormattedJSON(2, "objection")),
		mockprovider.Fixed(`[{"improved_idea":"a"},{"improved_idea":"b"}]`),
		mockprovider.Fixed(`[{"score":7,"comment":"x"},{"score":7,"comment":"y"}]`),
	)

	orch := NewOrchestrator(provider, nil, nil, nil)
	opts := DefaultWorkflowOptions()
	opts.NumTopCandidates = 2
	opts.MultiDimensional = false

	_, err := orch.Run(context.Background(), "rural electrification", "", opts)
	require.NoError(t, err)
}

func countNumberedLines(s string) int {
	re := regexp.MustCompile(`(?m)^\d+\. `)
	return len(re.FindAllString(s, -1))
}

// TestRunParserResilienceThroughEvaluateBatch exercises scenario 3: a
// non-JSON, labeled-text evaluation response still yields usable scores via
// the key/value regex fallback strategy.
func TestRunParserResilienceThroughEvaluateBatch(t *testing.T) {
	provider := mockprovider.New(
		mockprovider.Fixed(mockprovider.NIdeasJSON(5, "Plan")),
		mockprovider.Fixed("score: 8\ncomment: Looks workable\nscore: 6\ncomment: Needs more detail\nscore: 4\ncomment: Too vague\nscore: 3\ncomment: Unclear\nscore: 2\ncomment: Weak"),
		mockprovider.Fixed(mockprovider.NFormattedJSON(2, "defense")),
		mockprovider.Fixed(mockprovider.NFormattedJSON(2, "objection")),
		mockprovider.Fixed(`[{"improved_idea":"x"},{"improved_idea":"y"}]`),
		mockprovider.Fixed(`[{"score":8,"comment":"x"},{"score":6,"comment":"y"}]`),
	)

	orch := NewOrchestrator(provider, nil, nil, nil)
	opts := DefaultWorkflowOptions()
	opts.NumTopCandidates = 2
	opts.MultiDimensional = false
	opts.EnableNoveltyFilter = false

	results, err := orch.Run(context.Background(), "logistics", "", opts)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, 8.0, results[0].InitialScore)
	require.Equal(t, "Looks workable", results[0].InitialCritique)
}

// TestRunSkepticFailureProducesFallbackAndFailureNote exercises scenario 4:
// a failing Skeptic call degrades to fallback text plus an attached
// FailureNote instead of aborting the run.
func TestRunSkepticFailureProducesFallbackAndFailureNote(t *testing.T) {
	provider := mockprovider.New(
		mockprovider.Fixed(mockprovider.NIdeasJSON(5, "Option")),
		mockprovider.Fixed(mockprovider.NScoresJSON(5, 7, "fine")),
		mockprovider.Fixed(mockprovider.NFormattedJSON(2, "defense")),
		mockprovider.Failing(errors.New("simulated skeptic timeout")),
		mockprovider.Fixed(`[{"improved_idea":"x"},{"improved_idea":"y"}]`),
		mockprovider.Fixed(mockprovider.NScoresJSON(2, 7, "x")),
	)

	orch := NewOrchestrator(provider, nil, nil, nil)
	opts := DefaultWorkflowOptions()
	opts.NumTopCandidates = 2
	opts.MultiDimensional = false

	results, err := orch.Run(context.Background(), "topic", "", opts)
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, r := range results {
		require.Equal(t, fallbackSkeptic, r.Skepticism)
		require.Len(t, r.PartialFailures, 1)
		require.Equal(t, StageSkepticism, r.PartialFailures[0].Stage)
	}
}

// TestRunReEvaluateNeverMentionsImprovementMarkers exercises scenario 5:
// bias prevention. ReEvaluate must never see the fixed marker tokens: it
// reuses EvaluateBatch's plain (topic, background, idea-text) prompt and
// strips those tokens from the improved idea text it passes in.
func TestRunReEvaluateNeverMentionsImprovementMarkers(t *testing.T) {
	provider := mockprovider.New(
		mockprovider.Fixed(mockprovider.NIdeasJSON(5, "Concept")),
		mockprovider.Fixed(mockprovider.NScoresJSON(5, 7, "fine")),
		mockprovider.Fixed(mockprovider.NFormattedJSON(2, "defense")),
		mockprovider.Fixed(mockprovider.NFormattedJSON(2, "objection")),
		mockprovider.Fixed(`[{"improved_idea":"Concept 1, now ENHANCED and REFINED"},{"improved_idea":"Concept 2, IMPROVED"}]`),
		mockprovider.Fixed(mockprovider.NScoresJSON(2, 8, "x")),
	)

	orch := NewOrchestrator(provider, nil, nil, nil)
	opts := DefaultWorkflowOptions()
	opts.NumTopCandidates = 2
	opts.MultiDimensional = false

	_, err := orch.Run(context.Background(), "water purification", "rural clinics", opts)
	require.NoError(t, err)

	calls := provider.Calls()
	reEvalPrompt := calls[len(calls)-1]
	for _, token := range []string{"IMPROVED", "ENHANCED", "REFINED"} {
		require.False(t, strings.Contains(reEvalPrompt, token), "re-evaluation prompt must not contain bias marker %q", token)
	}
	require.True(t, strings.Contains(reEvalPrompt, "water purification"))
	require.True(t, strings.Contains(reEvalPrompt, "rural clinics"))
}

// TestRunCancellationReturnsPromptly exercises scenario 6: a context
// cancelled before Run starts any work must short-circuit immediately with
// a typed error rather than attempting any provider calls.
func TestRunCancellationReturnsPromptly(t *testing.T) {
	provider := mockprovider.New(mockprovider.Fixed(mockprovider.NIdeasJSON(5, "X")))

	orch := NewOrchestrator(provider, nil, nil, corelog.NoOpLogger{})
	opts := DefaultWorkflowOptions()
	opts.Timeout = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := orch.Run(ctx, "topic", "", opts)
	elapsed := time.Since(start)

	require.Error(t, err)
	require.Less(t, elapsed, 500*time.Millisecond)
	require.Equal(t, 0, provider.CallCount())
}
