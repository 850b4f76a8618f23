package ideaflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/madspark-go/ideaflow/ai"
)

// dimensionWeights are the fixed per-dimension weights from spec §4.8,
// grounded on original_source/src/madspark/core/enhanced_reasoning.py.
var dimensionWeights = map[string]float64{
	"feasibility":        0.20,
	"innovation":          0.15,
	"impact":              0.20,
	"cost_effectiveness":  0.15,
	"scalability":         0.10,
	"risk_assessment":     0.10,
	"timeline":            0.10,
}

var dimensionOrder = []string{
	"feasibility", "innovation", "impact", "cost_effectiveness",
	"scalability", "risk_assessment", "timeline",
}

// MultiDimensionalEvaluator computes the 7-dimension weighted score via one
// batch provider call plus one additional call for the natural-language
// summary, per spec §4.8.
type MultiDimensionalEvaluator struct {
	provider ai.ModelProvider
	temps    *TemperaturePolicy
}

func NewMultiDimensionalEvaluator(provider ai.ModelProvider, temps *TemperaturePolicy) *MultiDimensionalEvaluator {
	return &MultiDimensionalEvaluator{provider: provider, temps: temps}
}

type dimensionScores map[string]float64

// EvaluateBatch scores every idea across all seven dimensions in one
// provider call, then issues one more call to synthesize a short summary
// per idea (kept as a single extra batch call, not N calls).
func (m *MultiDimensionalEvaluator) EvaluateBatch(ctx context.Context, ideas []string, topic, background string) ([]*MultiDimScore, error) {
	prompt := fmt.Sprintf(
		"Score each idea below on these dimensions (1-10 each): %s. "+
			`Respond with a JSON array of %d objects, one per idea, each with those exact keys as numbers.`+
			"\n\nTopic: %q\nContext: %q\n\n%s",
		strings.Join(dimensionOrder, ", "), len(ideas), topic, background, numberedList(ideas))

	text, _, err := m.provider.Generate(ctx, prompt, ai.Options{Temperature: float32(m.temps.Temperature(PhaseEvaluation))})
	if err != nil {
		return nil, err
	}

	items := parseJSONObjectArray(text, len(ideas))
	scores := make([]*MultiDimScore, len(ideas))
	for i := range ideas {
		var raw map[string]interface{}
		if i < len(items) {
			raw = items[i]
		}
		scores[i] = aggregate(raw)
	}

	summaries, err := m.summarizeBatch(ctx, ideas, scores, topic)
	if err != nil {
		// A failed summary call degrades to an empty Summary field; the
		// numeric scoring (already computed) is not discarded.
		return scores, nil
	}
	for i := range scores {
		if i < len(summaries) {
			scores[i].Summary = summaries[i]
		}
	}
	return scores, nil
}

func aggregate(raw map[string]interface{}) *MultiDimScore {
	vals := make(dimensionScores, len(dimensionOrder))
	sum := 0.0
	for _, dim := range dimensionOrder {
		v := clampDim(coerceScore(raw[dim]))
		vals[dim] = v
		sum += v
	}
	overall := sum / float64(len(dimensionOrder))

	weighted := 0.0
	for dim, w := range dimensionWeights {
		weighted += vals[dim] * w
	}

	variance := 0.0
	for _, v := range vals {
		d := v - overall
		variance += d * d
	}
	variance /= float64(len(dimensionOrder))
	confidence := 1 - variance/25
	if confidence < 0 {
		confidence = 0
	}

	return &MultiDimScore{
		Feasibility:        vals["feasibility"],
		Innovation:         vals["innovation"],
		Impact:             vals["impact"],
		CostEffectiveness:  vals["cost_effectiveness"],
		Scalability:        vals["scalability"],
		RiskAssessment:     vals["risk_assessment"],
		Timeline:           vals["timeline"],
		Overal:             overall,
		Weighted:           weighted,
		ConfidenceInterval: confidence,
	}
}

// clampDim clamps a per-dimension raw score into [1,10] (spec §3: dimension
// scores are Real∈[1,10], distinct from the overall idea score's [0,10]).
func clampDim(v float64) float64 {
	if v < 1 {
		return 1
	}
	if v > 10 {
		return 10
	}
	return v
}

type summaryItem struct {
	Summary string `json:"summary"`
}

func (m *MultiDimensionalEvaluator) summarizeBatch(ctx context.Context, ideas []string, scores []*MultiDimScore, topic string) ([]string, error) {
	lines := make([]string, len(ideas))
	for i, idea := range ideas {
		lines[i] = fmt.Sprintf("%d. Idea: %s\n   Weighted score: %.1f", i+1, idea, scores[i].Weighted)
	}
	prompt := fmt.Sprintf(
		"For each idea and its weighted score below, write a one- to two-sentence synopsis. "+
			`Respond with a JSON array of %d objects, each {"summary": string}, in order, in the same language as the input. `+
			"Topic: %q\n\n%s", len(ideas), topic, strings.Join(lines, "\n"))

	text, _, err := m.provider.Generate(ctx, prompt, ai.Options{Temperature: float32(m.temps.Temperature(PhaseEvaluation))})
	if err != nil {
		return nil, err
	}

	items := parseJSONObjectArray(text, len(ideas))
	out := make([]string, len(ideas))
	for i := range ideas {
		if i < len(items) {
			var s summaryItem
			_ = mapToStruct(items[i], &s)
			out[i] = s.Summary
		}
	}
	return out, nil
}
