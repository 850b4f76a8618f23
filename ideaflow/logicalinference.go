package ideaflow

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/madspark-go/ideaflow/ai"
)

// LogicalInferenceEngine produces LLM-backed logical analyses (spec §4.9):
// full / causal / constraints / contradiction / implications, single item
// or batched.
type LogicalInferenceEngine struct {
	provider ai.ModelProvider
	temps    *TemperaturePolicy
}

func NewLogicalInferenceEngine(provider ai.ModelProvider, temps *TemperaturePolicy) *LogicalInferenceEngine {
	return &LogicalInferenceEngine{provider: provider, temps: temps}
}

// Batch runs one provider call covering all ideas for the given analysis
// type.
func (e *LogicalInferenceEngine) Batch(ctx context.Context, ideas []string, topic, background string, kind InferenceType) ([]InferenceResult, error) {
	prompt := batchPrompt(kind, ideas, topic, background)
	text, _, err := e.provider.Generate(ctx, prompt, ai.Options{Temperature: float32(e.temps.Temperature(PhaseEvaluation))})
	if err != nil {
		return nil, err
	}
	return parseBatchInference(text, len(ideas), kind), nil
}

func batchPrompt(kind InferenceType, ideas []string, topic, background string) string {
	instruction := map[InferenceType]string{
		InferenceFull:          "Perform a full logical analysis (inference chain, conclusion, confidence).",
		InferenceCausal:        "Perform a causal analysis (causal chain, feedback loops, root cause).",
		InferenceConstraints:   "Perform a constraint-satisfaction analysis (per-constraint satisfaction score 0-1, trade-offs).",
		InferenceContradiction: "Find contradictions in this idea's internal logic.",
		InferenceImplications:  "Derive direct implications and second-order effects.",
	}[kind]

	return fmt.Sprintf(
		"%s Topic: %q. Context: %q. "+
			`Respond with a JSON array of %d objects, one per idea in order, each with keys appropriate to the analysis `+
			`(always include "inference_chain": [string], "conclusion": string, "confidence": number in [0,1]).`+
			"\n\n%s", instruction, topic, background, len(ideas), numberedList(ideas))
}

type inferenceJSON struct {
	InferenceChain         []string           `json:"inference_chain"`
	Conclusion             string             `json:"conclusion"`
	Confidence             float64            `json:"confidence"`
	CausalChain            []string           `json:"causal_chain"`
	FeedbackLoops          []string           `json:"feedback_loops"`
	RootCause              string             `json:"root_cause"`
	ConstraintSatisfaction map[string]float64 `json:"constraint_satisfaction"`
	TradeOffs              []string           `json:"trade_offs"`
	Contradictions         []string           `json:"contradictions"`
	Implications           []string           `json:"implications"`
	SecondOrderEffects     []string           `json:"second_order_effects"`
	ImprovementHint        string             `json:"improvement_hint"`
}

func parseBatchInference(raw string, n int, kind InferenceType) []InferenceResult {
	items := parseJSONObjectArray(raw, n)
	out := make([]InferenceResult, n)
	for i := 0; i < n; i++ {
		if i < len(items) {
			var parsed inferenceJSON
			if err := mapToStruct(items[i], &parsed); err == nil {
				out[i] = toInferenceResult(kind, parsed)
				continue
			}
		}
		// Plain-text fallback: the provider sometimes returns labeled
		// sections instead of JSON (grounded on
		// original_source/src/madspark/utils/logical_inference_engine.py).
		out[i] = parsePlainTextInference(raw, kind)
	}
	return out
}

func toInferenceResult(kind InferenceType, p inferenceJSON) InferenceResult {
	return InferenceResult{
		Type:                   kind,
		InferenceChain:         p.InferenceChain,
		Conclusion:             p.Conclusion,
		Confidence:             clamp01(p.Confidence),
		CausalChain:            p.CausalChain,
		FeedbackLoop:           p.FeedbackLoops,
		RootCause:              p.RootCause,
		ConstraintSatisfaction: p.ConstraintSatisfaction,
		TradeOffs:              p.TradeOffs,
		Contradictions:         p.Contradictions,
		Implications:           p.Implications,
		SecondOrderEffect:      p.SecondOrderEffects,
		ImprovementHint:        p.ImprovementHint,
	}
}

var (
	causalChainRE     = regexp.MustCompile(`(?i)CAUSAL_CHAIN:\s*(.+)`)
	contradictionsCtRE = regexp.MustCompile(`(?i)CONTRADICTIONS_FOUND:\s*(\d+)`)
	noContradictionRE  = regexp.MustCompile(`(?i)NO_CONTRADICTIONS:\s*true`)
	implicationsRE     = regexp.MustCompile(`(?i)DIRECT_IMPLICATIONS:\s*(.+)`)
	conclusionRE       = regexp.MustCompile(`(?i)CONCLUSION:\s*(.+)`)
	confidenceTextRE   = regexp.MustCompile(`(?i)CONFIDENCE:\s*(-?\d+(?:\.\d+)?)`)
)

// parsePlainTextInference handles the labeled-section grammar the original
// agent sometimes emits instead of JSON: CAUSAL_CHAIN:, CONTRADICTIONS_FOUND:
// <n>, NO_CONTRADICTIONS: True, DIRECT_IMPLICATIONS:, CONCLUSION:, CONFIDENCE:.
func parsePlainTextInference(raw string, kind InferenceType) InferenceResult {
	result := InferenceResult{Type: kind}

	if m := conclusionRE.FindStringSubmatch(raw); m != nil {
		result.Conclusion = strings.TrimSpace(m[1])
	}
	if m := confidenceTextRE.FindStringSubmatch(raw); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			result.Confidence = clamp01(v)
		}
	}

	switch kind {
	case InferenceCausal:
		if m := causalChainRE.FindStringSubmatch(raw); m != nil {
			result.CausalChain = splitOnSemicolons(m[1])
		}
	case InferenceContradiction:
		if noContradictionRE.MatchString(raw) {
			result.Contradictions = nil
		} else if contradictionsCtRE.MatchString(raw) {
			result.Contradictions = extractNumberedSections(raw, "CONTRADICTION")
		}
	case InferenceImplications:
		if m := implicationsRE.FindStringSubmatch(raw); m != nil {
			result.Implications = splitOnSemicolons(m[1])
		}
	}

	if result.Conclusion == "" {
		result.Conclusion = "Analysis unavailable"
	}
	return result
}

func splitOnSemicolons(s string) []string {
	parts := strings.Split(s, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func extractNumberedSections(raw, label string) []string {
	re := regexp.MustCompile(fmt.Sprintf(`(?i)%s_(\d+):\s*(.+)`, label))
	matches := re.FindAllStringSubmatch(raw, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSpace(m[2]))
	}
	return out
}

// jsonPreview truncates a JSON-encoded value for log lines, grounded on the
// teacher orchestrator's truncateString helper used when logging oversized
// provider payloads.
func jsonPreview(v interface{}, maxLen int) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	s := string(b)
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
