package ideaflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/madspark-go/ideaflow/ai"
	"github.com/madspark-go/ideaflow/cache"
)

// agentCacheTTL bounds how long a cached per-phase response is reused.
// Shorter than the full-workflow result TTL (30m, orchestrator.go) since a
// single agent response is reused across different Run invocations sharing
// the same prompt, and is more likely to go stale as the provider model
// itself changes than a completed workflow result is.
const agentCacheTTL = 10 * time.Minute

// BatchAgentOps performs the phase-level batched provider calls (spec
// §4.7): each operation is exactly one provider call for N items, aligned
// back to inputs by index.
type BatchAgentOps struct {
	provider ai.ModelProvider
	temps    *TemperaturePolicy
	cache    cache.Cache // per-phase response cache (spec §4.5 use-case (a)); nil disables it
}

// NewBatchAgentOps wires a provider, a temperature policy, and an optional
// per-phase response cache. cacheImpl may be nil, in which case every call
// reaches the provider.
func NewBatchAgentOps(provider ai.ModelProvider, temps *TemperaturePolicy, cacheImpl cache.Cache) *BatchAgentOps {
	return &BatchAgentOps{provider: provider, temps: temps, cache: cacheImpl}
}

// generate is Generate with an agent-response cache in front of it, keyed
// on the agent name and the exact prompt text (cache.AgentKey hashes both
// internally, so the full prompt can be passed as the promptKey directly).
func (b *BatchAgentOps) generate(ctx context.Context, agent, prompt string, opts ai.Options) (string, error) {
	if b.cache != nil {
		if text, hit := b.cache.GetAgent(agent, prompt); hit {
			return text, nil
		}
	}
	text, _, err := b.provider.Generate(ctx, prompt, opts)
	if err != nil {
		return "", err
	}
	if b.cache != nil {
		b.cache.PutAgent(agent, prompt, text, agentCacheTTL)
	}
	return text, nil
}

// genIdea is the structured shape requested from GenerateIdeas.
type genIdea struct {
	IdeaNumber  int      `json:"idea_number"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	KeyFeatures []string `json:"key_features"`
}

func (b *BatchAgentOps) GenerateIdeas(ctx context.Context, topic, background string, n int) ([]string, error) {
	prompt := fmt.Sprintf(
		"You are IdeaGenerator. Topic: %q. Context/constraints: %q. "+
			"Generate exactly %d distinct candidate ideas as a JSON array of objects, "+
			`each {"idea_number": int, "title": string, "description": string, "key_features": [string]}. `+
			"Respond in the same language as the input.", topic, background, n)

	text, err := b.generate(ctx, "IdeaGenerator", prompt, ai.Options{Temperature: float32(b.temps.Temperature(PhaseIdeaGeneration))})
	if err != nil {
		return nil, err
	}

	items := parseJSONObjectArray(text, n)
	out := make([]string, n)
	for i := 0; i < n; i++ {
		var g genIdea
		if i < len(items) {
			_ = mapToStruct(items[i], &g)
		}
		out[i] = formatIdea(g, i)
	}
	return out, nil
}

func formatIdea(g genIdea, index int) string {
	if g.Title == "" && g.Description == "" {
		return fmt.Sprintf("Idea %d", index+1)
	}
	parts := []string{}
	if g.Title != "" {
		parts = append(parts, g.Title)
	}
	if g.Description != "" {
		parts = append(parts, g.Description)
	}
	if len(g.KeyFeatures) > 0 {
		parts = append(parts, "Key features: "+strings.Join(g.KeyFeatures, "; "))
	}
	return strings.Join(parts, ". ")
}

// EvaluateBatch requests one score/comment record per idea.
func (b *BatchAgentOps) EvaluateBatch(ctx context.Context, ideas []string, topic, background string) ([]validatedRecord, error) {
	prompt := fmt.Sprintf(
		"You are Critic. Topic: %q. Context: %q. Evaluate each idea below on a 0-10 scale. "+
			`Respond with a JSON array of %d objects, each {"score": number, "comment": string}, in order.`+
			"\n\n%s", topic, background, len(ideas), numberedList(ideas))

	text, err := b.generate(ctx, "Critic", prompt, ai.Options{Temperature: float32(b.temps.Temperature(PhaseEvaluation))})
	if err != nil {
		return nil, err
	}
	recs := ParseEvaluationRecords(text, len(ideas))
	out := make([]validatedRecord, len(recs))
	for i, r := range recs {
		out[i] = validateRecord(r)
	}
	return out, nil
}

type formattedItem struct {
	Formatted string `json:"formatted"`
}

// AdvocateBatch requests one defense per (idea, evaluation) pair.
func (b *BatchAgentOps) AdvocateBatch(ctx context.Context, ideas []string, evaluations []validatedRecord, topic, background string) ([]string, error) {
	pairs := make([]string, len(ideas))
	for i, idea := range ideas {
		comment := ""
		if i < len(evaluations) {
			comment = evaluations[i].Comment
		}
		pairs[i] = fmt.Sprintf("%d. Idea: %s\n   Critique: %s", i+1, idea, comment)
	}
	prompt := fmt.Sprintf(
		"You are Advocate. Topic: %q. Context: %q. For each idea+critique pair, write a strong defense. "+
			`Respond with a JSON array of %d objects, each {"formatted": string}, in order.`+
			"\n\n%s", topic, background, len(ideas), strings.Join(pairs, "\n"))

	text, err := b.generate(ctx, "Advocate", prompt, ai.Options{Temperature: float32(b.temps.Temperature(PhaseAdvocacy))})
	if err != nil {
		return nil, err
	}
	return extractFormattedList(text, len(ideas), "Advocacy unavailable"), nil
}

// SkepticizeBatch requests one challenge per (idea, advocacy) pair. Per
// spec §9's chosen "sequenced" interpretation, this call consumes
// AdvocateBatch's output rather than running fully independently.
func (b *BatchAgentOps) SkepticizeBatch(ctx context.Context, ideas []string, advocacies []string, topic, background string) ([]string, error) {
	pairs := make([]string, len(ideas))
	for i, idea := range ideas {
		advocacy := ""
		if i < len(advocacies) {
			advocacy = advocacies[i]
		}
		pairs[i] = fmt.Sprintf("%d. Idea: %s\n   Advocacy: %s", i+1, idea, advocacy)
	}
	prompt := fmt.Sprintf(
		"You are Skeptic. Topic: %q. Context: %q. For each idea+advocacy pair, raise the strongest objections. "+
			`Respond with a JSON array of %d objects, each {"formatted": string}, in order.`+
			"\n\n%s", topic, background, len(ideas), strings.Join(pairs, "\n"))

	text, err := b.generate(ctx, "Skeptic", prompt, ai.Options{Temperature: float32(b.temps.Temperature(PhaseSkepticism))})
	if err != nil {
		return nil, err
	}
	return extractFormattedList(text, len(ideas), "Skepticism unavailable"), nil
}

// ImproveInput is one item fed to ImproveBatch.
type ImproveInput struct {
	Idea       string
	Critique   string
	Advocacy   string
	Skepticism string
}

// ImproveOutput is one improved idea, optionally carrying the structured
// key-improvements list an agent's response may supply alongside the plain
// text (spec §9 "accept both structured and string output").
type ImproveOutput struct {
	ImprovedIdea    string
	KeyImprovements []string
}

type improveItem struct {
	ImprovedIdea    string   `json:"improved_idea"`
	KeyImprovements []string `json:"key_improvements"`
}

// ImproveBatch requests one improved idea per {idea, critique, advocacy,
// skepticism} quad. A blank or missing improvement is substituted here with
// the input's own Idea field.
func (b *BatchAgentOps) ImproveBatch(ctx context.Context, inputs []ImproveInput, background string) ([]ImproveOutput, error) {
	parts := make([]string, len(inputs))
	for i, in := range inputs {
		parts[i] = fmt.Sprintf(
			"%d. Idea: %s\n   Critique: %s\n   Advocacy: %s\n   Skepticism: %s",
			i+1, in.Idea, in.Critique, in.Advocacy, in.Skepticism)
	}
	prompt := fmt.Sprintf(
		"You are improving each idea below using the critique, advocacy, and skepticism as input. "+
			"Context: %q. "+
			`Respond with a JSON array of %d objects, each {"improved_idea": string, "key_improvements": [string]}, in order.`+
			"\n\n%s", background, len(inputs), strings.Join(parts, "\n"))

	text, err := b.generate(ctx, "Improver", prompt, ai.Options{Temperature: float32(b.temps.Temperature(PhaseImprovement))})
	if err != nil {
		return nil, err
	}

	items := parseJSONObjectArray(text, len(inputs))
	out := make([]ImproveOutput, len(inputs))
	for i, in := range inputs {
		var it improveItem
		if i < len(items) {
			_ = mapToStruct(items[i], &it)
		}
		improved := strings.TrimSpace(it.ImprovedIdea)
		if improved == "" {
			improved = in.Idea
		}
		out[i] = ImproveOutput{ImprovedIdea: improved, KeyImprovements: it.KeyImprovements}
	}
	return out, nil
}

// numberedList renders ideas as "1. ...\n2. ...".
func numberedList(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("%d. %s", i+1, item)
	}
	return strings.Join(lines, "\n")
}

// extractFormattedList pulls "formatted" strings out of a JSON array
// response, falling back to fallback text for any missing/short entries.
func extractFormattedList(text string, n int, fallback string) []string {
	items := parseJSONObjectArray(text, n)
	out := make([]string, n)
	for i := 0; i < n; i++ {
		if i < len(items) {
			var f formattedItem
			if err := mapToStruct(items[i], &f); err == nil && strings.TrimSpace(f.Formatted) != "" {
				out[i] = f.Formatted
				continue
			}
		}
		out[i] = fallback
	}
	return out
}

// parseJSONObjectArray extracts up to n generic JSON objects from raw text,
// reusing the same ordered-strategy fallback as ParseEvaluationRecords but
// without collapsing fields to {score, comment}.
func parseJSONObjectArray(raw string, n int) []map[string]interface{} {
	cleaned := cleanLLMResponse(raw)

	var arr []map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned), &arr); err == nil && len(arr) > 0 {
		return arr
	}
	var single map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned), &single); err == nil && len(single) > 0 {
		return []map[string]interface{}{single}
	}

	var out []map[string]interface{}
	for _, match := range objectRE.FindAllString(cleaned, -1) {
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(match), &obj); err == nil {
			out = append(out, obj)
		}
	}
	return out
}

func mapToStruct(m map[string]interface{}, out interface{}) error {
	encoded, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(encoded, out)
}
