// Package ideaflow implements the multi-agent idea-refinement pipeline: a
// concurrency-aware orchestrator that drives IdeaGenerator, Critic,
// Advocate, and Skeptic language-model roles through a fixed sequence of
// phases to produce, evaluate, defend, challenge, improve, and re-evaluate
// a small set of candidate ideas.
package ideaflow

import "time"

// IdeaText is a non-empty candidate solution string. normalize
// (noveltyfilter.go) produces the lowercase, punctuation-stripped,
// whitespace-collapsed form used for hashing and similarity; the original
// display form is preserved separately.
type IdeaText string

// MultiDimScore holds the seven fixed-dimension scores plus the aggregates
// derived from them.
type MultiDimScore struct {
	Feasibility       float64 `json:"feasibility"`
	Innovation        float64 `json:"innovation"`
	Impact            float64 `json:"impact"`
	CostEffectiveness float64 `json:"cost_effectiveness"`
	Scalability       float64 `json:"scalability"`
	RiskAssessment    float64 `json:"risk_assessment"`
	Timeline          float64 `json:"timeline"`

	Overal             float64 `json:"overall"`
	Weighted           float64 `json:"weighted"`
	ConfidenceInterval float64 `json:"confidence_interval"`
	Summary            string  `json:"summary"`
}

// InferenceType tags which analysis an InferenceResult carries.
type InferenceType string

const (
	InferenceFull          InferenceType = "full"
	InferenceCausal        InferenceType = "causal"
	InferenceConstraints   InferenceType = "constraints"
	InferenceContradiction InferenceType = "contradiction"
	InferenceImplications  InferenceType = "implications"
)

// InferenceResult is the tagged variant produced by LogicalInferenceEngine.
// Only the fields relevant to Type are expected to be populated; the rest
// remain at their zero value.
type InferenceResult struct {
	Type           InferenceType `json:"type"`
	InferenceChain []string      `json:"inference_chain"`
	Conclusion     string        `json:"conclusion"`
	Confidence     float64       `json:"confidence"`

	// Causal
	CausalChain  []string `json:"causal_chain,omitempty"`
	FeedbackLoop []string `json:"feedback_loops,omitempty"`
	RootCause    string   `json:"root_cause,omitempty"`

	// Constraints
	ConstraintSatisfaction map[string]float64 `json:"constraint_satisfaction,omitempty"`
	TradeOffs              []string           `json:"trade_offs,omitempty"`

	// Contradiction
	Contradictions []string `json:"contradictions,omitempty"`

	// Implications
	Implications      []string `json:"implications,omitempty"`
	SecondOrderEffect  []string `json:"second_order_effects,omitempty"`
	ImprovementHint    string   `json:"improvement_hint,omitempty"`
}

// EvaluatedIdea is an idea enriched with a score, critique, and optional
// deeper analyses, after the Evaluate phase.
type EvaluatedIdea struct {
	Text      IdeaText
	Score     float64
	Critique  string
	MultiDim  *MultiDimScore
	Logical   *InferenceResult
	origIndex int // index in the post-filter, pre-sort idea list that Evaluate scored
}

// FailureStage names the pipeline stage a recovered failure occurred in.
type FailureStage string

const (
	StageAdvocacy     FailureStage = "advocacy"
	StageSkepticism   FailureStage = "skepticism"
	StageImprovement  FailureStage = "improvement"
	StageReEvaluation FailureStage = "re-evaluation"
)

// FailureNote records one stage-local recovered failure, per spec §7's
// "recovered errors are attached to the affected CandidateResult" policy.
type FailureNote struct {
	Stage     FailureStage `json:"stage"`
	ErrorKind string       `json:"error_kind"`
	Message   string       `json:"message"`
}

// CandidateResult is the final per-idea output record.
type CandidateResult struct {
	Idea             string           `json:"idea"`
	InitialScore     float64          `json:"initial_score"`
	InitialCritique  string           `json:"initial_critique"`
	Advocacy         string           `json:"advocacy"`
	Skepticism       string           `json:"skepticism"`
	ImprovedIdea     string           `json:"improved_idea"`
	ImprovedCritique string           `json:"improved_critique"`
	ImprovedScore    float64          `json:"improved_score"`
	ScoreDelta       float64          `json:"score_delta"`
	IsMeaningful     bool             `json:"is_meaningful_improvement"`
	SimilarityScore  float64          `json:"similarity_score"`
	MultiDim         *MultiDimScore   `json:"multi_dim,omitempty"`
	ImprovedMultiDim *MultiDimScore   `json:"improved_multi_dim,omitempty"`
	Logical          *InferenceResult `json:"logical,omitempty"`
	PartialFailures  []FailureNote    `json:"partial_failures,omitempty"`
	KeyImprovements  []string         `json:"key_improvements,omitempty"`
}

// TemperaturePreset names one of the fixed temperature tables.
type TemperaturePreset string

const (
	PresetConservative TemperaturePreset = "conservative"
	PresetBalanced     TemperaturePreset = "balanced"
	PresetCreative     TemperaturePreset = "creative"
	PresetWild         TemperaturePreset = "wild"
)

// WorkflowOptions configures one Run.
type WorkflowOptions struct {
	NumTopCandidates    int
	EnableNoveltyFilter bool
	NoveltySimilarity   float64
	TemperaturePreset   TemperaturePreset // empty means use TemperatureBase
	TemperatureBase     float64           // used when TemperaturePreset == ""
	EnhancedReasoning   bool
	MultiDimensional    bool
	LogicalInference    bool
	LogicalInferenceType InferenceType
	// LogicalInferenceConfidenceThreshold gates whether a logical inference
	// result is attached to its candidate. Defaults to 0.0 (a no-op gate),
	// preserving the documented original behavior while exposing it as a
	// tunable (see DESIGN.md Open Question decisions).
	LogicalInferenceConfidenceThreshold float64
	Timeout                             time.Duration
	MaxConcurrentAgents                 int
	CacheEnabled                        bool
}

// DefaultWorkflowOptions returns the spec-mandated defaults.
func DefaultWorkflowOptions() WorkflowOptions {
	return WorkflowOptions{
		NumTopCandidates:                    3,
		EnableNoveltyFilter:                 true,
		NoveltySimilarity:                   0.8,
		TemperaturePreset:                   PresetBalanced,
		EnhancedReasoning:                   true,
		MultiDimensional:                    true,
		LogicalInference:                    false,
		LogicalInferenceType:                InferenceFull,
		LogicalInferenceConfidenceThreshold: 0.0,
		Timeout:                             10 * time.Minute,
		MaxConcurrentAgents:                 10,
		CacheEnabled:                        false,
	}
}

const maxWorkflowTimeout = time.Hour

// validationErrors checks the §3 range invariants and returns one message
// per violation (nil when valid); Run turns a non-empty result into a
// ConfigurationError. Kept here as a pure function so it can be unit tested
// without an orchestrator.
func (o WorkflowOptions) validationErrors() []string {
	var errs []string
	if o.NumTopCandidates < 1 || o.NumTopCandidates > 5 {
		errs = append(errs, "numTopCandidates must be in [1,5]")
	}
	if o.NoveltySimilarity < 0 || o.NoveltySimilarity > 1 {
		errs = append(errs, "noveltySimilarityThreshold must be in [0,1]")
	}
	if o.MaxConcurrentAgents < 1 || o.MaxConcurrentAgents > 64 {
		errs = append(errs, "maxConcurrentAgents must be in [1,64]")
	}
	if o.Timeout <= 0 || o.Timeout > maxWorkflowTimeout {
		errs = append(errs, "timeout must be positive and at most 1 hour")
	}
	if o.TemperaturePreset != "" {
		switch o.TemperaturePreset {
		case PresetConservative, PresetBalanced, PresetCreative, PresetWild:
		default:
			errs = append(errs, "unknown temperature preset")
		}
	}
	return errs
}
