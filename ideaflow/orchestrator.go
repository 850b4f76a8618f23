package ideaflow

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/madspark-go/ideaflow/ai"
	"github.com/madspark-go/ideaflow/cache"
	"github.com/madspark-go/ideaflow/internal/corelog"
	"github.com/madspark-go/ideaflow/internal/corerr"
	"github.com/madspark-go/ideaflow/internal/tracing"
	"github.com/madspark-go/ideaflow/progress"
)

// Per-phase timeouts, fixed by spec §5.
const (
	timeoutGenerateIdeas = 60 * time.Second
	timeoutEvaluate      = 30 * time.Second
	timeoutAdvocate      = 30 * time.Second
	timeoutSkeptic       = 30 * time.Second
	timeoutImprove       = 45 * time.Second
	timeoutReEvaluate    = 30 * time.Second
)

// fallback text substituted when advocacy/skepticism cannot be produced.
const (
	fallbackAdvocacy = "Advocacy unavailable due to an error; proceeding with original evaluation."
	fallbackSkeptic  = "Skepticism unavailable due to an error; proceeding without challenge."
	fallbackEvalNote = "CriticAgent failed"
	regressionMarker = " [Note: re-evaluation scored lower than the original; kept for transparency.]"

	// skippedAdvocacy/skippedSkepticism are used when enhancedReasoning is
	// disabled by option rather than by a provider failure.
	skippedAdvocacy  = "Advocacy skipped (enhancedReasoning disabled)."
	skippedSkepticism = "Skepticism skipped (enhancedReasoning disabled)."
)

// Orchestrator is the pipeline state machine (spec §4.10 / C10): it owns
// concurrency, timeouts, partial-failure policy, progress emission, and
// cache lookup/write for one Run.
type Orchestrator struct {
	provider ai.ModelProvider
	cache    cache.Cache
	sink     progress.Sink
	logger   corelog.ComponentAwareLogger
}

// NewOrchestrator wires the external capabilities. cacheImpl and sink may
// be nil, in which case caching and progress reporting are no-ops.
func NewOrchestrator(provider ai.ModelProvider, cacheImpl cache.Cache, sink progress.Sink, logger corelog.ComponentAwareLogger) *Orchestrator {
	if sink == nil {
		sink = progress.NoOpSink{}
	}
	if logger == nil {
		logger = corelog.NoOpLogger{}
	}
	return &Orchestrator{provider: provider, cache: cacheImpl, sink: sink, logger: logger}
}

// runState carries everything one Run needs without leaking outside it
// (spec §3 "the orchestrator exclusively owns all in-flight tables").
type runState struct {
	runID    string
	opts     WorkflowOptions
	ops      *BatchAgentOps
	multiDim *MultiDimensionalEvaluator
	logical  *LogicalInferenceEngine
	sem      chan struct{}
	log      corelog.Logger
}

// Run executes the full pipeline and returns the ordered top-K candidate
// results, or a typed *corerr.WorkflowError.
func (o *Orchestrator) Run(ctx context.Context, topic, background string, opts WorkflowOptions) ([]CandidateResult, error) {
	if errs := opts.validationErrors(); len(errs) > 0 {
		o.sink.Emit("ConfigurationError: "+strings.Join(errs, "; "), 0)
		return nil, corerr.New("Run", corerr.KindConfiguration, "", strings.Join(errs, "; "), corerr.ErrInvalidOptions)
	}
	if strings.TrimSpace(topic) == "" || len(topic) > 500 {
		return nil, corerr.New("Run", corerr.KindConfiguration, "", "topic must be 1-500 chars", corerr.ErrInvalidOptions)
	}
	if len(background) > 1000 {
		return nil, corerr.New("Run", corerr.KindConfiguration, "", "context must be at most 1000 chars", corerr.ErrInvalidOptions)
	}

	runID := uuid.NewString()
	ctx, span := tracing.StartSpan(ctx, "ideaflow.Run")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	log := o.logger.WithComponent("ideaflow/orchestrator")

	optionsKey := canonicalOptionsKey(opts)
	if opts.CacheEnabled && o.cache != nil {
		if raw, hit := o.cache.GetWorkflow(topic, background, optionsKey); hit {
			var results []CandidateResult
			if err := cache.UnmarshalWorkflowResult(raw, &results); err == nil {
				o.sink.Emit("cache hit", 1.0)
				log.Info("workflow cache hit", corelog.Fields{"run_id": runID})
				return results, nil
			}
		}
	}

	temps := temperaturePolicyFor(opts)
	var agentCache cache.Cache
	if opts.CacheEnabled {
		agentCache = o.cache
	}
	state := &runState{
		runID:    runID,
		opts:     opts,
		ops:      NewBatchAgentOps(o.provider, temps, agentCache),
		multiDim: NewMultiDimensionalEvaluator(o.provider, temps),
		logical:  NewLogicalInferenceEngine(o.provider, temps),
		sem:      make(chan struct{}, opts.MaxConcurrentAgents),
		log:      log,
	}

	results, err := o.run(ctx, state, topic, background)
	if err != nil {
		tracing.RecordError(span, err)
		o.emitAbort(err)
		return nil, err
	}

	if opts.CacheEnabled && o.cache != nil {
		if encoded, encErr := cache.MarshalWorkflowResult(results); encErr == nil {
			o.cache.PutWorkflow(topic, background, optionsKey, encoded, 30*time.Minute)
		}
	}

	o.sink.Emit("done", 1.0)
	return results, nil
}

func (o *Orchestrator) emitAbort(err error) {
	kind := "UnknownError"
	var we *corerr.WorkflowError
	if ok := asWorkflowError(err, &we); ok {
		kind = string(we.Kind)
	}
	o.sink.Emit(fmt.Sprintf("aborted: %s", kind), 0)
}

func asWorkflowError(err error, target **corerr.WorkflowError) bool {
	we, ok := err.(*corerr.WorkflowError)
	if ok {
		*target = we
	}
	return ok
}

func temperaturePolicyFor(opts WorkflowOptions) *TemperaturePolicy {
	if opts.TemperaturePreset != "" {
		return NewTemperaturePolicyFromPreset(opts.TemperaturePreset)
	}
	return NewTemperaturePolicyFromBase(opts.TemperatureBase)
}

// canonicalOptionsKey derives a stable cache-key fragment from the subset
// of options that affect generated content, excluding transient fields
// (timeouts, concurrency, cache toggle itself) per spec §9.
func canonicalOptionsKey(o WorkflowOptions) string {
	type keyed struct {
		NumTopCandidates  int
		NoveltyEnabled    bool
		NoveltyThreshold  float64
		TempPreset        TemperaturePreset
		TempBase          float64
		EnhancedReasoning bool
		MultiDimensional  bool
		LogicalInference  bool
		LogicalType       InferenceType
	}
	b, _ := json.Marshal(keyed{
		NumTopCandidates:  o.NumTopCandidates,
		NoveltyEnabled:    o.EnableNoveltyFilter,
		NoveltyThreshold:  o.NoveltySimilarity,
		TempPreset:        o.TemperaturePreset,
		TempBase:          o.TemperatureBase,
		EnhancedReasoning: o.EnhancedReasoning,
		MultiDimensional:  o.MultiDimensional,
		LogicalInference:  o.LogicalInference,
		LogicalType:       o.LogicalInferenceType,
	})
	return string(b)
}

// acquire blocks until a semaphore slot is free or ctx is done. A ctx that
// is already done never takes a slot.
func (s *runState) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *runState) release() { <-s.sem }

func phaseCtx(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d)
}

// run is the actual state machine, split out from Run so Run can stay
// focused on validation, caching, and tracing setup.
func (o *Orchestrator) run(ctx context.Context, st *runState, topic, background string) ([]CandidateResult, error) {
	ideas, err := o.phaseGenerateIdeas(ctx, st, topic, background)
	if err != nil {
		return nil, err
	}

	ideas, err = o.phaseNoveltyFilter(ctx, st, ideas)
	if err != nil {
		return nil, err
	}

	evaluated, failures, err := o.phaseEvaluate(ctx, st, ideas, topic, background)
	if err != nil {
		return nil, err
	}

	// Side branch: multi-dimensional scoring over every surviving idea,
	// dispatched alongside SelectTopK (spec §4.10).
	var multiDimJob *multiDimJob
	if st.opts.MultiDimensional {
		multiDimJob = o.dispatchMultiDimAll(ctx, st, ideas, topic, background)
	}

	top := selectTopK(evaluated, st.opts.NumTopCandidates)

	// Side branch: logical inference over the top-K, dispatched alongside
	// the Advocate/Skeptic fan-out.
	var logicalJob *logicalJob
	if st.opts.LogicalInference {
		topIdeas := make([]string, len(top))
		for i, c := range top {
			topIdeas[i] = string(c.Text)
		}
		logicalJob = o.dispatchLogicalInference(ctx, st, topIdeas, topic, background)
	}

	var advocacies, skepticisms []string
	if st.opts.EnhancedReasoning {
		var fanFailures []FailureNote
		advocacies, skepticisms, fanFailures = o.phaseAdvocateSkeptic(ctx, st, top, topic, background)
		failures = append(failures, fanFailures...)
	} else {
		advocacies = fill(len(top), skippedAdvocacy)
		skepticisms = fill(len(top), skippedSkepticism)
	}

	improved, improveFailures := o.phaseImprove(ctx, st, top, advocacies, skepticisms, background)
	failures = append(failures, improveFailures...)

	// Side branch: a second MultiDimEvaluate batch call over the improved
	// ideas (spec §4.10), dispatched alongside ReEvaluate.
	var improvedMultiDimJob *multiDimJob
	if st.opts.MultiDimensional {
		improvedIdeas := make([]string, len(improved))
		for i, imp := range improved {
			improvedIdeas[i] = imp.ImprovedIdea
		}
		improvedMultiDimJob = o.dispatchMultiDimAll(ctx, st, improvedIdeas, topic, background)
	}

	reEvaluated, reEvalFailures := o.phaseReEvaluate(ctx, st, improved, topic, background)
	failures = append(failures, reEvalFailures...)

	var multiDimAll []*MultiDimScore
	if multiDimJob != nil {
		<-multiDimJob.done
		multiDimAll = multiDimJob.result
	}
	var logicalResults []InferenceResult
	if logicalJob != nil {
		<-logicalJob.done
		logicalResults = logicalJob.result
	}
	var improvedMultiDimAll []*MultiDimScore
	if improvedMultiDimJob != nil {
		<-improvedMultiDimJob.done
		improvedMultiDimAll = improvedMultiDimJob.result
	}

	if err := ctx.Err(); err != nil {
		return nil, classifyContextError(st.runID, err)
	}

	return o.assembleResults(top, advocacies, skepticisms, improved, reEvaluated, multiDimAll, improvedMultiDimAll, logicalResults, failures, st.opts), nil
}

func classifyContextError(runID string, err error) error {
	if err == context.DeadlineExceeded {
		return corerr.New("Run", corerr.KindTimeout, runID, "global deadline exceeded", corerr.ErrGlobalDeadlineExceeded)
	}
	return corerr.New("Run", corerr.KindCancellation, runID, "run cancelled", corerr.ErrCancelled)
}

// --- Phase: GenerateIdeas ---------------------------------------------

func (o *Orchestrator) phaseGenerateIdeas(ctx context.Context, st *runState, topic, background string) ([]string, error) {
	o.sink.Emit("generating ideas", 0.05)

	nRequested := st.opts.NumTopCandidates + 2
	if nRequested < 5 {
		nRequested = 5
	}

	pctx, cancel := phaseCtx(ctx, timeoutGenerateIdeas)
	defer cancel()

	if err := st.acquire(pctx); err != nil {
		return nil, classifyContextError(st.runID, err)
	}
	ideas, err := st.ops.GenerateIdeas(pctx, topic, background, nRequested)
	st.release()
	if err != nil {
		kind := corerr.KindTimeout
		if pctx.Err() == nil {
			kind = corerr.KindPermanentProvider
		}
		return nil, corerr.New("GenerateIdeas", kind, st.runID, "idea generation failed", err)
	}

	nonEmpty := 0
	for _, idea := range ideas {
		if strings.TrimSpace(idea) != "" {
			nonEmpty++
		}
	}
	if nonEmpty == 0 {
		return nil, corerr.New("GenerateIdeas", corerr.KindInvariantViolated, st.runID, "no ideas generated", corerr.ErrNoNovelIdeas)
	}

	o.sink.Emit("ideas generated", 0.1)
	return ideas, nil
}

// --- Phase: NoveltyFilter ----------------------------------------------

func (o *Orchestrator) phaseNoveltyFilter(ctx context.Context, st *runState, ideas []string) ([]string, error) {
	if !st.opts.EnableNoveltyFilter {
		return ideas, nil
	}
	o.sink.Emit("filtering duplicates", 0.12)

	filter := NewNoveltyFilter(st.opts.NoveltySimilarity)
	filtered := filter.FilterAll(ideas)
	if len(filtered) == 0 {
		return nil, corerr.New("NoveltyFilter", corerr.KindInvariantViolated, st.runID, "no novel ideas", corerr.ErrNoNovelIdeas)
	}

	o.sink.Emit("duplicates filtered", 0.15)
	return filtered, nil
}

// --- Phase: Evaluate -----------------------------------------------------

func (o *Orchestrator) phaseEvaluate(ctx context.Context, st *runState, ideas []string, topic, background string) ([]EvaluatedIdea, []FailureNote, error) {
	o.sink.Emit("evaluating ideas", 0.2)

	pctx, cancel := phaseCtx(ctx, timeoutEvaluate)
	defer cancel()

	if err := st.acquire(pctx); err != nil {
		return nil, nil, classifyContextError(st.runID, ctx.Err())
	}
	records, err := st.ops.EvaluateBatch(pctx, ideas, topic, background)
	st.release()

	var failures []FailureNote
	evaluated := make([]EvaluatedIdea, len(ideas))

	if err != nil {
		// Hard failure: fall back to the first numTopCandidates unscored
		// ideas so the pipeline keeps going (spec §4.10 Evaluate contract).
		n := st.opts.NumTopCandidates
		if n > len(ideas) {
			n = len(ideas)
		}
		out := make([]EvaluatedIdea, n)
		for i := 0; i < n; i++ {
			out[i] = EvaluatedIdea{Text: IdeaText(ideas[i]), Score: 0, Critique: fallbackEvalNote, origIndex: i}
		}
		failures = append(failures, FailureNote{Stage: "evaluation", ErrorKind: string(corerr.KindPermanentProvider), Message: err.Error()})
		o.sink.Emit("evaluation fallback", 0.3)
		return out, failures, nil
	}

	for i, idea := range ideas {
		score, critique := 0.0, "Evaluation missing"
		if i < len(records) {
			score, critique = records[i].Score, records[i].Comment
		}
		evaluated[i] = EvaluatedIdea{Text: IdeaText(idea), Score: score, Critique: critique, origIndex: i}
	}

	o.sink.Emit("ideas evaluated", 0.3)
	return evaluated, failures, nil
}

// --- Side branch: MultiDimEvaluate(all ideas) ---------------------------

// multiDimJob carries the result of a background MultiDimEvaluate call;
// result must only be read after done is closed.
type multiDimJob struct {
	result []*MultiDimScore
	done   chan struct{}
}

func (o *Orchestrator) dispatchMultiDimAll(ctx context.Context, st *runState, ideas []string, topic, background string) *multiDimJob {
	job := &multiDimJob{done: make(chan struct{})}

	go func() {
		defer close(job.done)
		defer func() {
			if r := recover(); r != nil {
				st.log.Error("multi-dim evaluation panicked", corelog.Fields{"recover": fmt.Sprint(r)})
			}
		}()

		pctx, cancel := phaseCtx(ctx, timeoutEvaluate)
		defer cancel()
		if err := st.acquire(pctx); err != nil {
			return
		}
		defer st.release()

		scores, err := st.multiDim.EvaluateBatch(pctx, ideas, topic, background)
		if err != nil {
			st.log.Warn("multi-dim evaluation failed", corelog.Fields{"error": err.Error()})
			return
		}
		job.result = scores
	}()

	return job
}

// --- Side branch: LogicalInferenceBatch(top-K) --------------------------

// logicalJob carries the result of a background LogicalInferenceBatch call;
// result must only be read after done is closed.
type logicalJob struct {
	result []InferenceResult
	done   chan struct{}
}

func (o *Orchestrator) dispatchLogicalInference(ctx context.Context, st *runState, ideas []string, topic, background string) *logicalJob {
	job := &logicalJob{done: make(chan struct{})}

	go func() {
		defer close(job.done)
		defer func() {
			if r := recover(); r != nil {
				st.log.Error("logical inference panicked", corelog.Fields{"recover": fmt.Sprint(r)})
			}
		}()

		pctx, cancel := phaseCtx(ctx, timeoutEvaluate)
		defer cancel()
		if err := st.acquire(pctx); err != nil {
			return
		}
		defer st.release()

		results, err := st.logical.Batch(pctx, ideas, topic, background, st.opts.LogicalInferenceType)
		if err != nil {
			st.log.Warn("logical inference failed", corelog.Fields{"error": err.Error()})
			return
		}
		job.result = results
		st.log.Debug("logical inference batch complete", corelog.Fields{
			"count":   len(results),
			"preview": jsonPreview(results, 300),
		})
	}()

	return job
}

// --- Phase: SelectTopK ----------------------------------------------------

func selectTopK(evaluated []EvaluatedIdea, k int) []EvaluatedIdea {
	sorted := make([]EvaluatedIdea, len(evaluated))
	copy(sorted, evaluated)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].origIndex < sorted[j].origIndex
	})
	if k > len(sorted) {
		k = len(sorted)
	}
	return sorted[:k]
}

// --- Phase: Advocate / Skeptic fan-out ------------------------------------

func (o *Orchestrator) phaseAdvocateSkeptic(ctx context.Context, st *runState, top []EvaluatedIdea, topic, background string) ([]string, []string, []FailureNote) {
	o.sink.Emit("advocating and challenging", 0.45)

	ideas := make([]string, len(top))
	evals := make([]validatedRecord, len(top))
	for i, c := range top {
		ideas[i] = string(c.Text)
		evals[i] = validatedRecord{Score: c.Score, Comment: c.Critique}
	}

	var failures []FailureNote

	actx, cancel := phaseCtx(ctx, timeoutAdvocate)
	var advocacies []string
	if err := st.acquire(actx); err != nil {
		advocacies = fill(len(top), fallbackAdvocacy)
		failures = append(failures, FailureNote{Stage: StageAdvocacy, ErrorKind: string(corerr.KindCancellation), Message: err.Error()})
	} else {
		a, err := st.ops.AdvocateBatch(actx, ideas, evals, topic, background)
		st.release()
		if err != nil {
			advocacies = fill(len(top), fallbackAdvocacy)
			kind := corerr.KindPermanentProvider
			if actx.Err() != nil {
				kind = corerr.KindTimeout
			}
			failures = append(failures, FailureNote{Stage: StageAdvocacy, ErrorKind: string(kind), Message: err.Error()})
		} else {
			advocacies = a
		}
	}
	cancel()

	sctx, cancel2 := phaseCtx(ctx, timeoutSkeptic)
	var skepticisms []string
	if err := st.acquire(sctx); err != nil {
		skepticisms = fill(len(top), fallbackSkeptic)
		failures = append(failures, FailureNote{Stage: StageSkepticism, ErrorKind: string(corerr.KindCancellation), Message: err.Error()})
	} else {
		s, err := st.ops.SkepticizeBatch(sctx, ideas, advocacies, topic, background)
		st.release()
		if err != nil {
			skepticisms = fill(len(top), fallbackSkeptic)
			kind := corerr.KindPermanentProvider
			if sctx.Err() != nil {
				kind = corerr.KindTimeout
			}
			failures = append(failures, FailureNote{Stage: StageSkepticism, ErrorKind: string(kind), Message: err.Error()})
		} else {
			skepticisms = s
		}
	}
	cancel2()

	o.sink.Emit("advocacy and skepticism complete", 0.55)
	return advocacies, skepticisms, failures
}

func fill(n int, v string) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// --- Phase: Improve --------------------------------------------------------

func (o *Orchestrator) phaseImprove(ctx context.Context, st *runState, top []EvaluatedIdea, advocacies, skepticisms []string, background string) ([]ImproveOutput, []FailureNote) {
	o.sink.Emit("improving ideas", 0.65)

	inputs := make([]ImproveInput, len(top))
	for i, c := range top {
		inputs[i] = ImproveInput{
			Idea:       string(c.Text),
			Critique:   c.Critique,
			Advocacy:   at(advocacies, i),
			Skepticism: at(skepticisms, i),
		}
	}

	pctx, cancel := phaseCtx(ctx, timeoutImprove)
	defer cancel()

	var failures []FailureNote
	if err := st.acquire(pctx); err != nil {
		failures = append(failures, FailureNote{Stage: StageImprovement, ErrorKind: string(corerr.KindCancellation), Message: err.Error()})
		return fallbackImprove(top), failures
	}
	out, err := st.ops.ImproveBatch(pctx, inputs, background)
	st.release()
	if err != nil {
		kind := corerr.KindPermanentProvider
		if pctx.Err() != nil {
			kind = corerr.KindTimeout
		}
		failures = append(failures, FailureNote{Stage: StageImprovement, ErrorKind: string(kind), Message: err.Error()})
		return fallbackImprove(top), failures
	}

	o.sink.Emit("ideas improved", 0.7)
	return out, failures
}

func fallbackImprove(top []EvaluatedIdea) []ImproveOutput {
	out := make([]ImproveOutput, len(top))
	for i, c := range top {
		out[i] = ImproveOutput{ImprovedIdea: string(c.Text)}
	}
	return out
}

func at(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}

// --- Phase: ReEvaluate ------------------------------------------------------

type reEvalResult struct {
	score    float64
	critique string
}

// phaseReEvaluate re-scores the improved ideas. Critically, it passes the
// *original* background/context string and reuses EvaluateBatch verbatim,
// and strips the words "improved", "enhanced" and "refined" (any case) from
// the improved idea text it sends, so no improvement marker reaches its
// prompt, enforcing the bias-prevention invariant (spec §3 invariant 5, §9).
func (o *Orchestrator) phaseReEvaluate(ctx context.Context, st *runState, improved []ImproveOutput, topic, originalBackground string) ([]reEvalResult, []FailureNote) {
	o.sink.Emit("re-evaluating improved ideas", 0.8)

	markerRE := regexp.MustCompile(`(?i)\b(improved|enhanced|refined)\b`)
	ideas := make([]string, len(improved))
	for i, imp := range improved {
		ideas[i] = markerRE.ReplaceAllString(imp.ImprovedIdea, "")
	}

	pctx, cancel := phaseCtx(ctx, timeoutReEvaluate)
	defer cancel()

	var failures []FailureNote
	if err := st.acquire(pctx); err != nil {
		failures = append(failures, FailureNote{Stage: StageReEvaluation, ErrorKind: string(corerr.KindCancellation), Message: err.Error()})
		return nil, failures
	}
	records, err := st.ops.EvaluateBatch(pctx, ideas, topic, originalBackground)
	st.release()
	if err != nil {
		kind := corerr.KindPermanentProvider
		if pctx.Err() != nil {
			kind = corerr.KindTimeout
		}
		failures = append(failures, FailureNote{Stage: StageReEvaluation, ErrorKind: string(kind), Message: err.Error()})
		return nil, failures
	}

	out := make([]reEvalResult, len(ideas))
	for i := range ideas {
		if i < len(records) {
			out[i] = reEvalResult{score: records[i].Score, critique: records[i].Comment}
		}
	}

	o.sink.Emit("re-evaluation complete", 0.9)
	return out, failures
}

// --- Phase: AssembleResults -------------------------------------------------

func (o *Orchestrator) assembleResults(
	top []EvaluatedIdea,
	advocacies, skepticisms []string,
	improved []ImproveOutput,
	reEvaluated []reEvalResult,
	multiDimAll []*MultiDimScore,
	improvedMultiDimAll []*MultiDimScore,
	logical []InferenceResult,
	failures []FailureNote,
	opts WorkflowOptions,
) []CandidateResult {
	out := make([]CandidateResult, len(top))

	for i, c := range top {
		improvedIdea := string(c.Text)
		var keyImprovements []string
		if i < len(improved) {
			improvedIdea = improved[i].ImprovedIdea
			keyImprovements = improved[i].KeyImprovements
		}

		improvedScore := c.Score
		improvedCritique := "Re-evaluation unavailable"
		if i < len(reEvaluated) {
			re := reEvaluated[i]
			improvedScore = re.score
			improvedCritique = re.critique
			if improvedScore < c.Score-1.0 {
				improvedCritique += regressionMarker
			}
		}

		similarity := JaccardSimilarity(string(c.Text), improvedIdea)
		scoreDelta := improvedScore - c.Score
		isMeaningful := !(similarity > 0.9 && absFloat(scoreDelta) < 0.3)

		candidate := CandidateResult{
			Idea:             string(c.Text),
			InitialScore:     c.Score,
			InitialCritique:  c.Critique,
			Advocacy:         at(advocacies, i),
			Skepticism:       at(skepticisms, i),
			ImprovedIdea:     improvedIdea,
			ImprovedCritique: improvedCritique,
			ImprovedScore:    improvedScore,
			ScoreDelta:       scoreDelta,
			IsMeaningful:     isMeaningful,
			SimilarityScore:  similarity,
			KeyImprovements:  keyImprovements,
		}

		if multiDimAll != nil && c.origIndex < len(multiDimAll) {
			candidate.MultiDim = multiDimAll[c.origIndex]
		}
		if improvedMultiDimAll != nil && i < len(improvedMultiDimAll) {
			candidate.ImprovedMultiDim = improvedMultiDimAll[i]
		}
		if logical != nil && i < len(logical) {
			if logical[i].Confidence >= opts.LogicalInferenceConfidenceThreshold {
				lr := logical[i]
				candidate.Logical = &lr
			}
		}
		candidate.PartialFailures = failuresFor(failures)

		out[i] = candidate
	}

	return out
}

// failuresFor currently attaches the whole Run's recovered failures to
// every candidate, since batch-level failures are not attributable to a
// single index (a batch call either succeeds or fails for the whole
// phase). A future per-item failure surface would need BatchAgentOps to
// report partial per-item provider errors, which spec §4.7 does not ask
// for (batch calls are "exactly one provider call").
func failuresFor(all []FailureNote) []FailureNote {
	if len(all) == 0 {
		return nil
	}
	out := make([]FailureNote, len(all))
	copy(out, all)
	return out
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
