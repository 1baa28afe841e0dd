package orchestrator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ultrai-project/ultrai-core/llm/health"
	"github.com/ultrai-project/ultrai-core/llm/providers"
	"github.com/ultrai-project/ultrai-core/types"
)

// WrapperFor resolves the Resilient Wrapper Caller for one provider. The
// Pipeline Orchestrator never talks to a Provider Adapter directly — every
// call is routed through the per-provider RW the caller configured.
type WrapperFor func(p types.Provider) Caller

// Pipeline is the Pipeline Orchestrator (PO): it sequences the three
// stages, enforces the viability gate, picks the lead model, and produces
// the final Artifact.
type Pipeline struct {
	health     *health.Manager
	wrapperFor WrapperFor
	sem        *SemaphorePool
	cache      *ResultCache
	logger     *zap.Logger
}

// NewPipeline builds a Pipeline. cache may be nil to disable result
// caching entirely.
func NewPipeline(hm *health.Manager, wrapperFor WrapperFor, sem *SemaphorePool, cache *ResultCache, logger *zap.Logger) *Pipeline {
	if sem == nil {
		sem = NewSemaphorePool(8)
	}
	return &Pipeline{health: hm, wrapperFor: wrapperFor, sem: sem, cache: cache, logger: logger}
}

// minPeerReviewSuccesses is the Stage 1 success count below which peer
// review is skipped rather than run against too thin a field (§4.5(c)).
const minPeerReviewSuccesses = 2

// Execute runs the full pipeline synchronously and returns the completed
// Artifact, or a *types.Error if the request cannot be served at all
// (viability gate failure, or prompt extraction failure).
func (p *Pipeline) Execute(ctx context.Context, req Request) (Artifact, *types.Error) {
	artifact, _, err := p.run(ctx, req, nil)
	return artifact, err
}

// ExecuteStream runs the pipeline while emitting Events to events as each
// stage and model response completes. The channel is closed when the
// pipeline finishes, whether by completion or error; callers must drain it.
func (p *Pipeline) ExecuteStream(ctx context.Context, req Request) <-chan Event {
	events := make(chan Event, 32)
	go func() {
		defer close(events)
		p.run(ctx, req, events)
	}()
	return events
}

func (p *Pipeline) run(ctx context.Context, req Request, events chan<- Event) (Artifact, bool, *types.Error) {
	seq := &sequencer{}
	started := time.Now()

	if p.cache != nil {
		key := FingerprintKey(req)
		if cached, cerr := p.cache.Get(ctx, key); cerr == nil {
			emit(events, seq, EventPipelineComplete, pipelineCompleteData{
				LeadModel: cached.LeadModel.String(),
				TotalMs:   time.Since(started).Milliseconds(),
			})
			return cached, true, nil
		}
	}

	emit(events, seq, EventPipelineStart, pipelineStartData{
		QueryFingerprint: FingerprintKey(req),
		ModelsRequested:  modelStrings(req.RequestedModels),
	})

	eligible, _ := p.health.Filter(req.RequestedModels)
	if !p.health.Viable(eligible) {
		perr := types.NewError(types.ErrServiceUnavailable, "insufficient distinct healthy providers to satisfy minimum model requirement").
			WithHTTPStatus(503).WithRetryable(true).
			WithReason("min_models_not_met").
			WithViabilityDetail(p.health.MinModels(), providerStrings(p.health.AvailableProviders()))
		emit(events, seq, EventPipelineError, pipelineErrorData{Kind: perr.Code.Kind(), Message: perr.Message})
		return Artifact{}, false, perr
	}

	// The initial stage has not run yet, so there is no recorded-prompt
	// fallback to offer here: an empty query fails immediately rather than
	// propagating "" into every stage's prompt builder.
	prompt, perr := extractPrompt(req, "")
	if perr != nil {
		emit(events, seq, EventPipelineError, pipelineErrorData{Kind: perr.Code.Kind(), Message: perr.Message})
		return Artifact{}, false, perr
	}

	deadline := p.deadline(req)

	stage1 := p.runStage(ctx, StageInitial, eligible, prompt, nil, deadline, seq, events)
	if len(stage1.SuccessfulModels) == 0 {
		perr := types.NewError(types.ErrServiceUnavailable, "no provider returned a successful initial response").
			WithHTTPStatus(503).WithRetryable(true)
		emit(events, seq, EventPipelineError, pipelineErrorData{Kind: perr.Code.Kind(), Message: perr.Message, Stage: string(StageInitial)})
		return Artifact{}, false, perr
	}

	stages := []StageResult{stage1}

	reviewSource := stage1
	if req.Options.IncludePeerReview && len(stage1.SuccessfulModels) >= minPeerReviewSuccesses {
		peerModels := successfulOutputs(stage1)
		stage2 := p.runStage(ctx, StagePeerReview, stage1.SuccessfulModels, prompt, peerModels, deadline, seq, events)
		stages = append(stages, stage2)
		if len(stage2.SuccessfulModels) > 0 {
			reviewSource = stage2
		}
	} else {
		stages = append(stages, StageResult{Stage: StagePeerReview, Skipped: true})
	}

	leadCandidates := reviewSource.SuccessfulModels
	if len(leadCandidates) == 0 {
		leadCandidates = stage1.SuccessfulModels
	}

	var lead types.ModelID
	hasLead := false
	if req.Options.LeadModel != nil {
		for _, c := range leadCandidates {
			if c == *req.Options.LeadModel {
				lead, hasLead = c, true
				break
			}
		}
	}
	if !hasLead {
		lead, hasLead = p.health.PickLead(leadCandidates, nil)
	}
	if !hasLead {
		perr := types.NewError(types.ErrServiceUnavailable, "no eligible lead model available for synthesis").
			WithHTTPStatus(503).WithRetryable(true)
		emit(events, seq, EventPipelineError, pipelineErrorData{Kind: perr.Code.Kind(), Message: perr.Message, Stage: string(StageSynthesis)})
		return Artifact{}, false, perr
	}

	synthOutputs := successfulOutputs(reviewSource)
	stage3 := p.runStage(ctx, StageSynthesis, []types.ModelID{lead}, prompt, synthOutputs, deadline, seq, events)
	stages = append(stages, stage3)

	var synthesis string
	partial := false
	if len(stage3.Outputs) == 1 && stage3.Outputs[0].OK {
		synthesis = stage3.Outputs[0].Text
	} else {
		partial = true
		if len(stage3.Outputs) == 1 {
			synthesis = stage3.Outputs[0].Text
		}
	}

	artifact := Artifact{
		Query:              prompt,
		Stages:             stages,
		UltraSynthesis:     synthesis,
		FormattedSynthesis: formatSynthesis(synthesis),
		LeadModel:          lead,
		HasLead:            true,
		Partial:            partial,
		Info:               buildInfo(stages, p.health.MinModels()),
	}

	if p.cache != nil && !partial {
		p.cache.Set(ctx, FingerprintKey(req), artifact)
	}

	emit(events, seq, EventPipelineComplete, pipelineCompleteData{
		LeadModel: lead.String(),
		TotalMs:   time.Since(started).Milliseconds(),
	})

	return artifact, false, nil
}

func (p *Pipeline) deadline(req Request) time.Time {
	d := req.Options.GlobalDeadline
	if d <= 0 {
		d = 120 * time.Second
	}
	return time.Now().Add(d)
}

func (p *Pipeline) runStage(ctx context.Context, stage Stage, models []types.ModelID, query string, priorOutputs []ModelOutput, deadline time.Time, seq *sequencer, events chan<- Event) StageResult {
	emit(events, seq, EventStageStart, stageStartData{Stage: stage})

	builder := stagePromptBuilder(stage, query, priorOutputs)
	result := runStageWithEvents(ctx, stage, models, p.callerFor, builder, deadline, p.sem, seq, events)

	emit(events, seq, EventStageComplete, stageCompleteData{
		Stage:            stage,
		SuccessfulModels: modelStrings(result.SuccessfulModels),
		FailedModels:     failedModelStrings(result.FailedModels),
	})
	return result
}

func (p *Pipeline) callerFor(ctx context.Context, model types.ModelID, prompt string, deadline time.Time) providers.Envelope {
	call := p.wrapperFor(model.Provider)
	return call(ctx, model, prompt, deadline)
}

func stagePromptBuilder(stage Stage, query string, priorOutputs []ModelOutput) PromptBuilder {
	switch stage {
	case StageInitial:
		return func(types.ModelID) string { return query }
	case StagePeerReview:
		return func(types.ModelID) string { return peerReviewPrompt(query, priorOutputs) }
	case StageSynthesis:
		return func(types.ModelID) string { return synthesisPrompt(query, priorOutputs) }
	default:
		return func(types.ModelID) string { return query }
	}
}

// runStageWithEvents wraps stage.RunStage to additionally emit a
// model_response event per completed call, preserving RunStage's identity
// and ordering guarantees for the returned StageResult.
func runStageWithEvents(ctx context.Context, stage Stage, models []types.ModelID, call Caller, prompt PromptBuilder, deadline time.Time, sem *SemaphorePool, seq *sequencer, events chan<- Event) StageResult {
	instrumented := func(ctx context.Context, model types.ModelID, p string, deadline time.Time) providers.Envelope {
		envelope := call(ctx, model, p, deadline)
		data := modelResponseData{Stage: stage, Model: model.String(), OK: envelope.OK()}
		if envelope.OK() {
			data.TextLen = len(envelope.GeneratedText)
		} else {
			data.ErrorKind = envelope.Err.Code.Kind()
		}
		emit(events, seq, EventModelResponse, data)
		return envelope
	}
	return RunStage(ctx, stage, models, instrumented, prompt, deadline, sem)
}

func emit(events chan<- Event, seq *sequencer, t EventType, data any) {
	if events == nil {
		return
	}
	events <- newEvent(seq, t, data)
}

func successfulOutputs(r StageResult) []ModelOutput {
	out := make([]ModelOutput, 0, len(r.SuccessfulModels))
	for _, o := range r.Outputs {
		if o.OK {
			out = append(out, o)
		}
	}
	return out
}

func providerStrings(providers []types.Provider) []string {
	out := make([]string, len(providers))
	for i, p := range providers {
		out[i] = string(p)
	}
	return out
}

func modelStrings(models []types.ModelID) []string {
	out := make([]string, len(models))
	for i, m := range models {
		out[i] = m.String()
	}
	return out
}

func failedModelStrings(failed []FailedModel) []string {
	out := make([]string, len(failed))
	for i, f := range failed {
		out[i] = f.Model.String()
	}
	return out
}

func buildInfo(stages []StageResult, minRequired int) PipelineInfo {
	var completed []Stage
	usedSet := map[types.ModelID]bool{}
	providerSet := map[types.Provider]bool{}
	for _, s := range stages {
		if s.Skipped {
			continue
		}
		completed = append(completed, s.Stage)
		for _, m := range s.SuccessfulModels {
			usedSet[m] = true
			providerSet[m.Provider] = true
		}
	}
	used := make([]types.ModelID, 0, len(usedSet))
	for m := range usedSet {
		used = append(used, m)
	}
	providers := make([]types.Provider, 0, len(providerSet))
	for pr := range providerSet {
		providers = append(providers, pr)
	}
	return PipelineInfo{
		StagesCompleted: completed,
		ModelsUsed:      used,
		MinRequired:     minRequired,
		ProvidersSeen:   providers,
	}
}
