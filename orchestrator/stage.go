package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ultrai-project/ultrai-core/llm/providers"
	"github.com/ultrai-project/ultrai-core/types"
)

// Caller is how SE reaches the Resilient Wrapper for one model. It must
// never exceed deadline's wall clock and must always return an Envelope
// (never a bare error).
type Caller func(ctx context.Context, model types.ModelID, prompt string, deadline time.Time) providers.Envelope

// PromptBuilder constructs the per-model prompt for one stage invocation.
// Stage-specific wording (peer review, synthesis) lives in the Pipeline
// Orchestrator (§4.5); the Stage Executor is template-agnostic.
type PromptBuilder func(model types.ModelID) string

// SemaphorePool caps in-flight calls per provider so a stage's fan-out
// never self-induces a rate limit (default 8).
type SemaphorePool struct {
	mu    sync.Mutex
	sems  map[types.Provider]chan struct{}
	limit int
}

// NewSemaphorePool creates a pool with the given per-provider concurrency
// limit.
func NewSemaphorePool(limit int) *SemaphorePool {
	if limit <= 0 {
		limit = 8
	}
	return &SemaphorePool{sems: make(map[types.Provider]chan struct{}), limit: limit}
}

func (p *SemaphorePool) acquire(provider types.Provider) func() {
	p.mu.Lock()
	sem, ok := p.sems[provider]
	if !ok {
		sem = make(chan struct{}, p.limit)
		p.sems[provider] = sem
	}
	p.mu.Unlock()

	sem <- struct{}{}
	return func() { <-sem }
}

// RunStage fans out to every model in parallel under deadline and collects
// identity-preserving results: Outputs' order always equals models' order,
// regardless of completion order.
func RunStage(ctx context.Context, stage Stage, models []types.ModelID, call Caller, prompt PromptBuilder, deadline time.Time, sem *SemaphorePool) StageResult {
	started := time.Now()
	outputs := make([]ModelOutput, len(models))

	var wg sync.WaitGroup
	for i, model := range models {
		wg.Add(1)
		go func(i int, model types.ModelID) {
			defer wg.Done()
			release := sem.acquire(model.Provider)
			defer release()

			p := prompt(model)
			envelope := call(ctx, model, p, deadline)
			outputs[i] = toModelOutput(model, envelope)
		}(i, model)
	}
	wg.Wait()

	successful := make([]types.ModelID, 0, len(models))
	var failed []FailedModel
	for i, o := range outputs {
		if o.OK {
			successful = append(successful, models[i])
		} else {
			failed = append(failed, FailedModel{Model: models[i], Reason: o.ErrorKind})
		}
	}

	return StageResult{
		Stage:            stage,
		Outputs:          outputs,
		SuccessfulModels: successful,
		FailedModels:     failed,
		StartedAt:        started,
		FinishedAt:       time.Now(),
	}
}

func toModelOutput(model types.ModelID, e providers.Envelope) ModelOutput {
	if e.OK() {
		return ModelOutput{Model: model, Text: e.GeneratedText, OK: true}
	}
	return ModelOutput{
		Model:     model,
		Text:      fmt.Sprintf("Error: %s", e.Err.Message),
		OK:        false,
		ErrorKind: e.Err.Code.Kind(),
	}
}
