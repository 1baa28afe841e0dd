package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/ultrai-project/ultrai-core/llm/providers"
	"github.com/ultrai-project/ultrai-core/types"
)

// modelNamePool is large enough that gen.SliceOfN can draw distinct names
// without gopter spending many shrink cycles on duplicate-heavy slices.
var modelNamePool = []string{
	"gpt-4", "gpt-3.5", "claude-3", "claude-2", "gemini-pro", "gemini-flash",
	"llama-3", "mixtral", "falcon", "mpt", "phi-2", "qwen",
}

func genModels(maxLen int) gopter.Gen {
	return gen.SliceOfN(maxLen, gen.OneConstOf(
		modelNamePoolAsInterfaces()...,
	)).Map(func(names []interface{}) []types.ModelID {
		out := make([]types.ModelID, len(names))
		for i, n := range names {
			out[i] = types.NewModelID(n.(string))
		}
		return out
	})
}

func modelNamePoolAsInterfaces() []interface{} {
	out := make([]interface{}, len(modelNamePool))
	for i, n := range modelNamePool {
		out[i] = n
	}
	return out
}

// TestRunStage_OutputOrderMatchesModelOrder checks Testable Property 1
// (Outputs' order always equals models' order, regardless of completion
// order) across randomized model slices and randomized per-call delay,
// including duplicate model names within one stage.
func TestRunStage_OutputOrderMatchesModelOrder(t *testing.T) {
	props := gopter.NewProperties(nil)

	props.Property("RunStage preserves model-index identity for every output", prop.ForAll(
		func(models []types.ModelID, seed uint64) bool {
			if len(models) == 0 {
				return true
			}
			rnd := seed
			call := func(ctx context.Context, model types.ModelID, prompt string, deadline time.Time) providers.Envelope {
				// Deterministic pseudo-random delay derived from the seed so
				// completion order is shuffled independently of models' index.
				rnd = rnd*6364136223846793005 + 1442695040888963407
				delay := time.Duration(rnd%5) * time.Millisecond
				time.Sleep(delay)
				return providers.Success("ok:" + model.Name)
			}

			sem := NewSemaphorePool(8)
			result := RunStage(context.Background(), StageInitial, models, call, constPrompt("p"), time.Now().Add(5*time.Second), sem)

			if len(result.Outputs) != len(models) {
				return false
			}
			for i, model := range models {
				if result.Outputs[i].Model != model {
					return false
				}
				if result.Outputs[i].Text != "ok:"+model.Name {
					return false
				}
			}
			return true
		},
		genModels(8),
		gen.UInt64(),
	))

	props.TestingRun(t)
}

// TestRunStage_SuccessFailurePartitionMatchesEnvelopes checks that every
// model index lands in exactly one of Outputs[i].OK true/false, consistent
// with the Envelope the Caller returned for that index, and that
// SuccessfulModels/FailedModels together account for every model exactly
// once, even when a model name repeats within one stage.
func TestRunStage_SuccessFailurePartitionMatchesEnvelopes(t *testing.T) {
	props := gopter.NewProperties(nil)

	props.Property("every index partitions into success xor failure per its envelope", prop.ForAll(
		func(models []types.ModelID, failMask uint64) bool {
			if len(models) == 0 {
				return true
			}
			// Key fail/success on model identity (first occurrence), not
			// position, so duplicate model names within one stage resolve
			// consistently between the Caller and this assertion.
			indexOfModel := make(map[types.ModelID]int, len(models))
			for i, m := range models {
				if _, exists := indexOfModel[m]; !exists {
					indexOfModel[m] = i
				}
			}
			wantOK := func(model types.ModelID) bool {
				return failMask&(1<<uint(indexOfModel[model]%64)) == 0
			}
			call := func(ctx context.Context, model types.ModelID, prompt string, deadline time.Time) providers.Envelope {
				if !wantOK(model) {
					return providers.Failure(types.NewError(types.ErrUpstreamError, "injected failure").WithProvider(string(model.Provider)))
				}
				return providers.Success("ok")
			}

			sem := NewSemaphorePool(8)
			result := RunStage(context.Background(), StageInitial, models, call, constPrompt("p"), time.Now().Add(5*time.Second), sem)

			if len(result.SuccessfulModels)+len(result.FailedModels) != len(models) {
				return false
			}
			for _, out := range result.Outputs {
				if out.OK != wantOK(out.Model) {
					return false
				}
			}
			return true
		},
		genModels(8),
		gen.UInt64(),
	))

	props.TestingRun(t)
}
