package orchestrator

import (
	"fmt"
	"strings"

	"github.com/ultrai-project/ultrai-core/types"
)

// labelOutputs renders a stage's outputs as "ModelName: text" blocks, in
// the stage's preserved order, for embedding into a downstream prompt.
func labelOutputs(outputs []ModelOutput) string {
	var sb strings.Builder
	for i, o := range outputs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "%s: %s", o.Model.String(), o.Text)
	}
	return sb.String()
}

// peerReviewPrompt builds the Stage 2 prompt for one model, given Stage
// 1's labeled outputs. The wording is fixed rather than configurable,
// since no test backs tuning it.
func peerReviewPrompt(query string, initialOutputs []ModelOutput) string {
	return fmt.Sprintf(
		"Critically review the following peer responses. Do not assume any claim is factual. "+
			"Revise your own response, adopting corrections where peers are more credible; "+
			"explicitly note disagreements. Original query: %s. Peer responses: %s.",
		query, labelOutputs(initialOutputs),
	)
}

// synthesisPrompt builds the Stage 3 prompt for the lead model, given the
// best available prior-stage outputs (peer review, or Stage 1 if peer
// review was skipped).
func synthesisPrompt(query string, reviewedOutputs []ModelOutput) string {
	return fmt.Sprintf(
		"You are synthesizing responses to the user's original query. Produce a single comprehensive "+
			"answer integrating the strongest points across all responses, resolving contradictions, "+
			"and preserving nuance. Original query: %s. Reviewed responses: %s.",
		query, labelOutputs(reviewedOutputs),
	)
}

// extractPrompt implements the authoritative prompt-extraction chain from
// §4.5(a): PipelineRequest.query is authoritative; if empty, fall back to
// the prompt recorded on the initial stage's artifact; otherwise fail with
// internal_prompt_lost. Implementers MUST NOT substitute a placeholder
// like "Unknown prompt" — this function has no such fallback path.
func extractPrompt(request Request, recordedPrompt string) (string, *types.Error) {
	if request.Query != "" {
		return request.Query, nil
	}
	if recordedPrompt != "" {
		return recordedPrompt, nil
	}
	return "", types.NewError(types.ErrInternalPromptLost, "prompt could not be recovered from the request or the initial stage artifact").
		WithHTTPStatus(500).WithRetryable(false)
}
