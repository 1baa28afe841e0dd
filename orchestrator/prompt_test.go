package orchestrator

import (
	"strings"
	"testing"

	"github.com/ultrai-project/ultrai-core/types"
)

func TestLabelOutputs_FormatsEachModelBlock(t *testing.T) {
	outputs := []ModelOutput{
		{Model: types.NewModelID("gpt-4"), Text: "first answer", OK: true},
		{Model: types.NewModelID("claude-3"), Text: "second answer", OK: true},
	}
	got := labelOutputs(outputs)
	want := "gpt-4: first answer\n\nclaude-3: second answer"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestLabelOutputs_PreservesInputOrder(t *testing.T) {
	outputs := []ModelOutput{
		{Model: types.NewModelID("zeta"), Text: "z", OK: true},
		{Model: types.NewModelID("alpha"), Text: "a", OK: true},
	}
	got := labelOutputs(outputs)
	if strings.Index(got, "zeta") > strings.Index(got, "alpha") {
		t.Fatalf("labelOutputs reordered models: %q", got)
	}
}

func TestLabelOutputs_Empty(t *testing.T) {
	if got := labelOutputs(nil); got != "" {
		t.Fatalf("got %q, want empty string", got)
	}
}

func TestPeerReviewPrompt_ContainsQueryAndLabeledPeers(t *testing.T) {
	outputs := []ModelOutput{{Model: types.NewModelID("gpt-4"), Text: "answer one", OK: true}}
	got := peerReviewPrompt("what is Go?", outputs)

	for _, want := range []string{
		"Critically review the following peer responses",
		"Do not assume any claim is factual",
		"what is Go?",
		"gpt-4: answer one",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("peer review prompt missing %q: %q", want, got)
		}
	}
}

func TestSynthesisPrompt_ContainsQueryAndReviewedOutputs(t *testing.T) {
	outputs := []ModelOutput{{Model: types.NewModelID("claude-3"), Text: "revised answer", OK: true}}
	got := synthesisPrompt("what is Go?", outputs)

	for _, want := range []string{
		"synthesizing responses to the user's original query",
		"resolving contradictions",
		"what is Go?",
		"claude-3: revised answer",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("synthesis prompt missing %q: %q", want, got)
		}
	}
}

func TestExtractPrompt_PrefersRequestQuery(t *testing.T) {
	req := Request{Query: "direct query"}
	got, err := extractPrompt(req, "recorded fallback")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "direct query" {
		t.Fatalf("got %q, want %q", got, "direct query")
	}
}

func TestExtractPrompt_FallsBackToRecordedPrompt(t *testing.T) {
	req := Request{Query: ""}
	got, err := extractPrompt(req, "recorded fallback")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "recorded fallback" {
		t.Fatalf("got %q, want %q", got, "recorded fallback")
	}
}

func TestExtractPrompt_FailsWithoutPlaceholderWhenBothEmpty(t *testing.T) {
	req := Request{Query: ""}
	got, err := extractPrompt(req, "")
	if err == nil {
		t.Fatalf("expected error when query and recorded prompt are both empty")
	}
	if got != "" {
		t.Fatalf("got %q, want empty string on error (no placeholder fallback)", got)
	}
	if err.Code != types.ErrInternalPromptLost {
		t.Fatalf("error code = %v, want %v", err.Code, types.ErrInternalPromptLost)
	}
}
