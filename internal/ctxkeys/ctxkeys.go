package ctxkeys

import "context"

// contextKey is the key type used for values stored in context.
type contextKey string

const (
	traceIDKey             contextKey = "trace_id"
	runIDKey               contextKey = "run_id"
	promptBundleVersionKey contextKey = "prompt_bundle_version"
	llmModelKey            contextKey = "llm_model"
)

// WithTraceID attaches a trace ID to ctx.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceID reads the trace ID from ctx, if present.
func TraceID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(traceIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// WithRunID attaches a run ID to ctx.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunID reads the run ID from ctx, if present.
func RunID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(runIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// WithPromptBundleVersion attaches a prompt-bundle version to ctx.
func WithPromptBundleVersion(ctx context.Context, version string) context.Context {
	return context.WithValue(ctx, promptBundleVersionKey, version)
}

// PromptBundleVersion reads the prompt-bundle version from ctx, if present.
func PromptBundleVersion(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(promptBundleVersionKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// WithLLMModel attaches a model override to ctx.
func WithLLMModel(ctx context.Context, model string) context.Context {
	return context.WithValue(ctx, llmModelKey, model)
}

// LLMModel reads the model override from ctx, if present.
func LLMModel(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(llmModelKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
