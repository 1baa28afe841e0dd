// Package orchestrator implements the Stage Executor (SE) and Pipeline
// Orchestrator (PO): the three-stage synthesis pipeline (fan-out → peer
// review → ultra synthesis) that drives every UltrAI query.
package orchestrator

import (
	"time"

	"github.com/ultrai-project/ultrai-core/types"
)

// Stage names one of the three pipeline stages.
type Stage string

const (
	StageInitial   Stage = "initial_response"
	StagePeerReview Stage = "peer_review"
	StageSynthesis Stage = "ultra_synthesis"
)

// Options are the per-request tunables from PipelineRequest.options.
type Options struct {
	IncludeInitialResponses bool
	IncludePeerReview       bool
	Stream                  bool
	PerStageTimeout         time.Duration
	GlobalDeadline          time.Duration
	LeadModel               *types.ModelID
}

// Request is one PipelineRequest: the query, the caller's requested model
// set (order preserved), and options.
type Request struct {
	Query           string
	RequestedModels []types.ModelID
	Options         Options
}

// FailedModel records one model's failure reason within a stage.
type FailedModel struct {
	Model  types.ModelID
	Reason string
}

// ModelOutput is one model's result within a stage. Text always carries
// the on-wire string contract: generated text on success, or
// "Error: <message>" on failure, so downstream stages can always treat
// outputs as plain strings.
type ModelOutput struct {
	Model     types.ModelID
	Text      string
	OK        bool
	ErrorKind string
}

// StageResult is the outcome of running one stage. Outputs preserves the
// insertion order of the models the stage was given (Testable Property 1).
type StageResult struct {
	Stage            Stage
	Outputs          []ModelOutput
	SuccessfulModels []types.ModelID
	FailedModels     []FailedModel
	StartedAt        time.Time
	FinishedAt       time.Time
	Skipped          bool
}

// OutputsMap reconstructs the ModelId→text view some HTTP responses need.
// The result is a Go map, so Outputs' order is not kept; when a model name
// repeats, the last output wins.
func (r StageResult) OutputsMap() map[string]string {
	out := make(map[string]string, len(r.Outputs))
	for _, o := range r.Outputs {
		out[o.Model.String()] = o.Text
	}
	return out
}

// Artifact is the final PipelineArtifact returned to the caller.
type Artifact struct {
	Query               string
	Stages              []StageResult
	UltraSynthesis      string
	FormattedSynthesis  string
	LeadModel           types.ModelID
	HasLead             bool
	Partial             bool
	Info                PipelineInfo
}

// PipelineInfo is the observability summary attached to an Artifact.
type PipelineInfo struct {
	StagesCompleted []Stage
	ModelsUsed      []types.ModelID
	MinRequired     int
	ProvidersSeen   []types.Provider
}

// StageByName returns the first StageResult matching name, if any. Useful
// for the prompt-extraction fallback chain in §4.5(a).
func (a Artifact) StageByName(s Stage) (StageResult, bool) {
	for _, sr := range a.Stages {
		if sr.Stage == s {
			return sr, true
		}
	}
	return StageResult{}, false
}
