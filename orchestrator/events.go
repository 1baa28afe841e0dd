package orchestrator

import (
	"sync/atomic"
	"time"
)

// EventType is one of the SSE event kinds in §6.3.
type EventType string

const (
	EventPipelineStart  EventType = "pipeline_start"
	EventStageStart     EventType = "stage_start"
	EventModelResponse  EventType = "model_response"
	EventStageComplete  EventType = "stage_complete"
	EventSynthesisChunk EventType = "synthesis_chunk"
	EventPipelineComplete EventType = "pipeline_complete"
	EventPipelineError  EventType = "pipeline_error"
)

// Event is one SSE frame. Sequence is strictly increasing and begins at 1
// for every stream (Testable Property 9).
type Event struct {
	Type      EventType `json:"event"`
	Sequence  int       `json:"sequence"`
	Timestamp string    `json:"timestamp"`
	Data      any       `json:"data"`
}

// sequencer hands out strictly increasing sequence numbers starting at 1,
// safe for concurrent emitters (model_response events fire concurrently
// across a stage's fan-out).
type sequencer struct {
	n atomic.Int64
}

func (s *sequencer) next() int {
	return int(s.n.Add(1))
}

func newEvent(seq *sequencer, t EventType, data any) Event {
	return Event{
		Type:      t,
		Sequence:  seq.next(),
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Data:      data,
	}
}

type pipelineStartData struct {
	QueryFingerprint string   `json:"query_fingerprint"`
	ModelsRequested  []string `json:"models_requested"`
}

type stageStartData struct {
	Stage Stage `json:"stage"`
}

type modelResponseData struct {
	Stage     Stage  `json:"stage"`
	Model     string `json:"model"`
	OK        bool   `json:"ok"`
	TextLen   int    `json:"text_length,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

type stageCompleteData struct {
	Stage            Stage    `json:"stage"`
	SuccessfulModels []string `json:"successful_models"`
	FailedModels     []string `json:"failed_models"`
}

type synthesisChunkData struct {
	Text string `json:"text"`
}

type pipelineCompleteData struct {
	LeadModel string `json:"lead_model"`
	TotalMs   int64  `json:"total_ms"`
}

type pipelineErrorData struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Stage   string `json:"stage,omitempty"`
}
