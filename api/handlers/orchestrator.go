package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ultrai-project/ultrai-core/llm/circuitbreaker"
	"github.com/ultrai-project/ultrai-core/llm/health"
	"github.com/ultrai-project/ultrai-core/orchestrator"
	"github.com/ultrai-project/ultrai-core/types"
)

// OrchestratorHandler serves the three-stage synthesis pipeline's HTTP
// surface: POST /api/orchestrator/analyze, POST
// /api/orchestrator/analyze/stream, GET /api/orchestrator/status, and GET
// /api/available-models.
type OrchestratorHandler struct {
	pipeline *orchestrator.Pipeline
	health   *health.Manager
	breakers *circuitbreaker.Manager
	logger   *zap.Logger
}

// NewOrchestratorHandler builds a handler around an already-wired Pipeline.
// breakers may be nil; the available-models endpoint then omits
// circuit_state.
func NewOrchestratorHandler(p *orchestrator.Pipeline, hm *health.Manager, breakers *circuitbreaker.Manager, logger *zap.Logger) *OrchestratorHandler {
	return &OrchestratorHandler{pipeline: p, health: hm, breakers: breakers, logger: logger}
}

// analyzeRequest is the wire shape of orchestrator.Request.
type analyzeRequest struct {
	Query                   string   `json:"query"`
	Models                  []string `json:"models"`
	IncludeInitialResponses bool     `json:"include_initial_responses,omitempty"`
	IncludePeerReview       *bool    `json:"include_peer_review,omitempty"`
	LeadModel               string   `json:"lead_model,omitempty"`
	TimeoutSeconds          int      `json:"timeout_seconds,omitempty"`
}

func (req analyzeRequest) toRequest() orchestrator.Request {
	models := make([]types.ModelID, len(req.Models))
	for i, m := range req.Models {
		models[i] = types.NewModelID(m)
	}
	includePeerReview := true
	if req.IncludePeerReview != nil {
		includePeerReview = *req.IncludePeerReview
	}
	opts := orchestrator.Options{
		IncludeInitialResponses: req.IncludeInitialResponses,
		IncludePeerReview:       includePeerReview,
	}
	if req.LeadModel != "" {
		lead := types.NewModelID(req.LeadModel)
		opts.LeadModel = &lead
	}
	if req.TimeoutSeconds > 0 {
		opts.GlobalDeadline = time.Duration(req.TimeoutSeconds) * time.Second
	}
	return orchestrator.Request{Query: req.Query, RequestedModels: models, Options: opts}
}

func (req analyzeRequest) validate() *types.Error {
	if req.Query == "" {
		return types.NewError(types.ErrInvalidRequest, "query is required")
	}
	if len(req.Models) == 0 {
		return types.NewError(types.ErrInvalidRequest, "models cannot be empty")
	}
	return nil
}

// analyzeResponse is the wire shape of orchestrator.Artifact.
type analyzeResponse struct {
	Query              string                    `json:"query"`
	Stages             map[string]stageResponse  `json:"stages"`
	UltraSynthesis     string                    `json:"ultra_synthesis"`
	FormattedSynthesis string                    `json:"formatted_synthesis"`
	LeadModel          string                    `json:"lead_model,omitempty"`
	Partial            bool                      `json:"partial"`
	Info               orchestrator.PipelineInfo `json:"info"`
}

type stageResponse struct {
	Outputs          map[string]string `json:"outputs"`
	SuccessfulModels []string          `json:"successful_models"`
	FailedModels     []string          `json:"failed_models"`
	Skipped          bool              `json:"skipped,omitempty"`
}

func convertArtifact(a orchestrator.Artifact) analyzeResponse {
	stages := make(map[string]stageResponse, len(a.Stages))
	for _, s := range a.Stages {
		stages[string(s.Stage)] = stageResponse{
			Outputs:          s.OutputsMap(),
			SuccessfulModels: modelStrings(s.SuccessfulModels),
			FailedModels:     failedModelStrings(s.FailedModels),
			Skipped:          s.Skipped,
		}
	}
	lead := ""
	if a.HasLead {
		lead = a.LeadModel.String()
	}
	return analyzeResponse{
		Query:              a.Query,
		Stages:             stages,
		UltraSynthesis:     a.UltraSynthesis,
		FormattedSynthesis: a.FormattedSynthesis,
		LeadModel:          lead,
		Partial:            a.Partial,
		Info:               a.Info,
	}
}

func modelStrings(models []types.ModelID) []string {
	out := make([]string, len(models))
	for i, m := range models {
		out[i] = m.String()
	}
	return out
}

func failedModelStrings(failed []orchestrator.FailedModel) []string {
	out := make([]string, len(failed))
	for i, f := range failed {
		out[i] = f.Model.String()
	}
	return out
}

// HandleAnalyze runs the pipeline synchronously and returns the completed
// artifact as JSON.
func (h *OrchestratorHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}
	var req analyzeRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if err := req.validate(); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	artifact, err := h.pipeline.Execute(r.Context(), req.toRequest())
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, convertArtifact(artifact))
}

// HandleAnalyzeStream runs the pipeline and streams Events as SSE frames,
// flushing after each event so a client sees progress incrementally.
func (h *OrchestratorHandler) HandleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}
	var req analyzeRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if err := req.validate(); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		err := types.NewError(types.ErrInternalError, "streaming not supported")
		WriteError(w, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events := h.pipeline.ExecuteStream(r.Context(), req.toRequest())
	for ev := range events {
		w.Write([]byte("event: "))
		w.Write([]byte(ev.Type))
		w.Write([]byte("\ndata: "))
		if err := writeSSEData(w, ev); err != nil {
			h.logger.Error("failed to write SSE frame", zap.Error(err))
			return
		}
		w.Write([]byte("\n\n"))
		flusher.Flush()

		select {
		case <-r.Context().Done():
			return
		default:
		}
	}
}

func writeSSEData(w http.ResponseWriter, ev orchestrator.Event) error {
	enc := json.NewEncoder(w)
	return enc.Encode(ev)
}

// statusResponse is the wire shape of /api/orchestrator/status (§6.1).
type statusResponse struct {
	AvailableProviders []string `json:"available_providers"`
	HealthyModels      []string `json:"healthy_models"`
	MinRequired        int      `json:"min_required"`
	CanAcceptRequests  bool     `json:"can_accept_requests"`
}

// HandleStatus reports the process-wide health snapshot.
func (h *OrchestratorHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	providers := h.health.AvailableProviders()
	names := make([]string, len(providers))
	models := make([]types.ModelID, len(providers))
	for i, p := range providers {
		names[i] = string(p)
		models[i] = types.ModelID{Provider: p}
	}
	WriteSuccess(w, statusResponse{
		AvailableProviders: names,
		HealthyModels:      names,
		MinRequired:        h.health.MinModels(),
		CanAcceptRequests:  h.health.Viable(models),
	})
}

// availableModel is one entry of /api/available-models.
type availableModel struct {
	Name         string `json:"name"`
	Provider     string `json:"provider"`
	Healthy      bool   `json:"healthy"`
	CircuitState string `json:"circuit_state,omitempty"`
}

// HandleAvailableModels lists one entry per provider the health manager
// knows, with Name set to the provider name, and its current health;
// individual model names are not listed. ?healthy_only=true drops the
// providers that are not healthy.
func (h *OrchestratorHandler) HandleAvailableModels(w http.ResponseWriter, r *http.Request) {
	healthyOnly := r.URL.Query().Get("healthy_only") == "true"
	snapshot := h.health.Snapshot()

	models := make([]availableModel, 0, len(snapshot))
	for provider, record := range snapshot {
		healthy := record.Status == health.StatusHealthy
		if healthyOnly && !healthy {
			continue
		}
		m := availableModel{
			Name:     string(provider),
			Provider: string(provider),
			Healthy:  healthy,
		}
		if h.breakers != nil {
			m.CircuitState = h.breakers.For(string(provider)).State().String()
		}
		models = append(models, m)
	}
	WriteSuccess(w, models)
}
