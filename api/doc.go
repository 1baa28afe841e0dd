// Package api documents the UltrAI HTTP surface.
//
// # API Overview
//
// UltrAI exposes one core endpoint, the three-stage synthesis pipeline,
// plus health and observability endpoints:
//   - POST /api/orchestrator/analyze           run the pipeline synchronously
//   - POST /api/orchestrator/analyze/stream    run the pipeline over SSE
//   - GET  /api/orchestrator/status            provider health snapshot
//   - GET  /api/available-models               per-provider health (?healthy_only=true: healthy only)
//   - GET  /health, /healthz, /ready, /readyz   liveness/readiness
//   - GET  /metrics                             Prometheus exposition
//
// # Base URL
//
// The default base URL for the API is:
//
//	http://localhost:8080
//
// # Generating documentation
//
// Swagger annotations live on cmd/ultrai/main.go and the handlers in
// api/handlers; regenerate with:
//
//	swag init -g cmd/ultrai/main.go -o api --parseDependency --parseInternal
package api
