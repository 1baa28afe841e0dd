// Copyright 2026 UltrAI Authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be
// found in the LICENSE file.

/*
Package handlers implements the UltrAI HTTP API's request handlers.

# Overview

handlers implements every UltrAI HTTP endpoint: the synthesis pipeline
(sync and SSE), provider status, and health checks, plus the shared
response/error plumbing every handler is built on. Every Handler follows
the standard net/http interface, documented via Swagger annotations on
cmd/ultrai/main.go.

# Core types

  - OrchestratorHandler — runs the pipeline, synchronously or over SSE
  - HealthHandler        — service health checks (/health, /healthz, /ready)
  - Response             — the unified JSON envelope (success/data/error/timestamp)
  - ErrorInfo            — structured error detail (code, message, retryable)
  - ResponseWriter       — wraps http.ResponseWriter to capture the status code
  - HealthCheck          — pluggable health check interface

# Capabilities

  - Unified response helpers: WriteSuccess / WriteError / WriteJSON
  - Request validation: DecodeJSONBody (1 MB limit, strict mode), ValidateContentType
  - ErrorCode → HTTP status mapping
  - SSE streaming via OrchestratorHandler.HandleStream
  - Pluggable health checks via HealthHandler.RegisterCheck
*/
package handlers
