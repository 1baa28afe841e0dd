// Copyright 2026 UltrAI Authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be
// found in the LICENSE file.

/*
Package metrics provides Prometheus instrumentation for the HTTP surface
and the synthesis pipeline.

# Overview

Collector registers its vectors via promauto at construction, so callers
never manage a *prometheus.Registry directly. Metrics are grouped by
domain: HTTP request volume/latency, per-stage provider call outcomes,
end-to-end pipeline duration, retry counts, and circuit-breaker state.

# Core types

  - Collector — holds the Counter/Histogram/Gauge vectors, grouped by
    domain, and the recording methods every middleware and pipeline
    stage calls.

# Capabilities

  - HTTP metrics: request count and duration, labeled by method/path/status.
  - Stage metrics: per-stage, per-provider call outcome counts.
  - Pipeline metrics: end-to-end request duration by outcome.
  - Retry metrics: retry attempts by provider.
  - Circuit-breaker metrics: current breaker state gauge by provider.
*/
package metrics
