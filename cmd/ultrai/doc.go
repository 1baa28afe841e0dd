// Copyright 2026 UltrAI Authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be
// found in the LICENSE file.

/*
Package main provides UltrAI's server entry point.

# Overview

cmd/ultrai is the executable entry point: it loads configuration, wires
the provider adapters and the three-stage pipeline, and serves the HTTP
API on one port and Prometheus metrics on another.

# Core types

  - Server — owns both listeners and the pipeline's dependency graph
  - Middleware — HTTP middleware func(http.Handler) http.Handler
  - responseWriter — wraps http.ResponseWriter to capture the status code

# Subcommands

serve (start the server), version, health, help.
*/
package main
