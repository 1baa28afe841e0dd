// Copyright 2026 UltrAI Authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be
// found in the LICENSE file.

/*
Package config loads UltrAI's process configuration.

# Overview

Configuration merges three layers in order: built-in defaults, an
optional YAML file, then environment variables (ULTRAI_ prefix). There
is no runtime hot-reload: the pipeline is stateless per request, so a
process restart is the supported way to pick up new provider
credentials or tuning.

# Core types

  - Config: the top-level aggregate — Server, Providers, Orchestrator,
    Redis, Log, Telemetry.
  - Loader: builder-style loader with chainable config path, env
    prefix, and validator hooks.

# Example

	cfg, err := config.NewLoader().
		WithConfigPath("config.yaml").
		Load()
*/
package config
