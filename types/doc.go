// Copyright 2026 UltrAI Authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be
// found in the LICENSE file.

/*
Package types holds the shared type contracts every other package builds
on: the provider taxonomy, per-adapter tuning defaults, and the
structured error type the whole call chain uses to classify failures.

# Core types

  - Provider / ModelID — the provider enum and a parsed "provider/model" identifier
  - AdapterConfig      — per-provider timeout, retry, and circuit-breaker defaults
  - Error / ErrorCode  — structured error with HTTP status, retryable flag, and
    originating provider, propagated unwrapped from an adapter through to the
    HTTP response
*/
package types
