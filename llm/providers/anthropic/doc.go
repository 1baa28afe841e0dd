// Copyright 2026 UltrAI Authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be
// found in the LICENSE file.

// Package anthropic adapts the Anthropic Messages API (POST
// /v1/messages) to the orchestrator's normalized Adapter contract.
package anthropic
