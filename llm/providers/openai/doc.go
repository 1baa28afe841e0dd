// Copyright 2026 UltrAI Authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be
// found in the LICENSE file.

// Package openai adapts OpenAI's chat completions API (POST
// /v1/chat/completions) to the orchestrator's normalized Adapter contract.
package openai
