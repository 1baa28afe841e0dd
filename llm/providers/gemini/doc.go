// Copyright 2026 UltrAI Authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be
// found in the LICENSE file.

// Package gemini adapts Google's Gemini generateContent API (POST
// /v1beta/models/{model}:generateContent) to the orchestrator's normalized
// Adapter contract.
package gemini
