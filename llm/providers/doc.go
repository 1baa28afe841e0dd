// Copyright 2026 UltrAI Authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be
// found in the LICENSE file.

/*
Package providers holds one HTTP adapter per upstream LLM provider, plus
the shared Envelope/error-mapping plumbing every adapter is built on.

# Core types

  - Envelope — the normalized result of one completion call
  - Adapter — the interface every provider-specific adapter implements

# Shared helpers

  - SharedHTTPClient — the pooled *http.Client an adapter holds for its lifetime
  - MapHTTPError — maps an HTTP status and body message to the classified error taxonomy
  - ClassifyTransportError — maps a round-trip failure (as opposed to an HTTP error status)
  - MalformedResponse — the non-retryable error for an unparsable provider response
  - ReadErrorMessage / SafeCloseBody — response body helpers

# Provider adapters

openai, anthropic, gemini, and huggingface each implement Adapter against
their respective completion API.
*/
package providers
