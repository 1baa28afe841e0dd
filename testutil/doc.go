// Copyright 2026 UltrAI Authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be
// found in the LICENSE file.

// Package testutil holds test doubles shared across this module's test
// suites.
//
// testutil/mocks provides MockAdapter, a builder-configured
// providers.Adapter test double (WithResponse, WithError, WithDelay,
// WithFailAfter, WithGenerateFunc) used by the orchestrator and resilience
// package tests to simulate provider behavior without network calls.
package testutil
