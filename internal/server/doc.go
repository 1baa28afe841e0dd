// Copyright 2026 UltrAI Authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be
// found in the LICENSE file.

/*
Package server provides HTTP/HTTPS server lifecycle management, with
non-blocking startup, graceful shutdown, and OS signal handling.

# Overview

Manager wraps net/http.Server, unifying listening, serving, shutdown,
and error propagation into one type. It supports plain HTTP and TLS
startup, and listens for SIGINT/SIGTERM for a production-grade graceful
stop.

# Core types

  - Manager — holds the http.Server, its net.Listener, and an async error
    channel; exposes Start/StartTLS/Shutdown/WaitForShutdown.
  - Config — listen address, read/write/idle timeouts, max header size,
    and shutdown timeout.

# Capabilities

  - Non-blocking startup: Start/StartTLS run the server on a background
    goroutine.
  - Graceful shutdown: Shutdown drains in-flight requests within the
    configured timeout.
  - Signal handling: WaitForShutdown blocks on SIGINT/SIGTERM and
    triggers shutdown automatically.
  - Error propagation: Errors() returns the async error channel for
    callers to monitor.
  - TLS support via StartTLS with a certificate and key file.
  - IsRunning/Addr report current state.
*/
package server
