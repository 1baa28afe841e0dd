// Package telemetry wraps OpenTelemetry SDK initialization, giving this
// module a centralized TracerProvider and MeterProvider configuration.
// When telemetry is disabled it falls back to the noop implementation
// and never connects to an external collector.
package telemetry
