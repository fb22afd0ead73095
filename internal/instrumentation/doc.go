// Package instrumentation records request-execution metrics with OpenTelemetry
// and exposes them through a Prometheus scrape endpoint.
//
// A zero Metrics value is a valid no-op recorder, so components can always be
// handed one regardless of whether metrics are enabled.
package instrumentation
