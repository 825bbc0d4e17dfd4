// Package observability provides structured logging, Prometheus metrics
// and OpenTelemetry tracing for the router.
//
// Logging is backed by zap with a runtime-adjustable level. Metrics are
// registered on a registry owned by each RouterMetrics instance, so
// several routers can live in one process. Tracing wraps an SDK tracer
// provider that optionally exports over OTLP gRPC.
package observability
