package routing

import (
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/avaroute/internal/observability"
)

// ErrorHandler receives handler timeouts and panics. It usually runs on
// the routing goroutine, but a panic raised after the handler already
// signalled is reported from the handler's executor. It must not block.
type ErrorHandler func(err error)

// Option configures a Router.
type Option func(*Router)

// WithName sets the router name used in logs and queue names.
func WithName(name string) Option {
	return func(r *Router) {
		if name != "" {
			r.name = name
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink. Without it the router creates its
// own under the default namespace.
func WithMetrics(metrics *observability.RouterMetrics) Option {
	return func(r *Router) {
		r.metrics = metrics
	}
}

// WithTracer sets the tracer provider used for resolution spans.
func WithTracer(provider trace.TracerProvider) Option {
	return func(r *Router) {
		if provider != nil {
			r.tracer = provider.Tracer(observability.DefaultTracerName)
		}
	}
}

// WithDefaultExecutor sets the executor used by registrations that do
// not pick one. The router does not close it.
func WithDefaultExecutor(exec Executor) Option {
	return func(r *Router) {
		r.defaultExecutor = exec
	}
}

// WithHandlerTimeout bounds how long a resolution waits for a proxy's
// next or a route's done. Zero waits forever.
func WithHandlerTimeout(timeout time.Duration) Option {
	return func(r *Router) {
		r.handlerTimeout.Store(timeout)
	}
}

// WithErrorHandler sets the handler timeout and panic hook.
func WithErrorHandler(h ErrorHandler) Option {
	return func(r *Router) {
		r.errorHandler = h
	}
}

// WithPatternCacheSize bounds the compiled pattern cache.
func WithPatternCacheSize(size int) Option {
	return func(r *Router) {
		r.cacheSize = size
	}
}
