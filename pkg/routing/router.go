package routing

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"

	"github.com/vyrodovalexey/avaroute/internal/observability"
	"github.com/vyrodovalexey/avaroute/internal/pattern"
	"github.com/vyrodovalexey/avaroute/internal/queue"
	"github.com/vyrodovalexey/avaroute/internal/util"
)

// DefaultName is the router name used when none is configured.
const DefaultName = "main"

// Router matches URLs against registered patterns and dispatches them
// through proxies to routes. It is safe for concurrent use.
type Router struct {
	name            string
	logger          observability.Logger
	metrics         *observability.RouterMetrics
	tracer          trace.Tracer
	cacheSize       int
	defaultExecutor Executor
	errorHandler    ErrorHandler
	handlerTimeout  atomic.Duration

	cache     *pattern.Cache
	table     *table
	routing   *queue.SerialQueue
	mainQueue *queue.SerialQueue
	seq       atomic.Uint64
	closed    atomic.Bool
}

// New creates a router.
func New(opts ...Option) *Router {
	r := &Router{
		name:   DefaultName,
		logger: observability.NopLogger(),
		tracer: otel.GetTracerProvider().Tracer(observability.DefaultTracerName),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.metrics == nil {
		r.metrics = observability.NewRouterMetrics(observability.DefaultNamespace)
	}
	r.logger = r.logger.Named("routing").With(observability.String("router", r.name))
	r.cache = pattern.NewCache(r.cacheSize, r.metrics)
	r.table = newTable()
	r.routing = queue.NewSerialQueue(r.name+".routing",
		queue.WithSerialLogger(r.logger),
		queue.WithDepthHook(r.metrics.SetQueueDepth),
		queue.WithPanicHandler(r.routingPanicked),
	)
	if r.defaultExecutor == nil {
		r.mainQueue = queue.NewSerialQueue(r.name, queue.WithSerialLogger(r.logger))
		r.defaultExecutor = r.mainQueue
	}

	return r
}

// Name returns the router name.
func (r *Router) Name() string {
	return r.name
}

// Metrics returns the router's metrics.
func (r *Router) Metrics() *observability.RouterMetrics {
	return r.metrics
}

// Map registers a route. The registration is visible to every Open that
// starts after Map returns.
func (r *Router) Map(pattern string, handler RouteHandler, opts ...RegisterOption) error {
	if handler == nil {
		return fmt.Errorf("map %q: %w", pattern, util.ErrNilHandler)
	}
	return r.register(KindRoute, pattern, handler, nil, nil, opts)
}

// Proxy registers a proxy.
func (r *Router) Proxy(pattern string, handler ProxyHandler, opts ...RegisterOption) error {
	if handler == nil {
		return fmt.Errorf("proxy %q: %w", pattern, util.ErrNilHandler)
	}
	return r.register(KindProxy, pattern, nil, handler, nil, opts)
}

// Open decomposes raw, finds its route and schedules the resolution. It
// returns false when raw is malformed, nothing matches or the router is
// closed. The handlers run later; Open never waits for them.
func (r *Router) Open(raw string) bool {
	return r.open(raw, r.table)
}

// OpenURL is Open for a parsed URL.
func (r *Router) OpenURL(u *url.URL) bool {
	if u == nil {
		r.metrics.RecordOpen(observability.OpenMalformed)
		return false
	}
	return r.Open(u.String())
}

// WithTags returns a view restricted to registrations carrying at least
// one of tags.
func (r *Router) WithTags(tags ...string) *View {
	return newView(r, nil, tags)
}

// Registrations returns the registrations in table order.
func (r *Router) Registrations() []*Registration {
	return slices.Clone(r.table.snapshot())
}

// Len returns the number of registrations.
func (r *Router) Len() int {
	return r.table.Len()
}

// HandlerTimeout returns the current handler timeout.
func (r *Router) HandlerTimeout() time.Duration {
	return r.handlerTimeout.Load()
}

// SetHandlerTimeout changes the handler timeout for resolutions that
// start afterwards. Zero waits forever.
func (r *Router) SetHandlerTimeout(timeout time.Duration) {
	if timeout < 0 {
		timeout = 0
	}
	r.handlerTimeout.Store(timeout)
	r.logger.Info("handler timeout updated", observability.Duration("timeout", timeout))
}

// Drain blocks until every resolution accepted before the call has
// finished or ctx is done.
func (r *Router) Drain(ctx context.Context) error {
	return r.routing.Drain(ctx)
}

// Close stops accepting URLs and registrations, waits for accepted
// resolutions and stops the router's own queues.
func (r *Router) Close(ctx context.Context) error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}

	if err := r.routing.Close(ctx); err != nil {
		return fmt.Errorf("closing routing queue: %w", err)
	}
	if r.mainQueue != nil {
		if err := r.mainQueue.Close(ctx); err != nil {
			return fmt.Errorf("closing main executor: %w", err)
		}
	}
	r.table.close()

	r.logger.Debug("router closed")
	return nil
}

func (r *Router) register(
	kind Kind,
	raw string,
	route RouteHandler,
	proxy ProxyHandler,
	viewTags []string,
	opts []RegisterOption,
) error {
	if r.closed.Load() {
		return util.ErrRouterClosed
	}

	matcher, err := r.cache.Compile(raw)
	if err != nil {
		return err
	}

	o := registerOptions{executor: r.defaultExecutor}
	for _, opt := range opts {
		opt(&o)
	}

	tags := newTagSet(append(slices.Clone(viewTags), o.tags...))
	reg := &Registration{
		kind:     kind,
		seq:      r.seq.Inc(),
		matcher:  matcher,
		tags:     tags,
		tagList:  tags.sorted(),
		executor: o.executor,
		route:    route,
		proxy:    proxy,
	}

	if !r.table.register(reg) {
		return util.ErrRouterClosed
	}

	r.metrics.AddRegistration(kind.String())
	r.logger.Debug("registered",
		observability.String("kind", kind.String()),
		observability.String("pattern", raw),
		observability.Strings("identifiers", matcher.Identifiers()),
		observability.Bool("wildcard", pattern.HasWildcard(raw)),
		observability.Strings("tags", reg.tagList),
	)
	return nil
}

// open matches raw against src and enqueues its resolution.
func (r *Router) open(raw string, src source) bool {
	if r.closed.Load() {
		r.metrics.RecordOpen(observability.OpenClosed)
		return false
	}

	path, query, err := Decompose(raw)
	if err != nil {
		r.metrics.RecordOpen(observability.OpenMalformed)
		r.logger.Debug("malformed url", observability.String("url", raw), observability.Error(err))
		return false
	}

	entries := src.snapshot()
	route := firstRoute(entries, path)
	if route == nil {
		r.metrics.RecordOpen(observability.OpenNoMatch)
		r.logger.Debug("url not opened",
			observability.String("path", path),
			observability.Error(util.ErrNoMatch),
		)
		return false
	}

	res := &resolution{
		id:       uuid.NewString(),
		path:     path,
		query:    query,
		entries:  entries,
		route:    route,
		proxies:  matchingProxies(entries, path),
		accepted: time.Now(),
	}

	if !r.routing.Async(func() { r.resolve(res) }) {
		r.metrics.RecordOpen(observability.OpenClosed)
		return false
	}

	r.metrics.RecordOpen(observability.OpenMatched)
	return true
}

// reportError logs err and hands it to the error hook.
func (r *Router) reportError(logger observability.Logger, err error) {
	msg := "routing failed"
	if util.IsCallerContractViolation(err) {
		msg = "handler failed"
	}
	logger.Error(msg, observability.Error(err))
	if r.errorHandler != nil {
		r.errorHandler(err)
	}
}

// routingPanicked reports a panic that escaped a resolution. The
// resolution is lost and the routing queue moves on to the next one.
func (r *Router) routingPanicked(queueName string, value any, _ []byte) {
	r.reportError(r.logger, fmt.Errorf("%w: %s: %v", util.ErrRoutingPanic, queueName, value))
}
