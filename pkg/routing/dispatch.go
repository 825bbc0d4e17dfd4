package routing

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/avaroute/internal/observability"
	"github.com/vyrodovalexey/avaroute/internal/queue"
	"github.com/vyrodovalexey/avaroute/internal/util"
)

// Span names.
const (
	spanResolve = "routing.resolve"
	spanProxy   = "routing.proxy"
	spanRoute   = "routing.route"
)

// resolution is one accepted Open. entries is the table snapshot taken
// when it was accepted; route is the match found then.
type resolution struct {
	id       string
	path     string
	query    Parameters
	entries  []*Registration
	route    *Registration
	proxies  []*Registration
	accepted time.Time
}

// handshakeState is how a handler invocation ended.
type handshakeState int

const (
	handshakeSignalled handshakeState = iota
	handshakeTimedOut
	handshakePanicked
)

// handshake is the one-shot rendezvous between the routing goroutine and
// a handler's next or done callback. Whatever settles it first wins:
// the callback, a panic, or the waiter giving up. The winner ends the
// handler span. returned closes once the handler body has run.
type handshake struct {
	mu         sync.Mutex
	signal     *queue.Signal
	span       trace.Span
	path       string
	params     Parameters
	panicValue any
	panicked   bool
	started    bool
	abandoned  bool
	returned   chan struct{}
}

func newHandshake(span trace.Span) *handshake {
	return &handshake{signal: queue.NewSignal(), span: span, returned: make(chan struct{})}
}

// begin marks the handler body as running. It returns false when the
// handshake was abandoned before the executor got to it.
func (h *handshake) begin() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.abandoned {
		return false
	}
	h.started = true
	return true
}

// end marks the handler body as returned.
func (h *handshake) end() {
	close(h.returned)
}

// awaitReturn blocks until an abandoned handler that had already
// started returns, so no two handler bodies of consecutive resolutions
// overlap.
func (h *handshake) awaitReturn() {
	h.mu.Lock()
	started := h.started
	h.mu.Unlock()
	if started {
		<-h.returned
	}
}

// settle records the callback arguments. It returns false if the
// handshake was already settled.
func (h *handshake) settle(path string, params Parameters) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.signal.Fire() {
		return false
	}
	h.path = path
	h.params = params
	observability.SetSpanOK(h.span)
	h.span.End()
	return true
}

// fail records a handler panic. It returns false if the handshake was
// already settled.
func (h *handshake) fail(err error, value any) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.signal.Fire() {
		return false
	}
	h.panicValue = value
	h.panicked = true
	observability.SetSpanError(h.span, err)
	h.span.End()
	return true
}

// wait blocks until the handshake settles or timeout elapses. On timeout
// the handshake is settled as abandoned so late callbacks are ignored.
func (h *handshake) wait(timeout time.Duration) handshakeState {
	if !h.signal.WaitTimeout(timeout) {
		h.mu.Lock()
		abandoned := h.signal.Fire()
		if abandoned {
			h.abandoned = true
			h.span.SetAttributes(attribute.Bool("routing.timed_out", true))
			h.span.End()
		}
		h.mu.Unlock()
		if abandoned {
			return handshakeTimedOut
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.panicked {
		return handshakePanicked
	}
	return handshakeSignalled
}

// resolve runs one resolution on the routing goroutine.
func (r *Router) resolve(res *resolution) {
	ctx := util.ContextWithDispatchID(context.Background(), res.id)
	ctx = util.ContextWithPath(ctx, res.path)
	ctx = util.ContextWithStartTime(ctx, res.accepted)

	ctx, span := r.tracer.Start(ctx, spanResolve,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("routing.router", r.name),
			attribute.String("routing.dispatch_id", res.id),
			attribute.String("routing.path", res.path),
			attribute.Int("routing.proxies", len(res.proxies)),
		),
	)
	defer span.End()

	logger := r.logger.WithContext(ctx)
	logger.Debug("resolution started",
		observability.Int("proxies", len(res.proxies)),
		observability.Duration("queued", util.ElapsedTime(ctx)),
	)

	start := time.Now()
	outcome := r.runResolution(ctx, res, logger)
	duration := time.Since(start)

	r.metrics.RecordResolution(outcome, duration)
	span.SetAttributes(attribute.String("routing.outcome", outcome))
	if outcome == observability.OutcomeCompleted {
		observability.SetSpanOK(span)
	}

	logger.Debug("resolution finished",
		observability.String("outcome", outcome),
		observability.Duration("duration", duration),
	)
}

// runResolution walks the proxy chain, resolves the final route and
// invokes it. It returns the resolution outcome.
func (r *Router) runResolution(ctx context.Context, res *resolution, logger observability.Logger) string {
	timeout := r.handlerTimeout.Load()

	var (
		overridden     bool
		overridePath   string
		overrideParams Parameters
	)
	for _, proxy := range res.proxies {
		captures, _ := proxy.matcher.Params(res.path)
		h := r.invokeProxy(ctx, res, proxy, res.query.Merge(captures))

		switch h.wait(timeout) {
		case handshakeTimedOut:
			r.metrics.RecordProxy(observability.ProxyTimeout)
			r.reportError(logger, util.NewHandlerTimeoutError(
				util.HandlerKindProxy, proxy.Pattern(), res.id, timeout))
			h.awaitReturn()
			return observability.OutcomeTimeout
		case handshakePanicked:
			r.metrics.RecordProxy(observability.ProxyPanic)
			r.reportError(logger, util.NewHandlerPanicError(
				util.HandlerKindProxy, proxy.Pattern(), res.id, h.panicValue))
			return observability.OutcomeAborted
		}

		if h.path == "" && h.params == nil {
			r.metrics.RecordProxy(observability.ProxyPass)
			continue
		}

		r.metrics.RecordProxy(observability.ProxyOverride)
		overridden, overridePath, overrideParams = true, h.path, h.params
		logger.Debug("proxy override",
			observability.String("proxy", proxy.Pattern()),
			observability.String("override_path", overridePath),
			observability.Int("override_params", len(overrideParams)),
		)
		break
	}

	route, path, query := res.route, res.path, res.query
	if overridden && overridePath != "" {
		newPath, newQuery, err := Decompose(overridePath)
		if err != nil {
			logger.Debug("override path malformed, dropping",
				observability.String("override_path", overridePath),
				observability.Error(err),
			)
			return observability.OutcomeDropped
		}

		route = firstRoute(res.entries, newPath)
		if route == nil {
			logger.Debug("override path dropped",
				observability.String("override_path", newPath),
				observability.Error(util.ErrNoMatch),
			)
			return observability.OutcomeDropped
		}
		path, query = newPath, query.Merge(newQuery)
	}

	captures, _ := route.matcher.Params(path)
	params := query.Merge(captures, overrideParams)

	timeout = r.handlerTimeout.Load()
	h := r.invokeRoute(ctx, res, route, params)
	switch h.wait(timeout) {
	case handshakeTimedOut:
		r.reportError(logger, util.NewHandlerTimeoutError(
			util.HandlerKindRoute, route.Pattern(), res.id, timeout))
		h.awaitReturn()
		return observability.OutcomeTimeout
	case handshakePanicked:
		r.reportError(logger, util.NewHandlerPanicError(
			util.HandlerKindRoute, route.Pattern(), res.id, h.panicValue))
	}
	return observability.OutcomeCompleted
}

// invokeProxy schedules proxy on its executor and returns the handshake
// its next settles.
func (r *Router) invokeProxy(
	ctx context.Context,
	res *resolution,
	proxy *Registration,
	params Parameters,
) *handshake {
	ctx = util.ContextWithPattern(ctx, proxy.Pattern())
	logger := r.logger.WithContext(ctx)
	_, span := r.tracer.Start(ctx, spanProxy,
		trace.WithAttributes(attribute.String("routing.pattern", proxy.Pattern())))
	h := newHandshake(span)

	next := func(path string, params Parameters) {
		if !h.settle(path, params) {
			logger.Warn("next called after the proxy was settled")
		}
	}

	proxy.executor.Execute(func() {
		if !h.begin() {
			return
		}
		defer h.end()
		defer r.recoverHandler(h, util.HandlerKindProxy, proxy.Pattern(), res.id, logger)
		proxy.proxy(res.path, params, next)
	})

	return h
}

// invokeRoute schedules route on its executor and returns the handshake
// its completion settles.
func (r *Router) invokeRoute(
	ctx context.Context,
	res *resolution,
	route *Registration,
	params Parameters,
) *handshake {
	ctx = util.ContextWithPattern(ctx, route.Pattern())
	logger := r.logger.WithContext(ctx)
	_, span := r.tracer.Start(ctx, spanRoute,
		trace.WithAttributes(attribute.String("routing.pattern", route.Pattern())))
	h := newHandshake(span)

	done := func() {
		if !h.settle("", nil) {
			logger.Warn("done called after the route was settled")
		}
	}

	route.executor.Execute(func() {
		if !h.begin() {
			return
		}
		defer h.end()
		defer r.recoverHandler(h, util.HandlerKindRoute, route.Pattern(), res.id, logger)
		route.route(params, done)
	})

	return h
}

// recoverHandler turns a handler panic into a HandlerPanicError. A panic
// that settles the handshake is reported by the routing goroutine; one
// raised after the handler already signalled is reported here.
func (r *Router) recoverHandler(
	h *handshake,
	kind util.HandlerKind,
	patternText string,
	dispatchID string,
	logger observability.Logger,
) {
	value := recover()
	if value == nil {
		return
	}

	err := util.NewHandlerPanicError(kind, patternText, dispatchID, value)
	if !h.fail(err, value) {
		r.reportError(logger, err)
	}
}
