package routing

import (
	"slices"

	"github.com/vyrodovalexey/avaroute/internal/pattern"
	"github.com/vyrodovalexey/avaroute/internal/queue"
)

// Kind discriminates the registration variants.
type Kind int

// Registration kinds.
const (
	KindRoute Kind = iota
	KindProxy
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindRoute:
		return "route"
	case KindProxy:
		return "proxy"
	default:
		return "unknown"
	}
}

// Completion is handed to a route handler. Calling it ends the
// resolution; only the first call counts.
type Completion func()

// Next is handed to a proxy handler. next("", nil) passes the URL on to
// the rest of the chain. A non-empty path re-targets the resolution to
// the route matching that path, a non-nil params map overrides
// parameters of the final route. Either override stops the chain.
// Only the first call counts.
type Next func(path string, params Parameters)

// RouteHandler is a terminal handler. It receives a private copy of the
// merged parameters and must eventually call done.
type RouteHandler func(params Parameters, done Completion)

// ProxyHandler intercepts every URL matching its pattern before the
// route runs. It receives the original path and a private copy of the
// query parameters overlaid with its own captures, and must eventually
// call next.
type ProxyHandler func(path string, params Parameters, next Next)

// Executor is an execution context for handlers.
type Executor = queue.Executor

// SerialExecutor runs handlers one at a time in submission order.
type SerialExecutor = queue.SerialQueue

// NewSerialExecutor creates a serial executor. The caller owns it and
// should close it once the routers using it are closed.
func NewSerialExecutor(name string) *SerialExecutor {
	return queue.NewSerialQueue(name)
}

// Stock executors.
var (
	// Inline runs handlers on the routing goroutine. An inline handler
	// must not block on another resolution of the same router.
	Inline Executor = queue.InlineExecutor{}

	// Goroutine runs every handler invocation on its own goroutine.
	Goroutine Executor = queue.GoroutineExecutor{}
)

// Registration is one entry of the route table. It is immutable once
// created.
type Registration struct {
	kind     Kind
	seq      uint64
	matcher  *pattern.Matcher
	tags     tagSet
	tagList  []string
	executor Executor
	route    RouteHandler
	proxy    ProxyHandler
}

// Kind returns the registration variant.
func (r *Registration) Kind() Kind {
	return r.kind
}

// Pattern returns the registered pattern.
func (r *Registration) Pattern() string {
	return r.matcher.Pattern()
}

// Tags returns the sorted tag set.
func (r *Registration) Tags() []string {
	return slices.Clone(r.tagList)
}

// Seq returns the insertion sequence number. Later registrations have
// larger numbers.
func (r *Registration) Seq() uint64 {
	return r.seq
}

// RegisterOption customizes a single Map or Proxy call.
type RegisterOption func(*registerOptions)

type registerOptions struct {
	tags     []string
	executor Executor
}

// Tags adds tags to the registration.
func Tags(tags ...string) RegisterOption {
	return func(o *registerOptions) {
		o.tags = append(o.tags, tags...)
	}
}

// On runs the handler on exec instead of the router default.
func On(exec Executor) RegisterOption {
	return func(o *registerOptions) {
		if exec != nil {
			o.executor = exec
		}
	}
}

// tagSet is a set of tags.
type tagSet map[string]struct{}

func newTagSet(tags []string) tagSet {
	set := make(tagSet, len(tags))
	for _, tag := range tags {
		set[tag] = struct{}{}
	}
	return set
}

// sorted returns the members in ascending order.
func (s tagSet) sorted() []string {
	out := make([]string, 0, len(s))
	for tag := range s {
		out = append(out, tag)
	}
	slices.Sort(out)
	return out
}

// intersects reports whether s and other share a tag.
func (s tagSet) intersects(other tagSet) bool {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	for tag := range small {
		if _, ok := large[tag]; ok {
			return true
		}
	}
	return false
}
