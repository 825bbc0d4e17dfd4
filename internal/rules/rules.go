package rules

import (
	"fmt"
	"sort"

	"github.com/google/cel-go/cel"

	"github.com/vyrodovalexey/avaroute/internal/config"
	"github.com/vyrodovalexey/avaroute/internal/observability"
	"github.com/vyrodovalexey/avaroute/internal/pattern"
	"github.com/vyrodovalexey/avaroute/pkg/routing"
)

// Registrar is the registration surface shared by routing.Router and
// routing.View.
type Registrar interface {
	Map(pattern string, handler routing.RouteHandler, opts ...routing.RegisterOption) error
	Proxy(pattern string, handler routing.ProxyHandler, opts ...routing.RegisterOption) error
}

// Resolution is what a configured route received.
type Resolution struct {
	Route  string
	Params routing.Parameters
}

// Sink receives every resolution of a configured route.
type Sink func(Resolution)

// Option configures Apply.
type Option func(*applier)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(a *applier) {
		a.logger = logger
	}
}

// WithSink sets the resolution sink.
func WithSink(sink Sink) Option {
	return func(a *applier) {
		a.sink = sink
	}
}

type applier struct {
	logger observability.Logger
	sink   Sink
	env    *cel.Env
}

// Apply registers the rules and routes of cfg in declaration order, so
// among overlapping routes the last declared wins. It stops at the first
// registration error.
func Apply(reg Registrar, cfg *config.Config, opts ...Option) error {
	a := &applier{logger: observability.NopLogger()}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.Named("rules")

	env, err := NewEnvironment()
	if err != nil {
		return fmt.Errorf("failed to create CEL environment: %w", err)
	}
	a.env = env

	for i := range cfg.Rules {
		if err := a.applyRule(reg, &cfg.Rules[i]); err != nil {
			return err
		}
	}
	for i := range cfg.Routes {
		if err := a.applyRoute(reg, &cfg.Routes[i]); err != nil {
			return err
		}
	}

	a.logger.Info("rules applied",
		observability.Int("rules", len(cfg.Rules)),
		observability.Int("routes", len(cfg.Routes)),
	)
	return nil
}

func (a *applier) applyRoute(reg Registrar, route *config.RouteConfig) error {
	handler := NewLogRoute(route.Name, a.logger, a.sink)
	if err := reg.Map(route.Pattern, handler, routing.Tags(route.Tags...)); err != nil {
		return fmt.Errorf("route %s: %w", route.Name, err)
	}
	return nil
}

func (a *applier) applyRule(reg Registrar, rule *config.RuleConfig) error {
	redirect, err := NewRedirect(a.env, rule, a.logger)
	if err != nil {
		return fmt.Errorf("rule %s: %w", rule.Name, err)
	}
	if err := reg.Proxy(rule.Pattern, redirect.Handle, routing.Tags(rule.Tags...)); err != nil {
		return fmt.Errorf("rule %s: %w", rule.Name, err)
	}
	return nil
}

// NewLogRoute returns a route handler that logs its parameters, passes
// them to sink when set, and completes.
func NewLogRoute(name string, logger observability.Logger, sink Sink) routing.RouteHandler {
	return func(params routing.Parameters, done routing.Completion) {
		defer done()

		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		logger.Info("route resolved",
			observability.String("route", name),
			observability.Strings("param_keys", keys),
			observability.Any("params", map[string]string(params)),
		)

		if sink != nil {
			sink(Resolution{Route: name, Params: params})
		}
	}
}

// Redirect is a proxy built from a rule.
type Redirect struct {
	name       string
	target     string
	parameters map[string]string
	condition  *Condition
	logger     observability.Logger
}

// NewRedirect compiles rule into a redirect proxy.
func NewRedirect(env *cel.Env, rule *config.RuleConfig, logger observability.Logger) (*Redirect, error) {
	r := &Redirect{
		name:       rule.Name,
		target:     rule.Redirect,
		parameters: rule.Parameters,
		logger:     logger,
	}

	if rule.When != "" {
		condition, err := CompileCondition(env, rule.When)
		if err != nil {
			return nil, err
		}
		r.condition = condition
	}

	return r, nil
}

// Handle is the proxy handler. When the condition holds it re-targets
// the resolution to the expanded redirect template and overrides the
// configured parameters, whose values are expanded too. Otherwise, or
// when the condition fails to evaluate, it passes through.
func (r *Redirect) Handle(path string, params routing.Parameters, next routing.Next) {
	if r.condition != nil {
		ok, err := r.condition.Eval(path, params)
		if err != nil {
			r.logger.Warn("rule condition failed, passing through",
				observability.String("rule", r.name),
				observability.Error(err),
			)
			next("", nil)
			return
		}
		if !ok {
			next("", nil)
			return
		}
	}

	target := ""
	if r.target != "" {
		target = pattern.Expand(r.target, params)
	}

	var overrides routing.Parameters
	if len(r.parameters) > 0 {
		overrides = make(routing.Parameters, len(r.parameters))
		for k, v := range r.parameters {
			overrides[k] = pattern.Expand(v, params)
		}
	}

	r.logger.Debug("rule redirecting",
		observability.String("rule", r.name),
		observability.String("path", path),
		observability.String("target", target),
	)
	next(target, overrides)
}
