package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/vyrodovalexey/avaroute/internal/config"
	"github.com/vyrodovalexey/avaroute/internal/observability"
	"github.com/vyrodovalexey/avaroute/internal/rules"
	"github.com/vyrodovalexey/avaroute/pkg/routing"
)

// application holds all application components.
type application struct {
	config        *config.Config
	logger        observability.Logger
	metrics       *observability.RouterMetrics
	tracer        *observability.Tracer
	router        *routing.Router
	out           *lockedWriter
	metricsServer *http.Server
	metricsAddr   string
}

// loadConfig resolves, loads and validates the configuration file.
func loadConfig(path string) (*config.Config, error) {
	resolved, err := config.ResolveConfigPath(path)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// newApplication wires logger, tracer, metrics, router and rules. Every
// route resolution is printed to out.
func newApplication(cfg *config.Config, flags *rootFlags, out io.Writer) (*application, error) {
	logCfg := cfg.LogConfig()
	if flags.logLevel != "" {
		logCfg.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		logCfg.Format = flags.logFormat
	}

	logger, err := observability.NewLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	tracerCfg := cfg.TracerConfig()
	tracerCfg.ServiceVersion = version
	tracer, err := observability.NewTracer(tracerCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	app := &application{
		config:  cfg,
		logger:  logger,
		metrics: observability.NewRouterMetrics(cfg.Metrics.Namespace),
		tracer:  tracer,
		out:     &lockedWriter{w: out},
	}

	app.router = routing.New(
		routing.WithName(cfg.Router.Name),
		routing.WithLogger(logger),
		routing.WithMetrics(app.metrics),
		routing.WithTracer(tracer.Provider()),
		routing.WithHandlerTimeout(cfg.Router.HandlerTimeout.Duration()),
		routing.WithPatternCacheSize(cfg.Router.PatternCacheSize),
		routing.WithErrorHandler(func(err error) {
			app.out.printf("error: %v\n", err)
		}),
	)

	if err := rules.Apply(app.router, cfg,
		rules.WithLogger(logger),
		rules.WithSink(app.printResolution),
	); err != nil {
		_ = app.router.Close(context.Background())
		return nil, err
	}

	logger.Info("configuration loaded",
		observability.String("router", cfg.Router.Name),
		observability.Int("routes", len(cfg.Routes)),
		observability.Int("rules", len(cfg.Rules)),
	)

	return app, nil
}

// printResolution writes one line per resolved route: the route name
// followed by its parameters in key order.
func (a *application) printResolution(res rules.Resolution) {
	keys := make([]string, 0, len(res.Params))
	for k := range res.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(res.Route)
	for _, k := range keys {
		sb.WriteString(" ")
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(res.Params[k])
	}
	a.out.printf("%s\n", sb.String())
}

// open submits raw and reports URLs that were not accepted.
func (a *application) open(raw string) bool {
	if a.router.Open(raw) {
		return true
	}
	if _, _, err := routing.Decompose(raw); err != nil {
		a.out.printf("malformed: %s\n", raw)
	} else {
		a.out.printf("no match: %s\n", raw)
	}
	return false
}

// applyReload applies the runtime-adjustable settings of a reloaded
// configuration.
func (a *application) applyReload(change config.Change) {
	cfg := change.Current
	if change.LogLevel {
		if err := a.logger.SetLevel(cfg.Logging.Level); err != nil {
			a.logger.Error("failed to apply log level", observability.Error(err))
		}
	}
	if change.HandlerTimeout {
		a.router.SetHandlerTimeout(cfg.Router.HandlerTimeout.Duration())
	}
	if change.Registrations {
		a.logger.Warn("route and rule changes take effect after restart")
	}
	if change.Restart {
		a.logger.Warn("settings other than log level and handler timeout take effect after restart")
	}
}

// shutdown drains the router and releases everything the application owns.
func (a *application) shutdown(ctx context.Context) error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if a.metricsServer != nil {
		a.logger.Info("stopping metrics server")
		record(a.metricsServer.Shutdown(ctx))
	}

	record(a.router.Close(ctx))

	if err := a.tracer.Shutdown(ctx); err != nil {
		a.logger.Error("failed to shutdown tracer", observability.Error(err))
	}

	_ = a.logger.Sync()
	return firstErr
}

// lockedWriter serializes writes from handler executors and the command
// goroutine.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, format, args...)
}
