package main

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/vyrodovalexey/avaroute/internal/observability"
)

// startMetricsServer serves the router's registry when metrics are
// enabled in the configuration or force is set. The listener is bound
// before returning so address errors surface immediately.
func (a *application) startMetricsServer(force bool) error {
	cfg := a.config.Metrics
	if !cfg.Enabled && !force {
		return nil
	}

	listener, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return fmt.Errorf("metrics listener on %s: %w", cfg.Address, err)
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, a.metrics.Handler())

	a.metricsServer = &http.Server{
		Handler:           mux,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
	a.metricsAddr = listener.Addr().String()

	a.logger.Info("serving metrics",
		observability.String("address", a.metricsAddr),
		observability.String("metrics_path", cfg.Path),
	)

	go func() {
		if err := a.metricsServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server error", observability.Error(err))
		}
	}()
	return nil
}
