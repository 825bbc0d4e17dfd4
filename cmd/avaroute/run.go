package main

import (
	"bufio"
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vyrodovalexey/avaroute/internal/config"
	"github.com/vyrodovalexey/avaroute/internal/observability"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 30 * time.Second

func runCmd(flags *rootFlags) *cobra.Command {
	var (
		forceMetrics bool
		watch        bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Dispatch URLs read from standard input",
		Long: `Read URLs from standard input, one per line, and dispatch them
through the configured rules and routes until input ends or the process
is interrupted. The configuration file is watched: log level and handler
timeout changes apply immediately.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig(flags.configPath)
			if err != nil {
				return err
			}

			app, err := newApplication(cfg, flags, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			if err := app.startMetricsServer(forceMetrics); err != nil {
				_ = app.shutdown(context.Background())
				return err
			}

			var watcher *config.Watcher
			if watch {
				watcher, err = app.startConfigWatcher(ctx, flags.configPath)
				if err != nil {
					app.logger.Error("config watcher disabled", observability.Error(err))
				}
			}

			runErr := app.dispatchLines(ctx, cmd)

			if watcher != nil {
				_ = watcher.Stop()
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := app.shutdown(shutdownCtx); err != nil && runErr == nil {
				runErr = fmt.Errorf("shutdown: %w", err)
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&forceMetrics, "metrics", getEnvBool(envMetricsEnabled, false),
		"Serve metrics even if disabled in the configuration")
	cmd.Flags().BoolVar(&watch, "watch", getEnvBool(envWatchConfig, true),
		"Reload runtime settings when the configuration file changes")

	return cmd
}

// dispatchLines opens every non-empty, non-comment input line until
// input ends or ctx is done.
func (a *application) dispatchLines(ctx context.Context, cmd *cobra.Command) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("interrupted, shutting down")
			return nil

		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("reading input: %w", err)
					}
				default:
				}
				return nil
			}

			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			a.open(line)
		}
	}
}

// startConfigWatcher watches the configuration file and applies
// runtime-adjustable settings on change.
func (a *application) startConfigWatcher(ctx context.Context, path string) (*config.Watcher, error) {
	resolved, err := config.ResolveConfigPath(path)
	if err != nil {
		return nil, err
	}

	watcher, err := config.NewWatcher(resolved, a.applyReload,
		config.WithLogger(a.logger),
		config.WithErrorCallback(func(err error) {
			a.logger.Warn("configuration reload rejected", observability.Error(err))
		}),
	)
	if err != nil {
		return nil, err
	}

	if err := watcher.Start(ctx); err != nil {
		_ = watcher.Stop()
		return nil, err
	}
	return watcher, nil
}
