package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// defaultDrainTimeout bounds the wait for accepted URLs to resolve.
const defaultDrainTimeout = 10 * time.Second

func openCmd(flags *rootFlags) *cobra.Command {
	var (
		list         bool
		tags         []string
		drainTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "open [URL...]",
		Short: "Dispatch URLs through the configured routes",
		Long: `Dispatch each URL through the configured rules and routes and
print what every route resolved. URLs nothing matches are reported.`,
		Example: `  avaroute open --config avaroute.yaml "app://items/42?ref=home"
  avaroute open --config avaroute.yaml --list`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !list && len(args) == 0 {
				return fmt.Errorf("at least one URL is required")
			}

			cfg, err := loadConfig(flags.configPath)
			if err != nil {
				return err
			}

			app, err := newApplication(cfg, flags, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), drainTimeout)
			defer cancel()
			defer func() { _ = app.shutdown(ctx) }()

			if list {
				app.printRegistrations()
			}

			opener := app.open
			if len(tags) > 0 {
				view := app.router.WithTags(tags...)
				opener = func(raw string) bool {
					if view.Open(raw) {
						return true
					}
					app.out.printf("no match: %s\n", raw)
					return false
				}
			}

			failed := 0
			for _, raw := range args {
				if !opener(raw) {
					failed++
				}
			}

			if err := app.router.Drain(ctx); err != nil {
				return fmt.Errorf("waiting for routes: %w", err)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d URLs were not dispatched", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "Print the route table before dispatching")
	cmd.Flags().StringSliceVarP(&tags, "tags", "t", nil, "Only consider registrations carrying one of these tags")
	cmd.Flags().DurationVar(&drainTimeout, "timeout", getEnvDuration(envDrainTimeout, defaultDrainTimeout),
		"Maximum time to wait for routes to finish")

	return cmd
}

// printRegistrations prints the route table in match order.
func (a *application) printRegistrations() {
	for _, reg := range a.router.Registrations() {
		line := fmt.Sprintf("%-5s %s", reg.Kind(), reg.Pattern())
		if tags := reg.Tags(); len(tags) > 0 {
			line += " [" + strings.Join(tags, ",") + "]"
		}
		a.out.printf("%s\n", line)
	}
}
