package main

import (
	"github.com/spf13/cobra"
)

// rootFlags holds the persistent flags.
type rootFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "avaroute",
		Short: "Match and dispatch URLs through a pattern router",
		Long: `avaroute loads routes and redirect rules from a YAML file and
dispatches URLs through them.

Routes bind patterns such as app://items/:id to handlers that report
the parameters they resolved. Rules are proxies that redirect matching
URLs, optionally guarded by a CEL condition over path and params.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c",
		getEnvOrDefault(envConfigPath, "configs/avaroute.yaml"),
		"Path to configuration file")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level",
		getEnvOrDefault(envLogLevel, ""),
		"Log level override (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&flags.logFormat, "log-format",
		getEnvOrDefault(envLogFormat, ""),
		"Log format override (json, console)")

	cmd.AddCommand(
		openCmd(flags),
		runCmd(flags),
		versionCmd(),
	)

	return cmd
}
