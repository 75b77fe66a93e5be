package main

import (
	"github.com/spf13/cobra"
)

// rootFlags carries the global flags every subcommand may consult.
type rootFlags struct {
	parallelism int
	noCleanup   bool
	logLevel    string
	logFormat   string
}

func newRootCmd(app *AppContext) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "taskrun",
		Short:         "taskrun builds and runs container-task graphs from a declarative config",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.ApplyLogSettings(flags.logLevel, flags.logFormat)
		},
	}

	cmd.PersistentFlags().IntVar(&flags.parallelism, "parallelism", 1, "Maximum number of steps the engine runs concurrently")
	cmd.PersistentFlags().BoolVar(&flags.noCleanup, "no-cleanup", false, "Leave created resources in place after a failed run")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "Logger verbosity: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "human", "Logger output format: human or json")

	cmd.AddCommand(newRunCmd(flags, app))
	cmd.AddCommand(newValidateCmd(flags, app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
