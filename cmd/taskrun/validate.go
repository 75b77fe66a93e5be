package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskforge-dev/taskrun/internal/domain/task"
)

var (
	exitFunc     = os.Exit
	stderrWriter = os.Stderr
)

func newValidateCmd(root *rootFlags, app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config>",
		Short: "Validate every task declared in a config without running the engine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exitCode := runValidate(cmd, app, args[0])
			exitFunc(exitCode)
			return nil
		},
	}

	return cmd
}

func runValidate(cmd *cobra.Command, app *AppContext, configPath string) int {
	if err := app.Loader.Validate(cmd.Context(), configPath); err != nil {
		var domainErr *task.DomainError
		if errors.As(err, &domainErr) {
			fmt.Fprintf(stderrWriter, "Configuration error: %v\n", domainErr)
			return 1
		}
		fmt.Fprintf(stderrWriter, "Validation error: %v\n", err)
		return 2
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: all tasks valid\n", configPath)
	return 0
}
