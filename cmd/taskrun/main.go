package main

import (
	"context"
	"fmt"
	"os"

	"github.com/taskforge-dev/taskrun/internal/infrastructure/logging"
)

func main() {
	buffer := logging.NewEventBuffer(0)
	bootLogger := logging.NewBufferedLogger(buffer)

	correlationID := logging.GenerateCorrelationID()
	ctx := logging.WithCorrelationID(context.Background(), correlationID)

	app, err := NewAppContext(bootLogger, buffer, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise taskrun: %v\n", err)
		os.Exit(1)
	}

	rootCmd := newRootCmd(app)
	bootLogger.Info(ctx, "starting taskrun command", "pid", os.Getpid())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
