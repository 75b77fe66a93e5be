package main

import (
	"io"

	cblog "github.com/charmbracelet/log"

	"github.com/taskforge-dev/taskrun/internal/config"
	"github.com/taskforge-dev/taskrun/internal/containerdriver"
	"github.com/taskforge-dev/taskrun/internal/diagnostics"
	"github.com/taskforge-dev/taskrun/internal/infrastructure/logging"
	"github.com/taskforge-dev/taskrun/internal/ports"
)

// AppContext bundles the long-lived adapters wired once at startup and
// shared across every subcommand.
type AppContext struct {
	Logger ports.Logger
	Loader ports.ConfigLoader
	Driver ports.EngineDriver
	Diag   ports.DiagnosticsWriter

	// bootBuffer holds log lines emitted before --log-level/--log-format are
	// parsed; ApplyLogSettings flushes it onto the real logger once built.
	bootBuffer *logging.EventBuffer
}

// NewAppContext constructs the production adapter set: go-git-backed config
// includes, the real Docker Engine API driver, and a zerolog diagnostics
// writer over diagWriter. log is expected to be the buffered pre-init
// logger backed by bootBuffer until ApplyLogSettings replaces it.
func NewAppContext(log ports.Logger, bootBuffer *logging.EventBuffer, diagWriter io.Writer) (*AppContext, error) {
	driver, err := containerdriver.NewFromEnvironment()
	if err != nil {
		return nil, err
	}

	return &AppContext{
		Logger:     log,
		Loader:     config.New(config.NewIncluder()),
		Driver:     driver,
		Diag:       diagnostics.New(diagWriter),
		bootBuffer: bootBuffer,
	}, nil
}

// LoggerFor derives a child logger scoped to component.
func (a *AppContext) LoggerFor(component string) ports.Logger {
	if a == nil || a.Logger == nil {
		return nil
	}
	return a.Logger.With("component", component)
}

// ApplyLogSettings rebuilds the base logger once the root command's
// persistent flags have been parsed, since the logger is otherwise
// constructed before Cobra sees --log-level/--log-format. Any lines
// buffered before this point (e.g. the "starting taskrun command" line
// in main) are replayed onto the real logger in order.
func (a *AppContext) ApplyLogSettings(level, format string) error {
	opts := logging.Options{Level: level, Layer: "infrastructure", Component: "cli"}
	if format == "json" {
		opts.Formatter = cblog.JSONFormatter
	}
	log, err := logging.New(opts)
	if err != nil {
		return err
	}
	if a.bootBuffer != nil {
		a.bootBuffer.Flush(log)
	}
	a.Logger = log
	return nil
}
