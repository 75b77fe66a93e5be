package ports

import (
	"context"

	"github.com/taskforge-dev/taskrun/internal/domain/task"
)

// ConfigLoader loads task definitions from an external source (local YAML
// file, possibly with remote `include:` fragments). Implementations must be
// deterministic. Task-graph validation failures surface as *task.DomainError;
// read, parse, include, and schema-validation failures are ordinary wrapped
// errors.
type ConfigLoader interface {
	// Load materialises and validates a single named task, returning its
	// dependency graph ready for the engine.
	Load(ctx context.Context, path string, taskName string) (*task.Task, *task.Graph, error)

	// Validate performs schema and cycle validation for every task declared
	// at path without requiring a specific task name, for `taskrun validate`.
	Validate(ctx context.Context, path string) error
}
