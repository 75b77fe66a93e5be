package ports

import (
	"context"

	"github.com/taskforge-dev/taskrun/internal/domain/task"
)

// BuildProgress carries one line of streaming output from an image build,
// forwarded by the driver so the dispatcher can turn it into
// ImageBuildProgress events.
type BuildProgress struct {
	Step    int
	Total   int
	Message string
}

// DriverError wraps a container-engine failure with the resource it was
// acting on, so the dispatcher can fold it into the matching `…Failed`
// event without inspecting driver-specific error types.
type DriverError struct {
	Resource string
	Cause    error
}

func (e *DriverError) Error() string {
	return e.Resource + ": " + e.Cause.Error()
}

func (e *DriverError) Unwrap() error { return e.Cause }

// EngineDriver is the container engine operations the dispatcher (C6)
// consumes. Implementations must be safe to call from multiple workers
// concurrently (spec.md §5); the core never imports a concrete adapter.
type EngineDriver interface {
	BuildImage(ctx context.Context, src task.ImageSource, container string, onProgress func(BuildProgress)) error
	PullImage(ctx context.Context, ref string, onProgress func(BuildProgress)) error
	CreateNetwork(ctx context.Context, name string) error
	CreateContainer(ctx context.Context, c *task.Container, networkName string) (containerID string, err error)
	StartContainer(ctx context.Context, containerID string) error
	WaitForHealthy(ctx context.Context, containerID string, hc *task.HealthCheck) error
	RunContainer(ctx context.Context, containerID string) (exitCode int, err error)
	StopContainer(ctx context.Context, containerID string) error
	RemoveContainer(ctx context.Context, containerID string) error
	DeleteNetwork(ctx context.Context, name string) error
}
