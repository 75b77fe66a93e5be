package task

import "fmt"

// EventKind enumerates the closed set of observations that can be appended
// to the event log. The log is the single source of truth for the rules
// engine; nothing downstream infers state any other way.
type EventKind string

const (
	EventImageBuildStarted   EventKind = "ImageBuildStarted"
	EventImageBuildProgress  EventKind = "ImageBuildProgress"
	EventImageBuildSucceeded EventKind = "ImageBuildSucceeded"
	EventImageBuildFailed    EventKind = "ImageBuildFailed"

	EventImagePullStarted   EventKind = "ImagePullStarted"
	EventImagePullSucceeded EventKind = "ImagePullSucceeded"
	EventImagePullFailed    EventKind = "ImagePullFailed"

	EventTaskNetworkCreated        EventKind = "TaskNetworkCreated"
	EventTaskNetworkCreationFailed EventKind = "TaskNetworkCreationFailed"

	EventContainerCreated        EventKind = "ContainerCreated"
	EventContainerCreationFailed EventKind = "ContainerCreationFailed"

	EventContainerStarted     EventKind = "ContainerStarted"
	EventContainerStartFailed EventKind = "ContainerStartFailed"

	EventContainerBecameHealthy       EventKind = "ContainerBecameHealthy"
	EventContainerDidNotBecomeHealthy EventKind = "ContainerDidNotBecomeHealthy"

	EventRunningContainerExited EventKind = "RunningContainerExited"

	EventContainerStopped    EventKind = "ContainerStopped"
	EventContainerStopFailed EventKind = "ContainerStopFailed"

	EventContainerRemoved       EventKind = "ContainerRemoved"
	EventContainerRemovalFailed EventKind = "ContainerRemovalFailed"

	EventTaskNetworkDeleted        EventKind = "TaskNetworkDeleted"
	EventTaskNetworkDeletionFailed EventKind = "TaskNetworkDeletionFailed"

	EventExecutionFailed    EventKind = "ExecutionFailedEvent"
	EventUserInterruptedRun EventKind = "UserInterruptedExecution"
)

// Event is an immutable observation appended to the task's event log. Only
// the fields relevant to Kind are populated; it carries no behaviour.
type Event struct {
	Kind      EventKind
	Container string
	Image     ImageSource

	ContainerID string
	ExitCode    int
	Reason      string
	Message     string

	ProgressCurrent int
	ProgressTotal   int
}

func (e Event) String() string {
	switch e.Kind {
	case EventImageBuildProgress:
		return fmt.Sprintf("%s(container: '%s', current step: %d, total steps: %d, message: '%s')",
			e.Kind, e.Container, e.ProgressCurrent, e.ProgressTotal, e.Message)
	case EventImageBuildStarted, EventImageBuildSucceeded:
		return fmt.Sprintf("%s(container: '%s')", e.Kind, e.Container)
	case EventImageBuildFailed:
		return fmt.Sprintf("%s(container: '%s', message: '%s')", e.Kind, e.Container, e.Message)
	case EventImagePullStarted, EventImagePullSucceeded:
		return fmt.Sprintf("%s(image: '%s')", e.Kind, e.Image.PullRef)
	case EventImagePullFailed:
		return fmt.Sprintf("%s(image: '%s', message: '%s')", e.Kind, e.Image.PullRef, e.Message)
	case EventTaskNetworkCreated, EventTaskNetworkDeleted:
		return fmt.Sprintf("%s()", e.Kind)
	case EventTaskNetworkCreationFailed, EventTaskNetworkDeletionFailed:
		return fmt.Sprintf("%s(message: '%s')", e.Kind, e.Message)
	case EventContainerCreated:
		return fmt.Sprintf("%s(container: '%s', containerId: '%s')", e.Kind, e.Container, e.ContainerID)
	case EventContainerCreationFailed, EventContainerStartFailed, EventContainerStopFailed, EventContainerRemovalFailed:
		return fmt.Sprintf("%s(container: '%s', message: '%s')", e.Kind, e.Container, e.Message)
	case EventContainerStarted, EventContainerStopped, EventContainerRemoved, EventContainerBecameHealthy:
		return fmt.Sprintf("%s(container: '%s')", e.Kind, e.Container)
	case EventContainerDidNotBecomeHealthy:
		return fmt.Sprintf("%s(container: '%s', reason: '%s')", e.Kind, e.Container, e.Reason)
	case EventRunningContainerExited:
		return fmt.Sprintf("%s(container: '%s', exitCode: %d)", e.Kind, e.Container, e.ExitCode)
	case EventExecutionFailed:
		return fmt.Sprintf("%s(message: '%s')", e.Kind, e.Message)
	case EventUserInterruptedRun:
		return fmt.Sprintf("%s()", e.Kind)
	default:
		return string(e.Kind)
	}
}

// IsFailure reports whether this event represents a `…Failed` outcome or a
// catastrophic ExecutionFailedEvent, for use by cleanup closure checks (P5).
// UserInterruptedExecution is not a failure.
func (e Event) IsFailure() bool {
	switch e.Kind {
	case EventImageBuildFailed, EventImagePullFailed,
		EventTaskNetworkCreationFailed, EventContainerCreationFailed,
		EventContainerStartFailed, EventContainerDidNotBecomeHealthy,
		EventContainerStopFailed, EventContainerRemovalFailed,
		EventTaskNetworkDeletionFailed, EventExecutionFailed:
		return true
	default:
		return false
	}
}
