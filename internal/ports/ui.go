package ports

import "github.com/taskforge-dev/taskrun/internal/domain/task"

// UIListener is the pure sink the manager (C5) notifies before the state
// machine ever sees an event (spec.md invariant P2). Implementations must
// not throw and must not block the caller for long.
type UIListener interface {
	OnStartingStep(step task.Step)
	PostEvent(event task.Event)
}

// NoopUIListener discards everything; used by tests and by NewManager when
// it is given a nil listener.
type NoopUIListener struct{}

func (NoopUIListener) OnStartingStep(task.Step) {}
func (NoopUIListener) PostEvent(task.Event)     {}
