// Package engine holds the task state machine (C4) and the parallel
// execution manager (C5) that drains it.
package engine

import (
	"sync"

	"github.com/taskforge-dev/taskrun/internal/domain/task"
)

// StateMachine holds a task's event log and current stage behind a single
// mutex. It is the sole shared mutable state inside the core (spec.md §5):
// steps themselves always run outside the lock.
type StateMachine struct {
	mu sync.Mutex

	graph   *task.Graph
	log     task.Log
	stage   *task.Stage
	emitted map[string]bool
}

// NewStateMachine seeds a fresh state machine in the Running stage for g.
func NewStateMachine(g *task.Graph) *StateMachine {
	return &StateMachine{
		graph:   g,
		stage:   task.NewRunStage(g),
		emitted: make(map[string]bool),
	}
}

// PopNextStep returns at most one step per call, or ok=false to mean no
// step is currently enabled. lastStepWasFromThisCaller carries no state
// machine semantics of its own; it exists so callers can correlate repeat
// polls in diagnostics without the state machine inferring caller identity.
func (sm *StateMachine) PopNextStep(lastStepWasFromThisCaller bool) (task.Step, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	emitted := func(target string) bool { return sm.emitted[target] }
	step, ok := sm.stage.Next(sm.log, sm.graph, emitted)
	if !ok {
		return task.Step{}, false
	}
	sm.emitted[step.Target()] = true
	return step, true
}

// PostEvent appends e to the log, records any synthetic follow-on events
// atomically, and re-evaluates the Run→CleaningUp transition. It never
// calls back into a rule from outside its own lock.
func (sm *StateMachine) PostEvent(e task.Event) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.log = append(sm.log, e)
	for _, follow := range task.SyntheticFollowOns(sm.graph, e) {
		sm.log = append(sm.log, follow)
	}

	if sm.stage.Kind == task.StageRunning && task.ShouldTransitionToCleanup(sm.log, sm.graph, sm.stage) {
		sm.stage = task.NewCleanupStage(sm.graph)
		sm.emitted = make(map[string]bool)
	}
}

// IsFinished reports whether the task has nothing left to do: the stage is
// CleaningUp and no cleanup rule can currently fire.
func (sm *StateMachine) IsFinished() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.stage.Kind == task.StageCleaningUp && sm.stage.IsExhausted(sm.log, sm.graph)
}

// Snapshot returns a defensive copy of the accumulated event log, for
// deriving the final TaskExitStatus once the manager has drained.
func (sm *StateMachine) Snapshot() task.Log {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	out := make(task.Log, len(sm.log))
	copy(out, sm.log)
	return out
}

// Stage reports the state machine's current stage kind, for diagnostics and
// tests; it is not used for control flow by callers.
func (sm *StateMachine) Stage() task.StageKind {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.stage.Kind
}
