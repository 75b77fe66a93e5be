package task

// StageKind identifies which half of the task lifecycle a Stage governs.
// A task moves through Running then CleaningUp exactly once each; there is
// no path back (spec.md invariant: the transition is one-way, one-shot).
type StageKind string

const (
	StageRunning    StageKind = "Running"
	StageCleaningUp StageKind = "CleaningUp"
)

// Stage binds a StageKind to the rule set that governs it. The state
// machine (C4) holds the current Stage and asks it for the next step; it
// never inspects rules directly.
type Stage struct {
	Kind  StageKind
	rules []Rule
}

// NewRunStage builds the initial stage for a freshly-planned task.
func NewRunStage(g *Graph) *Stage {
	return &Stage{Kind: StageRunning, rules: runningRules(g)}
}

// NewCleanupStage builds the stage a task transitions into once forward
// progress in Running is no longer possible.
func NewCleanupStage(g *Graph) *Stage {
	return &Stage{Kind: StageCleaningUp, rules: cleanupRules(g)}
}

// Next returns the next step this stage's rules would emit given log and
// emitted, in the stage's fixed rule order.
func (s *Stage) Next(log Log, g *Graph, emitted Emitted) (Step, bool) {
	return Next(s.rules, log, g, emitted)
}

// IsExhausted reports whether no rule in this stage currently fires —
// forward progress in this stage has stalled, whether or not that stall is
// permanent (workers still in flight may yet post events that unstall it).
func (s *Stage) IsExhausted(log Log, g *Graph) bool {
	return !anyEnabled(s.rules, log, g)
}

// ShouldTransitionToCleanup reports whether a Running-stage task must move
// to CleaningUp given the current log. It fires immediately on any of the
// three hard triggers (the main container exited, a catastrophic execution
// failure, or a user interrupt); otherwise it fires only once the Running
// stage has genuinely stalled (IsExhausted) AND the log already contains a
// failure, so independent in-flight work for unrelated images/containers is
// always allowed to finish first (SPEC_FULL.md §4.3, scoped image failure).
func ShouldTransitionToCleanup(log Log, g *Graph, running *Stage) bool {
	if log.HasAny("", EventExecutionFailed, EventUserInterruptedRun) {
		return true
	}
	if log.Has(EventRunningContainerExited, g.Main) {
		return true
	}
	if !log.HasFailure() {
		return false
	}
	return running.IsExhausted(log, g)
}

// SyntheticFollowOns returns events the state machine must atomically append
// immediately after appending newEvent — currently just the immediate
// synthetic ContainerBecameHealthy a container with no health check earns
// the instant it starts (spec.md §4.2: "otherwise an immediate synthetic
// ContainerBecameHealthy(c) is emitted").
func SyntheticFollowOns(g *Graph, newEvent Event) []Event {
	if newEvent.Kind != EventContainerStarted {
		return nil
	}
	node, ok := g.Nodes[newEvent.Container]
	if !ok || node.Container.HasHealthCheck() {
		return nil
	}
	return []Event{{Kind: EventContainerBecameHealthy, Container: newEvent.Container}}
}
