package task

import "fmt"

// StepKind enumerates the closed set of units of work the rules engine can
// emit. New kinds are never added at runtime; dispatch (C6) exhaustively
// switches over this set.
type StepKind string

const (
	StepBuildImage      StepKind = "BuildImage"
	StepPullImage       StepKind = "PullImage"
	StepCreateNetwork   StepKind = "CreateTaskNetwork"
	StepCreateContainer StepKind = "CreateContainer"
	StepStartContainer  StepKind = "StartContainer"
	StepWaitForHealthy  StepKind = "WaitForContainerToBecomeHealthy"
	StepRunContainer    StepKind = "RunContainer"
	StepStopContainer   StepKind = "StopContainer"
	StepRemoveContainer StepKind = "RemoveContainer"
	StepDeleteNetwork   StepKind = "DeleteTaskNetwork"
)

// Step is a single unit of executable work emitted by the rules engine. It
// carries only identifiers and precomputed parameters; it has no behaviour
// of its own. Equality is structural over Kind+Container.
type Step struct {
	Kind      StepKind
	Container string // empty for CreateTaskNetwork / DeleteTaskNetwork
	Image     ImageSource
}

// Target returns the (stage-scoped) identity used to enforce at-most-once
// emission per (stage, target) pair (spec.md invariant P1/I3).
func (s Step) Target() string {
	if s.Container != "" {
		return string(s.Kind) + ":" + s.Container
	}
	return string(s.Kind)
}

func (s Step) String() string {
	switch s.Kind {
	case StepCreateNetwork, StepDeleteNetwork:
		return fmt.Sprintf("%s()", s.Kind)
	case StepBuildImage:
		return fmt.Sprintf("%s(container: '%s', context: '%s')", s.Kind, s.Container, s.Image.BuildContext)
	case StepPullImage:
		return fmt.Sprintf("%s(container: '%s', image: '%s')", s.Kind, s.Container, s.Image.PullRef)
	default:
		return fmt.Sprintf("%s(container: '%s')", s.Kind, s.Container)
	}
}
