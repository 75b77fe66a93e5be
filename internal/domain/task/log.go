package task

// Log is the append-only, ordered sequence of events the rules engine
// consults. It is never mutated in place; State machine appends by copying.
type Log []Event

// Has reports whether an event of the given kind targeting container exists.
// Pass container == "" for container-less events (network, catastrophic).
func (l Log) Has(kind EventKind, container string) bool {
	for _, e := range l {
		if e.Kind == kind && e.Container == container {
			return true
		}
	}
	return false
}

// HasAny reports whether any event among kinds targeting container exists.
func (l Log) HasAny(container string, kinds ...EventKind) bool {
	for _, k := range kinds {
		if l.Has(k, container) {
			return true
		}
	}
	return false
}

// HasImageOutcome reports whether an event of the given kind exists whose
// Image matches img — used to scope image-failure suppression to the
// containers that actually share that image source (spec.md §9 open
// question, resolved in SPEC_FULL.md §4.3: scoped failure).
func (l Log) HasImageOutcome(kind EventKind, img ImageSource) bool {
	for _, e := range l {
		if e.Kind == kind && e.Image.Equal(img) {
			return true
		}
	}
	return false
}

// HasFailure reports whether any `…Failed` (or catastrophic) event exists
// anywhere in the log; a user interrupt does not count.
func (l Log) HasFailure() bool {
	for _, e := range l {
		if e.IsFailure() {
			return true
		}
	}
	return false
}

// HasTerminal reports whether the log already contains an event that marks
// step s as done (its own start is irrelevant; only outcomes count). The
// Running-stage rules use it as their suppression check, so a rule whose
// step has an outcome no longer counts as enabled.
func (l Log) HasTerminal(s Step) bool {
	switch s.Kind {
	case StepBuildImage:
		return l.HasImageOutcome(EventImageBuildSucceeded, s.Image) || l.HasImageOutcome(EventImageBuildFailed, s.Image)
	case StepPullImage:
		return l.HasImageOutcome(EventImagePullSucceeded, s.Image) || l.HasImageOutcome(EventImagePullFailed, s.Image)
	case StepCreateNetwork:
		return l.HasAny("", EventTaskNetworkCreated, EventTaskNetworkCreationFailed)
	case StepCreateContainer:
		return l.HasAny(s.Container, EventContainerCreated, EventContainerCreationFailed)
	case StepStartContainer:
		return l.HasAny(s.Container, EventContainerStarted, EventContainerStartFailed)
	case StepWaitForHealthy:
		return l.HasAny(s.Container, EventContainerBecameHealthy, EventContainerDidNotBecomeHealthy)
	case StepRunContainer:
		return l.Has(EventRunningContainerExited, s.Container)
	case StepStopContainer:
		return l.HasAny(s.Container, EventContainerStopped, EventContainerStopFailed)
	case StepRemoveContainer:
		return l.HasAny(s.Container, EventContainerRemoved, EventContainerRemovalFailed)
	case StepDeleteNetwork:
		return l.HasAny("", EventTaskNetworkDeleted, EventTaskNetworkDeletionFailed)
	default:
		return false
	}
}

// IsHealthy reports whether container name is known-ready: it became
// healthy, or it has no health check and has started (spec.md invariant P4).
func (l Log) IsHealthy(g *Graph, name string) bool {
	if l.Has(EventContainerBecameHealthy, name) {
		return true
	}
	node, ok := g.Nodes[name]
	if !ok {
		return false
	}
	if !node.Container.HasHealthCheck() && l.Has(EventContainerStarted, name) {
		return true
	}
	return false
}
