package task

// Emitted reports whether a step with the given target has already been
// handed out by the state machine for the current stage, regardless of
// whether its outcome event has landed yet. The engine (C4) owns this set;
// rules never mutate it, only read it, so suppression is race-free even
// while a worker is still mid-flight on a step (spec.md invariant P1).
type Emitted func(target string) bool

// Rule is one named predicate-and-producer pair. Eval returns the step it
// would emit and whether it currently applies; the engine walks rules in a
// fixed order and returns the first one that fires, which gives every stage
// deterministic step ordering for a given log (spec.md invariant P4).
type Rule struct {
	Name string
	Eval func(log Log, g *Graph, emitted Emitted) (Step, bool)
}

// anyEnabled reports whether any rule in rules currently fires, without
// regard to emission state — used to decide whether a stage has any
// remaining forward progress available (see ShouldTransitionToCleanup and
// Stage.IsExhausted).
func anyEnabled(rules []Rule, log Log, g *Graph) bool {
	always := func(string) bool { return false }
	for _, r := range rules {
		if _, ok := r.Eval(log, g, always); ok {
			return true
		}
	}
	return false
}

// Next walks rules in order and returns the first step that is both enabled
// and not yet emitted for this stage.
func Next(rules []Rule, log Log, g *Graph, emitted Emitted) (Step, bool) {
	for _, r := range rules {
		if step, ok := r.Eval(log, g, emitted); ok {
			if emitted(step.Target()) {
				continue
			}
			return step, true
		}
	}
	return Step{}, false
}

// runningRules builds the Running-stage rule set for graph g, one
// build-or-pull / create / start / wait rule per container plus the single
// network-creation and main-run rules, in a fixed order: network creation
// first, then each container's rules in name order, then the main-run rule.
// A rule stops firing once its own step's outcome event is in the log.
func runningRules(g *Graph) []Rule {
	var rules []Rule

	rules = append(rules, Rule{
		Name: "CreateTaskNetwork",
		Eval: func(log Log, g *Graph, _ Emitted) (Step, bool) {
			if log.HasAny("", EventTaskNetworkCreated, EventTaskNetworkCreationFailed) {
				return Step{}, false
			}
			return Step{Kind: StepCreateNetwork}, true
		},
	})

	for _, name := range g.Names() {
		name := name
		node := g.Nodes[name]
		c := node.Container

		rules = append(rules, Rule{
			Name: "ObtainImage:" + name,
			Eval: func(log Log, g *Graph, _ Emitted) (Step, bool) {
				if log.HasAny("", EventTaskNetworkCreationFailed) {
					return Step{}, false
				}
				kind := StepPullImage
				if c.Image.IsBuild() {
					kind = StepBuildImage
				}
				step := Step{Kind: kind, Container: name, Image: c.Image}
				if log.HasTerminal(step) {
					return Step{}, false
				}
				return step, true
			},
		})

		rules = append(rules, Rule{
			Name: "CreateContainer:" + name,
			Eval: func(log Log, g *Graph, _ Emitted) (Step, bool) {
				if !log.HasAny("", EventTaskNetworkCreated) {
					return Step{}, false
				}
				succeededKind := EventImagePullSucceeded
				if c.Image.IsBuild() {
					succeededKind = EventImageBuildSucceeded
				}
				if !log.HasImageOutcome(succeededKind, c.Image) {
					return Step{}, false
				}
				for _, dep := range g.Dependencies(name) {
					if !log.IsHealthy(g, dep) {
						return Step{}, false
					}
				}
				step := Step{Kind: StepCreateContainer, Container: name}
				if log.HasTerminal(step) {
					return Step{}, false
				}
				return step, true
			},
		})

		rules = append(rules, Rule{
			Name: "StartContainer:" + name,
			Eval: func(log Log, g *Graph, _ Emitted) (Step, bool) {
				if !log.Has(EventContainerCreated, name) {
					return Step{}, false
				}
				step := Step{Kind: StepStartContainer, Container: name}
				if log.HasTerminal(step) {
					return Step{}, false
				}
				return step, true
			},
		})

		rules = append(rules, Rule{
			Name: "WaitForHealthy:" + name,
			Eval: func(log Log, g *Graph, _ Emitted) (Step, bool) {
				if !c.HasHealthCheck() {
					return Step{}, false
				}
				if !log.Has(EventContainerStarted, name) {
					return Step{}, false
				}
				step := Step{Kind: StepWaitForHealthy, Container: name}
				if log.HasTerminal(step) {
					return Step{}, false
				}
				return step, true
			},
		})
	}

	rules = append(rules, Rule{
		Name: "RunMainContainer",
		Eval: func(log Log, g *Graph, _ Emitted) (Step, bool) {
			main := g.Main
			if !log.IsHealthy(g, main) {
				return Step{}, false
			}
			for _, dep := range g.Dependencies(main) {
				if !log.Has(EventContainerBecameHealthy, dep) && !log.IsHealthy(g, dep) {
					return Step{}, false
				}
			}
			step := Step{Kind: StepRunContainer, Container: main}
			if log.HasTerminal(step) {
				return Step{}, false
			}
			return step, true
		},
	})

	return rules
}

// cleanupRules builds the CleaningUp-stage rule set: stop then remove every
// container that reached at least ContainerCreated, then delete the task
// network once every such container has an attempted removal (spec.md
// invariant P5 — cleanup closure never skips a container it created).
func cleanupRules(g *Graph) []Rule {
	var rules []Rule

	for _, name := range g.Names() {
		name := name

		rules = append(rules, Rule{
			Name: "StopContainer:" + name,
			Eval: func(log Log, g *Graph, _ Emitted) (Step, bool) {
				if !log.Has(EventContainerCreated, name) {
					return Step{}, false
				}
				if !log.Has(EventContainerStarted, name) {
					return Step{}, false
				}
				if log.HasAny(name, EventContainerStopped, EventContainerStopFailed) {
					return Step{}, false
				}
				return Step{Kind: StepStopContainer, Container: name}, true
			},
		})

		rules = append(rules, Rule{
			Name: "RemoveContainer:" + name,
			Eval: func(log Log, g *Graph, _ Emitted) (Step, bool) {
				if !log.Has(EventContainerCreated, name) {
					return Step{}, false
				}
				started := log.Has(EventContainerStarted, name)
				if started && !log.HasAny(name, EventContainerStopped, EventContainerStopFailed) {
					return Step{}, false
				}
				if log.HasAny(name, EventContainerRemoved, EventContainerRemovalFailed) {
					return Step{}, false
				}
				return Step{Kind: StepRemoveContainer, Container: name}, true
			},
		})
	}

	rules = append(rules, Rule{
		Name: "DeleteTaskNetwork",
		Eval: func(log Log, g *Graph, _ Emitted) (Step, bool) {
			if !log.Has(EventTaskNetworkCreated, "") {
				return Step{}, false
			}
			for _, name := range g.Names() {
				if !log.Has(EventContainerCreated, name) {
					continue
				}
				if !log.HasAny(name, EventContainerRemoved, EventContainerRemovalFailed) {
					return Step{}, false
				}
			}
			if log.HasAny("", EventTaskNetworkDeleted, EventTaskNetworkDeletionFailed) {
				return Step{}, false
			}
			return Step{Kind: StepDeleteNetwork}, true
		},
	})

	return rules
}
