package task

import "testing"

// simpleTask builds a two-container task: main depends on db, neither has a
// health check, db is pulled and main is built.
func simpleTask(t *testing.T) *Graph {
	t.Helper()
	tk := &Task{
		Name: "t1",
		Main: "main",
		Containers: map[string]*Container{
			"main": {Name: "main", Image: ImageSource{BuildContext: "./app"}, DependsOn: []string{"db"}},
			"db":   {Name: "db", Image: ImageSource{PullRef: "postgres:16"}},
		},
	}
	return mustGraph(t, tk)
}

func TestHappyPathStepOrder(t *testing.T) {
	g := simpleTask(t)
	stage := NewRunStage(g)

	var log Log
	emittedSet := map[string]bool{}
	emitted := func(target string) bool { return emittedSet[target] }

	var order []string
	for i := 0; i < 50; i++ {
		step, ok := stage.Next(log, g, emitted)
		if !ok {
			break
		}
		order = append(order, step.Target())
		emittedSet[step.Target()] = true
		// simulate the step runner posting its terminal outcome immediately.
		log = append(log, outcomeFor(t, g, step)...)
	}

	if len(order) == 0 {
		t.Fatalf("expected at least one step to be emitted")
	}
	// CreateTaskNetwork must be the very first step.
	if order[0] != "CreateTaskNetwork" {
		t.Fatalf("expected CreateTaskNetwork first, got %v", order)
	}
	// db's container must be created and started before main's.
	idx := func(target string) int {
		for i, v := range order {
			if v == target {
				return i
			}
		}
		return -1
	}
	if idx("CreateContainer:db") == -1 || idx("CreateContainer:main") == -1 {
		t.Fatalf("expected both containers created, got %v", order)
	}
	if idx("CreateContainer:db") > idx("CreateContainer:main") {
		t.Fatalf("expected db created before main, got %v", order)
	}
	if idx("RunContainer:main") == -1 {
		t.Fatalf("expected RunContainer:main to be reached, got %v", order)
	}
}

// outcomeFor synthesizes the successful terminal event(s) for a step,
// standing in for a real engine driver during rule-ordering tests.
func outcomeFor(t *testing.T, g *Graph, s Step) []Event {
	t.Helper()
	switch s.Kind {
	case StepCreateNetwork:
		return []Event{{Kind: EventTaskNetworkCreated}}
	case StepBuildImage:
		return []Event{{Kind: EventImageBuildSucceeded, Container: s.Container, Image: s.Image}}
	case StepPullImage:
		return []Event{{Kind: EventImagePullSucceeded, Container: s.Container, Image: s.Image}}
	case StepCreateContainer:
		return []Event{{Kind: EventContainerCreated, Container: s.Container}}
	case StepStartContainer:
		started := Event{Kind: EventContainerStarted, Container: s.Container}
		follow := SyntheticFollowOns(g, started)
		return append([]Event{started}, follow...)
	case StepWaitForHealthy:
		return []Event{{Kind: EventContainerBecameHealthy, Container: s.Container}}
	case StepRunContainer:
		return []Event{{Kind: EventRunningContainerExited, Container: s.Container, ExitCode: 0}}
	default:
		return nil
	}
}

func TestStepNeverEmittedTwice(t *testing.T) {
	g := simpleTask(t)
	stage := NewRunStage(g)
	emittedSet := map[string]bool{}
	emitted := func(target string) bool { return emittedSet[target] }

	var log Log
	step, ok := stage.Next(log, g, emitted)
	if !ok {
		t.Fatalf("expected a step")
	}
	emittedSet[step.Target()] = true

	// without any new event landing, asking again must never return the
	// same step (it's suppressed purely by the emitted set).
	again, ok := stage.Next(log, g, emitted)
	if ok && again.Target() == step.Target() {
		t.Fatalf("step %s emitted twice before its outcome landed", step.Target())
	}
}

func TestScopedImageFailureAllowsUnrelatedContainerToProceed(t *testing.T) {
	tk := &Task{
		Name: "t1",
		Main: "main",
		Containers: map[string]*Container{
			"main":   {Name: "main", Image: ImageSource{PullRef: "good:latest"}, DependsOn: []string{"broken"}},
			"broken": {Name: "broken", Image: ImageSource{PullRef: "bad:latest"}},
		},
	}
	g := mustGraph(t, tk)
	stage := NewRunStage(g)
	emittedSet := map[string]bool{}
	emitted := func(target string) bool { return emittedSet[target] }

	log := Log{
		{Kind: EventTaskNetworkCreated},
		{Kind: EventImagePullFailed, Container: "broken", Image: g.Nodes["broken"].Container.Image, Message: "no such image"},
	}

	// main's own image (unrelated to "broken") must still be pullable.
	step, ok := Next(stage.rules, log, g, emitted)
	if !ok || step.Kind != StepPullImage || step.Container != "main" {
		t.Fatalf("expected main's own image pull to proceed despite unrelated failure, got %v ok=%v", step, ok)
	}

	// but CreateContainer:main must never fire since its dependency broken
	// never reaches a healthy/started state.
	log = append(log, Event{Kind: EventImagePullSucceeded, Container: "main", Image: g.Nodes["main"].Container.Image})
	emittedSet["PullImage:main"] = true
	for i := 0; i < 10; i++ {
		step, ok := Next(stage.rules, log, g, emitted)
		if !ok {
			break
		}
		if step.Kind == StepCreateContainer && step.Container == "main" {
			t.Fatalf("CreateContainer:main fired despite broken dependency never becoming healthy")
		}
		emittedSet[step.Target()] = true
	}
}

func TestShouldTransitionToCleanupWaitsForOutstandingWork(t *testing.T) {
	tk := &Task{
		Name: "t1",
		Main: "main",
		Containers: map[string]*Container{
			"main":   {Name: "main", Image: ImageSource{PullRef: "good:latest"}, DependsOn: []string{"broken"}},
			"broken": {Name: "broken", Image: ImageSource{PullRef: "bad:latest"}},
		},
	}
	g := mustGraph(t, tk)
	running := NewRunStage(g)

	log := Log{
		{Kind: EventTaskNetworkCreated},
		{Kind: EventImagePullFailed, Container: "broken", Image: g.Nodes["broken"].Container.Image},
	}
	// main's own pull can still run: must not transition yet.
	if ShouldTransitionToCleanup(log, g, running) {
		t.Fatalf("transitioned to cleanup while main's own image pull is still outstanding")
	}

	log = append(log, Event{Kind: EventImagePullSucceeded, Container: "main", Image: g.Nodes["main"].Container.Image})
	// now nothing in Running can ever fire again (main can never be
	// created: its dependency broken is permanently failed) and a failure
	// is present, so it must transition.
	if !ShouldTransitionToCleanup(log, g, running) {
		t.Fatalf("expected transition to cleanup once Running stalled with a failure present")
	}
}

func TestCleanupRemovesEveryCreatedContainerBeforeDeletingNetwork(t *testing.T) {
	g := simpleTask(t)
	cleanup := NewCleanupStage(g)
	emittedSet := map[string]bool{}
	emitted := func(target string) bool { return emittedSet[target] }

	log := Log{
		{Kind: EventTaskNetworkCreated},
		{Kind: EventContainerCreated, Container: "db"},
		{Kind: EventContainerStarted, Container: "db"},
		{Kind: EventContainerCreated, Container: "main"},
		{Kind: EventContainerStartFailed, Container: "main", Message: "boom"},
	}

	var order []string
	for i := 0; i < 20; i++ {
		step, ok := cleanup.Next(log, g, emitted)
		if !ok {
			break
		}
		order = append(order, step.Target())
		emittedSet[step.Target()] = true
		switch step.Target() {
		case "StopContainer:db":
			log = append(log, Event{Kind: EventContainerStopped, Container: "db"})
		case "RemoveContainer:db":
			log = append(log, Event{Kind: EventContainerRemoved, Container: "db"})
		case "RemoveContainer:main":
			log = append(log, Event{Kind: EventContainerRemoved, Container: "main"})
		case "DeleteTaskNetwork":
			log = append(log, Event{Kind: EventTaskNetworkDeleted})
		}
	}

	last := order[len(order)-1]
	if last != "DeleteTaskNetwork" {
		t.Fatalf("expected DeleteTaskNetwork last, got order %v", order)
	}
	for _, target := range []string{"StopContainer:db", "RemoveContainer:db", "RemoveContainer:main"} {
		found := false
		for _, v := range order {
			if v == target {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected %s in cleanup order, got %v", target, order)
		}
	}
	// main was never started (StartFailed), so StopContainer:main must
	// never be scheduled.
	for _, v := range order {
		if v == "StopContainer:main" {
			t.Fatalf("StopContainer:main scheduled despite main never starting")
		}
	}
	if !cleanup.IsExhausted(log, g) {
		t.Fatalf("expected cleanup stage exhausted once network deleted")
	}
}
