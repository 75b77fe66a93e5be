package dispatch_test

import (
	"context"
	"testing"

	"github.com/taskforge-dev/taskrun/internal/containerdriver/fakedriver"
	"github.com/taskforge-dev/taskrun/internal/dispatch"
	"github.com/taskforge-dev/taskrun/internal/domain/task"
	"github.com/taskforge-dev/taskrun/internal/engine"
)

func TestDispatcherCreateContainerAppendsAdditionalArgsToMainOnly(t *testing.T) {
	tk := &task.Task{
		Name: "t1",
		Main: "web",
		Containers: map[string]*task.Container{
			"web": {Name: "web", Image: task.ImageSource{PullRef: "web:latest"}, Command: []string{"serve"}},
		},
	}
	g, err := tk.Graph()
	if err != nil {
		t.Fatalf("Graph(): %v", err)
	}

	driver := fakedriver.New()
	d := dispatch.New(driver, g, "net")

	var events []task.Event
	sink := func(e task.Event) { events = append(events, e) }

	d.Run(context.Background(), task.Step{Kind: task.StepCreateContainer, Container: "web"}, sink,
		engine.RunOptions{AdditionalCommandArgs: []string{"--flag"}})

	if len(events) != 1 || events[0].Kind != task.EventContainerCreated {
		t.Fatalf("expected a single ContainerCreated event, got %v", events)
	}
	// the original container definition must be untouched (no mutation
	// leaking across calls).
	if len(tk.Containers["web"].Command) != 1 {
		t.Fatalf("expected original container Command untouched, got %v", tk.Containers["web"].Command)
	}
}

func TestDispatcherStepEmitsExactlyOneTerminalEventOnFailure(t *testing.T) {
	tk := &task.Task{
		Name: "t1",
		Main: "web",
		Containers: map[string]*task.Container{
			"web": {Name: "web", Image: task.ImageSource{PullRef: "web:latest"}},
		},
	}
	g, _ := tk.Graph()

	driver := fakedriver.New()
	driver.FailPullRef["web:latest"] = "registry unreachable"
	d := dispatch.New(driver, g, "net")

	var events []task.Event
	sink := func(e task.Event) { events = append(events, e) }
	d.Run(context.Background(), task.Step{Kind: task.StepPullImage, Container: "web", Image: task.ImageSource{PullRef: "web:latest"}}, sink, engine.RunOptions{})

	if len(events) != 2 {
		t.Fatalf("expected Started + Failed, got %v", events)
	}
	if events[0].Kind != task.EventImagePullStarted {
		t.Fatalf("expected first event ImagePullStarted, got %v", events[0].Kind)
	}
	if events[1].Kind != task.EventImagePullFailed {
		t.Fatalf("expected second event ImagePullFailed, got %v", events[1].Kind)
	}
}
