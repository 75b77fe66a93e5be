// Package dispatch implements the step runner / dispatcher (C6): it maps
// each task.Step variant to an operation on a ports.EngineDriver and emits
// the Started/Progress/terminal events the rules engine expects back.
package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/taskforge-dev/taskrun/internal/domain/task"
	"github.com/taskforge-dev/taskrun/internal/engine"
	"github.com/taskforge-dev/taskrun/internal/ports"
)

// Dispatcher implements engine.StepRunner against a ports.EngineDriver. It
// tracks the container-ID a step's Container name resolves to, since the
// driver's create/start/wait/run/stop/remove operations all key off IDs
// handed back by CreateContainer.
type Dispatcher struct {
	driver ports.EngineDriver
	graph  *task.Graph

	mu          sync.Mutex
	containerID map[string]string
	networkName string
}

// New builds a dispatcher for a single run against graph g.
func New(driver ports.EngineDriver, g *task.Graph, networkName string) *Dispatcher {
	return &Dispatcher{
		driver:      driver,
		graph:       g,
		containerID: make(map[string]string),
		networkName: networkName,
	}
}

func (d *Dispatcher) idFor(container string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.containerID[container]
}

func (d *Dispatcher) setID(container, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.containerID[container] = id
}

// Run implements engine.StepRunner. It emits exactly one terminal event per
// step; progress events are only ever emitted before it (spec.md §4.6).
func (d *Dispatcher) Run(ctx context.Context, step task.Step, sink engine.EventSink, opts engine.RunOptions) {
	switch step.Kind {
	case task.StepBuildImage:
		d.buildImage(ctx, step, sink)
	case task.StepPullImage:
		d.pullImage(ctx, step, sink)
	case task.StepCreateNetwork:
		d.createNetwork(ctx, sink)
	case task.StepCreateContainer:
		d.createContainer(ctx, step, sink, opts)
	case task.StepStartContainer:
		d.startContainer(ctx, step, sink)
	case task.StepWaitForHealthy:
		d.waitForHealthy(ctx, step, sink)
	case task.StepRunContainer:
		d.runContainer(ctx, step, sink)
	case task.StepStopContainer:
		d.stopContainer(ctx, step, sink)
	case task.StepRemoveContainer:
		d.removeContainer(ctx, step, sink)
	case task.StepDeleteNetwork:
		d.deleteNetwork(ctx, sink)
	default:
		sink(task.Event{Kind: task.EventExecutionFailed, Message: fmt.Sprintf("unknown step kind %q", step.Kind)})
	}
}

func (d *Dispatcher) buildImage(ctx context.Context, step task.Step, sink engine.EventSink) {
	sink(task.Event{Kind: task.EventImageBuildStarted, Container: step.Container, Image: step.Image})
	err := d.driver.BuildImage(ctx, step.Image, step.Container, func(p ports.BuildProgress) {
		sink(task.Event{
			Kind:            task.EventImageBuildProgress,
			Container:       step.Container,
			Image:           step.Image,
			ProgressCurrent: p.Step,
			ProgressTotal:   p.Total,
			Message:         p.Message,
		})
	})
	if err != nil {
		sink(task.Event{Kind: task.EventImageBuildFailed, Container: step.Container, Image: step.Image, Message: err.Error()})
		return
	}
	sink(task.Event{Kind: task.EventImageBuildSucceeded, Container: step.Container, Image: step.Image})
}

func (d *Dispatcher) pullImage(ctx context.Context, step task.Step, sink engine.EventSink) {
	sink(task.Event{Kind: task.EventImagePullStarted, Container: step.Container, Image: step.Image})
	err := d.driver.PullImage(ctx, step.Image.PullRef, func(p ports.BuildProgress) {})
	if err != nil {
		sink(task.Event{Kind: task.EventImagePullFailed, Container: step.Container, Image: step.Image, Message: err.Error()})
		return
	}
	sink(task.Event{Kind: task.EventImagePullSucceeded, Container: step.Container, Image: step.Image})
}

func (d *Dispatcher) createNetwork(ctx context.Context, sink engine.EventSink) {
	if err := d.driver.CreateNetwork(ctx, d.networkName); err != nil {
		sink(task.Event{Kind: task.EventTaskNetworkCreationFailed, Message: err.Error()})
		return
	}
	sink(task.Event{Kind: task.EventTaskNetworkCreated})
}

func (d *Dispatcher) createContainer(ctx context.Context, step task.Step, sink engine.EventSink, opts engine.RunOptions) {
	node, ok := d.graph.Nodes[step.Container]
	if !ok {
		sink(task.Event{Kind: task.EventContainerCreationFailed, Container: step.Container, Message: "container not found in graph"})
		return
	}
	c := node.Container
	if step.Container == d.graph.Main && len(opts.AdditionalCommandArgs) > 0 {
		withArgs := *c
		withArgs.Command = append(append([]string(nil), c.Command...), opts.AdditionalCommandArgs...)
		c = &withArgs
	}
	id, err := d.driver.CreateContainer(ctx, c, d.networkName)
	if err != nil {
		sink(task.Event{Kind: task.EventContainerCreationFailed, Container: step.Container, Message: err.Error()})
		return
	}
	d.setID(step.Container, id)
	sink(task.Event{Kind: task.EventContainerCreated, Container: step.Container, ContainerID: id})
}

func (d *Dispatcher) startContainer(ctx context.Context, step task.Step, sink engine.EventSink) {
	id := d.idFor(step.Container)
	if err := d.driver.StartContainer(ctx, id); err != nil {
		sink(task.Event{Kind: task.EventContainerStartFailed, Container: step.Container, Message: err.Error()})
		return
	}
	sink(task.Event{Kind: task.EventContainerStarted, Container: step.Container, ContainerID: id})
}

func (d *Dispatcher) waitForHealthy(ctx context.Context, step task.Step, sink engine.EventSink) {
	node := d.graph.Nodes[step.Container]
	id := d.idFor(step.Container)
	if err := d.driver.WaitForHealthy(ctx, id, node.Container.Health); err != nil {
		sink(task.Event{Kind: task.EventContainerDidNotBecomeHealthy, Container: step.Container, Reason: err.Error()})
		return
	}
	sink(task.Event{Kind: task.EventContainerBecameHealthy, Container: step.Container})
}

func (d *Dispatcher) runContainer(ctx context.Context, step task.Step, sink engine.EventSink) {
	id := d.idFor(step.Container)
	exitCode, err := d.driver.RunContainer(ctx, id)
	if err != nil {
		sink(task.Event{Kind: task.EventExecutionFailed, Message: fmt.Sprintf("RunContainer(%s): %s", step.Container, err.Error())})
		return
	}
	sink(task.Event{Kind: task.EventRunningContainerExited, Container: step.Container, ExitCode: exitCode})
}

func (d *Dispatcher) stopContainer(ctx context.Context, step task.Step, sink engine.EventSink) {
	id := d.idFor(step.Container)
	if err := d.driver.StopContainer(ctx, id); err != nil {
		sink(task.Event{Kind: task.EventContainerStopFailed, Container: step.Container, Message: err.Error()})
		return
	}
	sink(task.Event{Kind: task.EventContainerStopped, Container: step.Container})
}

func (d *Dispatcher) removeContainer(ctx context.Context, step task.Step, sink engine.EventSink) {
	id := d.idFor(step.Container)
	if err := d.driver.RemoveContainer(ctx, id); err != nil {
		sink(task.Event{Kind: task.EventContainerRemovalFailed, Container: step.Container, Message: err.Error()})
		return
	}
	sink(task.Event{Kind: task.EventContainerRemoved, Container: step.Container})
}

func (d *Dispatcher) deleteNetwork(ctx context.Context, sink engine.EventSink) {
	if err := d.driver.DeleteNetwork(ctx, d.networkName); err != nil {
		sink(task.Event{Kind: task.EventTaskNetworkDeletionFailed, Message: err.Error()})
		return
	}
	sink(task.Event{Kind: task.EventTaskNetworkDeleted})
}
