// Package fakedriver is an in-repo ports.EngineDriver test double so the
// core test suite (engine, dispatch) never touches a real Docker daemon.
package fakedriver

import (
	"context"
	"fmt"
	"sync"

	"github.com/taskforge-dev/taskrun/internal/domain/task"
	"github.com/taskforge-dev/taskrun/internal/ports"
)

// Script lets a test script a specific container's outcome for one driver
// operation; zero value means "succeed immediately".
type Script struct {
	FailBuild   string // non-empty: BuildImage for this container fails with this message
	FailCreate  string
	FailStart   string
	FailHealthy string
	RunExitCode int
	RunErr      string
}

// Driver is a deterministic, in-memory ports.EngineDriver. Every call is
// recorded so tests can assert ordering and concurrency without a real
// engine.
type Driver struct {
	mu sync.Mutex

	Scripts     map[string]Script // keyed by container name
	FailPullRef map[string]string // keyed by pull ref, for containers pulled (not built)

	Calls       []string
	nextID      int
	InFlight    int
	MaxInFlight int
	nameForID   map[string]string

	RunBarrier func(container string) // invoked mid-RunContainer/BuildImage for concurrency tests
}

// New builds an empty fake driver; populate Scripts to force failures.
func New() *Driver {
	return &Driver{
		Scripts:     make(map[string]Script),
		FailPullRef: make(map[string]string),
		nameForID:   make(map[string]string),
	}
}

func (d *Driver) scriptForID(id string) Script {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Scripts[d.nameForID[id]]
}

func (d *Driver) record(call string) {
	d.mu.Lock()
	d.Calls = append(d.Calls, call)
	d.mu.Unlock()
}

func (d *Driver) enter() {
	d.mu.Lock()
	d.InFlight++
	if d.InFlight > d.MaxInFlight {
		d.MaxInFlight = d.InFlight
	}
	d.mu.Unlock()
}

func (d *Driver) leave() {
	d.mu.Lock()
	d.InFlight--
	d.mu.Unlock()
}

func (d *Driver) scriptFor(container string) Script {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Scripts[container]
}

var _ ports.EngineDriver = (*Driver)(nil)

func (d *Driver) BuildImage(ctx context.Context, src task.ImageSource, container string, onProgress func(ports.BuildProgress)) error {
	d.enter()
	defer d.leave()
	d.record("BuildImage:" + container)
	if d.RunBarrier != nil {
		d.RunBarrier(container)
	}
	onProgress(ports.BuildProgress{Step: 1, Total: 1, Message: "building"})
	if s := d.scriptFor(container); s.FailBuild != "" {
		return fmt.Errorf("%s", s.FailBuild)
	}
	return nil
}

func (d *Driver) PullImage(ctx context.Context, ref string, onProgress func(ports.BuildProgress)) error {
	d.record("PullImage:" + ref)
	d.mu.Lock()
	fail := d.FailPullRef[ref]
	d.mu.Unlock()
	if fail != "" {
		return fmt.Errorf("%s", fail)
	}
	return nil
}

func (d *Driver) CreateNetwork(ctx context.Context, name string) error {
	d.record("CreateNetwork:" + name)
	return nil
}

func (d *Driver) CreateContainer(ctx context.Context, c *task.Container, networkName string) (string, error) {
	d.enter()
	defer d.leave()
	d.record("CreateContainer:" + c.Name)
	if s := d.scriptFor(c.Name); s.FailCreate != "" {
		return "", fmt.Errorf("%s", s.FailCreate)
	}
	d.mu.Lock()
	d.nextID++
	id := fmt.Sprintf("fake-%d", d.nextID)
	d.nameForID[id] = c.Name
	d.mu.Unlock()
	return id, nil
}

func (d *Driver) StartContainer(ctx context.Context, containerID string) error {
	d.record("StartContainer:" + containerID)
	if s := d.scriptForID(containerID); s.FailStart != "" {
		return fmt.Errorf("%s", s.FailStart)
	}
	return nil
}

func (d *Driver) WaitForHealthy(ctx context.Context, containerID string, hc *task.HealthCheck) error {
	d.record("WaitForHealthy:" + containerID)
	if s := d.scriptForID(containerID); s.FailHealthy != "" {
		return fmt.Errorf("%s", s.FailHealthy)
	}
	return nil
}

func (d *Driver) RunContainer(ctx context.Context, containerID string) (int, error) {
	d.enter()
	defer d.leave()
	d.record("RunContainer:" + containerID)
	if d.RunBarrier != nil {
		d.RunBarrier(containerID)
	}
	s := d.scriptForID(containerID)
	if s.RunErr != "" {
		return 0, fmt.Errorf("%s", s.RunErr)
	}
	return s.RunExitCode, nil
}

func (d *Driver) StopContainer(ctx context.Context, containerID string) error {
	d.record("StopContainer:" + containerID)
	return nil
}

func (d *Driver) RemoveContainer(ctx context.Context, containerID string) error {
	d.record("RemoveContainer:" + containerID)
	return nil
}

func (d *Driver) DeleteNetwork(ctx context.Context, name string) error {
	d.record("DeleteNetwork:" + name)
	return nil
}
