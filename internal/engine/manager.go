package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/taskforge-dev/taskrun/internal/domain/task"
	"github.com/taskforge-dev/taskrun/internal/ports"
)

// EventSink is the channel a StepRunner posts events through. The manager
// supplies one per dispatched step; posting runs the UI listener, the state
// machine, and the diagnostics writer synchronously on the runner's
// goroutine.
type EventSink func(task.Event)

// StepRunner is the step runner/dispatcher contract (C6) the manager drains
// steps into. Implementations emit a `…Started` event where the step kind
// has one (image build and pull), zero or more progress events, and exactly
// one terminal event.
type StepRunner interface {
	Run(ctx context.Context, step task.Step, sink EventSink, opts RunOptions)
}

// Manager is the parallel execution manager (C5): it drains a StateMachine
// with a worker pool bounded by RunOptions.LevelOfParallelism, and plumbs
// every event through "UI first, state machine second" (spec.md invariant
// P2) before acting on it itself.
type Manager struct {
	sm     *StateMachine
	runner StepRunner
	ui     ports.UIListener
	diag   ports.DiagnosticsWriter
	opts   RunOptions

	mu     sync.Mutex
	active int
	done   chan struct{} // signalled whenever a worker finishes
}

// NewManager wires a manager for a single Run call.
func NewManager(sm *StateMachine, runner StepRunner, ui ports.UIListener, diag ports.DiagnosticsWriter, opts RunOptions) *Manager {
	if ui == nil {
		ui = ports.NoopUIListener{}
	}
	return &Manager{
		sm:     sm,
		runner: runner,
		ui:     ui,
		diag:   diag,
		opts:   opts.ApplyDefaults(),
		done:   make(chan struct{}, 1),
	}
}

// PostEvent is the entry point used from outside the worker loop — e.g. a
// signal handler posting UserInterruptedExecution. It obeys the same
// UI-first, state-machine-second ordering as in-loop posts.
func (m *Manager) PostEvent(e task.Event) {
	m.postEvent(e)
}

func (m *Manager) postEvent(e task.Event) {
	m.ui.PostEvent(e)
	m.sm.PostEvent(e)
	if m.diag != nil {
		extras := map[string]interface{}{"kind": string(e.Kind)}
		if e.Container != "" {
			extras["container"] = e.Container
		}
		m.diag.Write("info", e.String(), extras)
	}
}

// Run drives the worker pool to completion and returns the derived exit
// status (spec.md §4.5 termination clause).
func (m *Manager) Run(ctx context.Context) TaskExitStatus {
	var wg sync.WaitGroup

	for {
		m.mu.Lock()
		activeCount := m.active
		m.mu.Unlock()

		if m.sm.IsFinished() && activeCount == 0 {
			break
		}

		if activeCount >= m.opts.LevelOfParallelism {
			<-m.done
			continue
		}

		step, ok := m.sm.PopNextStep(false)
		if !ok {
			if activeCount == 0 {
				// No step is enabled and nothing is running: either the
				// task finished, or Running stalled without a worker left
				// to unstick it — either way there is nothing further to
				// wait for.
				break
			}
			<-m.done
			continue
		}

		m.mu.Lock()
		m.active++
		m.mu.Unlock()

		m.ui.OnStartingStep(step)

		wg.Add(1)
		go func(step task.Step) {
			defer wg.Done()
			defer func() {
				m.mu.Lock()
				m.active--
				m.mu.Unlock()
				select {
				case m.done <- struct{}{}:
				default:
				}
			}()
			m.runStep(ctx, step)
		}(step)
	}

	wg.Wait()
	return m.deriveExitStatus()
}

// runStep invokes the dispatcher for a single step, recovering from any
// unhandled panic and folding it into ExecutionFailedEvent exactly once
// (spec.md §4.5, error category 2).
func (m *Manager) runStep(ctx context.Context, step task.Step) {
	defer func() {
		if r := recover(); r != nil {
			m.postEvent(task.Event{
				Kind:    task.EventExecutionFailed,
				Message: fmt.Sprintf("panic: %v", r),
			})
		}
	}()
	m.runner.Run(ctx, step, m.postEvent, m.opts)
}

// deriveExitStatus inspects the accumulated log once the manager has
// drained: success iff the main container ran to completion and no
// resource that had been successfully created failed to tear down.
func (m *Manager) deriveExitStatus() TaskExitStatus {
	log := m.sm.Snapshot()

	if log.HasAny("", task.EventExecutionFailed) {
		msg := ""
		for _, e := range log {
			if e.Kind == task.EventExecutionFailed {
				msg = e.Message
			}
		}
		return TaskExitStatus{Reason: ExitReasonExecutionFailed, Message: msg}
	}

	for _, e := range log {
		if e.Kind == task.EventContainerRemovalFailed || e.Kind == task.EventTaskNetworkDeletionFailed || e.Kind == task.EventContainerStopFailed {
			return TaskExitStatus{Reason: ExitReasonCleanupFailed, Message: "one or more resources were not fully torn down"}
		}
	}

	for _, e := range log {
		if e.Kind == task.EventRunningContainerExited {
			status := TaskExitStatus{HasExitCode: true, ExitCode: e.ExitCode}
			if e.ExitCode != 0 {
				status.Reason = ExitReasonExecutionFailed
				status.Message = fmt.Sprintf("main container exited with code %d", e.ExitCode)
			}
			return status
		}
	}

	if log.HasAny("", task.EventUserInterruptedRun) {
		return TaskExitStatus{Reason: ExitReasonInterrupted, Message: "interrupted before the main container ran"}
	}

	return TaskExitStatus{Reason: ExitReasonExecutionFailed, Message: "task ended before the main container ran"}
}
