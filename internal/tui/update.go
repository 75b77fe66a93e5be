package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskforge-dev/taskrun/internal/domain/task"
)

// Update handles Bubbletea messages and advances model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, nil
	case StepStartMsg:
		m.ensure(msg.Target, msg.Step)
		m.setStatus(msg.Target, StatusRunning, "")
		return m, nil
	case EventMsg:
		m.applyEvent(msg.Event)
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.cancelled = true
			m.finished = true
		}
		return m, nil
	case tea.QuitMsg:
		m.finished = true
		return m, nil
	}
	return m, nil
}

// applyEvent folds a domain event onto the step it reports on, inferred
// from the event's kind and container (see stepTargetForEvent).
func (m *Model) applyEvent(e task.Event) {
	switch e.Kind {
	case task.EventExecutionFailed:
		m.failed = true
		m.finished = true
		m.notes = append(m.notes, e.String())
		return
	case task.EventUserInterruptedRun:
		m.cancelled = true
		m.finished = true
		return
	}

	target, ok := stepTargetForEvent(e)
	if !ok {
		return
	}

	if e.IsFailure() {
		m.setStatus(target, StatusFailed, e.String())
		return
	}
	if isTerminalSuccess(e.Kind) {
		msg := ""
		if e.Kind == task.EventRunningContainerExited {
			msg = e.String()
		}
		m.setStatus(target, StatusSucceeded, msg)
	}
}

// stepTargetForEvent maps an event back to the step-target key it reports
// progress for, mirroring task.Step.Target()'s "Kind:Container" shape.
func stepTargetForEvent(e task.Event) (string, bool) {
	kind, ok := stepKindForEvent(e.Kind)
	if !ok {
		return "", false
	}
	if e.Container == "" {
		return string(kind), true
	}
	return string(kind) + ":" + e.Container, true
}

func stepKindForEvent(k task.EventKind) (task.StepKind, bool) {
	switch k {
	case task.EventImageBuildStarted, task.EventImageBuildProgress, task.EventImageBuildSucceeded, task.EventImageBuildFailed:
		return task.StepBuildImage, true
	case task.EventImagePullStarted, task.EventImagePullSucceeded, task.EventImagePullFailed:
		return task.StepPullImage, true
	case task.EventTaskNetworkCreated, task.EventTaskNetworkCreationFailed:
		return task.StepCreateNetwork, true
	case task.EventContainerCreated, task.EventContainerCreationFailed:
		return task.StepCreateContainer, true
	case task.EventContainerStarted, task.EventContainerStartFailed:
		return task.StepStartContainer, true
	case task.EventContainerBecameHealthy, task.EventContainerDidNotBecomeHealthy:
		return task.StepWaitForHealthy, true
	case task.EventRunningContainerExited:
		return task.StepRunContainer, true
	case task.EventContainerStopped, task.EventContainerStopFailed:
		return task.StepStopContainer, true
	case task.EventContainerRemoved, task.EventContainerRemovalFailed:
		return task.StepRemoveContainer, true
	case task.EventTaskNetworkDeleted, task.EventTaskNetworkDeletionFailed:
		return task.StepDeleteNetwork, true
	default:
		return "", false
	}
}

func isTerminalSuccess(k task.EventKind) bool {
	switch k {
	case task.EventImageBuildSucceeded, task.EventImagePullSucceeded, task.EventTaskNetworkCreated,
		task.EventContainerCreated, task.EventContainerStarted, task.EventContainerBecameHealthy,
		task.EventRunningContainerExited, task.EventContainerStopped, task.EventContainerRemoved,
		task.EventTaskNetworkDeleted:
		return true
	default:
		return false
	}
}
