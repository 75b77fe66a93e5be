// Package tui renders the live progress of a task run: one line per
// container-lifecycle step, a progress bar, and a closing summary.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskforge-dev/taskrun/internal/domain/task"
	"github.com/taskforge-dev/taskrun/internal/tui/components"
)

// Status is a step's display state, independent of the domain EventKind
// vocabulary so the view package never has to switch on it directly.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// StepStartMsg reports that the manager has dispatched a step to a worker.
type StepStartMsg struct {
	Target string
	Step   task.Step
}

// EventMsg carries a single domain event observed from the manager.
type EventMsg struct {
	Event task.Event
}

type tickMsg struct{}

// Model is the Bubbletea state for a task run's execution TUI.
type Model struct {
	taskName  string
	steps     map[string]components.StepEntry
	order     []string
	total     int
	done      int
	finished  bool
	cancelled bool
	failed    bool
	notes     []string

	nonInteractive bool
}

// NewModel constructs a TUI model for the named task.
func NewModel(taskName string, nonInteractive bool) Model {
	return Model{
		taskName:       taskName,
		steps:          make(map[string]components.StepEntry),
		order:          make([]string, 0),
		nonInteractive: nonInteractive,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(time.Time) tea.Msg { return tickMsg{} })
}

// IsFinished reports whether the run has reached a terminal state.
func (m Model) IsFinished() bool { return m.finished }

func (m *Model) ensure(target string, step task.Step) {
	if _, exists := m.steps[target]; !exists {
		m.steps[target] = components.StepEntry{Target: target, Step: step, Status: string(StatusPending)}
		m.order = append(m.order, target)
		m.total++
	}
}

func (m *Model) setStatus(target string, status Status, message string) {
	entry, ok := m.steps[target]
	if !ok {
		entry = components.StepEntry{Target: target}
		m.order = append(m.order, target)
		m.total++
	}
	wasTerminal := entry.Status == string(StatusSucceeded) || entry.Status == string(StatusFailed)
	entry.Status = string(status)
	if message != "" {
		entry.Message = message
	}
	m.steps[target] = entry
	if !wasTerminal && (status == StatusSucceeded || status == StatusFailed) {
		m.done++
	}
}
