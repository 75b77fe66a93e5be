package components

import (
	"github.com/taskforge-dev/taskrun/internal/domain/task"
)

// StepEntry represents a single step for rendering.
type StepEntry struct {
	Target  string
	Step    task.Step
	Status  string
	Message string
}

// StepList renders a list of steps with their current status.
type StepList struct {
	entries []StepEntry
}

// NewStepList constructs a step list component.
func NewStepList(order []string, steps map[string]StepEntry) StepList {
	entries := make([]StepEntry, 0, len(order))
	for _, target := range order {
		entries = append(entries, steps[target])
	}
	return StepList{entries: entries}
}

// Entries returns the ordered step entries.
func (s StepList) Entries() []StepEntry {
	clone := make([]StepEntry, len(s.entries))
	copy(clone, s.entries)
	return clone
}
