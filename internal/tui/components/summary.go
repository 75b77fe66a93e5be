package components

import (
	"fmt"
	"strings"
)

// SummaryData aggregates counts for rendering a run's closing summary.
type SummaryData struct {
	Total     int
	Completed int
	Finished  bool
	Cancelled bool
	Failed    bool
	Notes     []string
}

// Summary renders a textual execution summary.
type Summary struct {
	data SummaryData
}

// NewSummary creates a new Summary component.
func NewSummary(data SummaryData) Summary {
	return Summary{data: data}
}

// View renders the summary.
func (s Summary) View() string {
	var lines []string
	if s.data.Total > 0 {
		lines = append(lines, fmt.Sprintf("Steps: %d/%d completed", s.data.Completed, s.data.Total))
	}

	switch {
	case s.data.Cancelled:
		lines = append(lines, "Execution cancelled")
	case s.data.Failed:
		lines = append(lines, "Execution failed")
	case s.data.Finished && s.data.Total > 0:
		if s.data.Completed == s.data.Total {
			lines = append(lines, "Execution finished successfully")
		} else {
			lines = append(lines, "Execution finished with pending steps")
		}
	}

	if len(s.data.Notes) > 0 {
		lines = append(lines, "Notes:")
		for _, n := range s.data.Notes {
			lines = append(lines, fmt.Sprintf("  %s", n))
		}
	}

	return strings.Join(lines, "\n")
}
