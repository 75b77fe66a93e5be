package components

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSummary(t *testing.T) {
	t.Parallel()

	t.Run("creates summary with data", func(t *testing.T) {
		t.Parallel()
		data := SummaryData{
			Total:     10,
			Completed: 5,
			Finished:  false,
		}
		summary := NewSummary(data)
		require.Equal(t, data, summary.data)
	})
}

func TestSummaryView(t *testing.T) {
	t.Parallel()

	t.Run("renders empty summary", func(t *testing.T) {
		t.Parallel()
		summary := NewSummary(SummaryData{})
		require.Equal(t, "", summary.View())
	})

	t.Run("renders steps progress", func(t *testing.T) {
		t.Parallel()
		summary := NewSummary(SummaryData{Total: 10, Completed: 5})
		require.Contains(t, summary.View(), "Steps: 5/10 completed")
	})

	t.Run("renders successful completion", func(t *testing.T) {
		t.Parallel()
		summary := NewSummary(SummaryData{Total: 10, Completed: 10, Finished: true})
		view := summary.View()
		require.Contains(t, view, "Steps: 10/10 completed")
		require.Contains(t, view, "Execution finished successfully")
	})

	t.Run("renders partial completion when finished", func(t *testing.T) {
		t.Parallel()
		summary := NewSummary(SummaryData{Total: 10, Completed: 7, Finished: true})
		view := summary.View()
		require.Contains(t, view, "Steps: 7/10 completed")
		require.Contains(t, view, "Execution finished with pending steps")
	})

	t.Run("renders cancelled execution", func(t *testing.T) {
		t.Parallel()
		summary := NewSummary(SummaryData{Total: 10, Completed: 3, Cancelled: true})
		require.Contains(t, summary.View(), "Execution cancelled")
	})

	t.Run("renders failed execution", func(t *testing.T) {
		t.Parallel()
		summary := NewSummary(SummaryData{Total: 10, Completed: 3, Finished: true, Failed: true})
		view := summary.View()
		require.Contains(t, view, "Execution failed")
		require.NotContains(t, view, "finished successfully")
	})

	t.Run("renders notes", func(t *testing.T) {
		t.Parallel()
		summary := NewSummary(SummaryData{
			Total: 5, Completed: 5, Finished: true,
			Notes: []string{"ExecutionFailedEvent(message: 'panic: boom')"},
		})
		view := summary.View()
		require.Contains(t, view, "Notes:")
		require.Contains(t, view, "panic: boom")
	})

	t.Run("renders no notes section when empty", func(t *testing.T) {
		t.Parallel()
		summary := NewSummary(SummaryData{Total: 5, Completed: 5, Finished: true})
		require.NotContains(t, summary.View(), "Notes:")
	})

	t.Run("multiline output format", func(t *testing.T) {
		t.Parallel()
		summary := NewSummary(SummaryData{
			Total: 10, Completed: 10, Finished: true,
			Notes: []string{"one"},
		})
		lines := strings.Split(summary.View(), "\n")
		require.True(t, len(lines) >= 3)
	})
}

func TestSummaryViewEdgeCases(t *testing.T) {
	t.Parallel()

	t.Run("cancelled execution shows before finished message", func(t *testing.T) {
		t.Parallel()
		summary := NewSummary(SummaryData{Total: 10, Completed: 5, Finished: true, Cancelled: true})
		view := summary.View()
		require.Contains(t, view, "Execution cancelled")
		require.NotContains(t, view, "finished successfully")
		require.NotContains(t, view, "finished with pending steps")
	})

	t.Run("zero completed with finished flag", func(t *testing.T) {
		t.Parallel()
		summary := NewSummary(SummaryData{Total: 5, Completed: 0, Finished: true})
		view := summary.View()
		require.Contains(t, view, "Steps: 0/5 completed")
		require.Contains(t, view, "Execution finished with pending steps")
	})
}
