package ports

// DiagnosticsWriter is the structured log sink consumed by C5 for
// operational diagnostics, distinct from the human-facing UI listener. One
// JSON object per call, never closed by the writer (spec.md §6, P6).
type DiagnosticsWriter interface {
	Write(severity string, message string, extras map[string]interface{})
}
