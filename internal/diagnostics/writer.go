// Package diagnostics implements the structured log writer consumed by the
// execution manager (spec.md §6, P6): one JSON object per line, flushed
// immediately, the stream never closed by the writer itself.
package diagnostics

import (
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskforge-dev/taskrun/internal/ports"
)

// timestampFormat is exactly YYYY-MM-DDTHH:MM:SS.ffffffZ — six-digit
// fractional seconds, UTC — as spec.md §6 requires.
const timestampFormat = "2006-01-02T15:04:05.000000Z07:00"

func init() {
	zerolog.TimestampFieldName = "@timestamp"
	zerolog.LevelFieldName = "@severity"
	zerolog.MessageFieldName = "@message"
	zerolog.TimeFieldFormat = timestampFormat
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
}

// Writer implements ports.DiagnosticsWriter over a zerolog logger whose
// field names have been renamed to the `@`-prefixed triple the external
// structured-log contract requires.
type Writer struct {
	logger zerolog.Logger
}

// New wraps w (never closed by Writer) as a diagnostics sink.
func New(w io.Writer) *Writer {
	return &Writer{logger: zerolog.New(w).With().Timestamp().Logger()}
}

var _ ports.DiagnosticsWriter = (*Writer)(nil)

// Write emits exactly one JSON line: `{@timestamp, @severity, @message} ∪
// extras`, no more, no fewer (spec.md P6).
func (w *Writer) Write(severity string, message string, extras map[string]interface{}) {
	level, err := zerolog.ParseLevel(severity)
	if err != nil {
		level = zerolog.InfoLevel
	}
	ev := w.logger.WithLevel(level)
	for k, v := range extras {
		ev = ev.Interface(k, v)
	}
	ev.Msg(message)
}
