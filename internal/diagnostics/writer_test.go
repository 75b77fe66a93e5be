package diagnostics_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/taskforge-dev/taskrun/internal/diagnostics"
)

func TestWriteRoundtripsExactFieldSet(t *testing.T) {
	var buf bytes.Buffer
	w := diagnostics.New(&buf)

	w.Write("info", "This is the message", map[string]interface{}{
		"some-text": "This is some text",
		"some-int":  123,
	})

	line := buf.String()
	if !strings.HasSuffix(line, "\n") {
		t.Fatalf("expected trailing newline, got %q", line)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("failed to parse emitted JSON: %v", err)
	}

	want := map[string]bool{"@timestamp": true, "@severity": true, "@message": true, "some-text": true, "some-int": true}
	if len(decoded) != len(want) {
		t.Fatalf("expected exactly %d keys, got %d: %v", len(want), len(decoded), decoded)
	}
	for k := range want {
		if _, ok := decoded[k]; !ok {
			t.Fatalf("missing expected key %q in %v", k, decoded)
		}
	}

	if decoded["@message"] != "This is the message" {
		t.Fatalf("unexpected @message: %v", decoded["@message"])
	}
	if decoded["@severity"] != "info" {
		t.Fatalf("unexpected @severity: %v", decoded["@severity"])
	}
	ts, ok := decoded["@timestamp"].(string)
	if !ok || !strings.Contains(ts, ".") {
		t.Fatalf("expected fractional-second timestamp string, got %v", decoded["@timestamp"])
	}
}

func TestWriteNeverClosesStream(t *testing.T) {
	var buf bytes.Buffer
	w := diagnostics.New(&buf)
	w.Write("info", "one", nil)
	w.Write("error", "two", nil)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
}
