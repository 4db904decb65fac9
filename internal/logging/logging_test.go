package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want log.Level
	}{
		{"debug", log.DebugLevel},
		{"INFO", log.InfoLevel},
		{"warning", log.WarnLevel},
		{"", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"nonsense", log.WarnLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewRespectsLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Options{Level: "info", Format: "json"})

	logger.Debug("hidden")
	logger.Info("moved task", "task", "t1")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug line written at info level")
	}
	if !strings.Contains(out, `"msg":"moved task"`) || !strings.Contains(out, `"task":"t1"`) {
		t.Errorf("unexpected json output: %q", out)
	}
}

func TestDiscard(t *testing.T) {
	Discard().Error("nothing") // must not panic
}
