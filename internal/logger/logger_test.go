package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tc := range cases {
		if got := ParseLevel(tc.in); got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSetupTextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := SetupWithWriter(&buf, "debug", FormatText)

	log.Debug("hello", "key", "value")

	out := buf.String()
	if !strings.Contains(out, "hello") || !strings.Contains(out, "key=value") {
		t.Errorf("unexpected text output: %q", out)
	}
	if !strings.Contains(out, "service=zep-mcp-server") {
		t.Errorf("expected service attribute in output: %q", out)
	}
}

func TestSetupJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := SetupWithWriter(&buf, "info", FormatJSON)

	log.Info("started")

	out := buf.String()
	if !strings.Contains(out, `"msg":"started"`) {
		t.Errorf("expected JSON output, got %q", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := SetupWithWriter(&buf, "error", FormatText)

	log.Info("suppressed")
	if buf.Len() != 0 {
		t.Errorf("info message should be suppressed at error level, got %q", buf.String())
	}

	log.Error("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Error("error message should be emitted at error level")
	}
}
