package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestQuiet(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	defer func() { Quiet = false }()

	Info("fit %d", 1)
	if !strings.Contains(buf.String(), "pendulab: fit 1") {
		t.Errorf("expected prefixed info line, got %q", buf.String())
	}

	buf.Reset()
	Quiet = true
	Info("hidden")
	Error("boom %s", "now")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info should be suppressed when quiet")
	}
	if !strings.Contains(out, "pendulab: boom now") {
		t.Errorf("error should always print, got %q", out)
	}
}
