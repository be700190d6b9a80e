package debug

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func reset(t *testing.T) {
	t.Helper()
	oldEnabled, oldVerbose, oldQuiet := enabled, verboseMode, quietMode
	oldStderr, oldStdout := stderr, stdout
	t.Cleanup(func() {
		enabled, verboseMode, quietMode = oldEnabled, oldVerbose, oldQuiet
		stderr, stdout = oldStderr, oldStdout
	})
	enabled, verboseMode, quietMode = false, false, false
}

func TestEnabled(t *testing.T) {
	tests := []struct {
		name    string
		env     bool
		verbose bool
		want    bool
	}{
		{"off", false, false, false},
		{"env", true, false, true},
		{"verbose flag", false, true, true},
		{"both", true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reset(t)
			enabled = tt.env
			SetVerbose(tt.verbose)
			if got := Enabled(); got != tt.want {
				t.Errorf("Enabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogf(t *testing.T) {
	reset(t)
	var buf bytes.Buffer
	stderr = &buf

	Logf("hidden %d\n", 1)
	if buf.Len() != 0 {
		t.Fatalf("Logf wrote while disabled: %q", buf.String())
	}
	SetVerbose(true)
	Logf("shown %d\n", 2)
	if buf.String() != "shown 2\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestPrintNormal(t *testing.T) {
	reset(t)
	var buf bytes.Buffer
	stdout = &buf

	PrintNormal("hello %s\n", "world")
	SetQuiet(true)
	PrintNormal("suppressed\n")
	if buf.String() != "hello world\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
	if !IsQuiet() {
		t.Fatalf("IsQuiet() should be true")
	}
}

func TestNewLoggerLevel(t *testing.T) {
	reset(t)
	if Level() != slog.LevelWarn {
		t.Fatalf("default level should be warn, got %v", Level())
	}

	var buf bytes.Buffer
	log := NewLogger(&buf)
	log.Debug("quiet detail")
	log.Warn("dangling reference", "issue", "a1b2c3d4")
	out := buf.String()
	if strings.Contains(out, "quiet detail") {
		t.Fatalf("debug record written at warn level: %s", out)
	}
	if !strings.Contains(out, "issue=a1b2c3d4") {
		t.Fatalf("warn record missing: %s", out)
	}

	SetVerbose(true)
	buf.Reset()
	NewLogger(&buf).Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Fatalf("verbose logger dropped debug record")
	}
}
