package app

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
)

func newBufferLogger(level LogLevel) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewLogger(LoggerConfig{Level: level, Output: &buf, Prefix: "strand"}), &buf
}

func TestLogLevel_String(t *testing.T) {
	tests := map[LogLevel]string{
		LogLevelDebug: "DEBUG",
		LogLevelInfo:  "INFO",
		LogLevelWarn:  "WARN",
		LogLevelError: "ERROR",
		LogLevel(99):  "UNKNOWN",
	}
	for level, want := range tests {
		if got := level.String(); got != want {
			t.Errorf("LogLevel(%d).String() = %q, want %q", int(level), got, want)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  LogLevel
		valid bool
	}{
		{"debug", LogLevelDebug, true},
		{"INFO", LogLevelInfo, true},
		{"Warn", LogLevelWarn, true},
		{"warning", LogLevelWarn, true},
		{"error", LogLevelError, true},
		{"trace", LogLevelInfo, false},
		{"", LogLevelInfo, false},
	}

	for _, tt := range tests {
		if got := ParseLogLevel(tt.input); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if got := ValidLogLevel(tt.input); got != tt.valid {
			t.Errorf("ValidLogLevel(%q) = %v, want %v", tt.input, got, tt.valid)
		}
	}
}

func TestLogger_LineFormat(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelDebug)

	logger.Info("loaded %s: %d bytes", "a.txt", 42)

	line := regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3} \[INFO\] strand: loaded a\.txt: 42 bytes\n$`)
	if !line.MatchString(buf.String()) {
		t.Errorf("unexpected line %q", buf.String())
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelWarn)

	logger.Debug("d")
	logger.Info("i")
	logger.Warn("w")
	logger.Error("e")

	out := buf.String()
	for tag, want := range map[string]bool{"[DEBUG]": false, "[INFO]": false, "[WARN]": true, "[ERROR]": true} {
		if strings.Contains(out, tag) != want {
			t.Errorf("%s present = %v, want %v:\n%s", tag, !want, want, out)
		}
	}
}

func TestLogger_Fields(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelInfo)

	logger.
		WithComponent("rope").
		WithFields(map[string]any{"z": 1, "a": 2}).
		Info("sorted")

	if !strings.HasSuffix(buf.String(), "sorted {a=2, component=rope, z=1}\n") {
		t.Errorf("fields not in key order: %q", buf.String())
	}
}

func TestLogger_WithFieldDoesNotModifyParent(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelInfo)

	_ = logger.WithField("setting", "rope.copyMax")
	logger.Info("plain")

	if strings.Contains(buf.String(), "setting=") {
		t.Errorf("parent logger picked up a child field: %q", buf.String())
	}
}

func TestLogger_DerivedLoggersShareSink(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelError)
	child := logger.WithComponent("rope")

	child.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info written at error level: %q", buf.String())
	}

	logger.SetLevel(LogLevelDebug)
	child.Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Error("child logger did not follow the parent's level")
	}
	if child.Level() != LogLevelDebug {
		t.Errorf("child Level() = %v", child.Level())
	}

	var other bytes.Buffer
	logger.SetOutput(&other)
	child.Info("moved")
	if !strings.Contains(other.String(), "moved") {
		t.Error("child logger did not follow the parent's output")
	}
}

func TestLogger_DisableEnable(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelInfo)

	logger.Disable()
	logger.Error("dropped")
	if buf.Len() != 0 {
		t.Errorf("disabled logger wrote %q", buf.String())
	}

	logger.Enable()
	logger.Error("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Error("expected output after Enable")
	}
}

func TestNewLogger_Defaults(t *testing.T) {
	logger := NewLogger(LoggerConfig{})
	if logger.sink.output == nil {
		t.Error("expected a default output")
	}

	cfg := DefaultLoggerConfig()
	if cfg.Level != LogLevelInfo || cfg.Prefix != "strand" || cfg.Output == nil {
		t.Errorf("DefaultLoggerConfig() = %+v", cfg)
	}
}
