package logger

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newBufferLogger(buf *bytes.Buffer, level zapcore.Level) *zap.SugaredLogger {
	core := newConsoleCore(&consoleEncoder{}, zapcore.AddSync(buf), level)
	return zap.New(core).Sugar()
}

func TestConsoleEncoder_Line(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf, zapcore.InfoLevel).Named("catalog")

	log.Infow("Dataset installed", "subjects", 42, "study", "UPittSSRI")

	line := buf.String()
	if !strings.HasSuffix(line, "  catalog  Dataset installed  study=UPittSSRI subjects=42\n") {
		t.Errorf("unexpected line %q", line)
	}
	if strings.Contains(line, "INFO") {
		t.Errorf("info level should not be printed: %q", line)
	}
	if strings.Contains(line, "\033[") {
		t.Errorf("color disabled but escape codes present: %q", line)
	}
}

func TestConsoleEncoder_WithFieldsAndLevels(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf, zapcore.DebugLevel).With("load_id", "L1")

	log.Warnw("Endpoint slow", "duration_ms", 900)
	log.Debugw("Query text")
	log.Errorw("Load failed")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "WARN  Endpoint slow  duration_ms=900 load_id=L1") {
		t.Errorf("warn line %q", lines[0])
	}
	if !strings.Contains(lines[1], "debug  Query text  load_id=L1") {
		t.Errorf("debug line %q", lines[1])
	}
	if !strings.Contains(lines[2], "ERROR  Load failed") {
		t.Errorf("error line %q", lines[2])
	}
}

func TestConsoleEncoder_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf, zapcore.WarnLevel)

	log.Infow("hidden")
	if buf.Len() != 0 {
		t.Errorf("info written at warn level: %q", buf.String())
	}
}

func TestConsoleEncoder_Color(t *testing.T) {
	enc := &consoleEncoder{color: true}
	if got := enc.paint(ansiRed, "x"); got != ansiRed+"x"+ansiReset {
		t.Errorf("paint = %q", got)
	}
	if got := (&consoleEncoder{}).paint(ansiRed, "x"); got != "x" {
		t.Errorf("paint without color = %q", got)
	}
}
