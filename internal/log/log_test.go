package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNullLoggerIsDefault(t *testing.T) {
	SetLogger(nil)
	// Must not panic or write anywhere.
	Debug("d")
	Info("i", String("k", "v"))
	Warn("w", Int("n", 1))
	Error("e", Err(errors.New("boom")))
}

func TestWriterLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf, LevelWarn)

	l.Debug("below threshold")
	l.Info("below threshold")
	l.Warn("warned")
	l.Error("errored")

	out := buf.String()
	if strings.Contains(out, "below threshold") {
		t.Error("messages below the level were written")
	}
	if !strings.Contains(out, "warned") || !strings.Contains(out, "errored") {
		t.Errorf("missing expected output: %q", out)
	}
}

func TestWriterLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf, LevelDebug)

	l.Info("msg",
		String("path", "/vault/X"),
		Int("count", 3),
		Int64("bytes", 42),
		Bool("dirty", true),
		Duration("took", 150*time.Millisecond),
		Err(errors.New("boom")),
	)

	out := buf.String()
	for _, want := range []string{"path", "/vault/X", "count", "3", "dirty", "true", "boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf, LevelDebug).WithFields(String("component", "gallery"))
	l.Info("hello")
	if !strings.Contains(buf.String(), "component") {
		t.Errorf("bound field missing: %q", buf.String())
	}
}

func TestSetAndGetLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf, LevelDebug)
	SetLogger(l)
	defer SetLogger(nil)

	if GetLogger() != l {
		t.Error("GetLogger did not return the set logger")
	}
	Info("through package funcs")
	if !strings.Contains(buf.String(), "through package funcs") {
		t.Error("package-level Info did not reach the logger")
	}
}
