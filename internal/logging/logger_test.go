package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestConsoleHandlerIncludesComponentAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelInfo)

	logger := slog.New(newConsoleHandler(&buf, levelVar, false))
	logger = NewComponentLogger(logger, "pipeline")
	logger.Info("converted", String("registration", "Juvenile_Ladies_Short_Program_Jordan_Smith"), Int("version", 2))

	line := buf.String()
	if !strings.Contains(line, "[pipeline]") {
		t.Fatalf("missing component in output: %q", line)
	}
	if !strings.Contains(line, "converted") {
		t.Fatalf("missing message in output: %q", line)
	}
	if !strings.Contains(line, "version=2") {
		t.Fatalf("missing attr in output: %q", line)
	}
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelWarn)

	logger := slog.New(newConsoleHandler(&buf, levelVar, false))
	logger.Info("hidden")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info record should be suppressed: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("warn record should be emitted: %q", out)
	}
}

func TestJSONOutputUsesShortKeys(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelInfo)

	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level:       levelVar,
		ReplaceAttr: renameJSONAttr,
	}))
	logger.Warn("tag rejected", String("registration", "Senior_Free_Dance_Casey_Wright"))

	line := buf.String()
	for _, want := range []string{`"ts":`, `"level":"warn"`, `"msg":"tag rejected"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("missing %s in output: %q", want, line)
		}
	}
	if strings.Contains(line, `"time":`) {
		t.Fatalf("default time key leaked through: %q", line)
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	if got := parseLevel("nonsense"); got != slog.LevelInfo {
		t.Fatalf("unexpected level: %v", got)
	}
	if got := parseLevel("debug"); got != slog.LevelDebug {
		t.Fatalf("unexpected level: %v", got)
	}
}

func TestNewComponentLoggerNilBase(t *testing.T) {
	logger := NewComponentLogger(nil, "catalog")
	// Must not panic and must swallow output.
	logger.Info("discarded")
}
