package loghandler

import (
	"bytes"
	"log/slog"
	"regexp"
	"strings"
	"testing"

	"github.com/fatih/color"
)

var timestamp = regexp.MustCompile(`^\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2} `)

func newTestLogger(level slog.Level) (*slog.Logger, *bytes.Buffer) {
	color.NoColor = true
	var buf bytes.Buffer
	return slog.New(NewCompactHandler(&buf, level)), &buf
}

func TestHandleTagAndAttrs(t *testing.T) {
	logger, buf := newTestLogger(slog.LevelInfo)
	logger.Info("round started", "tag", "engine", "difficulty", "easy", "cards", 8)

	line := buf.String()
	if !timestamp.MatchString(line) {
		t.Fatalf("expected timestamp prefix, got %q", line)
	}
	rest := timestamp.ReplaceAllString(line, "")
	expected := "[engine] round started difficulty=easy cards=8\n"
	if rest != expected {
		t.Errorf("expected %q, got %q", expected, rest)
	}
}

func TestHandleLevels(t *testing.T) {
	logger, buf := newTestLogger(slog.LevelInfo)

	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug should be filtered, got %q", buf.String())
	}

	logger.Warn("slow", "tag", "creature")
	if !strings.Contains(buf.String(), " WARN [creature] slow") {
		t.Errorf("expected WARN marker, got %q", buf.String())
	}
	buf.Reset()

	logger.Error("boom")
	if !strings.Contains(buf.String(), " ERROR boom") {
		t.Errorf("expected ERROR marker, got %q", buf.String())
	}
}

func TestWithAttrsAndGroup(t *testing.T) {
	logger, buf := newTestLogger(slog.LevelInfo)
	logger.With("tag", "ws", "session", "abc").WithGroup("msg").Info("received", "type", "select_card")

	rest := timestamp.ReplaceAllString(buf.String(), "")
	expected := "[ws] received session=abc msg.type=select_card\n"
	if rest != expected {
		t.Errorf("expected %q, got %q", expected, rest)
	}
}

func TestRecordTagOverridesDefault(t *testing.T) {
	logger, buf := newTestLogger(slog.LevelInfo)
	logger.With("tag", "main").Info("listening", "tag", "http")

	if !strings.Contains(buf.String(), "[http] listening") {
		t.Errorf("expected record tag to win, got %q", buf.String())
	}
}
