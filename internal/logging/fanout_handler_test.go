package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestNewFanoutHandlerNilHandlers(t *testing.T) {
	h := newFanoutHandler(nil, nil)
	if _, ok := h.(NoopHandler); !ok {
		t.Errorf("expected NoopHandler for all nil handlers, got %T", h)
	}
}

func TestNewFanoutHandlerFiltersNil(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)

	if h := newFanoutHandler(nil, inner, nil); h != inner {
		t.Error("expected single non-nil handler to be returned unwrapped")
	}
}

func TestFanoutHandlerRespectsPerSinkLevels(t *testing.T) {
	var file, console bytes.Buffer
	fileHandler := newConsoleHandler(&file, slog.LevelInfo, false)
	consoleHandler := newConsoleHandler(&console, slog.LevelWarn, false)

	logger := slog.New(TeeHandler(fileHandler, consoleHandler))
	logger.Info("file moved", slog.String("source", "/in/a.jpg"))
	logger.Warn("move failed", slog.String("source", "/in/b.pdf"))

	if !strings.Contains(file.String(), "file moved") || !strings.Contains(file.String(), "move failed") {
		t.Fatalf("file sink should receive both records, got %q", file.String())
	}
	if strings.Contains(console.String(), "file moved") {
		t.Fatalf("console sink should drop info records, got %q", console.String())
	}
	if !strings.Contains(console.String(), "move failed") {
		t.Fatalf("console sink should receive warnings, got %q", console.String())
	}
}

func TestFanoutHandlerWithAttrsReachesEverySink(t *testing.T) {
	var a, b bytes.Buffer
	h := newFanoutHandler(
		newConsoleHandler(&a, slog.LevelInfo, false),
		newConsoleHandler(&b, slog.LevelInfo, false),
	).WithAttrs([]slog.Attr{slog.String(FieldComponent, "watcher")})

	if err := h.Handle(context.Background(), slog.NewRecord(time.Time{}, slog.LevelInfo, "watching", 0)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	for name, buf := range map[string]*bytes.Buffer{"a": &a, "b": &b} {
		if !strings.Contains(buf.String(), "[watcher]") {
			t.Fatalf("sink %s missing component: %q", name, buf.String())
		}
	}
}
