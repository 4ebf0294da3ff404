package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shelve/internal/config"
)

// SinkOptions selects what reaches the terminal in addition to the log file.
type SinkOptions struct {
	// Verbose echoes informational records to the console.
	Verbose bool
	// DryRun forces console echo so previews are visible without --verbose.
	DryRun bool
	// Console receives console output; nil means os.Stdout.
	Console io.Writer
	RunID   string
}

// NewFromConfig builds the organizer logger: every record at the configured
// level goes to the log file tagged with the run id, and the console gets info
// records when verbose or dry-running and warnings otherwise. The returned
// closer releases the log file.
func NewFromConfig(cfg *config.Config, sink SinkOptions) (*slog.Logger, io.Closer, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("logging: config is required")
	}
	console := sink.Console
	if console == nil {
		console = os.Stdout
	}
	consoleLevel := slog.LevelWarn
	if sink.Verbose || sink.DryRun {
		consoleLevel = slog.LevelInfo
	}
	fileLevel := ParseLevel(cfg.Logging.Level)
	if sink.Verbose && fileLevel > slog.LevelInfo {
		fileLevel = slog.LevelInfo
	}

	file, err := openLogFile(cfg.LogPath())
	if err != nil {
		return nil, nil, err
	}
	fileHandler, err := newHandler(cfg.Logging.Format, file, fileLevel, fileLevel <= slog.LevelDebug)
	if err != nil {
		_ = file.Close()
		return nil, nil, err
	}
	consoleHandler := newConsoleHandler(console, consoleLevel, false)

	handler := TeeHandler(newRunIDHandler(fileHandler, sink.RunID), consoleHandler)
	return slog.New(handler), file, nil
}

// ParseLevel maps a configured level name onto slog levels; unknown values
// fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newHandler(format string, w io.Writer, level slog.Level, addSource bool) (slog.Handler, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "console":
		return newConsoleHandler(w, level, addSource), nil
	case "json":
		return newJSONHandler(w, level, addSource), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", format)
	}
}

func newJSONHandler(w io.Writer, level slog.Leveler, addSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: addSource,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.TimeKey:
				attr.Key = "ts"
				if attr.Value.Kind() == slog.KindTime {
					attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339Nano))
				}
			case slog.LevelKey:
				attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
			case slog.SourceKey:
				if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
					attr.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
				}
			}
			return attr
		},
	})
}

// openLogFile opens path for append, creating its directory first.
func openLogFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return file, nil
}
