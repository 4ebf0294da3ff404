// Package report turns organizer outcomes into log records and fans them out
// to additional sinks such as the history journal.
package report

import (
	"context"
	"log/slog"
	"sync"

	"shelve/internal/logging"
	"shelve/internal/organizer"
)

const dryRunMarker = "[DRY RUN] "

// Logger writes one record per outcome.
type Logger struct {
	logger *slog.Logger
}

// NewLogger returns a reporter writing to logger under the "report" component.
func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logging.NewComponentLogger(logger, "report")}
}

// Report logs outcome. Moves and skips are informational, vanished files are
// a skip rather than an error, and failures carry the cause and a hint.
func (l *Logger) Report(ctx context.Context, outcome organizer.Outcome) {
	attrs := []logging.Attr{
		logging.String(logging.FieldSource, outcome.Source),
		logging.String(logging.FieldOrigin, string(outcome.Origin)),
	}
	if outcome.Destination != "" {
		attrs = append(attrs, logging.String(logging.FieldDestination, outcome.Destination))
	}
	if outcome.Reason != organizer.ReasonNone {
		attrs = append(attrs, logging.String(logging.FieldReason, string(outcome.Reason)))
	}
	if outcome.Simulated {
		attrs = append(attrs, logging.Bool(logging.FieldDryRun, true))
	}

	switch outcome.Status {
	case organizer.StatusMoved:
		msg := "file moved"
		if outcome.Renamed {
			msg = "file moved with new name"
		}
		if outcome.Simulated {
			msg = dryRunMarker + "would move file"
		}
		attrs = append(attrs, logging.String(logging.FieldEventType, "file_moved"))
		l.logger.InfoContext(ctx, msg, logging.Args(attrs...)...)
	case organizer.StatusSkipped:
		msg := "file skipped"
		if outcome.Reason == organizer.ReasonNoMatch {
			msg = "no rule for file"
		}
		attrs = append(attrs, logging.String(logging.FieldEventType, "file_skipped"))
		l.logger.InfoContext(ctx, msg, logging.Args(attrs...)...)
	default:
		attrs = append(attrs, logging.Error(outcome.Err), logging.String(logging.FieldErrorHint, hintFor(outcome.Reason)))
		logging.ErrorWithContext(l.logger, "file move failed", "file_failed", attrs...)
	}
}

func hintFor(reason organizer.Reason) string {
	switch reason {
	case organizer.ReasonNameExhausted:
		return "clear stamped duplicates from the destination or raise collisions.max_attempts"
	default:
		return "check permissions and free space on the destination"
	}
}

// Multi forwards every outcome to each reporter in order.
type Multi []organizer.Reporter

func (m Multi) Report(ctx context.Context, outcome organizer.Outcome) {
	for _, r := range m {
		if r != nil {
			r.Report(ctx, outcome)
		}
	}
}

// Counter tallies outcomes across producers. It is safe for concurrent use.
type Counter struct {
	mu      sync.Mutex
	summary organizer.Summary
}

func (c *Counter) Report(_ context.Context, outcome organizer.Outcome) {
	c.mu.Lock()
	c.summary.Add(outcome)
	c.mu.Unlock()
}

// Summary returns the counts so far.
func (c *Counter) Summary() organizer.Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summary
}
