package organizer

import (
	"context"
	"log/slog"
	"time"

	"shelve/internal/logging"
	"shelve/internal/rules"
)

// Reporter receives every outcome produced by the pipeline.
type Reporter interface {
	Report(ctx context.Context, outcome Outcome)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, outcome Outcome)

func (f ReporterFunc) Report(ctx context.Context, outcome Outcome) { f(ctx, outcome) }

type nopReporter struct{}

func (nopReporter) Report(context.Context, Outcome) {}

// Summary counts the outcomes of one pass.
type Summary struct {
	Moved   int
	Skipped int
	Failed  int
}

// Total is the number of files handled.
func (s Summary) Total() int { return s.Moved + s.Skipped + s.Failed }

// Add tallies one outcome.
func (s *Summary) Add(outcome Outcome) {
	switch outcome.Status {
	case StatusMoved:
		s.Moved++
	case StatusSkipped:
		s.Skipped++
	case StatusFailed:
		s.Failed++
	}
}

// Pipeline classifies a task, moves it and reports the outcome. It holds no
// producer-specific state and is shared by the scanner and the watcher.
type Pipeline struct {
	table    *rules.Table
	mover    *Mover
	reporter Reporter
	logger   *slog.Logger
	now      func() time.Time
}

// NewPipeline wires the rule table, mover and reporter together.
func NewPipeline(table *rules.Table, mover *Mover, reporter Reporter, logger *slog.Logger) *Pipeline {
	if mover == nil {
		mover = NewMover()
	}
	if reporter == nil {
		reporter = nopReporter{}
	}
	return &Pipeline{
		table:    table,
		mover:    mover,
		reporter: reporter,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
		now:      time.Now,
	}
}

// Process handles one task and returns the reported outcome. Unmatched files
// never reach the mover.
func (p *Pipeline) Process(ctx context.Context, task FileTask) Outcome {
	if task.Extension == "" {
		task.Extension = rules.ExtensionOf(task.SourcePath)
	}

	var outcome Outcome
	if dest, ok := p.table.Classify(task.SourcePath); ok {
		outcome = p.mover.Move(ctx, task, dest)
	} else {
		p.logger.DebugContext(ctx, "no rule for extension",
			logging.String(logging.FieldSource, task.SourcePath),
			logging.String("extension", task.Extension),
		)
		outcome = Skipped(task, ReasonNoMatch)
	}
	if outcome.At.IsZero() {
		outcome.At = p.now()
	}
	p.reporter.Report(ctx, outcome)
	return outcome
}

// Skip reports a skipped outcome for a task that never reached classification,
// such as a watched file that vanished while settling.
func (p *Pipeline) Skip(ctx context.Context, task FileTask, reason Reason) Outcome {
	outcome := Skipped(task, reason)
	outcome.At = p.now()
	p.reporter.Report(ctx, outcome)
	return outcome
}
