package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"shelve/internal/config"
	"shelve/internal/faults"
	"shelve/internal/history"
	"shelve/internal/logging"
	"shelve/internal/organizer"
	"shelve/internal/report"
	"shelve/internal/rules"
	"shelve/internal/scanner"
	"shelve/internal/watcher"
)

// Options carries per-invocation switches from the command line.
type Options struct {
	DryRun        bool
	NoInitialScan bool
	// RunID tags history rows; empty generates one.
	RunID string
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Daemon owns the pipeline and its producers for one run.
type Daemon struct {
	cfg      *config.Config
	opts     Options
	base     *slog.Logger
	logger   *slog.Logger
	table    *rules.Table
	pipeline *organizer.Pipeline
	scanner  *scanner.Scanner
	history  *history.Store
	counter  *report.Counter
}

// New validates the rule table and wires reporters. Rule table problems are
// returned as faults.ErrConfiguration; history problems only disable the
// journal.
func New(cfg *config.Config, logger *slog.Logger, opts Options) (*Daemon, error) {
	if cfg == nil {
		return nil, faults.Configf("daemon: config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.RunID == "" {
		opts.RunID = NewRunID()
	}
	table, err := rules.FromConfig(cfg)
	if err != nil {
		return nil, err
	}

	d := &Daemon{
		cfg:     cfg,
		opts:    opts,
		base:    logger,
		logger:  logging.NewComponentLogger(logger, "daemon"),
		table:   table,
		counter: &report.Counter{},
	}

	reporters := report.Multi{report.NewLogger(logger), d.counter}
	if cfg.History.Enabled {
		if store, err := d.openHistory(); err != nil {
			logging.WarnWithContext(d.logger, "history journal unavailable", "history_open_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "outcomes will only be written to the log"),
				logging.String(logging.FieldErrorHint, "check paths.data_dir"),
			)
		} else {
			d.history = store
			reporters = append(reporters, history.NewReporter(store, opts.RunID, logger))
		}
	}

	mover := organizer.NewMover(
		organizer.WithDryRun(opts.DryRun),
		organizer.WithMaxAttempts(cfg.Collisions.MaxAttempts),
		organizer.WithLogger(logger),
	)
	d.pipeline = organizer.NewPipeline(table, mover, reporters, logger)
	d.scanner = scanner.New(table, logger)
	return d, nil
}

func (d *Daemon) openHistory() (*history.Store, error) {
	store, err := history.Open(d.cfg.HistoryPath())
	if err != nil {
		return nil, err
	}
	d.logger.Debug("history journal ready", logging.String("path", store.Path()))
	if days := d.cfg.History.RetentionDays; days > 0 {
		cutoff := time.Now().AddDate(0, 0, -days)
		if n, err := store.Prune(context.Background(), cutoff); err != nil {
			d.logger.Warn("history prune failed", logging.Error(err))
		} else if n > 0 {
			d.logger.Info("pruned history", logging.Int("removed", int(n)), logging.Int("retention_days", days))
		}
	}
	return store, nil
}

// RunID identifies this run in logs and history.
func (d *Daemon) RunID() string { return d.opts.RunID }

// Table exposes the validated rule table.
func (d *Daemon) Table() *rules.Table { return d.table }

// Summary returns outcome counts across scan and watch so far.
func (d *Daemon) Summary() organizer.Summary { return d.counter.Summary() }

// Scan runs a single backlog pass.
func (d *Daemon) Scan(ctx context.Context) (organizer.Summary, error) {
	d.logStart(ctx, "scan")
	return d.scanner.Run(ctx, d.pipeline)
}

// Run subscribes the watcher, performs the initial scan unless disabled, and
// watches until ctx is cancelled. Cancellation is a clean stop and returns nil.
func (d *Daemon) Run(ctx context.Context) error {
	d.logStart(ctx, "watch")
	w := watcher.New(d.table.Source(), watcher.Options{
		SettleDelay:     d.cfg.Watch.SettleDelay(),
		SettleMaxRounds: d.cfg.Watch.SettleMaxRounds,
		QueueSize:       d.cfg.Watch.QueueSize,
	}, d.base)
	if err := w.Subscribe(); err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	if d.opts.NoInitialScan {
		d.logger.InfoContext(ctx, "initial scan skipped")
	} else {
		if _, err := d.scanner.Run(ctx, d.pipeline); err != nil {
			if errors.Is(err, context.Canceled) {
				d.logFinish()
				return nil
			}
			return fmt.Errorf("initial scan: %w", err)
		}
		w.SkipHandled(d.scanner.Handled())
	}

	if err := w.Run(ctx, d.pipeline); err != nil {
		return err
	}
	d.logFinish()
	return nil
}

// Close releases the history journal.
func (d *Daemon) Close() error {
	if d.history == nil {
		return nil
	}
	return d.history.Close()
}

func (d *Daemon) logStart(ctx context.Context, mode string) {
	attrs := []logging.Attr{
		logging.String("mode", mode),
		logging.String(logging.FieldSource, d.table.Source()),
		logging.Int("destinations", len(d.table.Entries())),
	}
	if d.opts.DryRun {
		attrs = append(attrs, logging.Bool(logging.FieldDryRun, true))
	}
	d.logger.InfoContext(ctx, "shelve started", logging.Args(attrs...)...)
}

func (d *Daemon) logFinish() {
	summary := d.counter.Summary()
	d.logger.Info("shelve stopped",
		logging.Int("moved", summary.Moved),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
	)
}
