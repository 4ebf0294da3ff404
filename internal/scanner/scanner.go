// Package scanner sweeps the backlog of files sitting directly inside the
// source directory and feeds each one through the organizer pipeline.
package scanner

import (
	"context"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"shelve/internal/faults"
	"shelve/internal/logging"
	"shelve/internal/organizer"
	"shelve/internal/rules"
)

// Scanner enumerates the source directory once.
type Scanner struct {
	dir     string
	exclude []string
	logger  *slog.Logger
	now     func() time.Time

	handled map[string]os.FileInfo
}

// New creates a scanner for the table's source directory. Entries that are
// themselves destinations, directly or through a symlink, are excluded.
func New(table *rules.Table, logger *slog.Logger) *Scanner {
	exclude := table.Destinations()
	for i, dest := range exclude {
		exclude[i] = rules.Resolve(dest)
	}
	return &Scanner{
		dir:     table.Source(),
		exclude: exclude,
		logger:  logging.NewComponentLogger(logger, "scanner"),
		now:     time.Now,
	}
}

// Tasks lazily yields one FileTask per regular file directly inside the
// source directory, in name order. Subdirectories, symlinks to directories and
// special files are skipped. A listing failure is returned up front.
func (s *Scanner) Tasks(ctx context.Context) (iter.Seq[organizer.FileTask], error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, faults.Wrap(faults.ErrIO, "scanner", "list source", s.dir, err)
	}
	return func(yield func(organizer.FileTask) bool) {
		for _, entry := range entries {
			if ctx.Err() != nil {
				return
			}
			path := filepath.Join(s.dir, entry.Name())
			if !s.candidate(path, entry) {
				continue
			}
			if !yield(organizer.NewTask(path, organizer.OriginScan, s.now())) {
				return
			}
		}
	}, nil
}

func (s *Scanner) candidate(path string, entry os.DirEntry) bool {
	if entry.IsDir() {
		return false
	}
	resolved := rules.Resolve(path)
	if slices.ContainsFunc(s.exclude, func(dest string) bool { return resolved == dest }) {
		return false
	}
	if entry.Type().IsRegular() {
		return true
	}
	// Follow symlinks; a link to a regular file is organized like the file.
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// Run performs one synchronous pass: every task is fully processed and
// reported before the next one is enumerated. Per-file failures are counted,
// never returned; only a failure to list the directory or cancellation ends
// the pass early.
func (s *Scanner) Run(ctx context.Context, pipeline *organizer.Pipeline) (organizer.Summary, error) {
	var summary organizer.Summary
	s.handled = make(map[string]os.FileInfo)
	tasks, err := s.Tasks(ctx)
	if err != nil {
		return summary, err
	}

	s.logger.InfoContext(ctx, "performing initial scan",
		logging.String(logging.FieldEventType, "scan_start"),
		logging.String(logging.FieldSource, s.dir),
	)
	for task := range tasks {
		if info, err := os.Lstat(task.SourcePath); err == nil {
			s.handled[task.SourcePath] = info
		}
		summary.Add(pipeline.Process(ctx, task))
	}
	if err := ctx.Err(); err != nil {
		s.logger.InfoContext(ctx, "initial scan interrupted", logging.Int("handled", summary.Total()))
		return summary, err
	}
	s.logger.InfoContext(ctx, "initial scan complete",
		logging.String(logging.FieldEventType, "scan_complete"),
		logging.Int("moved", summary.Moved),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
	)
	return summary, nil
}

// Handled returns the paths reported by the last Run, mapped to the file
// state seen just before each was processed.
func (s *Scanner) Handled() map[string]os.FileInfo {
	return s.handled
}
