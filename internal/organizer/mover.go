package organizer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"shelve/internal/faults"
	"shelve/internal/fileutil"
	"shelve/internal/logging"
	"shelve/internal/rules"
)

const (
	defaultMaxAttempts   = 100
	collisionStampLayout = "20060102_150405"
)

// Mover relocates a single file into a destination directory.
type Mover struct {
	maxAttempts int
	dryRun      bool
	now         func() time.Time
	logger      *slog.Logger

	// reserved tracks names handed out by simulated moves so a dry run
	// resolves collisions the way a real run would.
	mu       sync.Mutex
	reserved map[string]struct{}
}

// MoverOption customizes a Mover.
type MoverOption func(*Mover)

// WithDryRun makes the mover compute final names without touching the filesystem.
func WithDryRun(dryRun bool) MoverOption {
	return func(m *Mover) { m.dryRun = dryRun }
}

// WithMaxAttempts bounds the number of candidate names tried per file.
func WithMaxAttempts(n int) MoverOption {
	return func(m *Mover) {
		if n > 0 {
			m.maxAttempts = n
		}
	}
}

// WithClock overrides the time source used for collision stamps.
func WithClock(now func() time.Time) MoverOption {
	return func(m *Mover) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets the logger used for debug traces.
func WithLogger(logger *slog.Logger) MoverOption {
	return func(m *Mover) { m.logger = logger }
}

// NewMover constructs a Mover.
func NewMover(opts ...MoverOption) *Mover {
	m := &Mover{
		maxAttempts: defaultMaxAttempts,
		now:         time.Now,
		reserved:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.NewComponentLogger(m.logger, "mover")
	return m
}

// Move places task's file inside destDir. Per-file problems never escape as
// errors; they are returned as Skipped or Failed outcomes.
func (m *Mover) Move(ctx context.Context, task FileTask, destDir string) Outcome {
	src := filepath.Clean(task.SourcePath)
	destDir = filepath.Clean(destDir)

	if rules.Contains(destDir, src) {
		return Skipped(task, ReasonSameLocation)
	}

	info, err := os.Lstat(src)
	if err != nil {
		if faults.Vanished(err) {
			return Skipped(task, ReasonVanished)
		}
		return Failed(task, destDir, faults.Wrap(faults.ErrIO, "mover", "stat source", src, err))
	}
	if info.IsDir() {
		return Failed(task, destDir, faults.Wrap(faults.ErrIO, "mover", "stat source", "source is a directory", nil))
	}

	if !m.dryRun {
		if err := os.MkdirAll(destDir, 0o755); err != nil {
			return Failed(task, destDir, faults.Wrap(faults.ErrIO, "mover", "ensure destination", destDir, err))
		}
	}

	target, err := m.nextFreePath(destDir, filepath.Base(src))
	if err != nil {
		return Failed(task, filepath.Join(destDir, filepath.Base(src)), err)
	}

	if m.dryRun {
		m.logger.DebugContext(ctx, "simulated move",
			logging.String(logging.FieldSource, src),
			logging.String(logging.FieldDestination, target),
		)
		return Moved(task, target, true)
	}

	if err := fileutil.Move(src, target); err != nil {
		if faults.Vanished(err) {
			return Skipped(task, ReasonVanished)
		}
		return Failed(task, target, faults.Wrap(faults.ErrIO, "mover", "move file", target, err))
	}
	return Moved(task, target, false)
}

// nextFreePath returns the first unused name among name, stem_STAMP.ext and
// stem_STAMP_N.ext, trying at most maxAttempts candidates.
func (m *Mover) nextFreePath(dir, name string) (string, error) {
	stem, ext := splitName(name)
	stamp := m.now().Format(collisionStampLayout)

	m.mu.Lock()
	defer m.mu.Unlock()
	for attempt := 0; attempt < m.maxAttempts; attempt++ {
		var candidate string
		switch attempt {
		case 0:
			candidate = name
		case 1:
			candidate = fmt.Sprintf("%s_%s%s", stem, stamp, ext)
		default:
			candidate = fmt.Sprintf("%s_%s_%d%s", stem, stamp, attempt-1, ext)
		}
		path := filepath.Join(dir, candidate)
		taken, err := m.taken(path)
		if err != nil {
			return "", faults.Wrap(faults.ErrIO, "mover", "check destination", path, err)
		}
		if taken {
			continue
		}
		if m.dryRun {
			m.reserved[path] = struct{}{}
		}
		if attempt > 0 {
			m.logger.Debug("destination name taken, using stamped name",
				logging.String(logging.FieldDestination, path),
				logging.Int("attempt", attempt+1),
			)
		}
		return path, nil
	}
	return "", faults.Wrap(faults.ErrNameExhausted, "mover", "allocate name",
		fmt.Sprintf("no free name for %s in %s after %d attempts", name, dir, m.maxAttempts), nil)
}

func (m *Mover) taken(path string) (bool, error) {
	if _, ok := m.reserved[path]; ok {
		return true, nil
	}
	return fileutil.Exists(path)
}

// splitName separates the extension from name. Dotfiles keep their whole name
// as the stem so stamps land after it.
func splitName(name string) (string, string) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		return name, ""
	}
	return stem, ext
}
