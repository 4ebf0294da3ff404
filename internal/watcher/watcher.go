package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"shelve/internal/faults"
	"shelve/internal/logging"
	"shelve/internal/organizer"
)

// State is the watcher lifecycle position.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Options tunes settle behaviour and queue sizing.
type Options struct {
	SettleDelay     time.Duration
	SettleMaxRounds int
	QueueSize       int
}

func (o Options) withDefaults() Options {
	if o.SettleDelay < 0 {
		o.SettleDelay = 0
	}
	if o.SettleMaxRounds < 1 {
		o.SettleMaxRounds = 1
	}
	if o.QueueSize < 1 {
		o.QueueSize = 256
	}
	return o
}

// Watcher feeds creation events for one directory into a pipeline.
type Watcher struct {
	dir    string
	opts   Options
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	state   State
	fs      *fsnotify.Watcher
	summary organizer.Summary
	handled map[string]os.FileInfo
}

// New constructs an idle watcher for dir.
func New(dir string, opts Options, logger *slog.Logger) *Watcher {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return &Watcher{
		dir:    dir,
		opts:   opts.withDefaults(),
		logger: logging.NewComponentLogger(logger, "watcher"),
		now:    time.Now,
		state:  StateIdle,
	}
}

// State reports the current lifecycle state.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Summary returns the outcome counts accumulated by Run.
func (w *Watcher) Summary() organizer.Summary {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.summary
}

// Subscribe registers the directory watch. Events arriving before Run starts
// are buffered. Failures are tagged faults.ErrSubscription.
func (w *Watcher) Subscribe() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateIdle {
		return faults.Wrap(faults.ErrSubscription, "watcher", "subscribe", "watcher is "+w.state.String(), nil)
	}
	fsw, err := fsnotify.NewBufferedWatcher(uint(w.opts.QueueSize))
	if err != nil {
		return faults.Wrap(faults.ErrSubscription, "watcher", "create watcher", "", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		_ = fsw.Close()
		return faults.Wrap(faults.ErrSubscription, "watcher", "watch directory", w.dir, err)
	}
	w.fs = fsw
	w.state = StateRunning
	return nil
}

// Close releases the subscription and moves the watcher to Stopped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = StateStopped
	if w.fs == nil {
		return nil
	}
	err := w.fs.Close()
	w.fs = nil
	return err
}

// SkipHandled registers files another producer already reported. The first
// event for such a path is dropped while the file is gone or unchanged, so a
// file seen by both the scan and a buffered event yields one outcome. Call it
// before Run.
func (w *Watcher) SkipHandled(handled map[string]os.FileInfo) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handled = make(map[string]os.FileInfo, len(handled))
	for path, info := range handled {
		w.handled[path] = info
	}
}

// Run processes buffered and new creation events until ctx is cancelled.
// One event is fully handled, including its settle delay, before the next is
// taken from the queue. Cancellation is a clean stop and returns nil.
func (w *Watcher) Run(ctx context.Context, pipeline *organizer.Pipeline) error {
	w.mu.Lock()
	fsw := w.fs
	running := w.state == StateRunning
	w.mu.Unlock()
	if !running || fsw == nil {
		return faults.Wrap(faults.ErrSubscription, "watcher", "run", "watcher is not subscribed", nil)
	}
	defer func() { _ = w.Close() }()

	w.logger.InfoContext(ctx, "watching for new files",
		logging.String(logging.FieldEventType, "watch_start"),
		logging.String(logging.FieldSource, w.dir),
	)

	queue := make(chan organizer.FileTask, w.opts.QueueSize)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(queue)
		return w.pump(gctx, fsw, queue)
	})
	g.Go(func() error {
		return w.consume(gctx, pipeline, queue)
	})
	err := g.Wait()

	summary := w.Summary()
	w.logger.InfoContext(context.WithoutCancel(ctx), "watcher stopped",
		logging.String(logging.FieldEventType, "watch_stop"),
		logging.Int("moved", summary.Moved),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
	)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// pump turns fsnotify creation events into queued tasks.
func (w *Watcher) pump(ctx context.Context, fsw *fsnotify.Watcher, queue chan<- organizer.FileTask) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if filepath.Dir(event.Name) != w.dir {
				continue
			}
			task := organizer.NewTask(event.Name, organizer.OriginWatch, w.now())
			select {
			case queue <- task:
			case <-ctx.Done():
				return ctx.Err()
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				logging.WarnWithContext(w.logger, "watch event queue overflowed", "watch_overflow",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "run 'shelve scan' to pick up missed files"),
					logging.String(logging.FieldImpact, "some new files were not seen"),
				)
				continue
			}
			logging.WarnWithContext(w.logger, "watch error", "watch_error", logging.Error(err))
		}
	}
}

func (w *Watcher) consume(ctx context.Context, pipeline *organizer.Pipeline, queue <-chan organizer.FileTask) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task, ok := <-queue:
			if !ok {
				return nil
			}
			w.handle(ctx, pipeline, task)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, pipeline *organizer.Pipeline, task organizer.FileTask) {
	if w.alreadyHandled(task.SourcePath) {
		w.logger.DebugContext(ctx, "event for file already handled by scan", logging.String(logging.FieldSource, task.SourcePath))
		return
	}
	ready, err := w.settle(ctx, task.SourcePath)
	if ctx.Err() != nil {
		return
	}
	var outcome organizer.Outcome
	switch {
	case err != nil:
		outcome = pipeline.Skip(ctx, task, organizer.ReasonVanished)
	case !ready:
		w.logger.DebugContext(ctx, "ignoring non-file entry", logging.String(logging.FieldSource, task.SourcePath))
		return
	default:
		outcome = pipeline.Process(ctx, task)
	}
	w.mu.Lock()
	w.summary.Add(outcome)
	w.mu.Unlock()
}

// alreadyHandled consumes the scan record for path and reports whether the
// file is still the one the scan saw, or has since been moved away.
func (w *Watcher) alreadyHandled(path string) bool {
	w.mu.Lock()
	seen, ok := w.handled[path]
	delete(w.handled, path)
	w.mu.Unlock()
	if !ok {
		return false
	}
	info, err := os.Lstat(path)
	if err != nil {
		return faults.Vanished(err)
	}
	return os.SameFile(seen, info) && info.Size() == seen.Size() && info.ModTime().Equal(seen.ModTime())
}

// settle waits for the file at path to stop growing. It returns false for
// directories and other non-regular entries, and an error when the entry is
// gone or unreadable.
func (w *Watcher) settle(ctx context.Context, path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if !info.Mode().IsRegular() {
		return false, nil
	}
	size := info.Size()
	for round := 0; round < w.opts.SettleMaxRounds; round++ {
		if err := sleep(ctx, w.opts.SettleDelay); err != nil {
			return false, err
		}
		info, err = os.Stat(path)
		if err != nil {
			return false, err
		}
		if !info.Mode().IsRegular() {
			return false, nil
		}
		if info.Size() == size {
			return true, nil
		}
		size = info.Size()
	}
	w.logger.DebugContext(ctx, "file still growing after settle rounds",
		logging.String(logging.FieldSource, path),
		logging.Int("rounds", w.opts.SettleMaxRounds),
	)
	return true, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
