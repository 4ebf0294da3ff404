package organizer

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"shelve/internal/faults"
	"shelve/internal/rules"
)

// Origin names the producer that discovered a file.
type Origin string

const (
	OriginScan  Origin = "scan"
	OriginWatch Origin = "watch"
)

// FileTask is a file waiting to be classified and moved.
type FileTask struct {
	SourcePath   string
	Extension    string
	DiscoveredAt time.Time
	Origin       Origin
}

// NewTask builds a task for path, extracting its extension.
func NewTask(path string, origin Origin, discoveredAt time.Time) FileTask {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return FileTask{
		SourcePath:   path,
		Extension:    rules.ExtensionOf(path),
		DiscoveredAt: discoveredAt,
		Origin:       origin,
	}
}

// Status is the tag of an Outcome.
type Status string

const (
	StatusMoved   Status = "moved"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Reason explains a skip or a failure.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonNoMatch       Reason = "no_match"
	ReasonSameLocation  Reason = "same_location"
	ReasonVanished      Reason = "vanished_before_move"
	ReasonIOError       Reason = "io_error"
	ReasonNameExhausted Reason = "name_exhausted"
)

// Outcome is the result of handling one FileTask.
type Outcome struct {
	Status      Status
	Reason      Reason
	Source      string
	Destination string
	Err         error
	// Simulated marks a dry-run move: Destination is the exact name a real
	// run would have used, but nothing was touched.
	Simulated bool
	// Renamed is set when the collision policy changed the base name.
	Renamed bool
	Origin  Origin
	At      time.Time
}

// Moved records a (possibly simulated) relocation.
func Moved(task FileTask, destination string, simulated bool) Outcome {
	return Outcome{
		Status:      StatusMoved,
		Source:      task.SourcePath,
		Destination: destination,
		Simulated:   simulated,
		Renamed:     filepath.Base(destination) != filepath.Base(task.SourcePath),
		Origin:      task.Origin,
	}
}

// Skipped records a file that was deliberately left in place.
func Skipped(task FileTask, reason Reason) Outcome {
	return Outcome{Status: StatusSkipped, Reason: reason, Source: task.SourcePath, Origin: task.Origin}
}

// Failed records a per-file error. destination is the attempted target, if any.
func Failed(task FileTask, destination string, err error) Outcome {
	return Outcome{
		Status:      StatusFailed,
		Reason:      ReasonFor(err),
		Source:      task.SourcePath,
		Destination: destination,
		Err:         err,
		Origin:      task.Origin,
	}
}

// ReasonFor maps an error onto the reason reported for it.
func ReasonFor(err error) Reason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, faults.ErrNameExhausted):
		return ReasonNameExhausted
	case faults.Vanished(err):
		return ReasonVanished
	default:
		return ReasonIOError
	}
}

func (o Outcome) String() string {
	switch o.Status {
	case StatusMoved:
		return fmt.Sprintf("moved %s -> %s", o.Source, o.Destination)
	case StatusSkipped:
		return fmt.Sprintf("skipped %s (%s)", o.Source, o.Reason)
	default:
		return fmt.Sprintf("failed %s (%s): %v", o.Source, o.Reason, o.Err)
	}
}
