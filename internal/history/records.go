package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"shelve/internal/logging"
	"shelve/internal/organizer"
)

// Fixed-width UTC timestamps keep lexical and chronological order aligned.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one journaled outcome.
type Entry struct {
	ID          int64
	RunID       string
	Origin      string
	Status      string
	Reason      string
	Source      string
	Destination string
	Simulated   bool
	Error       string
	RecordedAt  time.Time
}

// Filter narrows List results. Zero values match everything; Limit <= 0
// means no limit.
type Filter struct {
	Limit  int
	Status string
	RunID  string
}

// Record inserts one outcome for runID.
func (s *Store) Record(ctx context.Context, runID string, outcome organizer.Outcome) error {
	at := outcome.At
	if at.IsZero() {
		at = time.Now()
	}
	var errText string
	if outcome.Err != nil {
		errText = outcome.Err.Error()
	}
	origin := string(outcome.Origin)
	if origin == "" {
		origin = string(organizer.OriginScan)
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO outcomes (run_id, origin, status, reason, source_path, destination_path, simulated, error_message, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		origin,
		string(outcome.Status),
		string(outcome.Reason),
		outcome.Source,
		outcome.Destination,
		boolToInt(outcome.Simulated),
		errText,
		at.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

// List returns entries newest first.
func (s *Store) List(ctx context.Context, filter Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if status := strings.TrimSpace(filter.Status); status != "" {
		where = append(where, "status = ?")
		args = append(args, status)
	}
	if runID := strings.TrimSpace(filter.RunID); runID != "" {
		where = append(where, "run_id = ?")
		args = append(args, runID)
	}
	query := `SELECT id, run_id, origin, status, reason, source_path, destination_path, simulated, error_message, recorded_at FROM outcomes`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	var entries []Entry
	err := retryOnBusy(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		entries = entries[:0]
		for rows.Next() {
			entry, err := scanEntry(rows)
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	return entries, nil
}

// Prune deletes entries recorded before cutoff and returns how many went.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM outcomes WHERE recorded_at < ?`, cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("prune outcomes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune outcomes: %w", err)
	}
	return n, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		entry     Entry
		simulated int
		recorded  string
	)
	if err := rows.Scan(
		&entry.ID,
		&entry.RunID,
		&entry.Origin,
		&entry.Status,
		&entry.Reason,
		&entry.Source,
		&entry.Destination,
		&simulated,
		&entry.Error,
		&recorded,
	); err != nil {
		return Entry{}, err
	}
	entry.Simulated = simulated != 0
	if ts, err := time.Parse(timeLayout, recorded); err == nil {
		entry.RecordedAt = ts
	}
	return entry, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

// Reporter journals outcomes for one run. Write failures are logged and never
// interrupt organizing.
type Reporter struct {
	store  *Store
	runID  string
	logger *slog.Logger
}

// NewReporter binds store to runID.
func NewReporter(store *Store, runID string, logger *slog.Logger) *Reporter {
	return &Reporter{store: store, runID: runID, logger: logging.NewComponentLogger(logger, "history")}
}

func (r *Reporter) Report(ctx context.Context, outcome organizer.Outcome) {
	if err := r.store.Record(context.WithoutCancel(ctx), r.runID, outcome); err != nil {
		logging.WarnWithContext(r.logger, "failed to journal outcome", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldSource, outcome.Source),
			logging.String(logging.FieldImpact, "outcome missing from shelve history"),
			logging.String(logging.FieldErrorHint, "check free space and permissions on the data directory"),
		)
	}
}
