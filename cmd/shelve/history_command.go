package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"shelve/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit  int
		status string
		runID  string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently organized files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			status = strings.ToLower(strings.TrimSpace(status))
			switch status {
			case "", "moved", "skipped", "failed":
			default:
				return fmt.Errorf("invalid --status %q (want moved, skipped or failed)", status)
			}

			out := cmd.OutOrStdout()
			path := cfg.HistoryPath()
			if _, err := os.Stat(path); os.IsNotExist(err) {
				fmt.Fprintln(out, "No history recorded yet")
				return nil
			}
			store, err := history.Open(path)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), history.Filter{Limit: limit, Status: status, RunID: runID})
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No matching history entries")
				return nil
			}
			fmt.Fprintln(out, renderHistory(entries, colorEnabled(out)))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of entries to show (0 for all)")
	cmd.Flags().StringVar(&status, "status", "", "Only show moved, skipped or failed entries")
	cmd.Flags().StringVar(&runID, "run", "", "Only show entries from one run id")
	return cmd
}

func renderHistory(entries []history.Entry, color bool) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		detail := e.Destination
		switch {
		case e.Status == "failed" && e.Error != "":
			detail = e.Error
		case e.Status == "skipped":
			detail = e.Reason
		}
		statusLabel := e.Status
		if e.Simulated {
			statusLabel += " (dry run)"
		}
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.RecordedAt.Local().Format(time.DateTime),
			colorStatus(statusLabel, color && !e.Simulated),
			e.Origin,
			e.Source,
			detail,
			shortRunID(e.RunID),
		})
	}
	return renderTable(
		[]string{"ID", "When", "Status", "Origin", "Source", "Destination / Reason", "Run"},
		rows,
		[]columnAlignment{alignRight},
	)
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
