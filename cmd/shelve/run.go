package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"shelve/internal/daemon"
	"shelve/internal/faults"
	"shelve/internal/logging"
)

// runOrganizer builds the logger and daemon for one invocation. With watch
// set it scans then watches until SIGINT/SIGTERM; otherwise it performs one
// scan and prints the summary.
func runOrganizer(cmd *cobra.Command, ctx *commandContext, watch bool) error {
	cfg, err := ctx.ensureConfig(cmd)
	if err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := daemon.NewRunID()
	logger, closer, err := logging.NewFromConfig(cfg, logging.SinkOptions{
		Verbose: ctx.isVerbose(),
		DryRun:  ctx.isDryRun(),
		Console: cmd.OutOrStdout(),
		RunID:   runID,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer closer.Close()

	d, err := daemon.New(cfg, logger, daemon.Options{
		DryRun:        ctx.isDryRun(),
		NoInitialScan: ctx.skipInitialScan(),
		RunID:         runID,
	})
	if err != nil {
		logger.Error("startup failed", logging.Error(err))
		return err
	}
	defer d.Close()

	if watch {
		if err := d.Run(signalCtx); err != nil {
			if faults.IsFatal(err) {
				logging.ErrorWithContext(logger, "watcher could not start", "startup_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check source_folder and the system inotify watch limit"),
				)
			} else {
				logger.Error("organizer stopped with error", logging.Error(err))
			}
			return err
		}
		return nil
	}

	summary, err := d.Scan(signalCtx)
	if err != nil && signalCtx.Err() == nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), "scan complete", summary.Moved, summary.Skipped, summary.Failed, ctx.isDryRun())
	if summary.Failed > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d file(s) could not be moved; see %s\n", summary.Failed, cfg.LogPath())
	}
	return nil
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Organize files already in the source folder once, without watching",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrganizer(cmd, ctx, false)
		},
	}
}
