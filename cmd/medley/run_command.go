package main

import (
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"medley/internal/logging"
	"medley/internal/runstore"
	"medley/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Ingest the source tables and refresh the converted music cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			lockPath := filepath.Join(cfg.Paths.DataDir, "medley.lock")
			lock := flock.New(lockPath)
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !locked {
				return errors.New("another medley run is already in progress")
			}
			defer func() { _ = lock.Unlock() }()

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			store, err := runstore.Open(cfg)
			if err != nil {
				return fmt.Errorf("open run store: %w", err)
			}
			defer store.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			result, err := workflow.New(cfg, store, logger).Run(runCtx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Registrations: %d\n", result.Summary.Registrations)
			fmt.Fprintf(out, "Submissions attached: %d\n", result.Summary.Submissions)
			fmt.Fprintf(out, "Tracks converted: %d\n", result.Summary.Converted)
			if len(result.Diagnostics) > 0 {
				fmt.Fprintf(out, "Diagnostics: %d (medley status for details)\n", len(result.Diagnostics))
			}
			fmt.Fprintf(out, "Report: %s\n", result.ReportPath)
			return nil
		},
	}
}
