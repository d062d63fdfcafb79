package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"medley/internal/config"
	"medley/internal/diag"
	"medley/internal/ingest"
	"medley/internal/ledger"
	"medley/internal/logging"
	"medley/internal/media/ffprobe"
	"medley/internal/mediacache"
	"medley/internal/report"
)

// loadLedger ingests the events, entries, and confirmation tables without
// touching the submission sheet or the media caches.
func loadLedger(cfg *config.Config) (*ledger.Ledger, error) {
	diags := diag.New(logging.NewNop())
	cat, err := ingest.ReadEvents(cfg.Inputs.EventsPath)
	if err != nil {
		return nil, err
	}
	_, l, err := ingest.ReadEntries(cfg.Inputs.EntriesPath, cat, diags)
	if err != nil {
		return nil, err
	}
	if path := cfg.Inputs.ConfirmationsPath; path != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := ingest.ReadConfirmations(path, l, diags); err != nil {
				return nil, err
			}
		}
	}
	return l, nil
}

func newReportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Rebuild the HTML music status report from the current caches",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			l, err := loadLedger(cfg)
			if err != nil {
				return err
			}

			cache := mediacache.New(cfg, logging.NewNop())
			rep := report.Build(l, cache, cfg.Paths.ReportPath, func(path string) (float64, error) {
				return ffprobe.ReadDuration(cmd.Context(), cfg.Encoder.FFprobeBinary, path)
			})

			file, err := os.Create(cfg.Paths.ReportPath)
			if err != nil {
				return fmt.Errorf("create report: %w", err)
			}
			defer file.Close()
			if err := rep.WriteHTML(file); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report: %s\n", cfg.Paths.ReportPath)
			return nil
		},
	}
}

func newEntriesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "entries",
		Short: "Print the entry sheet grouped by event",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			l, err := loadLedger(cfg)
			if err != nil {
				return err
			}
			return report.WriteEntrySheet(cmd.OutOrStdout(), l)
		},
	}
}
