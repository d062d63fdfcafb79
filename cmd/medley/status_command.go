package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"medley/internal/runstore"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var showDiagnostics bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show recent runs and their diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := runstore.Open(cfg)
			if err != nil {
				return fmt.Errorf("open run store: %w", err)
			}
			defer store.Close()

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("load runs: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No recorded runs")
				return nil
			}

			headers := []string{"Started", "Status", "Registrations", "Attached", "Converted", "Diags"}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				diags, err := store.Diagnostics(cmd.Context(), run.ID)
				if err != nil {
					return fmt.Errorf("load diagnostics: %w", err)
				}
				rows = append(rows, []string{
					run.StartedAt.Local().Format("2006-01-02 15:04:05"),
					run.Status,
					strconv.Itoa(run.Registrations),
					strconv.Itoa(run.Submissions),
					strconv.Itoa(run.Converted),
					strconv.Itoa(len(diags)),
				})
			}
			aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight}
			fmt.Fprintln(out, renderTable(headers, rows, aligns))

			if showDiagnostics {
				latest := runs[0]
				diags, err := store.Diagnostics(cmd.Context(), latest.ID)
				if err != nil {
					return fmt.Errorf("load diagnostics: %w", err)
				}
				if len(diags) > 0 {
					fmt.Fprintf(out, "\nDiagnostics from run %s:\n", latest.ID)
					for _, record := range diags {
						fmt.Fprintf(out, "  %s\n", record)
					}
				}
				if latest.Error != "" {
					fmt.Fprintf(out, "\nRun failed: %s\n", latest.Error)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show")
	cmd.Flags().BoolVarP(&showDiagnostics, "diagnostics", "d", false, "Print the latest run's diagnostics")
	return cmd
}
