package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"medley/internal/deps"
)

const (
	ansiGreen = "\x1b[32m"
	ansiRed   = "\x1b[31m"
	ansiReset = "\x1b[0m"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check the external binaries the pipeline needs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := isTerminal(out)
			statuses := deps.CheckBinaries(deps.Requirements(cfg))

			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				state := "ok"
				if !status.Available {
					state = "missing"
					if status.Detail != "" {
						state = status.Detail
					}
				}
				if colorize {
					if status.Available {
						state = ansiGreen + state + ansiReset
					} else {
						state = ansiRed + state + ansiReset
					}
				}
				rows = append(rows, []string{status.Name, status.Command, state})
			}
			fmt.Fprintln(out, renderTable([]string{"Dependency", "Command", "Status"}, rows, nil))

			return deps.Missing(statuses)
		},
	}
}
