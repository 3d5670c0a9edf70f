package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ansci/internal/deps"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that required external tools are installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			rows := make([][]string, 0, len(statuses))
			missing := 0
			for _, status := range statuses {
				state := "ok"
				if !status.Available {
					state = status.Detail
					if !status.Optional {
						missing++
					}
				}
				optional := ""
				if status.Optional {
					optional = "optional"
				}
				rows = append(rows, []string{status.Name, status.Command, state, optional})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]tableColumn{
				{Header: "Tool"}, {Header: "Command"}, {Header: "Status"}, {},
			}, rows))

			if missing > 0 {
				return fmt.Errorf("%d required tool(s) missing", missing)
			}
			return nil
		},
	}
}
