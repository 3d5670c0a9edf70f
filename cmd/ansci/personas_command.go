package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ansci/internal/persona"
)

func newPersonasCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "personas",
		Short: "List narration persona presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			registry, err := persona.Load(cfg.Paths.PersonasPath)
			if err != nil {
				return err
			}

			names := registry.Names()
			rows := make([][]string, 0, len(names))
			for _, name := range names {
				preset, ok := registry.Lookup(name)
				if !ok {
					continue
				}
				marker := ""
				if name == cfg.TTS.Persona {
					marker = "default"
				}
				rows = append(rows, []string{
					preset.Name,
					preset.Voice,
					fmt.Sprintf("%.2f", preset.Speed),
					preset.Style,
					marker,
				})
			}
			table := renderTable([]tableColumn{
				{Header: "Persona"}, {Header: "Voice"},
				{Header: "Speed", Numeric: true}, {Header: "Style"}, {},
			}, rows)
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}
}
