package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"ansci/internal/cachestore"
	"ansci/internal/config"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the generation cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cached entries per pipeline stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCache(func(cfg *config.Config, cache *cachestore.Store) error {
				stats, err := cache.Stats(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Cache:   %s\n", cache.Path())
				fmt.Fprintf(out, "Enabled: %s\n", yesNo(cfg.Cache.Enabled))
				if len(stats) == 0 {
					fmt.Fprintln(out, "Cache is empty")
					return nil
				}
				rows := make([][]string, 0, len(stats))
				for _, stat := range stats {
					rows = append(rows, []string{
						stat.Stage,
						strconv.FormatInt(stat.Entries, 10),
						stat.Oldest.Local().Format(time.DateTime),
						stat.Newest.Local().Format(time.DateTime),
					})
				}
				fmt.Fprintln(out, renderTable([]tableColumn{
					{Header: "Stage"}, {Header: "Entries", Numeric: true},
					{Header: "Oldest"}, {Header: "Newest"},
				}, rows))
				return nil
			})
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var stage string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCache(func(cfg *config.Config, cache *cachestore.Store) error {
				removed, err := cache.Clear(cmd.Context(), stage)
				if err != nil {
					return err
				}
				if stage == "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached entries\n", removed)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached entries for stage %q\n", removed, stage)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&stage, "stage", "", "Limit removal to one stage (outline or scene)")
	return cmd
}
