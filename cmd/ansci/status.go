package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ansci/internal/assemble"
	"ansci/internal/config"
	"ansci/internal/queue"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "List generation jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				jobs, err := store.ListJobs(cmd.Context())
				if err != nil {
					return err
				}
				if len(jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs recorded")
					return nil
				}
				rows := make([][]string, 0, len(jobs))
				for _, job := range jobs {
					rows = append(rows, []string{
						shortID(job.ID),
						job.Title,
						string(job.Status),
						job.Scope,
						job.SplitMode,
						job.CreatedAt.Local().Format(time.DateTime),
					})
				}
				table := renderTable([]tableColumn{
					{Header: "ID"}, {Header: "Title"}, {Header: "Status"},
					{Header: "Scope"}, {Header: "Split"}, {Header: "Created"},
				}, rows)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status [job-id]",
		Short: "Show job progress and scene quality",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				var ref string
				if len(args) > 0 {
					ref = args[0]
				}
				job, err := resolveJob(cmd.Context(), store, ref)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Job:     %s\n", job.ID)
				fmt.Fprintf(out, "Title:   %s\n", job.Title)
				fmt.Fprintf(out, "Status:  %s\n", job.Status)
				if job.ErrorMsg != "" {
					fmt.Fprintf(out, "Error:   %s\n", job.ErrorMsg)
				}

				scenes, err := store.Scenes(cmd.Context(), job.ID)
				if err != nil {
					return err
				}
				if len(scenes) > 0 {
					rows := make([][]string, 0, len(scenes))
					for _, sc := range scenes {
						rows = append(rows, []string{
							strconv.Itoa(sc.Index + 1),
							sc.Title,
							string(sc.Status),
							string(sc.Flag),
							formatSeconds(sc.FinalSeconds),
						})
					}
					fmt.Fprintln(out)
					fmt.Fprintln(out, renderTable([]tableColumn{
						{Header: "Scene", Numeric: true}, {Header: "Title"},
						{Header: "Status"}, {Header: "Flag"},
						{Header: "Duration", Numeric: true},
					}, rows))
				}

				if job.ReportJSON != "" {
					var report assemble.Report
					if err := json.Unmarshal([]byte(job.ReportJSON), &report); err == nil {
						fmt.Fprintf(out, "\nOverall: %s (%s total)\n", report.Overall, formatSeconds(report.TotalSeconds))
						for _, output := range report.Outputs {
							fmt.Fprintf(out, "  %s\n", output)
						}
					}
				}
				return nil
			})
		},
	}
}

// resolveJob accepts a full job ID, a unique ID prefix, or an empty
// reference meaning the most recent job.
func resolveJob(ctx context.Context, store *queue.Store, ref string) (*queue.Job, error) {
	ref = strings.TrimSpace(ref)
	if ref != "" {
		if job, err := store.GetJob(ctx, ref); err != nil {
			return nil, err
		} else if job != nil {
			return job, nil
		}
	}

	jobs, err := store.ListJobs(ctx)
	if err != nil {
		return nil, err
	}
	if ref == "" {
		if len(jobs) == 0 {
			return nil, fmt.Errorf("no jobs recorded")
		}
		return jobs[0], nil
	}

	var match *queue.Job
	for _, job := range jobs {
		if strings.HasPrefix(job.ID, ref) {
			if match != nil {
				return nil, fmt.Errorf("job id prefix %q is ambiguous", ref)
			}
			match = job
		}
	}
	if match == nil {
		return nil, fmt.Errorf("job %q not found", ref)
	}
	return match, nil
}

func renderReportTable(report *assemble.Report) string {
	rows := make([][]string, 0, len(report.Scenes))
	for _, sc := range report.Scenes {
		rows = append(rows, []string{
			strconv.Itoa(sc.Index + 1),
			sc.Title,
			string(sc.Flag),
			formatSeconds(sc.DurationSeconds),
			fmt.Sprintf("%.2f", sc.Confidence),
			strings.Join(sc.Notes, "; "),
		})
	}
	return renderTable([]tableColumn{
		{Header: "Scene", Numeric: true}, {Header: "Title"}, {Header: "Flag"},
		{Header: "Duration", Numeric: true}, {Header: "Confidence", Numeric: true},
		{Header: "Notes"},
	}, rows)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatSeconds(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1fs", seconds)
}
