package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"muxplan/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled plan runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					if runs == nil {
						runs = []history.Run{}
					}
					return writeJSON(cmd, runs)
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						run.ID,
						run.StartedAt.Local().Format("2006-01-02 15:04:05"),
						truncate(run.SourcePath, 50),
						run.Container,
						runStatus(run),
					})
				}
				writeTable(out, cols("Run", "Started", "Source", "Container", "Result"), rows)
				return nil
			})
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")
	historyCmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON")

	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	return historyCmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the stages of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				run, entries, err := store.GetRun(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if jsonOutput {
					if entries == nil {
						entries = []history.StageEntry{}
					}
					return writeJSON(cmd, map[string]any{"run": run, "stages": entries})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run:       %s\n", run.ID)
				fmt.Fprintf(out, "Source:    %s\n", run.SourcePath)
				fmt.Fprintf(out, "Container: %s\n", run.Container)
				fmt.Fprintf(out, "Started:   %s\n", run.StartedAt.Local().Format(time.RFC3339))
				fmt.Fprintf(out, "Result:    %s\n\n", runStatus(run))

				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					reason := entry.Reason
					if entry.ErrorMessage != "" {
						reason = fmt.Sprintf("%s: %s", entry.ErrorKind, entry.ErrorMessage)
					}
					rows = append(rows, []string{
						strconv.Itoa(entry.Sequence + 1),
						entry.Stage,
						yesNo(entry.Changed),
						truncate(reason, 60),
						entry.Duration.String(),
					})
				}
				writeTable(out, []column{
					{Title: "#", Right: true}, {Title: "Stage"}, {Title: "Changed"}, {Title: "Reason"}, {Title: "Time", Right: true},
				}, rows)
				if len(run.Arguments) > 0 {
					fmt.Fprintln(out)
					fmt.Fprintln(out, shellJoin(run.Arguments))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON")
	return cmd
}

func (c *commandContext) withHistory(fn func(*history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		return fmt.Errorf("open run journal: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func runStatus(run history.Run) string {
	switch {
	case !run.Finished():
		return "unfinished"
	case run.ErrorMessage != "":
		return "failed"
	case run.ShouldProcess:
		return "remux planned"
	default:
		return "no changes"
	}
}
