package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"asciireel/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past convert and play runs",
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryPruneCommand(ctx))

	return historyCmd
}

func withHistory(ctx *commandContext, fn func(*history.Store) error) error {
	store, err := ctx.openHistory()
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("run history is disabled (history.enabled = false)")
	}
	defer store.Close()
	return fn(store)
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var kinds []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseKinds(kinds)
			if err != nil {
				return err
			}
			return withHistory(ctx, func(store *history.Store) error {
				runs, err := store.List(cmd.Context(), limit, filter...)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						shortID(run.ID),
						titleCase(string(run.Kind)),
						titleCase(string(run.Status)),
						formatTimestamp(run.StartedAt),
						formatRunDuration(*run),
						formatCount(run.FramesEmitted),
						run.Root,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Kind", "Status", "Started", "Duration", "Frames", "Directory"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "Only show runs of these kinds (convert, play)")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one run by id or unique id prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				run, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				rows := [][]string{
					{"ID", run.ID},
					{"Kind", titleCase(string(run.Kind))},
					{"Status", titleCase(string(run.Status))},
					{"Directory", run.Root},
				}
				if run.Source != "" {
					rows = append(rows, []string{"Source", run.Source})
				}
				rows = append(rows,
					[]string{"Target FPS", formatFPS(run.TargetFPS)},
					[]string{"Frames scanned", formatCount(run.FramesScanned)},
					[]string{"Frames emitted", formatCount(run.FramesEmitted)},
					[]string{"Frames skipped", formatCount(run.FramesSkipped)},
					[]string{"Started", formatTimestamp(run.StartedAt)},
					[]string{"Finished", formatTimestamp(run.FinishedAt)},
					[]string{"Duration", formatRunDuration(*run)},
				)
				if run.Error != "" {
					rows = append(rows, []string{"Error", run.Error})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
				return nil
			})
		},
	}
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete finished runs older than a given age",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive, got %s", olderThan)
			}
			return withHistory(ctx, func(store *history.Store) error {
				removed, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s runs\n", formatCount(removed))
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age beyond which finished runs are removed")
	return cmd
}

func parseKinds(values []string) ([]history.Kind, error) {
	kinds := make([]history.Kind, 0, len(values))
	for _, value := range values {
		switch kind := history.Kind(strings.ToLower(strings.TrimSpace(value))); kind {
		case history.KindConvert, history.KindPlay:
			kinds = append(kinds, kind)
		case "":
		default:
			return nil, fmt.Errorf("unknown run kind %q (use convert or play)", value)
		}
	}
	return kinds, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatRunDuration(run history.Run) string {
	if run.Status == history.StatusRunning {
		return "-"
	}
	return formatElapsed(run.Duration())
}
