package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"asciireel/internal/deps"
	"asciireel/internal/history"
	"asciireel/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check directories, external tools, and run history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Directories", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				fmt.Fprintln(stdout, checkLine(result, colorize))
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range dependencyLines(preflight.CheckSystemDeps(cmd.Context(), cfg), colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Run History", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if !cfg.History.Enabled {
				fmt.Fprintln(stdout, renderStatusLine("History", statusInfo, "Disabled", colorize))
				return nil
			}
			return withHistory(ctx, func(store *history.Store) error {
				summary, err := store.Summarize(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(stdout, renderStatusLine("Database", statusOK, store.Path(), colorize))
				if summary.Total == 0 {
					fmt.Fprintln(stdout, "No runs recorded")
					return nil
				}
				if summary.LastRun != nil {
					last := summary.LastRun
					fmt.Fprintln(stdout, renderStatusLine("Last run", statusInfo,
						fmt.Sprintf("%s %s at %s", titleCase(string(last.Kind)), string(last.Status), formatTimestamp(last.StartedAt)), colorize))
				}
				rows := [][]string{
					{"Completed", formatCount(int64(summary.Completed))},
					{"Interrupted", formatCount(int64(summary.Interrupted))},
					{"Failed", formatCount(int64(summary.Failed))},
					{"Running", formatCount(int64(summary.Running))},
					{"Total", formatCount(int64(summary.Total))},
				}
				fmt.Fprintln(stdout, renderTable([]string{"Status", "Runs"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}

func checkLine(result preflight.Result, colorize bool) string {
	if result.Passed {
		return renderStatusLine(result.Name, statusOK, result.Detail, colorize)
	}
	return renderStatusLine(result.Name, statusError, result.Detail, colorize)
}

func dependencyLines(statuses []deps.Status, colorize bool) []string {
	lines := make([]string, 0, len(statuses)+1)
	missing := make([]string, 0)
	for _, dep := range statuses {
		if dep.Available {
			message := "Ready"
			switch {
			case dep.Path != "":
				message = fmt.Sprintf("Ready (%s)", dep.Path)
			case dep.Command != "":
				message = fmt.Sprintf("Ready (command: %s)", dep.Command)
			}
			lines = append(lines, renderStatusLine(dep.Name, statusOK, message, colorize))
			continue
		}

		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if dep.Optional {
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
		missing = append(missing, dep.Name)
	}
	if len(missing) > 0 {
		lines = append(lines, renderStatusLine("Missing", statusWarn, fmt.Sprintf("%s (convert needs ffmpeg and ffprobe on PATH)", strings.Join(missing, ", ")), colorize))
	}
	return lines
}
