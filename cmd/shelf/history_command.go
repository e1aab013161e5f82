package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"shelf/internal/api"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently processed files",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp api.HistoryResponse
			if err := ctx.getJSON("/api/history?limit="+strconv.Itoa(limit), &resp); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(resp.Entries) == 0 {
				fmt.Fprintln(out, "No history recorded yet")
				return nil
			}

			rows := make([][]string, 0, len(resp.Entries))
			for _, entry := range resp.Entries {
				rows = append(rows, []string{
					entry.CompletedAt.Local().Format(time.DateTime),
					filepath.Base(entry.SourcePath),
					historyOutcome(entry),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Completed", "File", "Outcome"}, rows))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries to show")
	return cmd
}

func historyOutcome(entry api.HistoryEntry) string {
	switch entry.Stage {
	case "committed":
		if entry.DestinationPath != "" {
			return "moved to " + filepath.Dir(entry.DestinationPath)
		}
		return "left in place"
	case "skipped":
		return "duplicate removed"
	case "failed":
		return "failed: " + entry.FailureReason
	default:
		return entry.Stage
	}
}
