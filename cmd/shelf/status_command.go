package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"shelf/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			var status api.StatusResponse
			if err := ctx.getJSON("/api/status", &status); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			fmt.Fprintln(out, "Shelf daemon")
			statusKind := statusOK
			if !status.Monitoring {
				statusKind = statusWarn
			}
			fmt.Fprintln(out, renderStatusLine("Status", statusKind, status.Status, colorize))
			fmt.Fprintln(out, renderStatusLine("Watcher", statusKind, yesNo(status.Monitoring), colorize))
			fmt.Fprintln(out, renderStatusLine("AI rename", statusInfo, yesNo(status.RenameByAI), colorize))
			fmt.Fprintln(out, renderStatusLine("Deduplicate", statusInfo, yesNo(status.RemoveDuplicate), colorize))
			fmt.Fprintln(out, renderStatusLine("PID", statusInfo, strconv.Itoa(status.PID), colorize))

			if len(status.Watchlist) == 0 {
				fmt.Fprintln(out, renderStatusLine("Watched folders", statusWarn, "none configured", colorize))
				return nil
			}
			fmt.Fprintln(out, "Watched folders:")
			for _, dir := range status.Watchlist {
				fmt.Fprintf(out, "    %s\n", dir)
			}
			return nil
		},
	}
}
