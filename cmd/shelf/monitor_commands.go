package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"shelf/internal/api"
)

func newMonitorCommand(ctx *commandContext) *cobra.Command {
	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Control the filesystem watcher",
	}

	monitorCmd.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Start watching configured folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp api.MonitorResponse
			if err := ctx.sendJSON(http.MethodPost, "/api/start-monitor", nil, &resp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (watcher active: %s)\n", resp.Message, yesNo(resp.Monitoring))
			return nil
		},
	})

	monitorCmd.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Stop watching configured folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp api.MonitorResponse
			if err := ctx.sendJSON(http.MethodPost, "/api/stop-monitor", nil, &resp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (watcher active: %s)\n", resp.Message, yesNo(resp.Monitoring))
			return nil
		},
	})

	return monitorCmd
}
