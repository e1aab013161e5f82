package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"shelf/internal/api"
)

func newRenameCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <file>",
		Short: "Rename a file using the configured AI model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := absolutePath(args[0])
			if err != nil {
				return err
			}

			var resp api.RenameResponse
			err = ctx.sendJSON(http.MethodPost, "/api/rename", api.RenameRequest{Path: path}, &resp)
			if err != nil {
				return err
			}
			if !resp.Success {
				return fmt.Errorf("rename failed: %s", resp.Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", resp.OldName, resp.NewName)
			return nil
		},
	}
}
