package main

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"shelf/internal/rules"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Manage watched folders",
	}

	watchCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List watched folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			var doc rules.Document
			if err := ctx.getJSON("/api/config", &doc); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(doc.Watchlist) == 0 {
				fmt.Fprintln(out, "No folders are being watched")
				return nil
			}
			for _, dir := range doc.Watchlist {
				fmt.Fprintln(out, dir)
			}
			return nil
		},
	})

	watchCmd.AddCommand(&cobra.Command{
		Use:   "add <folder>",
		Short: "Add a folder to the watchlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := absolutePath(args[0])
			if err != nil {
				return err
			}
			var doc rules.Document
			if err := ctx.getJSON("/api/config", &doc); err != nil {
				return err
			}
			for _, existing := range doc.Watchlist {
				if existing == target {
					fmt.Fprintf(cmd.OutOrStdout(), "%s is already watched\n", target)
					return nil
				}
			}
			doc.Watchlist = append(doc.Watchlist, target)
			if err := ctx.sendJSON(http.MethodPut, "/api/config", doc, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s\n", target)
			return nil
		},
	})

	watchCmd.AddCommand(&cobra.Command{
		Use:   "remove <folder>",
		Short: "Remove a folder from the watchlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := absolutePath(args[0])
			if err != nil {
				return err
			}
			var doc rules.Document
			if err := ctx.getJSON("/api/config", &doc); err != nil {
				return err
			}
			kept := doc.Watchlist[:0]
			removed := false
			for _, existing := range doc.Watchlist {
				if existing == target {
					removed = true
					continue
				}
				kept = append(kept, existing)
			}
			if !removed {
				return fmt.Errorf("%s is not in the watchlist", target)
			}
			doc.Watchlist = kept
			if err := ctx.sendJSON(http.MethodPut, "/api/config", doc, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stopped watching %s\n", target)
			return nil
		},
	})

	return watchCmd
}

func absolutePath(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("folder path is required")
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	return abs, nil
}
