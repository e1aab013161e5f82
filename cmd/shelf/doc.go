// Package main hosts the Shelf CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into
// HTTP calls against the daemon's control API: watcher control,
// watchlist edits, on-demand renames, history queries, and
// configuration scaffolding. Configuration resolution and API address
// discovery live here so subcommands stay declarative.
package main
