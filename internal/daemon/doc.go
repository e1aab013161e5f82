// Package daemon wires the long-running services together: the rules
// store, filesystem watcher, organizer pipeline, task journal, event
// broadcaster, and the HTTP control surface. A file lock enforces a
// single daemon instance per data directory.
package daemon
