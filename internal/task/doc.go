// Package task defines the per-file unit of work flowing through the
// organizer pipeline and the stage state machine that governs it.
package task
