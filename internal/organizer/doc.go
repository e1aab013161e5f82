// Package organizer drives each stabilized file through the pipeline
// state machine: provenance lookup, pattern match, duplicate check,
// move, and the optional extract/AI-rename sub-pipeline. A small worker
// pool drains the watcher queue so slow OCR and model calls on one file
// never stall the others. Every terminal outcome is journaled, and the
// externally visible transitions are published to the event
// broadcaster.
//
// Failure policy: extraction and naming failures degrade the task to a
// committed move under its original name; filesystem failures are fatal
// to the single task and never to the pipeline.
package organizer
