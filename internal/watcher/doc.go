// Package watcher observes the configured watch directories and emits
// one event per new file once its size has stopped changing for a quiet
// period, so partially written downloads are never reported. Events are
// delivered through an unbounded queue: under load memory grows rather
// than events being dropped.
package watcher
