// Package events fans pipeline notifications out to connected
// subscribers. Each subscriber gets its own buffered channel; a slow
// subscriber loses events rather than stalling the pipeline. A small
// ring of recent events is replayed to new subscribers so a client
// reconnecting after a blip sees what it missed.
package events
