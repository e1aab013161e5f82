// Package notifications pushes organizer milestones to ntfy.
//
// The default implementation publishes to the topic configured in
// config.toml and gracefully degrades to a no-op when no topic is set.
// Move, rename, and error pushes can be toggled individually so a noisy
// inbox folder doesn't drown out failures.
//
// All pipeline code depends only on the Service interface; extend this
// package for alternative transports.
package notifications
