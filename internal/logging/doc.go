// Package logging constructs the slog loggers used across shelf and
// provides attribute helpers shared by every component.
package logging
