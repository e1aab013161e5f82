// Package api exposes the daemon's control surface over HTTP: live
// status, the routing rules document (read and replace-with-merge),
// monitor start/stop, on-demand AI renames, recent task history, and a
// server-sent-events stream of pipeline notifications. The server binds
// to loopback by default and carries no authentication; anything beyond
// localhost belongs on a reverse proxy.
package api
