// Package journal persists the outcome of every finished task to a
// SQLite database. The journal is an audit trail, not a work queue: the
// pipeline never reads it back, only the history endpoints do. Keeping
// skipped duplicates distinct from failures here is what makes the two
// diagnosable after the fact.
package journal
