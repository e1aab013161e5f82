// Package match resolves file provenance (a source URL or a tag)
// against a pattern table to a destination directory. Two pattern
// dialects share one table: literal substrings and `/`-separated
// templates with `{$var}` (one segment) or `{$*}` (the remaining
// suffix) placeholders. When several rules match, the one with the
// most literal characters wins, so a specific `domain.com/docs/{$*}`
// rule is never shadowed by a generic `domain.com` one.
package match
