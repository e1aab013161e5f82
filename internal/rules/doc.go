// Package rules manages the routing rule document: feature toggles, the
// watch list, the URL and tag pattern tables, and the AI-rename folder
// list. The JSON field names are the stable contract the GUI and CLI
// bind to. The document is published as an atomically swapped immutable
// snapshot; writers replace the whole document, never mutate in place.
package rules
