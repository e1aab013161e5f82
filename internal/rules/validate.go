package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FieldError describes a single offending field in a rejected document.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError enumerates every offending field in a rejected
// document. A rejected replace leaves the active document unchanged.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "rules: invalid document"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Reason))
	}
	return "rules: invalid document: " + strings.Join(parts, "; ")
}

// Validate checks the whole document and returns a *ValidationError
// listing every problem found, or nil when the document is usable.
func Validate(doc Document) error {
	var fields []FieldError

	seen := make(map[string]struct{}, len(doc.Watchlist))
	for i, entry := range doc.Watchlist {
		field := fmt.Sprintf("watchlist[%d]", i)
		trimmed := strings.TrimSpace(entry)
		if trimmed == "" {
			fields = append(fields, FieldError{field, "empty path"})
			continue
		}
		if !filepath.IsAbs(trimmed) {
			fields = append(fields, FieldError{field, "path must be absolute"})
			continue
		}
		if _, dup := seen[trimmed]; dup {
			fields = append(fields, FieldError{field, "duplicate watch entry"})
			continue
		}
		seen[trimmed] = struct{}{}
		info, err := os.Stat(trimmed)
		switch {
		case err != nil:
			fields = append(fields, FieldError{field, "directory does not exist"})
		case !info.IsDir():
			fields = append(fields, FieldError{field, "not a directory"})
		}
	}

	fields = append(fields, validateTable("schema.move.url", doc.Schema.Move.URL)...)
	fields = append(fields, validateTable("schema.move.tag", doc.Schema.Move.Tag)...)

	for i, dir := range doc.Schema.Rename {
		field := fmt.Sprintf("schema.rename[%d]", i)
		if strings.TrimSpace(dir) == "" {
			fields = append(fields, FieldError{field, "empty path"})
		} else if !filepath.IsAbs(dir) {
			fields = append(fields, FieldError{field, "path must be absolute"})
		}
	}

	if doc.Settings.RenameByAI && strings.TrimSpace(doc.Settings.RenameModel) == "" {
		fields = append(fields, FieldError{"settings.rename_ai", "model required when rename_by_ai is enabled"})
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func validateTable(prefix string, table map[string]string) []FieldError {
	var fields []FieldError
	for pattern, destination := range table {
		field := prefix + "[" + pattern + "]"
		if strings.TrimSpace(pattern) == "" {
			fields = append(fields, FieldError{prefix, "empty pattern"})
			continue
		}
		if strings.TrimSpace(destination) == "" {
			fields = append(fields, FieldError{field, "pattern has no destination"})
			continue
		}
		if !filepath.IsAbs(destination) {
			fields = append(fields, FieldError{field, "destination must be absolute"})
		}
	}
	return fields
}
