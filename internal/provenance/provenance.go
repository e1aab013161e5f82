package provenance

import (
	"context"
	"strings"
)

// Metadata holds the recoverable origin of a file. SourceURLs is ordered
// as the OS recorded it, download URL first.
type Metadata struct {
	SourceURLs []string
	Tags       []string
}

// Empty reports whether no origin information was found.
func (m Metadata) Empty() bool {
	return len(m.SourceURLs) == 0 && len(m.Tags) == 0
}

// Lookup reads the origin metadata for path using the platform
// mechanism. A file with no recorded origin returns an empty Metadata
// and a nil error.
func Lookup(ctx context.Context, path string) (Metadata, error) {
	return lookup(ctx, path)
}

// parseMDLSList parses one mdls attribute value, either the list form
//
//	(
//	    "https://example.com/a",
//	    "https://example.com/b"
//	)
//
// or the scalar form `"value"` / `(null)`.
func parseMDLSList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "(null)" {
		return nil
	}
	if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		raw = raw[1 : len(raw)-1]
	}
	var values []string
	for _, line := range strings.Split(raw, ",") {
		item := strings.TrimSpace(line)
		item = strings.Trim(item, `"`)
		if item != "" && item != "null" {
			values = append(values, item)
		}
	}
	return values
}

// parseMDLSOutput splits mdls output into attribute name to raw value,
// where list values span multiple lines until the closing parenthesis.
func parseMDLSOutput(output string) map[string]string {
	attrs := make(map[string]string)
	lines := strings.Split(output, "\n")
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		eq := strings.Index(line, " = ")
		if eq < 0 {
			continue
		}
		name := strings.TrimSpace(line[:eq])
		value := strings.TrimSpace(line[eq+3:])
		if value == "(" {
			var parts []string
			for i++; i < len(lines); i++ {
				inner := strings.TrimSpace(lines[i])
				if inner == ")" {
					break
				}
				parts = append(parts, inner)
			}
			value = "(" + strings.Join(parts, "\n") + ")"
		}
		attrs[name] = value
	}
	return attrs
}
