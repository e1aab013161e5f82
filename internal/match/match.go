package match

import (
	"net/url"
	"strings"
)

const (
	varPlaceholder      = "{$var}"
	wildcardPlaceholder = "{$*}"
)

// Result is the tagged outcome of a table lookup. Callers branch on
// Matched explicitly so the no-match fallback decision cannot be
// forgotten.
type Result struct {
	Matched     bool
	Destination string
}

// NoMatch is the zero Result.
var NoMatch = Result{}

// Match resolves provenance against the table and returns the single
// best-matching destination. URL schemes are stripped from the
// provenance before comparison since rule patterns are written without
// them.
func Match(table map[string]string, provenance string) Result {
	provenance = stripScheme(strings.TrimSpace(provenance))
	if provenance == "" || len(table) == 0 {
		return NoMatch
	}

	best := NoMatch
	bestWeight := -1
	bestLen := -1
	for pattern, destination := range table {
		if !patternMatches(pattern, provenance) {
			continue
		}
		weight := literalWeight(pattern)
		if weight > bestWeight || (weight == bestWeight && len(pattern) > bestLen) {
			best = Result{Matched: true, Destination: destination}
			bestWeight = weight
			bestLen = len(pattern)
		}
	}
	return best
}

// DomainFallback routes by the URL's second-level domain label when no
// rule matched directly: a rule pattern containing the label (case
// insensitive) wins. Mirrors the sorter's historical behavior for bare
// domain rules.
func DomainFallback(table map[string]string, rawURL string) Result {
	domain := domainLabel(rawURL)
	if domain == "" {
		return NoMatch
	}
	best := NoMatch
	bestLen := -1
	for pattern, destination := range table {
		if strings.Contains(strings.ToLower(pattern), domain) && len(pattern) > bestLen {
			best = Result{Matched: true, Destination: destination}
			bestLen = len(pattern)
		}
	}
	return best
}

func patternMatches(pattern, provenance string) bool {
	if !strings.Contains(pattern, "{$") {
		return strings.Contains(provenance, pattern)
	}
	return segmentsMatch(splitSegments(pattern), splitSegments(provenance))
}

// segmentsMatch walks pattern and provenance segments left to right.
// `{$var}` absorbs exactly one segment, `{$*}` terminates the walk and
// absorbs any remaining suffix. Provenance segments beyond the pattern
// are allowed: the rule constrains a prefix of the path.
func segmentsMatch(pattern, provenance []string) bool {
	i := 0
	for _, seg := range pattern {
		if seg == wildcardPlaceholder {
			return true
		}
		if i >= len(provenance) {
			return false
		}
		if seg != varPlaceholder && seg != provenance[i] {
			return false
		}
		i++
	}
	return true
}

// literalWeight counts the literal (non-placeholder) characters of a
// pattern, the specificity measure used to rank competing matches.
func literalWeight(pattern string) int {
	weight := len(pattern)
	weight -= strings.Count(pattern, varPlaceholder) * len(varPlaceholder)
	weight -= strings.Count(pattern, wildcardPlaceholder) * len(wildcardPlaceholder)
	return weight
}

func splitSegments(value string) []string {
	value = strings.Trim(value, "/")
	if value == "" {
		return nil
	}
	return strings.Split(value, "/")
}

func stripScheme(value string) string {
	if idx := strings.Index(value, "://"); idx >= 0 {
		value = value[idx+3:]
	}
	return value
}

// domainLabel extracts the second-level domain label from a URL
// ("docs.example.com" yields "example"). Returns "" when the URL has no
// usable host.
func domainLabel(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return ""
	}
	parts := strings.Split(parsed.Hostname(), ".")
	if len(parts) < 2 {
		return strings.ToLower(parts[0])
	}
	return strings.ToLower(parts[1])
}
