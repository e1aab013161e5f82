package match_test

import (
	"testing"

	"shelf/internal/match"
)

func TestLiteralSubstringMatch(t *testing.T) {
	table := map[string]string{"github.com": "/sorted/code"}

	got := match.Match(table, "https://github.com/golang/go/releases")
	if !got.Matched || got.Destination != "/sorted/code" {
		t.Fatalf("Match = %+v", got)
	}

	if got := match.Match(table, "https://gitlab.com/x"); got.Matched {
		t.Fatalf("expected no match, got %+v", got)
	}
}

func TestVarPlaceholderAbsorbsOneSegment(t *testing.T) {
	table := map[string]string{"a.com/course/{$var}": "/sorted/courses"}

	if got := match.Match(table, "a.com/course/math101"); !got.Matched {
		t.Fatalf("expected match, got %+v", got)
	}
	// Trailing segments beyond the placeholder are allowed.
	if got := match.Match(table, "a.com/course/math101/week2"); !got.Matched {
		t.Fatalf("expected match with trailing segments, got %+v", got)
	}
	if got := match.Match(table, "a.com/course"); got.Matched {
		t.Fatalf("placeholder must absorb a segment, got %+v", got)
	}
	if got := match.Match(table, "a.com/blog/math101"); got.Matched {
		t.Fatalf("literal segment mismatch must fail, got %+v", got)
	}
}

func TestWildcardAbsorbsRemainder(t *testing.T) {
	table := map[string]string{"a.com/{$*}": "/sorted/a"}

	if got := match.Match(table, "a.com/x/y/z"); !got.Matched {
		t.Fatalf("expected wildcard match, got %+v", got)
	}
	if got := match.Match(table, "b.com/x"); got.Matched {
		t.Fatalf("expected no match for other domain, got %+v", got)
	}
}

func TestMoreSpecificRuleWins(t *testing.T) {
	table := map[string]string{
		"a.com":             "/sorted/generic",
		"a.com/{$*}":        "/sorted/wild",
		"a.com/docs/{$var}": "/sorted/docs",
	}

	if got := match.Match(table, "a.com/docs/api"); got.Destination != "/sorted/docs" {
		t.Fatalf("expected most specific rule, got %+v", got)
	}
	if got := match.Match(table, "a.com/other"); got.Destination != "/sorted/wild" {
		t.Fatalf("expected wildcard over bare literal, got %+v", got)
	}
}

func TestTieBreakPrefersLongerPattern(t *testing.T) {
	// Equal literal weight (6 chars each), longer full pattern wins.
	table := map[string]string{
		"a.com/":      "/sorted/lit",
		"a.com/{$var}": "/sorted/tmpl",
	}
	if got := match.Match(table, "a.com/thing"); got.Destination != "/sorted/tmpl" {
		t.Fatalf("tie-break failed, got %+v", got)
	}
}

func TestDomainFallback(t *testing.T) {
	table := map[string]string{"drive.google.com": "/sorted/drive"}

	got := match.DomainFallback(table, "https://docs.google.com/document/d/abc")
	if !got.Matched || got.Destination != "/sorted/drive" {
		t.Fatalf("DomainFallback = %+v", got)
	}

	if got := match.DomainFallback(table, "https://example.org/file"); got.Matched {
		t.Fatalf("expected no fallback match, got %+v", got)
	}
}

func TestEmptyProvenance(t *testing.T) {
	table := map[string]string{"a.com": "/sorted/a"}
	if got := match.Match(table, ""); got.Matched {
		t.Fatalf("empty provenance must not match, got %+v", got)
	}
}
