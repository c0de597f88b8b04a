// Package looseversion orders the loosely structured version strings found in
// port manifests ("1.2.3", "2024-01-05", "1.0.0-beta2", "v3_1").
package looseversion

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type segmentKind int

// Rank order at a single position: alphabetic < end of version < numeric.
const (
	kindAlpha segmentKind = iota
	kindEnd
	kindNumeric
)

type segment struct {
	kind  segmentKind
	value string
}

// Compare returns -1, 0 or +1 depending on whether a sorts before, equal to or
// after b. It never fails: input that does not look like a version still gets
// a deterministic position, and Compare(a, b) == 0 only when a == b.
func Compare(a, b string) int {
	sa, sb := tokenize(a), tokenize(b)

	n := max(len(sa), len(sb))
	for i := 0; i < n; i++ {
		if c := compareSegment(at(sa, i), at(sb, i)); c != 0 {
			return c
		}
	}

	// "1.0" and "1-0" tokenise identically.
	return strings.Compare(a, b)
}

// Less reports whether a sorts strictly before b.
func Less(a, b string) bool { return Compare(a, b) < 0 }

// Equal reports whether a and b are the same version.
func Equal(a, b string) bool { return Compare(a, b) == 0 }

// Max returns the greatest of the given versions, or "" if none are given.
func Max(versions ...string) string {
	var best string
	for i, v := range versions {
		if i == 0 || Compare(v, best) > 0 {
			best = v
		}
	}
	return best
}

// tokenize splits a version into its numeric and alphabetic runs. Any other
// character separates segments.
func tokenize(version string) []segment {
	var (
		out   []segment
		start = -1
		kind  segmentKind
	)

	flush := func(end int) {
		if start >= 0 {
			out = append(out, segment{kind: kind, value: version[start:end]})
			start = -1
		}
	}

	for i := 0; i < len(version); {
		r, size := utf8.DecodeRuneInString(version[i:])

		var k segmentKind
		switch {
		case r >= '0' && r <= '9':
			k = kindNumeric
		case unicode.IsLetter(r):
			k = kindAlpha
		default:
			flush(i)
			i += size
			continue
		}

		if start >= 0 && k != kind {
			flush(i)
		}
		if start < 0 {
			start = i
			kind = k
		}
		i += size
	}
	flush(len(version))

	return out
}

func at(segments []segment, i int) segment {
	if i >= len(segments) {
		return segment{kind: kindEnd}
	}
	return segments[i]
}

func compareSegment(a, b segment) int {
	if a.kind != b.kind {
		if a.kind < b.kind {
			return -1
		}
		return 1
	}

	switch a.kind {
	case kindNumeric:
		return compareNumeric(a.value, b.value)
	case kindAlpha:
		return strings.Compare(a.value, b.value)
	default:
		return 0
	}
}

// compareNumeric orders digit strings by value without parsing them, so
// date-like or hash-like segments of any length are safe.
func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
