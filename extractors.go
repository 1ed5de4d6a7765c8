package countboard

import (
	"strings"

	"github.com/ntwoods/countboard/internal/poller"
)

// CountField returns a [CountExtractor] that reads a numeric field using dot
// notation to navigate nested objects.
//
// For example, "summary.pending" reads 4 from {"summary": {"pending": 4}}.
// Only non-negative numbers match; fractions are truncated. Anything else
// (missing field, string, negative number) reports no match.
func CountField(path string) CountExtractor {
	parts := splitPath(path)

	return func(doc any) (int, bool) {
		value, ok := lookupPath(doc, parts)
		if !ok {
			return 0, false
		}
		return poller.NumberCount(value)
	}
}

// SequenceLength returns a [CountExtractor] that counts the elements of a JSON
// array found at path.
//
// An empty path means the document itself must be an array. For example,
// SequenceLength("data") reads 2 from {"data": [{}, {}]}.
func SequenceLength(path string) CountExtractor {
	parts := splitPath(path)

	return func(doc any) (int, bool) {
		value, ok := lookupPath(doc, parts)
		if !ok {
			return 0, false
		}
		arr, ok := value.([]any)
		if !ok {
			return 0, false
		}
		return len(arr), true
	}
}

// FirstMatch returns a [CountExtractor] that tries multiple extractors in
// order, returning the first match.
//
// If no extractor matches, FirstMatch reports no match and the fetched count
// is 0.
func FirstMatch(extractors ...CountExtractor) CountExtractor {
	return func(doc any) (int, bool) {
		for _, extractor := range extractors {
			if n, ok := extractor(doc); ok {
				return n, true
			}
		}
		return 0, false
	}
}

// DefaultExtractor is the [CountExtractor] used when no extractor is specified
// on a [Tile].
//
// It tries, in order:
//  1. a numeric "count" field
//  2. the document itself being an array (its length)
//  3. a "data" array (its length)
//  4. an "items" array (its length)
//
// A document matching none of these counts as 0, not as an error.
var DefaultExtractor = FirstMatch(
	CountField("count"),
	SequenceLength(""),
	SequenceLength("data"),
	SequenceLength("items"),
)

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// lookupPath walks a decoded JSON structure using dot notation parts.
func lookupPath(doc any, parts []string) (any, bool) {
	current := doc

	for _, part := range parts {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}

	return current, true
}
