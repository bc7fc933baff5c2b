package standup

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

const ellipsis = "…"

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	labelPrefix   = regexp.MustCompile(`^[^:]{2,40}:\s+`)
)

// Collapse replaces whitespace runs with a single space and trims the result.
func Collapse(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

// Canonicalize reduces text to a comparison key. It is lossy and must never be displayed.
func Canonicalize(text string) string {
	s := Collapse(text)
	s = labelPrefix.ReplaceAllString(s, "")
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
	return Collapse(s)
}

// Truncate collapses text and cuts it to at most limit runes, ending with an ellipsis when cut.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s := Collapse(text)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	cut := strings.TrimRightFunc(string(runes[:limit-1]), unicode.IsSpace)
	return cut + ellipsis
}

// RefsSuffix renders " (refs: A, B)" for the given linked work ids.
func RefsSuffix(ids []string, enabled bool) string {
	if !enabled {
		return ""
	}
	refs := SortedUnique(ids)
	if len(refs) == 0 {
		return ""
	}
	return " (refs: " + strings.Join(refs, ", ") + ")"
}

// SortedUnique returns the trimmed, non-empty, deduplicated ids in lexicographic order.
// The result is never nil so it serialises as an empty list.
func SortedUnique(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
