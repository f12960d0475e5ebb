// internal/funnel/text.go
package funnel

import (
	"regexp"
	"strings"
	"unicode"
)

// pointDelimiter splits the free-text points answer: a number followed by a
// period, a bullet, or a hyphen.
var pointDelimiter = regexp.MustCompile(`\d+\.|•|-`)

// SplitPoints turns the points answer into a list of trimmed, non-empty
// items. Hyphens inside an item ("self-paced") also split; that is part of
// the rule.
func SplitPoints(text string) []string {
	parts := pointDelimiter.Split(text, -1)
	points := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			points = append(points, p)
		}
	}
	return points
}

// clip truncates s to at most n characters (runes). It may cut mid-word.
func clip(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// lowerClip lower-cases s and truncates it to n characters.
func lowerClip(s string, n int) string {
	return clip(strings.ToLower(s), n)
}

// oneLine collapses all whitespace runs to single spaces. Values rendered
// as single-line labelled fields go through this so the parser can read
// them back.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// firstN returns at most n leading items of list.
func firstN(list []string, n int) []string {
	if len(list) > n {
		return list[:n]
	}
	return list
}

// titleCase upper-cases the first letter of every word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
