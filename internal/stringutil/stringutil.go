// Package stringutil provides the normalization, tokenization, and
// similarity primitives used by candidate selection and feature generation.
// All functions are pure: the same input always produces the same output,
// and empty input is always legal.
package stringutil

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	lowerCaser = cases.Lower(language.English)
	tokenRe    = regexp.MustCompile(`[a-z\d]+`)
)

// Normalize lower-cases text, replaces every non-alphanumeric rune with a
// space, and collapses runs of whitespace. The result is the canonical form
// all downstream signatures are built from.
func Normalize(text string) string {
	lowered := lowerCaser.String(text)
	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokenize splits normalized text on the alphanumeric token pattern and
// removes English stopwords. It returns a nil slice for empty input and
// never fails.
func Tokenize(text string) []string {
	matches := tokenRe.FindAllString(Normalize(text), -1)
	if len(matches) == 0 {
		return nil
	}
	tokens := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, stop := stopwords[m]; stop {
			continue
		}
		tokens = append(tokens, m)
	}
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

// CharNGrams returns the sliding-window character n-grams of the normalized
// string. When the string is non-empty but shorter than n the whole string
// is returned as a single degenerate n-gram; a string that normalizes to
// empty returns nil rather than [""], so empty input never contributes an
// index key or a token.
func CharNGrams(text string, n int) []string {
	runes := []rune(Normalize(text))
	if len(runes) == 0 {
		return nil
	}
	if len(runes) < n {
		return []string{string(runes)}
	}
	grams := make([]string, 0, len(runes)-n+1)
	for i := 0; i+n <= len(runes); i++ {
		grams = append(grams, string(runes[i:i+n]))
	}
	return grams
}

// Jaccard computes |A∩B| / |A∪B| over two token sets. Two empty sets are
// defined to have similarity 1.0.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	intersection := 0
	for t := range a {
		if _, ok := b[t]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 1.0
	}
	return float64(intersection) / float64(union)
}

// TokenEditDistance computes the Levenshtein distance between two token
// sequences, counting whole-token insertions, deletions, and substitutions.
func TokenEditDistance(a, b []string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// ToSet converts a token sequence into a membership set.
func ToSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// TupleKey joins a token sequence into a single comparable key. It is used
// wherever token tuples are stored in sets (related-entity names, alias
// overlap checks).
func TupleKey(tokens []string) string {
	return strings.Join(tokens, " ")
}
