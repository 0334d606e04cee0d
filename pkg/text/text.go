// Package text provides the normalization, tokenization, and similarity
// primitives used by event grouping. All functions are pure.
package text

import (
	"fmt"
	"strings"
)

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true,
	"at": true, "be": true, "by": true, "for": true, "from": true,
	"has": true, "have": true, "he": true, "her": true, "his": true,
	"i": true, "in": true, "into": true, "is": true, "it": true,
	"its": true, "may": true, "of": true, "on": true, "or": true,
	"our": true, "s": true, "she": true, "should": true, "that": true,
	"the": true, "their": true, "them": true, "there": true, "they": true,
	"this": true, "to": true, "was": true, "we": true, "were": true,
	"will": true, "with": true, "you": true, "your": true,
}

// Normalize lowercases the input, replaces every character outside
// [a-z0-9\s] with a space, and collapses runs of whitespace.
func Normalize(value string) string {
	lower := strings.ToLower(value)

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokenize splits normalized text into comparison tokens, dropping
// tokens shorter than 3 characters and common English stopwords.
// Empty input yields an empty slice.
func Tokenize(value string) []string {
	normalized := Normalize(value)
	if normalized == "" {
		return nil
	}

	var tokens []string
	for _, t := range strings.Split(normalized, " ") {
		if len(t) < 3 || stopwords[t] {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}

// Jaccard returns the Jaccard index of two token slices treated as sets.
// Two empty sets are considered identical (score 1); exactly one empty
// set scores 0. Symmetric in its arguments.
func Jaccard(aTokens, bTokens []string) float64 {
	a := make(map[string]bool, len(aTokens))
	for _, t := range aTokens {
		a[t] = true
	}
	b := make(map[string]bool, len(bTokens))
	for _, t := range bTokens {
		b[t] = true
	}

	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0
	for t := range a {
		if b[t] {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// StableHash returns a non-cryptographic stable hash (FNV-1a 32-bit)
// of the input as 8 hex characters. Used for item dedup keys.
func StableHash(value string) string {
	hash := uint32(0x811c9dc5)
	for i := 0; i < len(value); i++ {
		hash ^= uint32(value[i])
		hash *= 0x01000193
	}
	return fmt.Sprintf("%08x", hash)
}
