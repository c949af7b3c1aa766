// Package intelligence provides the rule-based decision policies of the memory
// engine: topic classification, duplicate detection, and query-intent
// classification. Everything here is deterministic and runs without an LLM.
package intelligence

import (
	"strings"
	"unicode"
)

// stopWords are content-free words stripped before key-term comparison.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"be": {}, "been": {}, "am": {}, "and": {}, "or": {}, "but": {}, "to": {},
	"of": {}, "in": {}, "on": {}, "at": {}, "for": {}, "with": {}, "as": {},
	"my": {}, "me": {}, "i": {}, "you": {}, "your": {}, "it": {}, "its": {},
	"this": {}, "that": {}, "have": {}, "has": {}, "had": {}, "do": {},
	"does": {}, "did": {}, "not": {}, "so": {}, "very": {}, "really": {},
}

// NormalizeText canonicalizes text for comparison: trims, lower-cases, and
// collapses internal whitespace runs into single spaces.
func NormalizeText(text string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(text)))
	return strings.Join(fields, " ")
}

// Tokenize splits normalized text into lower-case word tokens, stripping
// punctuation.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
}

// KeyTerms extracts content words from text: tokens that are neither stop
// words nor very short (< 3 characters).
func KeyTerms(text string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, tok := range Tokenize(text) {
		if len(tok) < 3 {
			continue
		}
		if _, skip := stopWords[tok]; skip {
			continue
		}
		terms[tok] = struct{}{}
	}
	return terms
}

// Jaccard computes the Jaccard index of two term sets: |A∩B| / |A∪B|.
// Two empty sets score 0.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersect := 0
	for term := range a {
		if _, ok := b[term]; ok {
			intersect++
		}
	}
	union := len(a) + len(b) - intersect
	if union == 0 {
		return 0
	}
	return float64(intersect) / float64(union)
}

// StringSimilarity computes the Ratcliff/Obershelp similarity of two strings:
// twice the number of matching characters divided by the total number of
// characters. Identical strings score 1.0, disjoint strings 0.0.
func StringSimilarity(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 1.0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	matched := matchingCharacters(ra, rb)
	return 2.0 * float64(matched) / float64(len(ra)+len(rb))
}

// matchingCharacters counts matching characters per Ratcliff/Obershelp:
// find the longest common substring, then recurse on the unmatched segments
// to its left and right.
func matchingCharacters(a, b []rune) int {
	ai, bi, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}
	matched := size
	matched += matchingCharacters(a[:ai], b[:bi])
	matched += matchingCharacters(a[ai+size:], b[bi+size:])
	return matched
}

// longestCommonSubstring finds the longest run of runes common to a and b.
// Returns the start index in a, start index in b, and the run length.
func longestCommonSubstring(a, b []rune) (int, int, int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}

	bestA, bestB, bestLen := 0, 0, 0
	// lengths[j] holds the current match length ending at b[j-1].
	lengths := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		// Walk backwards so the row can be updated in place.
		for j := len(b); j >= 1; j-- {
			if a[i-1] == b[j-1] {
				lengths[j] = lengths[j-1] + 1
				if lengths[j] > bestLen {
					bestLen = lengths[j]
					bestA = i - bestLen
					bestB = j - bestLen
				}
			} else {
				lengths[j] = 0
			}
		}
	}

	return bestA, bestB, bestLen
}

// BlendedSimilarity is the similarity score used for both duplicate admission
// and ranked search: a weighted blend of character-level similarity and
// key-term overlap.
//
//	score = 0.6 * StringSimilarity + 0.4 * Jaccard(KeyTerms)
//
// Inputs are normalized before comparison.
func BlendedSimilarity(a, b string) float64 {
	na, nb := NormalizeText(a), NormalizeText(b)
	return 0.6*StringSimilarity(na, nb) + 0.4*Jaccard(KeyTerms(na), KeyTerms(nb))
}
