package intelligence

import "strings"

// VerdictKind identifies the outcome of a duplicate check.
type VerdictKind int

const (
	// VerdictUnique means the candidate does not duplicate any existing entry.
	VerdictUnique VerdictKind = iota

	// VerdictExactDuplicate means the candidate equals an existing entry after
	// normalization (trim, lower-case, whitespace collapse).
	VerdictExactDuplicate

	// VerdictSemanticDuplicate means the candidate scored at or above the
	// similarity threshold against an existing entry.
	VerdictSemanticDuplicate
)

// String returns a human-readable name for the verdict kind.
func (k VerdictKind) String() string {
	switch k {
	case VerdictExactDuplicate:
		return "exact_duplicate"
	case VerdictSemanticDuplicate:
		return "semantic_duplicate"
	default:
		return "unique"
	}
}

// Verdict is the result of checking a candidate memory against the existing
// entries of an owner.
type Verdict struct {
	// Kind is the outcome of the check.
	Kind VerdictKind

	// OfID is the ID of the conflicting entry for duplicate verdicts.
	OfID string

	// Score is the blended similarity score for semantic duplicates
	// (1.0 for exact duplicates, 0 for unique).
	Score float64
}

// ExistingText is a stored memory as seen by the duplicate detector: just its
// ID and text. The detector never needs the full entry.
type ExistingText struct {
	ID   string
	Text string
}

// preferenceIndicators lower the semantic threshold when present in either
// text, because preference statements tend to be short and paraphrased.
// Matched as token prefixes so inflected forms count too
// (like/likes/liked, prefer/prefers/preferred).
var preferenceIndicators = []string{
	"prefer", "like", "love", "favorite", "favourite", "hate", "dislike",
	"enjoy",
}

// DuplicateDetector decides whether a candidate memory duplicates an existing
// one. It combines an exact check over normalized text with a semantic check
// using the blended similarity score, under an adaptive threshold.
//
// Known limitation (preserved from the original policy, do not retune
// silently): the lowered preference threshold narrows the margin for short
// preference statements that share only a common opening phrase, e.g.
// "I love halloween" vs "I love vanilla ice cream" earn most of their score
// from the shared prefix. Under the current blend such pairs stay below the
// threshold and are admitted as distinct; that verdict is pinned by a test.
type DuplicateDetector struct {
	// semanticThreshold is the default similarity threshold.
	semanticThreshold float64

	// preferenceThreshold applies when either text contains a preference
	// indicator word.
	preferenceThreshold float64
}

// NewDuplicateDetector creates a duplicate detector.
//
// Parameters:
//   - semanticThreshold: similarity threshold for ordinary text. If 0,
//     defaults to 0.8.
//   - preferenceThreshold: lowered threshold for preference statements. If 0,
//     defaults to 0.65.
func NewDuplicateDetector(semanticThreshold, preferenceThreshold float64) *DuplicateDetector {
	if semanticThreshold == 0 {
		semanticThreshold = 0.8
	}
	if preferenceThreshold == 0 {
		preferenceThreshold = 0.65
	}
	return &DuplicateDetector{
		semanticThreshold:   semanticThreshold,
		preferenceThreshold: preferenceThreshold,
	}
}

// Check compares candidate text against the existing entries of one owner.
//
// The check proceeds in two stages:
//  1. Exact: if the normalized candidate equals any existing normalized text,
//     the verdict is VerdictExactDuplicate. Identical text is always exact,
//     never semantic.
//  2. Semantic: otherwise the blended similarity is computed against every
//     existing entry; if the best score reaches the threshold the verdict is
//     VerdictSemanticDuplicate against the highest-scoring match.
//
// The threshold adapts per pair: when either text contains a preference
// indicator word the lowered preference threshold applies.
func (d *DuplicateDetector) Check(candidate string, existing []ExistingText) Verdict {
	normalized := NormalizeText(candidate)
	if normalized == "" {
		return Verdict{Kind: VerdictUnique}
	}

	for _, e := range existing {
		if NormalizeText(e.Text) == normalized {
			return Verdict{Kind: VerdictExactDuplicate, OfID: e.ID, Score: 1.0}
		}
	}

	candidateTerms := KeyTerms(normalized)
	candidateHasPref := hasPreferenceIndicator(normalized)

	var (
		bestID    string
		bestScore float64
		bestHit   bool
	)
	for _, e := range existing {
		other := NormalizeText(e.Text)
		score := 0.6*StringSimilarity(normalized, other) +
			0.4*Jaccard(candidateTerms, KeyTerms(other))

		threshold := d.semanticThreshold
		if candidateHasPref || hasPreferenceIndicator(other) {
			threshold = d.preferenceThreshold
		}

		if score >= threshold && score > bestScore {
			bestID = e.ID
			bestScore = score
			bestHit = true
		}
	}

	if bestHit {
		return Verdict{Kind: VerdictSemanticDuplicate, OfID: bestID, Score: bestScore}
	}
	return Verdict{Kind: VerdictUnique}
}

// hasPreferenceIndicator reports whether normalized text contains a token
// starting with a preference indicator word.
func hasPreferenceIndicator(normalized string) bool {
	for _, tok := range Tokenize(normalized) {
		for _, word := range preferenceIndicators {
			if strings.HasPrefix(tok, word) {
				return true
			}
		}
	}
	return false
}
