package intelligence

import (
	"regexp"
	"strings"
)

// Intent classifies what a user query is asking the memory engine to do.
type Intent string

const (
	// IntentMemoryList asks to enumerate stored memories
	// ("list my memories", "what do you remember").
	IntentMemoryList Intent = "memory_list"

	// IntentMemorySearch asks to look up specific memories
	// ("do you remember where I live").
	IntentMemorySearch Intent = "memory_search"

	// IntentGeneral is anything else; it requires full agent reasoning and is
	// never eligible for the fast path.
	IntentGeneral Intent = "general"
)

// DefaultFastPathConfidence is the confidence required for fast-path
// eligibility in strict mode.
const DefaultFastPathConfidence = 0.9

// RelaxedFastPathConfidence is the confidence required in non-strict mode.
const RelaxedFastPathConfidence = 0.85

// compoundConnectors mark queries that bundle several requests. A compound
// query is always classified General: a fast path that serves only one
// sub-intent would silently drop the rest.
var compoundConnectors = []string{
	" and ", " but ", ", then ", " then ", " plus ", " also ", "; ",
	" as well as ", " after that ",
}

// intentPattern pairs a compiled regex with the confidence it asserts.
type intentPattern struct {
	re         *regexp.Regexp
	confidence float64
}

// listPatterns match "enumerate my memories" phrasings. Tested before search
// patterns; first match wins.
var listPatterns = []intentPattern{
	{regexp.MustCompile(`^(list|show|display)( all)?( of)?( my| your)? (memories|facts)`), 0.95},
	{regexp.MustCompile(`^what are my memories`), 0.95},
	{regexp.MustCompile(`^what do you remember( about me)?[?.!]*$`), 0.9},
	{regexp.MustCompile(`^(show|tell) me everything you (know|remember)( about me)?[?.!]*$`), 0.9},
	{regexp.MustCompile(`^what (have you|did you) remember(ed)?[?.!]*$`), 0.9},
}

// searchPatterns match "look something up in memory" phrasings.
var searchPatterns = []intentPattern{
	{regexp.MustCompile(`^do you remember\b`), 0.9},
	{regexp.MustCompile(`^what do you know about\b`), 0.9},
	{regexp.MustCompile(`\b(search|find|look up)\b.*\b(memories|memory|facts)\b`), 0.85},
	{regexp.MustCompile(`^(recall|remember) (what|when|where|who|anything about)\b`), 0.85},
}

// Classification is the result of classifying a query.
type Classification struct {
	// Intent is the detected intent.
	Intent Intent

	// Confidence is how certain the classifier is (0.0-1.0).
	Confidence float64

	// MatchedPattern is the source pattern that matched, empty for General.
	MatchedPattern string
}

// IntentClassifier decides whether a user query can be served directly from
// the memory store (the fast path) without full agent inference.
//
// Classification is pattern-based and deterministic. The classifier is
// stateless and safe for concurrent use.
type IntentClassifier struct {
	// fastPathConfidence is the minimum confidence for fast-path eligibility.
	fastPathConfidence float64
}

// NewIntentClassifier creates an intent classifier in strict mode
// (fast-path confidence 0.9).
func NewIntentClassifier() *IntentClassifier {
	return NewIntentClassifierWithConfidence(DefaultFastPathConfidence)
}

// NewIntentClassifierWithConfidence creates an intent classifier with a
// custom fast-path confidence threshold. Pass RelaxedFastPathConfidence for
// non-strict mode. If confidence is 0, the strict default applies.
func NewIntentClassifierWithConfidence(confidence float64) *IntentClassifier {
	if confidence == 0 {
		confidence = DefaultFastPathConfidence
	}
	return &IntentClassifier{fastPathConfidence: confidence}
}

// Classify determines the intent of a user query.
//
// The query is normalized (trim, lower-case, whitespace collapse) first.
// Compound-query indicators (" and ", " but ", ", then ", ...) force
// IntentGeneral with high confidence regardless of any other match, because
// a compound request must not take a fast path that serves only one
// sub-intent. Otherwise list patterns are tested, then search patterns; if
// nothing matches the result is IntentGeneral with confidence 0.5.
func (c *IntentClassifier) Classify(query string) Classification {
	normalized := NormalizeText(query)
	if normalized == "" {
		return Classification{Intent: IntentGeneral, Confidence: 0.5}
	}

	for _, conn := range compoundConnectors {
		if strings.Contains(normalized, conn) {
			return Classification{
				Intent:         IntentGeneral,
				Confidence:     0.95,
				MatchedPattern: "compound:" + strings.TrimSpace(conn),
			}
		}
	}

	for _, p := range listPatterns {
		if p.re.MatchString(normalized) {
			return Classification{
				Intent:         IntentMemoryList,
				Confidence:     p.confidence,
				MatchedPattern: p.re.String(),
			}
		}
	}

	for _, p := range searchPatterns {
		if p.re.MatchString(normalized) {
			return Classification{
				Intent:         IntentMemorySearch,
				Confidence:     p.confidence,
				MatchedPattern: p.re.String(),
			}
		}
	}

	return Classification{Intent: IntentGeneral, Confidence: 0.5}
}

// ShouldUseFastPath reports whether query can be answered directly from the
// memory store. True only for IntentMemoryList at or above the configured
// confidence threshold; compound queries are never eligible.
func (c *IntentClassifier) ShouldUseFastPath(query string) bool {
	result := c.Classify(query)
	return result.Intent == IntentMemoryList && result.Confidence >= c.fastPathConfidence
}
