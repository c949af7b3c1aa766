package intelligence_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loamlabs/recall-go/pkg/intelligence"
)

func TestCheckExactDuplicateAfterNormalization(t *testing.T) {
	detector := intelligence.NewDuplicateDetector(0, 0)

	existing := []intelligence.ExistingText{
		{ID: "1", Text: "I love pizza"},
	}

	verdict := detector.Check("  i LOVE   pizza ", existing)

	// Identical text is always exact, never semantic.
	assert.Equal(t, intelligence.VerdictExactDuplicate, verdict.Kind)
	assert.Equal(t, "1", verdict.OfID)
	assert.Equal(t, 1.0, verdict.Score)
}

func TestCheckUniqueAgainstUnrelatedEntries(t *testing.T) {
	detector := intelligence.NewDuplicateDetector(0, 0)

	existing := []intelligence.ExistingText{
		{ID: "1", Text: "My name is Eric"},
		{ID: "2", Text: "The deployment runs on Kubernetes"},
	}

	verdict := detector.Check("I play tennis on weekends", existing)

	assert.Equal(t, intelligence.VerdictUnique, verdict.Kind)
	assert.Empty(t, verdict.OfID)
	assert.Zero(t, verdict.Score)
}

func TestCheckSemanticDuplicateParaphrase(t *testing.T) {
	detector := intelligence.NewDuplicateDetector(0, 0)

	existing := []intelligence.ExistingText{
		{ID: "1", Text: "I love drinking coffee every morning"},
	}

	verdict := detector.Check("I love drinking coffee in the morning", existing)

	assert.Equal(t, intelligence.VerdictSemanticDuplicate, verdict.Kind)
	assert.Equal(t, "1", verdict.OfID)
	assert.Greater(t, verdict.Score, 0.65)
	assert.Less(t, verdict.Score, 1.0)
}

func TestCheckPreferenceThresholdAdapts(t *testing.T) {
	// This pair scores between the two thresholds, so the verdict depends on
	// whether the lowered preference threshold applies.
	existing := []intelligence.ExistingText{
		{ID: "1", Text: "I prefer window seats on flights"},
	}
	candidate := "I prefer aisle seats on flights"

	lenient := intelligence.NewDuplicateDetector(0, 0)
	strict := intelligence.NewDuplicateDetector(0.8, 0.8)

	lenientVerdict := lenient.Check(candidate, existing)
	strictVerdict := strict.Check(candidate, existing)

	assert.Equal(t, intelligence.VerdictSemanticDuplicate, lenientVerdict.Kind)
	assert.Equal(t, "1", lenientVerdict.OfID)
	assert.Equal(t, intelligence.VerdictUnique, strictVerdict.Kind)
}

func TestCheckInflectedPreferenceIndicator(t *testing.T) {
	// "prefers" must count as a preference indicator even though it is not the
	// bare token "prefer": this pair scores between the two thresholds, so the
	// duplicate verdict depends on the lowered threshold applying.
	detector := intelligence.NewDuplicateDetector(0, 0)

	existing := []intelligence.ExistingText{
		{ID: "1", Text: "Sam prefers window seats"},
	}

	verdict := detector.Check("Sam prefers aisle seats", existing)

	assert.Equal(t, intelligence.VerdictSemanticDuplicate, verdict.Kind)
	assert.Equal(t, "1", verdict.OfID)
	assert.GreaterOrEqual(t, verdict.Score, 0.65)
	assert.Less(t, verdict.Score, 0.8)
}

func TestCheckSharedOpeningPhraseStaysUnique(t *testing.T) {
	// Pins the current verdict for preference statements that share only an
	// opening phrase: the blended score stays below the lowered threshold, so
	// they are admitted as distinct memories. A retune of the blend weights or
	// thresholds that changes this should be a deliberate decision.
	detector := intelligence.NewDuplicateDetector(0, 0)

	existing := []intelligence.ExistingText{
		{ID: "1", Text: "I love halloween"},
	}

	verdict := detector.Check("I love vanilla ice cream", existing)

	assert.Equal(t, intelligence.VerdictUnique, verdict.Kind)
	assert.Less(t,
		intelligence.BlendedSimilarity("I love halloween", "I love vanilla ice cream"),
		0.65)
}

func TestCheckEmptyCandidateIsUnique(t *testing.T) {
	detector := intelligence.NewDuplicateDetector(0, 0)

	verdict := detector.Check("   ", []intelligence.ExistingText{{ID: "1", Text: "anything"}})

	assert.Equal(t, intelligence.VerdictUnique, verdict.Kind)
}

func TestCheckNoExistingEntries(t *testing.T) {
	detector := intelligence.NewDuplicateDetector(0, 0)

	verdict := detector.Check("I love pizza", nil)

	assert.Equal(t, intelligence.VerdictUnique, verdict.Kind)
}

func TestCheckBestScoringMatchWins(t *testing.T) {
	detector := intelligence.NewDuplicateDetector(0, 0)

	existing := []intelligence.ExistingText{
		{ID: "far", Text: "I love drinking tea sometimes in the evening"},
		{ID: "near", Text: "I love drinking coffee every morning"},
	}

	verdict := detector.Check("I love drinking coffee in the morning", existing)

	assert.Equal(t, intelligence.VerdictSemanticDuplicate, verdict.Kind)
	assert.Equal(t, "near", verdict.OfID)
}

func TestVerdictKindString(t *testing.T) {
	assert.Equal(t, "unique", intelligence.VerdictUnique.String())
	assert.Equal(t, "exact_duplicate", intelligence.VerdictExactDuplicate.String())
	assert.Equal(t, "semantic_duplicate", intelligence.VerdictSemanticDuplicate.String())
}
