package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/casepedia/internal/model"
)

func testClassifier(t *testing.T) *Classifier {
	t.Helper()
	return NewClassifier(newTestIndex(t).Domain())
}

func TestClassify_EmptyTextIsNeutral(t *testing.T) {
	breakdown := testClassifier(t).Classify("")
	require.Equal(t, model.FavorabilityNeutral, breakdown.Label)
	require.Equal(t, 0.55, breakdown.Confidence)
}

func TestClassify_FirstPhraseMatchWins(t *testing.T) {
	// Both phrases appear; the dictionary order decides.
	breakdown := testClassifier(t).Classify("Initially the claim denied, on appeal the claim approved.")
	require.Equal(t, model.FavorabilityFavorable, breakdown.Label)
	require.Equal(t, "claim approved", breakdown.MatchedPhrase)
	require.Equal(t, 0.9, breakdown.Confidence)
}

func TestClassify_ConclusionCountsDouble(t *testing.T) {
	// No outcome phrase, three favorable keywords in the final section.
	text := strings.Repeat("neutral filler statement follows here again today ", 10) +
		"approved granted approved"
	breakdown := testClassifier(t).Classify(text)
	require.Equal(t, model.FavorabilityFavorable, breakdown.Label)
	require.Equal(t, 6.0, breakdown.FavorableScore)
	require.Equal(t, 0.0, breakdown.UnfavorableScore)
	require.InDelta(t, 0.55+0.04*6, breakdown.Confidence, 1e-9)
}

func TestClassify_SmallGapStaysNeutral(t *testing.T) {
	// One favorable mention early in a long text: gap 1, inside the margin.
	text := "the request was approved in part " + strings.Repeat("and further proceedings continued without change ", 10)
	breakdown := testClassifier(t).Classify(text)
	require.Equal(t, model.FavorabilityNeutral, breakdown.Label)
	require.Equal(t, 1.0, breakdown.FavorableScore)
	require.InDelta(t, 0.59, breakdown.Confidence, 1e-9)
}

func TestClassify_ConfidenceClampedAtCeiling(t *testing.T) {
	text := strings.Repeat("x ", 100) + strings.Repeat("denied dismissed ", 20)
	breakdown := testClassifier(t).Classify(text)
	require.Equal(t, model.FavorabilityUnfavorable, breakdown.Label)
	require.Equal(t, 0.95, breakdown.Confidence)
}

func TestClassify_Deterministic(t *testing.T) {
	classifier := testClassifier(t)
	text := "The commission reviewed the evidence and the claim approved after reconsideration."
	first := classifier.Classify(text)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, classifier.Classify(text))
	}
}
