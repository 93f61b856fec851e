package matcher

import (
	"math"
	"testing"

	"remittance-matching-service/internal/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCharacterSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected float64
	}{
		{"identical strings", "INV-100", "INV-100", 1.0},
		{"case insensitive", "inv-100", "INV-100", 1.0},
		{"same character set different order", "abc", "cba", 1.0},
		{"disjoint sets", "abc", "xyz", 0.0},
		{"empty a", "", "abc", 0.0},
		{"empty b", "abc", "", 0.0},
		{"both empty", "", "", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CharacterSimilarity(tt.a, tt.b); !almostEqual(got, tt.expected) {
				t.Errorf("CharacterSimilarity(%q, %q) = %f, want %f", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestCharacterSimilarityPartialOverlap(t *testing.T) {
	// Sets: {a,b,c} and {b,c,d}; intersection 2, union 4.
	got := CharacterSimilarity("abc", "bcd")
	if !almostEqual(got, 0.5) {
		t.Errorf("expected 0.5, got %f", got)
	}
}

func TestScoreConfidenceExact(t *testing.T) {
	config := DefaultConfig()

	// Identical strings: similarity 1.0, no penalty.
	got := ScoreConfidence(config, models.PassExact, "INV-100", "INV-100", true)
	if !almostEqual(got, 0.95) {
		t.Errorf("expected 0.95, got %f", got)
	}

	// Same exact key after case folding but dissimilar is impossible for the
	// exact pass via matching; the penalty path is still defined for direct
	// scoring calls.
	got = ScoreConfidence(config, models.PassExact, "ab", "abcdefghij", true)
	if !almostEqual(got, 0.95*0.90) {
		t.Errorf("expected dissimilarity penalty, got %f", got)
	}
}

func TestScoreConfidenceRelaxed(t *testing.T) {
	config := DefaultConfig()

	// Identical character sets: 0.85 * (0.7 + 0.3*1.0) = 0.85.
	got := ScoreConfidence(config, models.PassRelaxed, "INV39832", "INV39832", true)
	if !almostEqual(got, 0.85) {
		t.Errorf("expected 0.85, got %f", got)
	}

	// "INV39832" vs "INV 39832": the space adds one character to the union.
	// Sets are {i,n,v,3,9,8,2} and {i,n,v,' ',3,9,8,2}: J = 7/8.
	similarity := 7.0 / 8.0
	expected := 0.85 * (0.7 + 0.3*similarity)
	got = ScoreConfidence(config, models.PassRelaxed, "INV39832", "INV 39832", true)
	if !almostEqual(got, expected) {
		t.Errorf("expected %f, got %f", expected, got)
	}
}

func TestScoreConfidenceNumeric(t *testing.T) {
	config := DefaultConfig()

	// Identical: 0.70 * (0.5 + 0.5*1.0) = 0.70.
	got := ScoreConfidence(config, models.PassNumeric, "39859", "39859", true)
	if !almostEqual(got, 0.70) {
		t.Errorf("expected 0.70, got %f", got)
	}

	// "39859" vs "Invoice-Sarah-39859": low similarity drags the score down
	// but it stays above the pass floor of 0.35.
	got = ScoreConfidence(config, models.PassNumeric, "39859", "Invoice-Sarah-39859", true)
	if got <= 0.35 || got >= 0.70 {
		t.Errorf("expected numeric score in (0.35, 0.70), got %f", got)
	}
}

func TestScoreConfidenceAmountPenalty(t *testing.T) {
	config := DefaultConfig()

	withAgreement := ScoreConfidence(config, models.PassExact, "INV-100", "INV-100", true)
	withoutAgreement := ScoreConfidence(config, models.PassExact, "INV-100", "INV-100", false)

	if !almostEqual(withoutAgreement, withAgreement*0.70) {
		t.Errorf("expected amount penalty 0.70x: %f vs %f", withoutAgreement, withAgreement)
	}
}

func TestScoreConfidenceUnmatchedPass(t *testing.T) {
	config := DefaultConfig()

	if got := ScoreConfidence(config, models.PassNone, "x", "y", true); got != 0.0 {
		t.Errorf("expected 0.0 for PassNone, got %f", got)
	}
}

func TestScoreConfidenceBounds(t *testing.T) {
	config := DefaultConfig()

	inputs := []struct {
		pass models.NormalizationPass
		a, b string
		ok   bool
	}{
		{models.PassExact, "INV-100", "INV-100", true},
		{models.PassExact, "ab", "zzzzzz", false},
		{models.PassRelaxed, "INV39832", "INV 39832", false},
		{models.PassNumeric, "123", "ABC-123-DEF", false},
		{models.PassNumeric, "", "", true},
	}

	for _, in := range inputs {
		got := ScoreConfidence(config, in.pass, in.a, in.b, in.ok)
		if got < 0.0 || got > 1.0 {
			t.Errorf("ScoreConfidence(%v, %q, %q, %v) = %f out of [0,1]", in.pass, in.a, in.b, in.ok, got)
		}
	}
}
