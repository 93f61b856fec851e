package matcher

import (
	"strings"

	"remittance-matching-service/internal/models"
)

// ScoreConfidence computes the [0,1] confidence for a matched payment line.
//
// The base confidence is determined by the pass that produced the match,
// then adjusted by the character-set similarity between the payment text and
// the matched identifier: exact matches are penalized when the strings are
// dissimilar despite sharing a key, relaxed and numeric matches scale with
// similarity. An amount disagreement (including an unknown invoice total)
// applies a final penalty. The result is clamped to [0,1].
func ScoreConfidence(config *Config, pass models.NormalizationPass, paymentText, matchedInvoice string, amountWithinTolerance bool) float64 {
	var confidence float64

	similarity := CharacterSimilarity(paymentText, matchedInvoice)

	switch pass {
	case models.PassExact:
		confidence = config.ExactBaseConfidence
		if similarity < config.ExactSimilarityFloor {
			confidence *= config.ExactDissimilarPenalty
		}
	case models.PassRelaxed:
		confidence = config.RelaxedBaseConfidence * (0.7 + 0.3*similarity)
	case models.PassNumeric:
		confidence = config.NumericBaseConfidence * (0.5 + 0.5*similarity)
	default:
		return 0.0
	}

	if !amountWithinTolerance {
		confidence *= config.AmountMismatchPenalty
	}

	return clamp01(confidence)
}

// CharacterSimilarity returns the Jaccard index over the distinct-character
// sets of the two strings, compared case-insensitively: the size of the
// intersection divided by the size of the union. Identical strings score
// 1.0; if either string is empty the score is 0.0.
func CharacterSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}

	setA := charSet(a)
	setB := charSet(b)

	intersection := 0
	for r := range setA {
		if setB[r] {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0.0
	}

	return float64(intersection) / float64(union)
}

func charSet(s string) map[rune]bool {
	set := make(map[rune]bool, len(s))
	for _, r := range strings.ToLower(s) {
		set[r] = true
	}
	return set
}

func clamp01(v float64) float64 {
	if v < 0.0 {
		return 0.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}
