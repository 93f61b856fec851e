// Package matcher implements the multi-pass concurrent matching engine that
// correlates remittance payment lines against ledger invoice identifiers.
//
// Invoice references arrive in inconsistent free-text forms (punctuation,
// casing, spacing, embedded prefixes), so the engine bridges them with three
// normalization passes of decreasing strictness:
//  1. Exact: trim and uppercase
//  2. Relaxed: strip everything but ASCII letters and digits
//  3. Numeric: digits only, with a minimum-length floor against spurious
//     collisions
//
// One run builds a lookup table per pass from the invoice snapshot (the
// three builds run concurrently), then resolves every payment line
// concurrently; each line probes all three tables in parallel and keeps the
// highest-priority hit. Matched results are scored with a confidence value
// derived from the pass, character-set similarity, and amount agreement.
//
// The engine is a pure function of its inputs: it performs no I/O, mutates
// nothing it is given, and has no failure mode. Degenerate inputs (empty
// snapshot, empty batch) short-circuit to all-unmatched or empty results.
//
// Example usage:
//
//	engine := matcher.NewMatchingEngine(matcher.DefaultConfig())
//	results, summary := engine.Match(invoiceNumbers, paymentLines, amountCheck)
package matcher

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Config holds tuning parameters for the matching engine. The defaults
// reproduce the production matching behavior; they are exposed as
// configuration so strictness can be adjusted per deployment without
// touching the algorithm.
type Config struct {
	// NumericKeyMinDigits is the minimum digit count for a numeric-pass key.
	// Shorter digit runs (e.g. a bare "1") are excluded from both table
	// construction and probing to prevent spurious collisions across
	// unrelated invoices.
	NumericKeyMinDigits int `json:"numeric_key_min_digits"`

	// MaxConcurrentLines bounds the number of payment lines resolved
	// concurrently within one run.
	MaxConcurrentLines int `json:"max_concurrent_lines"`

	// Base confidence per pass before adjustments.
	ExactBaseConfidence   float64 `json:"exact_base_confidence"`
	RelaxedBaseConfidence float64 `json:"relaxed_base_confidence"`
	NumericBaseConfidence float64 `json:"numeric_base_confidence"`

	// ExactSimilarityFloor is the character-set similarity below which an
	// exact-pass match is considered dissimilar and penalized.
	ExactSimilarityFloor float64 `json:"exact_similarity_floor"`

	// ExactDissimilarPenalty multiplies exact-pass confidence when the
	// similarity floor is not met.
	ExactDissimilarPenalty float64 `json:"exact_dissimilar_penalty"`

	// AmountMismatchPenalty multiplies confidence when the paid amount does
	// not agree with the invoice total.
	AmountMismatchPenalty float64 `json:"amount_mismatch_penalty"`

	// AmountTolerance is the absolute difference within which a paid amount
	// is considered to agree with the invoice total.
	AmountTolerance decimal.Decimal `json:"amount_tolerance"`
}

// DefaultConfig returns the standard matching configuration.
func DefaultConfig() *Config {
	return &Config{
		NumericKeyMinDigits:    3,
		MaxConcurrentLines:     8,
		ExactBaseConfidence:    0.95,
		RelaxedBaseConfidence:  0.85,
		NumericBaseConfidence:  0.70,
		ExactSimilarityFloor:   0.95,
		ExactDissimilarPenalty: 0.90,
		AmountMismatchPenalty:  0.70,
		AmountTolerance:        decimal.NewFromFloat(0.01),
	}
}

// Validate checks if the matching configuration is valid.
func (c *Config) Validate() error {
	if c.NumericKeyMinDigits < 1 {
		return fmt.Errorf("numeric key minimum digits must be at least 1: %d", c.NumericKeyMinDigits)
	}

	if c.MaxConcurrentLines <= 0 {
		return fmt.Errorf("max concurrent lines must be positive: %d", c.MaxConcurrentLines)
	}

	for name, v := range map[string]float64{
		"exact_base_confidence":    c.ExactBaseConfidence,
		"relaxed_base_confidence":  c.RelaxedBaseConfidence,
		"numeric_base_confidence":  c.NumericBaseConfidence,
		"exact_similarity_floor":   c.ExactSimilarityFloor,
		"exact_dissimilar_penalty": c.ExactDissimilarPenalty,
		"amount_mismatch_penalty":  c.AmountMismatchPenalty,
	} {
		if v < 0.0 || v > 1.0 {
			return fmt.Errorf("%s must be between 0.0 and 1.0: %f", name, v)
		}
	}

	if c.AmountTolerance.IsNegative() {
		return fmt.Errorf("amount tolerance cannot be negative: %s", c.AmountTolerance)
	}

	return nil
}

// Clone creates a copy of the matching configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	clone := *c
	return &clone
}

// String returns a human-readable description of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf("Config{NumericFloor: %d, MaxConcurrentLines: %d, BaseConfidence: %.2f/%.2f/%.2f, AmountTolerance: %s}",
		c.NumericKeyMinDigits, c.MaxConcurrentLines,
		c.ExactBaseConfidence, c.RelaxedBaseConfidence, c.NumericBaseConfidence,
		c.AmountTolerance)
}
