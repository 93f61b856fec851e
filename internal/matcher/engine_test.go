package matcher

import (
	"fmt"
	"testing"

	"remittance-matching-service/internal/models"
	"remittance-matching-service/pkg/logger"

	"github.com/shopspring/decimal"
)

func createTestPaymentLines() []*models.PaymentLine {
	texts := []string{
		"EXACT-MATCH-001",
		"39859",
		"INV39832",
		"INV39791",
		"123",
		"456",
		"NOMATCH99999",
	}

	lines := make([]*models.PaymentLine, len(texts))
	for i, text := range texts {
		lines[i] = models.NewPaymentLine(text, decimal.NewFromInt(100))
	}
	return lines
}

func newTestEngine() *MatchingEngine {
	engine := NewMatchingEngine(DefaultConfig())
	engine.SetLogger(logger.Discard())
	return engine
}

func TestMatchEndToEnd(t *testing.T) {
	engine := newTestEngine()
	results, summary := engine.Match(createTestInvoiceNumbers(), createTestPaymentLines(), nil)

	expected := []struct {
		invoice string
		pass    models.NormalizationPass
	}{
		{"EXACT-MATCH-001", models.PassExact},
		{"Invoice-Sarah-39859", models.PassNumeric},
		{"INV 39832", models.PassRelaxed},
		{"Inv--39791", models.PassRelaxed},
		{"ABC-123-DEF", models.PassNumeric},
		{"XYZ456QRS", models.PassNumeric},
		{"", models.PassNone},
	}

	if len(results) != len(expected) {
		t.Fatalf("expected %d results, got %d", len(expected), len(results))
	}

	for i, exp := range expected {
		r := results[i]
		if r.LineNumber != i+1 {
			t.Errorf("result %d: line number %d, want %d", i, r.LineNumber, i+1)
		}
		if r.MatchedInvoice != exp.invoice {
			t.Errorf("result %d: matched %q, want %q", i, r.MatchedInvoice, exp.invoice)
		}
		if r.Pass != exp.pass {
			t.Errorf("result %d: pass %v, want %v", i, r.Pass, exp.pass)
		}
		if err := r.Validate(); err != nil {
			t.Errorf("result %d invalid: %v", i, err)
		}
	}

	if summary.TotalLines != 7 {
		t.Errorf("summary total lines = %d, want 7", summary.TotalLines)
	}
	if summary.MatchedCount != 6 {
		t.Errorf("summary matched = %d, want 6", summary.MatchedCount)
	}
	if summary.UnmatchedCount != 1 {
		t.Errorf("summary unmatched = %d, want 1", summary.UnmatchedCount)
	}
	if summary.ExactMatches != 1 || summary.RelaxedMatches != 2 || summary.NumericMatches != 3 {
		t.Errorf("summary pass breakdown = %d/%d/%d, want 1/2/3",
			summary.ExactMatches, summary.RelaxedMatches, summary.NumericMatches)
	}
}

func TestMatchPriorityOrder(t *testing.T) {
	engine := newTestEngine()

	// "INV-100" matches INV-100 exactly, but its relaxed key INV100 and
	// numeric key 100 also hit other invoices. The exact pass must win.
	invoices := []string{"INV-100", "INV 100", "XX-100-YY"}
	lines := []*models.PaymentLine{models.NewPaymentLine("INV-100", decimal.NewFromInt(50))}

	results, _ := engine.Match(invoices, lines, nil)

	if results[0].Pass != models.PassExact {
		t.Errorf("expected exact pass to win, got %v", results[0].Pass)
	}
	if results[0].MatchedInvoice != "INV-100" {
		t.Errorf("expected INV-100, got %s", results[0].MatchedInvoice)
	}
}

func TestMatchEmptySnapshot(t *testing.T) {
	engine := newTestEngine()
	lines := createTestPaymentLines()

	results, summary := engine.Match(nil, lines, nil)

	if len(results) != len(lines) {
		t.Fatalf("expected %d results, got %d", len(lines), len(results))
	}
	for i, r := range results {
		if r.Matched() {
			t.Errorf("result %d: expected unmatched, got %s", i, r.MatchedInvoice)
		}
		if r.Pass != models.PassNone {
			t.Errorf("result %d: pass %v, want PassNone", i, r.Pass)
		}
		if r.LineNumber != i+1 {
			t.Errorf("result %d: line number %d, want %d", i, r.LineNumber, i+1)
		}
	}

	if summary.MatchedCount != 0 || summary.UnmatchedCount != len(lines) {
		t.Errorf("summary %d/%d, want 0/%d", summary.MatchedCount, summary.UnmatchedCount, len(lines))
	}
}

func TestMatchEmptyBatch(t *testing.T) {
	engine := newTestEngine()

	results, summary := engine.Match(createTestInvoiceNumbers(), nil, nil)

	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
	if summary.TotalLines != 0 || summary.MatchPercentage != 0.0 {
		t.Errorf("unexpected summary for empty batch: %+v", summary)
	}
}

func TestMatchDeterministic(t *testing.T) {
	engine := newTestEngine()
	invoices := createTestInvoiceNumbers()
	lines := createTestPaymentLines()

	baseline, _ := engine.Match(invoices, lines, nil)

	for run := 0; run < 20; run++ {
		results, _ := engine.Match(invoices, lines, nil)
		for i := range results {
			if results[i].MatchedInvoice != baseline[i].MatchedInvoice ||
				results[i].Pass != baseline[i].Pass ||
				results[i].Confidence != baseline[i].Confidence {
				t.Fatalf("run %d result %d diverged: %v vs %v", run, i, results[i], baseline[i])
			}
		}
	}
}

func TestMatchOrderStabilityLargeBatch(t *testing.T) {
	engine := newTestEngine()

	var invoices []string
	var lines []*models.PaymentLine
	for i := 0; i < 200; i++ {
		invoices = append(invoices, fmt.Sprintf("INV-%04d", i))
		lines = append(lines, models.NewPaymentLine(fmt.Sprintf("inv-%04d", i), decimal.NewFromInt(1)))
	}

	results, summary := engine.Match(invoices, lines, nil)

	if summary.MatchedCount != 200 {
		t.Fatalf("expected 200 matches, got %d", summary.MatchedCount)
	}
	for i, r := range results {
		want := fmt.Sprintf("INV-%04d", i)
		if r.MatchedInvoice != want {
			t.Errorf("result %d: matched %s, want %s", i, r.MatchedInvoice, want)
		}
	}
}

func TestMatchAmountChecker(t *testing.T) {
	engine := newTestEngine()
	invoices := []string{"INV-100"}
	lines := []*models.PaymentLine{models.NewPaymentLine("INV-100", decimal.NewFromInt(100))}

	agree, _ := engine.Match(invoices, lines, func(line *models.PaymentLine, invoiceNumber string) bool {
		return true
	})
	disagree, _ := engine.Match(invoices, lines, func(line *models.PaymentLine, invoiceNumber string) bool {
		return false
	})

	if disagree[0].Confidence >= agree[0].Confidence {
		t.Errorf("expected amount disagreement to lower confidence: %f vs %f",
			disagree[0].Confidence, agree[0].Confidence)
	}
}

func TestMatchNumericFloorExcludesShortProbe(t *testing.T) {
	engine := newTestEngine()

	invoices := []string{"ABC-12-DEF"}
	lines := []*models.PaymentLine{models.NewPaymentLine("12", decimal.NewFromInt(10))}

	results, _ := engine.Match(invoices, lines, nil)

	if results[0].Matched() {
		t.Errorf("expected no match below numeric floor, got %s", results[0].MatchedInvoice)
	}
}

func TestMatchConcurrencyBound(t *testing.T) {
	config := DefaultConfig()
	config.MaxConcurrentLines = 1
	engine := NewMatchingEngine(config)
	engine.SetLogger(logger.Discard())

	results, summary := engine.Match(createTestInvoiceNumbers(), createTestPaymentLines(), nil)

	if len(results) != 7 || summary.MatchedCount != 6 {
		t.Errorf("serial execution changed outcome: %d results, %d matched", len(results), summary.MatchedCount)
	}
}

func TestNewMatchingEngineNilConfig(t *testing.T) {
	engine := NewMatchingEngine(nil)
	if engine.Config == nil {
		t.Fatal("expected default config")
	}
	if err := engine.Config.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}
