package matcher

import (
	"sync"
	"time"

	"remittance-matching-service/internal/models"
	"remittance-matching-service/pkg/logger"
)

// AmountChecker reports whether a payment line's paid amount agrees with the
// recorded total of the invoice it matched. Callers that track invoice
// totals supply this; a nil checker treats every amount as agreeing. A
// checker must return false when the invoice total is unknown.
type AmountChecker func(line *models.PaymentLine, invoiceNumber string) bool

// MatchingEngine runs the multi-pass matching algorithm over one batch of
// payment lines. An engine holds only configuration and may be reused across
// runs; each run builds its own lookup tables and touches no shared state.
type MatchingEngine struct {
	Config *Config

	log logger.Logger
}

// NewMatchingEngine creates a matching engine with the given configuration.
// A nil config selects the defaults.
func NewMatchingEngine(config *Config) *MatchingEngine {
	if config == nil {
		config = DefaultConfig()
	}

	return &MatchingEngine{
		Config: config,
		log:    logger.Global().WithComponent("matching_engine"),
	}
}

// SetLogger replaces the engine's logger. Intended for injection at
// bootstrap and in tests.
func (me *MatchingEngine) SetLogger(l logger.Logger) {
	me.log = l
}

// Match correlates every payment line against the invoice snapshot and
// returns one result per line, in input order, plus the run summary.
//
// The run proceeds in two fan-out/fan-in stages: the three lookup tables are
// built concurrently and joined, then every line is resolved concurrently
// (bounded by MaxConcurrentLines) into a pre-sized slot indexed by input
// position and joined. Tables are immutable once built, so the resolution
// stage reads them without locking. An empty invoice snapshot short-circuits
// to an all-unmatched result; this is a defined outcome, not an error.
//
// The inputs are treated as read-only snapshots and are never mutated.
func (me *MatchingEngine) Match(invoiceNumbers []string, lines []*models.PaymentLine, amountOK AmountChecker) ([]*models.MatchResult, *models.MatchSummary) {
	start := time.Now()

	if len(invoiceNumbers) == 0 {
		me.log.WithField("lines", len(lines)).Warn("empty invoice snapshot, marking all lines unmatched")
		results := me.allUnmatched(lines)
		return results, models.BuildMatchSummary(results, time.Since(start))
	}

	tables := BuildTableSet(invoiceNumbers, me.Config)

	me.log.WithFields(logger.Fields{
		"invoices":   len(invoiceNumbers),
		"lines":      len(lines),
		"table_keys": tables.TotalKeys(),
	}).Debug("lookup tables built")

	results := make([]*models.MatchResult, len(lines))

	semaphore := make(chan struct{}, me.Config.MaxConcurrentLines)
	var wg sync.WaitGroup

	for i, line := range lines {
		wg.Add(1)

		go func(idx int, pl *models.PaymentLine) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			results[idx] = me.resolveLine(idx, pl, tables, amountOK)
		}(i, line)
	}

	wg.Wait()

	summary := models.BuildMatchSummary(results, time.Since(start))

	me.log.WithFields(logger.Fields{
		"matched":   summary.MatchedCount,
		"unmatched": summary.UnmatchedCount,
		"elapsed":   summary.ProcessingTime,
	}).Info("matching run completed")

	return results, summary
}

// resolveLine resolves a single payment line against the table set.
//
// Logically this is a cascade (try exact, then relaxed, then numeric), but
// the three probes are independent pure lookups, so they are launched
// concurrently and the winner is chosen by pass priority after all three
// complete. Each probe writes only its own slot; correctness depends on the
// priority selection, never on probe completion order.
func (me *MatchingEngine) resolveLine(idx int, line *models.PaymentLine, tables *TableSet, amountOK AmountChecker) *models.MatchResult {
	var probes [3]struct {
		invoice string
		found   bool
	}
	var wg sync.WaitGroup

	for i, pass := range passOrder {
		wg.Add(1)
		go func(slot int, table *LookupTable) {
			defer wg.Done()
			probes[slot].invoice, probes[slot].found = table.Match(line.RawInvoiceText, me.Config)
		}(i, tables.Table(pass))
	}

	wg.Wait()

	for i, pass := range passOrder {
		if !probes[i].found {
			continue
		}

		matched := probes[i].invoice

		amountWithinTolerance := true
		if amountOK != nil {
			amountWithinTolerance = amountOK(line, matched)
		}

		return &models.MatchResult{
			LineNumber:     idx + 1,
			PaymentRawText: line.RawInvoiceText,
			MatchedInvoice: matched,
			Pass:           pass,
			Confidence:     ScoreConfidence(me.Config, pass, line.RawInvoiceText, matched, amountWithinTolerance),
		}
	}

	return &models.MatchResult{
		LineNumber:     idx + 1,
		PaymentRawText: line.RawInvoiceText,
		Pass:           models.PassNone,
	}
}

// allUnmatched produces the short-circuit result list for an empty invoice
// snapshot: every line unmatched, input order preserved.
func (me *MatchingEngine) allUnmatched(lines []*models.PaymentLine) []*models.MatchResult {
	results := make([]*models.MatchResult, len(lines))
	for i, line := range lines {
		results[i] = &models.MatchResult{
			LineNumber:     i + 1,
			PaymentRawText: line.RawInvoiceText,
			Pass:           models.PassNone,
		}
	}
	return results
}
