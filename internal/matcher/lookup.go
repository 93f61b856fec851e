package matcher

import (
	"sync"

	"remittance-matching-service/internal/models"
)

// LookupTable maps normalized keys to the ordered list of original invoice
// identifiers sharing that key under one normalization pass. Tables are
// built fresh per matching run from the invoice snapshot, append-only during
// construction and immutable afterwards, so any number of concurrent probes
// may read them without locking.
type LookupTable struct {
	pass    models.NormalizationPass
	entries map[string][]string
}

// NewLookupTable builds the table for one pass from an ordered invoice
// identifier snapshot. Identifiers whose key is unusable under the pass
// (empty, or below the numeric floor) are skipped; identifiers sharing a key
// are retained in snapshot order.
func NewLookupTable(pass models.NormalizationPass, invoiceNumbers []string, config *Config) *LookupTable {
	table := &LookupTable{
		pass:    pass,
		entries: make(map[string][]string, len(invoiceNumbers)),
	}

	for _, number := range invoiceNumbers {
		key, ok := config.normalizeForPass(pass, number)
		if !ok {
			continue
		}
		table.entries[key] = append(table.entries[key], number)
	}

	return table
}

// Pass returns the normalization pass this table was built for.
func (t *LookupTable) Pass() models.NormalizationPass {
	return t.pass
}

// Size returns the number of distinct keys in the table.
func (t *LookupTable) Size() int {
	return len(t.entries)
}

// Match probes the table with a payment line's raw text. The text is
// normalized under the table's pass; an unusable key or an absent key yields
// no match. On a hit the first identifier registered for the key wins — a
// deterministic, snapshot-order tie-break, not a semantic ranking.
func (t *LookupTable) Match(rawText string, config *Config) (string, bool) {
	key, ok := config.normalizeForPass(t.pass, rawText)
	if !ok {
		return "", false
	}

	candidates, found := t.entries[key]
	if !found || len(candidates) == 0 {
		return "", false
	}

	return candidates[0], true
}

// TableSet holds the three per-pass lookup tables for one matching run.
type TableSet struct {
	Exact   *LookupTable
	Relaxed *LookupTable
	Numeric *LookupTable
}

// passOrder lists the passes by descending priority.
var passOrder = [3]models.NormalizationPass{models.PassExact, models.PassRelaxed, models.PassNumeric}

// BuildTableSet constructs all three lookup tables concurrently. Each build
// owns its table exclusively until the join, so no synchronization beyond
// the final wait is needed.
func BuildTableSet(invoiceNumbers []string, config *Config) *TableSet {
	var tables [3]*LookupTable
	var wg sync.WaitGroup

	for i, pass := range passOrder {
		wg.Add(1)
		go func(slot int, p models.NormalizationPass) {
			defer wg.Done()
			tables[slot] = NewLookupTable(p, invoiceNumbers, config)
		}(i, pass)
	}

	wg.Wait()

	return &TableSet{
		Exact:   tables[0],
		Relaxed: tables[1],
		Numeric: tables[2],
	}
}

// Table returns the lookup table for the given pass, or nil for PassNone.
func (ts *TableSet) Table(pass models.NormalizationPass) *LookupTable {
	switch pass {
	case models.PassExact:
		return ts.Exact
	case models.PassRelaxed:
		return ts.Relaxed
	case models.PassNumeric:
		return ts.Numeric
	default:
		return nil
	}
}

// TotalKeys returns the combined key count across all three tables.
func (ts *TableSet) TotalKeys() int {
	return ts.Exact.Size() + ts.Relaxed.Size() + ts.Numeric.Size()
}
