// Package remit orchestrates a remittance matching run end to end: it
// fetches the outstanding-invoice snapshot from the ledger store, supplies
// the amount-agreement check, invokes the matching engine, and assembles the
// report handed to persistence and reporting. The engine itself stays pure;
// everything that can fail (the ledger fetch, input validation) happens here,
// before the engine runs.
package remit

import (
	"context"
	"time"

	"remittance-matching-service/internal/ledger"
	"remittance-matching-service/internal/matcher"
	"remittance-matching-service/internal/models"
	"remittance-matching-service/pkg/errors"
	"remittance-matching-service/pkg/logger"
)

// Config holds configuration options for the matching service.
type Config struct {
	// InvoiceStatuses restricts the ledger snapshot. Empty means the
	// store's default outstanding subset.
	InvoiceStatuses []models.InvoiceStatus

	// ValidateInputs rejects malformed payment lines before the engine
	// runs, so the run itself keeps its no-failure property.
	ValidateInputs bool
}

// DefaultConfig returns a default service configuration.
func DefaultConfig() *Config {
	return &Config{
		InvoiceStatuses: []models.InvoiceStatus{models.InvoiceStatusAuthorised},
		ValidateInputs:  true,
	}
}

// MatchReport is the complete outcome of one matching run, carrying enough
// information for the caller to update its storage per line and record the
// run for audit.
type MatchReport struct {
	OrganizationID string                 `json:"organization_id"`
	Results        []*models.MatchResult  `json:"results"`
	Summary        *models.MatchSummary   `json:"summary"`
	ProcessedAt    time.Time              `json:"processed_at"`
}

// MatchingService coordinates the ledger store and the matching engine for
// one organization's remittance batches. Dependencies are injected at
// construction; the service holds no per-run state.
type MatchingService struct {
	store  ledger.InvoiceStore
	engine *matcher.MatchingEngine
	config *Config
	log    logger.Logger
}

// NewMatchingService creates a matching service. The store is required; a
// nil engine or config selects the defaults.
func NewMatchingService(store ledger.InvoiceStore, engine *matcher.MatchingEngine, config *Config) (*MatchingService, error) {
	if store == nil {
		return nil, errors.ValidationError(
			errors.CodeMissingField,
			"invoice_store",
			nil,
			nil,
		).WithSuggestion("provide a ledger.InvoiceStore instance")
	}

	if engine == nil {
		engine = matcher.NewMatchingEngine(nil)
	}

	if config == nil {
		config = DefaultConfig()
	}

	return &MatchingService{
		store:  store,
		engine: engine,
		config: config,
		log:    logger.Global().WithComponent("matching_service"),
	}, nil
}

// SetLogger replaces the service's logger.
func (ms *MatchingService) SetLogger(l logger.Logger) {
	ms.log = l
}

// MatchRemittance matches one remittance's payment lines against the
// organization's outstanding invoices and returns the per-line results and
// run summary. A ledger fetch failure aborts the run before the engine is
// invoked; an empty snapshot is not an error and yields an all-unmatched
// report.
func (ms *MatchingService) MatchRemittance(ctx context.Context, organizationID string, lines []*models.PaymentLine) (*MatchReport, error) {
	log := ms.log.WithFields(logger.Fields{
		"organization_id": organizationID,
		"lines":           len(lines),
	})
	log.Info("starting remittance matching run")

	if ms.config.ValidateInputs {
		for i, line := range lines {
			if err := line.Validate(); err != nil {
				return nil, errors.ValidationError(
					errors.CodeInvalidData,
					"payment_line",
					line.RawInvoiceText,
					err,
				).WithContext("line_number", i+1)
			}
		}
	}

	invoices, err := ms.store.ListOutstanding(ctx, organizationID, ms.config.InvoiceStatuses...)
	if err != nil {
		log.WithError(err).Error("failed to fetch invoice snapshot")
		return nil, errors.MatchingError(
			errors.CodeLedgerUnavailable,
			"invoice snapshot fetch",
			err,
		).WithContext("organization_id", organizationID)
	}

	if len(invoices) == 0 {
		log.Warn("no outstanding invoices for organization")
	}

	invoiceNumbers := make([]string, len(invoices))
	byNumber := make(map[string]*models.Invoice, len(invoices))
	for i, inv := range invoices {
		invoiceNumbers[i] = inv.InvoiceNumber
		if _, seen := byNumber[inv.InvoiceNumber]; !seen {
			byNumber[inv.InvoiceNumber] = inv
		}
	}

	results, summary := ms.engine.Match(invoiceNumbers, lines, ms.amountChecker(byNumber))

	log.WithFields(logger.Fields{
		"matched":          summary.MatchedCount,
		"unmatched":        summary.UnmatchedCount,
		"match_percentage": summary.MatchPercentage,
		"elapsed":          summary.ProcessingTime,
	}).Info("remittance matching run completed")

	return &MatchReport{
		OrganizationID: organizationID,
		Results:        results,
		Summary:        summary,
		ProcessedAt:    time.Now(),
	}, nil
}

// amountChecker builds the engine's amount-agreement callback over the
// fetched snapshot: the paid amount agrees when the invoice total is known
// and the absolute difference is within the configured tolerance. An
// unknown total counts as disagreement, which penalizes rather than skips
// the check.
func (ms *MatchingService) amountChecker(byNumber map[string]*models.Invoice) matcher.AmountChecker {
	tolerance := ms.engine.Config.AmountTolerance

	return func(line *models.PaymentLine, invoiceNumber string) bool {
		inv, ok := byNumber[invoiceNumber]
		if !ok || !inv.Total.Valid {
			return false
		}

		diff := line.PaidAmount.Sub(inv.Total.Decimal).Abs()
		return diff.LessThanOrEqual(tolerance)
	}
}
