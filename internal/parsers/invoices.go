package parsers

import (
	"context"
	"fmt"
	"strings"

	"remittance-matching-service/internal/models"
	"remittance-matching-service/pkg/errors"
	"remittance-matching-service/pkg/logger"

	"github.com/shopspring/decimal"
)

// InvoiceParserConfig configures ingestion of a ledger invoice CSV.
type InvoiceParserConfig struct {
	NumberColumn string
	TotalColumn  string
	StatusColumn string

	HasHeader     bool
	Delimiter     rune
	ColumnAliases map[string]string

	// DefaultStatus is assumed when the status column is absent or empty.
	DefaultStatus models.InvoiceStatus
}

// DefaultInvoiceParserConfig returns the standard ledger CSV layout.
func DefaultInvoiceParserConfig() *InvoiceParserConfig {
	return &InvoiceParserConfig{
		NumberColumn:  "invoice_number",
		TotalColumn:   "total",
		StatusColumn:  "status",
		HasHeader:     true,
		Delimiter:     ',',
		DefaultStatus: models.InvoiceStatusAuthorised,
		ColumnAliases: map[string]string{
			"number":         "invoice_number",
			"invoice":        "invoice_number",
			"invoice_no":     "invoice_number",
			"inv_number":     "invoice_number",
			"reference":      "invoice_number",
			"amount":         "total",
			"total_due":      "total",
			"amount_due":     "total",
			"gross":          "total",
			"state":          "status",
			"invoice_status": "status",
		},
	}
}

// Validate checks the parser configuration.
func (c *InvoiceParserConfig) Validate() error {
	if strings.TrimSpace(c.NumberColumn) == "" {
		return fmt.Errorf("invoice number column is required")
	}
	if c.Delimiter == 0 {
		return fmt.Errorf("delimiter cannot be zero")
	}
	return nil
}

// InvoiceParser reads ledger invoice snapshots from CSV files.
type InvoiceParser struct {
	config *InvoiceParserConfig
	log    logger.Logger
}

// NewInvoiceParser creates an invoice parser with the given configuration.
func NewInvoiceParser(config *InvoiceParserConfig) (*InvoiceParser, error) {
	if config == nil {
		config = DefaultInvoiceParserConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "invoice_parser", config, err)
	}

	return &InvoiceParser{
		config: config,
		log:    logger.Global().WithComponent("invoice_parser"),
	}, nil
}

// ParseInvoices reads every invoice row from the file, preserving row order.
func (p *InvoiceParser) ParseInvoices(path string) ([]*models.Invoice, *ParseStats, error) {
	return p.ParseInvoicesWithContext(context.Background(), path)
}

// ParseInvoicesWithContext reads invoice rows, honoring cancellation between
// rows. Malformed rows are counted and skipped; only structural failures
// (unreadable file, missing identifier column) abort the parse.
func (p *InvoiceParser) ParseInvoicesWithContext(ctx context.Context, path string) ([]*models.Invoice, *ParseStats, error) {
	file, reader, err := openCSV(path, p.config.Delimiter)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	stats := &ParseStats{}
	var invoices []*models.Invoice
	var cols columnMap

	if !p.config.HasHeader {
		cols = p.positionalColumns()
	}

	onHeader := func(header []string) error {
		wanted := []string{p.config.NumberColumn, p.config.TotalColumn, p.config.StatusColumn}
		cols = resolveColumns(header, wanted, p.config.ColumnAliases)
		if _, ok := cols[p.config.NumberColumn]; !ok {
			return errors.ParseError(errors.CodeMissingColumn, path, 1, p.config.NumberColumn, "", nil)
		}
		return nil
	}

	rowErr := forEachRow(ctx, reader, p.config.HasHeader, onHeader, func(line int, record []string) error {
		stats.TotalRows++

		if isBlankRecord(record) {
			stats.SkippedRows++
			return nil
		}

		invoice, err := p.parseRecord(record, cols)
		if err != nil {
			p.log.WithError(err).WithField("line", line).Warn("skipping invalid invoice row")
			stats.ErrorCount++
			return nil
		}

		invoices = append(invoices, invoice)
		stats.ParsedRows++
		return nil
	})
	if rowErr != nil {
		return invoices, stats, errors.WrapIfNeeded(rowErr, errors.CategoryParse, errors.CodeInvalidFormat,
			fmt.Sprintf("failed to parse invoice file %s", path))
	}

	p.log.WithFields(logger.Fields{
		"file":   path,
		"parsed": stats.ParsedRows,
		"errors": stats.ErrorCount,
	}).Debug("invoice file parsed")

	return invoices, stats, nil
}

// positionalColumns assumes the layout number,total,status for headerless
// files.
func (p *InvoiceParser) positionalColumns() columnMap {
	return columnMap{
		p.config.NumberColumn: 0,
		p.config.TotalColumn:  1,
		p.config.StatusColumn: 2,
	}
}

func (p *InvoiceParser) parseRecord(record []string, cols columnMap) (*models.Invoice, error) {
	number := fieldAt(record, cols[p.config.NumberColumn])
	if number == "" {
		return nil, fmt.Errorf("empty invoice number")
	}

	invoice := &models.Invoice{
		InvoiceNumber: number,
		Status:        p.config.DefaultStatus,
	}

	if idx, ok := cols[p.config.TotalColumn]; ok {
		if raw := fieldAt(record, idx); raw != "" {
			total, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
			if err != nil {
				return nil, fmt.Errorf("invalid total %q: %w", raw, err)
			}
			invoice.Total = decimal.NullDecimal{Decimal: total, Valid: true}
		}
	}

	if idx, ok := cols[p.config.StatusColumn]; ok {
		if raw := fieldAt(record, idx); raw != "" {
			status := models.InvoiceStatus(strings.ToUpper(raw))
			if !status.IsValid() {
				return nil, fmt.Errorf("invalid invoice status %q", raw)
			}
			invoice.Status = status
		}
	}

	if err := invoice.Validate(); err != nil {
		return nil, err
	}

	return invoice, nil
}
